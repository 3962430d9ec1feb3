package member

import (
	"context"
	"regexp"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/xiebiao/libracirc/pkg/errors"
)

// Service 读者领域服务
// 设计说明：
// 1. Service包含不属于单个实体的业务逻辑（密码加密、验证）
// 2. Service依赖Repository接口，不依赖具体实现（依赖倒置）
// 3. Service不处理HTTP请求，只处理业务逻辑
type Service interface {
	// Register 读者注册
	Register(ctx context.Context, email, password, name string, maxBorrow int) (*Member, error)

	// Login 读者登录
	Login(ctx context.Context, email, password string) (*Member, error)

	// ValidatePassword 验证密码
	ValidatePassword(hashedPassword, plainPassword string) error
}

type service struct {
	repo Repository
}

// NewService 创建读者服务
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Register 读者注册
// 业务规则：
// 1. 邮箱格式校验
// 2. 密码强度校验（8-20位，包含字母和数字）
// 3. 密码bcrypt加密（cost=12）
// 4. 邮箱唯一性由数据库UNIQUE索引保证,Repository转换为ErrEmailDuplicate
func (s *service) Register(ctx context.Context, email, password, name string, maxBorrow int) (*Member, error) {
	// 1. 邮箱格式校验
	if !isValidEmail(email) {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "邮箱格式不正确")
	}

	// 2. 密码强度校验
	if err := validatePasswordStrength(password); err != nil {
		return nil, err
	}

	// 3. 姓名校验
	if len(name) < 2 || len(name) > 50 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "姓名长度应为2-50个字符")
	}

	// 4. 借阅上限校验
	if maxBorrow <= 0 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "借阅上限必须大于0")
	}

	// 5. 密码加密
	// bcrypt自动加盐,cost=12是安全与性能的平衡点
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return nil, apperrors.Wrap(err, "密码加密失败")
	}

	// 6. 创建读者实体并持久化
	m := NewMember(email, string(hashedPassword), name, maxBorrow)
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err // Repository已转换为业务错误
	}

	return m, nil
}

// Login 读者登录
func (s *service) Login(ctx context.Context, email, password string) (*Member, error) {
	// 1. 根据邮箱查找读者
	m, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err // Repository已转换为ErrMemberNotFound
	}

	// 2. 已注销读者不允许登录
	if m.Role == RoleCancelled {
		return nil, ErrMemberCancelled
	}

	// 3. 验证密码
	if err := s.ValidatePassword(m.Password, password); err != nil {
		return nil, err
	}

	return m, nil
}

// ValidatePassword 验证密码
func (s *service) ValidatePassword(hashedPassword, plainPassword string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	if err != nil {
		if err == bcrypt.ErrMismatchedHashAndPassword {
			return apperrors.ErrInvalidPassword
		}
		return apperrors.Wrap(err, "密码验证失败")
	}
	return nil
}

// =========================================
// 辅助函数：业务规则校验
// =========================================

// isValidEmail 邮箱格式校验
func isValidEmail(email string) bool {
	pattern := `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	matched, _ := regexp.MatchString(pattern, email)
	return matched
}

// validatePasswordStrength 密码强度校验
// 规则：8-20位，必须包含字母和数字
func validatePasswordStrength(password string) error {
	if len(password) < 8 || len(password) > 20 {
		return ErrWeakPassword
	}

	hasLetter := regexp.MustCompile(`[a-zA-Z]`).MatchString(password)
	hasDigit := regexp.MustCompile(`[0-9]`).MatchString(password)

	if !hasLetter || !hasDigit {
		return ErrWeakPassword
	}

	return nil
}
