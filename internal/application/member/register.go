package member

import (
	"context"

	"github.com/xiebiao/libracirc/internal/domain/member"
)

// RegisterUseCase 读者注册用例
// 设计说明：
// 1. Application层负责用例编排，协调多个领域服务
// 2. 借阅上限由流通配置给出默认值,馆员后续可按读者调整
type RegisterUseCase struct {
	memberService    member.Service
	defaultMaxBorrow int
}

// NewRegisterUseCase 创建注册用例
func NewRegisterUseCase(memberService member.Service, defaultMaxBorrow int) *RegisterUseCase {
	return &RegisterUseCase{
		memberService:    memberService,
		defaultMaxBorrow: defaultMaxBorrow,
	}
}

// Execute 执行注册
// 返回：RegisterResponse（应用层DTO，不是领域实体）
func (uc *RegisterUseCase) Execute(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	// 1. 调用领域服务执行注册
	m, err := uc.memberService.Register(ctx, req.Email, req.Password, req.Name, uc.defaultMaxBorrow)
	if err != nil {
		return nil, err
	}

	// 2. 领域实体 → 应用层DTO
	// 说明：不直接返回领域实体，而是转换为DTO
	// 好处：领域模型变更不影响API契约
	return &RegisterResponse{
		ID:        m.ID,
		Email:     m.Email,
		Name:      m.Name,
		Role:      string(m.Role),
		MaxBorrow: m.MaxBorrow,
	}, nil
}

// =========================================
// 应用层DTO（数据传输对象）
// =========================================

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email    string
	Password string
	Name     string
}

// RegisterResponse 注册响应
// 说明：不返回密码字段（安全考虑）
type RegisterResponse struct {
	ID        uint   `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	MaxBorrow int    `json:"max_borrow"`
}
