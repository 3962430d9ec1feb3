package member

import (
	"time"
)

// Role 读者角色
// 教学要点:
// 1. 使用string类型而非int:角色值会直接持久化和序列化,
//    对外契约固定为 member/librarian/cancelled 三个字符串
// 2. 闭集枚举:所有switch必须穷举三个值,新增角色时编译器帮不了忙,
//    所以统一走IsValid()校验入口
type Role string

const (
	RoleMember    Role = "member"    // 普通读者
	RoleLibrarian Role = "librarian" // 馆员(审批、库存管理权限)
	RoleCancelled Role = "cancelled" // 已注销(不可借阅)
)

// IsValid 校验角色是否在闭集内
func (r Role) IsValid() bool {
	switch r {
	case RoleMember, RoleLibrarian, RoleCancelled:
		return true
	default:
		return false
	}
}

// Member 读者实体（聚合根）
// DDD设计说明：
// 1. Member是读者聚合的根实体,密码bcrypt加密存储
// 2. BorrowedCount是冗余计数(可由在借Loan行推导),
//    不变式:0 ≤ BorrowedCount ≤ MaxBorrow
// 3. 已注销读者MaxBorrow恒为0,任何借阅操作都会触发上限校验失败
// 4. 领域实体不依赖GORM tag(infrastructure层的Repository实现时处理映射)
type Member struct {
	ID            uint
	Email         string
	Password      string // bcrypt哈希值
	Name          string
	Role          Role
	MaxBorrow     int // 同时在借上限
	BorrowedCount int // 当前在借数量(冗余计数)
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewMember 创建新读者（工厂方法）
// hashedPassword必须是bcrypt加密后的密码
func NewMember(email, hashedPassword, name string, maxBorrow int) *Member {
	now := time.Now()
	return &Member{
		Email:         email,
		Password:      hashedPassword,
		Name:          name,
		Role:          RoleMember,
		MaxBorrow:     maxBorrow,
		BorrowedCount: 0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// CanBorrow 检查是否还能再借一本
// 业务规则:只有普通读者账号可以借阅——馆员账号是管理身份,
// 已注销读者(MaxBorrow=0)更不可借
func (m *Member) CanBorrow() bool {
	if m.Role != RoleMember {
		return false
	}
	return m.BorrowedCount < m.MaxBorrow
}

// IsLibrarian 是否为馆员
func (m *Member) IsLibrarian() bool {
	return m.Role == RoleLibrarian
}

// Promote 提升为馆员（领域行为）
func (m *Member) Promote() error {
	if m.Role == RoleCancelled {
		return ErrMemberCancelled
	}
	m.Role = RoleLibrarian
	m.UpdatedAt = time.Now()
	return nil
}

// Cancel 注销读者（领域行为）
// 业务规则:有在借图书时不允许注销
func (m *Member) Cancel() error {
	if m.BorrowedCount > 0 {
		return ErrMemberHasOpenLoans
	}
	m.Role = RoleCancelled
	m.MaxBorrow = 0
	m.UpdatedAt = time.Now()
	return nil
}

// UpdateName 更新姓名（领域行为）
func (m *Member) UpdateName(name string) {
	m.Name = name
	m.UpdatedAt = time.Now()
}
