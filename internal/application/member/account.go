package member

import (
	"context"

	"github.com/xiebiao/libracirc/internal/application/circulation"
	"github.com/xiebiao/libracirc/internal/domain/member"
	"github.com/xiebiao/libracirc/internal/infrastructure/persistence/redis"
	apperrors "github.com/xiebiao/libracirc/pkg/errors"
)

// PromoteMemberUseCase 提升馆员用例(仅馆员可操作)
type PromoteMemberUseCase struct {
	coordinator *circulation.Coordinator
	members     member.Repository
}

// NewPromoteMemberUseCase 创建提升馆员用例
func NewPromoteMemberUseCase(
	coordinator *circulation.Coordinator,
	members member.Repository,
) *PromoteMemberUseCase {
	return &PromoteMemberUseCase{
		coordinator: coordinator,
		members:     members,
	}
}

// Execute 执行提升
func (uc *PromoteMemberUseCase) Execute(ctx context.Context, memberID uint) (*MemberInfo, error) {
	var result *member.Member
	err := uc.coordinator.Atomic(ctx, "PromoteMember", func(txCtx context.Context) error {
		m, err := uc.members.LockByID(txCtx, memberID)
		if err != nil {
			return err
		}

		if err := m.Promote(); err != nil {
			return err
		}
		if err := uc.members.Update(txCtx, m); err != nil {
			return err
		}

		result = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &MemberInfo{
		ID:    result.ID,
		Email: result.Email,
		Name:  result.Name,
		Role:  string(result.Role),
	}, nil
}

// CancelMembershipUseCase 注销账号用例
// 业务规则:
// 1. 有在借图书时不允许注销(须先全部归还)
// 2. 注销后角色变为cancelled,借阅上限归零,登录被拒绝
// 3. 提交后清除会话,使已签发的Token尽快失效
type CancelMembershipUseCase struct {
	coordinator  *circulation.Coordinator
	members      member.Repository
	sessionStore *redis.SessionStore
}

// NewCancelMembershipUseCase 创建注销账号用例
func NewCancelMembershipUseCase(
	coordinator *circulation.Coordinator,
	members member.Repository,
	sessionStore *redis.SessionStore,
) *CancelMembershipUseCase {
	return &CancelMembershipUseCase{
		coordinator:  coordinator,
		members:      members,
		sessionStore: sessionStore,
	}
}

// CancelMembershipRequest 注销账号请求DTO
type CancelMembershipRequest struct {
	MemberID    uint // 被注销读者ID
	ActorID     uint // 操作者(从JWT中提取)
	IsLibrarian bool // 馆员可代读者注销
}

// Execute 执行注销
func (uc *CancelMembershipUseCase) Execute(ctx context.Context, req CancelMembershipRequest) error {
	err := uc.coordinator.Atomic(ctx, "CancelMembership", func(txCtx context.Context) error {
		// 1. 锁定读者行(与并发借出的CanBorrow检查串行化,
		//    避免"注销瞬间借出一本"的竞态)
		m, err := uc.members.LockByID(txCtx, req.MemberID)
		if err != nil {
			return err
		}

		// 2. 权限:读者只能注销本人账号
		if !req.IsLibrarian && m.ID != req.ActorID {
			return apperrors.ErrForbidden
		}

		// 3. 注销(有在借图书时报ErrMemberHasOpenLoans)
		if err := m.Cancel(); err != nil {
			return err
		}
		return uc.members.Update(txCtx, m)
	})
	if err != nil {
		return err
	}

	// 提交成功后清除会话(失败不回滚注销结果)
	if err := uc.sessionStore.DeleteSession(ctx, req.MemberID); err != nil {
		// TODO: 记录日志
	}

	return nil
}

// GetProfileUseCase 查询读者资料用例
type GetProfileUseCase struct {
	members member.Repository
}

// NewGetProfileUseCase 创建查询资料用例
func NewGetProfileUseCase(members member.Repository) *GetProfileUseCase {
	return &GetProfileUseCase{members: members}
}

// ProfileResponse 读者资料响应DTO
type ProfileResponse struct {
	MemberInfo
	MaxBorrow     int `json:"max_borrow"`
	BorrowedCount int `json:"borrowed_count"`
}

// Execute 执行查询
func (uc *GetProfileUseCase) Execute(ctx context.Context, memberID uint) (*ProfileResponse, error) {
	m, err := uc.members.FindByID(ctx, memberID)
	if err != nil {
		return nil, err
	}

	return &ProfileResponse{
		MemberInfo: MemberInfo{
			ID:    m.ID,
			Email: m.Email,
			Name:  m.Name,
			Role:  string(m.Role),
		},
		MaxBorrow:     m.MaxBorrow,
		BorrowedCount: m.BorrowedCount,
	}, nil
}
