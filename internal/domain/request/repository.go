package request

import (
	"context"
)

// Repository 借阅申请仓储接口(依赖倒置原则)
type Repository interface {
	// Create 创建申请
	Create(ctx context.Context, r *BorrowRequest) error

	// FindByID 根据ID查找申请
	FindByID(ctx context.Context, id uint) (*BorrowRequest, error)

	// LockByID 悲观锁查询申请(SELECT FOR UPDATE)
	// 审批路径上锁定申请行,使并发审批/撤回串行化
	LockByID(ctx context.Context, id uint) (*BorrowRequest, error)

	// Update 更新申请(状态、审批信息)
	Update(ctx context.Context, r *BorrowRequest) error

	// ListByStatus 按状态查询申请列表(status为空串表示不过滤)
	ListByStatus(ctx context.Context, status Status, page, pageSize int) ([]*BorrowRequest, int64, error)

	// ListByMember 查询读者的申请列表
	ListByMember(ctx context.Context, memberID uint, status Status, page, pageSize int) ([]*BorrowRequest, int64, error)
}
