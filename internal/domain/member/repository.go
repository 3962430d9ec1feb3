package member

import (
	"context"
)

// Repository 读者仓储接口
// DDD设计说明：
// 1. 接口定义在domain层（依赖倒置原则）
// 2. 具体实现在infrastructure/persistence/mysql层
// 3. 便于单元测试（Mock此接口）
type Repository interface {
	// Create 创建读者
	// 注意：如果邮箱已存在，应返回ErrEmailDuplicate
	Create(ctx context.Context, m *Member) error

	// FindByID 根据ID查找读者
	// 如果不存在，返回ErrMemberNotFound
	FindByID(ctx context.Context, id uint) (*Member, error)

	// FindByEmail 根据邮箱查找读者
	FindByEmail(ctx context.Context, email string) (*Member, error)

	// Update 更新读者信息
	Update(ctx context.Context, m *Member) error

	// LockByID 悲观锁查询读者(SELECT FOR UPDATE)
	// 借书路径上锁定读者行,使并发的借阅上限检查串行化
	LockByID(ctx context.Context, id uint) (*Member, error)

	// AdjustBorrowed 原子调整在借计数
	// delta为+1(借出)或-1(归还);
	// 内部以受护的UPDATE语句保证 0 ≤ borrowed_count ≤ max_borrow,
	// 越界时返回ErrBorrowLimitExceeded
	AdjustBorrowed(ctx context.Context, id uint, delta int) error
}
