package loan

import (
	"context"
	"time"
)

// Repository 借阅记录仓储接口(依赖倒置原则)
// 教学要点:
// 1. 由domain层定义接口,infrastructure层实现
// 2. 支持事务操作(通过context传递事务)
type Repository interface {
	// Create 创建借阅记录
	Create(ctx context.Context, l *Loan) error

	// FindByID 根据ID查找借阅记录
	FindByID(ctx context.Context, id uint) (*Loan, error)

	// LockByID 悲观锁查询借阅记录(SELECT FOR UPDATE)
	// 归还/续借路径上锁定记录行,使重复提交串行化
	LockByID(ctx context.Context, id uint) (*Loan, error)

	// Update 更新借阅记录(状态、到期日、罚金)
	Update(ctx context.Context, l *Loan) error

	// FindOpenByItem 查找某副本的在借记录(issued/overdue)
	// 不变式:一本副本同一时刻至多一条;不存在时返回ErrLoanNotFound
	FindOpenByItem(ctx context.Context, itemID uint) (*Loan, error)

	// ListByMember 查询读者的借阅记录列表
	// status为空串表示不过滤
	ListByMember(ctx context.Context, memberID uint, status Status, page, pageSize int) ([]*Loan, int64, error)

	// ListIssuedDueBefore 查询已过期但仍为issued的记录(逾期巡检用)
	ListIssuedDueBefore(ctx context.Context, deadline time.Time, limit int) ([]*Loan, error)
}
