package reservation

import (
	"context"
)

// Repository 预约仓储接口(依赖倒置原则)
// 教学要点:
// 1. 由domain层定义接口,infrastructure层实现
// 2. 队列语义(FIFO)体现在FindHeadWaitingForUpdate的排序上,
//    不在内存里维护队列结构
type Repository interface {
	// Create 创建预约
	Create(ctx context.Context, r *Reservation) error

	// FindByID 根据ID查找预约
	FindByID(ctx context.Context, id uint) (*Reservation, error)

	// LockByID 悲观锁查询预约(SELECT FOR UPDATE)
	LockByID(ctx context.Context, id uint) (*Reservation, error)

	// Update 更新预约(状态、绑定副本)
	Update(ctx context.Context, r *Reservation) error

	// FindActiveByMemberTitle 查找读者对某书目的活跃预约(waiting/notified)
	// 不存在时返回ErrReservationNotFound;用于重复预约校验
	FindActiveByMemberTitle(ctx context.Context, memberID, titleID uint) (*Reservation, error)

	// FindHeadWaitingForUpdate 锁定并返回某书目队首的waiting预约
	// ORDER BY reserved_at ASC, id ASC(同刻预约按创建顺序裁决)
	// 队列为空时返回ErrReservationNotFound
	FindHeadWaitingForUpdate(ctx context.Context, titleID uint) (*Reservation, error)

	// ListByTitle 查询某书目的预约列表(status为空串表示不过滤)
	ListByTitle(ctx context.Context, titleID uint, status Status, page, pageSize int) ([]*Reservation, int64, error)

	// ListByMember 查询读者的预约列表
	ListByMember(ctx context.Context, memberID uint, status Status, page, pageSize int) ([]*Reservation, int64, error)
}
