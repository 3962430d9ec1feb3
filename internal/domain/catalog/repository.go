package catalog

import (
	"context"
)

// TitleRepository 书目仓储接口(依赖倒置原则)
// 设计说明:
// 1. 由domain层定义接口,infrastructure层实现
// 2. 支持事务操作(通过context传递事务)
type TitleRepository interface {
	// Create 创建书目
	Create(ctx context.Context, t *Title) error

	// FindByID 根据ID查找书目
	FindByID(ctx context.Context, id uint) (*Title, error)

	// FindByISBN 根据ISBN查找书目
	FindByISBN(ctx context.Context, isbn string) (*Title, error)

	// Update 更新书目信息(不含计数字段)
	Update(ctx context.Context, t *Title) error

	// List 分页查询书目列表
	List(ctx context.Context, params ListParams) ([]*Title, int64, error)

	// LockByID 悲观锁查询书目(SELECT FOR UPDATE)
	// 流通路径上锁定书目行,为计数调整定序
	LockByID(ctx context.Context, id uint) (*Title, error)

	// AdjustCopies 原子调整副本计数
	// 受护的UPDATE语句保证 0 ≤ available_copies ≤ total_copies,
	// 越界时返回ErrCopiesOutOfRange
	AdjustCopies(ctx context.Context, id uint, totalDelta, availableDelta int) error
}

// ItemRepository 馆藏副本仓储接口
type ItemRepository interface {
	// Create 创建副本
	// 条码重复时返回ErrDuplicateBarcode
	Create(ctx context.Context, item *Item) error

	// FindByID 根据ID查找副本
	FindByID(ctx context.Context, id uint) (*Item, error)

	// FindByBarcode 根据条码查找副本
	FindByBarcode(ctx context.Context, barcode string) (*Item, error)

	// ListByTitle 查询某书目下的全部副本
	ListByTitle(ctx context.Context, titleID uint) ([]*Item, error)

	// Delete 删除副本(下架,硬删除)
	Delete(ctx context.Context, id uint) error

	// LockByID 悲观锁查询副本(SELECT FOR UPDATE)
	LockByID(ctx context.Context, id uint) (*Item, error)

	// UpdateStatus 受护的状态更新
	// UPDATE ... SET status=to WHERE id=? AND status=from,
	// 未命中(并发抢先)时返回ErrInvalidTransition
	UpdateStatus(ctx context.Context, id uint, from, to ItemStatus) error

	// FirstAvailableForUpdate 锁定并返回该书目条码最小的available副本
	// 教学要点:
	// 1. ORDER BY barcode ASC保证并发选取结果确定(平局裁决规则)
	// 2. SELECT FOR UPDATE防止同一副本被两个事务同时选中
	// 无可借副本时返回ErrNoItemsAvailable
	FirstAvailableForUpdate(ctx context.Context, titleID uint) (*Item, error)

	// CountByTitleStatus 按状态统计某书目副本数(计数自检/修复用)
	CountByTitleStatus(ctx context.Context, titleID uint, status ItemStatus) (int64, error)
}

// ListParams 书目列表查询参数
type ListParams struct {
	Page     int    // 页码(从1开始)
	PageSize int    // 每页数量
	Keyword  string // 搜索关键词(标题、作者、ISBN)
	Category string // 分类过滤
}
