package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/libracirc/internal/domain/catalog"
	apperrors "github.com/xiebiao/libracirc/pkg/errors"
)

// itemRepository 馆藏副本仓储实现(MySQL)
// 设计说明:
// 1. 实现domain/catalog/repository.go的ItemRepository接口
// 2. 状态流转走UpdateStatus的受护UPDATE:WHERE带上期望的当前状态,
//    并发抢先改掉状态时本次更新不命中,直接报非法流转
type itemRepository struct {
	db *gorm.DB
}

// NewItemRepository 创建副本仓储
func NewItemRepository(db *gorm.DB) catalog.ItemRepository {
	return &itemRepository{db: db}
}

// Create 创建副本
func (r *itemRepository) Create(ctx context.Context, item *catalog.Item) error {
	model := &ItemModel{
		TitleID:   item.TitleID,
		Barcode:   item.Barcode,
		Location:  item.Location,
		Condition: item.Condition,
		Status:    string(item.Status),
	}

	if err := r.getDB(ctx).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return catalog.ErrDuplicateBarcode
		}
		return apperrors.Wrap(err, "创建副本失败")
	}

	item.ID = model.ID
	item.CreatedAt = model.CreatedAt
	item.UpdatedAt = model.UpdatedAt

	return nil
}

// FindByID 根据ID查找副本
func (r *itemRepository) FindByID(ctx context.Context, id uint) (*catalog.Item, error) {
	var model ItemModel
	err := r.getDB(ctx).First(&model, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrItemNotFound
		}
		return nil, apperrors.Wrap(err, "查询副本失败")
	}

	return toItemEntity(&model), nil
}

// FindByBarcode 根据条码查找副本
func (r *itemRepository) FindByBarcode(ctx context.Context, barcode string) (*catalog.Item, error) {
	var model ItemModel
	err := r.getDB(ctx).Where("barcode = ?", barcode).First(&model).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrItemNotFound
		}
		return nil, apperrors.Wrap(err, "查询副本失败")
	}

	return toItemEntity(&model), nil
}

// ListByTitle 查询某书目下的全部副本
func (r *itemRepository) ListByTitle(ctx context.Context, titleID uint) ([]*catalog.Item, error) {
	var models []ItemModel
	err := r.getDB(ctx).
		Where("title_id = ?", titleID).
		Order("barcode ASC").
		Find(&models).Error

	if err != nil {
		return nil, apperrors.Wrap(err, "查询副本列表失败")
	}

	items := make([]*catalog.Item, len(models))
	for i := range models {
		items[i] = toItemEntity(&models[i])
	}

	return items, nil
}

// Delete 删除副本(下架,硬删除)
func (r *itemRepository) Delete(ctx context.Context, id uint) error {
	result := r.getDB(ctx).Delete(&ItemModel{}, id)

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "删除副本失败")
	}

	if result.RowsAffected == 0 {
		return catalog.ErrItemNotFound
	}

	return nil
}

// LockByID 悲观锁查询副本
// 教学要点:必须使用getDB(ctx)参与事务,否则锁不在同一事务内
func (r *itemRepository) LockByID(ctx context.Context, id uint) (*catalog.Item, error) {
	var model ItemModel
	err := r.getDB(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrItemNotFound
		}
		return nil, apperrors.Wrap(err, "锁定副本失败")
	}

	return toItemEntity(&model), nil
}

// UpdateStatus 受护的状态更新
// UPDATE items SET status = to WHERE id = ? AND status = from
// 教学要点:带前置状态的UPDATE是乐观的状态机守卫,
// 即使调用方忘了加锁,并发流转也只会有一个赢家
func (r *itemRepository) UpdateStatus(ctx context.Context, id uint, from, to catalog.ItemStatus) error {
	db := r.getDB(ctx)
	result := db.Model(&ItemModel{}).
		Where("id = ?", id).
		Where("status = ?", string(from)).
		Update("status", string(to))

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新副本状态失败")
	}

	if result.RowsAffected == 0 {
		// 可能是副本不存在,或者状态已被并发修改;再查一次确定原因
		var model ItemModel
		if err := db.First(&model, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return catalog.ErrItemNotFound
			}
			return apperrors.Wrap(err, "查询副本失败")
		}
		return catalog.ErrInvalidTransition
	}

	return nil
}

// FirstAvailableForUpdate 锁定该书目条码最小的available副本
// SELECT ... WHERE title_id = ? AND status = 'available'
// ORDER BY barcode ASC LIMIT 1 FOR UPDATE
// 教学要点:
// 1. ORDER BY barcode ASC是确定性的平局裁决:并发请求看到一致的选取顺序
// 2. FOR UPDATE让第二个事务等待第一个提交,醒来后该副本已不是available,
//    会重新选下一本或报无可借副本(最后一本副本只会借出一次)
func (r *itemRepository) FirstAvailableForUpdate(ctx context.Context, titleID uint) (*catalog.Item, error) {
	var model ItemModel
	err := r.getDB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("title_id = ? AND status = ?", titleID, string(catalog.ItemStatusAvailable)).
		Order("barcode ASC").
		First(&model).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrNoItemsAvailable
		}
		return nil, apperrors.Wrap(err, "锁定可借副本失败")
	}

	return toItemEntity(&model), nil
}

// CountByTitleStatus 按状态统计某书目副本数(计数自检用)
func (r *itemRepository) CountByTitleStatus(ctx context.Context, titleID uint, status catalog.ItemStatus) (int64, error) {
	var count int64
	err := r.getDB(ctx).Model(&ItemModel{}).
		Where("title_id = ? AND status = ?", titleID, string(status)).
		Count(&count).Error

	if err != nil {
		return 0, apperrors.Wrap(err, "统计副本失败")
	}

	return count, nil
}

// =========================================
// 辅助函数:模型转换
// =========================================

// toItemEntity GORM模型 → 领域实体
func toItemEntity(model *ItemModel) *catalog.Item {
	return &catalog.Item{
		ID:        model.ID,
		TitleID:   model.TitleID,
		Barcode:   model.Barcode,
		Location:  model.Location,
		Condition: model.Condition,
		Status:    catalog.ItemStatus(model.Status),
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// getDB 从context获取事务DB,如果没有则使用默认DB
func (r *itemRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value("tx").(*gorm.DB); ok {
		return tx
	}
	return r.db
}
