package mysql

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/libracirc/internal/domain/catalog"
	apperrors "github.com/xiebiao/libracirc/pkg/errors"
)

// titleRepository 书目仓储实现(MySQL)
// 设计说明:
// 1. 实现domain/catalog/repository.go的TitleRepository接口
// 2. Authors/Categories在模型里是JSON字符串,转换时序列化/反序列化
// 3. 副本计数只经AdjustCopies的受护UPDATE调整
type titleRepository struct {
	db *gorm.DB
}

// NewTitleRepository 创建书目仓储
func NewTitleRepository(db *gorm.DB) catalog.TitleRepository {
	return &titleRepository{db: db}
}

// Create 创建书目
func (r *titleRepository) Create(ctx context.Context, t *catalog.Title) error {
	model := &TitleModel{
		Title:           t.Title,
		Authors:         marshalStrings(t.Authors),
		ISBN:            t.ISBN,
		Categories:      marshalStrings(t.Categories),
		TotalCopies:     t.TotalCopies,
		AvailableCopies: t.AvailableCopies,
		PublishedAt:     t.PublishedAt,
	}

	if err := r.getDB(ctx).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return catalog.ErrISBNDuplicate
		}
		return apperrors.Wrap(err, "创建书目失败")
	}

	t.ID = model.ID
	t.CreatedAt = model.CreatedAt
	t.UpdatedAt = model.UpdatedAt

	return nil
}

// FindByID 根据ID查找书目
func (r *titleRepository) FindByID(ctx context.Context, id uint) (*catalog.Title, error) {
	var model TitleModel
	err := r.getDB(ctx).First(&model, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrTitleNotFound
		}
		return nil, apperrors.Wrap(err, "查询书目失败")
	}

	return toTitleEntity(&model), nil
}

// FindByISBN 根据ISBN查找书目
func (r *titleRepository) FindByISBN(ctx context.Context, isbn string) (*catalog.Title, error) {
	var model TitleModel
	err := r.getDB(ctx).Where("isbn = ?", isbn).First(&model).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrTitleNotFound
		}
		return nil, apperrors.Wrap(err, "查询书目失败")
	}

	return toTitleEntity(&model), nil
}

// Update 更新书目信息(不含计数字段)
func (r *titleRepository) Update(ctx context.Context, t *catalog.Title) error {
	result := r.getDB(ctx).Model(&TitleModel{}).Where("id = ?", t.ID).Updates(map[string]interface{}{
		"title":        t.Title,
		"authors":      marshalStrings(t.Authors),
		"categories":   marshalStrings(t.Categories),
		"published_at": t.PublishedAt,
		"updated_at":   t.UpdatedAt,
	})

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新书目失败")
	}

	if result.RowsAffected == 0 {
		return catalog.ErrTitleNotFound
	}

	return nil
}

// List 分页查询书目列表
func (r *titleRepository) List(ctx context.Context, params catalog.ListParams) ([]*catalog.Title, int64, error) {
	var models []TitleModel
	var total int64

	query := r.getDB(ctx).Model(&TitleModel{})

	// 关键词搜索(标题、作者、ISBN)
	if params.Keyword != "" {
		keyword := "%" + params.Keyword + "%"
		query = query.Where("title LIKE ? OR authors LIKE ? OR isbn LIKE ?", keyword, keyword, keyword)
	}

	// 分类过滤(JSON字符串上的LIKE,非全文检索)
	if params.Category != "" {
		query = query.Where("categories LIKE ?", "%"+params.Category+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询书目总数失败")
	}

	offset := (params.Page - 1) * params.PageSize
	err := query.Order("created_at DESC").
		Limit(params.PageSize).
		Offset(offset).
		Find(&models).Error

	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询书目列表失败")
	}

	titles := make([]*catalog.Title, len(models))
	for i := range models {
		titles[i] = toTitleEntity(&models[i])
	}

	return titles, total, nil
}

// LockByID 悲观锁查询书目(流通路径)
// 教学要点:锁定书目行为计数调整定序,避免并发借还互相覆盖
func (r *titleRepository) LockByID(ctx context.Context, id uint) (*catalog.Title, error) {
	var model TitleModel
	err := r.getDB(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrTitleNotFound
		}
		return nil, apperrors.Wrap(err, "锁定书目失败")
	}

	return toTitleEntity(&model), nil
}

// AdjustCopies 原子调整副本计数
// UPDATE titles SET total_copies = total_copies + td,
//                   available_copies = available_copies + ad
// WHERE id = ? AND available_copies + ad >= 0
//   AND available_copies + ad <= total_copies + td
// 教学要点:两个计数在一条受护UPDATE内同时调整,
// 不变式 0 ≤ available ≤ total 由WHERE条件保证
func (r *titleRepository) AdjustCopies(ctx context.Context, id uint, totalDelta, availableDelta int) error {
	db := r.getDB(ctx)
	result := db.Model(&TitleModel{}).
		Where("id = ?", id).
		Where("available_copies + ? >= 0", availableDelta).
		Where("available_copies + ? <= total_copies + ?", availableDelta, totalDelta).
		Updates(map[string]interface{}{
			"total_copies":     gorm.Expr("total_copies + ?", totalDelta),
			"available_copies": gorm.Expr("available_copies + ?", availableDelta),
		})

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新副本计数失败")
	}

	if result.RowsAffected == 0 {
		// 可能是书目不存在,或者计数越界;再查一次确定原因
		var model TitleModel
		if err := db.First(&model, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return catalog.ErrTitleNotFound
			}
			return apperrors.Wrap(err, "查询书目失败")
		}
		return catalog.ErrCopiesOutOfRange
	}

	return nil
}

// =========================================
// 辅助函数:模型转换
// =========================================

// toTitleEntity GORM模型 → 领域实体
func toTitleEntity(model *TitleModel) *catalog.Title {
	return &catalog.Title{
		ID:              model.ID,
		Title:           model.Title,
		Authors:         unmarshalStrings(model.Authors),
		ISBN:            model.ISBN,
		Categories:      unmarshalStrings(model.Categories),
		TotalCopies:     model.TotalCopies,
		AvailableCopies: model.AvailableCopies,
		PublishedAt:     model.PublishedAt,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

// marshalStrings 字符串切片 → JSON字符串
func marshalStrings(ss []string) string {
	if len(ss) == 0 {
		return "[]"
	}
	b, err := json.Marshal(ss)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// unmarshalStrings JSON字符串 → 字符串切片
func unmarshalStrings(s string) []string {
	if s == "" {
		return nil
	}
	var ss []string
	if err := json.Unmarshal([]byte(s), &ss); err != nil {
		return nil
	}
	return ss
}

// getDB 从context获取事务DB,如果没有则使用默认DB
func (r *titleRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value("tx").(*gorm.DB); ok {
		return tx
	}
	return r.db
}
