package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/libracirc/internal/domain/request"
	apperrors "github.com/xiebiao/libracirc/pkg/errors"
)

// requestRepository 借阅申请仓储实现(MySQL)
type requestRepository struct {
	db *gorm.DB
}

// NewRequestRepository 创建借阅申请仓储
func NewRequestRepository(db *gorm.DB) request.Repository {
	return &requestRepository{db: db}
}

// Create 创建申请
func (r *requestRepository) Create(ctx context.Context, req *request.BorrowRequest) error {
	model := toRequestModel(req)

	if err := r.getDB(ctx).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "创建借阅申请失败")
	}

	req.ID = model.ID
	req.CreatedAt = model.CreatedAt
	req.UpdatedAt = model.UpdatedAt

	return nil
}

// FindByID 根据ID查找申请
func (r *requestRepository) FindByID(ctx context.Context, id uint) (*request.BorrowRequest, error) {
	var model BorrowRequestModel
	err := r.getDB(ctx).First(&model, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, request.ErrRequestNotFound
		}
		return nil, apperrors.Wrap(err, "查询借阅申请失败")
	}

	return toRequestEntity(&model), nil
}

// LockByID 悲观锁查询申请(审批路径)
// 并发审批/撤回在此串行化,输家醒来后看到非pending状态
func (r *requestRepository) LockByID(ctx context.Context, id uint) (*request.BorrowRequest, error) {
	var model BorrowRequestModel
	err := r.getDB(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, request.ErrRequestNotFound
		}
		return nil, apperrors.Wrap(err, "锁定借阅申请失败")
	}

	return toRequestEntity(&model), nil
}

// Update 更新申请
func (r *requestRepository) Update(ctx context.Context, req *request.BorrowRequest) error {
	result := r.getDB(ctx).Model(&BorrowRequestModel{}).Where("id = ?", req.ID).Updates(map[string]interface{}{
		"status":         string(req.Status),
		"librarian_note": req.LibrarianNote,
		"processed_by":   req.ProcessedBy,
		"processed_at":   req.ProcessedAt,
		"updated_at":     req.UpdatedAt,
	})

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新借阅申请失败")
	}

	if result.RowsAffected == 0 {
		return request.ErrRequestNotFound
	}

	return nil
}

// ListByStatus 按状态查询申请列表
func (r *requestRepository) ListByStatus(ctx context.Context, status request.Status, page, pageSize int) ([]*request.BorrowRequest, int64, error) {
	query := r.getDB(ctx).Model(&BorrowRequestModel{})
	if status != "" {
		query = query.Where("status = ?", string(status))
	}
	return r.list(query, page, pageSize)
}

// ListByMember 查询读者的申请列表
func (r *requestRepository) ListByMember(ctx context.Context, memberID uint, status request.Status, page, pageSize int) ([]*request.BorrowRequest, int64, error) {
	query := r.getDB(ctx).Model(&BorrowRequestModel{}).Where("member_id = ?", memberID)
	if status != "" {
		query = query.Where("status = ?", string(status))
	}
	return r.list(query, page, pageSize)
}

// list 公共列表查询(按申请时间升序,先到先审)
func (r *requestRepository) list(query *gorm.DB, page, pageSize int) ([]*request.BorrowRequest, int64, error) {
	var models []BorrowRequestModel
	var total int64

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询申请总数失败")
	}

	offset := (page - 1) * pageSize
	err := query.Order("requested_at ASC, id ASC").
		Limit(pageSize).
		Offset(offset).
		Find(&models).Error

	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询申请列表失败")
	}

	requests := make([]*request.BorrowRequest, len(models))
	for i := range models {
		requests[i] = toRequestEntity(&models[i])
	}

	return requests, total, nil
}

// =========================================
// 辅助函数:模型转换
// =========================================

// toRequestModel 领域实体 → GORM模型
func toRequestModel(req *request.BorrowRequest) *BorrowRequestModel {
	return &BorrowRequestModel{
		ID:            req.ID,
		MemberID:      req.MemberID,
		TitleID:       req.TitleID,
		ItemID:        req.ItemID,
		RequestedAt:   req.RequestedAt,
		Status:        string(req.Status),
		MemberNote:    req.MemberNote,
		LibrarianNote: req.LibrarianNote,
		ProcessedBy:   req.ProcessedBy,
		ProcessedAt:   req.ProcessedAt,
		CreatedAt:     req.CreatedAt,
		UpdatedAt:     req.UpdatedAt,
	}
}

// toRequestEntity GORM模型 → 领域实体
func toRequestEntity(model *BorrowRequestModel) *request.BorrowRequest {
	return &request.BorrowRequest{
		ID:            model.ID,
		MemberID:      model.MemberID,
		TitleID:       model.TitleID,
		ItemID:        model.ItemID,
		RequestedAt:   model.RequestedAt,
		Status:        request.Status(model.Status),
		MemberNote:    model.MemberNote,
		LibrarianNote: model.LibrarianNote,
		ProcessedBy:   model.ProcessedBy,
		ProcessedAt:   model.ProcessedAt,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

// getDB 从context获取事务DB,如果没有则使用默认DB
func (r *requestRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value("tx").(*gorm.DB); ok {
		return tx
	}
	return r.db
}
