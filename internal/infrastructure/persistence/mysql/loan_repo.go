package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/libracirc/internal/domain/loan"
	apperrors "github.com/xiebiao/libracirc/pkg/errors"
)

// loanRepository 借阅记录仓储实现(MySQL)
// 教学要点:
// 1. "在借"查询统一用openStatuses,保证issued/overdue语义处处一致
// 2. 事务通过context传递
type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository 创建借阅记录仓储
func NewLoanRepository(db *gorm.DB) loan.Repository {
	return &loanRepository{db: db}
}

// openStatuses 在借状态集合
var openStatuses = []string{string(loan.StatusIssued), string(loan.StatusOverdue)}

// Create 创建借阅记录
func (r *loanRepository) Create(ctx context.Context, l *loan.Loan) error {
	model := toLoanModel(l)

	if err := r.getDB(ctx).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "创建借阅记录失败")
	}

	l.ID = model.ID
	l.CreatedAt = model.CreatedAt
	l.UpdatedAt = model.UpdatedAt

	return nil
}

// FindByID 根据ID查找借阅记录
func (r *loanRepository) FindByID(ctx context.Context, id uint) (*loan.Loan, error) {
	var model LoanModel
	err := r.getDB(ctx).First(&model, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, loan.ErrLoanNotFound
		}
		return nil, apperrors.Wrap(err, "查询借阅记录失败")
	}

	return toLoanEntity(&model), nil
}

// LockByID 悲观锁查询借阅记录(归还/续借路径)
func (r *loanRepository) LockByID(ctx context.Context, id uint) (*loan.Loan, error) {
	var model LoanModel
	err := r.getDB(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, loan.ErrLoanNotFound
		}
		return nil, apperrors.Wrap(err, "锁定借阅记录失败")
	}

	return toLoanEntity(&model), nil
}

// Update 更新借阅记录
func (r *loanRepository) Update(ctx context.Context, l *loan.Loan) error {
	result := r.getDB(ctx).Model(&LoanModel{}).Where("id = ?", l.ID).Updates(map[string]interface{}{
		"due_date":     l.DueDate,
		"return_date":  l.ReturnDate,
		"status":       string(l.Status),
		"fine":         l.Fine,
		"fine_paid":    l.FinePaid,
		"fine_paid_at": l.FinePaidAt,
		"renew_count":  l.RenewCount,
		"updated_at":   l.UpdatedAt,
	})

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新借阅记录失败")
	}

	if result.RowsAffected == 0 {
		return loan.ErrLoanNotFound
	}

	return nil
}

// FindOpenByItem 查找某副本的在借记录
// 不变式:一本副本同一时刻至多一条在借记录,First即可
func (r *loanRepository) FindOpenByItem(ctx context.Context, itemID uint) (*loan.Loan, error) {
	var model LoanModel
	err := r.getDB(ctx).
		Where("item_id = ? AND status IN ?", itemID, openStatuses).
		First(&model).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, loan.ErrLoanNotFound
		}
		return nil, apperrors.Wrap(err, "查询在借记录失败")
	}

	return toLoanEntity(&model), nil
}

// ListByMember 查询读者的借阅记录列表
func (r *loanRepository) ListByMember(ctx context.Context, memberID uint, status loan.Status, page, pageSize int) ([]*loan.Loan, int64, error) {
	var models []LoanModel
	var total int64

	query := r.getDB(ctx).Model(&LoanModel{}).Where("member_id = ?", memberID)
	if status != "" {
		query = query.Where("status = ?", string(status))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询借阅总数失败")
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&models).Error

	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询借阅列表失败")
	}

	loans := make([]*loan.Loan, len(models))
	for i := range models {
		loans[i] = toLoanEntity(&models[i])
	}

	return loans, total, nil
}

// ListIssuedDueBefore 查询已过期但仍为issued的记录(逾期巡检)
// limit限制单轮处理量,巡检分批推进
func (r *loanRepository) ListIssuedDueBefore(ctx context.Context, deadline time.Time, limit int) ([]*loan.Loan, error) {
	var models []LoanModel
	err := r.getDB(ctx).
		Where("status = ? AND due_date < ?", string(loan.StatusIssued), deadline).
		Order("due_date ASC").
		Limit(limit).
		Find(&models).Error

	if err != nil {
		return nil, apperrors.Wrap(err, "查询逾期记录失败")
	}

	loans := make([]*loan.Loan, len(models))
	for i := range models {
		loans[i] = toLoanEntity(&models[i])
	}

	return loans, nil
}

// =========================================
// 辅助函数:模型转换
// =========================================

// toLoanModel 领域实体 → GORM模型
func toLoanModel(l *loan.Loan) *LoanModel {
	return &LoanModel{
		ID:         l.ID,
		MemberID:   l.MemberID,
		TitleID:    l.TitleID,
		ItemID:     l.ItemID,
		IssueDate:  l.IssueDate,
		DueDate:    l.DueDate,
		ReturnDate: l.ReturnDate,
		Status:     string(l.Status),
		Fine:       l.Fine,
		FinePaid:   l.FinePaid,
		FinePaidAt: l.FinePaidAt,
		RenewCount: l.RenewCount,
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
	}
}

// toLoanEntity GORM模型 → 领域实体
func toLoanEntity(model *LoanModel) *loan.Loan {
	return &loan.Loan{
		ID:         model.ID,
		MemberID:   model.MemberID,
		TitleID:    model.TitleID,
		ItemID:     model.ItemID,
		IssueDate:  model.IssueDate,
		DueDate:    model.DueDate,
		ReturnDate: model.ReturnDate,
		Status:     loan.Status(model.Status),
		Fine:       model.Fine,
		FinePaid:   model.FinePaid,
		FinePaidAt: model.FinePaidAt,
		RenewCount: model.RenewCount,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}

// getDB 从context获取事务DB,如果没有则使用默认DB
func (r *loanRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value("tx").(*gorm.DB); ok {
		return tx
	}
	return r.db
}
