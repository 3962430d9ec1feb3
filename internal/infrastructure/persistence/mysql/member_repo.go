package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/libracirc/internal/domain/member"
	apperrors "github.com/xiebiao/libracirc/pkg/errors"
)

// memberRepository 读者仓储实现(MySQL)
// 设计说明:
// 1. 实现domain/member/repository.go定义的接口
// 2. 负责domain实体与GORM模型之间的转换
// 3. 处理数据库特定的错误(如邮箱重复),转换为业务错误
type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository 创建读者仓储
func NewMemberRepository(db *gorm.DB) member.Repository {
	return &memberRepository{db: db}
}

// Create 创建读者
func (r *memberRepository) Create(ctx context.Context, m *member.Member) error {
	model := &MemberModel{
		Email:         m.Email,
		Password:      m.Password,
		Name:          m.Name,
		Role:          string(m.Role),
		MaxBorrow:     m.MaxBorrow,
		BorrowedCount: m.BorrowedCount,
	}

	if err := r.getDB(ctx).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return member.ErrEmailDuplicate
		}
		return apperrors.Wrap(err, "创建读者失败")
	}

	// 回填自增ID
	m.ID = model.ID
	m.CreatedAt = model.CreatedAt
	m.UpdatedAt = model.UpdatedAt

	return nil
}

// FindByID 根据ID查找读者
func (r *memberRepository) FindByID(ctx context.Context, id uint) (*member.Member, error) {
	var model MemberModel
	err := r.getDB(ctx).First(&model, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, member.ErrMemberNotFound
		}
		return nil, apperrors.Wrap(err, "查询读者失败")
	}

	return toMemberEntity(&model), nil
}

// FindByEmail 根据邮箱查找读者
func (r *memberRepository) FindByEmail(ctx context.Context, email string) (*member.Member, error) {
	var model MemberModel
	err := r.getDB(ctx).Where("email = ?", email).First(&model).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, member.ErrMemberNotFound
		}
		return nil, apperrors.Wrap(err, "查询读者失败")
	}

	return toMemberEntity(&model), nil
}

// Update 更新读者信息
func (r *memberRepository) Update(ctx context.Context, m *member.Member) error {
	// 不更新BorrowedCount:计数只经AdjustBorrowed的受护UPDATE维护
	result := r.getDB(ctx).Model(&MemberModel{}).Where("id = ?", m.ID).Updates(map[string]interface{}{
		"name":       m.Name,
		"role":       string(m.Role),
		"max_borrow": m.MaxBorrow,
		"updated_at": m.UpdatedAt,
	})

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新读者失败")
	}

	if result.RowsAffected == 0 {
		return member.ErrMemberNotFound
	}

	return nil
}

// LockByID 悲观锁查询读者(借书路径)
// 教学要点:必须使用getDB(ctx)参与事务,否则锁不在同一事务内
func (r *memberRepository) LockByID(ctx context.Context, id uint) (*member.Member, error) {
	var model MemberModel
	err := r.getDB(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, member.ErrMemberNotFound
		}
		return nil, apperrors.Wrap(err, "锁定读者失败")
	}

	return toMemberEntity(&model), nil
}

// AdjustBorrowed 原子调整在借计数
// UPDATE members SET borrowed_count = borrowed_count + delta
// WHERE id = ? AND borrowed_count + delta BETWEEN 0 AND max_borrow
// 教学要点:受护UPDATE使上限检查与计数调整成为一条原子语句,
// 并发借书不会越过max_borrow(防超借,同书店防超卖)
func (r *memberRepository) AdjustBorrowed(ctx context.Context, id uint, delta int) error {
	db := r.getDB(ctx)
	result := db.Model(&MemberModel{}).
		Where("id = ?", id).
		Where("borrowed_count + ? >= 0", delta).
		Where("borrowed_count + ? <= max_borrow", delta).
		Update("borrowed_count", gorm.Expr("borrowed_count + ?", delta))

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新在借计数失败")
	}

	if result.RowsAffected == 0 {
		// 可能是读者不存在,或者越过上限;再查一次确定原因
		var model MemberModel
		if err := db.First(&model, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return member.ErrMemberNotFound
			}
			return apperrors.Wrap(err, "查询读者失败")
		}
		return member.ErrBorrowLimitExceeded
	}

	return nil
}

// =========================================
// 辅助函数:模型转换
// =========================================

// toMemberEntity GORM模型 → 领域实体
func toMemberEntity(model *MemberModel) *member.Member {
	return &member.Member{
		ID:            model.ID,
		Email:         model.Email,
		Password:      model.Password,
		Name:          model.Name,
		Role:          member.Role(model.Role),
		MaxBorrow:     model.MaxBorrow,
		BorrowedCount: model.BorrowedCount,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

// getDB 从context获取事务DB,如果没有则使用默认DB
// 教学要点:事务传递机制
func (r *memberRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value("tx").(*gorm.DB); ok {
		return tx
	}
	return r.db
}
