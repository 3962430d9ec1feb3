package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/libracirc/internal/domain/reservation"
	apperrors "github.com/xiebiao/libracirc/pkg/errors"
)

// reservationRepository 预约仓储实现(MySQL)
// 教学要点:
// 1. 队列不是内存结构:FIFO由(reserved_at, id)排序表达,
//    队首查询带FOR UPDATE,级联通知在事务内串行
// 2. 活跃状态集合(waiting/notified)统一用activeStatuses
type reservationRepository struct {
	db *gorm.DB
}

// NewReservationRepository 创建预约仓储
func NewReservationRepository(db *gorm.DB) reservation.Repository {
	return &reservationRepository{db: db}
}

// activeStatuses 活跃预约状态集合
var activeStatuses = []string{string(reservation.StatusWaiting), string(reservation.StatusNotified)}

// Create 创建预约
func (r *reservationRepository) Create(ctx context.Context, res *reservation.Reservation) error {
	model := toReservationModel(res)

	if err := r.getDB(ctx).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "创建预约失败")
	}

	res.ID = model.ID
	res.CreatedAt = model.CreatedAt
	res.UpdatedAt = model.UpdatedAt

	return nil
}

// FindByID 根据ID查找预约
func (r *reservationRepository) FindByID(ctx context.Context, id uint) (*reservation.Reservation, error) {
	var model ReservationModel
	err := r.getDB(ctx).First(&model, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reservation.ErrReservationNotFound
		}
		return nil, apperrors.Wrap(err, "查询预约失败")
	}

	return toReservationEntity(&model), nil
}

// LockByID 悲观锁查询预约
func (r *reservationRepository) LockByID(ctx context.Context, id uint) (*reservation.Reservation, error) {
	var model ReservationModel
	err := r.getDB(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reservation.ErrReservationNotFound
		}
		return nil, apperrors.Wrap(err, "锁定预约失败")
	}

	return toReservationEntity(&model), nil
}

// Update 更新预约
func (r *reservationRepository) Update(ctx context.Context, res *reservation.Reservation) error {
	result := r.getDB(ctx).Model(&ReservationModel{}).Where("id = ?", res.ID).Updates(map[string]interface{}{
		"item_id":     res.ItemID,
		"notified_at": res.NotifiedAt,
		"status":      string(res.Status),
		"updated_at":  res.UpdatedAt,
	})

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新预约失败")
	}

	if result.RowsAffected == 0 {
		return reservation.ErrReservationNotFound
	}

	return nil
}

// FindActiveByMemberTitle 查找读者对某书目的活跃预约(重复预约校验)
func (r *reservationRepository) FindActiveByMemberTitle(ctx context.Context, memberID, titleID uint) (*reservation.Reservation, error) {
	var model ReservationModel
	err := r.getDB(ctx).
		Where("member_id = ? AND title_id = ? AND status IN ?", memberID, titleID, activeStatuses).
		First(&model).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reservation.ErrReservationNotFound
		}
		return nil, apperrors.Wrap(err, "查询活跃预约失败")
	}

	return toReservationEntity(&model), nil
}

// FindHeadWaitingForUpdate 锁定某书目队首的waiting预约
// ORDER BY reserved_at ASC, id ASC:同刻预约按创建顺序裁决,
// 并发级联对队首的竞争由FOR UPDATE串行化
func (r *reservationRepository) FindHeadWaitingForUpdate(ctx context.Context, titleID uint) (*reservation.Reservation, error) {
	var model ReservationModel
	err := r.getDB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("title_id = ? AND status = ?", titleID, string(reservation.StatusWaiting)).
		Order("reserved_at ASC, id ASC").
		First(&model).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reservation.ErrReservationNotFound
		}
		return nil, apperrors.Wrap(err, "锁定队首预约失败")
	}

	return toReservationEntity(&model), nil
}

// ListByTitle 查询某书目的预约列表
func (r *reservationRepository) ListByTitle(ctx context.Context, titleID uint, status reservation.Status, page, pageSize int) ([]*reservation.Reservation, int64, error) {
	return r.list(ctx, "title_id = ?", titleID, status, page, pageSize)
}

// ListByMember 查询读者的预约列表
func (r *reservationRepository) ListByMember(ctx context.Context, memberID uint, status reservation.Status, page, pageSize int) ([]*reservation.Reservation, int64, error) {
	return r.list(ctx, "member_id = ?", memberID, status, page, pageSize)
}

// list 公共列表查询(按预约时间升序,即队列顺序)
func (r *reservationRepository) list(ctx context.Context, cond string, arg uint, status reservation.Status, page, pageSize int) ([]*reservation.Reservation, int64, error) {
	var models []ReservationModel
	var total int64

	query := r.getDB(ctx).Model(&ReservationModel{}).Where(cond, arg)
	if status != "" {
		query = query.Where("status = ?", string(status))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询预约总数失败")
	}

	offset := (page - 1) * pageSize
	err := query.Order("reserved_at ASC, id ASC").
		Limit(pageSize).
		Offset(offset).
		Find(&models).Error

	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询预约列表失败")
	}

	reservations := make([]*reservation.Reservation, len(models))
	for i := range models {
		reservations[i] = toReservationEntity(&models[i])
	}

	return reservations, total, nil
}

// =========================================
// 辅助函数:模型转换
// =========================================

// toReservationModel 领域实体 → GORM模型
func toReservationModel(res *reservation.Reservation) *ReservationModel {
	return &ReservationModel{
		ID:         res.ID,
		MemberID:   res.MemberID,
		TitleID:    res.TitleID,
		ItemID:     res.ItemID,
		ReservedAt: res.ReservedAt,
		NotifiedAt: res.NotifiedAt,
		Status:     string(res.Status),
		CreatedAt:  res.CreatedAt,
		UpdatedAt:  res.UpdatedAt,
	}
}

// toReservationEntity GORM模型 → 领域实体
func toReservationEntity(model *ReservationModel) *reservation.Reservation {
	return &reservation.Reservation{
		ID:         model.ID,
		MemberID:   model.MemberID,
		TitleID:    model.TitleID,
		ItemID:     model.ItemID,
		ReservedAt: model.ReservedAt,
		NotifiedAt: model.NotifiedAt,
		Status:     reservation.Status(model.Status),
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}

// getDB 从context获取事务DB,如果没有则使用默认DB
func (r *reservationRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value("tx").(*gorm.DB); ok {
		return tx
	}
	return r.db
}
