package reservation

import (
	"time"
)

// Status 预约状态
// 教学要点:
// 1. 使用string类型:状态值直接持久化和序列化,
//    对外契约固定为 waiting/notified/fulfilled/canceled 四个字符串
// 2. waiting/notified是活跃状态(占据队列位置),fulfilled/canceled是终态
type Status string

const (
	StatusWaiting   Status = "waiting"   // 排队等待
	StatusNotified  Status = "notified"  // 已通知取书(绑定了具体副本)
	StatusFulfilled Status = "fulfilled" // 已取书借出(终态)
	StatusCanceled  Status = "canceled"  // 已取消(终态)
)

// IsValid 校验状态是否在闭集内
func (s Status) IsValid() bool {
	switch s {
	case StatusWaiting, StatusNotified, StatusFulfilled, StatusCanceled:
		return true
	default:
		return false
	}
}

// Reservation 预约实体（聚合根）
// DDD设计说明:
// 1. 预约针对书目(Title)而非具体副本:排到队首时才绑定释放出的副本
// 2. 同一书目的队列按ReservedAt先进先出;同一读者对同一书目
//    至多一条活跃预约(waiting/notified)
// 3. ItemID仅在notified及之后有值,记录绑定的副本
type Reservation struct {
	ID         uint
	MemberID   uint
	TitleID    uint
	ItemID     *uint // 绑定副本(notified时赋值,审计保留)
	ReservedAt time.Time
	NotifiedAt *time.Time
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewReservation 创建新预约（工厂方法）
// ReservedAt由调用方注入(统一时钟),它决定队列顺序
func NewReservation(memberID, titleID uint, reservedAt time.Time) *Reservation {
	now := time.Now()
	return &Reservation{
		MemberID:   memberID,
		TitleID:    titleID,
		ReservedAt: reservedAt,
		Status:     StatusWaiting,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsActive 是否活跃(占据队列位置)
func (r *Reservation) IsActive() bool {
	return r.Status == StatusWaiting || r.Status == StatusNotified
}

// Notify 通知取书（领域行为）
// 队首waiting预约绑定释放出的副本,进入notified
func (r *Reservation) Notify(itemID uint, notifiedAt time.Time) error {
	if r.Status != StatusWaiting {
		return ErrInvalidReservationState
	}
	r.Status = StatusNotified
	r.ItemID = &itemID
	r.NotifiedAt = &notifiedAt
	r.UpdatedAt = time.Now()
	return nil
}

// Fulfill 取书借出（领域行为）
// 常规路径要求notified;馆员越权对waiting直接放行的分支
// 在application层先Notify再Fulfill,实体只认notified
func (r *Reservation) Fulfill() error {
	if r.Status != StatusNotified {
		return ErrInvalidReservationState
	}
	r.Status = StatusFulfilled
	r.UpdatedAt = time.Now()
	return nil
}

// Cancel 取消预约（领域行为）
// waiting/notified均可取消;notified取消后副本的释放与
// 队列级联由application层在同一事务内完成
func (r *Reservation) Cancel() error {
	if !r.IsActive() {
		return ErrInvalidReservationState
	}
	r.Status = StatusCanceled
	r.UpdatedAt = time.Now()
	return nil
}

// IsOwnedBy 检查预约是否属于指定读者
func (r *Reservation) IsOwnedBy(memberID uint) bool {
	return r.MemberID == memberID
}
