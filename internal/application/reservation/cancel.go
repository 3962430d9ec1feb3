package reservation

import (
	"context"

	"github.com/xiebiao/libracirc/internal/application/circulation"
	"github.com/xiebiao/libracirc/internal/domain/catalog"
	"github.com/xiebiao/libracirc/internal/domain/reservation"
	"github.com/xiebiao/libracirc/internal/infrastructure/notify"
	"github.com/xiebiao/libracirc/pkg/metrics"
)

// CancelReservationUseCase 取消预约用例
// 教学重点:取消notified预约是"释放副本"的第二来源——
// 被绑定的副本必须在同一事务内重新路由(绑定下一位或归架),
// 否则副本会永远卡在reserved
type CancelReservationUseCase struct {
	coordinator  *circulation.Coordinator
	router       *circulation.Router
	reservations reservation.Repository
	items        catalog.ItemRepository
	notifier     notify.Notifier
}

// NewCancelReservationUseCase 创建取消预约用例
func NewCancelReservationUseCase(
	coordinator *circulation.Coordinator,
	router *circulation.Router,
	reservations reservation.Repository,
	items catalog.ItemRepository,
	notifier notify.Notifier,
) *CancelReservationUseCase {
	return &CancelReservationUseCase{
		coordinator:  coordinator,
		router:       router,
		reservations: reservations,
		items:        items,
		notifier:     notifier,
	}
}

// CancelReservationRequest 取消预约请求DTO
type CancelReservationRequest struct {
	ReservationID uint // 预约ID
	ActorID       uint // 操作者(从JWT中提取)
	IsLibrarian   bool // 馆员可代任何读者取消
}

// Execute 执行取消预约
//
// 事务内:
// 1. 锁定预约,校验归属,流转为canceled
// 2. 若取消前是notified:锁定绑定副本,重新路由
//    (下一位排队者绑定,或归架available)
// 事务提交后:
// 3. 若有下一位被通知,发布到书事件
func (uc *CancelReservationUseCase) Execute(ctx context.Context, req CancelReservationRequest) (*ReservationResponse, error) {
	var result *reservation.Reservation
	var nextHead *reservation.Reservation

	err := uc.coordinator.Atomic(ctx, "CancelReservation", func(txCtx context.Context) error {
		nextHead = nil // 重试时重置

		// 1. 锁定预约
		r, err := uc.reservations.LockByID(txCtx, req.ReservationID)
		if err != nil {
			return err
		}

		// 2. 权限:读者只能取消本人的预约
		if !req.IsLibrarian && !r.IsOwnedBy(req.ActorID) {
			return reservation.ErrNotReservationOwner
		}

		// 3. 取消前先记住是否已绑定副本
		wasNotified := r.Status == reservation.StatusNotified
		var boundItemID uint
		if wasNotified {
			boundItemID = *r.ItemID
		}

		if err := r.Cancel(); err != nil {
			return err
		}
		if err := uc.reservations.Update(txCtx, r); err != nil {
			return err
		}

		// 4. notified取消:释放绑定副本并重新路由
		if wasNotified {
			item, err := uc.items.LockByID(txCtx, boundItemID)
			if err != nil {
				return err
			}
			nextHead, err = uc.router.RouteFreedItem(txCtx, item, catalog.ItemStatusReserved)
			if err != nil {
				return err
			}
		}

		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 提交成功后才发通知
	if nextHead != nil {
		metrics.IncCounter(metrics.ReservationsNotifiedTotal)
		uc.notifier.ReservationNotified(ctx, notify.ReservationNotifiedEvent{
			ReservationID: nextHead.ID,
			MemberID:      nextHead.MemberID,
			TitleID:       nextHead.TitleID,
			ItemID:        *nextHead.ItemID,
			NotifiedAt:    *nextHead.NotifiedAt,
		})
	}

	return toReservationResponse(result), nil
}
