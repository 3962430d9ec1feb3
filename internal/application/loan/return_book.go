package loan

import (
	"context"

	"github.com/xiebiao/libracirc/internal/application/circulation"
	"github.com/xiebiao/libracirc/internal/domain/catalog"
	"github.com/xiebiao/libracirc/internal/domain/loan"
	"github.com/xiebiao/libracirc/internal/domain/member"
	"github.com/xiebiao/libracirc/internal/domain/reservation"
	"github.com/xiebiao/libracirc/internal/infrastructure/notify"
	"github.com/xiebiao/libracirc/pkg/clock"
	apperrors "github.com/xiebiao/libracirc/pkg/errors"
	"github.com/xiebiao/libracirc/pkg/metrics"
)

// ReturnBookUseCase 归还用例
// 教学重点:归还是"释放副本"的第一来源,释放级联必须在
// 同一事务内决定副本去向——有人排队则绑定队首预约,
// 否则归架。提交之后walk-in才可能看到available,
// 排队读者永远不会被插队
type ReturnBookUseCase struct {
	coordinator *circulation.Coordinator
	router      *circulation.Router
	loans       loan.Repository
	members     member.Repository
	items       catalog.ItemRepository
	policy      loan.Policy
	clk         clock.Clock
	notifier    notify.Notifier
}

// NewReturnBookUseCase 创建归还用例
func NewReturnBookUseCase(
	coordinator *circulation.Coordinator,
	router *circulation.Router,
	loans loan.Repository,
	members member.Repository,
	items catalog.ItemRepository,
	policy loan.Policy,
	clk clock.Clock,
	notifier notify.Notifier,
) *ReturnBookUseCase {
	return &ReturnBookUseCase{
		coordinator: coordinator,
		router:      router,
		loans:       loans,
		members:     members,
		items:       items,
		policy:      policy,
		clk:         clk,
		notifier:    notifier,
	}
}

// ReturnBookRequest 归还请求DTO
type ReturnBookRequest struct {
	LoanID      uint // 借阅记录ID
	ActorID     uint // 操作者(从JWT中提取)
	IsLibrarian bool // 馆员可代任何读者归还
}

// Execute 执行归还用例
//
// 事务内:
// 1. 锁定借阅记录(重复归还在此串行化→LoanNotActive)
// 2. 结算罚金(按归还时刻重算),记录流转为returned
// 3. 读者在借计数-1
// 4. 锁定副本,路由释放:队首预约绑定(→reserved)或归架(→available)
// 事务提交后:
// 5. 若有队首被通知,发布到书事件(尽力而为,不回滚流通结果)
func (uc *ReturnBookUseCase) Execute(ctx context.Context, req ReturnBookRequest) (*LoanResponse, error) {
	var result *loan.Loan
	var notified *reservation.Reservation

	err := uc.coordinator.Atomic(ctx, "ReturnBook", func(txCtx context.Context) error {
		notified = nil // 重试时重置

		// 1. 锁定借阅记录
		l, err := uc.loans.LockByID(txCtx, req.LoanID)
		if err != nil {
			return err
		}

		// 2. 权限:读者只能归还本人的借阅
		if !req.IsLibrarian && l.MemberID != req.ActorID {
			return apperrors.ErrForbidden
		}

		// 3. 归还结算(重复归还→LoanNotActive,状态不变)
		if err := l.Return(uc.clk.Now(), uc.policy); err != nil {
			return err
		}
		if err := uc.loans.Update(txCtx, l); err != nil {
			return err
		}

		// 4. 读者在借计数-1
		if err := uc.members.AdjustBorrowed(txCtx, l.MemberID, -1); err != nil {
			return err
		}

		// 5. 锁定副本并路由释放
		item, err := uc.items.LockByID(txCtx, l.ItemID)
		if err != nil {
			return err
		}
		head, err := uc.router.RouteFreedItem(txCtx, item, catalog.ItemStatusBorrowed)
		if err != nil {
			return err
		}

		result = l
		notified = head
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncCounter(metrics.LoansReturnedTotal)
	if result.Fine > 0 {
		metrics.AddCounter(metrics.FinesAssessedTotal, float64(result.Fine))
	}

	// 提交成功后才发通知
	if notified != nil {
		metrics.IncCounter(metrics.ReservationsNotifiedTotal)
		uc.notifier.ReservationNotified(ctx, notify.ReservationNotifiedEvent{
			ReservationID: notified.ID,
			MemberID:      notified.MemberID,
			TitleID:       notified.TitleID,
			ItemID:        *notified.ItemID,
			NotifiedAt:    *notified.NotifiedAt,
		})
	}

	return toLoanResponse(result), nil
}
