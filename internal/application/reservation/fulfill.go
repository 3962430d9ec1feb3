package reservation

import (
	"context"

	"github.com/xiebiao/libracirc/internal/application/circulation"
	"github.com/xiebiao/libracirc/internal/domain/loan"
	"github.com/xiebiao/libracirc/internal/domain/reservation"
	"github.com/xiebiao/libracirc/pkg/clock"
	"github.com/xiebiao/libracirc/pkg/metrics"
)

// FulfillReservationUseCase 预约取书用例
// 业务规则:
// 1. 常规路径:notified预约取书,借出的正是级联中绑定的那本副本
//    (reserved→borrowed,不动书目可借计数)
// 2. 馆员越权路径:waiting预约且恰有可借副本时,馆员可直接放行
//    (走常规借出,实体先Notify再Fulfill保持状态机闭合)
// 3. 取书即产生借阅记录,同样受借阅上限约束
type FulfillReservationUseCase struct {
	coordinator  *circulation.Coordinator
	issuer       *circulation.Issuer
	reservations reservation.Repository
	clk          clock.Clock
}

// NewFulfillReservationUseCase 创建预约取书用例
func NewFulfillReservationUseCase(
	coordinator *circulation.Coordinator,
	issuer *circulation.Issuer,
	reservations reservation.Repository,
	clk clock.Clock,
) *FulfillReservationUseCase {
	return &FulfillReservationUseCase{
		coordinator:  coordinator,
		issuer:       issuer,
		reservations: reservations,
		clk:          clk,
	}
}

// FulfillReservationRequest 预约取书请求DTO
type FulfillReservationRequest struct {
	ReservationID uint // 预约ID
	ActorID       uint // 操作者(从JWT中提取)
	IsLibrarian   bool // 馆员可代读者办理,且可对waiting越权放行
}

// FulfillReservationResponse 预约取书响应DTO
type FulfillReservationResponse struct {
	Reservation *ReservationResponse `json:"reservation"`
	LoanID      uint                 `json:"loan_id"`
	ItemID      uint                 `json:"item_id"`
	DueDate     string               `json:"due_date"`
}

// Execute 执行预约取书
func (uc *FulfillReservationUseCase) Execute(ctx context.Context, req FulfillReservationRequest) (*FulfillReservationResponse, error) {
	var result *reservation.Reservation
	var issued *loan.Loan

	err := uc.coordinator.Atomic(ctx, "FulfillReservation", func(txCtx context.Context) error {
		// 1. 锁定预约
		r, err := uc.reservations.LockByID(txCtx, req.ReservationID)
		if err != nil {
			return err
		}

		// 2. 权限:读者只能取本人的预约
		if !req.IsLibrarian && !r.IsOwnedBy(req.ActorID) {
			return reservation.ErrNotReservationOwner
		}

		switch r.Status {
		case reservation.StatusNotified:
			// 3a. 常规路径:借出绑定的那本reserved副本
			issued, err = uc.issuer.IssueBound(txCtx, r.MemberID, *r.ItemID)
			if err != nil {
				return err
			}

		case reservation.StatusWaiting:
			// 3b. 越权路径:仅馆员,且书目恰有可借副本
			if !req.IsLibrarian {
				return reservation.ErrInvalidReservationState
			}
			issued, err = uc.issuer.Issue(txCtx, r.MemberID, r.TitleID, nil)
			if err != nil {
				return err
			}
			// 补齐状态机:waiting→notified→fulfilled
			if err := r.Notify(issued.ItemID, uc.clk.Now()); err != nil {
				return err
			}

		default:
			return reservation.ErrInvalidReservationState
		}

		// 4. 预约终结
		if err := r.Fulfill(); err != nil {
			return err
		}
		if err := uc.reservations.Update(txCtx, r); err != nil {
			return err
		}

		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncCounter(metrics.LoansIssuedTotal)

	return &FulfillReservationResponse{
		Reservation: toReservationResponse(result),
		LoanID:      issued.ID,
		ItemID:      issued.ItemID,
		DueDate:     issued.DueDate.Format("2006-01-02 15:04:05"),
	}, nil
}
