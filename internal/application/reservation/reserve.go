package reservation

import (
	"context"
	"errors"

	"github.com/xiebiao/libracirc/internal/application/circulation"
	"github.com/xiebiao/libracirc/internal/domain/catalog"
	"github.com/xiebiao/libracirc/internal/domain/member"
	"github.com/xiebiao/libracirc/internal/domain/reservation"
	"github.com/xiebiao/libracirc/pkg/clock"
	"github.com/xiebiao/libracirc/pkg/metrics"
)

// ReserveUseCase 预约用例
// 业务规则:
// 1. 预约针对书目而非副本,入队即占位,按预约时刻FIFO
// 2. 同一读者对同一书目至多一条活跃预约(waiting/notified)
// 3. 有可借副本时依然允许预约(读者可能晚些才来取)
type ReserveUseCase struct {
	coordinator  *circulation.Coordinator
	members      member.Repository
	titles       catalog.TitleRepository
	reservations reservation.Repository
	clk          clock.Clock
}

// NewReserveUseCase 创建预约用例
func NewReserveUseCase(
	coordinator *circulation.Coordinator,
	members member.Repository,
	titles catalog.TitleRepository,
	reservations reservation.Repository,
	clk clock.Clock,
) *ReserveUseCase {
	return &ReserveUseCase{
		coordinator:  coordinator,
		members:      members,
		titles:       titles,
		reservations: reservations,
		clk:          clk,
	}
}

// ReserveRequest 预约请求DTO
type ReserveRequest struct {
	MemberID uint // 读者ID(从JWT中提取)
	TitleID  uint // 书目ID
}

// ReservationResponse 预约响应DTO(各预约用例共用)
type ReservationResponse struct {
	ReservationID uint   `json:"reservation_id"`
	MemberID      uint   `json:"member_id"`
	TitleID       uint   `json:"title_id"`
	ItemID        *uint  `json:"item_id,omitempty"` // notified后绑定的副本
	ReservedAt    string `json:"reserved_at"`
	NotifiedAt    string `json:"notified_at,omitempty"`
	Status        string `json:"status"`
}

// Execute 执行预约用例
func (uc *ReserveUseCase) Execute(ctx context.Context, req ReserveRequest) (*ReservationResponse, error) {
	var result *reservation.Reservation
	err := uc.coordinator.Atomic(ctx, "Reserve", func(txCtx context.Context) error {
		// 1. 锁定读者行(注销读者不可预约)
		// 教学要点:重复预约校验是"快照SELECT再INSERT",本身防不住
		// 同一读者的并发预约双双通过校验;先锁读者行,
		// 让该读者的预约在此串行化,校验才有并发保障
		m, err := uc.members.LockByID(txCtx, req.MemberID)
		if err != nil {
			return err
		}
		if m.Role == member.RoleCancelled {
			return member.ErrMemberCancelled
		}

		// 2. 书目存在性校验
		if _, err := uc.titles.FindByID(txCtx, req.TitleID); err != nil {
			return err
		}

		// 3. 重复预约校验(同一读者+书目至多一条活跃预约)
		_, err = uc.reservations.FindActiveByMemberTitle(txCtx, req.MemberID, req.TitleID)
		if err == nil {
			return reservation.ErrDuplicateReservation
		}
		if !errors.Is(err, reservation.ErrReservationNotFound) {
			return err
		}

		// 4. 入队
		r := reservation.NewReservation(req.MemberID, req.TitleID, uc.clk.Now())
		if err := uc.reservations.Create(txCtx, r); err != nil {
			return err
		}

		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncCounter(metrics.ReservationsCreatedTotal)

	return toReservationResponse(result), nil
}

// toReservationResponse 领域实体 → 响应DTO
func toReservationResponse(r *reservation.Reservation) *ReservationResponse {
	resp := &ReservationResponse{
		ReservationID: r.ID,
		MemberID:      r.MemberID,
		TitleID:       r.TitleID,
		ItemID:        r.ItemID,
		ReservedAt:    r.ReservedAt.Format("2006-01-02 15:04:05"),
		Status:        string(r.Status),
	}
	if r.NotifiedAt != nil {
		resp.NotifiedAt = r.NotifiedAt.Format("2006-01-02 15:04:05")
	}
	return resp
}
