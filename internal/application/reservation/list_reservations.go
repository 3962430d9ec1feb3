package reservation

import (
	"context"

	"github.com/xiebiao/libracirc/internal/domain/reservation"
	apperrors "github.com/xiebiao/libracirc/pkg/errors"
)

// ListReservationsUseCase 预约查询用例
// 设计说明:纯读路径,不进事务
type ListReservationsUseCase struct {
	reservations reservation.Repository
}

// NewListReservationsUseCase 创建预约查询用例
func NewListReservationsUseCase(reservations reservation.Repository) *ListReservationsUseCase {
	return &ListReservationsUseCase{reservations: reservations}
}

// ListReservationsRequest 预约查询请求DTO
// MemberID与TitleID二选一:读者视角查自己的预约,
// 馆员视角查某书目的队列
type ListReservationsRequest struct {
	MemberID uint   // 按读者查询(>0生效)
	TitleID  uint   // 按书目查询(>0生效)
	Status   string // 状态过滤,空串表示全部
	Page     int
	PageSize int
}

// ListReservationsResponse 预约分页响应DTO
type ListReservationsResponse struct {
	Total        int64                  `json:"total"`
	Reservations []*ReservationResponse `json:"reservations"`
}

// Execute 执行预约查询
func (uc *ListReservationsUseCase) Execute(ctx context.Context, req ListReservationsRequest) (*ListReservationsResponse, error) {
	status := reservation.Status(req.Status)
	if req.Status != "" && !status.IsValid() {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "无效的预约状态: "+req.Status)
	}

	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > 100 {
		req.PageSize = 20
	}

	var (
		list  []*reservation.Reservation
		total int64
		err   error
	)
	switch {
	case req.TitleID > 0:
		list, total, err = uc.reservations.ListByTitle(ctx, req.TitleID, status, req.Page, req.PageSize)
	case req.MemberID > 0:
		list, total, err = uc.reservations.ListByMember(ctx, req.MemberID, status, req.Page, req.PageSize)
	default:
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "必须指定读者或书目")
	}
	if err != nil {
		return nil, err
	}

	result := make([]*ReservationResponse, len(list))
	for i, r := range list {
		result[i] = toReservationResponse(r)
	}
	return &ListReservationsResponse{Total: total, Reservations: result}, nil
}
