package handler

import (
	"github.com/gin-gonic/gin"

	appreservation "github.com/xiebiao/libracirc/internal/application/reservation"
	"github.com/xiebiao/libracirc/internal/interface/http/dto"
	"github.com/xiebiao/libracirc/internal/interface/http/middleware"
	"github.com/xiebiao/libracirc/pkg/response"
)

// ReservationHandler 预约HTTP处理器
// 预约入队、取消、取书与队列查询的HTTP入口
type ReservationHandler struct {
	reserveUseCase *appreservation.ReserveUseCase
	cancelUseCase  *appreservation.CancelReservationUseCase
	fulfillUseCase *appreservation.FulfillReservationUseCase
	listUseCase    *appreservation.ListReservationsUseCase
}

// NewReservationHandler 创建预约处理器
func NewReservationHandler(
	reserveUseCase *appreservation.ReserveUseCase,
	cancelUseCase *appreservation.CancelReservationUseCase,
	fulfillUseCase *appreservation.FulfillReservationUseCase,
	listUseCase *appreservation.ListReservationsUseCase,
) *ReservationHandler {
	return &ReservationHandler{
		reserveUseCase: reserveUseCase,
		cancelUseCase:  cancelUseCase,
		fulfillUseCase: fulfillUseCase,
		listUseCase:    listUseCase,
	}
}

// Reserve 预约书目
// @Summary      预约书目
// @Description  对书目入队预约(FIFO);同一读者对同一书目至多一条活跃预约
// @Tags         预约
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.ReserveRequest true "预约信息"
// @Success      200 {object} response.Response "预约成功"
// @Failure      409 {object} response.Response "已有活跃预约"
// @Router       /api/v1/reservations [post]
func (h *ReservationHandler) Reserve(c *gin.Context) {
	var req dto.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	result, err := h.reserveUseCase.Execute(c.Request.Context(), appreservation.ReserveRequest{
		MemberID: middleware.MustGetMemberID(c),
		TitleID:  req.TitleID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Cancel 取消预约
// @Summary      取消预约
// @Description  取消活跃预约;已绑定副本时副本转给下一位或归架
// @Tags         预约
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "预约ID"
// @Success      200 {object} response.Response "取消成功"
// @Failure      409 {object} response.Response "预约已终结"
// @Router       /api/v1/reservations/{id} [delete]
func (h *ReservationHandler) Cancel(c *gin.Context) {
	reservationID, err := parseIDParam(c, "id")
	if err != nil {
		response.ErrorWithCode(c, 40900, "无效的预约ID")
		return
	}

	result, err := h.cancelUseCase.Execute(c.Request.Context(), appreservation.CancelReservationRequest{
		ReservationID: reservationID,
		ActorID:       middleware.MustGetMemberID(c),
		IsLibrarian:   middleware.IsLibrarian(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Fulfill 预约取书
// @Summary      预约取书
// @Description  取走已通知的绑定副本并产生借阅记录;馆员可对排队中预约越权放行
// @Tags         预约
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "预约ID"
// @Success      200 {object} response.Response "取书成功"
// @Failure      409 {object} response.Response "预约状态不允许取书"
// @Router       /api/v1/reservations/{id}/fulfill [post]
func (h *ReservationHandler) Fulfill(c *gin.Context) {
	reservationID, err := parseIDParam(c, "id")
	if err != nil {
		response.ErrorWithCode(c, 40900, "无效的预约ID")
		return
	}

	result, err := h.fulfillUseCase.Execute(c.Request.Context(), appreservation.FulfillReservationRequest{
		ReservationID: reservationID,
		ActorID:       middleware.MustGetMemberID(c),
		IsLibrarian:   middleware.IsLibrarian(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// List 预约查询
// @Summary      预约查询
// @Description  读者查本人预约;馆员可通过title_id查看某书目的队列
// @Tags         预约
// @Produce      json
// @Security     BearerAuth
// @Param        title_id query int false "书目ID(仅馆员)"
// @Param        status query string false "状态过滤" Enums(waiting, notified, fulfilled, canceled)
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页大小" default(20)
// @Success      200 {object} response.Response "查询成功"
// @Router       /api/v1/reservations [get]
func (h *ReservationHandler) List(c *gin.Context) {
	var query dto.ListReservationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	req := appreservation.ListReservationsRequest{
		Status:   query.Status,
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	// 按书目查队列是馆员视角;普通读者只能查本人预约
	if query.TitleID > 0 && middleware.IsLibrarian(c) {
		req.TitleID = query.TitleID
	} else {
		req.MemberID = middleware.MustGetMemberID(c)
	}

	result, err := h.listUseCase.Execute(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPage(c, result.Reservations, result.Total, query.Page, query.PageSize)
}
