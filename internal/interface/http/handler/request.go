package handler

import (
	"github.com/gin-gonic/gin"

	apprequest "github.com/xiebiao/libracirc/internal/application/request"
	"github.com/xiebiao/libracirc/internal/interface/http/dto"
	"github.com/xiebiao/libracirc/internal/interface/http/middleware"
	"github.com/xiebiao/libracirc/pkg/response"
)

// RequestHandler 借阅申请HTTP处理器
// 申请提交、撤回与馆员审批的HTTP入口
type RequestHandler struct {
	submitUseCase  *apprequest.SubmitRequestUseCase
	approveUseCase *apprequest.ApproveRequestUseCase
	rejectUseCase  *apprequest.RejectRequestUseCase
	cancelUseCase  *apprequest.CancelRequestUseCase
	listUseCase    *apprequest.ListRequestsUseCase
}

// NewRequestHandler 创建借阅申请处理器
func NewRequestHandler(
	submitUseCase *apprequest.SubmitRequestUseCase,
	approveUseCase *apprequest.ApproveRequestUseCase,
	rejectUseCase *apprequest.RejectRequestUseCase,
	cancelUseCase *apprequest.CancelRequestUseCase,
	listUseCase *apprequest.ListRequestsUseCase,
) *RequestHandler {
	return &RequestHandler{
		submitUseCase:  submitUseCase,
		approveUseCase: approveUseCase,
		rejectUseCase:  rejectUseCase,
		cancelUseCase:  cancelUseCase,
		listUseCase:    listUseCase,
	}
}

// Submit 提交借阅申请
// @Summary      提交借阅申请
// @Description  递交借阅申请供馆员审批;不做库存校验,可附心仪副本与备注
// @Tags         借阅申请
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.SubmitRequestRequest true "申请信息"
// @Success      200 {object} response.Response "提交成功"
// @Router       /api/v1/requests [post]
func (h *RequestHandler) Submit(c *gin.Context) {
	var req dto.SubmitRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	result, err := h.submitUseCase.Execute(c.Request.Context(), apprequest.SubmitRequestRequest{
		MemberID: middleware.MustGetMemberID(c),
		TitleID:  req.TitleID,
		ItemID:   req.ItemID,
		Note:     req.Note,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Approve 审批通过
// @Summary      审批通过
// @Description  批准申请并同步完成借出(馆员);借出失败时申请保持待审批
// @Tags         借阅申请
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "申请ID"
// @Param        request body dto.ApproveRequestRequest false "审批信息"
// @Success      200 {object} response.Response "审批成功"
// @Failure      409 {object} response.Response "无可借副本或申请已处理"
// @Router       /api/v1/requests/{id}/approve [post]
func (h *RequestHandler) Approve(c *gin.Context) {
	requestID, err := parseIDParam(c, "id")
	if err != nil {
		response.ErrorWithCode(c, 40900, "无效的申请ID")
		return
	}

	var req dto.ApproveRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	result, err := h.approveUseCase.Execute(c.Request.Context(), apprequest.ApproveRequestRequest{
		RequestID:   requestID,
		LibrarianID: middleware.MustGetMemberID(c),
		ItemID:      req.ItemID,
		Note:        req.Note,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Reject 审批驳回
// @Summary      审批驳回
// @Description  驳回申请(馆员),必须给出理由
// @Tags         借阅申请
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "申请ID"
// @Param        request body dto.RejectRequestRequest true "驳回理由"
// @Success      200 {object} response.Response "驳回成功"
// @Failure      409 {object} response.Response "申请已处理"
// @Router       /api/v1/requests/{id}/reject [post]
func (h *RequestHandler) Reject(c *gin.Context) {
	requestID, err := parseIDParam(c, "id")
	if err != nil {
		response.ErrorWithCode(c, 40900, "无效的申请ID")
		return
	}

	var req dto.RejectRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	result, err := h.rejectUseCase.Execute(c.Request.Context(), apprequest.RejectRequestRequest{
		RequestID:   requestID,
		LibrarianID: middleware.MustGetMemberID(c),
		Reason:      req.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Cancel 撤回申请
// @Summary      撤回申请
// @Description  申请人撤回待审批的申请
// @Tags         借阅申请
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "申请ID"
// @Success      200 {object} response.Response "撤回成功"
// @Failure      409 {object} response.Response "申请已处理"
// @Router       /api/v1/requests/{id} [delete]
func (h *RequestHandler) Cancel(c *gin.Context) {
	requestID, err := parseIDParam(c, "id")
	if err != nil {
		response.ErrorWithCode(c, 40900, "无效的申请ID")
		return
	}

	result, err := h.cancelUseCase.Execute(c.Request.Context(), apprequest.CancelRequestRequest{
		RequestID: requestID,
		ActorID:   middleware.MustGetMemberID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListMine 查询本人申请
// @Summary      查询本人申请
// @Tags         借阅申请
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "状态过滤" Enums(pending, approved, rejected, cancelled)
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页大小" default(20)
// @Success      200 {object} response.Response "查询成功"
// @Router       /api/v1/requests [get]
func (h *RequestHandler) ListMine(c *gin.Context) {
	var query dto.ListRequestsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	result, err := h.listUseCase.Execute(c.Request.Context(), apprequest.ListRequestsRequest{
		MemberID: middleware.MustGetMemberID(c),
		Status:   query.Status,
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPage(c, result.Requests, result.Total, query.Page, query.PageSize)
}

// ListPending 查询审批队列
// @Summary      查询审批队列
// @Description  馆员按状态查看全量申请,默认查待审批队列
// @Tags         借阅申请
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "状态过滤" Enums(pending, approved, rejected, cancelled) default(pending)
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页大小" default(20)
// @Success      200 {object} response.Response "查询成功"
// @Router       /api/v1/requests/queue [get]
func (h *RequestHandler) ListPending(c *gin.Context) {
	var query dto.ListRequestsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}
	if query.Status == "" {
		query.Status = "pending"
	}

	result, err := h.listUseCase.Execute(c.Request.Context(), apprequest.ListRequestsRequest{
		Status:   query.Status,
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPage(c, result.Requests, result.Total, query.Page, query.PageSize)
}
