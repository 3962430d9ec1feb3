package handler

import (
	"github.com/gin-gonic/gin"

	apploan "github.com/xiebiao/libracirc/internal/application/loan"
	"github.com/xiebiao/libracirc/internal/interface/http/dto"
	"github.com/xiebiao/libracirc/internal/interface/http/middleware"
	"github.com/xiebiao/libracirc/pkg/response"
)

// LoanHandler 借阅HTTP处理器
// 借出、归还、续借、罚金与逾期巡检的HTTP入口
type LoanHandler struct {
	checkoutUseCase    *apploan.CheckoutUseCase
	returnUseCase      *apploan.ReturnBookUseCase
	renewUseCase       *apploan.RenewLoanUseCase
	payFineUseCase     *apploan.PayFineUseCase
	markOverdueUseCase *apploan.MarkOverdueUseCase
	listUseCase        *apploan.ListLoansUseCase
}

// NewLoanHandler 创建借阅处理器
func NewLoanHandler(
	checkoutUseCase *apploan.CheckoutUseCase,
	returnUseCase *apploan.ReturnBookUseCase,
	renewUseCase *apploan.RenewLoanUseCase,
	payFineUseCase *apploan.PayFineUseCase,
	markOverdueUseCase *apploan.MarkOverdueUseCase,
	listUseCase *apploan.ListLoansUseCase,
) *LoanHandler {
	return &LoanHandler{
		checkoutUseCase:    checkoutUseCase,
		returnUseCase:      returnUseCase,
		renewUseCase:       renewUseCase,
		payFineUseCase:     payFineUseCase,
		markOverdueUseCase: markOverdueUseCase,
		listUseCase:        listUseCase,
	}
}

// Checkout 借出图书
// @Summary      借出图书
// @Description  借出一本可借副本;未指定副本时按条码最小自动选取
// @Tags         借阅
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CheckoutRequest true "借出信息"
// @Success      200 {object} response.Response "借出成功"
// @Failure      409 {object} response.Response "无可借副本或超出借阅上限"
// @Router       /api/v1/loans [post]
func (h *LoanHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	result, err := h.checkoutUseCase.Execute(c.Request.Context(), apploan.CheckoutRequest{
		MemberID: middleware.MustGetMemberID(c),
		TitleID:  req.TitleID,
		ItemID:   req.ItemID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Return 归还图书
// @Summary      归还图书
// @Description  归还在借副本,结算罚金;有人排队时副本直接绑定队首预约
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "借阅记录ID"
// @Success      200 {object} response.Response "归还成功"
// @Failure      409 {object} response.Response "记录已归还"
// @Router       /api/v1/loans/{id}/return [post]
func (h *LoanHandler) Return(c *gin.Context) {
	loanID, err := parseIDParam(c, "id")
	if err != nil {
		response.ErrorWithCode(c, 40900, "无效的借阅记录ID")
		return
	}

	result, err := h.returnUseCase.Execute(c.Request.Context(), apploan.ReturnBookRequest{
		LoanID:      loanID,
		ActorID:     middleware.MustGetMemberID(c),
		IsLibrarian: middleware.IsLibrarian(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Renew 续借图书
// @Summary      续借图书
// @Description  到期日顺延一个借期;逾期或达到续借上限时拒绝
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "借阅记录ID"
// @Success      200 {object} response.Response "续借成功"
// @Failure      409 {object} response.Response "超出续借上限或记录不可续借"
// @Router       /api/v1/loans/{id}/renew [post]
func (h *LoanHandler) Renew(c *gin.Context) {
	loanID, err := parseIDParam(c, "id")
	if err != nil {
		response.ErrorWithCode(c, 40900, "无效的借阅记录ID")
		return
	}

	result, err := h.renewUseCase.Execute(c.Request.Context(), apploan.RenewLoanRequest{
		LoanID:      loanID,
		ActorID:     middleware.MustGetMemberID(c),
		IsLibrarian: middleware.IsLibrarian(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// PayFine 缴纳罚金
// @Summary      缴纳罚金
// @Description  登记罚金已缴;无罚金或重复缴纳时拒绝
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "借阅记录ID"
// @Success      200 {object} response.Response "缴纳成功"
// @Failure      409 {object} response.Response "无待缴罚金"
// @Router       /api/v1/loans/{id}/fine/pay [post]
func (h *LoanHandler) PayFine(c *gin.Context) {
	loanID, err := parseIDParam(c, "id")
	if err != nil {
		response.ErrorWithCode(c, 40900, "无效的借阅记录ID")
		return
	}

	result, err := h.payFineUseCase.Execute(c.Request.Context(), apploan.PayFineRequest{
		LoanID:      loanID,
		ActorID:     middleware.MustGetMemberID(c),
		IsLibrarian: middleware.IsLibrarian(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// MarkOverdue 逾期巡检
// @Summary      逾期巡检
// @Description  扫描到期未还的记录并标记为overdue(馆员,通常由定时任务调用)
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response "巡检完成"
// @Router       /api/v1/loans/overdue/sweep [post]
func (h *LoanHandler) MarkOverdue(c *gin.Context) {
	result, err := h.markOverdueUseCase.Execute(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListMyLoans 查询本人借阅记录
// @Summary      查询本人借阅记录
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "状态过滤" Enums(issued, overdue, returned)
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页大小" default(20)
// @Success      200 {object} response.Response "查询成功"
// @Router       /api/v1/loans [get]
func (h *LoanHandler) ListMyLoans(c *gin.Context) {
	var query dto.ListLoansQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	result, err := h.listUseCase.Execute(c.Request.Context(), apploan.ListLoansRequest{
		MemberID: middleware.MustGetMemberID(c),
		Status:   query.Status,
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPage(c, result.Loans, result.Total, query.Page, query.PageSize)
}
