package request

import (
	"context"

	"github.com/xiebiao/libracirc/internal/application/circulation"
	"github.com/xiebiao/libracirc/internal/domain/catalog"
	"github.com/xiebiao/libracirc/internal/domain/loan"
	"github.com/xiebiao/libracirc/internal/domain/request"
	"github.com/xiebiao/libracirc/pkg/clock"
	"github.com/xiebiao/libracirc/pkg/metrics"
)

// ApproveRequestUseCase 审批通过用例
// 教学重点:审批通过 = 审批结论 + 实际借出,两件事必须在
// 同一事务内完成——借出失败(无可借副本、超上限)时整体回滚,
// 申请保持pending,馆员可稍后重试或改为驳回
type ApproveRequestUseCase struct {
	coordinator *circulation.Coordinator
	issuer      *circulation.Issuer
	requests    request.Repository
	items       catalog.ItemRepository
	clk         clock.Clock
}

// NewApproveRequestUseCase 创建审批通过用例
func NewApproveRequestUseCase(
	coordinator *circulation.Coordinator,
	issuer *circulation.Issuer,
	requests request.Repository,
	items catalog.ItemRepository,
	clk clock.Clock,
) *ApproveRequestUseCase {
	return &ApproveRequestUseCase{
		coordinator: coordinator,
		issuer:      issuer,
		requests:    requests,
		items:       items,
		clk:         clk,
	}
}

// ApproveRequestRequest 审批通过请求DTO
type ApproveRequestRequest struct {
	RequestID   uint   // 申请ID
	LibrarianID uint   // 审批馆员(从JWT中提取)
	ItemID      *uint  // 馆员指定副本(可空)
	Note        string // 审批意见(可空)
}

// ApproveRequestResponse 审批通过响应DTO
type ApproveRequestResponse struct {
	Request *RequestResponse `json:"request"`
	LoanID  uint             `json:"loan_id"`
	ItemID  uint             `json:"item_id"`
	DueDate string           `json:"due_date"`
}

// Execute 执行审批通过
//
// 副本解析优先级:申请人心仪副本(仍可借时) > 馆员指定副本 > 自动选取
func (uc *ApproveRequestUseCase) Execute(ctx context.Context, req ApproveRequestRequest) (*ApproveRequestResponse, error) {
	var result *request.BorrowRequest
	var issued *loan.Loan

	err := uc.coordinator.Atomic(ctx, "ApproveRequest", func(txCtx context.Context) error {
		// 1. 锁定申请(并发审批/撤回在此串行化)
		r, err := uc.requests.LockByID(txCtx, req.RequestID)
		if err != nil {
			return err
		}
		if r.Status != request.StatusPending {
			return request.ErrRequestNotPending
		}

		// 2. 解析副本偏好
		itemID := uc.resolvePreferredItem(txCtx, r, req.ItemID)

		// 3. 实际借出(失败即回滚,申请保持pending)
		issued, err = uc.issuer.Issue(txCtx, r.MemberID, r.TitleID, itemID)
		if err != nil {
			return err
		}

		// 4. 记录审批结论
		if err := r.Approve(req.LibrarianID, req.Note, uc.clk.Now()); err != nil {
			return err
		}
		if err := uc.requests.Update(txCtx, r); err != nil {
			return err
		}

		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncCounter(metrics.LoansIssuedTotal)
	metrics.IncCounterVec(metrics.BorrowRequestsProcessedTotal, map[string]string{"decision": "approved"})

	return &ApproveRequestResponse{
		Request: toRequestResponse(result),
		LoanID:  issued.ID,
		ItemID:  issued.ItemID,
		DueDate: issued.DueDate.Format("2006-01-02 15:04:05"),
	}, nil
}

// resolvePreferredItem 解析副本偏好,返回nil表示交给Issuer自动选取
//
// 申请人的心仪副本只是偏好:已不可借时静默降级,
// 而不是让整个审批失败
func (uc *ApproveRequestUseCase) resolvePreferredItem(ctx context.Context, r *request.BorrowRequest, librarianItemID *uint) *uint {
	if r.ItemID != nil {
		item, err := uc.items.FindByID(ctx, *r.ItemID)
		if err == nil && item.TitleID == r.TitleID && item.Status == catalog.ItemStatusAvailable {
			return r.ItemID
		}
	}
	if librarianItemID != nil {
		return librarianItemID
	}
	return nil
}
