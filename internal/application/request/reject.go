package request

import (
	"context"

	"github.com/xiebiao/libracirc/internal/application/circulation"
	"github.com/xiebiao/libracirc/internal/domain/request"
	"github.com/xiebiao/libracirc/pkg/clock"
	"github.com/xiebiao/libracirc/pkg/metrics"
)

// RejectRequestUseCase 审批驳回用例
// 业务规则:驳回必须给出非空理由,记录在LibrarianNote
type RejectRequestUseCase struct {
	coordinator *circulation.Coordinator
	requests    request.Repository
	clk         clock.Clock
}

// NewRejectRequestUseCase 创建审批驳回用例
func NewRejectRequestUseCase(
	coordinator *circulation.Coordinator,
	requests request.Repository,
	clk clock.Clock,
) *RejectRequestUseCase {
	return &RejectRequestUseCase{
		coordinator: coordinator,
		requests:    requests,
		clk:         clk,
	}
}

// RejectRequestRequest 审批驳回请求DTO
type RejectRequestRequest struct {
	RequestID   uint   // 申请ID
	LibrarianID uint   // 审批馆员(从JWT中提取)
	Reason      string // 驳回理由(必填)
}

// Execute 执行审批驳回
func (uc *RejectRequestUseCase) Execute(ctx context.Context, req RejectRequestRequest) (*RequestResponse, error) {
	var result *request.BorrowRequest
	err := uc.coordinator.Atomic(ctx, "RejectRequest", func(txCtx context.Context) error {
		r, err := uc.requests.LockByID(txCtx, req.RequestID)
		if err != nil {
			return err
		}

		if err := r.Reject(req.LibrarianID, req.Reason, uc.clk.Now()); err != nil {
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

	metrics.IncCounterVec(metrics.BorrowRequestsProcessedTotal, map[string]string{"decision": "rejected"})

	return toRequestResponse(result), nil
}
