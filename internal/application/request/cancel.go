package request

import (
	"context"

	"github.com/xiebiao/libracirc/internal/application/circulation"
	"github.com/xiebiao/libracirc/internal/domain/request"
)

// CancelRequestUseCase 撤回申请用例
// 业务规则:仅申请人本人可撤回,且仅限pending状态
// (与审批并发时以行锁裁决:先审批则撤回报RequestNotPending)
type CancelRequestUseCase struct {
	coordinator *circulation.Coordinator
	requests    request.Repository
}

// NewCancelRequestUseCase 创建撤回申请用例
func NewCancelRequestUseCase(
	coordinator *circulation.Coordinator,
	requests request.Repository,
) *CancelRequestUseCase {
	return &CancelRequestUseCase{
		coordinator: coordinator,
		requests:    requests,
	}
}

// CancelRequestRequest 撤回申请请求DTO
type CancelRequestRequest struct {
	RequestID uint // 申请ID
	ActorID   uint // 操作者(从JWT中提取,必须是申请人)
}

// Execute 执行撤回申请
func (uc *CancelRequestUseCase) Execute(ctx context.Context, req CancelRequestRequest) (*RequestResponse, error) {
	var result *request.BorrowRequest
	err := uc.coordinator.Atomic(ctx, "CancelRequest", func(txCtx context.Context) error {
		r, err := uc.requests.LockByID(txCtx, req.RequestID)
		if err != nil {
			return err
		}

		// 撤回是申请人专属动作,馆员有驳回通道
		if !r.IsOwnedBy(req.ActorID) {
			return request.ErrNotRequestOwner
		}

		if err := r.Cancel(); err != nil {
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

	return toRequestResponse(result), nil
}
