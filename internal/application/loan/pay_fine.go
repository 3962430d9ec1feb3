package loan

import (
	"context"

	"github.com/xiebiao/libracirc/internal/application/circulation"
	"github.com/xiebiao/libracirc/internal/domain/loan"
	"github.com/xiebiao/libracirc/pkg/clock"
	apperrors "github.com/xiebiao/libracirc/pkg/errors"
)

// PayFineUseCase 缴纳罚金用例
// 说明:不接入支付渠道,只登记"已缴"事实;
// 无罚金或重复缴纳返回NoOutstandingFine
type PayFineUseCase struct {
	coordinator *circulation.Coordinator
	loans       loan.Repository
	clk         clock.Clock
}

// NewPayFineUseCase 创建缴纳罚金用例
func NewPayFineUseCase(
	coordinator *circulation.Coordinator,
	loans loan.Repository,
	clk clock.Clock,
) *PayFineUseCase {
	return &PayFineUseCase{
		coordinator: coordinator,
		loans:       loans,
		clk:         clk,
	}
}

// PayFineRequest 缴纳罚金请求DTO
type PayFineRequest struct {
	LoanID      uint // 借阅记录ID
	ActorID     uint // 操作者(从JWT中提取)
	IsLibrarian bool // 馆员可代收
}

// Execute 执行缴纳罚金
func (uc *PayFineUseCase) Execute(ctx context.Context, req PayFineRequest) (*LoanResponse, error) {
	var result *loan.Loan
	err := uc.coordinator.Atomic(ctx, "PayFine", func(txCtx context.Context) error {
		// 1. 锁定借阅记录(重复缴纳在此串行化)
		l, err := uc.loans.LockByID(txCtx, req.LoanID)
		if err != nil {
			return err
		}

		// 2. 权限:读者只能缴本人的罚金
		if !req.IsLibrarian && l.MemberID != req.ActorID {
			return apperrors.ErrForbidden
		}

		// 3. 登记缴纳
		if err := l.PayFine(uc.clk.Now()); err != nil {
			return err
		}

		if err := uc.loans.Update(txCtx, l); err != nil {
			return err
		}

		result = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	return toLoanResponse(result), nil
}
