package loan

import (
	"context"

	"github.com/xiebiao/libracirc/internal/application/circulation"
	"github.com/xiebiao/libracirc/internal/domain/loan"
	apperrors "github.com/xiebiao/libracirc/pkg/errors"
	"github.com/xiebiao/libracirc/pkg/metrics"
)

// RenewLoanUseCase 续借用例
// 业务规则:
// 1. 只有issued状态可续借,已逾期必须先归还(LoanNotActive)
// 2. 续借上限2次,第三次续借返回RenewalLimitExceeded
// 3. 每次续借在当前到期日上顺延一个借期
type RenewLoanUseCase struct {
	coordinator *circulation.Coordinator
	loans       loan.Repository
	policy      loan.Policy
}

// NewRenewLoanUseCase 创建续借用例
func NewRenewLoanUseCase(
	coordinator *circulation.Coordinator,
	loans loan.Repository,
	policy loan.Policy,
) *RenewLoanUseCase {
	return &RenewLoanUseCase{
		coordinator: coordinator,
		loans:       loans,
		policy:      policy,
	}
}

// RenewLoanRequest 续借请求DTO
type RenewLoanRequest struct {
	LoanID      uint // 借阅记录ID
	ActorID     uint // 操作者(从JWT中提取)
	IsLibrarian bool // 馆员可代任何读者续借
}

// Execute 执行续借用例
func (uc *RenewLoanUseCase) Execute(ctx context.Context, req RenewLoanRequest) (*LoanResponse, error) {
	var result *loan.Loan
	err := uc.coordinator.Atomic(ctx, "RenewLoan", func(txCtx context.Context) error {
		// 1. 锁定借阅记录(并发续借/归还在此串行化)
		l, err := uc.loans.LockByID(txCtx, req.LoanID)
		if err != nil {
			return err
		}

		// 2. 权限:读者只能续借本人的借阅
		if !req.IsLibrarian && l.MemberID != req.ActorID {
			return apperrors.ErrForbidden
		}

		// 3. 续借(状态、次数校验在实体内)
		if err := l.Renew(uc.policy); err != nil {
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

	metrics.IncCounter(metrics.LoansRenewedTotal)

	return toLoanResponse(result), nil
}
