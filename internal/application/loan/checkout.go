package loan

import (
	"context"

	"github.com/xiebiao/libracirc/internal/application/circulation"
	"github.com/xiebiao/libracirc/internal/domain/loan"
	"github.com/xiebiao/libracirc/pkg/metrics"
)

// CheckoutUseCase 借出用例
// 教学要点:这是整个项目最核心的用例之一
// 涉及:事务处理、并发控制(最后一本副本争用)、借阅上限校验
type CheckoutUseCase struct {
	coordinator *circulation.Coordinator
	issuer      *circulation.Issuer
}

// NewCheckoutUseCase 创建借出用例
func NewCheckoutUseCase(
	coordinator *circulation.Coordinator,
	issuer *circulation.Issuer,
) *CheckoutUseCase {
	return &CheckoutUseCase{
		coordinator: coordinator,
		issuer:      issuer,
	}
}

// CheckoutRequest 借出请求DTO
type CheckoutRequest struct {
	MemberID uint  // 读者ID(从JWT中提取)
	TitleID  uint  // 书目ID
	ItemID   *uint // 指定副本ID(可空,自动按条码最小选取)
}

// LoanResponse 借阅记录响应DTO(借出/续借/归还共用)
type LoanResponse struct {
	LoanID     uint   `json:"loan_id"`
	MemberID   uint   `json:"member_id"`
	TitleID    uint   `json:"title_id"`
	ItemID     uint   `json:"item_id"`
	IssueDate  string `json:"issue_date"`
	DueDate    string `json:"due_date"`
	ReturnDate string `json:"return_date,omitempty"`
	Status     string `json:"status"`
	Fine       int64  `json:"fine"` // 罚金(分)
	FinePaid   bool   `json:"fine_paid"`
	RenewCount int    `json:"renew_count"`
}

// Execute 执行借出用例
//
// 整个流程在一个事务内完成:
// 1. 锁定并解析副本(指定副本或条码最小的available副本)
// 2. 锁定读者,校验借阅上限
// 3. 副本available→borrowed,书目可借数-1
// 4. 创建借阅记录(到期日=借出日+借期)
// 5. 读者在借计数+1(受护UPDATE兜底上限)
func (uc *CheckoutUseCase) Execute(ctx context.Context, req CheckoutRequest) (*LoanResponse, error) {
	var result *loan.Loan
	err := uc.coordinator.Atomic(ctx, "Checkout", func(txCtx context.Context) error {
		l, err := uc.issuer.Issue(txCtx, req.MemberID, req.TitleID, req.ItemID)
		if err != nil {
			return err
		}
		result = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncCounter(metrics.LoansIssuedTotal)

	return toLoanResponse(result), nil
}

// toLoanResponse 领域实体 → 响应DTO
func toLoanResponse(l *loan.Loan) *LoanResponse {
	resp := &LoanResponse{
		LoanID:     l.ID,
		MemberID:   l.MemberID,
		TitleID:    l.TitleID,
		ItemID:     l.ItemID,
		IssueDate:  l.IssueDate.Format("2006-01-02 15:04:05"),
		DueDate:    l.DueDate.Format("2006-01-02 15:04:05"),
		Status:     string(l.Status),
		Fine:       l.Fine,
		FinePaid:   l.FinePaid,
		RenewCount: l.RenewCount,
	}
	if l.ReturnDate != nil {
		resp.ReturnDate = l.ReturnDate.Format("2006-01-02 15:04:05")
	}
	return resp
}
