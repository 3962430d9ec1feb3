package loan

import (
	"context"
	"log"

	"github.com/xiebiao/libracirc/internal/application/circulation"
	"github.com/xiebiao/libracirc/internal/domain/loan"
	"github.com/xiebiao/libracirc/internal/infrastructure/notify"
	"github.com/xiebiao/libracirc/pkg/clock"
	"github.com/xiebiao/libracirc/pkg/metrics"
)

// markOverdueBatch 单轮巡检最多处理的记录数
const markOverdueBatch = 200

// MarkOverdueUseCase 逾期巡检用例
// 设计说明:
// 1. 由定时任务(或馆员手工)触发,把到期未还的issued记录标记为overdue
// 2. 巡检先做无锁的候选查询,再逐条在小事务里重新锁定+判定,
//    避免长事务持有大量行锁;候选在锁定后可能已被归还/续借,跳过即可
// 3. overdue只是标记+罚金快照,真正的罚金以归还时刻重算为准
type MarkOverdueUseCase struct {
	coordinator *circulation.Coordinator
	loans       loan.Repository
	policy      loan.Policy
	clk         clock.Clock
	notifier    notify.Notifier
}

// NewMarkOverdueUseCase 创建逾期巡检用例
func NewMarkOverdueUseCase(
	coordinator *circulation.Coordinator,
	loans loan.Repository,
	policy loan.Policy,
	clk clock.Clock,
	notifier notify.Notifier,
) *MarkOverdueUseCase {
	return &MarkOverdueUseCase{
		coordinator: coordinator,
		loans:       loans,
		policy:      policy,
		clk:         clk,
		notifier:    notifier,
	}
}

// MarkOverdueResponse 巡检结果DTO
type MarkOverdueResponse struct {
	Scanned int `json:"scanned"` // 候选记录数
	Marked  int `json:"marked"`  // 实际标记数
}

// Execute 执行一轮逾期巡检
func (uc *MarkOverdueUseCase) Execute(ctx context.Context) (*MarkOverdueResponse, error) {
	now := uc.clk.Now()

	// 1. 无锁候选查询
	candidates, err := uc.loans.ListIssuedDueBefore(ctx, now, markOverdueBatch)
	if err != nil {
		return nil, err
	}

	resp := &MarkOverdueResponse{Scanned: len(candidates)}

	// 2. 逐条小事务处理
	for _, candidate := range candidates {
		var marked *loan.Loan
		err := uc.coordinator.Atomic(ctx, "MarkOverdue", func(txCtx context.Context) error {
			marked = nil // 重试时重置

			l, err := uc.loans.LockByID(txCtx, candidate.ID)
			if err != nil {
				return err
			}

			// 候选在锁定前可能已归还(LoanNotActive)或已续借
			// (LoanNotOverdue),这两种情况直接跳过
			if err := l.MarkOverdue(now, uc.policy); err != nil {
				if err == loan.ErrLoanNotOverdue || err == loan.ErrLoanNotActive {
					return nil
				}
				return err
			}
			if err := uc.loans.Update(txCtx, l); err != nil {
				return err
			}

			marked = l
			return nil
		})
		if err != nil {
			// 单条失败不中断整轮巡检
			log.Printf("逾期标记失败: loan_id=%d, err=%v", candidate.ID, err)
			continue
		}
		if marked == nil {
			continue
		}

		resp.Marked++
		metrics.IncCounter(metrics.LoansOverdueTotal)

		// 提交成功后才发通知
		uc.notifier.LoanOverdue(ctx, notify.LoanOverdueEvent{
			LoanID:   marked.ID,
			MemberID: marked.MemberID,
			TitleID:  marked.TitleID,
			DueDate:  marked.DueDate,
			Fine:     marked.Fine,
		})
	}

	return resp, nil
}
