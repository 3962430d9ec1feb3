package circulation

import (
	"context"

	"github.com/xiebiao/libracirc/internal/domain/catalog"
	"github.com/xiebiao/libracirc/internal/domain/loan"
	"github.com/xiebiao/libracirc/internal/domain/member"
	"github.com/xiebiao/libracirc/pkg/clock"
)

// Issuer 借出执行器
// 教学要点:这是防"超借/超发"的核心
//
// 核心问题:最后一本副本的并发争用
// 场景:某书目仅剩1本可借,两个读者同时借
// 错误实现:
//  1. 查询可借副本 → 都查到同一本
//  2. 创建借阅记录 → 两条在借记录指向同一副本(数据损坏!)
//
// 正确实现:悲观锁 + 受护更新
//  1. SELECT FOR UPDATE锁定读者行(上限检查定序)
//  2. SELECT FOR UPDATE锁定副本行(第二个事务在此等待,
//     醒来后该副本已不是available,报无可借副本)
//  3. 受护UPDATE流转副本状态、调整计数
//  4. 创建借阅记录,COMMIT释放锁
//
// 借出、预约取书、申请审批三条路径共用本执行器,
// 所有方法都必须在Coordinator.Atomic的事务内调用
type Issuer struct {
	members member.Repository
	titles  catalog.TitleRepository
	items   catalog.ItemRepository
	loans   loan.Repository
	policy  loan.Policy
	clk     clock.Clock
}

// NewIssuer 创建借出执行器
func NewIssuer(
	members member.Repository,
	titles catalog.TitleRepository,
	items catalog.ItemRepository,
	loans loan.Repository,
	policy loan.Policy,
	clk clock.Clock,
) *Issuer {
	return &Issuer{
		members: members,
		titles:  titles,
		items:   items,
		loans:   loans,
		policy:  policy,
		clk:     clk,
	}
}

// Issue 借出一本available副本
//
// itemID为nil时按"条码最小"规则自动选取;指定副本不可借时
// 返回ErrItemNotAvailable(不回退自动选取,由调用方决策)
func (is *Issuer) Issue(ctx context.Context, memberID, titleID uint, itemID *uint) (*loan.Loan, error) {
	// 1. 解析并锁定副本
	var item *catalog.Item
	var err error
	if itemID != nil {
		item, err = is.items.LockByID(ctx, *itemID)
		if err != nil {
			return nil, err
		}
		if item.TitleID != titleID || item.Status != catalog.ItemStatusAvailable {
			return nil, catalog.ErrItemNotAvailable
		}
	} else {
		item, err = is.items.FirstAvailableForUpdate(ctx, titleID)
		if err != nil {
			return nil, err // ErrNoItemsAvailable
		}
	}

	return is.issueLocked(ctx, memberID, titleID, item, catalog.ItemStatusAvailable)
}

// IssueBound 借出一本已绑定预约的reserved副本(取书路径)
// 副本此前已在归还级联中流转为reserved并从可借数中扣除,
// 这里只做reserved→borrowed,不再动书目计数
func (is *Issuer) IssueBound(ctx context.Context, memberID uint, itemID uint) (*loan.Loan, error) {
	item, err := is.items.LockByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Status != catalog.ItemStatusReserved {
		return nil, catalog.ErrItemNotAvailable
	}

	return is.issueLocked(ctx, memberID, item.TitleID, item, catalog.ItemStatusReserved)
}

// issueLocked 对已锁定的副本完成借出
// 前置条件:调用方已持有副本行锁,且副本状态为from
func (is *Issuer) issueLocked(ctx context.Context, memberID, titleID uint, item *catalog.Item, from catalog.ItemStatus) (*loan.Loan, error) {
	// 1. 锁定读者,检查借阅资格与上限
	// 教学要点:先快速失败给出友好错误;AdjustBorrowed的受护UPDATE
	// 是并发下的最终防线,两者缺一不可
	m, err := is.members.LockByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if m.Role != member.RoleMember {
		return nil, member.ErrRoleCannotBorrow
	}
	if !m.CanBorrow() {
		return nil, member.ErrBorrowLimitExceeded
	}

	// 2. 流转副本状态(受护UPDATE,带前置状态)
	if err := is.items.UpdateStatus(ctx, item.ID, from, catalog.ItemStatusBorrowed); err != nil {
		return nil, err
	}

	// 3. 调整书目可借计数(available→borrowed时-1;reserved→borrowed时无变化)
	if delta := catalog.AvailableDelta(from, catalog.ItemStatusBorrowed); delta != 0 {
		if err := is.titles.AdjustCopies(ctx, titleID, 0, delta); err != nil {
			return nil, err
		}
	}

	// 4. 创建借阅记录
	l := loan.NewLoan(memberID, titleID, item.ID, is.clk.Now(), is.policy)
	if err := is.loans.Create(ctx, l); err != nil {
		return nil, err
	}

	// 5. 原子递增读者在借计数(受护UPDATE,越过上限则整个事务回滚)
	if err := is.members.AdjustBorrowed(ctx, memberID, +1); err != nil {
		return nil, err
	}

	return l, nil
}
