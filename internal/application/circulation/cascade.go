package circulation

import (
	"context"
	"errors"

	"github.com/xiebiao/libracirc/internal/domain/catalog"
	"github.com/xiebiao/libracirc/internal/domain/reservation"
	"github.com/xiebiao/libracirc/pkg/clock"
)

// Router 释放副本的队列路由器
// 教学要点:归还/取消预约释放出的副本,在提交前就决定去向——
// 有人排队则绑定队首预约(walk-in永远抢不过队列),否则归架
type Router struct {
	titles       catalog.TitleRepository
	items        catalog.ItemRepository
	reservations reservation.Repository
	clk          clock.Clock
}

// NewRouter 创建队列路由器
func NewRouter(
	titles catalog.TitleRepository,
	items catalog.ItemRepository,
	reservations reservation.Repository,
	clk clock.Clock,
) *Router {
	return &Router{
		titles:       titles,
		items:        items,
		reservations: reservations,
		clk:          clk,
	}
}

// RouteFreedItem 路由一本被释放的副本
//
// 必须在Coordinator.Atomic的事务内调用,且调用方已持有副本行锁。
// from是副本当前状态(归还路径为borrowed,预约取消路径为reserved)。
//
// 返回被通知的预约(队列为空时为nil):调用方在事务提交成功后
// 据此发布到书通知——通知永远不在事务内发出
func (rt *Router) RouteFreedItem(ctx context.Context, item *catalog.Item, from catalog.ItemStatus) (*reservation.Reservation, error) {
	// 1. 锁定队首waiting预约(FIFO:reserved_at最早者)
	head, err := rt.reservations.FindHeadWaitingForUpdate(ctx, item.TitleID)
	if err != nil {
		if errors.Is(err, reservation.ErrReservationNotFound) {
			// 2a. 无人排队:副本归架
			return nil, rt.transition(ctx, item, from, catalog.ItemStatusAvailable)
		}
		return nil, err
	}

	// 2b. 有人排队:副本绑定队首,进入(或保持)reserved
	if err := rt.transition(ctx, item, from, catalog.ItemStatusReserved); err != nil {
		return nil, err
	}

	// 3. 队首预约流转为notified并绑定副本
	if err := head.Notify(item.ID, rt.clk.Now()); err != nil {
		return nil, err
	}
	if err := rt.reservations.Update(ctx, head); err != nil {
		return nil, err
	}

	return head, nil
}

// transition 受护流转副本状态并同步书目可借计数
// from==to时跳过(取消notified预约后重新绑定下一位:reserved→reserved)
func (rt *Router) transition(ctx context.Context, item *catalog.Item, from, to catalog.ItemStatus) error {
	if from != to {
		if err := rt.items.UpdateStatus(ctx, item.ID, from, to); err != nil {
			return err
		}
	}
	if delta := catalog.AvailableDelta(from, to); delta != 0 {
		if err := rt.titles.AdjustCopies(ctx, item.TitleID, 0, delta); err != nil {
			return err
		}
	}
	return nil
}
