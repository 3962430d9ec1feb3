package inventory

import (
	"context"

	"github.com/xiebiao/libracirc/internal/application/circulation"
	"github.com/xiebiao/libracirc/internal/domain/catalog"
)

// SetItemStatusUseCase 人工调整副本状态用例(馆员)
// 设计说明:
// 1. 人工入口比状态机更严:涉及borrowed/reserved的流转只属于
//    流通路径(借出、归还级联、预约取消),馆员不能手工触碰——
//    借出中改状态会让在借记录失去副本,排队绑定改状态会让预约悬空
// 2. 合法的人工流转:available↔maintenance、available↔lost的修复/找回
type SetItemStatusUseCase struct {
	coordinator *circulation.Coordinator
	titles      catalog.TitleRepository
	items       catalog.ItemRepository
}

// NewSetItemStatusUseCase 创建调整副本状态用例
func NewSetItemStatusUseCase(
	coordinator *circulation.Coordinator,
	titles catalog.TitleRepository,
	items catalog.ItemRepository,
) *SetItemStatusUseCase {
	return &SetItemStatusUseCase{
		coordinator: coordinator,
		titles:      titles,
		items:       items,
	}
}

// SetItemStatusRequest 调整副本状态请求DTO
type SetItemStatusRequest struct {
	ItemID uint   // 副本ID
	Status string // 目标状态(available/maintenance/lost)
}

// SetItemStatusResponse 调整副本状态响应DTO
type SetItemStatusResponse struct {
	ID     uint   `json:"id"`
	Status string `json:"status"`
}

// Execute 执行调整副本状态
func (uc *SetItemStatusUseCase) Execute(ctx context.Context, req SetItemStatusRequest) (*SetItemStatusResponse, error) {
	target := catalog.ItemStatus(req.Status)
	if !target.IsValid() {
		return nil, catalog.ErrInvalidTransition
	}
	// 人工入口禁止触碰流通专属状态
	if target == catalog.ItemStatusBorrowed || target == catalog.ItemStatusReserved {
		return nil, catalog.ErrInvalidTransition
	}

	err := uc.coordinator.Atomic(ctx, "SetItemStatus", func(txCtx context.Context) error {
		// 1. 锁定副本
		item, err := uc.items.LockByID(txCtx, req.ItemID)
		if err != nil {
			return err
		}

		from := item.Status
		if from == catalog.ItemStatusBorrowed {
			return catalog.ErrItemInUse
		}
		if from == catalog.ItemStatusReserved {
			// 已绑定预约,先取消预约再处置副本
			return catalog.ErrInvalidTransition
		}
		if from == target {
			return nil // 幂等:已是目标状态
		}

		// 2. 状态机校验 + 受护流转
		if !item.CanTransitionTo(target) {
			return catalog.ErrInvalidTransition
		}
		if err := uc.items.UpdateStatus(txCtx, item.ID, from, target); err != nil {
			return err
		}

		// 3. 同步书目可借计数(如available→maintenance: -1)
		if delta := catalog.AvailableDelta(from, target); delta != 0 {
			return uc.titles.AdjustCopies(txCtx, item.TitleID, 0, delta)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &SetItemStatusResponse{ID: req.ItemID, Status: req.Status}, nil
}
