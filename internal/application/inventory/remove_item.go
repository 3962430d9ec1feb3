package inventory

import (
	"context"

	"github.com/xiebiao/libracirc/internal/application/circulation"
	"github.com/xiebiao/libracirc/internal/domain/catalog"
)

// RemoveItemUseCase 副本下架用例(馆员)
// 业务规则:
// 1. 借出中的副本不允许下架(ErrItemInUse)
// 2. 已绑定预约的副本同理:先取消预约释放,再下架
// 3. 下架与书目计数-1同一事务
type RemoveItemUseCase struct {
	coordinator *circulation.Coordinator
	titles      catalog.TitleRepository
	items       catalog.ItemRepository
}

// NewRemoveItemUseCase 创建副本下架用例
func NewRemoveItemUseCase(
	coordinator *circulation.Coordinator,
	titles catalog.TitleRepository,
	items catalog.ItemRepository,
) *RemoveItemUseCase {
	return &RemoveItemUseCase{
		coordinator: coordinator,
		titles:      titles,
		items:       items,
	}
}

// RemoveItemRequest 副本下架请求DTO
type RemoveItemRequest struct {
	ItemID uint // 副本ID
}

// Execute 执行副本下架
func (uc *RemoveItemUseCase) Execute(ctx context.Context, req RemoveItemRequest) error {
	return uc.coordinator.Atomic(ctx, "RemoveItem", func(txCtx context.Context) error {
		// 1. 锁定副本
		item, err := uc.items.LockByID(txCtx, req.ItemID)
		if err != nil {
			return err
		}

		// 2. 在用副本不允许下架
		if item.Status == catalog.ItemStatusBorrowed || item.Status == catalog.ItemStatusReserved {
			return catalog.ErrItemInUse
		}

		// 3. 删除副本
		if err := uc.items.Delete(txCtx, item.ID); err != nil {
			return err
		}

		// 4. 书目计数:总数-1;原状态为available时可借数同时-1
		availableDelta := 0
		if item.Status == catalog.ItemStatusAvailable {
			availableDelta = -1
		}
		return uc.titles.AdjustCopies(txCtx, item.TitleID, -1, availableDelta)
	})
}
