package inventory

import (
	"context"

	"github.com/xiebiao/libracirc/internal/application/circulation"
	"github.com/xiebiao/libracirc/internal/domain/catalog"
)

// AddItemUseCase 副本入藏用例
// 教学要点:副本入表与书目计数+1必须同一事务——
// 计数永远可由副本行重新推导出来
type AddItemUseCase struct {
	coordinator *circulation.Coordinator
	titles      catalog.TitleRepository
	items       catalog.ItemRepository
}

// NewAddItemUseCase 创建副本入藏用例
func NewAddItemUseCase(
	coordinator *circulation.Coordinator,
	titles catalog.TitleRepository,
	items catalog.ItemRepository,
) *AddItemUseCase {
	return &AddItemUseCase{
		coordinator: coordinator,
		titles:      titles,
		items:       items,
	}
}

// AddItemRequest 副本入藏请求DTO
type AddItemRequest struct {
	TitleID   uint   // 所属书目ID
	Barcode   string // 条码(全局唯一)
	Location  string // 馆藏位置
	Condition string // 品相
}

// AddItemResponse 副本入藏响应DTO
type AddItemResponse struct {
	ID        uint   `json:"id"`
	TitleID   uint   `json:"title_id"`
	Barcode   string `json:"barcode"`
	Location  string `json:"location"`
	Condition string `json:"condition"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// Execute 执行副本入藏
func (uc *AddItemUseCase) Execute(ctx context.Context, req AddItemRequest) (*AddItemResponse, error) {
	var item *catalog.Item
	err := uc.coordinator.Atomic(ctx, "AddItem", func(txCtx context.Context) error {
		// 1. 锁定书目(为计数调整定序,书目不存在时快速失败)
		if _, err := uc.titles.LockByID(txCtx, req.TitleID); err != nil {
			return err
		}

		// 2. 创建副本(条码重复由唯一索引兜底→ErrDuplicateBarcode)
		item = catalog.NewItem(req.TitleID, req.Barcode, req.Location, req.Condition)
		if err := uc.items.Create(txCtx, item); err != nil {
			return err
		}

		// 3. 书目计数:总数+1,可借数+1(新副本默认available)
		return uc.titles.AdjustCopies(txCtx, req.TitleID, +1, +1)
	})
	if err != nil {
		return nil, err
	}

	return &AddItemResponse{
		ID:        item.ID,
		TitleID:   item.TitleID,
		Barcode:   item.Barcode,
		Location:  item.Location,
		Condition: item.Condition,
		Status:    string(item.Status),
		CreatedAt: item.CreatedAt.Format("2006-01-02 15:04:05"),
	}, nil
}
