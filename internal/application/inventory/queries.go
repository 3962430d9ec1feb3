package inventory

import (
	"context"

	"github.com/xiebiao/libracirc/internal/domain/catalog"
)

// QueryUseCase 书目/副本查询用例
// 设计说明:纯读路径,不进事务,直接走领域服务
type QueryUseCase struct {
	catalogService catalog.Service
}

// NewQueryUseCase 创建查询用例
func NewQueryUseCase(catalogService catalog.Service) *QueryUseCase {
	return &QueryUseCase{catalogService: catalogService}
}

// ItemInfo 副本信息DTO
type ItemInfo struct {
	ID        uint   `json:"id"`
	TitleID   uint   `json:"title_id"`
	Barcode   string `json:"barcode"`
	Location  string `json:"location"`
	Condition string `json:"condition"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// GetTitle 查询书目详情
func (uc *QueryUseCase) GetTitle(ctx context.Context, id uint) (*AddTitleResponse, error) {
	t, err := uc.catalogService.GetTitleByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toTitleResponse(t), nil
}

// ListTitles 分页查询书目列表
func (uc *QueryUseCase) ListTitles(ctx context.Context, params catalog.ListParams) ([]*AddTitleResponse, int64, error) {
	titles, total, err := uc.catalogService.ListTitles(ctx, params)
	if err != nil {
		return nil, 0, err
	}

	result := make([]*AddTitleResponse, len(titles))
	for i, t := range titles {
		result[i] = toTitleResponse(t)
	}
	return result, total, nil
}

// ListItems 查询某书目下的全部副本
func (uc *QueryUseCase) ListItems(ctx context.Context, titleID uint) ([]*ItemInfo, error) {
	items, err := uc.catalogService.GetItemsByTitle(ctx, titleID)
	if err != nil {
		return nil, err
	}

	result := make([]*ItemInfo, len(items))
	for i, item := range items {
		result[i] = &ItemInfo{
			ID:        item.ID,
			TitleID:   item.TitleID,
			Barcode:   item.Barcode,
			Location:  item.Location,
			Condition: item.Condition,
			Status:    string(item.Status),
			CreatedAt: item.CreatedAt.Format("2006-01-02 15:04:05"),
		}
	}
	return result, nil
}
