package inventory

import (
	"context"
	"time"

	"github.com/xiebiao/libracirc/internal/domain/catalog"
	apperrors "github.com/xiebiao/libracirc/pkg/errors"
)

// AddTitleUseCase 登记书目用例
// 设计说明:
// 1. 应用层负责用例编排,业务规则校验由领域服务负责
// 2. 输入输出使用DTO,与HTTP层解耦
type AddTitleUseCase struct {
	catalogService catalog.Service
}

// NewAddTitleUseCase 创建登记书目用例
func NewAddTitleUseCase(catalogService catalog.Service) *AddTitleUseCase {
	return &AddTitleUseCase{
		catalogService: catalogService,
	}
}

// AddTitleRequest 登记书目请求DTO
type AddTitleRequest struct {
	Title       string   // 书名
	Authors     []string // 作者
	ISBN        string   // ISBN号
	Categories  []string // 分类
	PublishedAt string   // 出版日期(2006-01-02)
}

// AddTitleResponse 登记书目响应DTO
type AddTitleResponse struct {
	ID              uint     `json:"id"`
	Title           string   `json:"title"`
	Authors         []string `json:"authors"`
	ISBN            string   `json:"isbn"`
	Categories      []string `json:"categories"`
	TotalCopies     int      `json:"total_copies"`
	AvailableCopies int      `json:"available_copies"`
	PublishedAt     string   `json:"published_at"`
	CreatedAt       string   `json:"created_at"`
}

// Execute 执行登记书目
func (uc *AddTitleUseCase) Execute(ctx context.Context, req AddTitleRequest) (*AddTitleResponse, error) {
	// 出版日期解析(可为空)
	var publishedAt time.Time
	if req.PublishedAt != "" {
		var err error
		publishedAt, err = time.Parse("2006-01-02", req.PublishedAt)
		if err != nil {
			return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "出版日期格式应为YYYY-MM-DD")
		}
	}

	t, err := uc.catalogService.RegisterTitle(ctx, req.Title, req.Authors, req.ISBN, req.Categories, publishedAt)
	if err != nil {
		return nil, err
	}

	return toTitleResponse(t), nil
}

// toTitleResponse 领域实体 → 响应DTO
func toTitleResponse(t *catalog.Title) *AddTitleResponse {
	return &AddTitleResponse{
		ID:              t.ID,
		Title:           t.Title,
		Authors:         t.Authors,
		ISBN:            t.ISBN,
		Categories:      t.Categories,
		TotalCopies:     t.TotalCopies,
		AvailableCopies: t.AvailableCopies,
		PublishedAt:     t.PublishedAt.Format("2006-01-02"),
		CreatedAt:       t.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
