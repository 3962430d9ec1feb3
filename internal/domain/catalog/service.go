package catalog

import (
	"context"
	"regexp"
	"strings"
	"time"

	apperrors "github.com/xiebiao/libracirc/pkg/errors"
)

// Service 书目领域服务接口
// 设计说明:
// 1. 封装不涉及多聚合事务的书目级业务规则
// 2. 副本的增删和状态流转牵扯计数原子性,由application层
//    在事务内编排,这里只提供查询和书目维护
type Service interface {
	// RegisterTitle 登记新书目
	// 业务规则:
	// - ISBN格式必须合法(10位或13位数字)
	// - 书名、作者不能为空
	// - ISBN不能重复
	RegisterTitle(ctx context.Context, title string, authors []string, isbn string, categories []string, publishedAt time.Time) (*Title, error)

	// GetTitleByID 根据ID获取书目详情
	GetTitleByID(ctx context.Context, id uint) (*Title, error)

	// ListTitles 分页查询书目列表
	ListTitles(ctx context.Context, params ListParams) ([]*Title, int64, error)

	// GetItemsByTitle 查询某书目下的全部副本
	GetItemsByTitle(ctx context.Context, titleID uint) ([]*Item, error)
}

type service struct {
	titles TitleRepository
	items  ItemRepository
}

// NewService 创建书目领域服务
func NewService(titles TitleRepository, items ItemRepository) Service {
	return &service{titles: titles, items: items}
}

// RegisterTitle 登记新书目
func (s *service) RegisterTitle(ctx context.Context, title string, authors []string, isbn string, categories []string, publishedAt time.Time) (*Title, error) {
	// 1. ISBN格式校验
	if !isValidISBN(isbn) {
		return nil, ErrInvalidISBN
	}

	// 2. 基本字段校验
	if strings.TrimSpace(title) == "" || len(authors) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "书名和作者不能为空")
	}

	// 3. 检查ISBN是否已存在
	existing, err := s.titles.FindByISBN(ctx, isbn)
	if err == nil && existing != nil {
		return nil, ErrISBNDuplicate
	}
	if err != nil && err != ErrTitleNotFound {
		return nil, err
	}

	// 4. 创建并持久化
	t := NewTitle(title, authors, isbn, categories, publishedAt)
	if err := s.titles.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// GetTitleByID 根据ID获取书目
func (s *service) GetTitleByID(ctx context.Context, id uint) (*Title, error) {
	return s.titles.FindByID(ctx, id)
}

// ListTitles 分页查询书目列表
func (s *service) ListTitles(ctx context.Context, params ListParams) ([]*Title, int64, error) {
	return s.titles.List(ctx, params)
}

// GetItemsByTitle 查询某书目下的全部副本
func (s *service) GetItemsByTitle(ctx context.Context, titleID uint) ([]*Item, error) {
	// 先确认书目存在,让404语义清晰
	if _, err := s.titles.FindByID(ctx, titleID); err != nil {
		return nil, err
	}
	return s.items.ListByTitle(ctx, titleID)
}

// =========================================
// 辅助函数:业务规则校验
// =========================================

// isValidISBN 校验ISBN格式
// 支持ISBN-10和ISBN-13,允许分隔符;只检查位数(生产环境应校验校验位)
func isValidISBN(isbn string) bool {
	re := regexp.MustCompile(`[^0-9Xx]`)
	clean := re.ReplaceAllString(isbn, "")
	length := len(clean)
	return length == 10 || length == 13
}
