package handler

import (
	"github.com/gin-gonic/gin"

	appinventory "github.com/xiebiao/libracirc/internal/application/inventory"
	"github.com/xiebiao/libracirc/internal/domain/catalog"
	"github.com/xiebiao/libracirc/internal/interface/http/dto"
	"github.com/xiebiao/libracirc/pkg/response"
)

// InventoryHandler 馆藏HTTP处理器
// 书目与副本的登记、查询、状态维护;写操作全部要求馆员权限
type InventoryHandler struct {
	addTitleUseCase      *appinventory.AddTitleUseCase
	addItemUseCase       *appinventory.AddItemUseCase
	setItemStatusUseCase *appinventory.SetItemStatusUseCase
	removeItemUseCase    *appinventory.RemoveItemUseCase
	queryUseCase         *appinventory.QueryUseCase
}

// NewInventoryHandler 创建馆藏处理器
func NewInventoryHandler(
	addTitleUseCase *appinventory.AddTitleUseCase,
	addItemUseCase *appinventory.AddItemUseCase,
	setItemStatusUseCase *appinventory.SetItemStatusUseCase,
	removeItemUseCase *appinventory.RemoveItemUseCase,
	queryUseCase *appinventory.QueryUseCase,
) *InventoryHandler {
	return &InventoryHandler{
		addTitleUseCase:      addTitleUseCase,
		addItemUseCase:       addItemUseCase,
		setItemStatusUseCase: setItemStatusUseCase,
		removeItemUseCase:    removeItemUseCase,
		queryUseCase:         queryUseCase,
	}
}

// AddTitle 登记书目
// @Summary      登记书目
// @Description  登记新书目(馆员),初始副本数为0
// @Tags         馆藏
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.AddTitleRequest true "书目信息"
// @Success      200 {object} response.Response "登记成功"
// @Failure      409 {object} response.Response "ISBN已存在"
// @Router       /api/v1/titles [post]
func (h *InventoryHandler) AddTitle(c *gin.Context) {
	var req dto.AddTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	result, err := h.addTitleUseCase.Execute(c.Request.Context(), appinventory.AddTitleRequest{
		Title:       req.Title,
		Authors:     req.Authors,
		ISBN:        req.ISBN,
		Categories:  req.Categories,
		PublishedAt: req.PublishedAt,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetTitle 查询书目详情
// @Summary      查询书目详情
// @Tags         馆藏
// @Produce      json
// @Param        id path int true "书目ID"
// @Success      200 {object} response.Response "查询成功"
// @Failure      404 {object} response.Response "书目不存在"
// @Router       /api/v1/titles/{id} [get]
func (h *InventoryHandler) GetTitle(c *gin.Context) {
	titleID, err := parseIDParam(c, "id")
	if err != nil {
		response.ErrorWithCode(c, 40900, "无效的书目ID")
		return
	}

	result, err := h.queryUseCase.GetTitle(c.Request.Context(), titleID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListTitles 书目列表
// @Summary      书目列表
// @Description  分页查询书目,支持关键词与分类过滤
// @Tags         馆藏
// @Produce      json
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页大小" default(20)
// @Param        keyword query string false "书名/作者关键词"
// @Param        category query string false "分类"
// @Success      200 {object} response.Response "查询成功"
// @Router       /api/v1/titles [get]
func (h *InventoryHandler) ListTitles(c *gin.Context) {
	var query dto.ListTitlesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	list, total, err := h.queryUseCase.ListTitles(c.Request.Context(), catalog.ListParams{
		Page:     query.Page,
		PageSize: query.PageSize,
		Keyword:  query.Keyword,
		Category: query.Category,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPage(c, list, total, query.Page, query.PageSize)
}

// AddItem 副本入藏
// @Summary      副本入藏
// @Description  为书目新增一本实体副本(馆员),条码全局唯一
// @Tags         馆藏
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "书目ID"
// @Param        request body dto.AddItemRequest true "副本信息"
// @Success      200 {object} response.Response "入藏成功"
// @Failure      409 {object} response.Response "条码已存在"
// @Router       /api/v1/titles/{id}/items [post]
func (h *InventoryHandler) AddItem(c *gin.Context) {
	titleID, err := parseIDParam(c, "id")
	if err != nil {
		response.ErrorWithCode(c, 40900, "无效的书目ID")
		return
	}

	var req dto.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	result, err := h.addItemUseCase.Execute(c.Request.Context(), appinventory.AddItemRequest{
		TitleID:   titleID,
		Barcode:   req.Barcode,
		Location:  req.Location,
		Condition: req.Condition,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListItems 副本列表
// @Summary      副本列表
// @Description  查询书目下的全部副本及其状态
// @Tags         馆藏
// @Produce      json
// @Param        id path int true "书目ID"
// @Success      200 {object} response.Response "查询成功"
// @Router       /api/v1/titles/{id}/items [get]
func (h *InventoryHandler) ListItems(c *gin.Context) {
	titleID, err := parseIDParam(c, "id")
	if err != nil {
		response.ErrorWithCode(c, 40900, "无效的书目ID")
		return
	}

	result, err := h.queryUseCase.ListItems(c.Request.Context(), titleID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// SetItemStatus 调整副本状态
// @Summary      调整副本状态
// @Description  馆员手工调整副本状态,仅限available/maintenance/lost
// @Tags         馆藏
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "副本ID"
// @Param        request body dto.SetItemStatusRequest true "目标状态"
// @Success      200 {object} response.Response "调整成功"
// @Failure      409 {object} response.Response "副本在用或流转非法"
// @Router       /api/v1/items/{id}/status [put]
func (h *InventoryHandler) SetItemStatus(c *gin.Context) {
	itemID, err := parseIDParam(c, "id")
	if err != nil {
		response.ErrorWithCode(c, 40900, "无效的副本ID")
		return
	}

	var req dto.SetItemStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	result, err := h.setItemStatusUseCase.Execute(c.Request.Context(), appinventory.SetItemStatusRequest{
		ItemID: itemID,
		Status: req.Status,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RemoveItem 副本下架
// @Summary      副本下架
// @Description  从馆藏中移除副本(馆员),在借或绑定预约时拒绝
// @Tags         馆藏
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "副本ID"
// @Success      200 {object} response.Response "下架成功"
// @Failure      409 {object} response.Response "副本在用"
// @Router       /api/v1/items/{id} [delete]
func (h *InventoryHandler) RemoveItem(c *gin.Context) {
	itemID, err := parseIDParam(c, "id")
	if err != nil {
		response.ErrorWithCode(c, 40900, "无效的副本ID")
		return
	}

	if err := h.removeItemUseCase.Execute(c.Request.Context(), appinventory.RemoveItemRequest{ItemID: itemID}); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, nil)
}
