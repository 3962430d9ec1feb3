package dto

// AddTitleRequest 新建书目请求
type AddTitleRequest struct {
	Title       string   `json:"title" binding:"required,min=1,max=200"`
	Authors     []string `json:"authors" binding:"required,min=1"`
	ISBN        string   `json:"isbn" binding:"required"`
	Categories  []string `json:"categories"`
	PublishedAt string   `json:"published_at"` // 格式:2006-01-02
}

// AddItemRequest 新增副本请求
type AddItemRequest struct {
	Barcode   string `json:"barcode" binding:"required,min=1,max=50"`
	Location  string `json:"location"`
	Condition string `json:"condition"`
}

// SetItemStatusRequest 副本状态流转请求
// 说明:仅限馆藏维护状态(available/maintenance/lost),
// borrowed/reserved由流通操作驱动
type SetItemStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=available maintenance lost"`
}

// ListTitlesQuery 书目列表查询参数
type ListTitlesQuery struct {
	Page     int    `form:"page,default=1" binding:"min=1"`
	PageSize int    `form:"page_size,default=20" binding:"min=1,max=100"`
	Keyword  string `form:"keyword"`
	Category string `form:"category"`
}
