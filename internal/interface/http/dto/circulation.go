package dto

// CheckoutRequest 借出请求
type CheckoutRequest struct {
	TitleID uint  `json:"title_id" binding:"required"`
	ItemID  *uint `json:"item_id"` // 可选:指定副本,缺省自动选取
}

// ListLoansQuery 借阅记录查询参数
type ListLoansQuery struct {
	Status   string `form:"status" binding:"omitempty,oneof=issued overdue returned"`
	Page     int    `form:"page,default=1" binding:"min=1"`
	PageSize int    `form:"page_size,default=20" binding:"min=1,max=100"`
}

// ReserveRequest 预约请求
type ReserveRequest struct {
	TitleID uint `json:"title_id" binding:"required"`
}

// ListReservationsQuery 预约查询参数
// title_id仅馆员可用(查看某书目的队列)
type ListReservationsQuery struct {
	TitleID  uint   `form:"title_id"`
	Status   string `form:"status" binding:"omitempty,oneof=waiting notified fulfilled canceled"`
	Page     int    `form:"page,default=1" binding:"min=1"`
	PageSize int    `form:"page_size,default=20" binding:"min=1,max=100"`
}

// SubmitRequestRequest 提交借阅申请请求
type SubmitRequestRequest struct {
	TitleID uint   `json:"title_id" binding:"required"`
	ItemID  *uint  `json:"item_id"` // 可选:心仪副本
	Note    string `json:"note" binding:"max=500"`
}

// ApproveRequestRequest 审批通过请求
type ApproveRequestRequest struct {
	ItemID *uint  `json:"item_id"` // 可选:馆员指定副本
	Note   string `json:"note" binding:"max=500"`
}

// RejectRequestRequest 审批驳回请求
type RejectRequestRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// ListRequestsQuery 借阅申请查询参数
type ListRequestsQuery struct {
	Status   string `form:"status" binding:"omitempty,oneof=pending approved rejected cancelled"`
	Page     int    `form:"page,default=1" binding:"min=1"`
	PageSize int    `form:"page_size,default=20" binding:"min=1,max=100"`
}
