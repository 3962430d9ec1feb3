package request

import (
	"strings"
	"time"
)

// Status 借阅申请状态
// 教学要点:
// 1. 使用string类型:状态值直接持久化和序列化,
//    对外契约固定为 pending/approved/rejected/cancelled 四个字符串
// 2. pending是唯一的非终态;approved/rejected记录审批人与时间
type Status string

const (
	StatusPending   Status = "pending"   // 待审批
	StatusApproved  Status = "approved"  // 已批准(同步完成借出)
	StatusRejected  Status = "rejected"  // 已驳回
	StatusCancelled Status = "cancelled" // 申请人撤回(终态)
)

// IsValid 校验状态是否在闭集内
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	default:
		return false
	}
}

// BorrowRequest 借阅申请实体（聚合根）
// DDD设计说明:
// 1. 申请针对书目,可选指定心仪副本(ItemID);提交时不做库存校验,
//    副本解析推迟到审批时刻
// 2. ProcessedBy/ProcessedAt仅在approved/rejected时有值
type BorrowRequest struct {
	ID            uint
	MemberID      uint
	TitleID       uint
	ItemID        *uint // 申请人指定的副本(可为空)
	RequestedAt   time.Time
	Status        Status
	MemberNote    string // 申请备注
	LibrarianNote string // 审批意见(驳回时必填)
	ProcessedBy   *uint  // 审批馆员ID
	ProcessedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewBorrowRequest 创建新借阅申请（工厂方法）
func NewBorrowRequest(memberID, titleID uint, itemID *uint, note string, requestedAt time.Time) *BorrowRequest {
	now := time.Now()
	return &BorrowRequest{
		MemberID:    memberID,
		TitleID:     titleID,
		ItemID:      itemID,
		RequestedAt: requestedAt,
		Status:      StatusPending,
		MemberNote:  note,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Approve 批准申请（领域行为）
// 只记录审批结论;实际借出由application层在同一事务内完成,
// 副本解析失败时申请保持pending,此方法不会被调用
func (r *BorrowRequest) Approve(librarianID uint, note string, processedAt time.Time) error {
	if r.Status != StatusPending {
		return ErrRequestNotPending
	}
	r.Status = StatusApproved
	r.LibrarianNote = note
	r.ProcessedBy = &librarianID
	r.ProcessedAt = &processedAt
	r.UpdatedAt = time.Now()
	return nil
}

// Reject 驳回申请（领域行为）
// 业务规则:驳回必须给出非空理由
func (r *BorrowRequest) Reject(librarianID uint, reason string, processedAt time.Time) error {
	if r.Status != StatusPending {
		return ErrRequestNotPending
	}
	if strings.TrimSpace(reason) == "" {
		return ErrRejectReasonRequired
	}
	r.Status = StatusRejected
	r.LibrarianNote = reason
	r.ProcessedBy = &librarianID
	r.ProcessedAt = &processedAt
	r.UpdatedAt = time.Now()
	return nil
}

// Cancel 撤回申请（领域行为,仅申请人）
func (r *BorrowRequest) Cancel() error {
	if r.Status != StatusPending {
		return ErrRequestNotPending
	}
	r.Status = StatusCancelled
	r.UpdatedAt = time.Now()
	return nil
}

// IsOwnedBy 检查申请是否属于指定读者
func (r *BorrowRequest) IsOwnedBy(memberID uint) bool {
	return r.MemberID == memberID
}
