package request

import (
	"context"

	"github.com/xiebiao/libracirc/internal/domain/catalog"
	"github.com/xiebiao/libracirc/internal/domain/member"
	"github.com/xiebiao/libracirc/internal/domain/request"
	"github.com/xiebiao/libracirc/pkg/clock"
)

// SubmitRequestUseCase 提交借阅申请用例
// 业务规则:
// 1. 申请针对书目,可附带心仪副本与备注
// 2. 提交时不做库存校验:副本解析推迟到审批时刻,
//    没有可借副本也允许先递交申请
type SubmitRequestUseCase struct {
	members  member.Repository
	titles   catalog.TitleRepository
	items    catalog.ItemRepository
	requests request.Repository
	clk      clock.Clock
}

// NewSubmitRequestUseCase 创建提交申请用例
func NewSubmitRequestUseCase(
	members member.Repository,
	titles catalog.TitleRepository,
	items catalog.ItemRepository,
	requests request.Repository,
	clk clock.Clock,
) *SubmitRequestUseCase {
	return &SubmitRequestUseCase{
		members:  members,
		titles:   titles,
		items:    items,
		requests: requests,
		clk:      clk,
	}
}

// SubmitRequestRequest 提交申请请求DTO
type SubmitRequestRequest struct {
	MemberID uint   // 读者ID(从JWT中提取)
	TitleID  uint   // 书目ID
	ItemID   *uint  // 心仪副本(可空)
	Note     string // 申请备注
}

// RequestResponse 借阅申请响应DTO(各申请用例共用)
type RequestResponse struct {
	RequestID     uint   `json:"request_id"`
	MemberID      uint   `json:"member_id"`
	TitleID       uint   `json:"title_id"`
	ItemID        *uint  `json:"item_id,omitempty"`
	RequestedAt   string `json:"requested_at"`
	Status        string `json:"status"`
	MemberNote    string `json:"member_note,omitempty"`
	LibrarianNote string `json:"librarian_note,omitempty"`
	ProcessedBy   *uint  `json:"processed_by,omitempty"`
	ProcessedAt   string `json:"processed_at,omitempty"`
}

// Execute 执行提交申请
func (uc *SubmitRequestUseCase) Execute(ctx context.Context, req SubmitRequestRequest) (*RequestResponse, error) {
	// 1. 读者校验(注销读者不可申请)
	m, err := uc.members.FindByID(ctx, req.MemberID)
	if err != nil {
		return nil, err
	}
	if m.Role == member.RoleCancelled {
		return nil, member.ErrMemberCancelled
	}

	// 2. 书目存在性校验
	if _, err := uc.titles.FindByID(ctx, req.TitleID); err != nil {
		return nil, err
	}

	// 3. 指定副本时校验归属(仅校验存在与归属,不校验状态)
	if req.ItemID != nil {
		item, err := uc.items.FindByID(ctx, *req.ItemID)
		if err != nil {
			return nil, err
		}
		if item.TitleID != req.TitleID {
			return nil, catalog.ErrItemNotFound
		}
	}

	// 4. 落库
	r := request.NewBorrowRequest(req.MemberID, req.TitleID, req.ItemID, req.Note, uc.clk.Now())
	if err := uc.requests.Create(ctx, r); err != nil {
		return nil, err
	}

	return toRequestResponse(r), nil
}

// toRequestResponse 领域实体 → 响应DTO
func toRequestResponse(r *request.BorrowRequest) *RequestResponse {
	resp := &RequestResponse{
		RequestID:     r.ID,
		MemberID:      r.MemberID,
		TitleID:       r.TitleID,
		ItemID:        r.ItemID,
		RequestedAt:   r.RequestedAt.Format("2006-01-02 15:04:05"),
		Status:        string(r.Status),
		MemberNote:    r.MemberNote,
		LibrarianNote: r.LibrarianNote,
		ProcessedBy:   r.ProcessedBy,
	}
	if r.ProcessedAt != nil {
		resp.ProcessedAt = r.ProcessedAt.Format("2006-01-02 15:04:05")
	}
	return resp
}
