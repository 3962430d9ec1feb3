package request

import (
	"context"

	"github.com/xiebiao/libracirc/internal/domain/request"
	apperrors "github.com/xiebiao/libracirc/pkg/errors"
)

// ListRequestsUseCase 借阅申请查询用例
// 设计说明:纯读路径,不进事务
type ListRequestsUseCase struct {
	requests request.Repository
}

// NewListRequestsUseCase 创建申请查询用例
func NewListRequestsUseCase(requests request.Repository) *ListRequestsUseCase {
	return &ListRequestsUseCase{requests: requests}
}

// ListRequestsRequest 申请查询请求DTO
// MemberID>0时按读者查询(读者视角);否则按状态查全量(馆员视角,
// 典型用法是查pending待办队列)
type ListRequestsRequest struct {
	MemberID uint   // 按读者查询(>0生效)
	Status   string // 状态过滤,空串表示全部
	Page     int
	PageSize int
}

// ListRequestsResponse 申请分页响应DTO
type ListRequestsResponse struct {
	Total    int64              `json:"total"`
	Requests []*RequestResponse `json:"requests"`
}

// Execute 执行申请查询
func (uc *ListRequestsUseCase) Execute(ctx context.Context, req ListRequestsRequest) (*ListRequestsResponse, error) {
	status := request.Status(req.Status)
	if req.Status != "" && !status.IsValid() {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "无效的申请状态: "+req.Status)
	}

	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > 100 {
		req.PageSize = 20
	}

	var (
		list  []*request.BorrowRequest
		total int64
		err   error
	)
	if req.MemberID > 0 {
		list, total, err = uc.requests.ListByMember(ctx, req.MemberID, status, req.Page, req.PageSize)
	} else {
		list, total, err = uc.requests.ListByStatus(ctx, status, req.Page, req.PageSize)
	}
	if err != nil {
		return nil, err
	}

	result := make([]*RequestResponse, len(list))
	for i, r := range list {
		result[i] = toRequestResponse(r)
	}
	return &ListRequestsResponse{Total: total, Requests: result}, nil
}
