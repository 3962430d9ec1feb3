package loan

import (
	"context"

	"github.com/xiebiao/libracirc/internal/domain/loan"
	apperrors "github.com/xiebiao/libracirc/pkg/errors"
)

// ListLoansUseCase 借阅记录查询用例
// 设计说明:纯读路径,不进事务
type ListLoansUseCase struct {
	loans loan.Repository
}

// NewListLoansUseCase 创建借阅记录查询用例
func NewListLoansUseCase(loans loan.Repository) *ListLoansUseCase {
	return &ListLoansUseCase{loans: loans}
}

// ListLoansRequest 借阅记录查询请求DTO
type ListLoansRequest struct {
	MemberID uint   // 查询目标读者
	Status   string // 状态过滤,空串表示全部
	Page     int
	PageSize int
}

// ListLoansResponse 借阅记录分页响应DTO
type ListLoansResponse struct {
	Total int64           `json:"total"`
	Loans []*LoanResponse `json:"loans"`
}

// Execute 执行借阅记录查询
func (uc *ListLoansUseCase) Execute(ctx context.Context, req ListLoansRequest) (*ListLoansResponse, error) {
	status := loan.Status(req.Status)
	if req.Status != "" && !status.IsValid() {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "无效的借阅状态: "+req.Status)
	}

	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > 100 {
		req.PageSize = 20
	}

	loans, total, err := uc.loans.ListByMember(ctx, req.MemberID, status, req.Page, req.PageSize)
	if err != nil {
		return nil, err
	}

	result := make([]*LoanResponse, len(loans))
	for i, l := range loans {
		result[i] = toLoanResponse(l)
	}
	return &ListLoansResponse{Total: total, Loans: result}, nil
}
