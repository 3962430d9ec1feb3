package loan

import (
	apperrors "github.com/xiebiao/libracirc/pkg/errors"
)

// 借阅领域错误定义
var (
	// ErrLoanNotFound 借阅记录不存在
	ErrLoanNotFound = apperrors.New(apperrors.ErrCodeLoanNotFound, "借阅记录不存在")

	// ErrLoanNotActive 借阅记录不在可操作状态(已归还/已逾期禁续借等)
	ErrLoanNotActive = apperrors.New(apperrors.ErrCodeLoanNotActive, "借阅记录不在可操作状态")

	// ErrRenewalLimitExceeded 超出续借次数上限
	ErrRenewalLimitExceeded = apperrors.New(apperrors.ErrCodeRenewalLimitExceeded, "已达续借次数上限")

	// ErrNoOutstandingFine 无待缴罚金
	ErrNoOutstandingFine = apperrors.New(apperrors.ErrCodeNoOutstandingFine, "无待缴罚金")

	// ErrLoanNotOverdue 未到期,无需标记逾期
	ErrLoanNotOverdue = apperrors.New(apperrors.ErrCodeBusinessError, "借阅记录未逾期")
)
