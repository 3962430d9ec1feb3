package request

import (
	apperrors "github.com/xiebiao/libracirc/pkg/errors"
)

// 借阅申请领域错误定义
var (
	// ErrRequestNotFound 申请不存在
	ErrRequestNotFound = apperrors.New(apperrors.ErrCodeRequestNotFound, "借阅申请不存在")

	// ErrRequestNotPending 申请不在待审批状态
	ErrRequestNotPending = apperrors.New(apperrors.ErrCodeRequestNotPending, "申请不在待审批状态")

	// ErrRejectReasonRequired 驳回必须给出理由
	ErrRejectReasonRequired = apperrors.New(apperrors.ErrCodeInvalidParams, "驳回理由不能为空")

	// ErrNotRequestOwner 非本人申请
	ErrNotRequestOwner = apperrors.New(apperrors.ErrCodeForbidden, "只能操作本人的申请")
)
