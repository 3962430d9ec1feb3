package reservation

import (
	apperrors "github.com/xiebiao/libracirc/pkg/errors"
)

// 预约领域错误定义
var (
	// ErrReservationNotFound 预约不存在
	ErrReservationNotFound = apperrors.New(apperrors.ErrCodeReservationNotFound, "预约记录不存在")

	// ErrDuplicateReservation 同一读者对同一书目已有活跃预约
	ErrDuplicateReservation = apperrors.New(apperrors.ErrCodeDuplicateReservation, "已有该书目的有效预约")

	// ErrInvalidReservationState 预约状态不允许此操作
	ErrInvalidReservationState = apperrors.New(apperrors.ErrCodeBusinessError, "预约状态不允许此操作")

	// ErrNotReservationOwner 非本人预约
	ErrNotReservationOwner = apperrors.New(apperrors.ErrCodeForbidden, "只能操作本人的预约")
)
