package catalog

import (
	apperrors "github.com/xiebiao/libracirc/pkg/errors"
)

// 书目/副本领域错误定义
var (
	// ErrTitleNotFound 书目不存在
	ErrTitleNotFound = apperrors.New(apperrors.ErrCodeTitleNotFound, "书目不存在")

	// ErrItemNotFound 馆藏副本不存在
	ErrItemNotFound = apperrors.New(apperrors.ErrCodeItemNotFound, "馆藏副本不存在")

	// ErrISBNDuplicate ISBN已存在
	ErrISBNDuplicate = apperrors.New(apperrors.ErrCodeDuplicateEntry, "ISBN号已存在")

	// ErrInvalidISBN ISBN格式不正确
	ErrInvalidISBN = apperrors.New(apperrors.ErrCodeInvalidParams, "ISBN格式不正确")

	// ErrDuplicateBarcode 条码已存在
	ErrDuplicateBarcode = apperrors.New(apperrors.ErrCodeDuplicateBarcode, "条码已存在")

	// ErrInvalidTransition 非法的副本状态流转
	ErrInvalidTransition = apperrors.New(apperrors.ErrCodeInvalidTransition, "副本状态不允许此操作")

	// ErrItemInUse 副本借出中,不允许下架/人工改状态
	ErrItemInUse = apperrors.New(apperrors.ErrCodeItemInUse, "副本借出中，不允许此操作")

	// ErrItemNotAvailable 指定副本不可借
	ErrItemNotAvailable = apperrors.New(apperrors.ErrCodeItemNotAvailable, "副本当前不可借")

	// ErrNoItemsAvailable 该书目无可借副本
	ErrNoItemsAvailable = apperrors.New(apperrors.ErrCodeNoItemsAvailable, "该书目暂无可借副本")

	// ErrCopiesOutOfRange 副本计数越界(受护UPDATE未命中)
	ErrCopiesOutOfRange = apperrors.New(apperrors.ErrCodeInternal, "副本计数越界")
)
