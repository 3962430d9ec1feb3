package member

import (
	apperrors "github.com/xiebiao/libracirc/pkg/errors"
)

// 读者领域错误定义
var (
	// ErrMemberNotFound 读者不存在
	ErrMemberNotFound = apperrors.New(apperrors.ErrCodeMemberNotFound, "读者不存在")

	// ErrEmailDuplicate 邮箱已注册
	ErrEmailDuplicate = apperrors.New(apperrors.ErrCodeEmailDuplicate, "邮箱已注册")

	// ErrWeakPassword 密码强度不足
	ErrWeakPassword = apperrors.New(apperrors.ErrCodeWeakPassword, "密码须为8-20位且同时包含字母和数字")

	// ErrBorrowLimitExceeded 超出同时在借上限
	ErrBorrowLimitExceeded = apperrors.New(apperrors.ErrCodeBorrowLimitExceeded, "已达同时在借上限")

	// ErrMemberCancelled 读者已注销
	ErrMemberCancelled = apperrors.New(apperrors.ErrCodeBusinessError, "读者已注销")

	// ErrRoleCannotBorrow 仅普通读者账号可借阅
	ErrRoleCannotBorrow = apperrors.New(apperrors.ErrCodeBusinessError, "仅普通读者账号可借阅")

	// ErrMemberHasOpenLoans 有未归还图书,不允许注销
	ErrMemberHasOpenLoans = apperrors.New(apperrors.ErrCodeBusinessError, "仍有在借图书，不允许注销")

	// ErrInvalidRole 非法角色值
	ErrInvalidRole = apperrors.New(apperrors.ErrCodeInvalidParams, "非法的角色")
)
