package errors

import (
	"errors"
	"fmt"
)

// AppError 自定义应用错误
// 设计说明：
// 1. Code用于客户端判断错误类型（不要直接暴露HTTP状态码）
// 2. Message是用户友好的提示信息
// 3. Err是内部错误，仅记录到日志，不返回给客户端（防止泄露敏感信息）
type AppError struct {
	Code    int    `json:"code"`    // 业务错误码
	Message string `json:"message"` // 用户友好的错误提示
	Err     error  `json:"-"`       // 内部错误（不序列化）
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持errors.Is和errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// New 创建新的AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装系统错误（如数据库错误、网络错误）
// 用途：将底层错误转换为业务错误，隐藏实现细节
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// Wrapf 格式化包装错误
func Wrapf(err error, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// =========================================
// 错误码定义
// =========================================
// 规范：
// - 4xxxx: 客户端错误（参数错误、业务规则校验失败）
// - 5xxxx: 服务端错误（数据库异常、事务冲突重试耗尽）

const (
	// 系统级错误码（50000-50099）
	ErrCodeInternal      = 50000 // 内部错误
	ErrCodeDatabaseError = 50001 // 数据库错误
	ErrCodeRedisError    = 50002 // Redis错误
	ErrCodeConflict      = 50010 // 并发事务冲突（重试耗尽）

	// 认证授权错误（40100-40199）
	ErrCodeUnauthorized    = 40100 // 未登录
	ErrCodeInvalidToken    = 40101 // Token无效
	ErrCodeTokenExpired    = 40102 // Token过期
	ErrCodeInvalidPassword = 40103 // 密码错误
	ErrCodeForbidden       = 40104 // 无权限（如非管理员调用审批接口）

	// 资源错误（40400-40499）
	ErrCodeNotFound            = 40400 // 资源不存在(通用)
	ErrCodeMemberNotFound      = 40401 // 读者不存在
	ErrCodeTitleNotFound       = 40402 // 书目不存在
	ErrCodeItemNotFound        = 40403 // 馆藏副本不存在
	ErrCodeLoanNotFound        = 40404 // 借阅记录不存在
	ErrCodeReservationNotFound = 40405 // 预约记录不存在
	ErrCodeRequestNotFound     = 40406 // 借阅申请不存在

	// 流通业务规则错误（40000-40099）
	ErrCodeBusinessError        = 40000 // 业务错误(通用)
	ErrCodeInvalidTransition    = 40001 // 副本状态流转非法
	ErrCodeDuplicateBarcode     = 40002 // 条码已存在
	ErrCodeItemInUse            = 40003 // 副本借出中，禁止操作
	ErrCodeItemNotAvailable     = 40004 // 指定副本不可借
	ErrCodeNoItemsAvailable     = 40005 // 该书目无可借副本
	ErrCodeBorrowLimitExceeded  = 40006 // 超出借阅上限
	ErrCodeRenewalLimitExceeded = 40007 // 超出续借次数上限
	ErrCodeLoanNotActive        = 40008 // 借阅记录不在可操作状态
	ErrCodeDuplicateReservation = 40009 // 重复预约
	ErrCodeNoOutstandingFine    = 40010 // 无待缴罚金
	ErrCodeRequestNotPending    = 40011 // 申请不在待审批状态
	ErrCodeEmailDuplicate       = 40012 // 邮箱已存在
	ErrCodeWeakPassword         = 40013 // 密码强度不足
	ErrCodeDuplicateEntry       = 40019 // 重复记录(通用)

	// 参数错误（40900-40999）
	ErrCodeInvalidParams = 40900 // 参数错误
	ErrCodeBindError     = 40901 // 参数绑定失败
)

// =========================================
// 预定义错误（避免每次都New）
// =========================================
// 说明：与具体聚合绑定的业务错误定义在各domain包的errors.go中，
// 这里只保留跨聚合的通用错误。

var (
	// 系统错误
	ErrInternal      = New(ErrCodeInternal, "系统内部错误")
	ErrDatabaseError = New(ErrCodeDatabaseError, "数据库错误")
	ErrRedisError    = New(ErrCodeRedisError, "缓存服务错误")

	// ErrConflict 并发事务冲突
	// 说明：协调器对死锁/锁等待超时做有限次重试，重试耗尽后返回此错误，
	// 不会把底层数据库错误直接抛给调用方
	ErrConflict = New(ErrCodeConflict, "操作冲突，请稍后重试")

	// 认证授权
	ErrUnauthorized    = New(ErrCodeUnauthorized, "请先登录")
	ErrInvalidToken    = New(ErrCodeInvalidToken, "无效的Token")
	ErrTokenExpired    = New(ErrCodeTokenExpired, "Token已过期")
	ErrInvalidPassword = New(ErrCodeInvalidPassword, "密码错误")
	ErrForbidden       = New(ErrCodeForbidden, "无权限访问")

	// 参数错误
	ErrInvalidParams = New(ErrCodeInvalidParams, "参数错误")
	ErrBindError     = New(ErrCodeBindError, "参数格式错误")
)

// =========================================
// 辅助函数
// =========================================

// IsAppError 判断是否为AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError 提取AppError（如果不是AppError则包装成Internal错误）
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, "系统内部错误")
}
