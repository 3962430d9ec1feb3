package mysql

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// isDuplicateError 判断是否为MySQL唯一索引冲突错误
// MySQL错误码:
// - 1062: Duplicate entry 'xxx' for key 'yyy'
func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	// GORM v2的错误判断
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// 兼容检查:错误信息包含"Duplicate entry"
	return strings.Contains(err.Error(), "Duplicate entry")
}

// IsRetryableError 判断是否为可重试的并发冲突错误
// MySQL错误码:
// - 1213: Deadlock found when trying to get lock
// - 1205: Lock wait timeout exceeded
// 协调器对这两类错误做有限次重试,重试耗尽后对外统一为Conflict
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Error 1213") ||
		strings.Contains(msg, "Deadlock found") ||
		strings.Contains(msg, "Error 1205") ||
		strings.Contains(msg, "Lock wait timeout")
}
