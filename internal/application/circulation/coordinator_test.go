package circulation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/libracirc/pkg/errors"
)

// countingTx 记录事务执行次数,可按计划注入错误
type countingTx struct {
	calls int
	errs  []error // 第n次执行返回errs[n],越界后返回nil
}

func (t *countingTx) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	idx := t.calls
	t.calls++
	if idx < len(t.errs) && t.errs[idx] != nil {
		return t.errs[idx]
	}
	return fn(ctx)
}

var errDeadlock = errors.New("Error 1213: Deadlock found when trying to get lock")

func isDeadlock(err error) bool { return errors.Is(err, errDeadlock) }

func TestCoordinatorAtomic(t *testing.T) {
	ctx := context.Background()

	t.Run("成功执行一次", func(t *testing.T) {
		tx := &countingTx{}
		c := NewCoordinator(tx, 3, isDeadlock)

		executed := 0
		err := c.Atomic(ctx, "TestOp", func(ctx context.Context) error {
			executed++
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, tx.calls)
		assert.Equal(t, 1, executed)
	})

	t.Run("业务错误不重试原样透出", func(t *testing.T) {
		tx := &countingTx{}
		c := NewCoordinator(tx, 3, isDeadlock)

		bizErr := apperrors.New(apperrors.ErrCodeBorrowLimitExceeded, "已达同时在借上限")
		err := c.Atomic(ctx, "TestOp", func(ctx context.Context) error {
			return bizErr
		})

		assert.ErrorIs(t, err, bizErr, "业务错误必须原样返回,不被包装")
		assert.Equal(t, 1, tx.calls, "业务错误不应触发重试")
	})

	t.Run("死锁后重试成功", func(t *testing.T) {
		tx := &countingTx{errs: []error{errDeadlock}}
		c := NewCoordinator(tx, 3, isDeadlock)

		executed := 0
		err := c.Atomic(ctx, "TestOp", func(ctx context.Context) error {
			executed++
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 2, tx.calls, "第一次死锁,第二次成功")
		assert.Equal(t, 1, executed)
	})

	t.Run("重试耗尽统一为冲突错误", func(t *testing.T) {
		tx := &countingTx{errs: []error{errDeadlock, errDeadlock, errDeadlock}}
		c := NewCoordinator(tx, 3, isDeadlock)

		err := c.Atomic(ctx, "TestOp", func(ctx context.Context) error {
			return nil
		})

		assert.ErrorIs(t, err, apperrors.ErrConflict, "底层数据库错误不透出")
		assert.Equal(t, 3, tx.calls)
	})

	t.Run("maxRetries非法时取默认值", func(t *testing.T) {
		tx := &countingTx{errs: []error{errDeadlock, errDeadlock, errDeadlock}}
		c := NewCoordinator(tx, 0, isDeadlock)

		err := c.Atomic(ctx, "TestOp", func(ctx context.Context) error { return nil })

		assert.ErrorIs(t, err, apperrors.ErrConflict)
		assert.Equal(t, 3, tx.calls, "默认重试3次")
	})

	t.Run("retryable为nil时任何错误都不重试", func(t *testing.T) {
		tx := &countingTx{errs: []error{errDeadlock}}
		c := NewCoordinator(tx, 3, nil)

		err := c.Atomic(ctx, "TestOp", func(ctx context.Context) error { return nil })

		assert.ErrorIs(t, err, errDeadlock)
		assert.Equal(t, 1, tx.calls)
	})

	t.Run("上下文取消中断重试", func(t *testing.T) {
		tx := &countingTx{errs: []error{errDeadlock, errDeadlock}}
		c := NewCoordinator(tx, 3, isDeadlock)

		cancelCtx, cancel := context.WithCancel(ctx)
		cancel()

		err := c.Atomic(cancelCtx, "TestOp", func(ctx context.Context) error { return nil })

		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, tx.calls, "退避等待中发现取消即中断")
	})
}
