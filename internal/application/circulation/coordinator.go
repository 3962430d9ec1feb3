// Package circulation 是流通复合操作的协调内核
//
// 设计说明:
// 1. 借出、归还级联、审批发放这类操作横跨读者/书目/副本/借阅/预约
//    多个聚合,必须在同一数据库事务内完成,任一步失败整体回滚
// 2. 借出(Issuer)和释放级联(RouteFreedItem)被loan/reservation/request
//    三个用例包共用,收敛到本包避免用例包互相依赖
// 3. 并发冲突(死锁/锁等待超时)做有限次重试,重试耗尽统一对外为Conflict,
//    业务错误(上限、状态)原样透出,绝不被包装吞掉
package circulation

import (
	"context"
	"time"

	apperrors "github.com/xiebiao/libracirc/pkg/errors"
	"github.com/xiebiao/libracirc/pkg/metrics"
	"github.com/xiebiao/libracirc/pkg/tracing"
)

// Transactor 事务执行器接口
// 生产环境由mysql.TxManager实现;单元测试注入内存假实现
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Coordinator 流通协调器
// 教学要点:
// 1. 所有复合流通操作经Atomic进入:一个操作 = 一个事务 + 一个Span
// 2. retryable判定函数从持久层注入(mysql.IsRetryableError),
//    本包不依赖具体数据库的错误码
type Coordinator struct {
	tx         Transactor
	maxRetries int
	retryable  func(error) bool
}

// NewCoordinator 创建流通协调器
// maxRetries≤0时取默认值3
func NewCoordinator(tx Transactor, maxRetries int, retryable func(error) bool) *Coordinator {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryable == nil {
		retryable = func(error) bool { return false }
	}
	return &Coordinator{
		tx:         tx,
		maxRetries: maxRetries,
		retryable:  retryable,
	}
}

// Atomic 在事务内执行一个流通复合操作
//
// 重试语义:
// 1. fn返回业务错误 → 回滚,错误原样返回,不重试
// 2. fn触发死锁/锁等待超时 → 回滚,退避后整体重试(fn必须可重入)
// 3. 重试耗尽 → 返回ErrConflict,底层数据库错误不透出
func (c *Coordinator) Atomic(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, span := tracing.StartSpan(ctx, "circulation", op)
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.ObserveHistogramVec(metrics.CirculationOpDuration,
			map[string]string{"op": op}, time.Since(start).Seconds())
	}()

	var err error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			metrics.IncCounter(metrics.TxConflictRetriesTotal)
			// 小幅线性退避,错开冲突双方的重试时机
			select {
			case <-time.After(time.Duration(attempt) * 10 * time.Millisecond):
			case <-ctx.Done():
				return apperrors.Wrap(ctx.Err(), "操作已取消")
			}
		}

		err = c.tx.Transaction(ctx, fn)
		if err == nil {
			return nil
		}
		if !c.retryable(err) {
			return err
		}
	}

	// 重试耗尽:对外统一为冲突错误
	return apperrors.ErrConflict
}
