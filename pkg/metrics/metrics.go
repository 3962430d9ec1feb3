// Package metrics 提供基于Prometheus的流通业务指标
//
// 可观测性三支柱之一（Tracing、Metrics、Logging）：
// - Tracing（追踪）: 回答"为什么慢？"（pkg/tracing）
// - Metrics（指标）: 回答"有多少？多快？"（本模块）
// - Logging（日志）: 回答"发生了什么？"
//
// 核心概念：
// 1. Counter（计数器）：只增不减的累计值（借出总数、罚金总额）
// 2. Gauge（仪表盘）：可增可减的瞬时值（预约队列深度）
// 3. Histogram（直方图）：观测值的分布，自动计算分位数（流通操作耗时）
//
// 使用方式：
//
//	metrics.InitMetrics()
//	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
//	...
//	metrics.IncCounter(metrics.LoansIssuedTotal)
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// initialized 标记是否已初始化（防止重复注册）
	initialized bool

	// HTTP请求相关指标

	// HTTPRequestsTotal HTTP请求总数（Counter）
	// 标签：method（GET/POST）、path、status（200/500）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时（Histogram）
	HTTPRequestDuration *prometheus.HistogramVec

	// 流通业务指标

	// LoansIssuedTotal 图书借出总数（Counter）
	LoansIssuedTotal prometheus.Counter

	// LoansReturnedTotal 图书归还总数（Counter）
	LoansReturnedTotal prometheus.Counter

	// LoansRenewedTotal 续借总数（Counter）
	LoansRenewedTotal prometheus.Counter

	// LoansOverdueTotal 逾期标记总数（Counter）
	LoansOverdueTotal prometheus.Counter

	// FinesAssessedTotal 罚金产生总额（Counter，单位：分）
	FinesAssessedTotal prometheus.Counter

	// ReservationsCreatedTotal 预约创建总数（Counter）
	ReservationsCreatedTotal prometheus.Counter

	// ReservationsNotifiedTotal 预约到书通知总数（Counter）
	ReservationsNotifiedTotal prometheus.Counter

	// BorrowRequestsProcessedTotal 借阅申请处理总数（Counter）
	// 标签：decision（approved/rejected）
	BorrowRequestsProcessedTotal *prometheus.CounterVec

	// CirculationOpDuration 流通复合操作耗时（Histogram）
	// 标签：op（checkout/return/approve/...）
	CirculationOpDuration *prometheus.HistogramVec

	// TxConflictRetriesTotal 事务冲突重试次数（Counter）
	// 说明：死锁/锁等待触发的协调器重试，用于观察热点争用
	TxConflictRetriesTotal prometheus.Counter
)

// InitMetrics 初始化所有Prometheus指标
//
// 必须在程序启动时调用一次，使用promauto.New*自动注册到默认Registry
func InitMetrics() {
	// 防止重复初始化
	if initialized {
		return
	}
	initialized = true

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP请求总数",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP请求耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "path"},
	)

	LoansIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "circulation_loans_issued_total",
		Help: "图书借出总数",
	})

	LoansReturnedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "circulation_loans_returned_total",
		Help: "图书归还总数",
	})

	LoansRenewedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "circulation_loans_renewed_total",
		Help: "续借总数",
	})

	LoansOverdueTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "circulation_loans_overdue_total",
		Help: "逾期标记总数",
	})

	FinesAssessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "circulation_fines_assessed_cents_total",
		Help: "罚金产生总额（分）",
	})

	ReservationsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "circulation_reservations_created_total",
		Help: "预约创建总数",
	})

	ReservationsNotifiedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "circulation_reservations_notified_total",
		Help: "预约到书通知总数",
	})

	BorrowRequestsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circulation_borrow_requests_processed_total",
			Help: "借阅申请处理总数",
		},
		[]string{"decision"},
	)

	CirculationOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "circulation_op_duration_seconds",
			Help:    "流通复合操作耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"op"},
	)

	TxConflictRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "circulation_tx_conflict_retries_total",
		Help: "事务冲突重试次数",
	})
}

// =========================================
// 辅助函数（nil安全：未InitMetrics时不panic）
// =========================================

// IncCounter 递增计数器
func IncCounter(counter prometheus.Counter) {
	if counter != nil {
		counter.Inc()
	}
}

// AddCounter 计数器增加指定值
func AddCounter(counter prometheus.Counter, v float64) {
	if counter != nil {
		counter.Add(v)
	}
}

// IncCounterVec 递增带标签的计数器
func IncCounterVec(counter *prometheus.CounterVec, labels map[string]string) {
	if counter != nil {
		counter.With(labels).Inc()
	}
}

// ObserveHistogramVec 记录带标签的直方图观测值
func ObserveHistogramVec(histogram *prometheus.HistogramVec, labels map[string]string, value float64) {
	if histogram != nil {
		histogram.With(labels).Observe(value)
	}
}
