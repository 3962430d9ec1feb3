// Package tracing 提供基于OpenTelemetry的分布式追踪
//
// 在流通引擎中的定位：
// 1. 每个流通复合操作（借出、归还级联、审批发放）是一个Span，
//    内部的仓储调用自动成为子Span（通过Context传递）
// 2. 用TraceID关联日志，排查"为什么这次归还慢"这类问题
// 3. 采样、导出策略与业务代码解耦，关闭追踪时业务零感知
//
// 核心概念：
// - Trace（追踪）：一个完整的请求链路，包含多个Span
// - Span（跨度）：一个操作单元（操作名、起止时间、状态）
// - SpanContext：跨服务传递的TraceID/SpanID元数据
package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// InitTracer 初始化全局Tracer Provider
//
// 参数：
//   - serviceName: 服务名称（在Jaeger UI中显示）
//   - endpoint: OTLP gRPC端点（如 localhost:4317）
//
// 返回：
//   - shutdown: 关闭函数（程序退出时调用，确保数据刷新）
//
// 设计要点：
// 1. 使用OTLP协议（厂商中立，可无缝切换后端）
// 2. 采样策略：AlwaysSample适合开发环境，
//    生产环境建议 sdktrace.TraceIDRatioBased(0.01)
func InitTracer(serviceName, endpoint string) (func(context.Context) error, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 1. 创建OTLP gRPC Exporter
	exporter, err := otlptracegrpc.New(
		ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(), // 禁用TLS（生产环境应启用）
	)
	if err != nil {
		return nil, fmt.Errorf("创建OTLP exporter失败: %w", err)
	}

	// 2. 创建Resource（资源属性，附加到所有Span）
	res, err := resource.New(
		ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("创建资源属性失败: %w", err)
	}

	// 3. 创建Tracer Provider
	// BatchSpanProcessor批量发送Span（性能优于SimpleSpanProcessor）
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	// 4. 设置全局TracerProvider，业务代码直接用otel.Tracer()获取
	otel.SetTracerProvider(tp)

	// 5. 设置全局上下文传播器（W3C Trace Context + Baggage）
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	// 6. 返回关闭函数，程序退出前调用，否则可能丢失最后一批Span
	shutdown := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}

	return shutdown, nil
}

// StartSpan 创建一个新的Span（便捷函数）
//
// 要点：
// 1. Span命名用操作名（Checkout、ReturnBook），动态值放属性
// 2. 必须用返回的ctx调用下游，否则无法构建调用树
func StartSpan(ctx context.Context, tracerName, spanName string) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	return tracer.Start(ctx, spanName)
}

// ExtractTraceID 从Context提取TraceID（用于关联日志）
func ExtractTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.SpanContext().IsValid() {
		return ""
	}
	return span.SpanContext().TraceID().String()
}

// ExtractSpanID 从Context提取SpanID
func ExtractSpanID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.SpanContext().IsValid() {
		return ""
	}
	return span.SpanContext().SpanID().String()
}
