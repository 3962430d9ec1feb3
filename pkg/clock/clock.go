// Package clock 提供可注入的时钟抽象
//
// 设计说明：
// 1. 应借期、罚金都依赖"当前时间"，直接调用time.Now()会让
//    到期/逾期规则无法做确定性测试
// 2. 领域服务和用例统一通过Clock接口取时间，生产环境注入Real，
//    测试注入Fixed并手动推进
package clock

import "time"

// Clock 时钟接口
type Clock interface {
	// Now 返回当前时间
	Now() time.Time
}

// Real 系统时钟
type Real struct{}

// NewReal 创建系统时钟
func NewReal() Real { return Real{} }

// Now 返回time.Now()
func (Real) Now() time.Time { return time.Now() }

// Fixed 固定时钟（测试用）
// 用法：
//
//	clk := clock.NewFixed(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
//	clk.Advance(20 * 24 * time.Hour) // 推进到第20天，验证罚金
type Fixed struct {
	t time.Time
}

// NewFixed 创建固定时钟
func NewFixed(t time.Time) *Fixed { return &Fixed{t: t} }

// Now 返回固定的当前时间
func (f *Fixed) Now() time.Time { return f.t }

// Advance 推进时钟
func (f *Fixed) Advance(d time.Duration) { f.t = f.t.Add(d) }

// Set 直接设置时间
func (f *Fixed) Set(t time.Time) { f.t = t }
