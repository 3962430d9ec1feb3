// Package notify 是流通事件的通知通道
//
// 定位说明:
// 1. 通知是事务提交之后的尽力而为旁路:发布失败只记录日志,
//    绝不让借还/预约操作失败,更不参与数据库事务
// 2. 核心只发布事件,真正投递站内信/邮件由独立的消费者进程完成
package notify

import (
	"context"
	"log"
	"time"

	"github.com/xiebiao/libracirc/pkg/mq"
)

// 路由键约定(Topic Exchange)
const (
	RoutingKeyReservationNotified = "reservation.notified"
	RoutingKeyLoanOverdue         = "loan.overdue"
)

// ReservationNotifiedEvent 预约到书事件
type ReservationNotifiedEvent struct {
	ReservationID uint      `json:"reservation_id"`
	MemberID      uint      `json:"member_id"`
	TitleID       uint      `json:"title_id"`
	ItemID        uint      `json:"item_id"`
	NotifiedAt    time.Time `json:"notified_at"`
}

// LoanOverdueEvent 借阅逾期事件
type LoanOverdueEvent struct {
	LoanID   uint      `json:"loan_id"`
	MemberID uint      `json:"member_id"`
	TitleID  uint      `json:"title_id"`
	DueDate  time.Time `json:"due_date"`
	Fine     int64     `json:"fine"` // 当前罚金(分)
}

// Notifier 通知通道接口
// application层只依赖此接口;MQ不可用时注入Noop降级
type Notifier interface {
	// ReservationNotified 预约到书,提醒读者取书
	ReservationNotified(ctx context.Context, ev ReservationNotifiedEvent)

	// LoanOverdue 借阅逾期提醒
	LoanOverdue(ctx context.Context, ev LoanOverdueEvent)
}

// MQNotifier RabbitMQ实现
type MQNotifier struct {
	publisher *mq.Publisher
}

// NewMQNotifier 创建MQ通知器
func NewMQNotifier(publisher *mq.Publisher) *MQNotifier {
	return &MQNotifier{publisher: publisher}
}

// ReservationNotified 发布预约到书事件
// 失败只记日志:通知丢失可接受,流通状态不可回滚
func (n *MQNotifier) ReservationNotified(ctx context.Context, ev ReservationNotifiedEvent) {
	if err := n.publisher.Publish(RoutingKeyReservationNotified, ev); err != nil {
		log.Printf("发布预约到书事件失败: reservation_id=%d, err=%v", ev.ReservationID, err)
	}
}

// LoanOverdue 发布逾期事件
func (n *MQNotifier) LoanOverdue(ctx context.Context, ev LoanOverdueEvent) {
	if err := n.publisher.Publish(RoutingKeyLoanOverdue, ev); err != nil {
		log.Printf("发布逾期事件失败: loan_id=%d, err=%v", ev.LoanID, err)
	}
}

// Noop 空实现(MQ关闭或测试环境)
type Noop struct{}

// NewNoop 创建空通知器
func NewNoop() *Noop {
	return &Noop{}
}

func (Noop) ReservationNotified(ctx context.Context, ev ReservationNotifiedEvent) {}

func (Noop) LoanOverdue(ctx context.Context, ev LoanOverdueEvent) {}
