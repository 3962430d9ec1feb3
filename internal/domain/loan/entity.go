package loan

import (
	"time"
)

// Status 借阅记录状态
// 教学要点:
// 1. 使用string类型:状态值直接持久化和序列化,
//    对外契约固定为 issued/overdue/returned 三个字符串
// 2. issued/overdue都算"在借"(IsOpen),一本副本同一时刻至多一条在借记录
type Status string

const (
	StatusIssued   Status = "issued"   // 已借出
	StatusOverdue  Status = "overdue"  // 已逾期(仍在借)
	StatusReturned Status = "returned" // 已归还(终态)
)

// IsValid 校验状态是否在闭集内
func (s Status) IsValid() bool {
	switch s {
	case StatusIssued, StatusOverdue, StatusReturned:
		return true
	default:
		return false
	}
}

// Policy 流通策略参数
// 设计说明:借期、续借上限、罚金费率从配置注入,
// 领域规则只依赖这组值,不读全局配置
type Policy struct {
	LoanPeriodDays int   // 借期(天),默认15
	MaxRenewals    int   // 续借次数上限,默认2
	FinePerDay     int64 // 逾期罚金(分/天)
}

// Loan 借阅记录实体（聚合根）
// DDD设计说明:
// 1. Loan绑定读者、书目、副本三方,只保存ID(避免跨聚合引用)
// 2. Fine以"分"为单位的int64存储(避免浮点精度问题)
// 3. Fine永远由日期重新计算得出,不做增量累加,
//    保证存储值与IssueDate/DueDate/ReturnDate不漂移
type Loan struct {
	ID         uint
	MemberID   uint
	TitleID    uint
	ItemID     uint
	IssueDate  time.Time
	DueDate    time.Time
	ReturnDate *time.Time // 归还时间(未归还为nil)
	Status     Status
	Fine       int64 // 罚金(分)
	FinePaid   bool
	FinePaidAt *time.Time
	RenewCount int // 已续借次数
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewLoan 创建新借阅记录（工厂方法）
// 到期日 = 借出日 + 借期
func NewLoan(memberID, titleID, itemID uint, issuedAt time.Time, policy Policy) *Loan {
	now := time.Now()
	return &Loan{
		MemberID:   memberID,
		TitleID:    titleID,
		ItemID:     itemID,
		IssueDate:  issuedAt,
		DueDate:    issuedAt.AddDate(0, 0, policy.LoanPeriodDays),
		Status:     StatusIssued,
		Fine:       0,
		RenewCount: 0,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsOpen 是否在借(issued或overdue)
func (l *Loan) IsOpen() bool {
	return l.Status == StatusIssued || l.Status == StatusOverdue
}

// Renew 续借（领域行为）
// 业务规则:
// 1. 只有issued状态可续借——已逾期必须先归还并结清罚金
// 2. 续借次数上限为policy.MaxRenewals(默认2次)
// 3. 每次续借在当前到期日基础上顺延一个借期
func (l *Loan) Renew(policy Policy) error {
	if l.Status != StatusIssued {
		return ErrLoanNotActive
	}
	if l.RenewCount >= policy.MaxRenewals {
		return ErrRenewalLimitExceeded
	}
	l.DueDate = l.DueDate.AddDate(0, 0, policy.LoanPeriodDays)
	l.RenewCount++
	l.UpdatedAt = time.Now()
	return nil
}

// MarkOverdue 标记逾期（领域行为,由逾期巡检调用）
// 只处理issued且已过期的记录;罚金按当前时刻重算
func (l *Loan) MarkOverdue(now time.Time, policy Policy) error {
	if l.Status != StatusIssued {
		return ErrLoanNotActive
	}
	if !now.After(l.DueDate) {
		return ErrLoanNotOverdue
	}
	l.Status = StatusOverdue
	l.Fine = l.ComputeFine(now, policy)
	l.UpdatedAt = time.Now()
	return nil
}

// Return 归还（领域行为）
// 业务规则:
// 1. 只有在借记录(issued/overdue)可归还,重复归还返回ErrLoanNotActive
// 2. 罚金按归还时刻重算:max(0, 逾期天数) × 每日费率
func (l *Loan) Return(returnedAt time.Time, policy Policy) error {
	if !l.IsOpen() {
		return ErrLoanNotActive
	}
	l.Fine = l.ComputeFine(returnedAt, policy)
	l.Status = StatusReturned
	l.ReturnDate = &returnedAt
	l.UpdatedAt = time.Now()
	return nil
}

// PayFine 缴纳罚金（领域行为）
// 不接入支付渠道,只翻转已缴标记
func (l *Loan) PayFine(paidAt time.Time) error {
	if l.Fine <= 0 || l.FinePaid {
		return ErrNoOutstandingFine
	}
	l.FinePaid = true
	l.FinePaidAt = &paidAt
	l.UpdatedAt = time.Now()
	return nil
}

// ComputeFine 计算截至asOf时刻的罚金
// 逾期天数按"不足一天算一天"向上取整;未逾期为0
func (l *Loan) ComputeFine(asOf time.Time, policy Policy) int64 {
	late := asOf.Sub(l.DueDate)
	if late <= 0 {
		return 0
	}
	days := int64(late / (24 * time.Hour))
	if late%(24*time.Hour) > 0 {
		days++
	}
	return days * policy.FinePerDay
}
