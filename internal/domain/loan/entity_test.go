package loan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 测试用流通策略:借期15天,续借2次,罚金50分/天
var testPolicy = Policy{
	LoanPeriodDays: 15,
	MaxRenewals:    2,
	FinePerDay:     50,
}

func newTestLoan(issuedAt time.Time) *Loan {
	return NewLoan(1, 10, 100, issuedAt, testPolicy)
}

func TestNewLoan(t *testing.T) {
	issuedAt := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	l := newTestLoan(issuedAt)

	assert.Equal(t, StatusIssued, l.Status)
	assert.Equal(t, issuedAt.AddDate(0, 0, 15), l.DueDate, "到期日=借出日+借期")
	assert.Zero(t, l.Fine)
	assert.Zero(t, l.RenewCount)
	assert.True(t, l.IsOpen())
}

func TestLoanRenew(t *testing.T) {
	issuedAt := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	t.Run("续借顺延借期", func(t *testing.T) {
		l := newTestLoan(issuedAt)

		require.NoError(t, l.Renew(testPolicy))
		assert.Equal(t, issuedAt.AddDate(0, 0, 30), l.DueDate, "第一次续借到期日+15天")
		assert.Equal(t, 1, l.RenewCount)

		require.NoError(t, l.Renew(testPolicy))
		assert.Equal(t, issuedAt.AddDate(0, 0, 45), l.DueDate, "第二次续借再+15天")
		assert.Equal(t, 2, l.RenewCount)
	})

	t.Run("第三次续借超出上限", func(t *testing.T) {
		l := newTestLoan(issuedAt)
		require.NoError(t, l.Renew(testPolicy))
		require.NoError(t, l.Renew(testPolicy))

		err := l.Renew(testPolicy)
		assert.ErrorIs(t, err, ErrRenewalLimitExceeded)
		assert.Equal(t, 2, l.RenewCount, "失败的续借不应改变计数")
	})

	t.Run("已逾期不可续借", func(t *testing.T) {
		l := newTestLoan(issuedAt)
		require.NoError(t, l.MarkOverdue(l.DueDate.AddDate(0, 0, 1), testPolicy))

		assert.ErrorIs(t, l.Renew(testPolicy), ErrLoanNotActive)
	})

	t.Run("已归还不可续借", func(t *testing.T) {
		l := newTestLoan(issuedAt)
		require.NoError(t, l.Return(issuedAt.AddDate(0, 0, 5), testPolicy))

		assert.ErrorIs(t, l.Renew(testPolicy), ErrLoanNotActive)
	})
}

func TestLoanReturn(t *testing.T) {
	issuedAt := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	t.Run("按期归还无罚金", func(t *testing.T) {
		l := newTestLoan(issuedAt)
		returnedAt := issuedAt.AddDate(0, 0, 10)

		require.NoError(t, l.Return(returnedAt, testPolicy))
		assert.Equal(t, StatusReturned, l.Status)
		assert.Zero(t, l.Fine)
		require.NotNil(t, l.ReturnDate)
		assert.Equal(t, returnedAt, *l.ReturnDate)
		assert.False(t, l.IsOpen())
	})

	t.Run("第20天归还罚5天", func(t *testing.T) {
		l := newTestLoan(issuedAt)
		// 借期15天,第20天归还,逾期5天
		returnedAt := issuedAt.AddDate(0, 0, 20)

		require.NoError(t, l.Return(returnedAt, testPolicy))
		assert.Equal(t, int64(5*50), l.Fine, "逾期5天×50分/天")
	})

	t.Run("逾期不足一天按一天计", func(t *testing.T) {
		l := newTestLoan(issuedAt)
		returnedAt := l.DueDate.Add(2 * time.Hour)

		require.NoError(t, l.Return(returnedAt, testPolicy))
		assert.Equal(t, int64(50), l.Fine)
	})

	t.Run("overdue状态归还罚金按归还时刻重算", func(t *testing.T) {
		l := newTestLoan(issuedAt)
		// 第17天巡检标记,罚金快照2天
		require.NoError(t, l.MarkOverdue(issuedAt.AddDate(0, 0, 17), testPolicy))
		assert.Equal(t, int64(2*50), l.Fine)

		// 第20天才归还,罚金重算为5天
		require.NoError(t, l.Return(issuedAt.AddDate(0, 0, 20), testPolicy))
		assert.Equal(t, int64(5*50), l.Fine)
	})

	t.Run("重复归还被拒绝", func(t *testing.T) {
		l := newTestLoan(issuedAt)
		returnedAt := issuedAt.AddDate(0, 0, 10)
		require.NoError(t, l.Return(returnedAt, testPolicy))

		err := l.Return(returnedAt.Add(time.Hour), testPolicy)
		assert.ErrorIs(t, err, ErrLoanNotActive)
		assert.Equal(t, returnedAt, *l.ReturnDate, "首次归还的时间不应被覆盖")
	})
}

func TestLoanMarkOverdue(t *testing.T) {
	issuedAt := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	t.Run("过期记录标记为overdue", func(t *testing.T) {
		l := newTestLoan(issuedAt)
		now := l.DueDate.AddDate(0, 0, 3)

		require.NoError(t, l.MarkOverdue(now, testPolicy))
		assert.Equal(t, StatusOverdue, l.Status)
		assert.Equal(t, int64(3*50), l.Fine)
		assert.True(t, l.IsOpen(), "overdue仍算在借")
	})

	t.Run("未到期不标记", func(t *testing.T) {
		l := newTestLoan(issuedAt)

		err := l.MarkOverdue(l.DueDate.Add(-time.Hour), testPolicy)
		assert.ErrorIs(t, err, ErrLoanNotOverdue)
		assert.Equal(t, StatusIssued, l.Status)
	})

	t.Run("已归还不标记", func(t *testing.T) {
		l := newTestLoan(issuedAt)
		require.NoError(t, l.Return(issuedAt.AddDate(0, 0, 20), testPolicy))

		err := l.MarkOverdue(issuedAt.AddDate(0, 0, 21), testPolicy)
		assert.ErrorIs(t, err, ErrLoanNotActive)
	})
}

func TestLoanPayFine(t *testing.T) {
	issuedAt := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	t.Run("缴纳罚金", func(t *testing.T) {
		l := newTestLoan(issuedAt)
		require.NoError(t, l.Return(issuedAt.AddDate(0, 0, 20), testPolicy))
		require.Positive(t, l.Fine)

		paidAt := issuedAt.AddDate(0, 0, 21)
		require.NoError(t, l.PayFine(paidAt))
		assert.True(t, l.FinePaid)
		require.NotNil(t, l.FinePaidAt)
		assert.Equal(t, paidAt, *l.FinePaidAt)
	})

	t.Run("无罚金不可缴纳", func(t *testing.T) {
		l := newTestLoan(issuedAt)
		require.NoError(t, l.Return(issuedAt.AddDate(0, 0, 10), testPolicy))

		assert.ErrorIs(t, l.PayFine(time.Now()), ErrNoOutstandingFine)
	})

	t.Run("重复缴纳被拒绝", func(t *testing.T) {
		l := newTestLoan(issuedAt)
		require.NoError(t, l.Return(issuedAt.AddDate(0, 0, 20), testPolicy))
		require.NoError(t, l.PayFine(time.Now()))

		assert.ErrorIs(t, l.PayFine(time.Now()), ErrNoOutstandingFine)
	})
}

func TestComputeFine(t *testing.T) {
	issuedAt := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	l := newTestLoan(issuedAt)

	tests := []struct {
		name string
		asOf time.Time
		want int64
	}{
		{"到期日当天为0", l.DueDate, 0},
		{"到期前为0", l.DueDate.Add(-24 * time.Hour), 0},
		{"过期1小时算1天", l.DueDate.Add(time.Hour), 50},
		{"恰好1天算1天", l.DueDate.Add(24 * time.Hour), 50},
		{"1天零1分钟算2天", l.DueDate.Add(24*time.Hour + time.Minute), 100},
		{"5天算5天", l.DueDate.Add(5 * 24 * time.Hour), 250},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, l.ComputeFine(tt.asOf, testPolicy))
		})
	}
}
