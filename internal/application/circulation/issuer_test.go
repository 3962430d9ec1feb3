package circulation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/libracirc/internal/domain/catalog"
	"github.com/xiebiao/libracirc/internal/domain/loan"
	"github.com/xiebiao/libracirc/internal/domain/member"
	"github.com/xiebiao/libracirc/pkg/clock"
)

var issuerPolicy = loan.Policy{
	LoanPeriodDays: 15,
	MaxRenewals:    2,
	FinePerDay:     50,
}

// issuerFixture 借出测试夹具:内存仓储 + 固定时钟
type issuerFixture struct {
	members      *fakeMemberRepo
	titles       *fakeTitleRepo
	items        *fakeItemRepo
	loans        *fakeLoanRepo
	reservations *fakeReservationRepo
	clk          *clock.Fixed
	issuer       *Issuer
}

func newIssuerFixture() *issuerFixture {
	f := &issuerFixture{
		members:      newFakeMemberRepo(),
		titles:       newFakeTitleRepo(),
		items:        newFakeItemRepo(),
		loans:        newFakeLoanRepo(),
		reservations: newFakeReservationRepo(),
		clk:          clock.NewFixed(time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)),
	}
	f.issuer = NewIssuer(f.members, f.titles, f.items, f.loans, issuerPolicy, f.clk)
	return f
}

// seedTitle 造一个书目及n本在架副本
func (f *issuerFixture) seedTitle(copies int) (*catalog.Title, []*catalog.Item) {
	title := f.titles.add(&catalog.Title{
		Title:           "深入理解计算机系统",
		ISBN:            "9787111544937",
		TotalCopies:     copies,
		AvailableCopies: copies,
	})
	items := make([]*catalog.Item, 0, copies)
	for i := 0; i < copies; i++ {
		items = append(items, f.items.add(&catalog.Item{
			TitleID: title.ID,
			Barcode: "BC-000" + string(rune('1'+i)),
			Status:  catalog.ItemStatusAvailable,
		}))
	}
	return title, items
}

func (f *issuerFixture) seedMember(maxBorrow int) *member.Member {
	return f.members.add(&member.Member{
		Email:     "reader@example.com",
		Role:      member.RoleMember,
		MaxBorrow: maxBorrow,
	})
}

func TestIssuerIssue(t *testing.T) {
	ctx := context.Background()

	t.Run("自动选取条码最小的在架副本", func(t *testing.T) {
		f := newIssuerFixture()
		title, items := f.seedTitle(3)
		m := f.seedMember(5)

		l, err := f.issuer.Issue(ctx, m.ID, title.ID, nil)
		require.NoError(t, err)

		assert.Equal(t, items[0].ID, l.ItemID, "按条码最小规则选取")
		assert.Equal(t, loan.StatusIssued, l.Status)
		assert.Equal(t, f.clk.Now().AddDate(0, 0, 15), l.DueDate)
		assert.Equal(t, catalog.ItemStatusBorrowed, items[0].Status)
		assert.Equal(t, 2, title.AvailableCopies, "可借数-1")
		assert.Equal(t, 3, title.TotalCopies, "总数不变")
		assert.Equal(t, 1, m.BorrowedCount)
	})

	t.Run("指定副本借出", func(t *testing.T) {
		f := newIssuerFixture()
		title, items := f.seedTitle(3)
		m := f.seedMember(5)

		l, err := f.issuer.Issue(ctx, m.ID, title.ID, &items[2].ID)
		require.NoError(t, err)
		assert.Equal(t, items[2].ID, l.ItemID)
		assert.Equal(t, catalog.ItemStatusBorrowed, items[2].Status)
	})

	t.Run("指定副本不可借时不回退自动选取", func(t *testing.T) {
		f := newIssuerFixture()
		title, items := f.seedTitle(2)
		m := f.seedMember(5)
		items[0].Status = catalog.ItemStatusMaintenance

		_, err := f.issuer.Issue(ctx, m.ID, title.ID, &items[0].ID)
		assert.ErrorIs(t, err, catalog.ErrItemNotAvailable)
		assert.Equal(t, catalog.ItemStatusAvailable, items[1].Status, "另一本不应被借走")
	})

	t.Run("指定副本不属于该书目", func(t *testing.T) {
		f := newIssuerFixture()
		title, _ := f.seedTitle(1)
		other, otherItems := f.seedTitle(1)
		_ = other
		m := f.seedMember(5)

		_, err := f.issuer.Issue(ctx, m.ID, title.ID, &otherItems[0].ID)
		assert.ErrorIs(t, err, catalog.ErrItemNotAvailable)
	})

	t.Run("无可借副本", func(t *testing.T) {
		f := newIssuerFixture()
		title, items := f.seedTitle(1)
		m := f.seedMember(5)
		items[0].Status = catalog.ItemStatusBorrowed
		title.AvailableCopies = 0

		_, err := f.issuer.Issue(ctx, m.ID, title.ID, nil)
		assert.ErrorIs(t, err, catalog.ErrNoItemsAvailable)
	})

	t.Run("达到在借上限被拒绝", func(t *testing.T) {
		f := newIssuerFixture()
		title, items := f.seedTitle(2)
		m := f.seedMember(1)

		_, err := f.issuer.Issue(ctx, m.ID, title.ID, nil)
		require.NoError(t, err)

		_, err = f.issuer.Issue(ctx, m.ID, title.ID, nil)
		assert.ErrorIs(t, err, member.ErrBorrowLimitExceeded)
		assert.Equal(t, 1, m.BorrowedCount)
		assert.Equal(t, catalog.ItemStatusAvailable, items[1].Status, "失败的借出不应流转副本")
	})

	t.Run("已注销读者不可借", func(t *testing.T) {
		f := newIssuerFixture()
		title, _ := f.seedTitle(1)
		m := f.seedMember(5)
		require.NoError(t, m.Cancel())

		_, err := f.issuer.Issue(ctx, m.ID, title.ID, nil)
		assert.ErrorIs(t, err, member.ErrRoleCannotBorrow)
	})

	t.Run("馆员账号不可借", func(t *testing.T) {
		f := newIssuerFixture()
		title, items := f.seedTitle(1)
		m := f.seedMember(5)
		require.NoError(t, m.Promote())

		_, err := f.issuer.Issue(ctx, m.ID, title.ID, nil)
		assert.ErrorIs(t, err, member.ErrRoleCannotBorrow)
		assert.Equal(t, catalog.ItemStatusAvailable, items[0].Status, "失败的借出不应流转副本")
	})
}

func TestIssuerIssueBound(t *testing.T) {
	ctx := context.Background()

	t.Run("取书借出不动可借计数", func(t *testing.T) {
		f := newIssuerFixture()
		title, items := f.seedTitle(1)
		m := f.seedMember(5)
		// 副本此前已在归还级联中绑定预约并扣减计数
		items[0].Status = catalog.ItemStatusReserved
		title.AvailableCopies = 0

		l, err := f.issuer.IssueBound(ctx, m.ID, items[0].ID)
		require.NoError(t, err)

		assert.Equal(t, items[0].ID, l.ItemID)
		assert.Equal(t, catalog.ItemStatusBorrowed, items[0].Status)
		assert.Equal(t, 0, title.AvailableCopies, "reserved→borrowed不再扣减")
		assert.Equal(t, 1, m.BorrowedCount)
	})

	t.Run("非reserved副本不可走取书路径", func(t *testing.T) {
		f := newIssuerFixture()
		_, items := f.seedTitle(1)
		m := f.seedMember(5)

		_, err := f.issuer.IssueBound(ctx, m.ID, items[0].ID)
		assert.ErrorIs(t, err, catalog.ErrItemNotAvailable)
	})
}
