package circulation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/libracirc/internal/domain/catalog"
	"github.com/xiebiao/libracirc/internal/domain/reservation"
	"github.com/xiebiao/libracirc/pkg/clock"
)

// routerFixture 路由测试夹具
type routerFixture struct {
	titles       *fakeTitleRepo
	items        *fakeItemRepo
	reservations *fakeReservationRepo
	clk          *clock.Fixed
	router       *Router
}

func newRouterFixture() *routerFixture {
	f := &routerFixture{
		titles:       newFakeTitleRepo(),
		items:        newFakeItemRepo(),
		reservations: newFakeReservationRepo(),
		clk:          clock.NewFixed(time.Date(2025, 4, 10, 14, 0, 0, 0, time.UTC)),
	}
	f.router = NewRouter(f.titles, f.items, f.reservations, f.clk)
	return f
}

// seedBorrowed 造一个书目和一本borrowed副本(归还场景起点)
func (f *routerFixture) seedBorrowed() (*catalog.Title, *catalog.Item) {
	title := f.titles.add(&catalog.Title{
		Title:           "代码大全",
		TotalCopies:     1,
		AvailableCopies: 0,
	})
	item := f.items.add(&catalog.Item{
		TitleID: title.ID,
		Barcode: "BC-0001",
		Status:  catalog.ItemStatusBorrowed,
	})
	return title, item
}

func (f *routerFixture) seedWaiting(memberID, titleID uint, reservedAt time.Time) *reservation.Reservation {
	r := reservation.NewReservation(memberID, titleID, reservedAt)
	_ = f.reservations.Create(context.Background(), r)
	return r
}

func TestRouterRouteFreedItem(t *testing.T) {
	ctx := context.Background()

	t.Run("无人排队副本归架", func(t *testing.T) {
		f := newRouterFixture()
		title, item := f.seedBorrowed()

		notified, err := f.router.RouteFreedItem(ctx, item, catalog.ItemStatusBorrowed)
		require.NoError(t, err)

		assert.Nil(t, notified)
		assert.Equal(t, catalog.ItemStatusAvailable, item.Status)
		assert.Equal(t, 1, title.AvailableCopies, "归架后可借数+1")
	})

	t.Run("有人排队副本绑定队首", func(t *testing.T) {
		f := newRouterFixture()
		title, item := f.seedBorrowed()
		head := f.seedWaiting(7, title.ID, f.clk.Now().Add(-time.Hour))

		notified, err := f.router.RouteFreedItem(ctx, item, catalog.ItemStatusBorrowed)
		require.NoError(t, err)

		require.NotNil(t, notified)
		assert.Equal(t, head.ID, notified.ID)
		assert.Equal(t, reservation.StatusNotified, notified.Status)
		require.NotNil(t, notified.ItemID)
		assert.Equal(t, item.ID, *notified.ItemID)
		assert.Equal(t, catalog.ItemStatusReserved, item.Status, "副本绕过书架直达预约")
		assert.Equal(t, 0, title.AvailableCopies, "walk-in读者看不到这本书")
	})

	t.Run("队列按预约时间先进先出", func(t *testing.T) {
		f := newRouterFixture()
		title, item := f.seedBorrowed()
		base := f.clk.Now()
		f.seedWaiting(2, title.ID, base.Add(-time.Hour))
		first := f.seedWaiting(1, title.ID, base.Add(-3*time.Hour)) // 最早到
		f.seedWaiting(3, title.ID, base.Add(-30*time.Minute))

		notified, err := f.router.RouteFreedItem(ctx, item, catalog.ItemStatusBorrowed)
		require.NoError(t, err)

		require.NotNil(t, notified)
		assert.Equal(t, first.ID, notified.ID, "最早预约者优先")
		assert.Equal(t, uint(1), notified.MemberID)
	})

	t.Run("同刻预约按创建顺序裁决", func(t *testing.T) {
		f := newRouterFixture()
		title, item := f.seedBorrowed()
		at := f.clk.Now().Add(-time.Hour)
		first := f.seedWaiting(1, title.ID, at)
		f.seedWaiting(2, title.ID, at)

		notified, err := f.router.RouteFreedItem(ctx, item, catalog.ItemStatusBorrowed)
		require.NoError(t, err)
		assert.Equal(t, first.ID, notified.ID)
	})

	t.Run("notified预约不占队首", func(t *testing.T) {
		f := newRouterFixture()
		title, item := f.seedBorrowed()
		earlier := f.seedWaiting(1, title.ID, f.clk.Now().Add(-2*time.Hour))
		require.NoError(t, earlier.Notify(999, f.clk.Now()))
		later := f.seedWaiting(2, title.ID, f.clk.Now().Add(-time.Hour))

		notified, err := f.router.RouteFreedItem(ctx, item, catalog.ItemStatusBorrowed)
		require.NoError(t, err)
		assert.Equal(t, later.ID, notified.ID, "已通知的预约不再排队")
	})

	t.Run("取消notified预约后副本转给下一位", func(t *testing.T) {
		// 预约取消路径:副本当前为reserved,队列里还有下一位
		f := newRouterFixture()
		title, item := f.seedBorrowed()
		item.Status = catalog.ItemStatusReserved
		next := f.seedWaiting(2, title.ID, f.clk.Now().Add(-time.Hour))

		notified, err := f.router.RouteFreedItem(ctx, item, catalog.ItemStatusReserved)
		require.NoError(t, err)

		require.NotNil(t, notified)
		assert.Equal(t, next.ID, notified.ID)
		assert.Equal(t, catalog.ItemStatusReserved, item.Status, "reserved→reserved原地换绑")
		assert.Equal(t, 0, title.AvailableCopies, "计数不变")
	})

	t.Run("取消notified预约且无人排队时释放副本", func(t *testing.T) {
		f := newRouterFixture()
		title, item := f.seedBorrowed()
		item.Status = catalog.ItemStatusReserved

		notified, err := f.router.RouteFreedItem(ctx, item, catalog.ItemStatusReserved)
		require.NoError(t, err)

		assert.Nil(t, notified)
		assert.Equal(t, catalog.ItemStatusAvailable, item.Status)
		assert.Equal(t, 1, title.AvailableCopies)
	})
}
