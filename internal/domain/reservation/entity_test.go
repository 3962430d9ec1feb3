package reservation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReservation(t *testing.T) {
	reservedAt := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	r := NewReservation(1, 10, reservedAt)

	assert.Equal(t, StatusWaiting, r.Status)
	assert.Equal(t, reservedAt, r.ReservedAt)
	assert.Nil(t, r.ItemID, "waiting阶段不绑定副本")
	assert.Nil(t, r.NotifiedAt)
	assert.True(t, r.IsActive())
}

func TestReservationNotify(t *testing.T) {
	reservedAt := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)

	t.Run("队首通知绑定副本", func(t *testing.T) {
		r := NewReservation(1, 10, reservedAt)
		notifiedAt := reservedAt.Add(48 * time.Hour)

		require.NoError(t, r.Notify(100, notifiedAt))
		assert.Equal(t, StatusNotified, r.Status)
		require.NotNil(t, r.ItemID)
		assert.Equal(t, uint(100), *r.ItemID)
		require.NotNil(t, r.NotifiedAt)
		assert.Equal(t, notifiedAt, *r.NotifiedAt)
		assert.True(t, r.IsActive(), "notified仍占队列位置")
	})

	t.Run("重复通知被拒绝", func(t *testing.T) {
		r := NewReservation(1, 10, reservedAt)
		require.NoError(t, r.Notify(100, reservedAt.Add(time.Hour)))

		err := r.Notify(101, reservedAt.Add(2*time.Hour))
		assert.ErrorIs(t, err, ErrInvalidReservationState)
		assert.Equal(t, uint(100), *r.ItemID, "绑定副本不应被覆盖")
	})
}

func TestReservationFulfill(t *testing.T) {
	reservedAt := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)

	t.Run("notified取书借出", func(t *testing.T) {
		r := NewReservation(1, 10, reservedAt)
		require.NoError(t, r.Notify(100, reservedAt.Add(time.Hour)))

		require.NoError(t, r.Fulfill())
		assert.Equal(t, StatusFulfilled, r.Status)
		assert.False(t, r.IsActive())
	})

	t.Run("waiting不可直接取书", func(t *testing.T) {
		r := NewReservation(1, 10, reservedAt)
		assert.ErrorIs(t, r.Fulfill(), ErrInvalidReservationState)
	})

	t.Run("终态不可再取书", func(t *testing.T) {
		r := NewReservation(1, 10, reservedAt)
		require.NoError(t, r.Cancel())
		assert.ErrorIs(t, r.Fulfill(), ErrInvalidReservationState)
	})
}

func TestReservationCancel(t *testing.T) {
	reservedAt := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)

	t.Run("waiting可取消", func(t *testing.T) {
		r := NewReservation(1, 10, reservedAt)
		require.NoError(t, r.Cancel())
		assert.Equal(t, StatusCanceled, r.Status)
		assert.False(t, r.IsActive())
	})

	t.Run("notified可取消且保留绑定审计", func(t *testing.T) {
		r := NewReservation(1, 10, reservedAt)
		require.NoError(t, r.Notify(100, reservedAt.Add(time.Hour)))

		require.NoError(t, r.Cancel())
		assert.Equal(t, StatusCanceled, r.Status)
		require.NotNil(t, r.ItemID, "取消后保留曾绑定的副本用于审计")
		assert.Equal(t, uint(100), *r.ItemID)
	})

	t.Run("终态不可再取消", func(t *testing.T) {
		r := NewReservation(1, 10, reservedAt)
		require.NoError(t, r.Notify(100, reservedAt.Add(time.Hour)))
		require.NoError(t, r.Fulfill())

		assert.ErrorIs(t, r.Cancel(), ErrInvalidReservationState)
	})
}

func TestReservationIsOwnedBy(t *testing.T) {
	r := NewReservation(7, 10, time.Now())
	assert.True(t, r.IsOwnedBy(7))
	assert.False(t, r.IsOwnedBy(8))
}

func TestStatusIsValid(t *testing.T) {
	for _, s := range []Status{StatusWaiting, StatusNotified, StatusFulfilled, StatusCanceled} {
		assert.True(t, s.IsValid(), string(s))
	}
	assert.False(t, Status("expired").IsValid())
}
