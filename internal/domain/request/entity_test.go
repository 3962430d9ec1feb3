package request

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBorrowRequest(t *testing.T) {
	requestedAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	itemID := uint(100)
	r := NewBorrowRequest(1, 10, &itemID, "想借最新版", requestedAt)

	assert.Equal(t, StatusPending, r.Status)
	assert.Equal(t, "想借最新版", r.MemberNote)
	require.NotNil(t, r.ItemID)
	assert.Equal(t, uint(100), *r.ItemID)
	assert.Nil(t, r.ProcessedBy)
	assert.Nil(t, r.ProcessedAt)
}

func TestBorrowRequestApprove(t *testing.T) {
	requestedAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("批准记录审批人与时间", func(t *testing.T) {
		r := NewBorrowRequest(1, 10, nil, "", requestedAt)
		processedAt := requestedAt.Add(time.Hour)

		require.NoError(t, r.Approve(99, "已为您留书", processedAt))
		assert.Equal(t, StatusApproved, r.Status)
		assert.Equal(t, "已为您留书", r.LibrarianNote)
		require.NotNil(t, r.ProcessedBy)
		assert.Equal(t, uint(99), *r.ProcessedBy)
		require.NotNil(t, r.ProcessedAt)
		assert.Equal(t, processedAt, *r.ProcessedAt)
	})

	t.Run("批准意见可为空", func(t *testing.T) {
		r := NewBorrowRequest(1, 10, nil, "", requestedAt)
		assert.NoError(t, r.Approve(99, "", requestedAt.Add(time.Hour)))
	})

	t.Run("非pending不可批准", func(t *testing.T) {
		r := NewBorrowRequest(1, 10, nil, "", requestedAt)
		require.NoError(t, r.Cancel())

		assert.ErrorIs(t, r.Approve(99, "", time.Now()), ErrRequestNotPending)
	})
}

func TestBorrowRequestReject(t *testing.T) {
	requestedAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("驳回必须给出理由", func(t *testing.T) {
		r := NewBorrowRequest(1, 10, nil, "", requestedAt)

		assert.ErrorIs(t, r.Reject(99, "", time.Now()), ErrRejectReasonRequired)
		assert.ErrorIs(t, r.Reject(99, "   ", time.Now()), ErrRejectReasonRequired, "空白理由同样无效")
		assert.Equal(t, StatusPending, r.Status)
	})

	t.Run("驳回记录理由", func(t *testing.T) {
		r := NewBorrowRequest(1, 10, nil, "", requestedAt)
		processedAt := requestedAt.Add(time.Hour)

		require.NoError(t, r.Reject(99, "该书仅供馆内阅览", processedAt))
		assert.Equal(t, StatusRejected, r.Status)
		assert.Equal(t, "该书仅供馆内阅览", r.LibrarianNote)
		require.NotNil(t, r.ProcessedBy)
		assert.Equal(t, uint(99), *r.ProcessedBy)
	})

	t.Run("已批准不可再驳回", func(t *testing.T) {
		r := NewBorrowRequest(1, 10, nil, "", requestedAt)
		require.NoError(t, r.Approve(99, "", requestedAt.Add(time.Hour)))

		assert.ErrorIs(t, r.Reject(99, "理由", time.Now()), ErrRequestNotPending)
	})
}

func TestBorrowRequestCancel(t *testing.T) {
	requestedAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("pending可撤回", func(t *testing.T) {
		r := NewBorrowRequest(1, 10, nil, "", requestedAt)
		require.NoError(t, r.Cancel())
		assert.Equal(t, StatusCancelled, r.Status)
	})

	t.Run("已处理不可撤回", func(t *testing.T) {
		r := NewBorrowRequest(1, 10, nil, "", requestedAt)
		require.NoError(t, r.Reject(99, "理由", requestedAt.Add(time.Hour)))

		assert.ErrorIs(t, r.Cancel(), ErrRequestNotPending)
	})
}

func TestRequestIsOwnedBy(t *testing.T) {
	r := NewBorrowRequest(7, 10, nil, "", time.Now())
	assert.True(t, r.IsOwnedBy(7))
	assert.False(t, r.IsOwnedBy(8))
}

func TestRequestStatusIsValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusApproved, StatusRejected, StatusCancelled} {
		assert.True(t, s.IsValid(), string(s))
	}
	assert.False(t, Status("waiting").IsValid())
}
