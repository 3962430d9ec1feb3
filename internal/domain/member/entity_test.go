package member

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMember(t *testing.T) {
	m := NewMember("reader@example.com", "$2a$10$hash", "张三", 5)

	assert.Equal(t, RoleMember, m.Role)
	assert.Equal(t, 5, m.MaxBorrow)
	assert.Zero(t, m.BorrowedCount)
	assert.False(t, m.IsLibrarian())
}

func TestMemberCanBorrow(t *testing.T) {
	t.Run("未达上限可借", func(t *testing.T) {
		m := NewMember("a@example.com", "hash", "读者A", 3)
		m.BorrowedCount = 2
		assert.True(t, m.CanBorrow())
	})

	t.Run("达到上限不可借", func(t *testing.T) {
		m := NewMember("a@example.com", "hash", "读者A", 3)
		m.BorrowedCount = 3
		assert.False(t, m.CanBorrow())
	})

	t.Run("馆员账号不可借", func(t *testing.T) {
		m := NewMember("a@example.com", "hash", "读者A", 3)
		require.NoError(t, m.Promote())
		assert.False(t, m.CanBorrow(), "馆员是管理身份,不参与借阅")
	})

	t.Run("已注销永远不可借", func(t *testing.T) {
		m := NewMember("a@example.com", "hash", "读者A", 3)
		require.NoError(t, m.Cancel())
		assert.False(t, m.CanBorrow())
	})
}

func TestMemberPromote(t *testing.T) {
	t.Run("普通读者提升为馆员", func(t *testing.T) {
		m := NewMember("a@example.com", "hash", "读者A", 3)
		require.NoError(t, m.Promote())
		assert.Equal(t, RoleLibrarian, m.Role)
		assert.True(t, m.IsLibrarian())
	})

	t.Run("重复提升幂等", func(t *testing.T) {
		m := NewMember("a@example.com", "hash", "读者A", 3)
		require.NoError(t, m.Promote())
		require.NoError(t, m.Promote())
		assert.Equal(t, RoleLibrarian, m.Role)
	})

	t.Run("已注销不可提升", func(t *testing.T) {
		m := NewMember("a@example.com", "hash", "读者A", 3)
		require.NoError(t, m.Cancel())
		assert.ErrorIs(t, m.Promote(), ErrMemberCancelled)
	})
}

func TestMemberCancel(t *testing.T) {
	t.Run("注销后清零上限", func(t *testing.T) {
		m := NewMember("a@example.com", "hash", "读者A", 3)

		require.NoError(t, m.Cancel())
		assert.Equal(t, RoleCancelled, m.Role)
		assert.Zero(t, m.MaxBorrow)
	})

	t.Run("有在借图书不可注销", func(t *testing.T) {
		m := NewMember("a@example.com", "hash", "读者A", 3)
		m.BorrowedCount = 1

		err := m.Cancel()
		assert.ErrorIs(t, err, ErrMemberHasOpenLoans)
		assert.Equal(t, RoleMember, m.Role, "注销失败不应改变角色")
	})
}

func TestRoleIsValid(t *testing.T) {
	for _, r := range []Role{RoleMember, RoleLibrarian, RoleCancelled} {
		assert.True(t, r.IsValid(), string(r))
	}
	assert.False(t, Role("admin").IsValid())
}
