package integration

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemberRegister 测试读者注册
func TestMemberRegister(t *testing.T) {
	t.Run("正常注册", func(t *testing.T) {
		email := GenerateTestEmail("reader")
		resp := PostJSON(t, BaseURL+"/members/register", map[string]string{
			"email":    email,
			"password": "Test1234",
			"name":     "测试读者",
		}, "")

		require.Equal(t, 0, resp.Code, "注册失败: %s", resp.Message)

		var data MemberData
		require.NoError(t, json.Unmarshal(resp.Data, &data))
		assert.Equal(t, email, data.Email)
		assert.Equal(t, "member", data.Role, "新读者默认为普通读者")
		assert.Positive(t, data.MaxBorrow, "新读者携带默认在借上限")

		t.Logf("✓ 注册成功: id=%d, max_borrow=%d", data.ID, data.MaxBorrow)
	})

	t.Run("重复邮箱被拒绝", func(t *testing.T) {
		email := GenerateTestEmail("dup")
		req := map[string]string{
			"email":    email,
			"password": "Test1234",
			"name":     "重复注册",
		}

		first := PostJSON(t, BaseURL+"/members/register", req, "")
		require.Equal(t, 0, first.Code)

		second := PostJSON(t, BaseURL+"/members/register", req, "")
		assert.Equal(t, 40012, second.Code, "期望邮箱重复错误码")

		t.Log("✓ 重复邮箱被正确拒绝")
	})

	t.Run("弱密码被拒绝", func(t *testing.T) {
		resp := PostJSON(t, BaseURL+"/members/register", map[string]string{
			"email":    GenerateTestEmail("weak"),
			"password": "12345678", // 纯数字
			"name":     "弱密码",
		}, "")

		assert.Equal(t, 40013, resp.Code, "期望密码强度错误码")

		t.Log("✓ 弱密码被正确拒绝")
	})
}

// TestMemberLogin 测试登录
func TestMemberLogin(t *testing.T) {
	email, _, _ := RegisterTestMember(t, "login")

	t.Run("密码错误", func(t *testing.T) {
		resp := PostJSON(t, BaseURL+"/members/login", map[string]string{
			"email":    email,
			"password": "Wrong1234",
		}, "")

		assert.NotEqual(t, 0, resp.Code, "错误密码不应登录成功")

		t.Log("✓ 错误密码被拒绝")
	})

	t.Run("登录后获取个人信息", func(t *testing.T) {
		loginResp := PostJSON(t, BaseURL+"/members/login", map[string]string{
			"email":    email,
			"password": "Test1234",
		}, "")
		require.Equal(t, 0, loginResp.Code, "登录失败: %s", loginResp.Message)

		var loginData LoginData
		require.NoError(t, json.Unmarshal(loginResp.Data, &loginData))
		require.NotEmpty(t, loginData.AccessToken)

		meResp := GetJSON(t, BaseURL+"/members/me", loginData.AccessToken)
		require.Equal(t, 0, meResp.Code, "获取个人信息失败: %s", meResp.Message)

		var me MemberData
		require.NoError(t, json.Unmarshal(meResp.Data, &me))
		assert.Equal(t, email, me.Email)

		t.Logf("✓ 个人信息: %s (%s)", me.Name, me.Role)
	})

	t.Run("刷新Token", func(t *testing.T) {
		loginResp := PostJSON(t, BaseURL+"/members/login", map[string]string{
			"email":    email,
			"password": "Test1234",
		}, "")
		require.Equal(t, 0, loginResp.Code)

		var loginData LoginData
		require.NoError(t, json.Unmarshal(loginResp.Data, &loginData))

		refreshResp := PostJSON(t, BaseURL+"/members/refresh", map[string]string{
			"refresh_token": loginData.RefreshToken,
		}, "")
		assert.Equal(t, 0, refreshResp.Code, "刷新Token失败: %s", refreshResp.Message)

		t.Log("✓ Token刷新成功")
	})
}

// TestMemberLogout 测试登出后Token失效
func TestMemberLogout(t *testing.T) {
	_, _, token := RegisterTestMember(t, "logout")

	logoutResp := PostJSON(t, BaseURL+"/members/logout", nil, token)
	require.Equal(t, 0, logoutResp.Code, "登出失败: %s", logoutResp.Message)

	// 登出后旧Token进入黑名单
	meResp := GetJSON(t, BaseURL+"/members/me", token)
	assert.NotEqual(t, 0, meResp.Code, "登出后的Token不应继续有效")

	t.Log("✅ 登出后Token已失效")
}

// TestMemberCancel 测试注销
func TestMemberCancel(t *testing.T) {
	t.Run("无在借图书可注销", func(t *testing.T) {
		_, memberID, token := RegisterTestMember(t, "cancel")

		resp := DeleteJSON(t, memberURL(memberID), token)
		require.Equal(t, 0, resp.Code, "注销失败: %s", resp.Message)

		// 注销后无法再登录借阅
		t.Log("✓ 注销成功")
	})

	t.Run("不能注销他人账号", func(t *testing.T) {
		_, otherID, _ := RegisterTestMember(t, "victim")
		_, _, token := RegisterTestMember(t, "attacker")

		resp := DeleteJSON(t, memberURL(otherID), token)
		assert.NotEqual(t, 0, resp.Code, "普通读者不应能注销他人")

		t.Log("✓ 越权注销被拒绝")
	})
}

func memberURL(id uint) string {
	return BaseURL + "/members/" + itoa(id)
}
