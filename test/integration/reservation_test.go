package integration

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reserveTitle 发起预约并返回预约数据
func reserveTitle(t *testing.T, token string, titleID uint) ReservationData {
	resp := PostJSON(t, BaseURL+"/reservations", map[string]uint{"title_id": titleID}, token)
	require.Equal(t, 0, resp.Code, "预约失败: %s", resp.Message)

	var data ReservationData
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	return data
}

// TestReservationQueue 测试预约队列完整流程
//
// 场景：单副本书目被借走后两人先后预约，
// 归还时副本绕过书架直达队首，队首取书借出后队列前移
func TestReservationQueue(t *testing.T) {
	librarian := LibrarianToken(t)
	titleID := CreateTestTitle(t, librarian, "预约队列", 1)

	_, _, borrower := RegisterTestMember(t, "holder")
	_, firstID, first := RegisterTestMember(t, "queue1")
	_, _, second := RegisterTestMember(t, "queue2")

	// 1. 借空
	loan := CheckoutTestLoan(t, borrower, titleID)

	// 2. 两人先后预约
	r1 := reserveTitle(t, first, titleID)
	assert.Equal(t, "waiting", r1.Status)
	r2 := reserveTitle(t, second, titleID)
	assert.Equal(t, "waiting", r2.Status)
	t.Logf("✓ 队列就绪: 队首=%d, 第二位=%d", r1.ReservationID, r2.ReservationID)

	// 3. 归还:副本应直达队首而非归架
	returnResp := PostJSON(t, BaseURL+"/loans/"+itoa(loan.LoanID)+"/return", nil, borrower)
	require.Equal(t, 0, returnResp.Code, "归还失败: %s", returnResp.Message)

	titleResp := GetJSON(t, BaseURL+"/titles/"+itoa(titleID), "")
	var title TitleData
	require.NoError(t, json.Unmarshal(titleResp.Data, &title))
	assert.Equal(t, 0, title.AvailableCopies, "副本已绑定预约，walk-in看不到")

	// 4. 队首预约流转为notified
	listResp := GetJSON(t, BaseURL+"/reservations?status=notified", first)
	require.Equal(t, 0, listResp.Code)
	var page PageData
	require.NoError(t, json.Unmarshal(listResp.Data, &page))
	var notified []ReservationData
	require.NoError(t, json.Unmarshal(page.List, &notified))
	require.Len(t, notified, 1, "队首应收到到书通知")
	assert.Equal(t, r1.ReservationID, notified[0].ReservationID)
	require.NotNil(t, notified[0].ItemID, "通知携带绑定副本")
	t.Logf("✓ 队首已通知, 绑定副本=%d", *notified[0].ItemID)

	// 5. 队首取书借出
	fulfillResp := PostJSON(t, BaseURL+"/reservations/"+itoa(r1.ReservationID)+"/fulfill", nil, first)
	require.Equal(t, 0, fulfillResp.Code, "取书失败: %s", fulfillResp.Message)

	var fulfilled struct {
		Reservation ReservationData `json:"reservation"`
		LoanID      uint            `json:"loan_id"`
	}
	require.NoError(t, json.Unmarshal(fulfillResp.Data, &fulfilled))
	assert.Equal(t, "fulfilled", fulfilled.Reservation.Status)
	assert.Positive(t, fulfilled.LoanID)

	// 6. 新借阅属于队首读者
	loansResp := GetJSON(t, BaseURL+"/loans?status=issued", first)
	require.Equal(t, 0, loansResp.Code)
	var loansPage PageData
	require.NoError(t, json.Unmarshal(loansResp.Data, &loansPage))
	var loans []LoanData
	require.NoError(t, json.Unmarshal(loansPage.List, &loans))
	require.Len(t, loans, 1)
	assert.Equal(t, firstID, loans[0].MemberID)

	t.Log("✅ 预约队列流程测试通过")
}

// TestReservationRules 测试预约的业务约束
func TestReservationRules(t *testing.T) {
	librarian := LibrarianToken(t)

	t.Run("重复预约被拒绝", func(t *testing.T) {
		titleID := CreateTestTitle(t, librarian, "重复预约", 1)
		_, _, token := RegisterTestMember(t, "dupres")

		reserveTitle(t, token, titleID)

		resp := PostJSON(t, BaseURL+"/reservations", map[string]uint{"title_id": titleID}, token)
		assert.Equal(t, 40009, resp.Code, "期望重复预约错误码")

		t.Log("✓ 重复预约被正确拒绝")
	})

	t.Run("取消waiting预约", func(t *testing.T) {
		titleID := CreateTestTitle(t, librarian, "取消预约", 1)
		_, _, token := RegisterTestMember(t, "canceler")

		r := reserveTitle(t, token, titleID)

		resp := DeleteJSON(t, BaseURL+"/reservations/"+itoa(r.ReservationID), token)
		require.Equal(t, 0, resp.Code, "取消失败: %s", resp.Message)

		var canceled ReservationData
		require.NoError(t, json.Unmarshal(resp.Data, &canceled))
		assert.Equal(t, "canceled", canceled.Status)

		t.Log("✓ 预约取消成功")
	})

	t.Run("不能取消他人预约", func(t *testing.T) {
		titleID := CreateTestTitle(t, librarian, "预约权属", 1)
		_, _, owner := RegisterTestMember(t, "resowner")
		_, _, other := RegisterTestMember(t, "resother")

		r := reserveTitle(t, owner, titleID)

		resp := DeleteJSON(t, BaseURL+"/reservations/"+itoa(r.ReservationID), other)
		assert.NotEqual(t, 0, resp.Code, "他人不应能取消")

		t.Log("✓ 越权取消被拒绝")
	})
}

// TestNotifiedCancelCascade 测试取消已通知预约后的队列级联
//
// 场景：队首已收到到书通知但取消了，绑定的副本应立即转给下一位
func TestNotifiedCancelCascade(t *testing.T) {
	librarian := LibrarianToken(t)
	titleID := CreateTestTitle(t, librarian, "级联换绑", 1)

	_, _, borrower := RegisterTestMember(t, "cholder")
	_, _, first := RegisterTestMember(t, "cq1")
	_, secondID, second := RegisterTestMember(t, "cq2")

	loan := CheckoutTestLoan(t, borrower, titleID)
	r1 := reserveTitle(t, first, titleID)
	r2 := reserveTitle(t, second, titleID)

	// 归还:队首r1进入notified
	returnResp := PostJSON(t, BaseURL+"/loans/"+itoa(loan.LoanID)+"/return", nil, borrower)
	require.Equal(t, 0, returnResp.Code)

	// 队首取消:副本应原地换绑给r2
	cancelResp := DeleteJSON(t, BaseURL+"/reservations/"+itoa(r1.ReservationID), first)
	require.Equal(t, 0, cancelResp.Code, "取消失败: %s", cancelResp.Message)

	listResp := GetJSON(t, BaseURL+"/reservations?status=notified", second)
	require.Equal(t, 0, listResp.Code)
	var page PageData
	require.NoError(t, json.Unmarshal(listResp.Data, &page))
	var notified []ReservationData
	require.NoError(t, json.Unmarshal(page.List, &notified))
	require.Len(t, notified, 1, "下一位应收到到书通知")
	assert.Equal(t, r2.ReservationID, notified[0].ReservationID)
	assert.Equal(t, secondID, notified[0].MemberID)

	// 可借数仍为0（副本始终被队列占用）
	titleResp := GetJSON(t, BaseURL+"/titles/"+itoa(titleID), "")
	var title TitleData
	require.NoError(t, json.Unmarshal(titleResp.Data, &title))
	assert.Equal(t, 0, title.AvailableCopies)

	t.Log("✅ 取消通知预约的级联换绑测试通过")
}

// TestConcurrentReserve 并发测试：同一读者重复预约的争用
//
// 教学说明：
// 重复预约校验是"先查后插",没有行锁时两个并发请求会双双
// 通过校验各插一条;预约入口先锁读者行将其串行化,
// 有且只有一个请求成功
func TestConcurrentReserve(t *testing.T) {
	librarian := LibrarianToken(t)
	titleID := CreateTestTitle(t, librarian, "重复预约争用", 1)
	_, _, token := RegisterTestMember(t, "dupracer")

	const concurrency = 5
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			resp := PostJSON(t, BaseURL+"/reservations", map[string]uint{"title_id": titleID}, token)

			mu.Lock()
			defer mu.Unlock()
			switch resp.Code {
			case 0:
				succeeded++
			case 40009:
				rejected++
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, 1, succeeded, "有且只有一个预约入队")
	assert.Equal(t, concurrency-1, rejected, "其余请求应报重复预约")

	// 队列中只有一条活跃预约
	listResp := GetJSON(t, BaseURL+"/reservations?status=waiting", token)
	require.Equal(t, 0, listResp.Code)
	var page PageData
	require.NoError(t, json.Unmarshal(listResp.Data, &page))
	var waiting []ReservationData
	require.NoError(t, json.Unmarshal(page.List, &waiting))
	assert.Len(t, waiting, 1, "并发预约不应产生重复排队")

	t.Logf("✅ 并发预约测试通过: 成功=%d, 拒绝=%d", succeeded, rejected)
}

// TestRemoveBoundItem 绑定预约的副本不允许下架
//
// 场景：归还级联把副本绑定给了队首预约,馆员此时下架会把
// 已通知的读者悬空,必须先取消预约释放副本
func TestRemoveBoundItem(t *testing.T) {
	librarian := LibrarianToken(t)
	titleID := CreateTestTitle(t, librarian, "下架护栏", 1)

	_, _, borrower := RegisterTestMember(t, "rholder")
	_, _, first := RegisterTestMember(t, "rq1")

	loan := CheckoutTestLoan(t, borrower, titleID)
	r1 := reserveTitle(t, first, titleID)

	// 归还:副本绑定队首预约
	returnResp := PostJSON(t, BaseURL+"/loans/"+itoa(loan.LoanID)+"/return", nil, borrower)
	require.Equal(t, 0, returnResp.Code)

	listResp := GetJSON(t, BaseURL+"/reservations?status=notified", first)
	require.Equal(t, 0, listResp.Code)
	var page PageData
	require.NoError(t, json.Unmarshal(listResp.Data, &page))
	var notified []ReservationData
	require.NoError(t, json.Unmarshal(page.List, &notified))
	require.Len(t, notified, 1)
	require.NotNil(t, notified[0].ItemID)

	// 绑定中的副本下架被拒绝
	removeResp := DeleteJSON(t, BaseURL+"/items/"+itoa(*notified[0].ItemID), librarian)
	assert.Equal(t, 40003, removeResp.Code, "绑定预约的副本应报在用")

	// 取消预约释放后才可下架
	cancelResp := DeleteJSON(t, BaseURL+"/reservations/"+itoa(r1.ReservationID), first)
	require.Equal(t, 0, cancelResp.Code)

	removeResp = DeleteJSON(t, BaseURL+"/items/"+itoa(*notified[0].ItemID), librarian)
	require.Equal(t, 0, removeResp.Code, "释放后的副本应可下架: %s", removeResp.Message)

	t.Log("✅ 绑定副本下架护栏测试通过")
}
