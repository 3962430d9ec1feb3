package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// 教学说明：测试辅助工具
// 这个文件包含集成测试的通用辅助函数，遵循DRY原则（Don't Repeat Yourself）
// 将重复的代码（HTTP请求、JSON解析、测试数据准备）封装成可复用的函数
//
// 运行前提：
// 1. 本地启动API服务（go run ./cmd/api）
// 2. 馆员相关测试需要服务以bootstrap_admin=LIBRACIRC_ADMIN_EMAIL启动，
//    该账号先注册后重启服务即被提权

const (
	// BaseURL API基础URL
	BaseURL = "http://localhost:8080/api/v1"
	// Timeout HTTP请求超时时间
	Timeout = 10 * time.Second
)

// seq 进程内唯一序号（同一秒内多次调用也不冲突）
var seq uint64

// Response 统一响应结构
type Response struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// MemberData 注册/个人信息响应数据
type MemberData struct {
	ID            uint   `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	MaxBorrow     int    `json:"max_borrow"`
	BorrowedCount int    `json:"borrowed_count"`
}

// LoginData 登录响应数据
type LoginData struct {
	Member       MemberData `json:"member"`
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresIn    int64      `json:"expires_in"`
}

// TitleData 书目响应数据
type TitleData struct {
	ID              uint     `json:"id"`
	Title           string   `json:"title"`
	Authors         []string `json:"authors"`
	ISBN            string   `json:"isbn"`
	TotalCopies     int      `json:"total_copies"`
	AvailableCopies int      `json:"available_copies"`
}

// ItemData 副本响应数据
type ItemData struct {
	ID      uint   `json:"id"`
	TitleID uint   `json:"title_id"`
	Barcode string `json:"barcode"`
	Status  string `json:"status"`
}

// LoanData 借阅记录响应数据
type LoanData struct {
	LoanID     uint   `json:"loan_id"`
	MemberID   uint   `json:"member_id"`
	TitleID    uint   `json:"title_id"`
	ItemID     uint   `json:"item_id"`
	IssueDate  string `json:"issue_date"`
	DueDate    string `json:"due_date"`
	ReturnDate string `json:"return_date"`
	Status     string `json:"status"`
	Fine       int64  `json:"fine"`
	FinePaid   bool   `json:"fine_paid"`
	RenewCount int    `json:"renew_count"`
}

// ReservationData 预约响应数据
type ReservationData struct {
	ReservationID uint   `json:"reservation_id"`
	MemberID      uint   `json:"member_id"`
	TitleID       uint   `json:"title_id"`
	ItemID        *uint  `json:"item_id"`
	Status        string `json:"status"`
}

// RequestData 借阅申请响应数据
type RequestData struct {
	RequestID uint   `json:"request_id"`
	MemberID  uint   `json:"member_id"`
	TitleID   uint   `json:"title_id"`
	Status    string `json:"status"`
}

// PageData 分页响应数据
type PageData struct {
	List     json.RawMessage `json:"list"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// doJSON 发送携带JSON体的请求并解析响应
func doJSON(t *testing.T, method, url string, data interface{}, token string) *Response {
	var body io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		require.NoError(t, err, "JSON序列化失败")
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err, "创建HTTP请求失败")

	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: Timeout}
	resp, err := client.Do(req)
	require.NoError(t, err, "发送HTTP请求失败")
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "读取响应体失败")

	var result Response
	err = json.Unmarshal(respBody, &result)
	require.NoError(t, err, "解析JSON响应失败: %s", string(respBody))

	return &result
}

// PostJSON 发送POST请求并解析JSON响应
//
// 教学说明：
// - 使用*testing.T参数，可以在失败时立即终止测试
// - 使用require包进行断言，失败会立即停止（不继续执行）
// - 返回*Response而非error，简化调用方代码
func PostJSON(t *testing.T, url string, data interface{}, token string) *Response {
	return doJSON(t, http.MethodPost, url, data, token)
}

// PutJSON 发送PUT请求并解析JSON响应
func PutJSON(t *testing.T, url string, data interface{}, token string) *Response {
	return doJSON(t, http.MethodPut, url, data, token)
}

// DeleteJSON 发送DELETE请求并解析JSON响应
func DeleteJSON(t *testing.T, url string, token string) *Response {
	return doJSON(t, http.MethodDelete, url, nil, token)
}

// GetJSON 发送GET请求并解析JSON响应
func GetJSON(t *testing.T, url string, token string) *Response {
	return doJSON(t, http.MethodGet, url, nil, token)
}

// GenerateTestEmail 生成唯一的测试邮箱
func GenerateTestEmail(prefix string) string {
	return fmt.Sprintf("%s_%d_%d@test.com", prefix, time.Now().Unix(), atomic.AddUint64(&seq, 1))
}

// GenerateTestISBN 生成唯一的测试ISBN
//
// 教学说明：
// ISBN-13格式：978 + 10位数字
// 使用时间戳的后10位确保唯一性
func GenerateTestISBN() string {
	timestamp := time.Now().UnixNano()
	return fmt.Sprintf("978%010d", timestamp%10000000000)
}

// GenerateTestBarcode 生成唯一的测试条码
func GenerateTestBarcode() string {
	return fmt.Sprintf("BC-%d-%d", time.Now().UnixNano()%1000000000, atomic.AddUint64(&seq, 1))
}

// RegisterTestMember 注册测试读者并返回邮箱、ID与Token
//
// 教学说明：
// 这是一个"高阶"辅助函数，封装了注册+登录的完整流程
// 简化了测试代码，让测试更关注业务逻辑而非基础设施
func RegisterTestMember(t *testing.T, name string) (email string, memberID uint, token string) {
	// 1. 注册
	email = GenerateTestEmail(name)
	registerReq := map[string]string{
		"email":    email,
		"password": "Test1234",
		"name":     name,
	}

	registerResp := PostJSON(t, BaseURL+"/members/register", registerReq, "")
	require.Equal(t, 0, registerResp.Code, "注册失败: %s", registerResp.Message)

	var memberData MemberData
	err := json.Unmarshal(registerResp.Data, &memberData)
	require.NoError(t, err, "解析注册响应失败")

	// 2. 登录
	loginReq := map[string]string{
		"email":    email,
		"password": "Test1234",
	}

	loginResp := PostJSON(t, BaseURL+"/members/login", loginReq, "")
	require.Equal(t, 0, loginResp.Code, "登录失败: %s", loginResp.Message)

	var loginData LoginData
	err = json.Unmarshal(loginResp.Data, &loginData)
	require.NoError(t, err, "解析登录响应失败")

	return email, memberData.ID, loginData.AccessToken
}

// LibrarianToken 获取馆员Token
//
// 教学说明：
// 馆员账号通过服务的bootstrap_admin配置在启动时提权，
// 测试环境约定账号为LIBRACIRC_ADMIN_EMAIL（默认admin@test.com）。
// 账号不存在或未被提权时跳过依赖馆员权限的测试而非报错
func LibrarianToken(t *testing.T) string {
	email := os.Getenv("LIBRACIRC_ADMIN_EMAIL")
	if email == "" {
		email = "admin@test.com"
	}
	password := os.Getenv("LIBRACIRC_ADMIN_PASSWORD")
	if password == "" {
		password = "Admin1234"
	}

	loginResp := PostJSON(t, BaseURL+"/members/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	if loginResp.Code != 0 {
		t.Skipf("馆员账号不可用(%s)，跳过: %s", email, loginResp.Message)
	}

	var loginData LoginData
	err := json.Unmarshal(loginResp.Data, &loginData)
	require.NoError(t, err, "解析登录响应失败")

	if loginData.Member.Role != "librarian" {
		t.Skipf("账号%s未被提权为馆员，跳过", email)
	}

	return loginData.AccessToken
}

// CreateTestTitle 新建测试书目并挂载copies本副本，返回书目ID
func CreateTestTitle(t *testing.T, librarianToken string, title string, copies int) uint {
	titleReq := map[string]interface{}{
		"title":        title,
		"authors":      []string{"测试作者"},
		"isbn":         GenerateTestISBN(),
		"categories":   []string{"集成测试"},
		"published_at": "2024-01-01",
	}

	titleResp := PostJSON(t, BaseURL+"/titles", titleReq, librarianToken)
	require.Equal(t, 0, titleResp.Code, "新建书目失败: %s", titleResp.Message)

	var titleData TitleData
	err := json.Unmarshal(titleResp.Data, &titleData)
	require.NoError(t, err, "解析书目响应失败")

	for i := 0; i < copies; i++ {
		AddTestItem(t, librarianToken, titleData.ID)
	}

	return titleData.ID
}

// AddTestItem 给书目挂载一本副本，返回副本ID
func AddTestItem(t *testing.T, librarianToken string, titleID uint) uint {
	itemReq := map[string]string{
		"barcode":   GenerateTestBarcode(),
		"location":  "3F-A12",
		"condition": "九成新",
	}

	itemResp := PostJSON(t, fmt.Sprintf("%s/titles/%d/items", BaseURL, titleID), itemReq, librarianToken)
	require.Equal(t, 0, itemResp.Code, "挂载副本失败: %s", itemResp.Message)

	var itemData ItemData
	err := json.Unmarshal(itemResp.Data, &itemData)
	require.NoError(t, err, "解析副本响应失败")

	return itemData.ID
}

// itoa uint转十进制字符串（拼接URL用）
func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// CheckoutTestLoan 以指定读者借出书目，返回借阅记录
func CheckoutTestLoan(t *testing.T, token string, titleID uint) LoanData {
	resp := PostJSON(t, BaseURL+"/loans", map[string]uint{"title_id": titleID}, token)
	require.Equal(t, 0, resp.Code, "借出失败: %s", resp.Message)

	var loanData LoanData
	err := json.Unmarshal(resp.Data, &loanData)
	require.NoError(t, err, "解析借阅响应失败")

	return loanData
}
