package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/libracirc/internal/domain/member"
	"github.com/xiebiao/libracirc/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/libracirc/pkg/jwt"
	"github.com/xiebiao/libracirc/pkg/response"
)

// AuthMiddleware JWT认证中间件
// 设计说明：
// 1. 从Header提取Token
// 2. 验证Token有效性
// 3. 检查Token黑名单
// 4. 将读者信息（含角色）注入Context
type AuthMiddleware struct {
	jwtManager   *jwt.Manager
	sessionStore *redis.SessionStore
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(jwtManager *jwt.Manager, sessionStore *redis.SessionStore) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager:   jwtManager,
		sessionStore: sessionStore,
	}
}

// RequireAuth 要求登录
// 使用方式：
//
//	authorized := r.Group("/api/v1")
//	authorized.Use(authMiddleware.RequireAuth())
//	authorized.GET("/members/me", handler.GetProfile)
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 从Header提取Token
		// 格式：Authorization: Bearer <token>
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.ErrorWithCode(c, 40100, "请先登录")
			c.Abort()
			return
		}

		// 2. 解析Token格式
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.ErrorWithCode(c, 40101, "Token格式错误")
			c.Abort()
			return
		}

		tokenString := parts[1]

		// 3. 检查Token是否在黑名单中（读者已登出或Token被强制失效）
		isBlacklisted, err := m.sessionStore.IsInBlacklist(c.Request.Context(), tokenString)
		if err != nil {
			response.ErrorWithCode(c, 50000, "验证Token失败")
			c.Abort()
			return
		}
		if isBlacklisted {
			response.ErrorWithCode(c, 40102, "Token已失效，请重新登录")
			c.Abort()
			return
		}

		// 4. 验证Token并解析Claims
		claims, err := m.jwtManager.ParseToken(tokenString)
		if err != nil {
			response.Error(c, err) // 自动处理ErrTokenExpired、ErrInvalidToken
			c.Abort()
			return
		}

		// 5. 将读者信息注入到Context（后续Handler可以使用）
		c.Set("member_id", claims.MemberID)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)
		c.Set("access_token", tokenString)

		// 6. 继续处理请求
		c.Next()
	}
}

// RequireLibrarian 要求馆员角色
// 必须挂在RequireAuth之后:
//
//	staff := r.Group("/api/v1", auth.RequireAuth(), auth.RequireLibrarian())
func (m *AuthMiddleware) RequireLibrarian() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) != string(member.RoleLibrarian) {
			response.ErrorWithCode(c, 40300, "需要馆员权限")
			c.Abort()
			return
		}
		c.Next()
	}
}

// =========================================
// Context辅助函数（供Handler使用）
// =========================================

// GetMemberID 从Context获取当前登录读者ID
// 使用示例：
//
//	memberID := middleware.GetMemberID(c)
//	if memberID == 0 {
//	    // 未登录
//	}
func GetMemberID(c *gin.Context) uint {
	if memberID, exists := c.Get("member_id"); exists {
		if id, ok := memberID.(uint); ok {
			return id
		}
	}
	return 0
}

// GetRole 从Context获取当前登录读者角色
func GetRole(c *gin.Context) string {
	if role, exists := c.Get("role"); exists {
		if r, ok := role.(string); ok {
			return r
		}
	}
	return ""
}

// IsLibrarian 当前登录读者是否为馆员
func IsLibrarian(c *gin.Context) bool {
	return GetRole(c) == string(member.RoleLibrarian)
}

// GetAccessToken 从Context获取当前请求的Access Token(登出时加黑名单用)
func GetAccessToken(c *gin.Context) string {
	if token, exists := c.Get("access_token"); exists {
		if t, ok := token.(string); ok {
			return t
		}
	}
	return ""
}

// MustGetMemberID 从Context获取读者ID（如果不存在则panic）
// 说明：用于已经通过RequireAuth中间件的Handler
func MustGetMemberID(c *gin.Context) uint {
	memberID := GetMemberID(c)
	if memberID == 0 {
		panic("member_id not found in context")
	}
	return memberID
}
