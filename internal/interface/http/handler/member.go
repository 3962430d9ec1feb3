package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	appmember "github.com/xiebiao/libracirc/internal/application/member"
	"github.com/xiebiao/libracirc/internal/interface/http/dto"
	"github.com/xiebiao/libracirc/internal/interface/http/middleware"
	"github.com/xiebiao/libracirc/pkg/response"
)

// MemberHandler 读者HTTP处理器
// 设计说明：
// 1. Handler只负责HTTP相关的事情：解析请求、调用应用层、返回响应
// 2. 不包含业务逻辑（业务逻辑在domain和application层）
// 3. 使用依赖注入，便于测试
type MemberHandler struct {
	registerUseCase *appmember.RegisterUseCase
	loginUseCase    *appmember.LoginUseCase
	logoutUseCase   *appmember.LogoutUseCase
	refreshUseCase  *appmember.RefreshTokenUseCase
	profileUseCase  *appmember.GetProfileUseCase
	promoteUseCase  *appmember.PromoteMemberUseCase
	cancelUseCase   *appmember.CancelMembershipUseCase
}

// NewMemberHandler 创建读者处理器
func NewMemberHandler(
	registerUseCase *appmember.RegisterUseCase,
	loginUseCase *appmember.LoginUseCase,
	logoutUseCase *appmember.LogoutUseCase,
	refreshUseCase *appmember.RefreshTokenUseCase,
	profileUseCase *appmember.GetProfileUseCase,
	promoteUseCase *appmember.PromoteMemberUseCase,
	cancelUseCase *appmember.CancelMembershipUseCase,
) *MemberHandler {
	return &MemberHandler{
		registerUseCase: registerUseCase,
		loginUseCase:    loginUseCase,
		logoutUseCase:   logoutUseCase,
		refreshUseCase:  refreshUseCase,
		profileUseCase:  profileUseCase,
		promoteUseCase:  promoteUseCase,
		cancelUseCase:   cancelUseCase,
	}
}

// Register 读者注册
// @Summary      读者注册
// @Description  创建新读者账号,借阅上限取系统默认值
// @Tags         读者
// @Accept       json
// @Produce      json
// @Param        request body dto.RegisterRequest true "注册信息"
// @Success      200 {object} response.Response{data=dto.MemberResponse} "注册成功"
// @Failure      400 {object} response.Response "参数错误"
// @Failure      409 {object} response.Response "邮箱已存在"
// @Router       /api/v1/members/register [post]
func (h *MemberHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	result, err := h.registerUseCase.Execute(c.Request.Context(), appmember.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &dto.MemberResponse{
		ID:        result.ID,
		Email:     result.Email,
		Name:      result.Name,
		Role:      result.Role,
		MaxBorrow: result.MaxBorrow,
	})
}

// Login 读者登录
// @Summary      读者登录
// @Description  验证邮箱密码，返回JWT Token
// @Tags         读者
// @Accept       json
// @Produce      json
// @Param        request body dto.LoginRequest true "登录信息"
// @Success      200 {object} response.Response{data=dto.LoginResponse} "登录成功"
// @Failure      400 {object} response.Response "参数错误"
// @Failure      401 {object} response.Response "邮箱或密码错误"
// @Router       /api/v1/members/login [post]
func (h *MemberHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	result, err := h.loginUseCase.Execute(c.Request.Context(), appmember.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &dto.LoginResponse{
		Member: dto.MemberResponse{
			ID:    result.Member.ID,
			Email: result.Member.Email,
			Name:  result.Member.Name,
			Role:  result.Member.Role,
		},
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresIn:    result.ExpiresIn,
	})
}

// Logout 读者登出
// @Summary      读者登出
// @Description  删除会话并将当前Token加入黑名单
// @Tags         读者
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response "登出成功"
// @Router       /api/v1/members/logout [post]
func (h *MemberHandler) Logout(c *gin.Context) {
	memberID := middleware.MustGetMemberID(c)
	token := middleware.GetAccessToken(c)

	if err := h.logoutUseCase.Execute(c.Request.Context(), memberID, token); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, nil)
}

// RefreshToken 刷新Access Token
// @Summary      刷新Token
// @Description  使用Refresh Token换取新的Access Token
// @Tags         读者
// @Accept       json
// @Produce      json
// @Param        request body dto.RefreshTokenRequest true "Refresh Token"
// @Success      200 {object} response.Response "刷新成功"
// @Failure      401 {object} response.Response "Token无效或已过期"
// @Router       /api/v1/members/refresh [post]
func (h *MemberHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	accessToken, err := h.refreshUseCase.Execute(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"access_token": accessToken})
}

// GetProfile 查询本人资料
// @Summary      查询本人资料
// @Tags         读者
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=dto.MemberResponse} "查询成功"
// @Router       /api/v1/members/me [get]
func (h *MemberHandler) GetProfile(c *gin.Context) {
	memberID := middleware.MustGetMemberID(c)

	result, err := h.profileUseCase.Execute(c.Request.Context(), memberID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &dto.MemberResponse{
		ID:            result.ID,
		Email:         result.Email,
		Name:          result.Name,
		Role:          result.Role,
		MaxBorrow:     result.MaxBorrow,
		BorrowedCount: result.BorrowedCount,
	})
}

// Promote 提升馆员
// @Summary      提升馆员
// @Description  将指定读者提升为馆员(仅馆员可操作)
// @Tags         读者
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "读者ID"
// @Success      200 {object} response.Response{data=dto.MemberResponse} "提升成功"
// @Failure      403 {object} response.Response "需要馆员权限"
// @Router       /api/v1/members/{id}/promote [post]
func (h *MemberHandler) Promote(c *gin.Context) {
	memberID, err := parseIDParam(c, "id")
	if err != nil {
		response.ErrorWithCode(c, 40900, "无效的读者ID")
		return
	}

	result, err := h.promoteUseCase.Execute(c.Request.Context(), memberID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &dto.MemberResponse{
		ID:    result.ID,
		Email: result.Email,
		Name:  result.Name,
		Role:  result.Role,
	})
}

// Cancel 注销账号
// @Summary      注销账号
// @Description  注销读者账号,有在借图书时拒绝;读者本人或馆员可操作
// @Tags         读者
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "读者ID"
// @Success      200 {object} response.Response "注销成功"
// @Failure      409 {object} response.Response "有在借图书"
// @Router       /api/v1/members/{id} [delete]
func (h *MemberHandler) Cancel(c *gin.Context) {
	memberID, err := parseIDParam(c, "id")
	if err != nil {
		response.ErrorWithCode(c, 40900, "无效的读者ID")
		return
	}

	err = h.cancelUseCase.Execute(c.Request.Context(), appmember.CancelMembershipRequest{
		MemberID:    memberID,
		ActorID:     middleware.MustGetMemberID(c),
		IsLibrarian: middleware.IsLibrarian(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, nil)
}

// parseIDParam 解析路径中的uint型ID参数
func parseIDParam(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, strconv.ErrSyntax
	}
	return uint(id), nil
}
