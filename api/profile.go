package api

import (
	"errors"
	"time"

	"envelope/database"
	"envelope/middleware"
	"envelope/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileHandler 用户资料处理器
type ProfileHandler struct{}

func NewProfileHandler() *ProfileHandler {
	return &ProfileHandler{}
}

type UpdateProfileRequest struct {
	FullName  string `json:"full_name" binding:"max=100" example:"张三"`
	AvatarURL string `json:"avatar_url" binding:"omitempty,url,max=255" example:"https://example.com/a.png"`
}

// Get 获取当前用户资料
// @Summary 获取用户资料
// @Tags 用户
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=models.Profile} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/profile [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var p models.Profile
	err := database.DB.Where("id = ?", userID).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 尚未填写资料
		Success(c, models.Profile{ID: userID})
		return
	}
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "获取资料失败"))
		return
	}
	Success(c, p)
}

// Update 更新当前用户资料
// @Summary 更新用户资料
// @Tags 用户
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateProfileRequest true "资料"
// @Success 200 {object} Response{data=models.Profile} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/profile [put]
func (h *ProfileHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	p := models.Profile{ID: userID, FullName: req.FullName, AvatarURL: req.AvatarURL, UpdatedAt: time.Now()}
	err := database.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"full_name", "avatar_url", "updated_at"}),
	}).Create(&p).Error
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "更新资料失败"))
		return
	}
	SuccessWithMessage(c, "更新成功", p)
}
