package api

import (
	"encoding/json"
	"errors"

	"envelope/config"
	"envelope/database"
	"envelope/ledger"
	"envelope/middleware"
	"envelope/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CategoryHandler 类别与分组处理器
type CategoryHandler struct {
	exponent int32
}

func NewCategoryHandler(cfg *config.LedgerConfig) *CategoryHandler {
	return &CategoryHandler{exponent: cfg.CurrencyExponent}
}

type CreateGroupRequest struct {
	Name string `json:"name" binding:"required,max=100" example:"日常开销"`
}

type CreateCategoryRequest struct {
	GroupID string `json:"group_id" binding:"required" example:"1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed"`
	Name    string `json:"name" binding:"required,max=100" example:"杂货"`
	// TargetAmount 建议目标，不限制支出
	TargetAmount *json.Number `json:"target_amount" swaggertype:"string" example:"2000000"`
}

// ListGroups 获取分组及其类别
// @Summary 获取类别分组
// @Tags 类别
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.CategoryGroup} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/category-groups [get]
func (h *CategoryHandler) ListGroups(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var groups []models.CategoryGroup
	err := database.DB.Where("user_id = ?", userID).
		Preload("Categories", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Order("position ASC").
		Find(&groups).Error
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "获取类别失败"))
		return
	}
	Success(c, groups)
}

// CreateGroup 创建分组，位置为创建顺序
// @Summary 创建类别分组
// @Tags 类别
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateGroupRequest true "分组信息"
// @Success 200 {object} Response{data=models.CategoryGroup} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/category-groups [post]
func (h *CategoryHandler) CreateGroup(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	var group models.CategoryGroup
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.CategoryGroup{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		group = models.CategoryGroup{UserID: userID, Name: req.Name, Position: int(count)}
		return tx.Create(&group).Error
	})
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "创建分组失败"))
		return
	}
	SuccessWithMessage(c, "创建成功", group)
}

// CreateCategory 在分组下创建类别
// @Summary 创建类别
// @Tags 类别
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCategoryRequest true "类别信息"
// @Success 200 {object} Response{data=models.Category} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "分组不存在"
// @Router /api/v1/categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	category := models.Category{UserID: userID, GroupID: req.GroupID, Name: req.Name}
	if req.TargetAmount != nil && *req.TargetAmount != "" {
		v, err := ledger.ParseAmount(req.TargetAmount.String(), h.exponent)
		if err != nil {
			LedgerError(c, err, "目标金额无效")
			return
		}
		category.TargetAmount = &v
	}

	var group models.CategoryGroup
	err := database.DB.Where("id = ? AND user_id = ?", req.GroupID, userID).Take(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		NotFound(c, "分组不存在")
		return
	}
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询分组失败"))
		return
	}

	if err := database.DB.Create(&category).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建类别失败"))
		return
	}
	SuccessWithMessage(c, "创建成功", category)
}
