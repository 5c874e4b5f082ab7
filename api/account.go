package api

import (
	"encoding/json"

	"envelope/config"
	"envelope/database"
	"envelope/ledger"
	"envelope/middleware"
	"envelope/models"

	"github.com/gin-gonic/gin"
)

// AccountHandler 账户处理器
type AccountHandler struct {
	exponent int32
}

func NewAccountHandler(cfg *config.LedgerConfig) *AccountHandler {
	return &AccountHandler{exponent: cfg.CurrencyExponent}
}

type CreateAccountRequest struct {
	Name string `json:"name" binding:"required,max=100" example:"现金"`
	Type string `json:"type" binding:"required" example:"cash"`
	// Balance 初始余额，十进制金额
	Balance json.Number `json:"balance" swaggertype:"string" example:"1000000"`
}

// List 获取账户列表
// @Summary 获取账户列表
// @Tags 账户
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Account} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/accounts [get]
func (h *AccountHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var accounts []models.Account
	if err := database.DB.Where("user_id = ?", userID).Order("created_at ASC").Find(&accounts).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "获取账户失败"))
		return
	}
	Success(c, accounts)
}

// Create 创建账户
// @Summary 创建账户
// @Description 创建账户并设置初始余额，之后余额只随交易变化
// @Tags 账户
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateAccountRequest true "账户信息"
// @Success 200 {object} Response{data=models.Account} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/accounts [post]
func (h *AccountHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	if !models.IsValidAccountType(req.Type) {
		BadRequest(c, "无效的账户类型")
		return
	}

	var balance int64
	if req.Balance != "" {
		v, err := ledger.ParseAmount(req.Balance.String(), h.exponent)
		if err != nil {
			LedgerError(c, err, "金额无效")
			return
		}
		balance = v
	}

	account := models.Account{
		UserID:          userID,
		Name:            req.Name,
		Type:            req.Type,
		Balance:         balance,
		StartingBalance: balance,
	}
	if err := database.DB.Create(&account).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建账户失败"))
		return
	}
	SuccessWithMessage(c, "创建成功", account)
}
