package api

import (
	"encoding/json"
	"time"

	"envelope/config"
	"envelope/database"
	"envelope/ledger"
	"envelope/middleware"
	"envelope/models"

	"github.com/gin-gonic/gin"
)

// TransactionHandler 交易处理器
type TransactionHandler struct {
	ledger   *ledger.Ledger
	exponent int32
}

func NewTransactionHandler(l *ledger.Ledger, cfg *config.LedgerConfig) *TransactionHandler {
	return &TransactionHandler{ledger: l, exponent: cfg.CurrencyExponent}
}

type CreateTransactionRequest struct {
	Date       string      `json:"date" binding:"required" example:"2024-03-15"`
	Amount     json.Number `json:"amount" binding:"required" swaggertype:"string" example:"-50000"`
	AccountID  string      `json:"account_id" binding:"required" example:"1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed"`
	CategoryID *string     `json:"category_id" example:"6ec0bd7f-11c0-43da-975e-2a8ad9ebae0b"`
	Payee      string      `json:"payee" example:"超市"`
	Memo       string      `json:"memo" example:"周末采购"`
	Cleared    bool        `json:"cleared"`
	// IdempotencyKey 也可通过 Idempotency-Key 请求头传入
	IdempotencyKey string `json:"idempotency_key" example:"a3f1c9"`
}

type SetClearedRequest struct {
	Cleared *bool `json:"cleared" binding:"required"`
}

// Create 记录交易
// @Summary 记录交易
// @Description 写入交易并原子更新账户余额和类别月度活动。带相同幂等键的重试返回首次的交易 ID
// @Tags 交易
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "幂等键"
// @Param request body CreateTransactionRequest true "交易信息"
// @Success 200 {object} Response{data=ledger.Result} "记录成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "账户或类别不存在"
// @Failure 409 {object} Response "幂等键冲突"
// @Failure 500 {object} Response "部分生效，需要对账"
// @Router /api/v1/transactions [post]
func (h *TransactionHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		BadRequest(c, "日期格式错误，应为: 2006-01-02")
		return
	}
	amount, err := ledger.ParseAmount(req.Amount.String(), h.exponent)
	if err != nil {
		LedgerError(c, err, "金额无效")
		return
	}
	key := req.IdempotencyKey
	if key == "" {
		key = c.GetHeader("Idempotency-Key")
	}

	res, err := h.ledger.Recorder.Record(c.Request.Context(), userID, ledger.RecordInput{
		Date:           date,
		Amount:         amount,
		AccountID:      req.AccountID,
		CategoryID:     req.CategoryID,
		Payee:          req.Payee,
		Memo:           req.Memo,
		Cleared:        req.Cleared,
		IdempotencyKey: key,
	})
	if err != nil {
		LedgerError(c, err, "记录交易失败")
		return
	}
	if res.Replayed {
		SuccessWithMessage(c, "交易已存在", res)
		return
	}
	SuccessWithMessage(c, "记录成功", res)
}

// List 获取交易列表
// @Summary 获取交易列表
// @Description 按日期倒序分页，可按账户、类别、月份筛选
// @Tags 交易
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param account_id query string false "账户 ID"
// @Param category_id query string false "类别 ID"
// @Param month query string false "月份 (2024-03)"
// @Success 200 {object} Response{data=PageResponse{list=[]models.Transaction}} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	page, pageSize := parsePage(c)

	query := database.DB.Model(&models.Transaction{}).Where("user_id = ?", userID)
	if accountID := c.Query("account_id"); accountID != "" {
		query = query.Where("account_id = ?", accountID)
	}
	if categoryID := c.Query("category_id"); categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}
	if c.Query("month") != "" {
		m, ok := parseMonthQuery(c)
		if !ok {
			return
		}
		query = query.Where("date >= ? AND date < ?", m, ledger.NextMonth(m))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询交易失败"))
		return
	}
	var txns []models.Transaction
	err := query.Order("date DESC, created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&txns).Error
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询交易失败"))
		return
	}
	Success(c, PageResponse{Total: total, Page: page, PageSize: pageSize, List: txns})
}

// SetCleared 修改对账标记
// @Summary 修改对账标记
// @Description 只修改 cleared，不影响余额与可用额
// @Tags 交易
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "交易 ID"
// @Param request body SetClearedRequest true "对账标记"
// @Success 200 {object} Response "修改成功"
// @Failure 404 {object} Response "交易不存在"
// @Router /api/v1/transactions/{id}/cleared [patch]
func (h *TransactionHandler) SetCleared(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var req SetClearedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	if err := h.ledger.Recorder.SetCleared(c.Request.Context(), userID, c.Param("id"), *req.Cleared); err != nil {
		LedgerError(c, err, "修改对账标记失败")
		return
	}
	SuccessWithMessage(c, "修改成功", gin.H{"id": c.Param("id"), "cleared": *req.Cleared})
}
