package api

import (
	"encoding/json"

	"envelope/config"
	"envelope/ledger"
	"envelope/middleware"

	"github.com/gin-gonic/gin"
)

// BudgetHandler 月度预算处理器
type BudgetHandler struct {
	ledger   *ledger.Ledger
	exponent int32
}

func NewBudgetHandler(l *ledger.Ledger, cfg *config.LedgerConfig) *BudgetHandler {
	return &BudgetHandler{ledger: l, exponent: cfg.CurrencyExponent}
}

type SetAssignedRequest struct {
	Assigned json.Number `json:"assigned" binding:"required" swaggertype:"string" example:"100000"`
}

// MonthView 月度预算视图
type MonthView struct {
	Month      string                 `json:"month"`
	Summary    *ledger.Summary        `json:"summary"`
	Categories []ledger.CategoryMonth `json:"categories"`
}

// Month 获取某月全部类别的预算与可分配资金
// @Summary 获取月度预算
// @Description 没有预算行的类别返回结转值（virtual=true），查询不会创建行
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Param month query string false "月份 (2024-03)，默认当前月"
// @Success 200 {object} Response{data=MonthView} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/budgets [get]
func (h *BudgetHandler) Month(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	m, ok := parseMonthQuery(c)
	if !ok {
		return
	}

	categories, err := h.ledger.Engine.MonthBudgets(c.Request.Context(), userID, m)
	if err != nil {
		LedgerError(c, err, "获取预算失败")
		return
	}
	summary, err := h.ledger.Calculator.ReadyToAssign(c.Request.Context(), userID, m)
	if err != nil {
		LedgerError(c, err, "计算可分配资金失败")
		return
	}
	Success(c, MonthView{Month: ledger.FormatMonth(m), Summary: summary, Categories: categories})
}

// SetAssigned 设置类别某月的分配金额
// @Summary 设置分配金额
// @Description 覆盖 assigned，可用额按差值调整并结转到之后已存在的月份
// @Tags 预算
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param categoryId path string true "类别 ID"
// @Param month path string true "月份 (2024-03)"
// @Param request body SetAssignedRequest true "分配金额"
// @Success 200 {object} Response{data=models.Budget} "设置成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "类别不存在"
// @Failure 409 {object} Response "并发冲突"
// @Router /api/v1/budgets/{categoryId}/{month} [put]
func (h *BudgetHandler) SetAssigned(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	m, err := ledger.ParseMonth(c.Param("month"))
	if err != nil {
		LedgerError(c, err, "月份格式错误")
		return
	}
	var req SetAssignedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	assigned, err := ledger.ParseAmount(req.Assigned.String(), h.exponent)
	if err != nil {
		LedgerError(c, err, "金额无效")
		return
	}

	b, err := h.ledger.Engine.SetAssigned(c.Request.Context(), userID, c.Param("categoryId"), m, assigned)
	if err != nil {
		LedgerError(c, err, "设置分配金额失败")
		return
	}
	SuccessWithMessage(c, "设置成功", b)
}

// ReadyToAssign 获取可分配资金
// @Summary 获取可分配资金
// @Description readyToAssign = 账户余额合计 - 各类别可用额合计
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Param month query string false "月份 (2024-03)，默认当前月"
// @Success 200 {object} Response{data=ledger.Summary} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/ready-to-assign [get]
func (h *BudgetHandler) ReadyToAssign(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	m, ok := parseMonthQuery(c)
	if !ok {
		return
	}
	summary, err := h.ledger.Calculator.ReadyToAssign(c.Request.Context(), userID, m)
	if err != nil {
		LedgerError(c, err, "计算可分配资金失败")
		return
	}
	Success(c, summary)
}

// Reconcile 由交易日志重建余额与预算行
// @Summary 对账
// @Description 重算账户余额和类别月度活动/可用额，dry_run=true 时只返回偏差
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Param dry_run query bool false "只报告不修正"
// @Success 200 {object} Response{data=ledger.Report} "对账完成"
// @Router /api/v1/reconcile [post]
func (h *BudgetHandler) Reconcile(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	dryRun := c.Query("dry_run") == "true" || c.Query("dry_run") == "1"

	report, err := h.ledger.Reconciler.Reconcile(c.Request.Context(), userID, dryRun)
	if err != nil {
		LedgerError(c, err, "对账失败")
		return
	}
	SuccessWithMessage(c, "对账完成", report)
}
