package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"envelope/config"
	"envelope/database"
	"envelope/ledger"
	"envelope/middleware"
	"envelope/models"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// ExportHandler 导出处理器
type ExportHandler struct {
	ledger   *ledger.Ledger
	exponent int32
}

// NewExportHandler 创建导出处理器
func NewExportHandler(l *ledger.Ledger, cfg *config.LedgerConfig) *ExportHandler {
	return &ExportHandler{ledger: l, exponent: cfg.CurrencyExponent}
}

// exportRow 交易导出行，附带账户与类别名称
type exportRow struct {
	models.Transaction
	AccountName  string
	CategoryName string
}

func (h *ExportHandler) monthTransactions(userID string, m, next time.Time) ([]exportRow, error) {
	var rows []exportRow
	err := database.DB.Model(&models.Transaction{}).
		Select("transactions.*, accounts.name AS account_name, categories.name AS category_name").
		Joins("LEFT JOIN accounts ON accounts.id = transactions.account_id").
		Joins("LEFT JOIN categories ON categories.id = transactions.category_id").
		Where("transactions.user_id = ? AND transactions.date >= ? AND transactions.date < ?", userID, m, next).
		Order("transactions.date ASC, transactions.created_at ASC").
		Scan(&rows).Error
	return rows, err
}

// ExportCSV 导出某月交易为 CSV
// @Summary 导出交易 CSV
// @Tags 导出
// @Produce text/csv
// @Security BearerAuth
// @Param month query string false "月份 (2024-03)，默认当前月"
// @Success 200 {file} file "CSV 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	m, ok := parseMonthQuery(c)
	if !ok {
		return
	}

	rows, err := h.monthTransactions(userID, m, ledger.NextMonth(m))
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询数据失败"))
		return
	}

	buf := new(bytes.Buffer)
	// 添加 BOM 以支持 Excel 中文显示
	buf.WriteString("\xEF\xBB\xBF")
	writer := csv.NewWriter(buf)

	headers := []string{"ID", "日期", "账户", "类别", "收款方", "备注", "金额", "已对账"}
	if err := writer.Write(headers); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}
	for _, r := range rows {
		record := []string{
			r.ID,
			r.Date.Format("2006-01-02"),
			r.AccountName,
			r.CategoryName,
			r.Payee,
			r.Memo,
			ledger.FormatAmount(r.Amount, h.exponent),
			fmt.Sprintf("%t", r.Cleared),
		}
		if err := writer.Write(record); err != nil {
			InternalError(c, "生成 CSV 失败")
			return
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}

	filename := fmt.Sprintf("transactions_%s.csv", ledger.FormatMonth(m))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportExcel 导出某月预算与交易为 Excel
// @Summary 导出月度 Excel
// @Description 第一个工作表为类别预算与可分配资金，第二个为当月交易
// @Tags 导出
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param month query string false "月份 (2024-03)，默认当前月"
// @Success 200 {file} file "Excel 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/excel [get]
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	m, ok := parseMonthQuery(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	categories, err := h.ledger.Engine.MonthBudgets(ctx, userID, m)
	if err != nil {
		LedgerError(c, err, "获取预算失败")
		return
	}
	summary, err := h.ledger.Calculator.ReadyToAssign(ctx, userID, m)
	if err != nil {
		LedgerError(c, err, "计算可分配资金失败")
		return
	}
	rows, err := h.monthTransactions(userID, m, ledger.NextMonth(m))
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询数据失败"))
		return
	}

	f, err := h.buildWorkbook(ledger.FormatMonth(m), categories, summary, rows)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "生成 Excel 失败"))
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("预算_%s.xlsx", ledger.FormatMonth(m))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", filename))

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "生成 Excel 失败")
		return
	}
}

func (h *ExportHandler) buildWorkbook(month string, categories []ledger.CategoryMonth, summary *ledger.Summary, rows []exportRow) (*excelize.File, error) {
	f := excelize.NewFile()

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	dataStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})

	amount := func(v int64) interface{} {
		d, _ := ledger.AmountDecimal(v, h.exponent).Float64()
		return d
	}
	writeHeader := func(sheet string, headers []string) {
		for i, header := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheet, cell, header)
			f.SetCellStyle(sheet, cell, cell, headerStyle)
		}
	}

	// 预算表
	budgetSheet := "预算 " + month
	f.SetSheetName("Sheet1", budgetSheet)
	f.SetColWidth(budgetSheet, "A", "A", 24)
	f.SetColWidth(budgetSheet, "B", "E", 15)
	writeHeader(budgetSheet, []string{"类别", "已分配", "活动", "可用", "目标"})
	var assigned, activity, available int64
	for i, cm := range categories {
		row := i + 2
		f.SetCellValue(budgetSheet, fmt.Sprintf("A%d", row), cm.CategoryName)
		f.SetCellValue(budgetSheet, fmt.Sprintf("B%d", row), amount(cm.Assigned))
		f.SetCellValue(budgetSheet, fmt.Sprintf("C%d", row), amount(cm.Activity))
		f.SetCellValue(budgetSheet, fmt.Sprintf("D%d", row), amount(cm.Available))
		if cm.TargetAmount != nil {
			f.SetCellValue(budgetSheet, fmt.Sprintf("E%d", row), amount(*cm.TargetAmount))
		}
		f.SetCellStyle(budgetSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("E%d", row), dataStyle)
		assigned += cm.Assigned
		activity += cm.Activity
		available += cm.Available
	}
	totalRow := len(categories) + 2
	f.SetCellValue(budgetSheet, fmt.Sprintf("A%d", totalRow), "合计")
	f.SetCellValue(budgetSheet, fmt.Sprintf("B%d", totalRow), amount(assigned))
	f.SetCellValue(budgetSheet, fmt.Sprintf("C%d", totalRow), amount(activity))
	f.SetCellValue(budgetSheet, fmt.Sprintf("D%d", totalRow), amount(available))
	f.SetCellStyle(budgetSheet, fmt.Sprintf("A%d", totalRow), fmt.Sprintf("E%d", totalRow), summaryStyle)

	readyRow := totalRow + 1
	f.SetCellValue(budgetSheet, fmt.Sprintf("A%d", readyRow), "可分配资金")
	f.SetCellValue(budgetSheet, fmt.Sprintf("B%d", readyRow), amount(summary.ReadyToAssign))
	f.SetCellValue(budgetSheet, fmt.Sprintf("C%d", readyRow), fmt.Sprintf("账户合计 %s", ledger.FormatAmount(summary.TotalFunds, h.exponent)))
	f.MergeCell(budgetSheet, fmt.Sprintf("C%d", readyRow), fmt.Sprintf("E%d", readyRow))
	f.SetCellStyle(budgetSheet, fmt.Sprintf("A%d", readyRow), fmt.Sprintf("E%d", readyRow), summaryStyle)

	// 交易表
	txnSheet := "交易 " + month
	if _, err := f.NewSheet(txnSheet); err != nil {
		f.Close()
		return nil, err
	}
	f.SetColWidth(txnSheet, "A", "A", 12)
	f.SetColWidth(txnSheet, "B", "C", 15)
	f.SetColWidth(txnSheet, "D", "E", 24)
	f.SetColWidth(txnSheet, "F", "G", 12)
	writeHeader(txnSheet, []string{"日期", "账户", "类别", "收款方", "备注", "金额", "已对账"})
	var total int64
	for i, r := range rows {
		row := i + 2
		f.SetCellValue(txnSheet, fmt.Sprintf("A%d", row), r.Date.Format("2006-01-02"))
		f.SetCellValue(txnSheet, fmt.Sprintf("B%d", row), r.AccountName)
		f.SetCellValue(txnSheet, fmt.Sprintf("C%d", row), r.CategoryName)
		f.SetCellValue(txnSheet, fmt.Sprintf("D%d", row), r.Payee)
		f.SetCellValue(txnSheet, fmt.Sprintf("E%d", row), r.Memo)
		f.SetCellValue(txnSheet, fmt.Sprintf("F%d", row), amount(r.Amount))
		cleared := ""
		if r.Cleared {
			cleared = "✓"
		}
		f.SetCellValue(txnSheet, fmt.Sprintf("G%d", row), cleared)
		f.SetCellStyle(txnSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("G%d", row), dataStyle)
		total += r.Amount
	}
	sumRow := len(rows) + 2
	f.SetCellValue(txnSheet, fmt.Sprintf("A%d", sumRow), "合计")
	f.MergeCell(txnSheet, fmt.Sprintf("A%d", sumRow), fmt.Sprintf("E%d", sumRow))
	f.SetCellValue(txnSheet, fmt.Sprintf("F%d", sumRow), amount(total))
	f.SetCellValue(txnSheet, fmt.Sprintf("G%d", sumRow), fmt.Sprintf("共 %d 条", len(rows)))
	f.SetCellStyle(txnSheet, fmt.Sprintf("A%d", sumRow), fmt.Sprintf("G%d", sumRow), summaryStyle)

	f.SetActiveSheet(0)
	return f, nil
}
