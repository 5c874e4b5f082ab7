package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"envelope/logger"
	"envelope/models"

	"gorm.io/gorm"
)

// Drift 存储值与由交易日志重算值之间的偏差
type Drift struct {
	Entity     string    `json:"entity"` // account、budget 或 transaction
	ID         string    `json:"id,omitempty"`
	CategoryID string    `json:"category_id,omitempty"`
	Month      time.Time `json:"month,omitempty"`
	Field      string    `json:"field"`
	Stored     int64     `json:"stored"`
	Expected   int64     `json:"expected"`
}

// Report 对账结果
type Report struct {
	DryRun   bool    `json:"dry_run"`
	Accounts int     `json:"accounts"`
	Budgets  int     `json:"budgets"`
	Drifts   []Drift `json:"drifts"`
}

// Reconciler 由交易日志重建余额与预算行，用于部分生效后的人工恢复
type Reconciler struct {
	db  *gorm.DB
	log *slog.Logger
}

// NewReconciler 创建对账器
func NewReconciler(db *gorm.DB) *Reconciler {
	return &Reconciler{db: db, log: logger.For(logger.ComponentLedger)}
}

type budgetKey struct {
	categoryID string
	month      time.Time
}

// Reconcile 重算账户余额 starting_balance + Σamount，按类别月份重算 activity（缺失的行补建），
// 再逐月重新折叠 available，最后清除中断的分步记账留下的 pending 标记。dryRun 为 true 时只报告偏差不写入
func (r *Reconciler) Reconcile(ctx context.Context, userID string, dryRun bool) (*Report, error) {
	if userID == "" {
		return nil, invalid("user_id", "不能为空")
	}
	report := &Report{DryRun: dryRun, Drifts: []Drift{}}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.reconcileAccounts(tx, userID, report); err != nil {
			return err
		}
		if err := r.reconcileBudgets(tx, userID, report); err != nil {
			return err
		}
		return r.reconcilePending(tx, userID, report)
	})
	if err != nil {
		return nil, err
	}

	r.log.Info("对账完成", "user_id", userID, "dry_run", dryRun,
		"accounts", report.Accounts, "budgets", report.Budgets, "drifts", len(report.Drifts))
	return report, nil
}

func (r *Reconciler) reconcileAccounts(tx *gorm.DB, userID string, report *Report) error {
	var accounts []models.Account
	if err := tx.Where("user_id = ?", userID).Order("created_at ASC").Find(&accounts).Error; err != nil {
		return fmt.Errorf("查询账户失败: %w", err)
	}

	var sums []struct {
		AccountID string
		Total     int64
	}
	err := tx.Model(&models.Transaction{}).
		Select("account_id, COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ?", userID).
		Group("account_id").
		Scan(&sums).Error
	if err != nil {
		return fmt.Errorf("汇总交易失败: %w", err)
	}
	totals := make(map[string]int64, len(sums))
	for _, s := range sums {
		totals[s.AccountID] = s.Total
	}

	report.Accounts = len(accounts)
	for _, a := range accounts {
		expected := a.StartingBalance + totals[a.ID]
		if expected == a.Balance {
			continue
		}
		report.Drifts = append(report.Drifts, Drift{
			Entity: "account", ID: a.ID, Field: "balance", Stored: a.Balance, Expected: expected,
		})
		if report.DryRun {
			continue
		}
		err := tx.Model(&models.Account{}).
			Where("id = ? AND user_id = ?", a.ID, userID).
			UpdateColumn("balance", expected).Error
		if err != nil {
			return fmt.Errorf("修正账户余额失败: %w", err)
		}
	}
	return nil
}

func (r *Reconciler) reconcileBudgets(tx *gorm.DB, userID string, report *Report) error {
	var txns []models.Transaction
	err := tx.Where("user_id = ? AND category_id IS NOT NULL", userID).Find(&txns).Error
	if err != nil {
		return fmt.Errorf("查询分类交易失败: %w", err)
	}
	activity := make(map[budgetKey]int64)
	months := make(map[string][]time.Time)
	addMonth := func(categoryID string, m time.Time) {
		if !slices.ContainsFunc(months[categoryID], m.Equal) {
			months[categoryID] = append(months[categoryID], m)
		}
	}
	for _, t := range txns {
		k := budgetKey{categoryID: *t.CategoryID, month: MonthOf(t.Date)}
		activity[k] += t.Amount
		addMonth(k.categoryID, k.month)
	}

	var rows []models.Budget
	if err := tx.Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return fmt.Errorf("查询预算行失败: %w", err)
	}
	existing := make(map[budgetKey]models.Budget, len(rows))
	for _, b := range rows {
		k := budgetKey{categoryID: b.CategoryID, month: MonthOf(b.Month)}
		existing[k] = b
		addMonth(k.categoryID, k.month)
	}

	categories := make([]string, 0, len(months))
	for c := range months {
		categories = append(categories, c)
	}
	slices.Sort(categories)

	for _, categoryID := range categories {
		ms := months[categoryID]
		slices.SortFunc(ms, func(a, b time.Time) int { return a.Compare(b) })

		var running int64
		for _, m := range ms {
			k := budgetKey{categoryID: categoryID, month: m}
			b, ok := existing[k]
			wantActivity := activity[k]
			running += b.Assigned + wantActivity
			report.Budgets++

			if !ok {
				report.Drifts = append(report.Drifts, Drift{
					Entity: "budget", CategoryID: categoryID, Month: m, Field: "missing", Expected: running,
				})
				if report.DryRun {
					continue
				}
				row := models.Budget{
					UserID: userID, CategoryID: categoryID, Month: m,
					Activity: wantActivity, Available: running,
				}
				if err := tx.Create(&row).Error; err != nil {
					return fmt.Errorf("补建预算行失败: %w", err)
				}
				continue
			}

			changed := false
			if b.Activity != wantActivity {
				report.Drifts = append(report.Drifts, Drift{
					Entity: "budget", ID: b.ID, CategoryID: categoryID, Month: m,
					Field: "activity", Stored: b.Activity, Expected: wantActivity,
				})
				changed = true
			}
			if b.Available != running {
				report.Drifts = append(report.Drifts, Drift{
					Entity: "budget", ID: b.ID, CategoryID: categoryID, Month: m,
					Field: "available", Stored: b.Available, Expected: running,
				})
				changed = true
			}
			if !changed || report.DryRun {
				continue
			}
			err := tx.Model(&models.Budget{}).Where("id = ?", b.ID).Updates(map[string]interface{}{
				"activity":   wantActivity,
				"available":  running,
				"updated_at": time.Now(),
			}).Error
			if err != nil {
				return fmt.Errorf("修正预算行失败: %w", err)
			}
		}
	}
	return nil
}

// reconcilePending 余额与预算行已按全部交易重建，pending 交易的效果随之生效，清除其标记
func (r *Reconciler) reconcilePending(tx *gorm.DB, userID string, report *Report) error {
	var ids []string
	err := tx.Model(&models.Transaction{}).
		Where("user_id = ? AND pending = ?", userID, true).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return fmt.Errorf("查询未完成交易失败: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}
	for _, id := range ids {
		report.Drifts = append(report.Drifts, Drift{Entity: "transaction", ID: id, Field: "pending", Stored: 1})
	}
	if report.DryRun {
		return nil
	}
	err = tx.Model(&models.Transaction{}).
		Where("user_id = ? AND id IN ?", userID, ids).
		UpdateColumn("pending", false).Error
	if err != nil {
		return fmt.Errorf("清除 pending 标记失败: %w", err)
	}
	return nil
}
