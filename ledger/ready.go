package ledger

import (
	"context"
	"fmt"
	"time"

	"envelope/models"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Summary 可分配资金汇总，按需计算，从不落库
type Summary struct {
	Month          time.Time `json:"month"`
	TotalFunds     int64     `json:"total_funds"`
	TotalAvailable int64     `json:"total_available"`
	ReadyToAssign  int64     `json:"ready_to_assign"`
}

// Calculator 计算 readyToAssign = 资金合计 - 各类别 available 合计
type Calculator struct {
	db *gorm.DB
	// includeCredit 为 false 时资金合计不计入信用账户
	includeCredit bool
}

// NewCalculator 创建计算器
func NewCalculator(db *gorm.DB, includeCreditAccounts bool) *Calculator {
	return &Calculator{db: db, includeCredit: includeCreditAccounts}
}

// 每个类别取 month 及之前最新一行的 available；没有行的类别贡献 0
const totalAvailableSQL = `SELECT COALESCE(SUM(b.available), 0) FROM budgets b
WHERE b.user_id = ? AND b.month = (
	SELECT MAX(b2.month) FROM budgets b2
	WHERE b2.category_id = b.category_id AND b2.month <= ?
)`

// ReadyToAssign 计算用户在 month 的可分配资金。两个聚合并发读取，不要求与写入线性一致
func (c *Calculator) ReadyToAssign(ctx context.Context, userID string, month time.Time) (*Summary, error) {
	if userID == "" {
		return nil, invalid("user_id", "不能为空")
	}
	m := MonthOf(month)
	s := &Summary{Month: m}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		funds, err := c.TotalFunds(gctx, userID)
		s.TotalFunds = funds
		return err
	})
	g.Go(func() error {
		avail, err := c.TotalAvailable(gctx, userID, m)
		s.TotalAvailable = avail
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.ReadyToAssign = s.TotalFunds - s.TotalAvailable
	return s, nil
}

// TotalFunds 用户账户余额合计
func (c *Calculator) TotalFunds(ctx context.Context, userID string) (int64, error) {
	var total int64
	q := c.db.WithContext(ctx).Model(&models.Account{}).
		Select("COALESCE(SUM(balance), 0)").
		Where("user_id = ?", userID)
	if !c.includeCredit {
		q = q.Where("type <> ?", models.AccountTypeCredit)
	}
	if err := q.Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("汇总账户余额失败: %w", err)
	}
	return total, nil
}

// TotalAvailable 各类别在 month 的 available 合计
func (c *Calculator) TotalAvailable(ctx context.Context, userID string, month time.Time) (int64, error) {
	var total int64
	if err := c.db.WithContext(ctx).Raw(totalAvailableSQL, userID, MonthOf(month)).Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("汇总类别余额失败: %w", err)
	}
	return total, nil
}
