package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"envelope/logger"
	"envelope/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Engine 分配引擎，维护类别月度预算行的 assigned/activity/available 关系与跨月结转
//
// 不变式：available(m) = available(m 之前最近一条已存在的行) + assigned(m) + activity(m)。
// 存储的 available 是缓存，每次写入都向后级联到已存在的后续月份，Fold 给出按读计算的参考值。
type Engine struct {
	db  *gorm.DB
	log *slog.Logger
}

// NewEngine 创建分配引擎
func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db, log: logger.For(logger.ComponentLedger)}
}

// CategoryMonth 某类别在某月的预算视图。Virtual 为 true 表示该月尚无行，数值由结转得出
type CategoryMonth struct {
	CategoryID   string    `json:"category_id"`
	CategoryName string    `json:"category_name"`
	GroupID      string    `json:"group_id"`
	TargetAmount *int64    `json:"target_amount"`
	Month        time.Time `json:"month"`
	Assigned     int64     `json:"assigned"`
	Activity     int64     `json:"activity"`
	Available    int64     `json:"available"`
	Virtual      bool      `json:"virtual"`
}

// PriorAvailable 返回 month 之前最近一条已存在行的 available，没有则为 0
func (e *Engine) PriorAvailable(tx *gorm.DB, categoryID string, month time.Time) (int64, error) {
	var rows []models.Budget
	err := tx.Where("category_id = ? AND month < ?", categoryID, MonthOf(month)).
		Order("month DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return 0, fmt.Errorf("查询结转余额失败: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Available, nil
}

// RecordActivity 将交易金额计入 (category, month) 的 activity
//
// 行不存在时以 assigned=0、activity=delta、available=prior+delta 插入；
// 已存在时 activity += delta、available += delta。插入与更新由唯一索引上的冲突解决完成，
// 随后对该类别之后的所有已存在月份 available += delta。必须在事务内调用。
func (e *Engine) RecordActivity(tx *gorm.DB, userID, categoryID string, month time.Time, delta int64) error {
	if delta == 0 {
		return nil
	}
	m := MonthOf(month)
	prior, err := e.PriorAvailable(tx, categoryID, m)
	if err != nil {
		return err
	}

	row := models.Budget{
		UserID:     userID,
		CategoryID: categoryID,
		Month:      m,
		Assigned:   0,
		Activity:   delta,
		Available:  prior + delta,
	}
	err = tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "category_id"}, {Name: "month"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"activity":   gorm.Expr("activity + ?", delta),
			"available":  gorm.Expr("available + ?", delta),
			"updated_at": time.Now(),
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("写入月度活动失败: %w", err)
	}

	return e.cascade(tx, categoryID, m, delta)
}

// cascade 将 delta 累加到 month 之后所有已存在的行
func (e *Engine) cascade(tx *gorm.DB, categoryID string, month time.Time, delta int64) error {
	if delta == 0 {
		return nil
	}
	err := tx.Model(&models.Budget{}).
		Where("category_id = ? AND month > ?", categoryID, month).
		UpdateColumn("available", gorm.Expr("available + ?", delta)).Error
	if err != nil {
		return fmt.Errorf("向后结转失败: %w", err)
	}
	return nil
}

// SetAssigned 设置类别某月的分配金额，返回更新后的预算行
//
// 只修改 assigned 与 available，不触碰 activity；delta 向后级联。
// 并发首写或版本冲突返回 ConflictError 时，在新事务中刷新状态后重试一次。
func (e *Engine) SetAssigned(ctx context.Context, userID, categoryID string, month time.Time, assigned int64) (*models.Budget, error) {
	if userID == "" {
		return nil, invalid("user_id", "不能为空")
	}
	if categoryID == "" {
		return nil, invalid("category_id", "不能为空")
	}
	if month.IsZero() {
		return nil, invalid("month", "不能为空")
	}
	if err := checkAmountRange("assigned", assigned); err != nil {
		return nil, err
	}

	var result *models.Budget
	err := e.withConflictRetry(ctx, func() error {
		err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := ensureCategory(tx, userID, categoryID); err != nil {
				return err
			}
			b, err := e.setAssignedTx(tx, userID, categoryID, MonthOf(month), assigned)
			if err != nil {
				return err
			}
			result = b
			return nil
		})
		if isLockConflict(err) {
			return &ConflictError{Entity: "budget", Key: categoryID + "/" + FormatMonth(MonthOf(month)), Err: err}
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) setAssignedTx(tx *gorm.DB, userID, categoryID string, m time.Time, assigned int64) (*models.Budget, error) {
	var rows []models.Budget
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("category_id = ? AND month = ?", categoryID, m).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询预算行失败: %w", err)
	}

	if len(rows) == 0 {
		prior, err := e.PriorAvailable(tx, categoryID, m)
		if err != nil {
			return nil, err
		}
		row := models.Budget{
			UserID:     userID,
			CategoryID: categoryID,
			Month:      m,
			Assigned:   assigned,
			Activity:   0,
			Available:  prior + assigned,
		}
		if err := tx.Create(&row).Error; err != nil {
			if isDuplicateKey(err) {
				return nil, &ConflictError{Entity: "budget", Key: categoryID + "/" + FormatMonth(m), Err: err}
			}
			return nil, fmt.Errorf("创建预算行失败: %w", err)
		}
		if err := e.cascade(tx, categoryID, m, assigned); err != nil {
			return nil, err
		}
		return &row, nil
	}

	row := rows[0]
	delta := assigned - row.Assigned
	if delta == 0 {
		return &row, nil
	}
	now := time.Now()
	res := tx.Model(&models.Budget{}).
		Where("id = ? AND assigned = ?", row.ID, row.Assigned).
		Updates(map[string]interface{}{
			"assigned":   assigned,
			"available":  gorm.Expr("available + ?", delta),
			"updated_at": now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("更新预算行失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, &ConflictError{Entity: "budget", Key: categoryID + "/" + FormatMonth(m)}
	}
	if err := e.cascade(tx, categoryID, m, delta); err != nil {
		return nil, err
	}

	row.Assigned = assigned
	row.Available += delta
	row.UpdatedAt = now
	return &row, nil
}

// Touch 确保 (category, month) 行存在；新建行 assigned=0、activity=0、available 为结转值
func (e *Engine) Touch(ctx context.Context, userID, categoryID string, month time.Time) (*models.Budget, error) {
	if userID == "" || categoryID == "" {
		return nil, invalid("category_id", "不能为空")
	}
	m := MonthOf(month)
	var result models.Budget
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureCategory(tx, userID, categoryID); err != nil {
			return err
		}
		prior, err := e.PriorAvailable(tx, categoryID, m)
		if err != nil {
			return err
		}
		row := models.Budget{UserID: userID, CategoryID: categoryID, Month: m, Available: prior}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "category_id"}, {Name: "month"}},
			DoNothing: true,
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("创建预算行失败: %w", err)
		}
		return tx.Where("category_id = ? AND month = ?", categoryID, m).Take(&result).Error
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Fold 按读计算 available：month 及之前所有行的 assigned + activity 之和
func (e *Engine) Fold(ctx context.Context, categoryID string, month time.Time) (int64, error) {
	var total int64
	err := e.db.WithContext(ctx).Model(&models.Budget{}).
		Select("COALESCE(SUM(assigned + activity), 0)").
		Where("category_id = ? AND month <= ?", categoryID, MonthOf(month)).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("汇总预算失败: %w", err)
	}
	return total, nil
}

// MonthBudgets 返回用户所有类别在 month 的预算视图，无行的类别使用结转值，不写入
func (e *Engine) MonthBudgets(ctx context.Context, userID string, month time.Time) ([]CategoryMonth, error) {
	if userID == "" {
		return nil, invalid("user_id", "不能为空")
	}
	m := MonthOf(month)
	db := e.db.WithContext(ctx)

	var categories []models.Category
	err := db.Table("categories").
		Select("categories.*").
		Joins("JOIN category_groups ON category_groups.id = categories.group_id").
		Where("categories.user_id = ?", userID).
		Order("category_groups.position ASC, categories.created_at ASC").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("查询类别失败: %w", err)
	}

	var rows []models.Budget
	err = db.Where("user_id = ? AND month <= ?", userID, m).
		Order("month ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询预算行失败: %w", err)
	}
	// 按月份升序遍历，后出现的覆盖先出现的，得到每个类别 <= m 的最新行
	latest := make(map[string]models.Budget, len(categories))
	for _, r := range rows {
		latest[r.CategoryID] = r
	}

	out := make([]CategoryMonth, 0, len(categories))
	for _, c := range categories {
		cm := CategoryMonth{
			CategoryID:   c.ID,
			CategoryName: c.Name,
			GroupID:      c.GroupID,
			TargetAmount: c.TargetAmount,
			Month:        m,
		}
		r, ok := latest[c.ID]
		switch {
		case ok && MonthOf(r.Month).Equal(m):
			cm.Assigned, cm.Activity, cm.Available = r.Assigned, r.Activity, r.Available
		case ok:
			cm.Available = r.Available
			cm.Virtual = true
		default:
			cm.Virtual = true
		}
		out = append(out, cm)
	}
	return out, nil
}

// withConflictRetry 执行 fn，遇到 ConflictError 时重试一次
func (e *Engine) withConflictRetry(ctx context.Context, fn func() error) error {
	err := fn()
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		return err
	}
	if ctx.Err() != nil {
		return err
	}
	e.log.Warn("预算写入冲突，刷新后重试", "key", conflict.Key)
	return fn()
}

// ensureCategory 校验类别存在且属于该用户，并在事务内锁定类别行。
// 同一类别的预算写入因此串行执行，新建月份行读取的结转值不会漏掉并发写入的前月变化
func ensureCategory(tx *gorm.DB, userID, categoryID string) error {
	var ids []string
	err := tx.Model(&models.Category{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ?", categoryID, userID).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return fmt.Errorf("查询类别失败: %w", err)
	}
	if len(ids) == 0 {
		return &NotFoundError{Entity: "category", ID: categoryID}
	}
	return nil
}

// ensureAccount 校验账户存在且属于该用户
func ensureAccount(tx *gorm.DB, userID, accountID string) error {
	var count int64
	err := tx.Model(&models.Account{}).
		Where("id = ? AND user_id = ?", accountID, userID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("查询账户失败: %w", err)
	}
	if count == 0 {
		return &NotFoundError{Entity: "account", ID: accountID}
	}
	return nil
}
