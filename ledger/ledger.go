// Package ledger 实现信封预算的记账核心：账户余额、类别月度分配与结转、可分配资金和交易记录。
//
// 所有金额均为最小货币单位的 int64，月份归一化为当月第一天（UTC）。
// 每个操作都显式接收用户 ID，只访问该用户的数据。
package ledger

import (
	"gorm.io/gorm"
)

// Options 账本策略
type Options struct {
	Atomic                bool
	IncludeCreditAccounts bool
	Reporter              Reporter
}

// Ledger 聚合账本各组件
type Ledger struct {
	Balances   BalanceMaintainer
	Engine     *Engine
	Calculator *Calculator
	Recorder   *Recorder
	Reconciler *Reconciler
}

// New 基于同一个数据库连接组装账本
func New(db *gorm.DB, opts Options) *Ledger {
	engine := NewEngine(db)
	return &Ledger{
		Engine:     engine,
		Calculator: NewCalculator(db, opts.IncludeCreditAccounts),
		Recorder:   NewRecorder(db, engine, opts.Atomic, opts.Reporter),
		Reconciler: NewReconciler(db),
	}
}
