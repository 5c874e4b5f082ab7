package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"envelope/logger"
	"envelope/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	maxPayeeLen          = 100
	maxMemoLen           = 255
	maxIdempotencyKeyLen = 64
)

// RecordInput 待记录的交易
type RecordInput struct {
	Date       time.Time
	Amount     int64
	AccountID  string
	CategoryID *string
	Payee      string
	Memo       string
	Cleared    bool
	// IdempotencyKey 客户端生成的幂等键，同一用户内唯一；重试时携带相同的键不会重复记账
	IdempotencyKey string
}

// Result 记账结果
type Result struct {
	TransactionID string `json:"transaction_id"`
	// Replayed 为 true 表示命中幂等键，返回的是之前已记录的交易，本次没有产生任何效果
	Replayed bool `json:"replayed"`
}

// Reporter 接收部分生效告警
type Reporter interface {
	ReportPartialApplication(ctx context.Context, perr *PartialApplicationError) error
}

// Recorder 交易记录入口：写入交易并驱动余额与月度活动更新
type Recorder struct {
	db       *gorm.DB
	engine   *Engine
	balances BalanceMaintainer
	// atomic 为 false 时存储不支持多语句事务，改用带补偿日志的 saga
	atomic   bool
	reporter Reporter
	log      *slog.Logger
}

// NewRecorder 创建交易记录器，reporter 可为 nil
func NewRecorder(db *gorm.DB, engine *Engine, atomic bool, reporter Reporter) *Recorder {
	return &Recorder{
		db:       db,
		engine:   engine,
		atomic:   atomic,
		reporter: reporter,
		log:      logger.For(logger.ComponentLedger),
	}
}

// Validate 校验输入，失败返回 ValidationError
func (in *RecordInput) Validate(userID string) error {
	switch {
	case userID == "":
		return invalid("user_id", "不能为空")
	case in.Amount == 0:
		return invalid("amount", "不能为 0")
	case in.Amount > MaxAmount || in.Amount < -MaxAmount:
		return checkAmountRange("amount", in.Amount)
	case in.Date.IsZero():
		return invalid("date", "不能为空")
	case in.AccountID == "":
		return invalid("account_id", "不能为空")
	case in.CategoryID != nil && *in.CategoryID == "":
		return invalid("category_id", "不能为空字符串")
	case utf8.RuneCountInString(in.Payee) > maxPayeeLen:
		return invalid("payee", fmt.Sprintf("不能超过 %d 个字符", maxPayeeLen))
	case utf8.RuneCountInString(in.Memo) > maxMemoLen:
		return invalid("memo", fmt.Sprintf("不能超过 %d 个字符", maxMemoLen))
	case len(in.IdempotencyKey) > maxIdempotencyKeyLen:
		return invalid("idempotency_key", fmt.Sprintf("不能超过 %d 个字节", maxIdempotencyKeyLen))
	}
	return nil
}

func (in *RecordInput) toModel(userID string) *models.Transaction {
	txn := &models.Transaction{
		UserID:     userID,
		AccountID:  in.AccountID,
		CategoryID: in.CategoryID,
		Date:       DateOf(in.Date),
		Amount:     in.Amount,
		Payee:      in.Payee,
		Memo:       in.Memo,
		Cleared:    in.Cleared,
	}
	if in.IdempotencyKey != "" {
		key := in.IdempotencyKey
		txn.IdempotencyKey = &key
	}
	return txn
}

// Record 记录一笔交易
//
// 写入交易行、更新账户余额、分类交易计入月度活动，三者作为一个整体生效。
// 带幂等键的重试返回首次记录的交易 ID 且不重复记账；相同的键对应不同内容时返回 ConflictError。
func (r *Recorder) Record(ctx context.Context, userID string, in RecordInput) (*Result, error) {
	if err := in.Validate(userID); err != nil {
		return nil, err
	}
	txn := in.toModel(userID)
	var (
		res *Result
		err error
	)
	if r.atomic {
		res, err = r.recordAtomic(ctx, userID, txn)
	} else {
		res, err = r.recordSaga(ctx, userID, txn)
	}
	var perr *PartialApplicationError
	if errors.As(err, &perr) {
		r.report(ctx, perr)
	}
	return res, err
}

// report 记录并上报部分生效，调用方取消不影响上报
func (r *Recorder) report(ctx context.Context, perr *PartialApplicationError) {
	r.log.Error("记账部分生效，需要对账",
		"user_id", perr.UserID, "transaction_id", perr.TransactionID, "applied", perr.Applied,
		"cause", perr.Cause, "compensation_error", perr.CompensationErr)
	if r.reporter == nil {
		return
	}
	if err := r.reporter.ReportPartialApplication(context.WithoutCancel(ctx), perr); err != nil {
		r.log.Error("发送部分生效告警失败", "transaction_id", perr.TransactionID, "error", err)
	}
}

func (r *Recorder) recordAtomic(ctx context.Context, userID string, txn *models.Transaction) (*Result, error) {
	var result *Result
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkReferences(tx, userID, txn); err != nil {
			return err
		}
		replay, err := insertTransaction(tx, txn)
		if err != nil {
			return err
		}
		if replay != nil {
			result = replay
			return nil
		}
		for _, s := range r.effects(userID, txn) {
			if err := s.apply(tx); err != nil {
				return err
			}
		}
		result = &Result{TransactionID: txn.ID}
		return nil
	})
	if isLockConflict(err) {
		return nil, &ConflictError{Entity: "transaction", Key: txn.ID, Err: err}
	}
	if err != nil {
		return nil, err
	}
	if result.Replayed {
		r.log.Info("幂等键命中，跳过记账", "user_id", userID, "transaction_id", result.TransactionID)
	}
	return result, nil
}

// recordSaga 逐步执行并记录补偿日志；任一步失败时逆序撤销，撤销失败返回 PartialApplicationError
func (r *Recorder) recordSaga(ctx context.Context, userID string, txn *models.Transaction) (*Result, error) {
	db := r.db.WithContext(ctx).Session(&gorm.Session{SkipDefaultTransaction: true})
	if err := checkReferences(db, userID, txn); err != nil {
		return nil, err
	}
	txn.Pending = true
	replay, err := insertTransaction(db, txn)
	if err != nil {
		return nil, err
	}
	if replay != nil {
		return replay, nil
	}

	comp := &compensationLog{}
	comp.push(step{
		name: stepInsertTransaction,
		revert: func(db *gorm.DB) error {
			return db.Where("id = ? AND user_id = ?", txn.ID, userID).Delete(&models.Transaction{}).Error
		},
	})
	for _, s := range r.effects(userID, txn) {
		if err := s.apply(db); err != nil {
			return nil, r.compensate(ctx, comp, userID, txn.ID, s.name, err)
		}
		comp.push(s)
	}
	err = db.Model(&models.Transaction{}).
		Where("id = ? AND user_id = ?", txn.ID, userID).
		UpdateColumn("pending", false).Error
	if err != nil {
		return nil, r.compensate(ctx, comp, userID, txn.ID, stepMarkApplied, err)
	}
	return &Result{TransactionID: txn.ID}, nil
}

func (r *Recorder) compensate(ctx context.Context, comp *compensationLog, userID, txnID, failedStep string, cause error) error {
	// 调用方取消不应中断补偿
	cctx := context.WithoutCancel(ctx)
	db := r.db.WithContext(cctx).Session(&gorm.Session{SkipDefaultTransaction: true})

	reverted := len(comp.applied)
	remaining, compErr := comp.rollback(db)
	if compErr == nil {
		r.log.Warn("记账失败，已撤销已生效步骤",
			"user_id", userID, "transaction_id", txnID, "step", failedStep, "reverted", reverted, "error", cause)
		return fmt.Errorf("记账步骤 %s 失败，已撤销: %w", failedStep, cause)
	}

	return &PartialApplicationError{
		TransactionID:   txnID,
		UserID:          userID,
		Applied:         remaining,
		Cause:           cause,
		CompensationErr: compErr,
	}
}

// SetCleared 修改交易的对账标记，不影响余额与可用额
func (r *Recorder) SetCleared(ctx context.Context, userID, transactionID string, cleared bool) error {
	res := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ? AND user_id = ?", transactionID, userID).
		UpdateColumn("cleared", cleared)
	if res.Error != nil {
		return fmt.Errorf("更新对账标记失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// MySQL 值未变化时影响行数也为 0，需要再确认一次是否存在
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Transaction{}).
			Where("id = ? AND user_id = ?", transactionID, userID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("查询交易失败: %w", err)
		}
		if count == 0 {
			return &NotFoundError{Entity: "transaction", ID: transactionID}
		}
	}
	return nil
}

func checkReferences(db *gorm.DB, userID string, txn *models.Transaction) error {
	if err := ensureAccount(db, userID, txn.AccountID); err != nil {
		return err
	}
	if txn.CategoryID != nil {
		return ensureCategory(db, userID, *txn.CategoryID)
	}
	return nil
}

// insertTransaction 写入交易行。幂等键已存在时返回之前的结果，内容不一致返回 ConflictError。
// 已存在的行仍处于 pending 说明上次分步记账中途中断，余额与活动是否生效未知，返回 PartialApplicationError
func insertTransaction(db *gorm.DB, txn *models.Transaction) (*Result, error) {
	if txn.IdempotencyKey == nil {
		if err := db.Create(txn).Error; err != nil {
			return nil, fmt.Errorf("写入交易失败: %w", err)
		}
		return nil, nil
	}

	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(txn)
	if res.Error != nil {
		return nil, fmt.Errorf("写入交易失败: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil, nil
	}

	var existing models.Transaction
	err := db.Where("user_id = ? AND idempotency_key = ?", txn.UserID, *txn.IdempotencyKey).
		Take(&existing).Error
	if err != nil {
		return nil, fmt.Errorf("查询幂等交易失败: %w", err)
	}
	if !samePayload(&existing, txn) {
		return nil, &ConflictError{Entity: "transaction", Key: *txn.IdempotencyKey}
	}
	if existing.Pending {
		return nil, &PartialApplicationError{
			TransactionID: existing.ID,
			UserID:        existing.UserID,
			Applied:       []string{stepInsertTransaction},
			Cause:         ErrIncompleteRecording,
		}
	}
	return &Result{TransactionID: existing.ID, Replayed: true}, nil
}

func samePayload(a, b *models.Transaction) bool {
	sameCategory := (a.CategoryID == nil && b.CategoryID == nil) ||
		(a.CategoryID != nil && b.CategoryID != nil && *a.CategoryID == *b.CategoryID)
	return sameCategory &&
		a.AccountID == b.AccountID &&
		a.Amount == b.Amount &&
		DateOf(a.Date).Equal(DateOf(b.Date)) &&
		a.Payee == b.Payee &&
		a.Memo == b.Memo
}
