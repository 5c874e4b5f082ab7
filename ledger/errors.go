package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// ErrIncompleteRecording 同一幂等键的上一次分步记账没有完成
var ErrIncompleteRecording = errors.New("上一次分步记账未完成")

// MySQL 锁冲突错误码
const (
	mysqlErrLockWaitTimeout = 1205
	mysqlErrDeadlock        = 1213
)

// Kind 错误类别，调用方据此区分处理方式
type Kind string

const (
	KindValidation         Kind = "validation"
	KindNotFound           Kind = "not_found"
	KindConflict           Kind = "conflict"
	KindPartialApplication Kind = "partial_application"
	KindInternal           Kind = "internal"
)

// ValidationError 输入不合法，在访问存储之前拒绝
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("参数校验失败: %s %s", e.Field, e.Reason)
}

// NotFoundError 引用的账户或类别不存在，或不属于当前用户
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s 不存在: %s", e.Entity, e.ID)
}

// ConflictError 唯一键或版本冲突，可在刷新状态后重试一次
type ConflictError struct {
	Entity string
	Key    string
	Err    error
}

func (e *ConflictError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s 写入冲突 (%s): %v", e.Entity, e.Key, e.Err)
	}
	return fmt.Sprintf("%s 写入冲突 (%s)", e.Entity, e.Key)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// PartialApplicationError 多步操作只提交了部分效果且补偿失败，账务已不一致，需要人工对账
type PartialApplicationError struct {
	TransactionID string
	UserID        string
	// Applied 已生效且未能撤销的步骤
	Applied []string
	// Cause 导致中断的原始错误
	Cause error
	// CompensationErr 撤销过程中的错误
	CompensationErr error
}

func (e *PartialApplicationError) Error() string {
	if e.CompensationErr == nil {
		return fmt.Sprintf("交易 %s 部分生效 [%s]: %v",
			e.TransactionID, strings.Join(e.Applied, ","), e.Cause)
	}
	return fmt.Sprintf("交易 %s 部分生效 [%s]: %v; 补偿失败: %v",
		e.TransactionID, strings.Join(e.Applied, ","), e.Cause, e.CompensationErr)
}

func (e *PartialApplicationError) Unwrap() []error {
	errs := make([]error, 0, 2)
	for _, err := range []error{e.Cause, e.CompensationErr} {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// KindOf 返回错误类别，未识别的错误视为内部错误
func KindOf(err error) Kind {
	var (
		validationErr *ValidationError
		notFoundErr   *NotFoundError
		conflictErr   *ConflictError
		partialErr    *PartialApplicationError
	)
	switch {
	case err == nil:
		return ""
	// 部分生效优先判断：其包装的原因可能是其他类别
	case errors.As(err, &partialErr):
		return KindPartialApplication
	case errors.As(err, &validationErr):
		return KindValidation
	case errors.As(err, &notFoundErr):
		return KindNotFound
	case errors.As(err, &conflictErr):
		return KindConflict
	default:
		return KindInternal
	}
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// isDuplicateKey 判断是否为唯一键冲突
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Duplicate entry")
}

// isLockConflict 判断是否为 MySQL 死锁或锁等待超时，事务已被回滚，可以重试
func isLockConflict(err error) bool {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return false
	}
	return myErr.Number == mysqlErrDeadlock || myErr.Number == mysqlErrLockWaitTimeout
}
