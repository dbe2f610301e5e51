package repository

import (
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/localmart-next/internal/logger"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrTxConflict 事务冲突重试耗尽后的哨兵错误
var ErrTxConflict = errors.New("transaction conflict: retries exhausted")

const (
	defaultRetryMaxAttempts = 3
	defaultRetryBaseDelay   = 100 * time.Millisecond
)

// pg 序列化失败与死锁的 SQLSTATE
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// TxRetryOptions 事务重试参数
type TxRetryOptions struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// NormalizeTxRetryOptions 补齐默认重试参数
func NormalizeTxRetryOptions(opts TxRetryOptions) TxRetryOptions {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultRetryMaxAttempts
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = defaultRetryBaseDelay
	}
	return opts
}

// IsRetryableTxError 判断是否为可重试的事务冲突：
// 仅限序列化失败/死锁这类瞬态冲突，业务错误一律不重试。
func IsRetryableTxError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
	}
	// sqlite 写锁竞争（glebarez 驱动以文本透出）
	message := strings.ToLower(err.Error())
	if strings.Contains(message, "database is locked") ||
		strings.Contains(message, "database table is locked") ||
		strings.Contains(message, "sqlite_busy") {
		return true
	}
	return false
}

// RunInTxWithRetry 在事务内执行 fn；仅对序列化失败/死锁做指数退避重试，
// 其余错误首次出现即向上传播。重试耗尽返回包装了末次冲突的 ErrTxConflict。
func RunInTxWithRetry(db *gorm.DB, opts TxRetryOptions, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return errors.New("db is nil")
	}
	if fn == nil {
		return nil
	}
	opts = NormalizeTxRetryOptions(opts)

	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		err := db.Transaction(fn)
		if err == nil {
			return nil
		}
		if !IsRetryableTxError(err) {
			return err
		}
		lastErr = err
		if attempt == opts.MaxAttempts {
			break
		}
		delay := backoffDelay(opts.BaseDelay, attempt)
		logger.Warnw("tx_conflict_retry",
			"attempt", attempt,
			"max_attempts", opts.MaxAttempts,
			"delay_ms", delay.Milliseconds(),
			"error", err,
		)
		time.Sleep(delay)
	}
	return errors.Join(ErrTxConflict, lastErr)
}

// backoffDelay 计算第 attempt 次失败后的等待：base * 2^(attempt-1) + 抖动
func backoffDelay(base time.Duration, attempt int) time.Duration {
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	jitter := time.Duration(rand.Int63n(int64(base)/2 + 1))
	return delay + jitter
}
