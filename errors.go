package memberdraw

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode 错误代码类型
type ErrorCode string

// 错误代码常量
const (
	// 系统级错误 (1000-1999)
	ErrCodeSystem             ErrorCode = "RAFFLE_1000"
	ErrCodeConfigInvalid      ErrorCode = "RAFFLE_1001"
	ErrCodeStoreUnavailable   ErrorCode = "RAFFLE_1002"
	ErrCodeCircuitBreakerOpen ErrorCode = "RAFFLE_1003"

	// 抽号错误 (2000-2999)
	ErrCodeInvalidRange    ErrorCode = "RAFFLE_2000"
	ErrCodeInvalidInput    ErrorCode = "RAFFLE_2001"
	ErrCodeEmptyPool       ErrorCode = "RAFFLE_2002"
	ErrCodePoolExhausted   ErrorCode = "RAFFLE_2003"
	ErrCodeInvalidLayout   ErrorCode = "RAFFLE_2004"
	ErrCodeInvalidTuning   ErrorCode = "RAFFLE_2005"
	ErrCodeSessionNotReady ErrorCode = "RAFFLE_2006"
	ErrCodeInvalidState    ErrorCode = "RAFFLE_2007"
	ErrCodeBlacklistFile   ErrorCode = "RAFFLE_2008"

	// 状态相关错误 (6000-6999)
	ErrCodeSerializationFailed ErrorCode = "RAFFLE_6001"
)

// ErrorSeverity 错误严重程度
type ErrorSeverity string

const (
	SeverityCritical ErrorSeverity = "critical"
	SeverityHigh     ErrorSeverity = "high"
	SeverityMedium   ErrorSeverity = "medium"
	SeverityLow      ErrorSeverity = "low"
)

// RaffleError is the error type returned by every component of the draw engine
type RaffleError struct {
	Code        ErrorCode      `json:"code"`
	Message     string         `json:"message"`
	Details     string         `json:"details,omitempty"`
	Severity    ErrorSeverity  `json:"severity"`
	Timestamp   time.Time      `json:"timestamp"`
	Operation   string         `json:"operation,omitempty"`
	StackTrace  string         `json:"stack_trace,omitempty"`
	Cause       error          `json:"-"`
	Recoverable bool           `json:"recoverable"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Error 实现 error 接口
func (e *RaffleError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 实现 errors.Unwrap 接口
func (e *RaffleError) Unwrap() error { return e.Cause }

// Is 实现 errors.Is 接口, errors with the same code match
func (e *RaffleError) Is(target error) bool {
	if t, ok := target.(*RaffleError); ok {
		return e.Code == t.Code
	}
	return false
}

// Clone returns a copy that can be decorated without touching a predefined instance
func (e *RaffleError) Clone() *RaffleError {
	c := *e
	c.Timestamp = time.Now()
	if e.Metadata != nil {
		c.Metadata = make(map[string]any, len(e.Metadata))
		for k, v := range e.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// WithCause 添加原因错误
func (e *RaffleError) WithCause(cause error) *RaffleError {
	e.Cause = cause
	return e
}

// WithDetails 添加详细信息
func (e *RaffleError) WithDetails(details string) *RaffleError {
	e.Details = details
	return e
}

// WithOperation 添加操作信息
func (e *RaffleError) WithOperation(operation string) *RaffleError {
	e.Operation = operation
	return e
}

// WithMetadata 添加元数据
func (e *RaffleError) WithMetadata(key string, value any) *RaffleError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]any)
	}
	e.Metadata[key] = value
	return e
}

// WithStackTrace 添加堆栈跟踪
func (e *RaffleError) WithStackTrace() *RaffleError {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	e.StackTrace = string(buf[:n])
	return e
}

// NewError 创建新的错误
func NewError(code ErrorCode, message string) *RaffleError {
	return &RaffleError{
		Code:      code,
		Message:   message,
		Severity:  SeverityMedium,
		Timestamp: time.Now(),
	}
}

// NewRecoverableError creates an error the operator can fix by correcting the input
func NewRecoverableError(code ErrorCode, message string) *RaffleError {
	return &RaffleError{
		Code:        code,
		Message:     message,
		Severity:    SeverityLow,
		Timestamp:   time.Now(),
		Recoverable: true,
	}
}

// NewCriticalError 创建严重错误
func NewCriticalError(code ErrorCode, message string) *RaffleError {
	return &RaffleError{
		Code:      code,
		Message:   message,
		Severity:  SeverityCritical,
		Timestamp: time.Now(),
	}
}

// 预定义的错误实例
var (
	// 系统级错误
	ErrConfigInvalid      = NewCriticalError(ErrCodeConfigInvalid, "configuration is invalid")
	ErrStoreUnavailable   = NewError(ErrCodeStoreUnavailable, "settings store unavailable")
	ErrCircuitBreakerOpen = NewError(ErrCodeCircuitBreakerOpen, "circuit breaker is open")

	// 抽号错误
	ErrInvalidRange    = NewRecoverableError(ErrCodeInvalidRange, "invalid range: min must be non-negative and less than or equal to max")
	ErrInvalidInput    = NewRecoverableError(ErrCodeInvalidInput, "invalid input: expected a whole number")
	ErrEmptyPool       = NewRecoverableError(ErrCodeEmptyPool, "every number in range is excluded")
	ErrPoolExhausted   = NewCriticalError(ErrCodePoolExhausted, "number pool exhausted")
	ErrInvalidLayout   = NewError(ErrCodeInvalidLayout, "invalid slot layout")
	ErrInvalidTuning   = NewError(ErrCodeInvalidTuning, "invalid animation tuning")
	ErrSessionNotReady = NewRecoverableError(ErrCodeSessionNotReady, "no draw session: submit the setup first")
	ErrInvalidState    = NewError(ErrCodeInvalidState, "operation not allowed in current animation state")
	ErrBlacklistFile   = NewRecoverableError(ErrCodeBlacklistFile, "blacklist file could not be read")

	// 状态相关错误
	ErrSerializationFailed = NewError(ErrCodeSerializationFailed, "serialization failed")
)

// newError decorates a copy of a predefined error
func newError(base *RaffleError, operation, details string) *RaffleError {
	e := base.Clone().WithOperation(operation)
	if details != "" {
		e.WithDetails(details)
	}
	if e.Severity == SeverityCritical {
		e.WithStackTrace()
	}
	return e
}

// IsRecoverable reports whether the operator can recover from err by re-entering the setup input
func IsRecoverable(err error) bool {
	var re *RaffleError
	if errors.As(err, &re) {
		return re.Recoverable
	}
	return false
}

// UserMessage renders err as the single line shown on the kiosk
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var re *RaffleError
	if errors.As(err, &re) {
		if re.Details != "" {
			return fmt.Sprintf("%s (%s)", re.Message, re.Details)
		}
		return re.Message
	}
	return err.Error()
}

// IsRetryableError 检查是否为可重试错误
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"network is unreachable",
		"temporary failure",
		"server closed",
		"broken pipe",
		"i/o timeout",
		"dial tcp",
		"read tcp",
		"write tcp",
		"connection timed out",
		"no route to host",
		"redis: connection pool timeout",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}
