package junction

import (
	"errors"
	"fmt"
)

var (
	ErrInvariantViolation = errors.New("intersection invariant violated")
	ErrNoRandomSource     = errors.New("intersection has no random source")
)

// InvariantError 内部不变量被破坏
// 说明：说明运动规则或状态维护存在缺陷，调用方应当视为致命错误，不应尝试修正后继续
type InvariantError struct {
	Tick   int32  // 发生错误的步数
	Reason string // 具体原因
}

func newInvariantError(tick int32, format string, args ...any) *InvariantError {
	return &InvariantError{Tick: tick, Reason: fmt.Sprintf(format, args...)}
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%v at tick %d: %s", ErrInvariantViolation, e.Tick, e.Reason)
}

func (e *InvariantError) Unwrap() error {
	return ErrInvariantViolation
}
