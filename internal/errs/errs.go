package errs

import "errors"

// 核心操作统一返回可机读的错误种类，HTTP 层据此映射状态码。
var (
	ErrValidation             = errors.New("validation error")
	ErrSignature              = errors.New("signature verify failed")
	ErrNotFound               = errors.New("not found")
	ErrNoMatchingAttempt      = errors.New("no matching in-progress attempt")
	ErrDuplicateParticipation = errors.New("duplicate participation")
	ErrIdentityExhausted      = errors.New("virtual identity generation exhausted")
	ErrUnsupportedPlatform    = errors.New("unsupported platform")
	ErrManualPlatform         = errors.New("platform does not support catalog sync")
	ErrTaskDisabled           = errors.New("task disabled")
	ErrTransaction            = errors.New("transaction error")
)

// Is 便捷封装，避免调用方到处 import errors。
func Is(err, target error) bool { return errors.Is(err, target) }
