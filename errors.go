package signauth

import (
	"errors"
	"fmt"

	"github.com/cmstar/go-errx"
)

/*
当前文件提供相关错误类型。
验证不通过不是错误，使用 DenyReason 描述；只有配置错误和直接调用的 API （如 SignURL ）会返回 error 。
*/

// DenyReason 表示拒绝一个请求的原因。仅用于日志，不会体现在返回给请求者的内容里。
type DenyReason int

const (
	ReasonNone               DenyReason = iota // 没有拒绝，验证通过。
	ReasonMissingCredentials                   // 缺少 timestamp/nonce/signature 之一。
	ReasonMissingExtra                         // 配置了额外参数，但请求没有提供。
	ReasonMissingCookie                        // 缺少 Cookie 。
	ReasonMalformed                            // Cookie 格式错误。
	ReasonInvalidTimestamp                     // 时间戳不是整数。
	ReasonExpired                              // 超出有效期。
	ReasonFutureTimestamp                      // 时间戳超前当前时间过多，仅在开启 MaxSkewSeconds 时出现。
	ReasonSignatureMismatch                    // 签名不正确。
	ReasonUserNotAllowed                       // 用户名不在允许列表中。
)

var reasonNames = [...]string{
	ReasonNone:               "none",
	ReasonMissingCredentials: "missing credentials",
	ReasonMissingExtra:       "missing extra parameter",
	ReasonMissingCookie:      "cookie is missing",
	ReasonMalformed:          "cookie format error",
	ReasonInvalidTimestamp:   "invalid timestamp",
	ReasonExpired:            "expired",
	ReasonFutureTimestamp:    "timestamp in the future",
	ReasonSignatureMismatch:  "signature error",
	ReasonUserNotAllowed:     "user not allowed",
}

// String 实现 [fmt.Stringer] 。
func (r DenyReason) String() string {
	if r >= 0 && int(r) < len(reasonNames) {
		return reasonNames[r]
	}
	return fmt.Sprintf("DenyReason(%d)", int(r))
}

// ConfigError 表示选项配置不正确。在创建授权器时返回，应在开始处理请求前处理掉。
type ConfigError struct {
	errx.ErrorCause

	Field   string // 出错的选项名称。
	Message string // 错误描述。
}

var _ error = (*ConfigError)(nil)

func newConfigError(field, message string, args ...any) *ConfigError {
	if len(args) > 0 {
		message = fmt.Sprintf(message, args...)
	}
	return &ConfigError{Field: field, Message: message}
}

// Error 实现 error 接口。
func (e *ConfigError) Error() string {
	msg := "signauth: invalid option " + e.Field + ": " + e.Message
	if e.Err != nil {
		msg += ":: " + e.Err.Error()
	}
	return msg
}

// Unwrap 返回引起此错误的错误，可能为 nil 。
func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	// ErrInvalidURL 表示给 SignURL 的地址不能被解析。
	ErrInvalidURL = errors.New("invalid URL format")

	// ErrMissingExtra 表示选项指定了额外参数，但给 SignURL 的地址上没有此参数（或其值为空），
	// 这样生成的签名远端无法验证。
	ErrMissingExtra = errors.New("the URL must contain the extra parameter")
)

// SignURLError 记录 SignURL 的错误。可通过 [errors.Is] 判断其是否为 [ErrInvalidURL] 或 [ErrMissingExtra] 。
type SignURLError struct {
	URL   string // 给定的地址。
	Kind  error  // ErrInvalidURL 或 ErrMissingExtra 。
	Cause error  // 底层的错误，可能为 nil 。
}

func (e *SignURLError) Error() string {
	msg := "signauth: sign " + e.URL + ": " + e.Kind.Error()
	if e.Cause != nil {
		msg += ":: " + e.Cause.Error()
	}
	return msg
}

// Is 支持 [errors.Is] 。
func (e *SignURLError) Is(target error) bool {
	return target == e.Kind
}

// Unwrap 返回底层的错误。
func (e *SignURLError) Unwrap() error {
	return e.Cause
}
