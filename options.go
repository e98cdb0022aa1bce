package signauth

import (
	"encoding/json"
	"math"
	"net/http"
	"strings"
	"time"
)

// UnauthorizedResponse 是验证失败时默认返回的 JSON 结构。
type UnauthorizedResponse struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Msg     string `json:"msg"`
}

// DefaultUnauthorizedResponse 返回默认的验证失败的返回值：
//
//	{"success":false,"status":10000,"msg":"Unauthorized"}
func DefaultUnauthorizedResponse() UnauthorizedResponse {
	return UnauthorizedResponse{
		Success: false,
		Status:  10000,
		Msg:     "Unauthorized",
	}
}

// SignOptions 是 URL 签名方案（ query/header 方案）的选项。
// 用于创建 [SignAuthorizer] ，也用于 [SignURL] 。
type SignOptions struct {
	// Secret 是签名用的共享密钥，不能为空。
	Secret string

	// IncludePath 指定请求的路径（以 / 开头）是否参与签名。
	IncludePath bool

	// ExpireSeconds 签名的有效期，单位是秒。当前时间减去签名时间戳大于此值时，签名过期。必须大于 0 。
	ExpireSeconds float64

	// MaxSkewSeconds 若大于 0 ，则签名时间戳超前当前时间多于此值时拒绝请求。
	// 默认为 0 ，不限制超前的时间戳。
	MaxSkewSeconds float64

	// 时间戳、随机串、签名的参数名称。
	TimestampName string
	NonceName     string
	SignatureName string

	// ExtraName 额外参数的名称。不为空时，此参数的值参与签名，且请求必须提供此参数。
	ExtraName string

	// UseHeader 为 true 时从 HTTP 头读取各参数，否则从 URL 的 query string 读取。两者不会同时读取。
	UseHeader bool

	// UnauthorizedStatusCode 验证失败时返回的 HTTP 状态码。
	UnauthorizedStatusCode int

	// UnauthorizedJSON 验证失败时返回的 body ，优先于 UnauthorizedBody 。
	UnauthorizedJSON string

	// UnauthorizedBody 验证失败时返回的数据，会被序列化为 JSON 。仅在 UnauthorizedJSON 为空时使用。
	UnauthorizedBody any

	// Now 用于获取当前时间。为 nil 时使用 [time.Now] 。
	Now func() time.Time
}

// DefaultSignOptions 返回 [SignOptions] 的默认值。
func DefaultSignOptions() SignOptions {
	return SignOptions{
		Secret:                 "SignAuthorizationMiddleware",
		ExpireSeconds:          5,
		TimestampName:          "timestamp",
		NonceName:              "nonce",
		SignatureName:          "signature",
		UnauthorizedStatusCode: http.StatusUnauthorized,
		UnauthorizedBody:       DefaultUnauthorizedResponse(),
	}
}

// Validate 校验选项。若有错误，返回 [*ConfigError] 。
func (o SignOptions) Validate() error {
	if o.Secret == "" {
		return newConfigError("Secret", "cannot be empty")
	}

	if err := validateExpire("ExpireSeconds", o.ExpireSeconds); err != nil {
		return err
	}

	if err := validateSkew(o.MaxSkewSeconds); err != nil {
		return err
	}

	names := []struct{ field, v string }{
		{"TimestampName", o.TimestampName},
		{"NonceName", o.NonceName},
		{"SignatureName", o.SignatureName},
	}
	for _, n := range names {
		if strings.TrimSpace(n.v) == "" {
			return newConfigError(n.field, "cannot be empty")
		}
	}

	if err := validateStatusCode(o.UnauthorizedStatusCode); err != nil {
		return err
	}

	_, err := resolveBody(o.UnauthorizedJSON, o.UnauthorizedBody)
	return err
}

// CookieAttributes 是签发 Cookie 时使用的属性。
type CookieAttributes struct {
	Path     string
	Domain   string
	HttpOnly bool
	Secure   bool
	SameSite http.SameSite
}

// CookieOptions 是 Cookie 签名方案的选项，用于创建 [CookieAuthorizer] 。
type CookieOptions struct {
	// Secret 是签名用的共享密钥，不能为空。
	Secret string

	// CookieName 是 Cookie 的名称。
	CookieName string

	// Separator 是 Cookie 的值中各部分的分隔符。
	Separator string

	// ExpireSeconds Cookie 的有效期，单位是秒。必须大于 0 。
	ExpireSeconds float64

	// MaxSkewSeconds 同 [SignOptions.MaxSkewSeconds] 。
	MaxSkewSeconds float64

	// RenewOnSuccess 为 true 时，每次验证通过都会使用新的时间戳重新签发 Cookie 。
	RenewOnSuccess bool

	// Cookie 签发 Cookie 时使用的属性。
	Cookie CookieAttributes

	// AllowedUsers 允许访问的用户名，大小写不敏感。为空时不限制。
	// 路由上指定的用户名列表会覆盖此列表。
	AllowedUsers []string

	// UserNameItemKey 是验证通过后，用户名在 echo.Context 的键值存储里的名称，仅用于 echoauth 。
	// net/http 的 [CookieAuthorizer.Middleware] 不使用此名称，用户名通过 [UsernameFromContext] 读取。
	UserNameItemKey string

	// UnauthorizedStatusCode 验证失败时返回的 HTTP 状态码。
	UnauthorizedStatusCode int

	// UnauthorizedJSON 验证失败时返回的 body ，优先于 UnauthorizedBody 。
	UnauthorizedJSON string

	// UnauthorizedBody 验证失败时返回的数据，会被序列化为 JSON 。仅在 UnauthorizedJSON 为空时使用。
	UnauthorizedBody any

	// Now 用于获取当前时间。为 nil 时使用 [time.Now] 。
	Now func() time.Time
}

// DefaultCookieOptions 返回 [CookieOptions] 的默认值。
func DefaultCookieOptions() CookieOptions {
	return CookieOptions{
		Secret:         "CookieAuthorizationMiddleware",
		CookieName:     "SignAuthorization",
		Separator:      "|",
		ExpireSeconds:  3600,
		RenewOnSuccess: true,
		Cookie: CookieAttributes{
			Path:     "/",
			HttpOnly: true,
		},
		UserNameItemKey:        "SignAuthorizationUserName",
		UnauthorizedStatusCode: http.StatusUnauthorized,
		UnauthorizedBody:       DefaultUnauthorizedResponse(),
	}
}

// Validate 校验选项。若有错误，返回 [*ConfigError] 。
func (o CookieOptions) Validate() error {
	if o.Secret == "" {
		return newConfigError("Secret", "cannot be empty")
	}

	if o.CookieName == "" {
		return newConfigError("CookieName", "cannot be empty")
	}

	if o.Separator == "" {
		return newConfigError("Separator", "cannot be empty")
	}

	if err := validateExpire("ExpireSeconds", o.ExpireSeconds); err != nil {
		return err
	}

	if err := validateSkew(o.MaxSkewSeconds); err != nil {
		return err
	}

	if strings.TrimSpace(o.UserNameItemKey) == "" {
		return newConfigError("UserNameItemKey", "cannot be empty")
	}

	if err := validateStatusCode(o.UnauthorizedStatusCode); err != nil {
		return err
	}

	_, err := resolveBody(o.UnauthorizedJSON, o.UnauthorizedBody)
	return err
}

func validateExpire(field string, v float64) error {
	if math.IsNaN(v) || v <= 0 {
		return newConfigError(field, "must be greater than 0, got %v", v)
	}
	return nil
}

func validateSkew(v float64) error {
	if math.IsNaN(v) || v < 0 {
		return newConfigError("MaxSkewSeconds", "must not be negative, got %v", v)
	}
	return nil
}

func validateStatusCode(code int) error {
	if code < 100 || code > 599 {
		return newConfigError("UnauthorizedStatusCode", "invalid HTTP status code %d", code)
	}
	return nil
}

// resolveBody 得到验证失败时返回的 body 。 literal 不为空时直接使用，否则序列化 v 。
func resolveBody(literal string, v any) ([]byte, error) {
	if literal != "" {
		return []byte(literal), nil
	}

	if v == nil {
		v = DefaultUnauthorizedResponse()
	}

	body, err := json.Marshal(v)
	if err != nil {
		e := newConfigError("UnauthorizedBody", "json encoding error")
		e.Err = err
		return nil, e
	}
	return body, nil
}

func nowFunc(f func() time.Time) func() time.Time {
	if f == nil {
		return time.Now
	}
	return f
}
