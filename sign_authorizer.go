package signauth

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"time"

	"github.com/cmstar/go-logx"
)

// Decision 是一次授权校验的结果。
type Decision struct {
	Allowed bool       // 是否通过。
	Reason  DenyReason // 未通过时，记录原因。
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason DenyReason) Decision {
	return Decision{Reason: reason}
}

// SignAuthorizer 实现 URL 签名方案（ query/header 方案）的授权校验。
// 创建后不可修改，可并发使用。
type SignAuthorizer struct {
	opts      SignOptions
	body      []byte
	now       func() time.Time
	checkTime TimeCheckerFunc
	logger    logx.Logger
}

// NewSignAuthorizer 创建 [SignAuthorizer] 。选项不正确时返回 [*ConfigError] 。
// logger 用于记录授权结果，可为 nil 表示不记录日志。
func NewSignAuthorizer(opts SignOptions, logger logx.Logger) (*SignAuthorizer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	body, err := resolveBody(opts.UnauthorizedJSON, opts.UnauthorizedBody)
	if err != nil {
		return nil, err
	}

	return &SignAuthorizer{
		opts:      opts,
		body:      body,
		now:       nowFunc(opts.Now),
		checkTime: MaxAgeTimeChecker(opts.ExpireSeconds, opts.MaxSkewSeconds),
		logger:    logger,
	}, nil
}

// Options 返回创建时使用的选项。
func (a *SignAuthorizer) Options() SignOptions {
	return a.opts
}

// Authorize 校验给定请求凭据。 path 是请求的路径，仅在 [SignOptions.IncludePath] 为 true 时参与签名。
//
// 流程：
//  1. 从 query string 或 HTTP 头（由 [SignOptions.UseHeader] 决定）读取时间戳、随机串、签名，缺一不可；
//  2. 时间戳需在有效期内；
//  3. 若配置了额外参数，请求必须提供，否则直接拒绝；
//  4. 重新计算签名，与请求给定的签名逐字节比较（大小写敏感）。
func (a *SignAuthorizer) Authorize(src CredentialSource, path string) Decision {
	get := src.Query
	if a.opts.UseHeader {
		get = src.Header
	}

	timestamp, ok1 := get(a.opts.TimestampName)
	nonce, ok2 := get(a.opts.NonceName)
	sign, ok3 := get(a.opts.SignatureName)
	if !ok1 || !ok2 || !ok3 || timestamp == "" || nonce == "" || sign == "" {
		return deny(ReasonMissingCredentials)
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return deny(ReasonInvalidTimestamp)
	}

	if reason := a.checkTime(a.now().Unix(), ts); reason != ReasonNone {
		return deny(reason)
	}

	extra := ""
	if a.opts.ExtraName != "" {
		var ok bool
		extra, ok = get(a.opts.ExtraName)

		// 要求额外参数参与验签但请求没有提供，不能跳过，直接失败。
		if !ok || extra == "" {
			return deny(ReasonMissingExtra)
		}
	}

	if !a.opts.IncludePath {
		path = ""
	}

	expected := Sign(a.opts.Secret, timestamp, nonce, extra, path)
	if subtle.ConstantTimeCompare([]byte(sign), []byte(expected)) != 1 {
		return deny(ReasonSignatureMismatch)
	}

	return allow()
}

// AuthorizeRequest 使用 [*http.Request] 进行校验，并记录日志。
func (a *SignAuthorizer) AuthorizeRequest(r *http.Request) Decision {
	d := a.Authorize(NewRequestSource(r), r.URL.Path)
	logDecision(a.logger, "sign", r, d)
	return d
}

// Deny 输出验证失败的回执。
func (a *SignAuthorizer) Deny(w http.ResponseWriter) {
	WriteUnauthorized(w, a.opts.UnauthorizedStatusCode, a.body)
}

// Middleware 返回 net/http 中间件。 marker 用于判断路由是否需要签名授权，不需要的直接放行。
// 验证失败时输出配置的状态码和 JSON body ，不再调用后续的处理过程。
func (a *SignAuthorizer) Middleware(marker Marker) func(http.Handler) http.Handler {
	if marker == nil {
		panic("signauth: marker must not be nil")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := marker.Mark(r); !ok {
				next.ServeHTTP(w, r)
				return
			}

			if d := a.AuthorizeRequest(r); !d.Allowed {
				a.Deny(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
