package signauth

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/cmstar/go-logx"
)

// CookieDecision 是 Cookie 方案的授权校验结果。
type CookieDecision struct {
	Decision

	// Username 验证通过时，为 Cookie 中的用户名。
	Username string

	// Renewed 验证通过且开启了续期时，为重新签发的 Cookie ，否则为 nil 。
	Renewed *http.Cookie
}

// CookieAuthorizer 实现 Cookie 签名方案的授权校验。
// 创建后不可修改，可并发使用。
type CookieAuthorizer struct {
	opts      CookieOptions
	body      []byte
	now       func() time.Time
	checkTime TimeCheckerFunc
	allowed   map[string]struct{}
	logger    logx.Logger
}

// NewCookieAuthorizer 创建 [CookieAuthorizer] 。选项不正确时返回 [*ConfigError] 。
// logger 用于记录授权结果，可为 nil 表示不记录日志。
func NewCookieAuthorizer(opts CookieOptions, logger logx.Logger) (*CookieAuthorizer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	body, err := resolveBody(opts.UnauthorizedJSON, opts.UnauthorizedBody)
	if err != nil {
		return nil, err
	}

	allowed := make(map[string]struct{}, len(opts.AllowedUsers))
	for _, u := range opts.AllowedUsers {
		allowed[strings.ToLower(u)] = struct{}{}
	}

	// 复制一份，避免外部修改影响授权器。
	opts.AllowedUsers = append([]string(nil), opts.AllowedUsers...)

	return &CookieAuthorizer{
		opts:      opts,
		body:      body,
		now:       nowFunc(opts.Now),
		checkTime: MaxAgeTimeChecker(opts.ExpireSeconds, opts.MaxSkewSeconds),
		allowed:   allowed,
		logger:    logger,
	}, nil
}

// Options 返回创建时使用的选项。
func (a *CookieAuthorizer) Options() CookieOptions {
	return a.opts
}

// Authorize 校验请求中的 Cookie 。
// routeUsers 是路由上指定的用户名列表，不为空时覆盖 [CookieOptions.AllowedUsers] 。
//
// 流程：
//  1. 读取 Cookie ，按分隔符拆分为用户名、时间戳、签名三部分；
//  2. 时间戳需在有效期内；
//  3. 重新计算签名，与 Cookie 中的签名比较（大小写不敏感）；
//  4. 若有用户名列表，用户名需在列表中（大小写不敏感）；
//  5. 通过后，若开启了续期，使用当前时间重新签发 Cookie 。
func (a *CookieAuthorizer) Authorize(src CredentialSource, routeUsers []string) CookieDecision {
	value, ok := src.Cookie(a.opts.CookieName)
	if !ok {
		return CookieDecision{Decision: deny(ReasonMissingCookie)}
	}

	parts, reason := ParseCookieValue(value, a.opts.Separator)
	if reason != ReasonNone {
		return CookieDecision{Decision: deny(reason)}
	}

	if reason := a.checkTime(a.now().Unix(), parts.Timestamp); reason != ReasonNone {
		return CookieDecision{Decision: deny(reason)}
	}

	expected := CookieSign(a.opts.Secret, parts.Username, parts.RawTime, a.opts.Separator)
	supplied := strings.ToLower(parts.Sign)
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(expected)) != 1 {
		return CookieDecision{Decision: deny(ReasonSignatureMismatch)}
	}

	if !a.userAllowed(parts.Username, routeUsers) {
		return CookieDecision{Decision: deny(ReasonUserNotAllowed)}
	}

	res := CookieDecision{
		Decision: allow(),
		Username: parts.Username,
	}

	if a.opts.RenewOnSuccess {
		res.Renewed = a.IssueCookie(parts.Username)
	}

	return res
}

func (a *CookieAuthorizer) userAllowed(username string, routeUsers []string) bool {
	if len(routeUsers) > 0 {
		return containsFold(routeUsers, username)
	}

	if len(a.allowed) == 0 {
		return true
	}

	_, ok := a.allowed[strings.ToLower(username)]
	return ok
}

// IssueCookie 使用当前时间为给定的用户签发 Cookie ，过期时间为当前时间加上有效期。
// 可用于登录过程。 Cookie 的值经过 [EncodeCookieValue] 编码。
func (a *CookieAuthorizer) IssueCookie(username string) *http.Cookie {
	now := a.now()
	value := MakeCookieValue(a.opts.Secret, username, UnixTimestamp(now), a.opts.Separator)
	expire := time.Duration(a.opts.ExpireSeconds * float64(time.Second))
	attr := a.opts.Cookie

	return &http.Cookie{
		Name:     a.opts.CookieName,
		Value:    EncodeCookieValue(value),
		Path:     attr.Path,
		Domain:   attr.Domain,
		Expires:  now.Add(expire),
		MaxAge:   int(a.opts.ExpireSeconds),
		HttpOnly: attr.HttpOnly,
		Secure:   attr.Secure,
		SameSite: attr.SameSite,
	}
}

// AuthorizeRequest 使用 [*http.Request] 进行校验，并记录日志。
func (a *CookieAuthorizer) AuthorizeRequest(r *http.Request, routeUsers []string) CookieDecision {
	d := a.Authorize(NewRequestSource(r), routeUsers)
	if d.Allowed {
		logDecision(a.logger, "cookie", r, d.Decision, "User", d.Username)
	} else {
		logDecision(a.logger, "cookie", r, d.Decision)
	}
	return d
}

// Deny 输出验证失败的回执。
func (a *CookieAuthorizer) Deny(w http.ResponseWriter) {
	WriteUnauthorized(w, a.opts.UnauthorizedStatusCode, a.body)
}

// Middleware 返回 net/http 中间件。 marker 用于判断路由是否需要 Cookie 授权，不需要的直接放行；
// 标记上的用户名列表覆盖全局的列表。
//
// 验证通过后，用户名通过 [WithIdentity] 放入请求的 [context.Context] ，可使用 [UsernameFromContext] 读取，
// 与 [CookieOptions.UserNameItemKey] 无关；
// 若有续期的 Cookie ，将其写入回执。
func (a *CookieAuthorizer) Middleware(marker Marker) func(http.Handler) http.Handler {
	if marker == nil {
		panic("signauth: marker must not be nil")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mark, ok := marker.Mark(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			d := a.AuthorizeRequest(r, mark.Users)
			if !d.Allowed {
				a.Deny(w)
				return
			}

			if d.Renewed != nil {
				http.SetCookie(w, d.Renewed)
			}

			ctx := WithIdentity(r.Context(), Identity{Username: d.Username, Scheme: "cookie"})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
