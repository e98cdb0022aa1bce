// Package echoauth 将 signauth 的授权校验适配为 echo 的中间件。
package echoauth

import (
	"github.com/cmstar/go-signauth"
	"github.com/labstack/echo/v4"
)

// RouteMarks 以 echo 的路由模板（ [echo.Context.Path] ，如“/users/:id”）为 key 记录授权标记。
// 为 nil 时表示所有路由都需要授权。
type RouteMarks map[string]signauth.Mark

// Mark 返回当前路由上的标记。若路由不需要授权，返回 false 。
func (m RouteMarks) Mark(c echo.Context) (signauth.Mark, bool) {
	if m == nil {
		return signauth.Mark{}, true
	}

	v, ok := m[c.Path()]
	return v, ok
}

// SignMiddleware 返回使用 URL 签名方案授权的 echo 中间件。
// 通过 [echo.Echo.Use] 挂载时，路由已完成匹配，可按路由模板判断是否需要授权。
func SignMiddleware(a *signauth.SignAuthorizer, marks RouteMarks) echo.MiddlewareFunc {
	if a == nil {
		panic("echoauth: authorizer must not be nil")
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := marks.Mark(c); !ok {
				return next(c)
			}

			if d := a.AuthorizeRequest(c.Request()); !d.Allowed {
				a.Deny(c.Response())
				return nil
			}

			return next(c)
		}
	}
}

// CookieMiddleware 返回使用 Cookie 方案授权的 echo 中间件。
// 验证通过后，用户名以 [signauth.CookieOptions.UserNameItemKey] 为 key 存入 [echo.Context] ，
// 同时放入请求的 context ，可通过 [signauth.UsernameFromContext] 读取。
func CookieMiddleware(a *signauth.CookieAuthorizer, marks RouteMarks) echo.MiddlewareFunc {
	if a == nil {
		panic("echoauth: authorizer must not be nil")
	}

	itemKey := a.Options().UserNameItemKey

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			mark, ok := marks.Mark(c)
			if !ok {
				return next(c)
			}

			r := c.Request()
			d := a.AuthorizeRequest(r, mark.Users)
			if !d.Allowed {
				a.Deny(c.Response())
				return nil
			}

			if d.Renewed != nil {
				c.SetCookie(d.Renewed)
			}

			c.Set(itemKey, d.Username)
			ctx := signauth.WithIdentity(r.Context(), signauth.Identity{Username: d.Username, Scheme: "cookie"})
			c.SetRequest(r.WithContext(ctx))
			return next(c)
		}
	}
}
