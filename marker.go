package signauth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Mark 是路由上的授权标记。
type Mark struct {
	// Users 是路由上指定的允许访问的用户名，仅用于 Cookie 方案。
	// 不为空时覆盖 [CookieOptions.AllowedUsers] 。
	Users []string
}

// Marker 用于判断一个请求所对应的路由是否需要授权。
// 路由层在注册路由时绑定标记，授权中间件通过此接口查询，不关心路由的内部实现。
type Marker interface {
	// Mark 返回请求对应路由上的标记。若路由不需要授权，返回 false 。
	Mark(r *http.Request) (Mark, bool)
}

// MarkerFunc 将函数包装为 [Marker] 。
type MarkerFunc func(r *http.Request) (Mark, bool)

// Mark 实现 [Marker.Mark] 。
func (f MarkerFunc) Mark(r *http.Request) (Mark, bool) {
	return f(r)
}

// MarkAll 标记所有请求均需要授权。
// 适用于中间件只挂在需要授权的路由上的情况，如 chi 的 Router.With 。
var MarkAll Marker = MarkUsers()

// MarkUsers 标记所有请求均需要授权，并使用给定的用户名列表。
func MarkUsers(users ...string) Marker {
	m := Mark{Users: users}
	return MarkerFunc(func(*http.Request) (Mark, bool) {
		return m, true
	})
}

// ChiRouteMarks 以 chi 的路由模板（如“/users/{id}”）为 key 记录标记。
//
// 路由模板在 chi 完成路由匹配后才可用，所以中间件需通过 Router.With 、 Router.Group 或子路由挂载，
// 不能通过顶层路由的 Router.Use 挂载。
type ChiRouteMarks map[string]Mark

var _ Marker = ChiRouteMarks(nil)

// Mark 实现 [Marker.Mark] 。
func (m ChiRouteMarks) Mark(r *http.Request) (Mark, bool) {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return Mark{}, false
	}

	v, ok := m[rctx.RoutePattern()]
	return v, ok
}
