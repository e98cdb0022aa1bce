package signauth

import (
	"net/http"
	"strings"
)

// CredentialSource 提供从请求中读取凭据的能力。
// 每个方法返回对应名称的值，以及一个 bool 表示该值是否存在。
type CredentialSource interface {
	// Query 以大小写不敏感方式读取 URL 上的参数。同名参数有多个时，返回第一个。
	Query(name string) (string, bool)

	// Header 读取 HTTP 头，大小写不敏感。同名字段有多个时，返回第一个。
	Header(name string) (string, bool)

	// Cookie 读取指定名称的 Cookie 的值。
	Cookie(name string) (string, bool)
}

// RequestSource 基于 [*http.Request] 实现 [CredentialSource] 。
type RequestSource struct {
	r     *http.Request
	query QueryString
}

var _ CredentialSource = (*RequestSource)(nil)

// NewRequestSource 创建基于给定请求的 [RequestSource] 。
func NewRequestSource(r *http.Request) *RequestSource {
	return &RequestSource{
		r:     r,
		query: ParseQueryString(r.URL.RawQuery),
	}
}

// Query 实现 [CredentialSource.Query] 。
func (s *RequestSource) Query(name string) (string, bool) {
	return s.query.Get(name)
}

// Header 实现 [CredentialSource.Header] 。
func (s *RequestSource) Header(name string) (string, bool) {
	values := s.r.Header.Values(name)
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// Cookie 实现 [CredentialSource.Cookie] 。返回的值经过 [DecodeCookieValue] 解码。
func (s *RequestSource) Cookie(name string) (string, bool) {
	c, err := s.r.Cookie(name)
	if err != nil {
		return "", false
	}
	return DecodeCookieValue(c.Value), true
}

// ClientIP 获取发起 HTTP 请求的客户端 IP 地址，用于日志。
// 优先使用 X-Forwarded-For 头的第一段，否则使用 [http.Request.RemoteAddr] 。
func ClientIP(r *http.Request) string {
	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		ip = r.RemoteAddr
	}

	// X-Forwarded-For 头给的第一个 IP 是客户端原始 IP 。
	ip = strings.TrimSpace(strings.Split(ip, ",")[0])

	if strings.HasPrefix(ip, "[") {
		// “[IPv6]:PORT”或“[IPv6]”，去掉端口和方括号。
		if end := strings.Index(ip, "]"); end > 0 {
			ip = ip[1:end]
		}
	} else if strings.Count(ip, ":") == 1 {
		// 只有一个冒号的是“IP:PORT”，去掉端口。多个冒号的是没有端口的 IPv6 。
		ip = ip[:strings.Index(ip, ":")]
	}

	// ipv6的本地地址统一转成"127.0.0.1"，以便于统计分析。
	if ip == "::1" {
		ip = "127.0.0.1"
	}

	return ip
}
