package signauth

import (
	"net/http"

	"github.com/cmstar/go-logx"
)

// logDecision 记录授权结果。拒绝时使用 WARN 级别，通过时使用 DEBUG 级别。
// 不记录密钥和签名。
func logDecision(logger logx.Logger, scheme string, r *http.Request, d Decision, kv ...any) {
	if logger == nil {
		return
	}

	msg := []any{
		"Scheme", scheme,
		"Path", r.URL.Path,
		"IP", ClientIP(r),
	}
	msg = append(msg, kv...)

	if d.Allowed {
		logger.Log(logx.LevelDebug, "authorized", msg...)
		return
	}

	msg = append(msg, "Reason", d.Reason.String())
	logger.Log(logx.LevelWarn, "unauthorized", msg...)
}
