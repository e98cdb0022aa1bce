package signauth

import (
	"net/http"
	"strconv"
)

const (
	// ContentTypeJson 对应 Content-Type: application/json 的值。
	ContentTypeJson = "application/json"

	// HttpHeaderContentType 对应 HTTP 头中的 Content-Type 字段。
	HttpHeaderContentType = "Content-Type"
)

// WriteUnauthorized 输出验证失败的回执： status 状态码， JSON 类型的 body 。
// 不论因何种原因验证失败，回执的内容都是一样的，避免泄露验证细节。
func WriteUnauthorized(w http.ResponseWriter, status int, body []byte) {
	h := w.Header()
	h.Set(HttpHeaderContentType, ContentTypeJson)
	h.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	w.Write(body)
}
