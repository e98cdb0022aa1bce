package signauth

import (
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

/* 当前文件提供签名算法的实现。 */

// Sign 计算 URL 签名方案（ query/header 方案）的签名。
//
// 签名算法：
//  1. 依次收集 secret 、 timestamp 、 nonce ，以及非空的 extra 和 path ；
//  2. 按 UTF-8 字节顺序（ordinal）升序排列，不是字典顺序，也不忽略大小写；
//  3. 排序后的各部分紧密拼接（无分隔符），计算 SHA-1 ；
//  4. 以小写 HEX 格式输出，共 40 个字符。
//
// extra 和 path 为空字符串时表示“未提供”，不参与排序。
// 注意这与“提供了空字符串”不同：空字符串若参与排序，会改变拼接结果。
func Sign(secret, timestamp, nonce, extra, path string) string {
	fields := make([]string, 0, 5)
	fields = append(fields, secret, timestamp, nonce)

	if extra != "" {
		fields = append(fields, extra)
	}

	if path != "" {
		fields = append(fields, path)
	}

	return SignFields(fields...)
}

// SignFields 对给定的全部字段（包括空字符串）按字节顺序排序后拼接，返回其 SHA-1 的小写 HEX 值。
// 结果与字段给定的顺序无关。
// [Sign] 在此基础上处理可选字段的省略规则。
func SignFields(fields ...string) string {
	sorted := make([]string, len(fields))
	copy(sorted, fields)

	// Go 的字符串比较就是字节比较，等价于 ordinal 比较。
	sort.Strings(sorted)

	return sha1Hex(strings.Join(sorted, ""))
}

// CookieSign 计算 Cookie 方案的签名。
// 不排序、不使用 nonce ，固定按 secret 、 username 、 timestamp 的顺序，以 sep 拼接后计算 SHA-1 。
func CookieSign(secret, username, timestamp, sep string) string {
	b := new(strings.Builder)
	b.WriteString(secret)
	b.WriteString(sep)
	b.WriteString(username)
	b.WriteString(sep)
	b.WriteString(timestamp)
	return sha1Hex(b.String())
}

// MakeCookieValue 生成 Cookie 的值，格式为：
//
//	{username}{sep}{timestamp}{sep}{sign}
//
// 用于登录过程签发 Cookie ，也用于验证成功后的续期。
func MakeCookieValue(secret, username, timestamp, sep string) string {
	sign := CookieSign(secret, username, timestamp, sep)
	return username + sep + timestamp + sep + sign
}

// EncodeCookieValue 对 Cookie 的值做百分号编码，使非 ASCII 的用户名等字符可以放入 Cookie 。
func EncodeCookieValue(value string) string {
	return url.PathEscape(value)
}

// DecodeCookieValue 是 [EncodeCookieValue] 的逆过程。值不是合法的编码时，原样返回。
func DecodeCookieValue(value string) string {
	v, err := url.PathUnescape(value)
	if err != nil {
		return value
	}
	return v
}

// CookieParts 是 Cookie 值拆分后的三个部分。
type CookieParts struct {
	Username  string // 用户名。
	Timestamp int64  // 签发时的 UNIX 时间戳，单位是秒。
	RawTime   string // 时间戳的原文，签名基于原文计算。
	Sign      string // 签名。
}

// ParseCookieValue 按 sep 拆分 Cookie 的值。
// 必须恰好得到3个非空（不是纯空白）的部分，且时间戳是整数，否则返回对应的 [DenyReason] 。
// 解析成功时返回 [ReasonNone] 。
func ParseCookieValue(value, sep string) (CookieParts, DenyReason) {
	parts := strings.Split(value, sep)
	if len(parts) != 3 {
		return CookieParts{}, ReasonMalformed
	}

	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return CookieParts{}, ReasonMalformed
		}
	}

	ts, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return CookieParts{}, ReasonInvalidTimestamp
	}

	return CookieParts{
		Username:  parts[0],
		Timestamp: ts,
		RawTime:   parts[1],
		Sign:      parts[2],
	}, ReasonNone
}

// NewNonce 生成一个随机串，为 32 个字符的小写 HEX 。可并发调用。
func NewNonce() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// UnixTimestamp 返回给定时间的 UNIX 时间戳（秒）的字符串形式。
func UnixTimestamp(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}

// 每次调用使用新的 hash 状态，不在调用间复用。
func sha1Hex(s string) string {
	h := sha1.New()
	h.Write([]byte(s))
	return hex.EncodeToString(h.Sum(nil))
}
