package signauth

import (
	"net/http"
	"net/url"
	"strings"
)

// SignURL 为给定的 URL 生成签名，返回追加了时间戳、随机串和签名参数的 URL 。
// 时间戳使用当前时间（ [SignOptions.Now] ），随机串由 [NewNonce] 生成。
//
// rawURL 可以是绝对地址，如“http://temp.org/the/path?a=1”；也可以是相对地址，如“/the/path?a=1”，
// 此时返回的也是相对地址。绝对地址的路径部分为空时，使用“/”。
// 原有的参数及其顺序被保留，与签名参数同名的参数会被替换。
//
// 错误：
//   - 选项不正确时，返回 [*ConfigError] 。
//   - 地址不能被解析，或包含片段（“#”）时，返回 [ErrInvalidURL] 。片段不会发送到服务端，其后的参数会被悄悄丢弃。
//   - 若设置了 [SignOptions.ExtraName] ，但地址上没有此参数或值为空，返回 [ErrMissingExtra] 。
func SignURL(rawURL string, opts SignOptions) (string, error) {
	now := nowFunc(opts.Now)()
	return SignURLAt(rawURL, opts, UnixTimestamp(now), NewNonce())
}

// SignURLAt 同 [SignURL] ，但使用给定的时间戳和随机串。
func SignURLAt(rawURL string, opts SignOptions, timestamp, nonce string) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}

	if strings.TrimSpace(rawURL) == "" {
		return "", &SignURLError{URL: rawURL, Kind: ErrInvalidURL}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", &SignURLError{URL: rawURL, Kind: ErrInvalidURL, Cause: err}
	}

	if u.Fragment != "" || strings.Contains(rawURL, "#") {
		return "", &SignURLError{URL: rawURL, Kind: ErrInvalidURL}
	}

	if u.Opaque != "" {
		return "", &SignURLError{URL: rawURL, Kind: ErrInvalidURL}
	}

	query := ParseQueryString(u.RawQuery)

	extra := ""
	if opts.ExtraName != "" {
		extra, _ = query.Get(opts.ExtraName)
		if extra == "" {
			return "", &SignURLError{URL: rawURL, Kind: ErrMissingExtra}
		}
	}

	absolute := u.Scheme != "" || u.Host != ""
	if absolute && u.Path == "" {
		u.Path = "/"
		u.RawPath = ""
	}

	path := ""
	if opts.IncludePath {
		path = u.Path
	}

	sign := Sign(opts.Secret, timestamp, nonce, extra, path)

	b := new(strings.Builder)
	b.WriteString(query.Encode(opts.TimestampName, opts.NonceName, opts.SignatureName))
	appendParam(b, opts.TimestampName, timestamp)
	appendParam(b, opts.NonceName, nonce)
	appendParam(b, opts.SignatureName, sign)

	u.RawQuery = b.String()
	u.ForceQuery = false
	return u.String(), nil
}

func appendParam(b *strings.Builder, name, value string) {
	if b.Len() > 0 {
		b.WriteByte('&')
	}
	b.WriteString(url.QueryEscape(name))
	b.WriteByte('=')
	b.WriteString(url.QueryEscape(value))
}

// SignNow 使用当前时间和新的随机串计算签名，返回签名所用的时间戳、随机串和签名。
// 可用于需要把签名放在 HTTP 头里的调用方。
func SignNow(opts SignOptions, extra, path string) (timestamp, nonce, sign string) {
	timestamp = UnixTimestamp(nowFunc(opts.Now)())
	nonce = NewNonce()
	if !opts.IncludePath {
		path = ""
	}
	sign = Sign(opts.Secret, timestamp, nonce, extra, path)
	return
}

// SetSignHeaders 为请求计算签名，并把时间戳、随机串和签名写入请求头。
// 参数名称使用选项中的配置；若设置了额外参数，其值从请求头中同名的字段读取。
func SetSignHeaders(header http.Header, path string, opts SignOptions) {
	extra := ""
	if opts.ExtraName != "" {
		extra = header.Get(opts.ExtraName)
	}

	ts, nonce, sign := SignNow(opts, extra, path)
	header.Set(opts.TimestampName, ts)
	header.Set(opts.NonceName, nonce)
	header.Set(opts.SignatureName, sign)
}
