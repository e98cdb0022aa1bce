package signauth

import (
	"net/url"
	"strings"
)

// QueryString 是解析后的 URL 参数：参数名称大小写不敏感，同名参数取第一个值。
// 解析后保留每个参数的原文，以便在不改变原有参数的前提下追加参数。
type QueryString struct {
	params []queryParam
}

type queryParam struct {
	raw   string // 参数原文，如“a=1”。
	name  string // URL 解码并转为小写后的名称。
	value string // URL 解码后的值。
	named bool   // 是否为带名称的参数（含等号）。
}

// Get 以大小写不敏感方式获取指定名称的参数的第一个值。返回一个 bool 表示该名称的是参数是否存在。
// 只能获取有名称的参数，“?a&b=1”中的“a”不能通过此方法获取。
func (qs QueryString) Get(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, p := range qs.params {
		if p.named && p.name == name {
			return p.value, true
		}
	}
	return "", false
}

// Encode 将参数还原为 query string （不带“?”），保留原有的顺序和编码。
// exclude 指定需要剔除的参数名称，大小写不敏感。
func (qs QueryString) Encode(exclude ...string) string {
	b := new(strings.Builder)
	for _, p := range qs.params {
		if p.named && containsFold(exclude, p.name) {
			continue
		}

		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(p.raw)
	}
	return b.String()
}

// appendParam 解析 name=value 结构或无名称的参数，将结果追加到 QueryString 。
// 若 URL 解码失败，该参数仍保留原文，但不能通过 Get 读取。
func (qs *QueryString) appendParam(raw string) {
	p := queryParam{raw: raw}

	if idx := strings.IndexByte(raw, '='); idx >= 0 {
		name, err1 := url.QueryUnescape(raw[:idx])
		value, err2 := url.QueryUnescape(raw[idx+1:])
		if err1 == nil && err2 == nil {
			p.named = true
			p.name = strings.ToLower(name)
			p.value = value
		}
	}

	qs.params = append(qs.params, p)
}

// ParseQueryString 解析 query string ，可以以“?”开头，也可以不带。
// 空的片段（如“a=1&&b=2”中间的部分）被忽略。
func ParseQueryString(queryString string) QueryString {
	result := &QueryString{}
	queryString = strings.TrimPrefix(queryString, "?")

	left := 0
	length := len(queryString)
	for left < length {
		right := strings.IndexByte(queryString[left:], '&')
		if right == -1 {
			right = length
		} else {
			// right 是切片 [left:] 里的相对位置，绝对位置得加上 left 。
			right += left
		}

		if right > left {
			result.appendParam(queryString[left:right])
		}
		left = right + 1
	}

	return *result
}

func containsFold(list []string, v string) bool {
	for _, x := range list {
		if strings.EqualFold(x, v) {
			return true
		}
	}
	return false
}
