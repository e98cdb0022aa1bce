// Package signconf 从 YAML 文件加载 signauth 的选项。
//
// 文件格式如下，各 key 大小写不敏感，未给出的 key 使用默认值
// （ [signauth.DefaultSignOptions] 和 [signauth.DefaultCookieOptions] ）：
//
//	sign:
//	  secret: you-api-token
//	  includePath: true
//	  expireSeconds: 5
//	  maxSkewSeconds: 0
//	  timestampName: timestamp
//	  nonceName: nonce
//	  signatureName: signature
//	  extraName: ext
//	  useHeader: false
//	  unauthorizedStatusCode: 401
//	  unauthorizedJson: '{"success":false}'
//	cookie:
//	  secret: you-api-token
//	  cookieName: SignAuthorization
//	  separator: "|"
//	  expireSeconds: 3600
//	  renewOnSuccess: true
//	  path: /
//	  domain: ""
//	  httpOnly: true
//	  secure: false
//	  sameSite: lax
//	  allowedUsers: [root, admin]
//	  userNameItemKey: SignAuthorizationUserName
//
// 环境变量 SIGNAUTH_SIGN_SECRET 和 SIGNAUTH_COOKIE_SECRET 若不为空，则覆盖文件中的 secret 。
package signconf

import (
	"fmt"
	"net/http"
	"os"
	"reflect"
	"strings"

	"github.com/cmstar/go-conv"
	"github.com/cmstar/go-errx"
	"github.com/cmstar/go-signauth"
	"gopkg.in/yaml.v3"
)

const (
	// EnvSignSecret 覆盖 sign.secret 的环境变量。
	EnvSignSecret = "SIGNAUTH_SIGN_SECRET"

	// EnvCookieSecret 覆盖 cookie.secret 的环境变量。
	EnvCookieSecret = "SIGNAUTH_COOKIE_SECRET"
)

// Config 是加载得到的完整配置。
type Config struct {
	Sign   signauth.SignOptions
	Cookie signauth.CookieOptions
}

// 配置文件 sign 节点的结构。
type signSection struct {
	Secret                 string
	IncludePath            bool
	ExpireSeconds          float64
	MaxSkewSeconds         float64
	TimestampName          string
	NonceName              string
	SignatureName          string
	ExtraName              string
	UseHeader              bool
	UnauthorizedStatusCode int
	UnauthorizedJson       string
}

// 配置文件 cookie 节点的结构。
type cookieSection struct {
	Secret                 string
	CookieName             string
	Separator              string
	ExpireSeconds          float64
	MaxSkewSeconds         float64
	RenewOnSuccess         bool
	Path                   string
	Domain                 string
	HttpOnly               bool
	Secure                 bool
	SameSite               string
	AllowedUsers           []string
	UserNameItemKey        string
	UnauthorizedStatusCode int
	UnauthorizedJson       string
}

// 大小写不敏感的方式匹配字段。
var _conv = conv.Conv{
	Conf: conv.Config{
		FieldMatcherCreator: &conv.SimpleMatcherCreator{
			Conf: conv.SimpleMatcherConfig{
				CaseInsensitive: true,
			},
		},
	},
}

// Load 读取并解析给定的 YAML 文件。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errx.Wrap("signconf: read "+path, err)
	}
	return Parse(data)
}

// Parse 解析 YAML 格式的配置。解析得到的选项会被校验，不正确时返回 [*signauth.ConfigError] 。
func Parse(data []byte) (*Config, error) {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errx.Wrap("signconf: yaml", err)
	}
	root = lowerKeys(root)

	signDefault := signauth.DefaultSignOptions()
	sign := signSection{
		Secret:                 signDefault.Secret,
		IncludePath:            signDefault.IncludePath,
		ExpireSeconds:          signDefault.ExpireSeconds,
		TimestampName:          signDefault.TimestampName,
		NonceName:              signDefault.NonceName,
		SignatureName:          signDefault.SignatureName,
		UnauthorizedStatusCode: signDefault.UnauthorizedStatusCode,
	}
	if err := decodeSection(root, "sign", &sign); err != nil {
		return nil, err
	}

	cookieDefault := signauth.DefaultCookieOptions()
	cookie := cookieSection{
		Secret:                 cookieDefault.Secret,
		CookieName:             cookieDefault.CookieName,
		Separator:              cookieDefault.Separator,
		ExpireSeconds:          cookieDefault.ExpireSeconds,
		RenewOnSuccess:         cookieDefault.RenewOnSuccess,
		Path:                   cookieDefault.Cookie.Path,
		HttpOnly:               cookieDefault.Cookie.HttpOnly,
		UserNameItemKey:        cookieDefault.UserNameItemKey,
		UnauthorizedStatusCode: cookieDefault.UnauthorizedStatusCode,
	}
	if err := decodeSection(root, "cookie", &cookie); err != nil {
		return nil, err
	}

	if v := os.Getenv(EnvSignSecret); v != "" {
		sign.Secret = v
	}
	if v := os.Getenv(EnvCookieSecret); v != "" {
		cookie.Secret = v
	}

	sameSite, err := parseSameSite(cookie.SameSite)
	if err != nil {
		return nil, err
	}

	cfg := &Config{Sign: signDefault, Cookie: cookieDefault}

	cfg.Sign.Secret = sign.Secret
	cfg.Sign.IncludePath = sign.IncludePath
	cfg.Sign.ExpireSeconds = sign.ExpireSeconds
	cfg.Sign.MaxSkewSeconds = sign.MaxSkewSeconds
	cfg.Sign.TimestampName = sign.TimestampName
	cfg.Sign.NonceName = sign.NonceName
	cfg.Sign.SignatureName = sign.SignatureName
	cfg.Sign.ExtraName = sign.ExtraName
	cfg.Sign.UseHeader = sign.UseHeader
	cfg.Sign.UnauthorizedStatusCode = sign.UnauthorizedStatusCode
	cfg.Sign.UnauthorizedJSON = sign.UnauthorizedJson

	cfg.Cookie.Secret = cookie.Secret
	cfg.Cookie.CookieName = cookie.CookieName
	cfg.Cookie.Separator = cookie.Separator
	cfg.Cookie.ExpireSeconds = cookie.ExpireSeconds
	cfg.Cookie.MaxSkewSeconds = cookie.MaxSkewSeconds
	cfg.Cookie.RenewOnSuccess = cookie.RenewOnSuccess
	cfg.Cookie.Cookie = signauth.CookieAttributes{
		Path:     cookie.Path,
		Domain:   cookie.Domain,
		HttpOnly: cookie.HttpOnly,
		Secure:   cookie.Secure,
		SameSite: sameSite,
	}
	cfg.Cookie.AllowedUsers = cookie.AllowedUsers
	cfg.Cookie.UserNameItemKey = cookie.UserNameItemKey
	cfg.Cookie.UnauthorizedStatusCode = cookie.UnauthorizedStatusCode
	cfg.Cookie.UnauthorizedJSON = cookie.UnauthorizedJson

	if err := cfg.Sign.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Cookie.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeSection 将 root 下名为 name 的节点转换到 dst 。
// dst 中已有的值作为默认值，节点中未给出的字段保持不变。
func decodeSection(root map[string]any, name string, dst any) error {
	raw, ok := root[name]
	if !ok || raw == nil {
		return nil
	}

	section, ok := raw.(map[string]any)
	if !ok {
		return fmt.Errorf("signconf: %s must be a mapping, got %T", name, raw)
	}

	// 以当前值为底，叠加配置文件中给出的值，再整体转换。
	merged := structToMap(dst)
	for k, v := range lowerKeys(section) {
		merged[k] = v
	}

	typ := reflect.TypeOf(dst).Elem()
	v, err := _conv.ConvertType(merged, typ)
	if err != nil {
		return errx.Wrap("signconf: "+name, err)
	}

	reflect.ValueOf(dst).Elem().Set(reflect.ValueOf(v))
	return nil
}

// structToMap 将 *struct 的各字段放入 map ，字段名转为小写。
func structToMap(ptr any) map[string]any {
	v := reflect.ValueOf(ptr).Elem()
	t := v.Type()
	m := make(map[string]any, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := v.Field(i)
		if f.Kind() == reflect.Slice && f.IsNil() {
			continue
		}
		m[strings.ToLower(t.Field(i).Name)] = f.Interface()
	}
	return m
}

func lowerKeys(m map[string]any) map[string]any {
	res := make(map[string]any, len(m))
	for k, v := range m {
		res[strings.ToLower(k)] = v
	}
	return res
}

func parseSameSite(v string) (http.SameSite, error) {
	switch strings.ToLower(v) {
	case "":
		return 0, nil
	case "default":
		return http.SameSiteDefaultMode, nil
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	}
	return 0, fmt.Errorf("signconf: unknown sameSite %q", v)
}
