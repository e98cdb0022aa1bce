package signauth

import "context"

type identityKey struct{}

// Identity 记录验证通过的用户身份。
type Identity struct {
	Username string // 用户名。
	Scheme   string // 授权方案，当前固定为 cookie 。
}

// WithIdentity 返回携带给定身份的 [context.Context] 。
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext 读取 [WithIdentity] 存放的身份。返回一个 bool 表示是否存在。
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// UsernameFromContext 读取验证通过的用户名。不存在时返回空字符串。
func UsernameFromContext(ctx context.Context) string {
	id, _ := IdentityFromContext(ctx)
	return id.Username
}
