/*
signauth 为 HTTP 服务提供两种请求授权方案：无状态的 URL 签名方案，用于 API 之间的调用；
以及带签名的 Cookie 方案，用于浏览器会话。两者都不需要服务端存储会话。

# URL 签名方案

调用方与服务端共享一个 secret 。发起请求时，调用方生成当前的 UNIX 时间戳（秒）和一个随机串（nonce），
计算签名后，将三者放在 URL 参数上（或 HTTP 头上，见 [SignOptions.UseHeader] ）：

	/the/path?a=1&timestamp=1700000000&nonce=9f86d081884c7d659a2feaa0c55ad015&signature={sign}

参数名称可以通过 [SignOptions] 修改。

签名算法（见 [Sign] ）：
 1. 收集 secret 、 timestamp 、 nonce ；
 2. 若配置了额外参数（ [SignOptions.ExtraName] ），追加该参数的值；
 3. 若配置了签名包含路径（ [SignOptions.IncludePath] ），追加请求的路径，如“/the/path”；
 4. 按 UTF-8 字节顺序升序排列，紧密拼接（无分隔符），计算 SHA-1 ，输出 40 个字符的小写 HEX 。

注意：
  - UTF-8 字节顺序不是字典顺序，字节顺序下，英文大写字母在小写字母前面，比如 X 排序在 a 前面。
  - 没有额外参数或路径时，对应部分不参与排序。由于拼接时没有分隔符，值为空字符串的部分对签名没有影响。

服务端校验（见 [SignAuthorizer] ）：时间戳、随机串、签名缺一不可；当前时间减去时间戳不能超过
[SignOptions.ExpireSeconds] ；重新计算的签名需与给定签名完全一致，大小写敏感。
[SignURL] 可用于生成带签名的 URL 。

# Cookie 方案

登录过程通过 [MakeCookieValue] （或 [CookieAuthorizer.IssueCookie] ）签发 Cookie ，值的格式为：

	{username}|{timestamp}|{sign}

分隔符可以通过 [CookieOptions.Separator] 修改。写入回执时，值经过百分号编码（ [EncodeCookieValue] ），读取时解码。签名为 secret 、 username 、 timestamp 依次用分隔符拼接后的
SHA-1 ，不排序，见 [CookieSign] 。

服务端校验（见 [CookieAuthorizer] ）：三个部分均不能为空；时间戳需在有效期内；签名比较大小写不敏感；
若配置了允许的用户名列表，用户名需在列表中。验证通过后，用户名被放入请求上下文；
若开启了续期（ [CookieOptions.RenewOnSuccess] ），则使用当前时间重新签发 Cookie 。

# 路由标记

授权中间件通过 [Marker] 判断路由是否需要授权，不需要的请求直接放行。
可以直接把中间件挂在需要授权的路由上，使用 [MarkAll] ；或使用 [ChiRouteMarks] 按 chi 的路由模板标记。
echo 的适配见 echoauth 包。

# 验证失败

不论失败原因，都输出相同的回执：配置的状态码（默认 401）和 JSON body ，默认为：

	{"success":false,"status":10000,"msg":"Unauthorized"}

失败原因（ [DenyReason] ）仅记录在日志里。
*/
package signauth
