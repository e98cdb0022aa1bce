package signauth

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cmstar/go-logx"
	"github.com/cmstar/go-signauth/signauthtest"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	// 固定用此时间戳测试，以便获得稳定可断言的签名。
	_timestamp = 1700000000

	_secret = "you-api-token"
)

func newSignAuthorizer(t *testing.T, setup func(o *SignOptions)) (*SignAuthorizer, *signauthtest.MovableClock) {
	clock := signauthtest.NewMovableClock(_timestamp)
	opts := DefaultSignOptions()
	opts.Secret = _secret
	opts.Now = clock.Now
	if setup != nil {
		setup(&opts)
	}

	a, err := NewSignAuthorizer(opts, nil)
	require.NoError(t, err)
	return a, clock
}

func signedQuery(ts, nonce, extra, path string) string {
	return "timestamp=" + ts + "&nonce=" + nonce + "&signature=" + Sign(_secret, ts, nonce, extra, path)
}

func TestSignAuthorizer_Authorize(t *testing.T) {
	a, clock := newSignAuthorizer(t, nil)

	check := func(target string, want DenyReason) {
		t.Helper()
		r := signauthtest.NewRequest(target)
		d := a.Authorize(NewRequestSource(r), r.URL.Path)
		assert.Equal(t, want == ReasonNone, d.Allowed, target)
		assert.Equal(t, want, d.Reason, target)
	}

	t.Run("OK", func(t *testing.T) {
		clock.Set(_timestamp)
		check("/a?"+signedQuery("1700000000", "abc123", "", ""), ReasonNone)
	})

	t.Run("NameCaseInsensitive", func(t *testing.T) {
		clock.Set(_timestamp)
		sign := Sign(_secret, "1700000000", "abc123", "", "")
		check("/a?TimeStamp=1700000000&NONCE=abc123&Signature="+sign, ReasonNone)
	})

	t.Run("Missing", func(t *testing.T) {
		clock.Set(_timestamp)
		sign := Sign(_secret, "1700000000", "abc123", "", "")
		check("/a", ReasonMissingCredentials)
		check("/a?nonce=abc123&signature="+sign, ReasonMissingCredentials)
		check("/a?timestamp=1700000000&signature="+sign, ReasonMissingCredentials)
		check("/a?timestamp=1700000000&nonce=abc123", ReasonMissingCredentials)
		check("/a?timestamp=1700000000&nonce=&signature="+sign, ReasonMissingCredentials)
	})

	t.Run("InvalidTimestamp", func(t *testing.T) {
		check("/a?timestamp=abc&nonce=abc123&signature=x", ReasonInvalidTimestamp)
	})

	t.Run("Window", func(t *testing.T) {
		target := "/a?" + signedQuery("1700000000", "abc123", "", "")

		clock.Set(_timestamp + 5)
		check(target, ReasonNone)

		clock.Set(_timestamp + 6)
		check(target, ReasonExpired)

		// 超前的时间戳被接受。
		clock.Set(_timestamp - 1000)
		check(target, ReasonNone)
	})

	t.Run("MinTimestamp", func(t *testing.T) {
		clock.Set(_timestamp)
		check("/a?"+signedQuery("-9223372036854775808", "abc123", "", ""), ReasonExpired)
	})

	t.Run("CaseSensitive", func(t *testing.T) {
		clock.Set(_timestamp)
		sign := strings.ToUpper(Sign(_secret, "1700000000", "abc123", "", ""))
		check("/a?timestamp=1700000000&nonce=abc123&signature="+sign, ReasonSignatureMismatch)
	})

	t.Run("Tampered", func(t *testing.T) {
		clock.Set(_timestamp)
		sign := Sign(_secret, "1700000000", "abc123", "", "")
		check("/a?timestamp=1700000000&nonce=abc124&signature="+sign, ReasonSignatureMismatch)
		check("/a?timestamp=1700000001&nonce=abc123&signature="+sign, ReasonSignatureMismatch)
	})

	t.Run("PathIgnored", func(t *testing.T) {
		clock.Set(_timestamp)
		check("/other?"+signedQuery("1700000000", "abc123", "", ""), ReasonNone)
	})
}

func TestSignAuthorizer_pathAndExtra(t *testing.T) {
	a, _ := newSignAuthorizer(t, func(o *SignOptions) {
		o.IncludePath = true
		o.ExtraName = "ext"
	})

	check := func(target string, want DenyReason) {
		t.Helper()
		r := signauthtest.NewRequest(target)
		d := a.Authorize(NewRequestSource(r), r.URL.Path)
		assert.Equal(t, want, d.Reason, target)
	}

	check("/weatherforecast?ext=1&"+signedQuery("1700000000", "abc123", "1", "/weatherforecast"), ReasonNone)
	check("/other?ext=1&"+signedQuery("1700000000", "abc123", "1", "/weatherforecast"), ReasonSignatureMismatch)
	check("/weatherforecast?ext=2&"+signedQuery("1700000000", "abc123", "1", "/weatherforecast"), ReasonSignatureMismatch)

	// 缺少额外参数，即使签名本身是按没有额外参数计算的，也不能通过。
	check("/weatherforecast?"+signedQuery("1700000000", "abc123", "", "/weatherforecast"), ReasonMissingExtra)
	check("/weatherforecast?ext=&"+signedQuery("1700000000", "abc123", "", "/weatherforecast"), ReasonMissingExtra)
}

func TestSignAuthorizer_header(t *testing.T) {
	a, _ := newSignAuthorizer(t, func(o *SignOptions) {
		o.UseHeader = true
	})

	t.Run("OK", func(t *testing.T) {
		r := signauthtest.NewRequest("/a")
		r.Header.Set("timestamp", "1700000000")
		r.Header.Set("nonce", "abc123")
		r.Header.Set("signature", Sign(_secret, "1700000000", "abc123", "", ""))
		assert.True(t, a.AuthorizeRequest(r).Allowed)
	})

	t.Run("QueryNotRead", func(t *testing.T) {
		r := signauthtest.NewRequest("/a?" + signedQuery("1700000000", "abc123", "", ""))
		d := a.AuthorizeRequest(r)
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonMissingCredentials, d.Reason)
	})
}

func TestNewSignAuthorizer_error(t *testing.T) {
	cases := []struct {
		name  string
		setup func(o *SignOptions)
		field string
	}{
		{"Secret", func(o *SignOptions) { o.Secret = "" }, "Secret"},
		{"ZeroExpire", func(o *SignOptions) { o.ExpireSeconds = 0 }, "ExpireSeconds"},
		{"NegativeExpire", func(o *SignOptions) { o.ExpireSeconds = -1 }, "ExpireSeconds"},
		{"NegativeSkew", func(o *SignOptions) { o.MaxSkewSeconds = -1 }, "MaxSkewSeconds"},
		{"TimestampName", func(o *SignOptions) { o.TimestampName = "" }, "TimestampName"},
		{"NonceName", func(o *SignOptions) { o.NonceName = " " }, "NonceName"},
		{"SignatureName", func(o *SignOptions) { o.SignatureName = "" }, "SignatureName"},
		{"StatusCode", func(o *SignOptions) { o.UnauthorizedStatusCode = 0 }, "UnauthorizedStatusCode"},
		{"Body", func(o *SignOptions) { o.UnauthorizedBody = func() {} }, "UnauthorizedBody"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			opts := DefaultSignOptions()
			c.setup(&opts)
			a, err := NewSignAuthorizer(opts, nil)
			assert.Nil(t, a)

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr), "%v", err)
			assert.Equal(t, c.field, cfgErr.Field)
			assert.Regexp(t, "invalid option "+c.field, err.Error())
		})
	}
}

func TestSignAuthorizer_Middleware(t *testing.T) {
	logger := signauthtest.NewLogRecorder()
	clock := signauthtest.NewMovableClock(_timestamp)
	opts := DefaultSignOptions()
	opts.Secret = _secret
	opts.Now = clock.Now
	a, err := NewSignAuthorizer(opts, logger)
	require.NoError(t, err)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	})

	marker := MarkerFunc(func(r *http.Request) (Mark, bool) {
		return Mark{}, strings.HasPrefix(r.URL.Path, "/secure")
	})
	h := a.Middleware(marker)(ok)

	do := func(target string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r := signauthtest.NewRequest(target)
		r.RemoteAddr = "10.0.0.1:3456"
		h.ServeHTTP(rec, r)
		return rec
	}

	t.Run("NotMarked", func(t *testing.T) {
		rec := do("/public")
		assert.Equal(t, 200, rec.Code)
		assert.Equal(t, "ok", rec.Body.String())
	})

	t.Run("Allowed", func(t *testing.T) {
		rec := do("/secure?" + signedQuery("1700000000", "abc123", "", ""))
		assert.Equal(t, 200, rec.Code)
		assert.Equal(t, "ok", rec.Body.String())

		e, _ := logger.Last()
		assert.Equal(t, logx.LevelDebug, e.Level)
		assert.Equal(t, "sign", e.Fields["Scheme"])
	})

	t.Run("Denied", func(t *testing.T) {
		rec := do("/secure?timestamp=1700000000&nonce=abc123&signature=bad")
		assert.Equal(t, 401, rec.Code)
		assert.Equal(t, ContentTypeJson, rec.Header().Get(HttpHeaderContentType))
		assert.Equal(t, `{"success":false,"status":10000,"msg":"Unauthorized"}`, rec.Body.String())

		e, _ := logger.Last()
		assert.Equal(t, logx.LevelWarn, e.Level)
		assert.Equal(t, "signature error", e.Fields["Reason"])
		assert.Equal(t, "/secure", e.Fields["Path"])
		assert.Equal(t, "10.0.0.1", e.Fields["IP"])
		assert.NotContains(t, logger.String(), _secret)
	})

	t.Run("SameBodyForAllReasons", func(t *testing.T) {
		expired := do("/secure?" + signedQuery("1600000000", "abc123", "", ""))
		missing := do("/secure")
		assert.Equal(t, 401, expired.Code)
		assert.Equal(t, expired.Body.String(), missing.Body.String())
	})

	t.Run("NilMarker", func(t *testing.T) {
		assert.Panics(t, func() { a.Middleware(nil) })
	})
}

func TestSignAuthorizer_customResponse(t *testing.T) {
	t.Run("Literal", func(t *testing.T) {
		a, _ := newSignAuthorizer(t, func(o *SignOptions) {
			o.UnauthorizedStatusCode = 403
			o.UnauthorizedJSON = `{"code":1}`
			o.UnauthorizedBody = map[string]int{"ignored": 1}
		})

		rec := httptest.NewRecorder()
		a.Middleware(MarkAll)(http.NotFoundHandler()).ServeHTTP(rec, signauthtest.NewRequest("/"))
		assert.Equal(t, 403, rec.Code)
		assert.Equal(t, `{"code":1}`, rec.Body.String())
	})

	t.Run("Structured", func(t *testing.T) {
		a, _ := newSignAuthorizer(t, func(o *SignOptions) {
			o.UnauthorizedBody = map[string]any{"ok": false}
		})

		rec := httptest.NewRecorder()
		a.Middleware(MarkAll)(http.NotFoundHandler()).ServeHTTP(rec, signauthtest.NewRequest("/"))
		assert.Equal(t, 401, rec.Code)
		assert.Equal(t, `{"ok":false}`, rec.Body.String())
	})
}

func TestChiRouteMarks(t *testing.T) {
	a, _ := newSignAuthorizer(t, nil)
	marks := ChiRouteMarks{
		"/secure/{id}": {},
	}

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(a.Middleware(marks))
		r.Get("/secure/{id}", func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, chi.URLParam(r, "id"))
		})
		r.Get("/public/{id}", func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "public")
		})
	})

	do := func(target string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, signauthtest.NewRequest(target))
		return rec
	}

	assert.Equal(t, 401, do("/secure/1").Code)
	assert.Equal(t, "public", do("/public/1").Body.String())

	rec := do("/secure/7?" + signedQuery("1700000000", "abc123", "", ""))
	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "7", rec.Body.String())

	// 没有 chi 的路由上下文时，视为未标记。
	_, ok := marks.Mark(signauthtest.NewRequest("/secure/1"))
	assert.False(t, ok)
}

func TestSignAuthorizer_maxSkew(t *testing.T) {
	a, clock := newSignAuthorizer(t, func(o *SignOptions) {
		o.MaxSkewSeconds = 3
	})

	r := signauthtest.NewRequest("/a?" + signedQuery("1700000000", "abc123", "", ""))

	clock.Set(_timestamp - 3)
	assert.True(t, a.Authorize(NewRequestSource(r), "/a").Allowed)

	clock.Set(_timestamp - 4)
	d := a.Authorize(NewRequestSource(r), "/a")
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonFutureTimestamp, d.Reason)
}

func TestSignNow(t *testing.T) {
	opts := DefaultSignOptions()
	opts.Secret = _secret
	opts.Now = signauthtest.Clock(_timestamp)

	ts, nonce, sign := SignNow(opts, "", "/ignored")
	assert.Equal(t, "1700000000", ts)
	assert.Len(t, nonce, 32)
	assert.Equal(t, Sign(_secret, ts, nonce, "", ""), sign)

	opts.IncludePath = true
	ts, nonce, sign = SignNow(opts, "e", "/p")
	assert.Equal(t, Sign(_secret, ts, nonce, "e", "/p"), sign)
}

func TestMarkUsers(t *testing.T) {
	r := signauthtest.NewRequest("/x")

	m, ok := MarkAll.Mark(r)
	assert.True(t, ok)
	assert.Empty(t, m.Users)

	m, ok = MarkUsers("root", "admin").Mark(r)
	assert.True(t, ok)
	assert.Equal(t, []string{"root", "admin"}, m.Users)
}
