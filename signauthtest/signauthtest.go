// Package signauthtest 提供用于测试 signauth 及其使用方的辅助方法。
package signauthtest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/cmstar/go-logx"
)

// Clock 返回一个总是返回给定 UNIX 时间戳（秒）的时间函数，可用于 Options.Now 。
func Clock(unix int64) func() time.Time {
	t := time.Unix(unix, 0)
	return func() time.Time { return t }
}

// MovableClock 是可以手动调整的时钟，可并发使用。
type MovableClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMovableClock 创建起始于给定 UNIX 时间戳（秒）的 [MovableClock] 。
func NewMovableClock(unix int64) *MovableClock {
	return &MovableClock{now: time.Unix(unix, 0)}
}

// Now 返回当前设定的时间，可用于 Options.Now 。
func (c *MovableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set 将时间设定为给定的 UNIX 时间戳（秒）。
func (c *MovableClock) Set(unix int64) {
	c.mu.Lock()
	c.now = time.Unix(unix, 0)
	c.mu.Unlock()
}

// NewRequest 创建一个用于测试的 GET 请求，可附带若干 Cookie 。
func NewRequest(target string, cookies ...*http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return r
}

// LogEntry 是 [LogRecorder] 记录的一条日志。
type LogEntry struct {
	Level   logx.Level
	Message string
	Fields  map[string]string // key-value 对，值使用 fmt.Sprint 格式化。
}

// LogRecorder 实现 logx.Logger ，记录全部日志以便断言。可并发使用。
// 每条日志的字符串格式为：
//
//	level={LEVEL} message={MESSAGE} KEY1=VALUE1 KEY2=VALUE2 ...
type LogRecorder struct {
	mu      sync.Mutex
	buf     strings.Builder
	entries []LogEntry
}

var _ logx.Logger = (*LogRecorder)(nil)

// NewLogRecorder 创建一个 LogRecorder 的新实例。
func NewLogRecorder() *LogRecorder {
	return &LogRecorder{}
}

// Log 实现 Logger.Log() 。
func (l *LogRecorder) Log(level logx.Level, message string, keyValues ...interface{}) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := LogEntry{Level: level, Message: message, Fields: make(map[string]string)}

	l.buf.WriteString("level=")
	l.buf.WriteString(logx.LevelToString(level))
	l.buf.WriteString(" message=")
	l.buf.WriteString(message)

	length := len(keyValues)
	for i := 0; i < length-1; i += 2 {
		k := fmt.Sprint(keyValues[i])
		v := fmt.Sprint(keyValues[i+1])
		fmt.Fprintf(&l.buf, " %s=%s", k, v)
		e.Fields[k] = v
	}

	if length%2 != 0 {
		v := fmt.Sprint(keyValues[length-1])
		fmt.Fprintf(&l.buf, " UNKNOWN=%s", v)
		e.Fields["UNKNOWN"] = v
	}

	l.buf.WriteByte('\n')
	l.entries = append(l.entries, e)
	return nil
}

// LogFn 实现 Logger.LogFn() 。
func (l *LogRecorder) LogFn(level logx.Level, messageFactory func() (string, []interface{})) error {
	m, kv := messageFactory()
	return l.Log(level, m, kv...)
}

// String 返回当前记录的完整日志。
func (l *LogRecorder) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.String()
}

// Entries 返回当前记录的全部日志。
func (l *LogRecorder) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LogEntry(nil), l.entries...)
}

// Last 返回最后一条日志。没有日志时返回零值和 false 。
func (l *LogRecorder) Last() (LogEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return LogEntry{}, false
	}
	return l.entries[len(l.entries)-1], true
}
