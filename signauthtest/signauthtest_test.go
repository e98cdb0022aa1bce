package signauthtest

import (
	"testing"

	"github.com/cmstar/go-logx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogRecorder(t *testing.T) {
	r := NewLogRecorder()
	assert := assert.New(t)
	assert.Empty(r.String())

	_, ok := r.Last()
	assert.False(ok)

	r.Log(logx.LevelDebug, "")
	r.Log(logx.LevelError, "msg")
	r.Log(logx.LevelInfo, "", "k1", "v1", "k2", 2, 3)
	r.LogFn(logx.LevelWarn, func() (string, []interface{}) {
		return "fn", []interface{}{"k1", "v1"}
	})

	want := `level=DEBUG message=
level=ERROR message=msg
level=INFO message= k1=v1 k2=2 UNKNOWN=3
level=WARN message=fn k1=v1
`
	assert.Equal(want, r.String())

	entries := r.Entries()
	require.Len(t, entries, 4)
	assert.Equal(logx.LevelInfo, entries[2].Level)
	assert.Equal("2", entries[2].Fields["k2"])
	assert.Equal("3", entries[2].Fields["UNKNOWN"])

	last, ok := r.Last()
	assert.True(ok)
	assert.Equal("fn", last.Message)
	assert.Equal("v1", last.Fields["k1"])
}

func TestClock(t *testing.T) {
	assert.Equal(t, int64(1700000000), Clock(1700000000)().Unix())

	c := NewMovableClock(100)
	assert.Equal(t, int64(100), c.Now().Unix())
	c.Set(200)
	assert.Equal(t, int64(200), c.Now().Unix())
}
