package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"

	utils "github.com/go-slark/svcindex/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogStampsRequestID(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewLog(WithWriter(buf), WithLevel("debug"), WithSrvName("index"))
	ctx := utils.WithRequestID(context.Background(), "rid-1")
	l.Log(ctx, InfoLevel, Fields(Service("database", "0.1.0"), Error(fmt.Errorf("boom"))), "lookup")

	out := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "rid-1", out[utils.TraceID])
	assert.Equal(t, "index", out[utils.LogName])
	assert.Equal(t, "database@0.1.0", out["service"])
	assert.Equal(t, "boom", out["error"])
	assert.Equal(t, "lookup", out["msg"])
	assert.Equal(t, "info", out["level"])
}

func TestLevelFilter(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewLog(WithWriter(buf), WithLevel("warn"))
	l.Log(context.Background(), DebugLevel, nil, "hidden")
	assert.Zero(t, buf.Len())
	l.Log(context.Background(), ErrorLevel, nil, "shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestDispatcher(t *testing.T) {
	main, errs := &bytes.Buffer{}, &bytes.Buffer{}
	l := NewLog(WithWriter(main), WithDispatcher(map[string]io.Writer{"error": errs}))
	l.Log(context.Background(), InfoLevel, nil, "info line")
	l.Log(context.Background(), ErrorLevel, nil, "error line")
	assert.Contains(t, main.String(), "info line")
	assert.Contains(t, main.String(), "error line")
	assert.NotContains(t, errs.String(), "info line")
	assert.Contains(t, errs.String(), "error line")
}

func TestDefault(t *testing.T) {
	prev := Default()
	defer SetDefault(prev)

	buf := &bytes.Buffer{}
	SetDefault(NewLog(WithWriter(buf)))
	Log(context.TODO(), InfoLevel, nil, "through default")
	assert.Contains(t, buf.String(), "through default")

	SetDefault(nil)
	assert.NotNil(t, Default())
	Nop().Log(context.TODO(), ErrorLevel, nil, "dropped")
}

func TestTextFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewLog(WithWriter(buf), WithFormat("text"), WithSrvName("index"))
	l.Log(context.Background(), WarnLevel, map[string]interface{}{"store": "memory"}, "poisoned")
	assert.Contains(t, buf.String(), "level=warning")
	assert.Contains(t, buf.String(), "store=memory")
	assert.Contains(t, buf.String(), "log-name=index")
}

func TestUnknownLevelLogsAtDebug(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewLog(WithWriter(buf), WithLevel("debug"))
	l.Log(context.Background(), 42, nil, "odd level")
	assert.Contains(t, buf.String(), `"level":"debug"`)
}
