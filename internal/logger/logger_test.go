package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestHelpersWriteWithService(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Set(zap.New(core))
	defer Set(zap.NewNop())
	old := SetServiceName("scanner-test")
	defer SetServiceName(old)

	Info("scan %s started", "01H")
	Warn("skip %s: %v", "TCS", "no data")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "scan 01H started", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "scanner-test", entries[0].ContextMap()["service"])
}

func TestInit(t *testing.T) {
	defer Set(zap.NewNop())
	assert.NoError(t, Init("debug"))
	assert.Error(t, Init("chatty"))
}
