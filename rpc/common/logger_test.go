package common

import (
	"bytes"
	"testing"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]logger.LogLevel{
		"debug":   logger.DEBUG,
		"INFO":    logger.INFO,
		"":        logger.INFO,
		"warn":    logger.WARNING,
		"warning": logger.WARNING,
		"error":   logger.ERROR,
	}
	for input, expected := range cases {
		level, err := ParseLogLevel(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, level, input)
	}

	_, err := ParseLogLevel("loud")
	assert.Error(t, err)
}

func TestZapLoggerLevels(t *testing.T) {
	var out bytes.Buffer
	l := &zapLogger{
		level: logger.WARNING,
		sugar: newBaseLogger(zapcore.AddSync(&out), "").Named("test").Sugar(),
	}

	l.Infof("hidden %d", 1)
	l.Warningf("shown %d", 2)
	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "shown 2")
	assert.Contains(t, out.String(), "test")

	l.SetLevel(logger.DEBUG)
	l.Debugf("debug line")
	assert.Contains(t, out.String(), "debug line")
}

func TestServerConfigString(t *testing.T) {
	c := ServerConfig{
		Transport: ServerTransportConfig{Endpoint: "localhost:6380"},
		Engine:    "memory",
		LogLevel:  "info",
	}
	s := c.String()
	assert.Contains(t, s, "localhost:6380")
	assert.Contains(t, s, "memory")
	assert.Contains(t, s, "disabled")

	cc := ClientConfig{Transport: ClientTransportConfig{Endpoints: []string{"a", "b"}}}
	assert.Contains(t, cc.String(), "Connections Per Endpoint")
}
