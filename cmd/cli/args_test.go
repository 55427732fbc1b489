package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"GET key", []string{"GET", "key"}},
		{"  SET   key\tvalue  ", []string{"SET", "key", "value"}},
		{`SET key "hello world"`, []string{"SET", "key", "hello world"}},
		{`SET key "a\r\nb"`, []string{"SET", "key", "a\r\nb"}},
		{`SET key 'it is \n raw'`, []string{"SET", "key", `it is \n raw`}},
		{`SET key ""`, []string{"SET", "key", ""}},
		{`ECHO "quote \" inside"`, []string{"ECHO", `quote " inside`}},
		{`ECHO pre"fix"`, []string{"ECHO", "prefix"}},
	}

	for _, tt := range tests {
		got, err := SplitArgs(tt.line)
		require.NoError(t, err, tt.line)
		assert.Equal(t, tt.want, got, tt.line)
	}
}

func TestSplitArgsErrors(t *testing.T) {
	for _, line := range []string{`SET "open`, `SET 'open`, `ECHO "\q"`} {
		_, err := SplitArgs(line)
		assert.Error(t, err, line)
	}
}

func TestComplete(t *testing.T) {
	assert.Equal(t, []string{"lindex", "llen", "lpop", "lpush", "lrange"}, complete("l"))
	assert.Equal(t, []string{"LINDEX", "LLEN", "LPOP", "LPUSH", "LRANGE"}, complete("L"))
	assert.Nil(t, complete("GET k"))
}
