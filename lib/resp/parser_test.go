package resp

import (
	"bytes"
	"io"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertValue fails the test if got is not equal to want (see Equal)
func assertValue(t *testing.T, want, got Value) {
	t.Helper()
	assert.True(t, Equal(want, got), "expected %s, got %s", Format(want), Format(got))
}

func parseOne(t *testing.T, data string) (Value, *strings.Reader) {
	t.Helper()
	input := strings.NewReader(data)
	v, err := NewParser(input).Next()
	require.NoError(t, err)
	return v, input
}

func TestParseInteger(t *testing.T) {
	input := bytes.NewBufferString(":12\r\n")
	p := NewParser(input)

	v, err := p.Next()
	require.NoError(t, err)
	assertValue(t, Int(12), v)

	// the whole buffer is consumed
	_, err = p.Next()
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 0, p.Buffered())
}

func TestParseNegativeInteger(t *testing.T) {
	v, _ := parseOne(t, ":-12\r\n")
	assertValue(t, Int(-12), v)
}

func TestParseZero(t *testing.T) {
	v, _ := parseOne(t, ":0\r\n")
	assertValue(t, Int(0), v)
}

func TestParseLargeInteger(t *testing.T) {
	v, _ := parseOne(t, ":1234567890123456789012345678901234567890\r\n")
	expected, _ := new(big.Int).SetString("1234567890123456789012345678901234567890", 10)
	assertValue(t, BigInt(expected), v)
}

func TestParseInvalidInteger(t *testing.T) {
	_, err := NewParser(strings.NewReader(":12a\r\n")).Next()
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestParseSimpleString(t *testing.T) {
	v, _ := parseOne(t, "+foobar\r\n")
	assert.Equal(t, SimpleString("foobar"), v)
}

func TestParseEmptySimpleString(t *testing.T) {
	v, _ := parseOne(t, "+\r\n")
	assert.Equal(t, SimpleString(""), v)
}

func TestParseError(t *testing.T) {
	v, _ := parseOne(t, "-ERR unknown command\r\n")
	assert.Equal(t, Error("ERR unknown command"), v)
}

func TestParseBulkString(t *testing.T) {
	input := bytes.NewBufferString("$6\r\nfoobar\r\n")
	p := NewParser(input)
	v, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, BulkString("foobar"), v)

	_, err = p.Next()
	assert.Equal(t, io.EOF, err)
}

func TestParseBulkStringWithCRLF(t *testing.T) {
	v, _ := parseOne(t, "$8\r\nfoo\r\nbar\r\n")
	assert.Equal(t, BulkString("foo\r\nbar"), v)
	assert.Len(t, v, 8)

	v, _ = parseOne(t, "$8\r\nfoobar\r\n\r\n")
	assert.Equal(t, BulkString("foobar\r\n"), v)
}

func TestParseEmptyBulkString(t *testing.T) {
	v, _ := parseOne(t, "$0\r\n\r\n")
	assert.Equal(t, BulkString(""), v)
	assert.False(t, IsNull(v))
}

func TestParseNullBulkString(t *testing.T) {
	p := NewParser(strings.NewReader("$-1\r\n+next\r\n"))
	v, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, Null{}, v)

	// no body was consumed
	v, err = p.Next()
	require.NoError(t, err)
	assert.Equal(t, SimpleString("next"), v)
}

func TestParseBulkStringErrors(t *testing.T) {
	cases := map[string]string{
		"truncated body":     "$10\r\nfoo\r\n",
		"missing terminator": "$3\r\nfoobar\r\n",
		"invalid length":     "$abc\r\n",
		"too large":          "$1000000000000\r\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewParser(strings.NewReader(data)).Next()
			assert.ErrorIs(t, err, ErrProtocol)
		})
	}
}

func TestParseInlineCommand(t *testing.T) {
	v, _ := parseOne(t, "set foo bar")
	assert.Equal(t, Array{Str("set"), Str("foo"), Str("bar")}, v)

	v, _ = parseOne(t, "ping")
	assert.Equal(t, Array{Str("ping")}, v)

	v, _ = parseOne(t, "  get   key \r\n")
	assert.Equal(t, Array{Str("get"), Str("key")}, v)
}

func TestParseInlineSkipsBlankLines(t *testing.T) {
	p := NewParser(strings.NewReader("\r\n\r\nping\r\n\r\n"))
	v, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, Array{Str("ping")}, v)

	_, err = p.Next()
	assert.Equal(t, io.EOF, err)
}

func TestParseArray(t *testing.T) {
	v, _ := parseOne(t, "*2\r\n$3\r\nfoo\r\n$3\r\nbar\r\n")
	assert.Equal(t, Array{Bulk("foo"), Bulk("bar")}, v)
}

func TestParseEmptyArray(t *testing.T) {
	v, _ := parseOne(t, "*0\r\n")
	assert.Equal(t, Array{}, v)
	assert.False(t, IsNull(v))
}

func TestParseNullArray(t *testing.T) {
	v, _ := parseOne(t, "*-1\r\n")
	assert.Equal(t, Null{}, v)
}

func TestParseMixedArray(t *testing.T) {
	v, _ := parseOne(t, "*4\r\n+foo\r\n$3\r\nbar\r\n$-1\r\n:123\r\n")
	assertValue(t, Array{Str("foo"), Bulk("bar"), Null{}, Int(123)}, v)
}

func TestParseNestedArray(t *testing.T) {
	v, _ := parseOne(t, "*2\r\n+a\r\n*2\r\n+b\r\n+c")
	assert.Equal(t, Array{Str("a"), Array{Str("b"), Str("c")}}, v)
}

func TestParseTruncatedArray(t *testing.T) {
	_, err := NewParser(strings.NewReader("*3\r\n+a\r\n")).Next()
	assert.ErrorIs(t, err, ErrProtocol)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestParseMultipleValues(t *testing.T) {
	t.Run("strings", func(t *testing.T) {
		p := NewParser(strings.NewReader("+abc\r\n+def\r\n"))
		for _, want := range []string{"abc", "def"} {
			v, err := p.Next()
			require.NoError(t, err)
			assert.Equal(t, SimpleString(want), v)
		}
	})

	t.Run("bulk strings", func(t *testing.T) {
		p := NewParser(strings.NewReader("$3\r\nfoo\r\n$3\r\nbar\r\n"))
		for _, want := range []string{"foo", "bar"} {
			v, err := p.Next()
			require.NoError(t, err)
			assert.Equal(t, BulkString(want), v)
		}
	})

	t.Run("integers", func(t *testing.T) {
		p := NewParser(strings.NewReader(":1\r\n:2\r\n:3\r\n"))
		for _, want := range []int64{1, 2, 3} {
			v, err := p.Next()
			require.NoError(t, err)
			assertValue(t, Int(want), v)
		}
		_, err := p.Next()
		assert.Equal(t, io.EOF, err)
	})
}
