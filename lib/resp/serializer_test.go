package resp

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serialize(t *testing.T, v Value) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, NewSerializer(&out).Write(v))
	return out.String()
}

func TestSerializeNull(t *testing.T) {
	assert.Equal(t, "$-1\r\n", serialize(t, Null{}))
}

func TestSerializeInteger(t *testing.T) {
	assert.Equal(t, ":12\r\n", serialize(t, Int(12)))
	assert.Equal(t, ":-7\r\n", serialize(t, Int(-7)))

	large, _ := new(big.Int).SetString("-98765432109876543210987654321", 10)
	assert.Equal(t, ":-98765432109876543210987654321\r\n", serialize(t, BigInt(large)))
}

func TestSerializeStrings(t *testing.T) {
	assert.Equal(t, "$6\r\nfoobar\r\n", serialize(t, Bulk("foobar")))
	assert.Equal(t, "$0\r\n\r\n", serialize(t, Bulk("")))

	// simple strings are written in bulk form
	assert.Equal(t, "$2\r\nOK\r\n", serialize(t, Str("OK")))

	// binary payloads are length prefixed
	assert.Equal(t, "$8\r\nfoo\r\nbar\r\n", serialize(t, Bulk("foo\r\nbar")))
}

func TestSerializeError(t *testing.T) {
	assert.Equal(t, "-ERR boom\r\n", serialize(t, Error("ERR boom")))
	assert.Equal(t, "-ERR line one line two\r\n", serialize(t, Error("ERR line one\r\nline two")))
}

func TestSerializeArrays(t *testing.T) {
	assert.Equal(t, "*2\r\n$1\r\na\r\n$1\r\nb\r\n", serialize(t, Array{Bulk("a"), Bulk("b")}))
	assert.Equal(t, "*0\r\n", serialize(t, Array{}))
	assert.Equal(t, "*0\r\n", serialize(t, Array(nil)))
}

func TestSerializeArrayWithNull(t *testing.T) {
	assert.Equal(t, "*3\r\n$1\r\na\r\n$-1\r\n$1\r\nb\r\n", serialize(t, Array{Bulk("a"), Null{}, Bulk("b")}))
	assert.Equal(t, "*2\r\n$-1\r\n$-1\r\n", serialize(t, Array{Null{}, Null{}}))
}

func TestSerializeNestedArray(t *testing.T) {
	v := Array{Bulk("a"), Array{Bulk("b"), Bulk("c")}}
	assert.Equal(t, "*2\r\n$1\r\na\r\n*2\r\n$1\r\nb\r\n$1\r\nc\r\n", serialize(t, v))
}

func TestSerializeUnsupported(t *testing.T) {
	var out bytes.Buffer
	s := NewSerializer(&out)

	assert.ErrorIs(t, s.Write(nil), ErrUnsupported)
	assert.ErrorIs(t, s.Write(Array{Bulk("a"), nil}), ErrUnsupported)
	assert.ErrorIs(t, s.Write(Integer{}), ErrUnsupported)

	// nothing was written for the rejected values
	assert.Equal(t, 0, out.Len())

	// the serializer is still usable
	require.NoError(t, s.Write(Bulk("x")))
	assert.Equal(t, "$1\r\nx\r\n", out.String())
}

func TestSerializeMultipleValues(t *testing.T) {
	var out bytes.Buffer
	s := NewSerializer(&out)
	require.NoError(t, s.Write(Bulk("abc")))
	require.NoError(t, s.Write(Int(1)))
	require.NoError(t, s.Write(Null{}))
	assert.Equal(t, "$3\r\nabc\r\n:1\r\n$-1\r\n", out.String())
}

func TestCommand(t *testing.T) {
	b, err := Marshal(Command("SET", "key", "value"))
	require.NoError(t, err)
	assert.Equal(t, []byte("*3\r\n$3\r\nSET\r\n$3\r\nkey\r\n$5\r\nvalue\r\n"), b)
}

func TestRoundTrip(t *testing.T) {
	large, _ := new(big.Int).SetString("1234567890123456789012345678901234567890", 10)
	values := []Value{
		Null{},
		Int(0),
		Int(-42),
		BigInt(large),
		Bulk(""),
		Bulk("foo\r\nbar"),
		BulkString([]byte{0, 1, 2, '\r', '\n', 255}),
		Error("WRONGTYPE nope"),
		Array{},
		Array{Bulk("a"), Null{}, Int(3), Array{Bulk("b"), Array{}}},
	}

	for _, v := range values {
		b, err := Marshal(v)
		require.NoError(t, err)
		parsed, err := NewParser(bytes.NewReader(b)).Next()
		require.NoError(t, err)
		assertValue(t, v, parsed)
	}

	// simple strings come back in bulk form
	b, err := Marshal(Array{Str("a"), Str("")})
	require.NoError(t, err)
	parsed, err := NewParser(bytes.NewReader(b)).Next()
	require.NoError(t, err)
	assert.Equal(t, Array{Bulk("a"), Bulk("")}, parsed)
}
