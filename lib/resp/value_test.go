package resp

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEqual(t *testing.T) {
	parsed, _ := new(big.Int).SetString("0", 10)
	assert.True(t, Equal(Int(0), BigInt(parsed)))
	assert.True(t, Equal(Array(nil), Array{}))
	assert.False(t, Equal(Null{}, Array{}))
	assert.False(t, Equal(Str("a"), Bulk("a")))
	assert.False(t, Equal(Array{Int(1)}, Array{Int(2)}))
}

func TestText(t *testing.T) {
	b, ok := Text(Str("abc"))
	assert.True(t, ok)
	assert.Equal(t, []byte("abc"), b)

	b, ok = Text(Bulk("def"))
	assert.True(t, ok)
	assert.Equal(t, []byte("def"), b)

	_, ok = Text(Int(1))
	assert.False(t, ok)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "(nil)", Format(Null{}))
	assert.Equal(t, "(integer) 3", Format(Int(3)))
	assert.Equal(t, "(error) ERR x", Format(Error("ERR x")))
	assert.Equal(t, "(empty array)", Format(Array{}))
	assert.Equal(t, "1) \"a\"\n2) 1) \"b\"\n   2) (nil)", Format(Array{Bulk("a"), Array{Bulk("b"), Null{}}}))
}
