package db

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceRange computes the expected range element by element
func sliceRange(start, stop, length int64) []int64 {
	norm := func(i int64) int64 {
		if i < 0 {
			return i + length
		}
		return i
	}
	var out []int64
	for i := int64(0); i < length; i++ {
		if i >= norm(start) && i <= norm(stop) {
			out = append(out, i)
		}
	}
	return out
}

func TestNormalizeRange(t *testing.T) {
	for length := int64(0); length <= 6; length++ {
		for start := int64(-9); start <= 9; start++ {
			for stop := int64(-9); stop <= 9; stop++ {
				expected := sliceRange(start, stop, length)

				var got []int64
				if from, to, ok := NormalizeRange(start, stop, length); ok {
					for i := from; i <= to; i++ {
						got = append(got, i)
					}
				}
				assert.Equal(t, expected, got, "start=%d stop=%d length=%d", start, stop, length)
			}
		}
	}
}

func TestNormalizeRangeExamples(t *testing.T) {
	from, to, ok := NormalizeRange(-2, 4, 5)
	require.True(t, ok)
	assert.Equal(t, int64(3), from)
	assert.Equal(t, int64(4), to)

	from, to, ok = NormalizeRange(0, -1, 3)
	require.True(t, ok)
	assert.Equal(t, int64(0), from)
	assert.Equal(t, int64(2), to)

	_, _, ok = NormalizeRange(3, 1, 5)
	assert.False(t, ok)

	_, _, ok = NormalizeRange(0, -1, 0)
	assert.False(t, ok)
}

func TestNormalizeIndex(t *testing.T) {
	i, ok := NormalizeIndex(-1, 3)
	assert.True(t, ok)
	assert.Equal(t, int64(2), i)

	_, ok = NormalizeIndex(3, 3)
	assert.False(t, ok)

	_, ok = NormalizeIndex(-4, 3)
	assert.False(t, ok)
}

func TestParseIndex(t *testing.T) {
	i, err := ParseIndex("-2")
	require.NoError(t, err)
	assert.Equal(t, int64(-2), i)

	_, err = ParseIndex("two")
	assert.True(t, errors.Is(err, ErrParse))

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "two", parseErr.Value)
}

func TestErrors(t *testing.T) {
	err := NewTypeMismatch("k", KindList, KindString)
	assert.ErrorIs(t, err, ErrTypeMismatch)
	assert.NotErrorIs(t, err, ErrParse)
	assert.Contains(t, err.Error(), "string")

	assert.ErrorIs(t, &ArityError{Op: "mset", Got: 3}, ErrArity)
}
