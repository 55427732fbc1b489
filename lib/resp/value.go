package resp

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"
)

// --------------------------------------------------------------------------
// Type markers
// --------------------------------------------------------------------------

const CRLF = "\r\n"

// Type is the leading marker byte of a value on the wire
type Type byte

const (
	TypeSimple  Type = '+'
	TypeError   Type = '-'
	TypeInteger Type = ':'
	TypeBulk    Type = '$'
	TypeArray   Type = '*'
)

func (t Type) String() string {
	switch t {
	case TypeSimple:
		return "SimpleString"
	case TypeError:
		return "Error"
	case TypeInteger:
		return "Integer"
	case TypeBulk:
		return "BulkString"
	case TypeArray:
		return "Array"
	default:
		return "Unknown"
	}
}

// --------------------------------------------------------------------------
// Value variants
// --------------------------------------------------------------------------

// Value is a protocol value. The set of implementations is closed, it is
// not possible to implement Value outside of this package.
type Value interface {
	// Type returns the wire marker of the value. Null reports TypeBulk since
	// it is written as a null bulk string.
	Type() Type
	isValue()
}

// Null is the absence of a value (null bulk string or null array)
type Null struct{}

// SimpleString is short text without CR or LF
type SimpleString string

// Integer is an arbitrary-precision signed integer
type Integer struct {
	Value *big.Int
}

// BulkString is a binary safe byte sequence
type BulkString []byte

// Array is an ordered sequence of values, it may be empty and may nest
type Array []Value

// Error is an error reply
type Error string

func (Null) Type() Type         { return TypeBulk }
func (SimpleString) Type() Type { return TypeSimple }
func (Integer) Type() Type      { return TypeInteger }
func (BulkString) Type() Type   { return TypeBulk }
func (Array) Type() Type        { return TypeArray }
func (Error) Type() Type        { return TypeError }

func (Null) isValue()         {}
func (SimpleString) isValue() {}
func (Integer) isValue()      {}
func (BulkString) isValue()   {}
func (Array) isValue()        {}
func (Error) isValue()        {}

// --------------------------------------------------------------------------
// Constructors
// --------------------------------------------------------------------------

// Str creates a simple string value
func Str(s string) SimpleString {
	return SimpleString(s)
}

// Bulk creates a bulk string value from a string
func Bulk(s string) BulkString {
	return BulkString(s)
}

// Int creates an integer value from an int64
func Int(i int64) Integer {
	return Integer{Value: big.NewInt(i)}
}

// BigInt creates an integer value that shares the given big.Int
func BigInt(i *big.Int) Integer {
	return Integer{Value: i}
}

// Errorf creates an error reply with a formatted message
func Errorf(format string, args ...interface{}) Error {
	return Error(fmt.Sprintf(format, args...))
}

// Command creates the array form of a command, all arguments as bulk strings
func Command(args ...string) Array {
	arr := make(Array, len(args))
	for i, arg := range args {
		arr[i] = BulkString(arg)
	}
	return arr
}

// BulkArray creates an array of bulk strings from raw byte slices
func BulkArray(items [][]byte) Array {
	arr := make(Array, len(items))
	for i, item := range items {
		arr[i] = BulkString(item)
	}
	return arr
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// IsNull reports whether v is the Null value
func IsNull(v Value) bool {
	_, ok := v.(Null)
	return ok
}

// Text returns the bytes of a textual value (SimpleString or BulkString).
// The boolean is false for all other variants.
func Text(v Value) ([]byte, bool) {
	switch val := v.(type) {
	case SimpleString:
		return []byte(val), true
	case BulkString:
		return val, true
	default:
		return nil, false
	}
}

// Equal reports whether a and b are the same value. Integers are compared by
// numeric value, a nil Array equals an empty Array.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case SimpleString:
		y, ok := b.(SimpleString)
		return ok && x == y
	case Error:
		y, ok := b.(Error)
		return ok && x == y
	case BulkString:
		y, ok := b.(BulkString)
		return ok && bytes.Equal(x, y)
	case Integer:
		y, ok := b.(Integer)
		if !ok {
			return false
		}
		if x.Value == nil || y.Value == nil {
			return x.Value == nil && y.Value == nil
		}
		return x.Value.Cmp(y.Value) == 0
	case Array:
		y, ok := b.(Array)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Format renders a value in a human readable, redis-cli like form
func Format(v Value) string {
	var sb strings.Builder
	format(&sb, v, "")
	return sb.String()
}

func format(sb *strings.Builder, v Value, indent string) {
	switch val := v.(type) {
	case Null:
		sb.WriteString("(nil)")
	case SimpleString:
		sb.WriteString(string(val))
	case Error:
		sb.WriteString("(error) ")
		sb.WriteString(string(val))
	case BulkString:
		sb.WriteString(fmt.Sprintf("%q", []byte(val)))
	case Integer:
		sb.WriteString("(integer) ")
		if val.Value != nil {
			sb.WriteString(val.Value.String())
		}
	case Array:
		if len(val) == 0 {
			sb.WriteString("(empty array)")
			return
		}
		for i, elem := range val {
			if i > 0 {
				sb.WriteString("\n")
				sb.WriteString(indent)
			}
			prefix := fmt.Sprintf("%d) ", i+1)
			sb.WriteString(prefix)
			format(sb, elem, indent+strings.Repeat(" ", len(prefix)))
		}
	default:
		sb.WriteString("(unknown)")
	}
}
