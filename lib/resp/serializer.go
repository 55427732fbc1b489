package resp

import (
	"io"
	"strconv"
	"strings"
)

// Serializer writes protocol values to an output sink
type Serializer struct {
	w   io.Writer
	buf []byte
}

// NewSerializer creates a serializer writing to w.
// The serializer does not buffer across calls, wrap w in a bufio.Writer
// when many small values are written.
func NewSerializer(w io.Writer) *Serializer {
	return &Serializer{w: w}
}

// Write appends the wire bytes of v to the output.
// If v (or any nested element) can not be represented, ErrUnsupported is
// returned and nothing is written.
func (s *Serializer) Write(v Value) error {
	buf, err := AppendValue(s.buf[:0], v)
	if err != nil {
		return err
	}
	s.buf = buf
	_, err = s.w.Write(buf)
	return err
}

// Marshal returns the wire bytes of v
func Marshal(v Value) ([]byte, error) {
	return AppendValue(nil, v)
}

// AppendValue appends the wire bytes of v to dst and returns the extended buffer.
// On error the returned buffer is dst unchanged.
func AppendValue(dst []byte, v Value) ([]byte, error) {
	out, err := appendValue(dst, v)
	if err != nil {
		return dst, err
	}
	return out, nil
}

func appendValue(dst []byte, v Value) ([]byte, error) {
	switch val := v.(type) {
	case Null:
		return append(dst, "$-1"+CRLF...), nil
	case SimpleString:
		// text is always written in bulk form to stay binary safe
		return appendBulk(dst, []byte(val)), nil
	case BulkString:
		return appendBulk(dst, val), nil
	case Integer:
		if val.Value == nil {
			return dst, ErrUnsupported
		}
		dst = append(dst, byte(TypeInteger))
		dst = val.Value.Append(dst, 10)
		return append(dst, CRLF...), nil
	case Array:
		dst = append(dst, byte(TypeArray))
		dst = strconv.AppendInt(dst, int64(len(val)), 10)
		dst = append(dst, CRLF...)
		var err error
		for _, elem := range val {
			if dst, err = appendValue(dst, elem); err != nil {
				return dst, err
			}
		}
		return dst, nil
	case Error:
		dst = append(dst, byte(TypeError))
		dst = append(dst, sanitizeLine(string(val))...)
		return append(dst, CRLF...), nil
	default:
		return dst, ErrUnsupported
	}
}

func appendBulk(dst []byte, b []byte) []byte {
	dst = append(dst, byte(TypeBulk))
	dst = strconv.AppendInt(dst, int64(len(b)), 10)
	dst = append(dst, CRLF...)
	dst = append(dst, b...)
	return append(dst, CRLF...)
}

// sanitizeLine replaces line breaks so the text fits in a single line
func sanitizeLine(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(s)
}
