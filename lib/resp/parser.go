package resp

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"math/big"
	"strconv"
)

// Limits enforced by the Parser
const (
	MaxBulkLength  = 512 * 1024 * 1024 // 512 MiB, same limit as redis
	MaxArrayLength = 1024 * 1024       // maximum number of elements of one array
	maxDepth       = 512               // maximum nesting of arrays
)

// Parser reads protocol values from a byte stream
type Parser struct {
	r *bufio.Reader
}

// NewParser creates a parser reading from r. If r is already a *bufio.Reader
// it is used directly, otherwise it is wrapped in one.
func NewParser(r io.Reader) *Parser {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Parser{r: br}
}

// Buffered returns the number of bytes that were read from the stream but
// not consumed yet. A server can use this to detect pipelined requests.
func (p *Parser) Buffered() int {
	return p.r.Buffered()
}

// Next reads the next top-level value from the stream. It consumes exactly
// the bytes belonging to that value. At a clean end of the stream (no byte of
// a new value was read) io.EOF is returned.
func (p *Parser) Next() (Value, error) {
	return p.next(0)
}

func (p *Parser) next(depth int) (Value, error) {
	for {
		marker, err := p.r.ReadByte()
		if err != nil {
			return nil, err
		}

		switch Type(marker) {
		case TypeInteger:
			return p.readInteger()
		case TypeSimple:
			line, err := p.readLine()
			if err != nil {
				return nil, err
			}
			return SimpleString(line), nil
		case TypeError:
			line, err := p.readLine()
			if err != nil {
				return nil, err
			}
			return Error(line), nil
		case TypeBulk:
			return p.readBulk()
		case TypeArray:
			return p.readArray(depth)
		default:
			// inline command, the marker is part of the first token
			if err := p.r.UnreadByte(); err != nil {
				return nil, err
			}
			v, err := p.readInline()
			if err != nil {
				return nil, err
			}
			if v == nil {
				continue // blank line
			}
			return v, nil
		}
	}
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// readLine reads up to and including the next line terminator and returns
// the line without it. A last line without terminator at the end of the
// stream is accepted.
func (p *Parser) readLine() ([]byte, error) {
	line, err := p.r.ReadBytes('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if len(line) > 0 {
				return trimTerminator(line), nil
			}
			return nil, &ProtocolError{Msg: "unexpected end of stream", Err: io.ErrUnexpectedEOF}
		}
		return nil, err
	}
	return trimTerminator(line), nil
}

func (p *Parser) readInteger() (Value, error) {
	line, err := p.readLine()
	if err != nil {
		return nil, err
	}
	n, ok := new(big.Int).SetString(string(line), 10)
	if !ok {
		return nil, newProtocolError("invalid integer %q", line)
	}
	return Integer{Value: n}, nil
}

// readLength reads the length line of a bulk string or an array
func (p *Parser) readLength() (int64, error) {
	line, err := p.readLine()
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(string(line), 10, 64)
	if err != nil {
		return 0, newProtocolError("invalid length %q", line)
	}
	return n, nil
}

func (p *Parser) readBulk() (Value, error) {
	n, err := p.readLength()
	if err != nil {
		return nil, err
	}

	// null bulk string, there is no body to read
	if n < 0 {
		return Null{}, nil
	}
	if n > MaxBulkLength {
		return nil, newProtocolError("bulk length %d exceeds limit of %d", n, MaxBulkLength)
	}

	// the body is read by length, embedded CR/LF bytes are payload
	body := make([]byte, n)
	if _, err := io.ReadFull(p.r, body); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &ProtocolError{Msg: "unexpected end of stream in bulk string", Err: io.ErrUnexpectedEOF}
		}
		return nil, err
	}

	// discard the trailing terminator
	rest, err := p.r.ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if len(trimTerminator(rest)) != 0 {
		return nil, newProtocolError("bulk string of length %d not followed by CRLF", n)
	}

	return BulkString(body), nil
}

func (p *Parser) readArray(depth int) (Value, error) {
	n, err := p.readLength()
	if err != nil {
		return nil, err
	}

	// null array (distinct from the empty array)
	if n < 0 {
		return Null{}, nil
	}
	if n > MaxArrayLength {
		return nil, newProtocolError("array length %d exceeds limit of %d", n, MaxArrayLength)
	}
	if depth >= maxDepth {
		return nil, newProtocolError("array nesting exceeds limit of %d", maxDepth)
	}

	// do not trust the announced length for the allocation
	arr := make(Array, 0, min(n, 1024))
	for i := int64(0); i < n; i++ {
		elem, err := p.next(depth + 1)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, &ProtocolError{Msg: "unexpected end of stream in array", Err: io.ErrUnexpectedEOF}
			}
			return nil, err
		}
		arr = append(arr, elem)
	}
	return arr, nil
}

// readInline reads an inline command line. It returns nil for blank lines.
func (p *Parser) readInline() (Value, error) {
	line, err := p.readLine()
	if err != nil {
		return nil, err
	}
	fields := bytes.Fields(line)
	if len(fields) == 0 {
		return nil, nil
	}
	arr := make(Array, len(fields))
	for i, field := range fields {
		arr[i] = SimpleString(field)
	}
	return arr, nil
}

// trimTerminator removes a trailing "\n" or "\r\n"
func trimTerminator(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte{'\n'})
	return bytes.TrimSuffix(line, []byte{'\r'})
}
