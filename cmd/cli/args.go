package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// SplitArgs splits an input line into arguments. Arguments are separated by
// whitespace, double quoted arguments may contain spaces and Go escape
// sequences ("a\nb"), single quoted arguments are taken literally.
func SplitArgs(line string) ([]string, error) {
	var args []string
	var current strings.Builder
	inArg := false

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}

		case ch == '"':
			end, err := closingQuote(line, i)
			if err != nil {
				return nil, err
			}
			value, err := strconv.Unquote(line[i : end+1])
			if err != nil {
				return nil, fmt.Errorf("invalid quoted argument %s", line[i:end+1])
			}
			current.WriteString(value)
			inArg = true
			i = end

		case ch == '\'':
			end := strings.IndexByte(line[i+1:], '\'')
			if end < 0 {
				return nil, fmt.Errorf("unbalanced quotes")
			}
			current.WriteString(line[i+1 : i+1+end])
			inArg = true
			i += end + 1

		default:
			current.WriteByte(ch)
			inArg = true
		}
	}

	if inArg {
		args = append(args, current.String())
	}
	return args, nil
}

// closingQuote returns the index of the double quote closing the one at start
func closingQuote(line string, start int) (int, error) {
	for i := start + 1; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case '"':
			return i, nil
		}
	}
	return 0, fmt.Errorf("unbalanced quotes")
}
