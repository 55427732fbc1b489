package db

// Kind is the tag of a stored value
type Kind int

const (
	KindNone Kind = iota
	KindString
	KindSet
	KindList
)

// String returns the name used by the TYPE command
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindSet:
		return "set"
	case KindList:
		return "list"
	default:
		return "none"
	}
}

// Value is a stored value. The set of implementations is closed.
type Value interface {
	Kind() Kind

	// Len is the number of bytes of a string or the number of elements of a
	// set or list
	Len() int

	isStored()
}

// StringValue holds bytes, integers are stored as decimal text
type StringValue []byte

// SetValue holds unique members (keys are the raw member bytes)
type SetValue map[string]struct{}

// ListValue holds ordered elements, duplicates are allowed
type ListValue [][]byte

func (StringValue) Kind() Kind { return KindString }
func (SetValue) Kind() Kind    { return KindSet }
func (ListValue) Kind() Kind   { return KindList }

func (v StringValue) Len() int { return len(v) }
func (v SetValue) Len() int    { return len(v) }
func (v ListValue) Len() int   { return len(v) }

func (StringValue) isStored() {}
func (SetValue) isStored()    {}
func (ListValue) isStored()   {}

// KindOf returns the kind of v, KindNone for nil
func KindOf(v Value) Kind {
	if v == nil {
		return KindNone
	}
	return v.Kind()
}
