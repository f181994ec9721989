package document

import (
	"strconv"
	"strings"
)

// OptionalInt is the result of a lenient numeric parse. Malformed input
// yields Valid == false instead of an error: a year of "MCMXCIV" must
// not abort an import, it just stores as null.
type OptionalInt struct {
	Int   int
	Valid bool
}

// ParseOptionalInt parses s as a base-10 integer. Leading and trailing
// whitespace is tolerated; anything else that fails to parse, including
// the empty string, returns an invalid OptionalInt.
func ParseOptionalInt(s string) OptionalInt {
	s = strings.TrimSpace(s)
	if s == "" {
		return OptionalInt{}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return OptionalInt{}
	}
	return OptionalInt{Int: n, Valid: true}
}

// Ptr returns the value as a nullable pointer for storage, nil when the
// parse failed.
func (o OptionalInt) Ptr() *int {
	if !o.Valid {
		return nil
	}
	n := o.Int
	return &n
}
