package connstr

import (
	"fmt"
	"strings"
)

const (
	pairSeparator     = ";"
	keyValueSeparator = "="
)

// Pair is a single key=value segment of a descriptor.
type Pair struct {
	Key   string
	Value string
}

// Pairs keeps descriptor segments in input order.
type Pairs []Pair

// Get returns the value for key. When a key repeats the last occurrence wins.
func (p Pairs) Get(key string) (string, bool) {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i].Key == key {
			return p[i].Value, true
		}
	}
	return "", false
}

// Tokenize splits a descriptor on ';' and each segment on its first '='.
func Tokenize(s string) (Pairs, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: descriptor is empty", ErrFormat)
	}
	segments := strings.Split(s, pairSeparator)
	// a single trailing ';' leaves one empty segment behind
	if len(segments) > 1 && segments[len(segments)-1] == "" {
		segments = segments[:len(segments)-1]
	}

	pairs := make(Pairs, 0, len(segments))
	for i, segment := range segments {
		key, value, ok := strings.Cut(segment, keyValueSeparator)
		if !ok {
			return nil, fmt.Errorf("%w: segment %d has no '='", ErrFormat, i)
		}
		pairs = append(pairs, Pair{Key: key, Value: value})
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: descriptor has no key=value pairs", ErrFormat)
	}
	return pairs, nil
}
