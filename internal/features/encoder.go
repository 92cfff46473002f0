package features

import (
	"errors"
	"fmt"
)

// Encoder errors.
var (
	ErrEmptyEncoder     = errors.New("label encoder has no classes")
	ErrDuplicateClasses = errors.New("label encoder classes are not unique")
)

// LabelEncoder is an immutable bijection between known category strings and
// integer codes, plus one fallback code for values it has never seen.
//
// Unseen values encode as the mode's code. When the mode is itself unknown
// the fallback code is len(classes), reserved at construction, so encoding
// never mutates the encoder and concurrent use needs no locking.
type LabelEncoder struct {
	classes      []string
	index        map[string]int
	fallback     string
	fallbackCode int
}

// NewLabelEncoder builds an encoder over classes in code order. mode is the
// substitute for unseen values; an empty mode selects the first class.
func NewLabelEncoder(classes []string, mode string) (*LabelEncoder, error) {
	if len(classes) == 0 {
		return nil, ErrEmptyEncoder
	}

	index := make(map[string]int, len(classes))
	for i, c := range classes {
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateClasses, c)
		}
		index[c] = i
	}

	if mode == "" {
		mode = classes[0]
	}

	code, known := index[mode]
	if !known {
		code = len(classes)
	}

	return &LabelEncoder{
		classes:      append([]string(nil), classes...),
		index:        index,
		fallback:     mode,
		fallbackCode: code,
	}, nil
}

// Encode returns the code for value, or the fallback code if it is unseen.
func (e *LabelEncoder) Encode(value string) int {
	if code, ok := e.index[value]; ok {
		return code
	}
	return e.fallbackCode
}

// Known reports whether value is one of the encoder's classes.
func (e *LabelEncoder) Known(value string) bool {
	_, ok := e.index[value]
	return ok
}

// Fallback returns the substitute value for unseen categories and its code.
func (e *LabelEncoder) Fallback() (string, int) {
	return e.fallback, e.fallbackCode
}

// Len returns the number of known classes.
func (e *LabelEncoder) Len() int {
	return len(e.classes)
}

// Classes returns a copy of the known classes in code order.
func (e *LabelEncoder) Classes() []string {
	return append([]string(nil), e.classes...)
}
