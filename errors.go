package sapigen

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrIO is returned when an input path passed to the Parser Driver does
// not exist on disk.
var ErrIO = errors.New("input path does not exist")

// ErrInvalidArgument is returned by operations that received an argument
// they can't work with, eg. deriving a header guard from an empty path.
var ErrInvalidArgument = errors.New("invalid argument")

// UnsupportedTypeError is returned when a function argument or return
// value can't be mapped onto a sapi::v wrapper type: a by-value
// record/elaborated type, or a scalar kind absent from typeMapping.
type UnsupportedTypeError struct {
	Function string
	Position int
	Spelling string
	Location string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf(
		"unsupported type: function %s, argument %d, type %q, location %s",
		e.Function, e.Position, e.Spelling, e.Location)
}

// newUnsupportedTypeError wraps the taxonomy entry with call-site
// context, the way a ValueError is raised with full context in the
// original Python implementation.
func newUnsupportedTypeError(function string, pos int, spelling, location string) error {
	return &UnsupportedTypeError{
		Function: function,
		Position: pos,
		Spelling: spelling,
		Location: location,
	}
}
