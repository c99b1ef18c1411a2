package tensor

import "github.com/pkg/errors"

// ErrShapeMismatch is returned when operand shapes are incompatible for the
// requested operation. Errors returned by this package wrap it, use errors.Is.
var ErrShapeMismatch = errors.New("shape mismatch")

func shapeMismatch(op string, a, b Shape) error {
	return errors.Wrapf(ErrShapeMismatch, "%s: %s vs %s", op, a, b)
}
