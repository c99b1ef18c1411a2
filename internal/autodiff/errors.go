package autodiff

import (
	"github.com/pkg/errors"

	"github.com/gradflow/gradflow/internal/autodiff/ops"
)

var (
	// ErrIncompatibleShape is returned when a node is built over operands whose
	// shapes cannot feed the requested operator.
	ErrIncompatibleShape = ops.ErrIncompatibleShape

	// ErrDanglingReference is returned when a node references a node owned by
	// another graph, or a model references nodes it does not own.
	ErrDanglingReference = errors.New("dangling reference")

	// ErrNumericInstability is returned under NumericAbort when a pass produces
	// NaN or Inf values.
	ErrNumericInstability = errors.New("numeric instability")

	// ErrUnboundPlaceholder is returned when a forward pass reaches a
	// placeholder without a bound tensor.
	ErrUnboundPlaceholder = errors.New("unbound placeholder")
)
