// Package errors provides the error taxonomy used across the forecasting pipeline.
//
// It is a thin layer over github.com/cockroachdb/errors: every constructor returns a
// typed error that carries a stack trace when formatted with %+v and that can be
// inspected with errors.Is / errors.As through any number of wrapping layers.
//
// The pipeline distinguishes four failure classes:
//
//   - DimensionError: the feature count of an input disagrees with the configuration
//     (matches ErrShapeMismatch)
//   - ConfigError: a variant was constructed with inconsistent parameters (ErrConfig)
//   - DegenerateRangeError: a component has max == min while (un)rescaling (ErrDegenerateRange)
//   - NotReadyError: metrics or reports requested without a prediction (ErrNotReady)
//
// Everything raised by collaborators (for example the sequence trainer) is wrapped with
// Wrap/Wrapf and propagated unchanged.
package errors

import (
	"fmt"
	"math"

	"github.com/cockroachdb/errors"
)

// Sentinel errors. Compare with errors.Is.
var (
	ErrEmptyData         = errors.New("empty data")
	ErrSingularMatrix    = errors.New("singular matrix")
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrNotFitted         = errors.New("not fitted")
	ErrConfig            = errors.New("invalid configuration")
	ErrDegenerateRange   = errors.New("degenerate rescaling range")
	ErrNotReady          = errors.New("no prediction available")
	ErrNonFinite         = errors.New("non-finite value")

	// ErrShapeMismatch is the name the forecasting API uses for a dimension mismatch.
	ErrShapeMismatch = ErrDimensionMismatch
)

// New, Newf, Wrap, Wrapf, Is and As forward to cockroachdb/errors so that callers only
// ever import this package.
var (
	New   = errors.New
	Newf  = errors.Newf
	Wrap  = errors.Wrap
	Wrapf = errors.Wrapf
	Is    = errors.Is
	As    = errors.As
)

// DimensionError reports a shape disagreement along one axis.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int
}

// NewDimensionError creates a DimensionError. axis is 0 for rows, 1 for columns.
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

func (e *DimensionError) Error() string {
	axis := "rows"
	if e.Axis == 1 {
		axis = "columns"
	}
	return fmt.Sprintf("%s: dimension mismatch on %s: expected %d, got %d", e.Op, axis, e.Expected, e.Got)
}

func (e *DimensionError) Unwrap() error { return ErrDimensionMismatch }

// NotFittedError is returned when a transformer or estimator is used before Fit.
type NotFittedError struct {
	ModelName string
	Method    string
}

// NewNotFittedError creates a NotFittedError.
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("%s: this instance is not fitted yet, call Fit before %s", e.ModelName, e.Method)
}

func (e *NotFittedError) Unwrap() error { return ErrNotFitted }

// ValueError reports an argument with an unacceptable value.
type ValueError struct {
	Op      string
	Message string
}

// NewValueError creates a ValueError.
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// ValidationError reports a parameter that failed validation.
type ValidationError struct {
	Param  string
	Reason string
	Value  interface{}
}

// NewValidationError creates a ValidationError.
func NewValidationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{Param: param, Reason: reason, Value: value})
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Param, e.Value, e.Reason)
}

// ModelError attaches an operation and message to an underlying cause.
type ModelError struct {
	Op      string
	Message string
	Err     error
}

// NewModelError creates a ModelError wrapping err.
func NewModelError(op, message string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Message: message, Err: err})
}

func (e *ModelError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("dicl: %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("dicl: %s: %s: %v", e.Op, e.Message, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// ConfigError reports an inconsistent forecaster configuration, detected at construction.
type ConfigError struct {
	Field   string
	Message string
}

// NewConfigError creates a ConfigError.
func NewConfigError(field, message string) error {
	return errors.WithStack(&ConfigError{Field: field, Message: message})
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

func (e *ConfigError) Unwrap() error { return ErrConfig }

// DegenerateRangeError is returned when a component's rescaling range has zero width.
type DegenerateRangeError struct {
	Op        string
	Component int
	Value     float64
}

// NewDegenerateRangeError creates a DegenerateRangeError for component c whose min and max equal value.
func NewDegenerateRangeError(op string, c int, value float64) error {
	return errors.WithStack(&DegenerateRangeError{Op: op, Component: c, Value: value})
}

func (e *DegenerateRangeError) Error() string {
	return fmt.Sprintf("%s: component %d has a zero-width rescaling range (min == max == %g)", e.Op, e.Component, e.Value)
}

func (e *DegenerateRangeError) Unwrap() error { return ErrDegenerateRange }

// NotReadyError is returned when metrics or reports are requested without a prediction result.
type NotReadyError struct {
	Op string
}

// NewNotReadyError creates a NotReadyError.
func NewNotReadyError(op string) error {
	return errors.WithStack(&NotReadyError{Op: op})
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("%s: no prediction available, call PredictSingleStep or PredictMultiStep first", e.Op)
}

func (e *NotReadyError) Unwrap() error { return ErrNotReady }

// CheckScalar returns an error if v is NaN or ±Inf.
func CheckScalar(op string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errors.WithStack(&ModelError{Op: op, Message: fmt.Sprintf("got %v", v), Err: ErrNonFinite})
	}
	return nil
}

// Recover converts a panic raised inside op (gonum panics on shape errors) into *err.
// It must be deferred directly:
//
//	defer errors.Recover(&err, "PCA.Fit")
func Recover(err *error, op string) {
	if r := recover(); r != nil {
		switch v := r.(type) {
		case error:
			*err = errors.Wrapf(v, "%s: recovered from panic", op)
		default:
			*err = errors.Newf("%s: recovered from panic: %v", op, v)
		}
	}
}
