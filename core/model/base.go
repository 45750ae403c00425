// Package model provides the core abstractions shared by every estimator in the module.
//
// This package defines:
//
//   - BaseEstimator: fitted-state tracking and optional logging, embedded by transformers
//   - StateManager: a mutex guarded fitted flag for pipelines
//   - Transformer: the Fit / Transform / InverseTransform contract of a disentangling stage
//   - scikit-learn import: load transformer parameters fitted in Python
//
// Example usage:
//
//	type MyTransformer struct {
//		model.BaseEstimator
//		// transformer-specific fields
//	}
//
//	func (m *MyTransformer) Fit(X mat.Matrix) error {
//		// fitting logic
//		m.SetFitted() // mark as fitted
//		return nil
//	}
package model

// EstimatorState represents the learning state of a model
type EstimatorState int

const (
	// NotFitted indicates the model is not yet fitted
	NotFitted EstimatorState = iota
	// Fitted indicates the model has been fitted
	Fitted
)

// BaseEstimator is the base structure for all transformers
type BaseEstimator struct {
	// State holds the fitted state. Public for gob encoding.
	State EstimatorState

	// logger is used for logging model operations. Ignored by gob encoding.
	logger interface{}
}

// IsFitted returns whether the estimator has been fitted.
//
// All transformers must be fitted before Transform or InverseTransform.
//
// Example:
//
//	if !scaler.IsFitted() {
//	    if err := scaler.Fit(X); err != nil {
//	        log.Fatal(err)
//	    }
//	}
func (e *BaseEstimator) IsFitted() bool {
	return e.State == Fitted
}

// SetFitted marks the estimator as fitted. Called by implementations at the end of Fit.
func (e *BaseEstimator) SetFitted() {
	e.State = Fitted
}

// Reset returns the estimator to its unfitted state.
func (e *BaseEstimator) Reset() {
	e.State = NotFitted
}

// SetLogger sets the logger for this estimator (typically a log.Logger).
func (e *BaseEstimator) SetLogger(logger interface{}) {
	e.logger = logger
}

// LogDebug logs a debug-level message if a logger is configured.
func (e *BaseEstimator) LogDebug(msg string, fields ...interface{}) {
	if logger, ok := e.logger.(interface {
		Debug(string, ...interface{})
	}); ok {
		logger.Debug(msg, fields...)
	}
}
