package model

import "gonum.org/v1/gonum/mat"

// Transformer is an invertible, fittable transformation of a samples × features matrix.
// Implementations must be deterministic once fitted.
type Transformer interface {
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (mat.Matrix, error)
	InverseTransform(X mat.Matrix) (mat.Matrix, error)
}
