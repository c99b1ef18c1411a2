package tensor

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// MatMul computes the matrix product of two rank-2 tensors: [m,k] @ [k,n] -> [m,n].
// The product is delegated to gonum's BLAS-backed Dense.Mul.
func MatMul(a, b *Tensor) (*Tensor, error) {
	if a.Rank() != 2 || b.Rank() != 2 {
		return nil, errors.Wrapf(ErrShapeMismatch, "MatMul expects rank-2 operands, got %s and %s", a.shape, b.shape)
	}
	m, k := a.shape[0], a.shape[1]
	k2, n := b.shape[0], b.shape[1]
	if k != k2 {
		return nil, errors.Wrapf(ErrShapeMismatch, "MatMul inner dimensions differ: %s @ %s", a.shape, b.shape)
	}

	// gonum keeps a reference to the backing slices; the copies keep views safe.
	lhs := mat.NewDense(m, k, append([]float64(nil), a.Data()...))
	rhs := mat.NewDense(k, n, append([]float64(nil), b.Data()...))
	out := New(Shape{m, n})
	dst := mat.NewDense(m, n, out.buffer)
	dst.Mul(lhs, rhs)
	return out, nil
}

// MatMulTransposed computes a @ b with either operand optionally transposed,
// avoiding an explicit Transpose copy in backward passes.
func MatMulTransposed(a *Tensor, transA bool, b *Tensor, transB bool) (*Tensor, error) {
	if a.Rank() != 2 || b.Rank() != 2 {
		return nil, errors.Wrapf(ErrShapeMismatch, "MatMul expects rank-2 operands, got %s and %s", a.shape, b.shape)
	}
	var lhs, rhs mat.Matrix
	lhs = mat.NewDense(a.shape[0], a.shape[1], append([]float64(nil), a.Data()...))
	rhs = mat.NewDense(b.shape[0], b.shape[1], append([]float64(nil), b.Data()...))
	if transA {
		lhs = lhs.T()
	}
	if transB {
		rhs = rhs.T()
	}
	m, k := lhs.Dims()
	k2, n := rhs.Dims()
	if k != k2 {
		return nil, errors.Wrapf(ErrShapeMismatch, "MatMul inner dimensions differ: %d vs %d", k, k2)
	}
	out := New(Shape{m, n})
	dst := mat.NewDense(m, n, out.buffer)
	dst.Mul(lhs, rhs)
	return out, nil
}
