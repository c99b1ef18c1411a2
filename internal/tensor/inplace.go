package tensor

// In-place operations. They mutate the receiver's storage (and therefore every
// view aliasing it) and are reserved for optimizers updating variable values.

// AddInPlace performs t += other.
func (t *Tensor) AddInPlace(other *Tensor) error {
	return t.AxpyInPlace(1, other)
}

// SubInPlace performs t -= other.
func (t *Tensor) SubInPlace(other *Tensor) error {
	return t.AxpyInPlace(-1, other)
}

// AxpyInPlace performs t += alpha * x.
func (t *Tensor) AxpyInPlace(alpha float64, x *Tensor) error {
	if !t.SameShape(x) {
		return shapeMismatch("AxpyInPlace", t.shape, x.shape)
	}
	dst, src := t.Data(), x.Data()
	for i := range dst {
		dst[i] += alpha * src[i]
	}
	return nil
}

// MulInPlace performs t *= other element-wise.
func (t *Tensor) MulInPlace(other *Tensor) error {
	if !t.SameShape(other) {
		return shapeMismatch("MulInPlace", t.shape, other.shape)
	}
	dst, src := t.Data(), other.Data()
	for i := range dst {
		dst[i] *= src[i]
	}
	return nil
}

// ScaleInPlace performs t *= s.
func (t *Tensor) ScaleInPlace(s float64) {
	dst := t.Data()
	for i := range dst {
		dst[i] *= s
	}
}

// Fill sets every element to value.
func (t *Tensor) Fill(value float64) {
	dst := t.Data()
	for i := range dst {
		dst[i] = value
	}
}

// CopyFrom overwrites t with the contents of src.
func (t *Tensor) CopyFrom(src *Tensor) error {
	if !t.SameShape(src) {
		return shapeMismatch("CopyFrom", t.shape, src.shape)
	}
	copy(t.Data(), src.Data())
	return nil
}
