package ops_test

import (
	"errors"
	"math"
	"testing"

	"github.com/gradflow/gradflow/internal/autodiff/ops"
	"github.com/gradflow/gradflow/internal/tensor"
)

// Helper to check float64 slices are equal within epsilon.
func floatsEqual(a, b []float64, epsilon float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > epsilon {
			return false
		}
	}
	return true
}

func mustTensor(t *testing.T, data []float64, shape tensor.Shape) *tensor.Tensor {
	t.Helper()
	x, err := tensor.FromSlice(data, shape)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	return x
}

// TestAddOp_Backward tests AddOp backward pass.
func TestAddOp_Backward(t *testing.T) {
	a := mustTensor(t, []float64{1, 2, 3}, tensor.Shape{3})
	b := mustTensor(t, []float64{4, 5, 6}, tensor.Shape{3})
	op := ops.AddOp{}

	out, err := op.Forward([]*tensor.Tensor{a, b})
	if err != nil {
		t.Fatal(err)
	}
	grads, err := op.Backward([]*tensor.Tensor{a, b}, out, tensor.Ones(tensor.Shape{3}))
	if err != nil {
		t.Fatal(err)
	}

	// For addition: grad_a = grad_b = outputGrad
	expected := []float64{1, 1, 1}
	if !floatsEqual(grads[0].Data(), expected, 1e-12) {
		t.Errorf("AddOp grad_a: got %v, want %v", grads[0].Data(), expected)
	}
	if !floatsEqual(grads[1].Data(), expected, 1e-12) {
		t.Errorf("AddOp grad_b: got %v, want %v", grads[1].Data(), expected)
	}
}

// TestAddOp_BroadcastBackward tests AddOp backward with broadcasting.
func TestAddOp_BroadcastBackward(t *testing.T) {
	// a = [1, 2, 3] (shape [3]), b = [10] (shape [1])
	a := mustTensor(t, []float64{1, 2, 3}, tensor.Shape{3})
	b := mustTensor(t, []float64{10}, tensor.Shape{1})
	op := ops.AddOp{}

	out, err := op.Forward([]*tensor.Tensor{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if !floatsEqual(out.Data(), []float64{11, 12, 13}, 1e-12) {
		t.Errorf("AddOp forward: got %v", out.Data())
	}

	grads, err := op.Backward([]*tensor.Tensor{a, b}, out, tensor.Ones(tensor.Shape{3}))
	if err != nil {
		t.Fatal(err)
	}

	// grad_b = sum([1, 1, 1]) = [3] (reduced to shape [1])
	if !grads[1].Shape().Equal(tensor.Shape{1}) {
		t.Errorf("AddOp grad_b shape: got %v, want [1]", grads[1].Shape())
	}
	if grads[1].Data()[0] != 3 {
		t.Errorf("AddOp grad_b: got %v, want [3]", grads[1].Data())
	}
}

func TestMulOp_Backward(t *testing.T) {
	a := mustTensor(t, []float64{2, 3}, tensor.Shape{2})
	b := mustTensor(t, []float64{5, 7}, tensor.Shape{2})
	op := ops.MulOp{}

	out, _ := op.Forward([]*tensor.Tensor{a, b})
	grads, err := op.Backward([]*tensor.Tensor{a, b}, out, mustTensor(t, []float64{1, 2}, tensor.Shape{2}))
	if err != nil {
		t.Fatal(err)
	}
	if !floatsEqual(grads[0].Data(), []float64{5, 14}, 1e-12) {
		t.Errorf("MulOp grad_a: got %v, want [5 14]", grads[0].Data())
	}
	if !floatsEqual(grads[1].Data(), []float64{2, 6}, 1e-12) {
		t.Errorf("MulOp grad_b: got %v, want [2 6]", grads[1].Data())
	}
}

func TestMaximumOp_TiesRouteLeft(t *testing.T) {
	a := mustTensor(t, []float64{1, 5, 3}, tensor.Shape{3})
	b := mustTensor(t, []float64{2, 5, 1}, tensor.Shape{3})
	op := ops.MaximumOp{}

	out, _ := op.Forward([]*tensor.Tensor{a, b})
	grads, err := op.Backward([]*tensor.Tensor{a, b}, out, tensor.Ones(tensor.Shape{3}))
	if err != nil {
		t.Fatal(err)
	}
	if !floatsEqual(grads[0].Data(), []float64{0, 1, 1}, 0) {
		t.Errorf("MaximumOp grad_a: got %v, want [0 1 1]", grads[0].Data())
	}
	if !floatsEqual(grads[1].Data(), []float64{1, 0, 0}, 0) {
		t.Errorf("MaximumOp grad_b: got %v, want [1 0 0]", grads[1].Data())
	}
}

func TestMatMulOp_InferShape(t *testing.T) {
	op := ops.MatMulOp{}

	tests := []struct {
		a, b    tensor.Shape
		want    tensor.Shape
		wantErr bool
	}{
		{tensor.Shape{2, 3}, tensor.Shape{3, 4}, tensor.Shape{2, 4}, false},
		{tensor.Shape{tensor.Dynamic, 3}, tensor.Shape{3, 1}, tensor.Shape{tensor.Dynamic, 1}, false},
		{tensor.Shape{2, 3}, tensor.Shape{2, 3}, nil, true},
		{tensor.Shape{3}, tensor.Shape{3, 1}, nil, true},
	}
	for _, tt := range tests {
		got, err := op.InferShape([]tensor.Shape{tt.a, tt.b})
		if tt.wantErr {
			if !errors.Is(err, ops.ErrIncompatibleShape) {
				t.Errorf("InferShape(%v, %v): expected ErrIncompatibleShape, got %v", tt.a, tt.b, err)
			}
			continue
		}
		if err != nil || !got.Equal(tt.want) {
			t.Errorf("InferShape(%v, %v) = %v, %v; want %v", tt.a, tt.b, got, err, tt.want)
		}
	}
}

func TestReshapeOp_InferShape(t *testing.T) {
	tests := []struct {
		in, target tensor.Shape
		want       tensor.Shape
		wantErr    bool
	}{
		{tensor.Shape{2, 6}, tensor.Shape{3, 4}, tensor.Shape{3, 4}, false},
		{tensor.Shape{2, 6}, tensor.Shape{tensor.Dynamic, 3}, tensor.Shape{4, 3}, false},
		{tensor.Shape{tensor.Dynamic, 2, 2}, tensor.Shape{tensor.Dynamic, 4}, tensor.Shape{tensor.Dynamic, 4}, false},
		{tensor.Shape{2, 6}, tensor.Shape{5, 2}, nil, true},
		{tensor.Shape{2, 6}, tensor.Shape{tensor.Dynamic, tensor.Dynamic}, nil, true},
	}
	for _, tt := range tests {
		got, err := ops.ReshapeOp{Shape: tt.target}.InferShape([]tensor.Shape{tt.in})
		if tt.wantErr {
			if err == nil {
				t.Errorf("Reshape %v -> %v: expected error", tt.in, tt.target)
			}
			continue
		}
		if err != nil || !got.Equal(tt.want) {
			t.Errorf("Reshape %v -> %v = %v, %v; want %v", tt.in, tt.target, got, err, tt.want)
		}
	}
}

func TestReduceOp_MaxRoutesToFirstMaximum(t *testing.T) {
	x := mustTensor(t, []float64{1, 7, 3, 7}, tensor.Shape{4})
	op := ops.Reduce(ops.KindMax)

	out, err := op.Forward([]*tensor.Tensor{x})
	if err != nil {
		t.Fatal(err)
	}
	if out.Item() != 7 {
		t.Errorf("Max: got %v, want 7", out.Item())
	}

	grads, err := op.Backward([]*tensor.Tensor{x}, out, tensor.Scalar(2))
	if err != nil {
		t.Fatal(err)
	}
	if !floatsEqual(grads[0].Data(), []float64{0, 2, 0, 0}, 0) {
		t.Errorf("Max grad: got %v, want [0 2 0 0]", grads[0].Data())
	}
}

func TestReduceOp_MeanAxisBackward(t *testing.T) {
	x := mustTensor(t, []float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	op := ops.ReduceAxis(ops.KindMean, 1, false)

	shape, err := op.InferShape([]tensor.Shape{x.Shape()})
	if err != nil || !shape.Equal(tensor.Shape{2}) {
		t.Fatalf("InferShape: %v, %v", shape, err)
	}
	out, _ := op.Forward([]*tensor.Tensor{x})
	grads, err := op.Backward([]*tensor.Tensor{x}, out, mustTensor(t, []float64{3, 6}, tensor.Shape{2}))
	if err != nil {
		t.Fatal(err)
	}
	if !floatsEqual(grads[0].Data(), []float64{1, 1, 1, 2, 2, 2}, 1e-12) {
		t.Errorf("MeanAxis grad: got %v", grads[0].Data())
	}
}

func TestReduceOp_NotAReduction(t *testing.T) {
	_, err := ops.Reduce(ops.KindAdd).InferShape([]tensor.Shape{{2}})
	if err == nil {
		t.Error("expected an error for a non-reduction kind")
	}
}

func TestClipOp_InvalidBounds(t *testing.T) {
	_, err := ops.ClipOp{Min: 1, Max: 0}.InferShape([]tensor.Shape{{2}})
	if !errors.Is(err, ops.ErrIncompatibleShape) {
		t.Errorf("inverted bounds: expected ErrIncompatibleShape, got %v", err)
	}
}

func TestKind_String(t *testing.T) {
	if got := ops.KindMatMul.String(); got != "MatMul" {
		t.Errorf("KindMatMul.String() = %q", got)
	}
	if !ops.KindVariable.IsLeaf() || ops.KindAdd.IsLeaf() {
		t.Error("IsLeaf misclassifies kinds")
	}
}

func TestSoftmaxOp_RowsSumToOne(t *testing.T) {
	x := mustTensor(t, []float64{1, 2, 3, 1000, 1000, 1000}, tensor.Shape{2, 3})
	out, err := ops.SoftmaxOp{}.Forward([]*tensor.Tensor{x})
	if err != nil {
		t.Fatal(err)
	}
	data := out.Data()
	for row := 0; row < 2; row++ {
		s := data[row*3] + data[row*3+1] + data[row*3+2]
		if math.Abs(s-1) > 1e-12 {
			t.Errorf("row %d sums to %v", row, s)
		}
	}
	if !floatsEqual(data[3:], []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}, 1e-12) {
		t.Errorf("large equal logits: got %v", data[3:])
	}
	if _, err := (ops.SoftmaxOp{}).InferShape([]tensor.Shape{{}}); !errors.Is(err, ops.ErrIncompatibleShape) {
		t.Errorf("scalar operand: expected ErrIncompatibleShape, got %v", err)
	}
}

func TestLeakyReLUAndELU_Forward(t *testing.T) {
	x := mustTensor(t, []float64{-2, 0, 3}, tensor.Shape{3})

	leaky, _ := ops.LeakyReLUOp{Alpha: 0.1}.Forward([]*tensor.Tensor{x})
	if !floatsEqual(leaky.Data(), []float64{-0.2, 0, 3}, 1e-12) {
		t.Errorf("LeakyReLU: got %v", leaky.Data())
	}
	elu, _ := ops.ELUOp{Alpha: 0.5}.Forward([]*tensor.Tensor{x})
	if !floatsEqual(elu.Data(), []float64{0.5 * (math.Exp(-2) - 1), 0, 3}, 1e-12) {
		t.Errorf("ELU: got %v", elu.Data())
	}
}

func TestDropoutOp_TrainingAndInference(t *testing.T) {
	state := ops.NewDropoutState(3)
	op := ops.DropoutOp{Rate: 0.5, State: state}
	x := tensor.Ones(tensor.Shape{1000})

	out, err := op.Forward([]*tensor.Tensor{x})
	if err != nil {
		t.Fatal(err)
	}
	if !floatsEqual(out.Data(), x.Data(), 0) {
		t.Error("inference: dropout must be the identity")
	}

	state.SetTraining(true)
	first, _ := op.Forward([]*tensor.Tensor{x})
	kept := 0
	for _, v := range first.Data() {
		switch v {
		case 0:
		case 2:
			kept++
		default:
			t.Fatalf("training: element %v is neither dropped nor scaled by 1/(1-rate)", v)
		}
	}
	if kept < 400 || kept > 600 {
		t.Errorf("training: kept %d of 1000 with rate 0.5", kept)
	}

	grads, err := op.Backward([]*tensor.Tensor{x}, first, tensor.Ones(tensor.Shape{1000}))
	if err != nil {
		t.Fatal(err)
	}
	if !floatsEqual(grads[0].Data(), first.Data(), 0) {
		t.Error("backward must reuse the forward mask")
	}

	state.Advance()
	second, _ := op.Forward([]*tensor.Tensor{x})
	if floatsEqual(first.Data(), second.Data(), 0) {
		t.Error("a new step must draw a new mask")
	}

	for _, bad := range []ops.DropoutOp{{Rate: 1, State: state}, {Rate: -0.1, State: state}, {Rate: 0.5}} {
		if _, err := bad.InferShape([]tensor.Shape{{2}}); !errors.Is(err, ops.ErrIncompatibleShape) {
			t.Errorf("DropoutOp{Rate: %v, State: %v}: expected ErrIncompatibleShape, got %v", bad.Rate, bad.State, err)
		}
	}
}

func TestConcatOp_InferShape(t *testing.T) {
	tests := []struct {
		a, b tensor.Shape
		axis int
		want tensor.Shape
	}{
		{tensor.Shape{12, 11, 3}, tensor.Shape{12, 11, 4}, -1, tensor.Shape{12, 11, 7}},
		{tensor.Shape{2, 3}, tensor.Shape{5, 3}, 0, tensor.Shape{7, 3}},
		{tensor.Shape{tensor.Dynamic, 3}, tensor.Shape{tensor.Dynamic, 2}, 1, tensor.Shape{tensor.Dynamic, 5}},
		{tensor.Shape{tensor.Dynamic, 3}, tensor.Shape{4, 3}, 0, tensor.Shape{tensor.Dynamic, 3}},
		{tensor.Shape{2, 3}, tensor.Shape{2, 4}, 0, nil},
		{tensor.Shape{2, 3}, tensor.Shape{2, 3, 1}, 0, nil},
		{tensor.Shape{2, 3}, tensor.Shape{2, 3}, 2, nil},
	}
	for _, tt := range tests {
		got, err := ops.ConcatOp{Axis: tt.axis}.InferShape([]tensor.Shape{tt.a, tt.b})
		if tt.want == nil {
			if !errors.Is(err, ops.ErrIncompatibleShape) {
				t.Errorf("Concat(%v, %v, %d): expected ErrIncompatibleShape, got %v", tt.a, tt.b, tt.axis, err)
			}
			continue
		}
		if err != nil || !got.Equal(tt.want) {
			t.Errorf("Concat(%v, %v, %d) = %v, %v; want %v", tt.a, tt.b, tt.axis, got, err, tt.want)
		}
	}
}

func TestConv2DOp_InferShape(t *testing.T) {
	same := tensor.ConvConfig{Padding: tensor.PaddingSame}
	tests := []struct {
		name          string
		input, filter tensor.Shape
		cfg           tensor.ConvConfig
		want          tensor.Shape
	}{
		{"valid", tensor.Shape{8, 28, 28, 1}, tensor.Shape{32, 3, 3, 1}, tensor.ConvConfig{}, tensor.Shape{8, 26, 26, 32}},
		{"same", tensor.Shape{8, 28, 28, 1}, tensor.Shape{32, 3, 3, 1}, same, tensor.Shape{8, 28, 28, 32}},
		{"dynamic batch", tensor.Shape{tensor.Dynamic, 28, 28, 3}, tensor.Shape{4, 5, 5, 3}, tensor.ConvConfig{}, tensor.Shape{tensor.Dynamic, 24, 24, 4}},
		{"channel mismatch", tensor.Shape{1, 8, 8, 3}, tensor.Shape{4, 3, 3, 2}, tensor.ConvConfig{}, nil},
		{"filter too large", tensor.Shape{1, 4, 4, 1}, tensor.Shape{1, 3, 3, 1}, tensor.ConvConfig{DilationRow: 2}, nil},
		{"rank 3 input", tensor.Shape{8, 8, 1}, tensor.Shape{1, 3, 3, 1}, tensor.ConvConfig{}, nil},
		{"negative stride", tensor.Shape{1, 8, 8, 1}, tensor.Shape{1, 3, 3, 1}, tensor.ConvConfig{StrideRow: -1}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ops.Conv2DOp{Config: tt.cfg}.InferShape([]tensor.Shape{tt.input, tt.filter})
			if tt.want == nil {
				if !errors.Is(err, ops.ErrIncompatibleShape) {
					t.Errorf("expected ErrIncompatibleShape, got %v", err)
				}
				return
			}
			if err != nil || !got.Equal(tt.want) {
				t.Errorf("got %v, %v; want %v", got, err, tt.want)
			}
		})
	}
}
