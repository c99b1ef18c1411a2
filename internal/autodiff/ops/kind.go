package ops

import "fmt"

// Kind enumerates the node kinds of an expression graph: the three leaf kinds
// followed by the operator catalogue.
type Kind int

const (
	KindInvalid Kind = iota

	// Leaves.
	KindPlaceholder
	KindVariable
	KindConstant

	// Element-wise binary.
	KindAdd
	KindSub
	KindMul
	KindDiv
	KindMaximum
	KindMinimum

	// Element-wise unary.
	KindNeg
	KindSquare
	KindAbs
	KindLog
	KindExp
	KindSqrt
	KindReLU
	KindSigmoid
	KindTanh
	KindLeakyReLU
	KindELU
	KindClip
	KindScale
	KindSoftmax
	KindDropout

	// Linear algebra and layout.
	KindMatMul
	KindTranspose
	KindReshape
	KindConcat

	// Reductions.
	KindSum
	KindMean
	KindMax
	KindMin

	// Convolution and pooling.
	KindConv2D
	KindMaxPool2D
	KindAvgPool2D
	KindUpSampling2D

	KindIdentity
)

var kindNames = map[Kind]string{
	KindInvalid:      "Invalid",
	KindPlaceholder:  "Placeholder",
	KindVariable:     "Variable",
	KindConstant:     "Constant",
	KindAdd:          "Add",
	KindSub:          "Sub",
	KindMul:          "Mul",
	KindDiv:          "Div",
	KindMaximum:      "Maximum",
	KindMinimum:      "Minimum",
	KindNeg:          "Neg",
	KindSquare:       "Square",
	KindAbs:          "Abs",
	KindLog:          "Log",
	KindExp:          "Exp",
	KindSqrt:         "Sqrt",
	KindReLU:         "ReLU",
	KindSigmoid:      "Sigmoid",
	KindTanh:         "Tanh",
	KindLeakyReLU:    "LeakyReLU",
	KindELU:          "ELU",
	KindClip:         "Clip",
	KindScale:        "Scale",
	KindSoftmax:      "Softmax",
	KindDropout:      "Dropout",
	KindMatMul:       "MatMul",
	KindTranspose:    "Transpose",
	KindReshape:      "Reshape",
	KindConcat:       "Concat",
	KindSum:          "Sum",
	KindMean:         "Mean",
	KindMax:          "Max",
	KindMin:          "Min",
	KindConv2D:       "Conv2D",
	KindMaxPool2D:    "MaxPool2D",
	KindAvgPool2D:    "AvgPool2D",
	KindUpSampling2D: "UpSampling2D",
	KindIdentity:     "Identity",
}

// String returns the operator name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsLeaf reports whether k is a placeholder, variable or constant.
func (k Kind) IsLeaf() bool {
	return k == KindPlaceholder || k == KindVariable || k == KindConstant
}
