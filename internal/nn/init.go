package nn

import (
	"math"
	"math/rand/v2"

	"github.com/gradflow/gradflow/internal/tensor"
)

// GlorotUniform (Xavier) initialization for weights.
//
// Initializes weights with values drawn from a uniform distribution:
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out)))
func GlorotUniform(fanIn, fanOut int, shape tensor.Shape, src rand.Source) *tensor.Tensor {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	return tensor.Uniform(shape, -bound, bound, src)
}

// HeNormal initializes weights from N(0, 2/fan_in), suited to ReLU layers.
func HeNormal(fanIn int, shape tensor.Shape, src rand.Source) *tensor.Tensor {
	return tensor.Normal(shape, 0, math.Sqrt(2.0/float64(fanIn)), src)
}

// Normal creates a tensor with values drawn from N(0, stddev²).
func Normal(shape tensor.Shape, stddev float64, src rand.Source) *tensor.Tensor {
	return tensor.Normal(shape, 0, stddev, src)
}

// Zeros creates a tensor filled with zeros.
//
// This is commonly used for bias initialization.
func Zeros(shape tensor.Shape) *tensor.Tensor {
	return tensor.Zeros(shape)
}
