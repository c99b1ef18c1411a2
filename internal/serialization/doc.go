// Package serialization saves and restores named float64 tensors, such as
// model variables and optimizer state, in the .gflw checkpoint format:
//
//	[4 bytes: Magic "GFLW"]
//	[4 bytes: Version (uint32 LE)]
//	[4 bytes: Flags (uint32 LE)]
//	[8 bytes: Header Size (uint64 LE)]
//	[32 bytes: SHA-256 of the data section]
//	[Header: JSON metadata]
//	[Padding to a 64-byte boundary]
//	[Tensor data: float64 LE, row-major]
//
// Example usage:
//
//	err := serialization.WriteFile("model.gflw", &serialization.Checkpoint{
//	    Tensors: map[string]*tensor.Tensor{"dense.weight": w},
//	})
//
//	cp, err := serialization.ReadFile("model.gflw")
//	w := cp.Tensors["dense.weight"]
package serialization
