// Copyright 2025 gemma-go Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package hwy provides the portable SIMD substrate for the gemma-go reduction
// kernels. It follows the Highway design: code is written once against an
// abstract lane width, and the width adapts to the best vector unit the
// runtime detects (AVX2, AVX-512, NEON) or falls back to scalar.
//
// Basic usage:
//
//	a := hwy.Load(weights)
//	b := hwy.Load(activations)
//	sum = hwy.MulAdd(a, b, sum)
//	total := hwy.ReduceSum(sum)
package hwy

// Floats is a constraint for native floating-point lane types.
type Floats interface {
	~float32 | ~float64
}

// SignedInts is a constraint for signed integer lane types.
type SignedInts interface {
	~int8 | ~int16 | ~int32 | ~int64
}

// UnsignedInts is a constraint for unsigned integer lane types.
// BFloat16 satisfies it through its uint16 representation.
type UnsignedInts interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Lanes is a constraint for all types that can be stored in SIMD lanes.
type Lanes interface {
	Floats | SignedInts | UnsignedInts
}

// Vec is a portable vector handle holding one register's worth of lanes.
// Its lane count is fixed at creation from the runtime vector width.
//
// Vec instances should not be created directly; use Load, Set, or Zero.
type Vec[T Lanes] struct {
	data []T
}

// NumLanes returns the number of lanes (elements) in this vector.
func (v Vec[T]) NumLanes() int {
	return len(v.data)
}

// Data returns the underlying slice representation of the vector.
// Intended for horizontal reductions and tests, not for lane-wise math.
func (v Vec[T]) Data() []T {
	return v.data
}

// Store writes the vector's lanes to dst. Method form of hwy.Store.
func (v Vec[T]) Store(dst []T) {
	n := min(len(dst), len(v.data))
	copy(dst[:n], v.data[:n])
}
