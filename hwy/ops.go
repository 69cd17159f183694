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

package hwy

import "math"

// This file provides the portable (scalar-loop) implementations of the vector
// operations the reduction kernels use. They are written against the abstract
// lane width from dispatch.go, so the same code is exercised at 16, 32 and 64
// byte vector widths.

// Load creates a vector from the first MaxLanes elements of src.
// A shorter slice yields a partial vector; the remaining lanes do not exist,
// which subsequent lane-wise operations respect.
func Load[T Lanes](src []T) Vec[T] {
	n := min(len(src), MaxLanes[T]())
	data := make([]T, n)
	copy(data, src[:n])
	return Vec[T]{data: data}
}

// Load4 loads four consecutive vectors from src for 4x loop unrolling.
// src must hold at least 4*MaxLanes elements.
func Load4[T Lanes](src []T) (Vec[T], Vec[T], Vec[T], Vec[T]) {
	n := MaxLanes[T]()
	return Load(src), Load(src[n:]), Load(src[2*n:]), Load(src[3*n:])
}

// Store writes a vector's lanes to dst.
func Store[T Lanes](v Vec[T], dst []T) {
	n := min(len(dst), len(v.data))
	copy(dst[:n], v.data[:n])
}

// Set creates a vector with all lanes set to value.
func Set[T Lanes](value T) Vec[T] {
	data := make([]T, MaxLanes[T]())
	for i := range data {
		data[i] = value
	}
	return Vec[T]{data: data}
}

// Zero creates a vector with all lanes set to zero.
func Zero[T Lanes]() Vec[T] {
	return Vec[T]{data: make([]T, MaxLanes[T]())}
}

// Add performs element-wise addition.
func Add[T Floats](a, b Vec[T]) Vec[T] {
	n := min(len(a.data), len(b.data))
	result := make([]T, n)
	for i := 0; i < n; i++ {
		result[i] = a.data[i] + b.data[i]
	}
	return Vec[T]{data: result}
}

// Sub performs element-wise subtraction.
func Sub[T Floats](a, b Vec[T]) Vec[T] {
	n := min(len(a.data), len(b.data))
	result := make([]T, n)
	for i := 0; i < n; i++ {
		result[i] = a.data[i] - b.data[i]
	}
	return Vec[T]{data: result}
}

// Mul performs element-wise multiplication.
func Mul[T Floats](a, b Vec[T]) Vec[T] {
	n := min(len(a.data), len(b.data))
	result := make([]T, n)
	for i := 0; i < n; i++ {
		result[i] = a.data[i] * b.data[i]
	}
	return Vec[T]{data: result}
}

// Neg negates all lanes.
func Neg[T Floats](v Vec[T]) Vec[T] {
	result := make([]T, len(v.data))
	for i, x := range v.data {
		result[i] = -x
	}
	return Vec[T]{data: result}
}

// Abs computes the element-wise absolute value.
func Abs[T Floats](v Vec[T]) Vec[T] {
	result := make([]T, len(v.data))
	for i, x := range v.data {
		if x < 0 {
			x = -x
		}
		result[i] = x
	}
	return Vec[T]{data: result}
}

// FMA performs a fused multiply-add, a*b + c, with a single rounding.
func FMA[T Floats](a, b, c Vec[T]) Vec[T] {
	n := min(len(c.data), min(len(a.data), len(b.data)))
	result := make([]T, n)
	for i := 0; i < n; i++ {
		result[i] = T(math.FMA(float64(a.data[i]), float64(b.data[i]), float64(c.data[i])))
	}
	return Vec[T]{data: result}
}

// MulAdd performs fused multiply-add: a*b + c. Alias for FMA with the
// Highway argument order.
func MulAdd[T Floats](a, b, c Vec[T]) Vec[T] {
	return FMA(a, b, c)
}

// MulSub performs fused multiply-subtract: a*b - c, with a single rounding.
func MulSub[T Floats](a, b, c Vec[T]) Vec[T] {
	n := min(len(c.data), min(len(a.data), len(b.data)))
	result := make([]T, n)
	for i := 0; i < n; i++ {
		result[i] = T(math.FMA(float64(a.data[i]), float64(b.data[i]), -float64(c.data[i])))
	}
	return Vec[T]{data: result}
}

// ReduceSum sums all lanes into a scalar.
func ReduceSum[T Floats](v Vec[T]) T {
	var sum T
	for _, x := range v.data {
		sum += x
	}
	return sum
}
