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

// Package ops implements the numerically-robust dot-product and reduction
// kernels of gemma-go: error-free transforms, the double-precision and
// compensated dot kernels, per-type strategy selection, matrix-vector
// reduction, and the condition-number diagnostic that estimates how much
// precision a tensor's reduction needs.
package ops

import "github.com/kp-forks/gemma-go/hwy"

// Error-free transforms. The contract, per lane and evaluated in exact
// arithmetic: TwoSums returns (s, e) with s = round(a+b) and a+b == s+e;
// TwoProducts returns (p, e) with p = round(a*b) and a*b == p+e.
// The compensated kernels' entire accuracy guarantee rests on these
// identities, so they are tested as an isolated primitive.

// TwoSums computes s = a+b and the exact rounding error e.
// Knuth's branch-free TwoSum: valid for any magnitude ordering.
func TwoSums[T hwy.Floats](a, b hwy.Vec[T]) (s, e hwy.Vec[T]) {
	s = hwy.Add(a, b)
	bVirtual := hwy.Sub(s, a)
	aVirtual := hwy.Sub(s, bVirtual)
	bRoundoff := hwy.Sub(b, bVirtual)
	aRoundoff := hwy.Sub(a, aVirtual)
	e = hwy.Add(aRoundoff, bRoundoff)
	return s, e
}

// TwoProducts computes p = a*b and the exact rounding error e via FMA.
func TwoProducts[T hwy.Floats](a, b hwy.Vec[T]) (p, e hwy.Vec[T]) {
	p = hwy.Mul(a, b)
	e = hwy.MulSub(a, b, p)
	return p, e
}

// UpdateCascadedSums adds v into the cascaded pair (sum, sumErr).
func UpdateCascadedSums[T hwy.Floats](v hwy.Vec[T], sum, sumErr *hwy.Vec[T]) {
	s, e := TwoSums(*sum, v)
	*sum = s
	*sumErr = hwy.Add(*sumErr, e)
}

// AssimilateCascadedSums folds the cascaded pair (from, fromErr) into
// (into, intoErr). The consumed pair must be discarded afterwards.
func AssimilateCascadedSums[T hwy.Floats](from, fromErr, into, intoErr *hwy.Vec[T]) {
	s, e := TwoSums(*into, *from)
	*into = s
	*intoErr = hwy.Add(*intoErr, hwy.Add(*fromErr, e))
}

// ReduceCascadedSums reduces a cascaded pair horizontally to one scalar,
// cascading across lanes as well so the compensation survives the final
// reduction.
func ReduceCascadedSums[T hwy.Floats](sum, sumErr hwy.Vec[T]) T {
	var total, totalErr T
	for _, x := range sum.Data() {
		s, e := scalarTwoSums(total, x)
		total = s
		totalErr += e
	}
	for _, x := range sumErr.Data() {
		totalErr += x
	}
	return total + totalErr
}

func scalarTwoSums[T hwy.Floats](a, b T) (s, e T) {
	s = a + b
	bVirtual := s - a
	aVirtual := s - bVirtual
	e = (a - aVirtual) + (b - bVirtual)
	return s, e
}
