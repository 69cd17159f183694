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

package ops

import (
	"fmt"
	"math"

	"github.com/kp-forks/gemma-go/compression"
	"github.com/kp-forks/gemma-go/hwy"
)

// ConditionNumber returns 2 * sum(|w.*v|) / |sum(w.*v)|. The log2 of this
// value approximates the number of mantissa bits the reduction needs; see
// https://en.wikipedia.org/wiki/Condition_number. It runs off the hot path,
// at model load time, to pick a kernel per tensor.
//
// Both sums are independently cascaded in float32 and combined in float64.
// If the signed sum rounds to exactly zero while the magnitude sum is
// positive, the cancellation is total and the result is +Inf. An all-zero
// product sequence is trivially well conditioned and returns 0.
func ConditionNumber[W, V compression.Packed](w []W, v []V) float64 {
	sum, sumErr := hwy.Zero[float32](), hwy.Zero[float32]()
	sumAbs, sumAbsErr := hwy.Zero[float32](), hwy.Zero[float32]()

	ws := compression.MakeSpan(w)
	vs := compression.MakeSpan(v)
	n := hwy.MaxLanes[float32]()
	num := len(v)

	i := 0
	for ; i+2*n <= num; i += 2*n {
		w0, w1 := compression.Decompress2[float32](ws, i)
		v0, v1 := compression.Decompress2[float32](vs, i)
		mul0 := hwy.Mul(w0, v0)
		mul1 := hwy.Mul(w1, v1)
		UpdateCascadedSums(mul0, &sum, &sumErr)
		UpdateCascadedSums(mul1, &sum, &sumErr)
		UpdateCascadedSums(hwy.Abs(mul0), &sumAbs, &sumAbsErr)
		UpdateCascadedSums(hwy.Abs(mul1), &sumAbs, &sumAbsErr)
	}

	if remaining := num - i; remaining != 0 {
		paddedW := make([]float32, 2*hwy.MaxSupportedLanes[float32]())
		paddedV := make([]float32, 2*hwy.MaxSupportedLanes[float32]())
		compression.DecompressAndZeroPad(ws, i, paddedW, remaining)
		compression.DecompressAndZeroPad(vs, i, paddedV, remaining)

		// 1..2 whole vectors, possibly zero-padded.
		for pos := 0; pos < remaining; pos += n {
			mul := hwy.Mul(hwy.Load(paddedW[pos:]), hwy.Load(paddedV[pos:]))
			UpdateCascadedSums(mul, &sum, &sumErr)
			UpdateCascadedSums(hwy.Abs(mul), &sumAbs, &sumAbsErr)
		}
	}

	return finishConditionNumber(
		ReduceCascadedSums(sum, sumErr), ReduceCascadedSums(sumAbs, sumAbsErr))
}

// VectorConditionNumber is the single-operand form: it skips the product and
// analyzes v's own magnitude distribution, 2 * sum(|v|) / |sum(v)|.
func VectorConditionNumber[V compression.Packed](v []V) float64 {
	sum, sumErr := hwy.Zero[float32](), hwy.Zero[float32]()
	sumAbs, sumAbsErr := hwy.Zero[float32](), hwy.Zero[float32]()

	vs := compression.MakeSpan(v)
	n := hwy.MaxLanes[float32]()
	num := len(v)

	i := 0
	for ; i+2*n <= num; i += 2*n {
		v0, v1 := compression.Decompress2[float32](vs, i)
		UpdateCascadedSums(v0, &sum, &sumErr)
		UpdateCascadedSums(v1, &sum, &sumErr)
		UpdateCascadedSums(hwy.Abs(v0), &sumAbs, &sumAbsErr)
		UpdateCascadedSums(hwy.Abs(v1), &sumAbs, &sumAbsErr)
	}

	if remaining := num - i; remaining != 0 {
		paddedV := make([]float32, 2*hwy.MaxSupportedLanes[float32]())
		compression.DecompressAndZeroPad(vs, i, paddedV, remaining)

		for pos := 0; pos < remaining; pos += n {
			v0 := hwy.Load(paddedV[pos:])
			UpdateCascadedSums(v0, &sum, &sumErr)
			UpdateCascadedSums(hwy.Abs(v0), &sumAbs, &sumAbsErr)
		}
	}

	return finishConditionNumber(
		ReduceCascadedSums(sum, sumErr), ReduceCascadedSums(sumAbs, sumAbsErr))
}

func finishConditionNumber(signed, magnitude float32) float64 {
	div := signed
	if div < 0 {
		div = -div
	}
	if div == 0 {
		if magnitude == 0 {
			return 0
		}
		return math.Inf(1)
	}
	cond := 2 * float64(magnitude) / float64(div)
	if cond < 0 {
		panic(fmt.Sprintf("ops: negative condition number %g", cond))
	}
	return cond
}

// MantissaBitsNeeded converts a condition number into the approximate
// mantissa bit count an accurate reduction requires. +Inf maps to MaxInt:
// no finite precision suffices.
func MantissaBitsNeeded(cond float64) int {
	if math.IsInf(cond, 1) {
		return math.MaxInt
	}
	if cond <= 1 {
		return 0
	}
	return int(math.Ceil(math.Log2(cond)))
}
