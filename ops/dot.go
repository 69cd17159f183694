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
	"github.com/kp-forks/gemma-go/compression"
	"github.com/kp-forks/gemma-go/hwy"
)

// Our naming convention for dot product arguments is `w` and `v`, in that
// order: a (possibly compressed) "weight" operand and a dense "vector"
// operand. Only `w` carries an offset.

// DotKernelDouble accumulates in float64 via FMA, without error tracking.
// Equivalent to summing in double throughout and rounding once at the end.
// Valid only when CanDecompressToDouble holds for both operand types; it
// runs at about half the lane throughput of the float32 kernels.
type DotKernelDouble struct{}

// Update4 multiplies four independent lane-pairs into four independent
// accumulators. The compensation registers are unused.
func (DotKernelDouble) Update4(w0, w1, w2, w3, v0, v1, v2, v3 hwy.Vec[float64],
	sum0, sum1, sum2, sum3, _, _, _, _ *hwy.Vec[float64]) {
	*sum0 = hwy.MulAdd(w0, v0, *sum0)
	*sum1 = hwy.MulAdd(w1, v1, *sum1)
	*sum2 = hwy.MulAdd(w2, v2, *sum2)
	*sum3 = hwy.MulAdd(w3, v3, *sum3)
}

// Update1 is the single-wide tail analogue of Update4.
func (DotKernelDouble) Update1(w0, v0 hwy.Vec[float64], sum0, _ *hwy.Vec[float64]) {
	*sum0 = hwy.MulAdd(w0, v0, *sum0)
}

// Reduce combines the accumulators pairwise (0+1, 2+3, then both), reduces
// across lanes, and rounds once to float32.
func (DotKernelDouble) Reduce(sum0, sum1, sum2, sum3, _, _, _, _ *hwy.Vec[float64]) float32 {
	s01 := hwy.Add(*sum0, *sum1)
	s23 := hwy.Add(*sum2, *sum3)
	return float32(hwy.ReduceSum(hwy.Add(s01, s23)))
}

// DotKernelCompensated accumulates in float32 with compensated summation,
// algorithm 6.15 from the Handbook of Floating-Point Arithmetic: each
// product's and each addition's exact rounding error goes into a paired
// compensation accumulator, folded back only at Reduce. Approaches the
// double-precision error bound at float32 lane throughput.
type DotKernelCompensated struct{}

func (DotKernelCompensated) Update4(w0, w1, w2, w3, v0, v1, v2, v3 hwy.Vec[float32],
	sum0, sum1, sum2, sum3, comp0, comp1, comp2, comp3 *hwy.Vec[float32]) {
	prod0, perr0 := TwoProducts(w0, v0)
	prod1, perr1 := TwoProducts(w1, v1)
	prod2, perr2 := TwoProducts(w2, v2)
	prod3, perr3 := TwoProducts(w3, v3)

	var serr0, serr1, serr2, serr3 hwy.Vec[float32]
	*sum0, serr0 = TwoSums(prod0, *sum0)
	*sum1, serr1 = TwoSums(prod1, *sum1)
	*sum2, serr2 = TwoSums(prod2, *sum2)
	*sum3, serr3 = TwoSums(prod3, *sum3)

	*comp0 = hwy.Add(*comp0, hwy.Add(perr0, serr0))
	*comp1 = hwy.Add(*comp1, hwy.Add(perr1, serr1))
	*comp2 = hwy.Add(*comp2, hwy.Add(perr2, serr2))
	*comp3 = hwy.Add(*comp3, hwy.Add(perr3, serr3))
}

func (DotKernelCompensated) Update1(w0, v0 hwy.Vec[float32], sum0, comp0 *hwy.Vec[float32]) {
	prod0, perr0 := TwoProducts(w0, v0)

	var serr0 hwy.Vec[float32]
	*sum0, serr0 = TwoSums(prod0, *sum0)

	*comp0 = hwy.Add(*comp0, hwy.Add(perr0, serr0))
}

// Reduce combines the (sum, compensation) pairs pairwise; each combine folds
// one pair's compensation into the other's sum before the consumed pair is
// discarded. One final cascaded horizontal reduction follows.
func (DotKernelCompensated) Reduce(sum0, sum1, sum2, sum3,
	comp0, comp1, comp2, comp3 *hwy.Vec[float32]) float32 {
	AssimilateCascadedSums(sum1, comp1, sum0, comp0)
	AssimilateCascadedSums(sum3, comp3, sum2, comp2)
	AssimilateCascadedSums(sum2, comp2, sum0, comp0)
	return ReduceCascadedSums(*sum0, *comp0)
}

// DotKernelCompensatedBF16 is the narrow-operand variant: raw lanes stay
// BFloat16 and products are formed by a widening pairwise multiply-add that
// is exact per product (8+8 significand bits fit in float32), so only the
// summation step carries a compensation term.
type DotKernelCompensatedBF16 struct{}

func (DotKernelCompensatedBF16) Update4(w0, w1, w2, w3, v0, v1, v2, v3 hwy.Vec[hwy.BFloat16],
	sum0, sum1, sum2, sum3, comp0, comp1, comp2, comp3 *hwy.Vec[float32]) {
	prod0 := hwy.WidenMulPairwiseAddBF16(w0, v0)
	prod1 := hwy.WidenMulPairwiseAddBF16(w1, v1)
	prod2 := hwy.WidenMulPairwiseAddBF16(w2, v2)
	prod3 := hwy.WidenMulPairwiseAddBF16(w3, v3)

	var serr0, serr1, serr2, serr3 hwy.Vec[float32]
	*sum0, serr0 = TwoSums(prod0, *sum0)
	*sum1, serr1 = TwoSums(prod1, *sum1)
	*sum2, serr2 = TwoSums(prod2, *sum2)
	*sum3, serr3 = TwoSums(prod3, *sum3)

	*comp0 = hwy.Add(*comp0, serr0)
	*comp1 = hwy.Add(*comp1, serr1)
	*comp2 = hwy.Add(*comp2, serr2)
	*comp3 = hwy.Add(*comp3, serr3)
}

func (DotKernelCompensatedBF16) Update1(w0, v0 hwy.Vec[hwy.BFloat16], sum0, comp0 *hwy.Vec[float32]) {
	prod0 := hwy.WidenMulPairwiseAddBF16(w0, v0)

	var serr0 hwy.Vec[float32]
	*sum0, serr0 = TwoSums(prod0, *sum0)

	*comp0 = hwy.Add(*comp0, serr0)
}

func (DotKernelCompensatedBF16) Reduce(sum0, sum1, sum2, sum3,
	comp0, comp1, comp2, comp3 *hwy.Vec[float32]) float32 {
	AssimilateCascadedSums(sum1, comp1, sum0, comp0)
	AssimilateCascadedSums(sum3, comp3, sum2, comp2)
	AssimilateCascadedSums(sum2, comp2, sum0, comp0)
	return ReduceCascadedSums(*sum0, *comp0)
}

// CanDecompressToDouble reports whether P's values, and products of their
// full range, promote to float64 without loss. True for float32 storage;
// narrow encodings go through the compensated kernels instead, which decode
// straight to their working precision.
func CanDecompressToDouble[P compression.Packed]() bool {
	var zero P
	_, ok := any(zero).(float32)
	return ok
}

// DotSpan computes the dot product of num = len(v) elements of w starting
// at wOfs with the dense vector v, selecting the kernel from the operand
// type pair: double promotion when lossless for both; the BFloat16
// pairwise-widening kernel when neither operand is float32, since every
// narrow encoding (BFloat16, SFP8) decodes losslessly to BFloat16 lanes;
// and the float32 compensated kernel for mixed wide/narrow pairs.
// Selection happens here, once per call; the lane loops never branch on
// types.
//
// Both operands must cover num elements; this is a caller precondition.
func DotSpan[W, V compression.Packed](w compression.PackedSpan[W], wOfs int, v []V) float32 {
	vs := compression.MakeSpan(v)
	switch {
	case CanDecompressToDouble[W]() && CanDecompressToDouble[V]():
		return compression.DecompressAndCall[float64, float64](w, wOfs, vs, DotKernelDouble{})
	case !CanDecompressToDouble[W]() && !CanDecompressToDouble[V]():
		return compression.DecompressAndCall[hwy.BFloat16, float32](w, wOfs, vs, DotKernelCompensatedBF16{})
	default:
		return compression.DecompressAndCall[float32, float32](w, wOfs, vs, DotKernelCompensated{})
	}
}

// Dot is the adapter for two plain slices, no offset.
func Dot[W, V compression.Packed](w []W, v []V) float32 {
	return DotSpan(compression.MakeSpan(w), 0, v)
}

// DotCompressed computes the dot product against a compressed weight array,
// applying its stored scale once, after the unscaled reduction.
func DotCompressed[W, V compression.Packed](w *compression.CompressedArray[W], wOfs int, v []V) float32 {
	return w.Scale() * DotSpan(w.Span(), wOfs, v)
}
