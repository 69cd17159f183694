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

// BFloat16 represents a Brain Float 16 number: the upper 16 bits of a
// float32. Same exponent range as float32, 7 mantissa bits. Model weights
// and activations in this format trade precision for bandwidth, which is
// why the reduction kernels compensate their summation.
//
// Format: Sign (1 bit) | Exponent (8 bits, bias 127) | Mantissa (7 bits)
type BFloat16 uint16

// BFloat16 constants for special values.
const (
	BFloat16Zero   BFloat16 = 0x0000
	BFloat16One    BFloat16 = 0x3F80
	BFloat16NegOne BFloat16 = 0xBF80
	BFloat16Inf    BFloat16 = 0x7F80
	BFloat16NegInf BFloat16 = 0xFF80
	BFloat16NaN    BFloat16 = 0x7FC0
)

// BFloat16ToFloat32 converts a single BFloat16 to float32.
// Exact: bfloat16 is truncated float32, so this is a bit shift.
func BFloat16ToFloat32(b BFloat16) float32 {
	return math.Float32frombits(uint32(b) << 16)
}

// Float32ToBFloat16 converts a float32 to BFloat16 with
// round-to-nearest-even on the discarded bits.
func Float32ToBFloat16(f float32) BFloat16 {
	bits := math.Float32bits(f)

	// NaN: preserve sign, force quiet.
	if bits&0x7FFFFFFF > 0x7F800000 {
		return BFloat16((bits >> 16) | 0x0040)
	}

	// Round to nearest even: bit 15 is the rounding position.
	rounding := uint32(0x7FFF) + ((bits >> 16) & 1)
	bits += rounding
	return BFloat16(bits >> 16)
}

// Float32 returns the float32 value of b.
func (b BFloat16) Float32() float32 {
	return BFloat16ToFloat32(b)
}

// IsNaN returns true if b is a NaN value.
func (b BFloat16) IsNaN() bool {
	return (b>>7)&0xFF == 0xFF && b&0x7F != 0
}

// IsInf returns true if b is positive or negative infinity.
func (b BFloat16) IsInf() bool {
	return (b>>7)&0xFF == 0xFF && b&0x7F == 0
}

// PromoteBF16ToF32 widens every BFloat16 lane to float32.
// The result has as many float32 lanes as v has BFloat16 lanes, i.e. it
// spans two float32 vectors' worth of lanes.
func PromoteBF16ToF32(v Vec[BFloat16]) Vec[float32] {
	result := make([]float32, len(v.data))
	for i, b := range v.data {
		result[i] = BFloat16ToFloat32(b)
	}
	return Vec[float32]{data: result}
}

// DemoteF32ToBF16 narrows float32 lanes to BFloat16 with rounding.
func DemoteF32ToBF16(v Vec[float32]) Vec[BFloat16] {
	result := make([]BFloat16, len(v.data))
	for i, f := range v.data {
		result[i] = Float32ToBFloat16(f)
	}
	return Vec[BFloat16]{data: result}
}

// WidenMulPairwiseAddBF16 multiplies adjacent BFloat16 lane pairs of a and b
// and adds each pair of products in float32:
//
//	out[i] = a[2i]*b[2i] + a[2i+1]*b[2i+1]
//
// Each individual product is exact in float32 (8+8 significand bits fit in
// 24), so the only rounding is the single pairwise addition. The result has
// half as many lanes as the inputs, matching one float32 vector.
func WidenMulPairwiseAddBF16(a, b Vec[BFloat16]) Vec[float32] {
	n := min(len(a.data), len(b.data)) / 2
	result := make([]float32, n)
	for i := 0; i < n; i++ {
		p0 := float64(BFloat16ToFloat32(a.data[2*i])) * float64(BFloat16ToFloat32(b.data[2*i]))
		p1 := float64(BFloat16ToFloat32(a.data[2*i+1])) * float64(BFloat16ToFloat32(b.data[2*i+1]))
		result[i] = float32(p0 + p1)
	}
	return Vec[float32]{data: result}
}
