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

package compression

import "math"

// SFP8 is an 8-bit switched floating-point weight encoding:
// 1 sign bit, 4 exponent bits (bias 7), 3 mantissa bits. There is no Inf or
// NaN; all 256 codes are finite. Exponent field 0 holds subnormals, so the
// format covers magnitudes from 2^-9 up to 480 plus signed zero.
//
// Weights are stored pre-normalized (see CompressScaled), with the tensor
// scale applied once after the reduction.
type SFP8 uint8

const (
	sfpExpBias      = 7
	sfpMantissaBits = 3
	sfpSignMask     = 0x80

	// SFPMaxValue is the largest encodable magnitude: (1 + 7/8) * 2^8.
	SFPMaxValue float32 = 480

	// sfpMinSubnormal is the smallest nonzero magnitude: (1/8) * 2^-6.
	sfpMinSubnormal = 0x1p-9
)

// sfpDecodeTable maps all 256 codes to their float32 values.
var sfpDecodeTable [256]float32

func init() {
	for code := 0; code < 256; code++ {
		mant := code & 0x07
		exp := (code >> sfpMantissaBits) & 0x0F
		var mag float64
		if exp == 0 {
			mag = float64(mant) / 8 * 0x1p-6
		} else {
			mag = (1 + float64(mant)/8) * math.Ldexp(1, exp-sfpExpBias)
		}
		if code&sfpSignMask != 0 {
			mag = -mag
		}
		sfpDecodeTable[code] = float32(mag)
	}
}

// Float32 decodes s via table lookup.
func (s SFP8) Float32() float32 {
	return sfpDecodeTable[s]
}

// SFPFromFloat32 encodes f with round-to-nearest-even, saturating at
// SFPMaxValue. NaN encodes as zero: packed weights have no NaN code and a
// zero weight contributes nothing to a reduction.
func SFPFromFloat32(f float32) SFP8 {
	var sign SFP8
	if math.Signbit(float64(f)) {
		sign = sfpSignMask
	}
	mag := math.Abs(float64(f))
	if math.IsNaN(mag) {
		return 0
	}
	if mag >= float64(SFPMaxValue) {
		return sign | 0x7F
	}
	if mag < 0x1p-6 {
		// Subnormal range: units of 2^-9. Rounding up to 8 lands exactly on
		// the first normal code (exponent 1, mantissa 0).
		q := int(math.RoundToEven(mag / sfpMinSubnormal))
		return sign | SFP8(q)
	}

	exp := math.Ilogb(mag) // mag in [2^exp, 2^(exp+1))
	m := int(math.RoundToEven((math.Ldexp(mag, -exp) - 1) * 8))
	if m == 8 {
		exp++
		m = 0
		if exp > 8 {
			return sign | 0x7F
		}
	}
	return sign | SFP8((exp+sfpExpBias)<<sfpMantissaBits) | SFP8(m)
}
