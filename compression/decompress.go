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

import "github.com/kp-forks/gemma-go/hwy"

// RawElem is the constraint for decoded lane types a kernel can request:
// float64 for the double-promotion strategy, float32 for the compensated
// strategy, BFloat16 for the pairwise-widening strategy.
type RawElem interface {
	float32 | float64 | hwy.BFloat16
}

// decompressTo decodes src into dst lane values. Every Packed/RawElem pair
// the strategy trait can select is covered; the double-nested switch is
// resolved once per call, outside the lane loop.
func decompressTo[R RawElem, P Packed](dst []R, src []P) {
	n := min(len(dst), len(src))
	switch s := any(src).(type) {
	case []float32:
		switch d := any(dst).(type) {
		case []float32:
			copy(d[:n], s[:n])
		case []float64:
			for i := 0; i < n; i++ {
				d[i] = float64(s[i])
			}
		case []hwy.BFloat16:
			for i := 0; i < n; i++ {
				d[i] = hwy.Float32ToBFloat16(s[i])
			}
		}
	case []hwy.BFloat16:
		switch d := any(dst).(type) {
		case []float32:
			for i := 0; i < n; i++ {
				d[i] = hwy.BFloat16ToFloat32(s[i])
			}
		case []float64:
			for i := 0; i < n; i++ {
				d[i] = float64(hwy.BFloat16ToFloat32(s[i]))
			}
		case []hwy.BFloat16:
			copy(d[:n], s[:n])
		}
	case []SFP8:
		switch d := any(dst).(type) {
		case []float32:
			for i := 0; i < n; i++ {
				d[i] = s[i].Float32()
			}
		case []float64:
			for i := 0; i < n; i++ {
				d[i] = float64(s[i].Float32())
			}
		case []hwy.BFloat16:
			for i := 0; i < n; i++ {
				d[i] = hwy.Float32ToBFloat16(s[i].Float32())
			}
		}
	}
}

// Decompress2 decodes two whole vectors of raw lanes starting at ofs.
// The span must hold at least 2*MaxLanes elements from ofs.
func Decompress2[R RawElem, P Packed](s PackedSpan[P], ofs int) (hwy.Vec[R], hwy.Vec[R]) {
	n := hwy.MaxLanes[R]()
	buf := make([]R, 2*n)
	decompressTo(buf, s.data[ofs:ofs+2*n])
	return hwy.Load(buf), hwy.Load(buf[n:])
}

// DecompressAndZeroPad decodes num elements starting at ofs into padded and
// zeroes the rest, so callers can consume whole vectors past the remainder.
func DecompressAndZeroPad[R RawElem, P Packed](s PackedSpan[P], ofs int, padded []R, num int) {
	decompressTo(padded[:num], s.data[ofs:ofs+num])
	clear(padded[num:])
}
