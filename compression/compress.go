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

// Compress encodes float32 values into the packed representation P.
func Compress[P Packed](in []float32) []P {
	out := make([]P, len(in))
	switch dst := any(out).(type) {
	case []float32:
		copy(dst, in)
	case []hwy.BFloat16:
		for i, f := range in {
			dst[i] = hwy.Float32ToBFloat16(f)
		}
	case []SFP8:
		for i, f := range in {
			dst[i] = SFPFromFloat32(f)
		}
	}
	return out
}

// Decompress decodes packed values back to float32.
func Decompress[P Packed](in []P) []float32 {
	out := make([]float32, len(in))
	decompressTo(out, in)
	return out
}

// CompressedArray owns a packed weight tensor plus the scale factor that is
// applied once, after the unscaled reduction.
type CompressedArray[P Packed] struct {
	data  []P
	scale float32
}

// NewCompressedArray wraps already-encoded data with the given scale.
func NewCompressedArray[P Packed](data []P, scale float32) *CompressedArray[P] {
	return &CompressedArray[P]{data: data, scale: scale}
}

// CompressScaled normalizes in by its maximum magnitude, encodes the
// normalized values as P, and stores the magnitude as the array scale.
// This keeps narrow encodings such as SFP8 inside their representable range
// regardless of the tensor's dynamic range.
func CompressScaled[P Packed](in []float32) *CompressedArray[P] {
	var maxAbs float32
	for _, f := range in {
		if f < 0 {
			f = -f
		}
		if f > maxAbs {
			maxAbs = f
		}
	}
	scale := maxAbs
	if scale == 0 {
		scale = 1
	}
	normalized := make([]float32, len(in))
	for i, f := range in {
		normalized[i] = f / scale
	}
	return &CompressedArray[P]{data: Compress[P](normalized), scale: scale}
}

// Data returns the packed elements.
func (c *CompressedArray[P]) Data() []P {
	return c.data
}

// NumElements returns the logical element count.
func (c *CompressedArray[P]) NumElements() int {
	return len(c.data)
}

// Scale returns the tensor scale factor.
func (c *CompressedArray[P]) Scale() float32 {
	return c.scale
}

// SetScale replaces the tensor scale factor.
func (c *CompressedArray[P]) SetScale(scale float32) {
	c.scale = scale
}

// Span returns a read-only view over the packed elements.
func (c *CompressedArray[P]) Span() PackedSpan[P] {
	return MakeSpan(c.data)
}
