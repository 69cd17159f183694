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

import (
	"math"
	"testing"

	"github.com/kp-forks/gemma-go/hwy"
)

func TestCompressF32(t *testing.T) {
	in := []float32{1, -2.5, 0, 3.75}
	out := Compress[float32](in)
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("Compress[float32]: element %d: got %v, want %v", i, out[i], in[i])
		}
	}
}

func TestCompressBF16(t *testing.T) {
	in := []float32{1, -2.5, 0, 0.5}
	out := Compress[hwy.BFloat16](in)
	for i := range in {
		if got := out[i].Float32(); got != in[i] {
			t.Errorf("Compress[BFloat16]: element %d: got %v, want %v", i, got, in[i])
		}
	}
}

func TestDecompress(t *testing.T) {
	in := []float32{1, -1.125, 0.25, 2}
	packed := Compress[SFP8](in)
	out := Decompress(packed)
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("Decompress: element %d: got %v, want %v", i, out[i], in[i])
		}
	}
}

func TestCompressScaled(t *testing.T) {
	in := []float32{600, -1200, 300, 0}
	c := CompressScaled[SFP8](in)

	if c.Scale() != 1200 {
		t.Errorf("Scale: got %v, want 1200", c.Scale())
	}
	if c.NumElements() != len(in) {
		t.Errorf("NumElements: got %d, want %d", c.NumElements(), len(in))
	}

	// Normalized values are 0.5, -1, 0.25, 0, all exactly encodable, so
	// scale * decode recovers the input exactly.
	for i, p := range c.Data() {
		got := c.Scale() * p.Float32()
		if got != in[i] {
			t.Errorf("element %d: got %v, want %v", i, got, in[i])
		}
	}
}

// TestSetScale rescales an existing array in place, the path a loader takes
// when a checkpoint stores per-tensor scales separately from the payload.
func TestSetScale(t *testing.T) {
	data := Compress[SFP8]([]float32{0.5, -1, 0.25})
	c := NewCompressedArray(data, 1)

	c.SetScale(8)
	if c.Scale() != 8 {
		t.Fatalf("Scale after SetScale: got %v, want 8", c.Scale())
	}

	want := []float32{4, -8, 2}
	for i, p := range c.Data() {
		if got := c.Scale() * p.Float32(); got != want[i] {
			t.Errorf("element %d: got %v, want %v", i, got, want[i])
		}
	}
}

func TestCompressScaledAllZero(t *testing.T) {
	c := CompressScaled[SFP8]([]float32{0, 0, 0})
	if c.Scale() != 1 {
		t.Errorf("Scale of all-zero input: got %v, want 1", c.Scale())
	}
	for i, p := range c.Data() {
		if p.Float32() != 0 {
			t.Errorf("element %d: got %v, want 0", i, p.Float32())
		}
	}
}

func TestCompressScaledRelativeError(t *testing.T) {
	in := make([]float32, 257)
	for i := range in {
		in[i] = float32(math.Sin(float64(i))) * 1e6
	}
	c := CompressScaled[SFP8](in)

	for i, p := range c.Data() {
		got := float64(c.Scale()) * float64(p.Float32())
		absErr := math.Abs(got - float64(in[i]))
		// Encoding error is relative to the tensor maximum for values below
		// the subnormal threshold, so bound against the scale.
		if absErr > float64(c.Scale())/16 {
			t.Errorf("element %d: got %v, want %v", i, got, in[i])
		}
	}
}
