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
)

func TestSFPDecodeKnownCodes(t *testing.T) {
	tests := []struct {
		name     string
		code     SFP8
		expected float32
	}{
		{"Zero", 0x00, 0},
		{"NegZero", 0x80, 0}, // negative zero decodes equal to zero
		{"MinSubnormal", 0x01, 0x1p-9},
		{"MaxSubnormal", 0x07, 7.0 / 8 * 0x1p-6},
		{"FirstNormal", 0x08, 0x1p-6},
		{"One", 0x38, 1},
		{"OnePlusEighth", 0x39, 1.125},
		{"Two", 0x40, 2},
		{"Max", 0x7F, 480},
		{"NegOne", 0xB8, -1},
		{"NegMax", 0xFF, -480},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.code.Float32()
			if got != tt.expected {
				t.Errorf("SFP8(0x%02X).Float32(): got %v, want %v", tt.code, got, tt.expected)
			}
		})
	}
}

func TestSFPEncodeExact(t *testing.T) {
	// Values on the code grid must encode and decode without error.
	tests := []struct {
		input    float32
		expected SFP8
	}{
		{0, 0x00},
		{0x1p-9, 0x01},
		{0x1p-6, 0x08},
		{1, 0x38},
		{1.125, 0x39},
		{1.875, 0x3F},
		{2, 0x40},
		{480, 0x7F},
		{-1, 0xB8},
		{-480, 0xFF},
	}

	for _, tt := range tests {
		got := SFPFromFloat32(tt.input)
		if got != tt.expected {
			t.Errorf("SFPFromFloat32(%v): got 0x%02X, want 0x%02X", tt.input, got, tt.expected)
		}
		if back := got.Float32(); back != tt.input {
			t.Errorf("decode(encode(%v)): got %v", tt.input, back)
		}
	}
}

func TestSFPEncodeSaturates(t *testing.T) {
	for _, f := range []float32{480.001, 1000, float32(math.Inf(1))} {
		if got := SFPFromFloat32(f); got != 0x7F {
			t.Errorf("SFPFromFloat32(%v): got 0x%02X, want 0x7F", f, got)
		}
		if got := SFPFromFloat32(-f); got != 0xFF {
			t.Errorf("SFPFromFloat32(%v): got 0x%02X, want 0xFF", -f, got)
		}
	}
}

func TestSFPEncodeNaN(t *testing.T) {
	if got := SFPFromFloat32(float32(math.NaN())); got != 0 {
		t.Errorf("SFPFromFloat32(NaN): got 0x%02X, want 0x00", got)
	}
}

// TestSFPEncodeRoundsToNearest sweeps every adjacent code pair and checks
// that the midpoint and its neighbors round to the nearest code, ties to
// even mantissa.
func TestSFPEncodeRoundsToNearest(t *testing.T) {
	for code := 0; code < 0x7F; code++ {
		lo := SFP8(code).Float32()
		hi := SFP8(code + 1).Float32()
		mid := (float64(lo) + float64(hi)) / 2

		below := float32(mid - (mid-float64(lo))/4)
		if got := SFPFromFloat32(below); got != SFP8(code) {
			t.Fatalf("below midpoint of 0x%02X..0x%02X: got 0x%02X", code, code+1, got)
		}
		above := float32(mid + (float64(hi)-mid)/4)
		if got := SFPFromFloat32(above); got != SFP8(code+1) {
			t.Fatalf("above midpoint of 0x%02X..0x%02X: got 0x%02X", code, code+1, got)
		}

		even := SFP8(code)
		if code&1 != 0 {
			even = SFP8(code + 1)
		}
		if got := SFPFromFloat32(float32(mid)); got != even {
			t.Fatalf("midpoint of 0x%02X..0x%02X: got 0x%02X, want even 0x%02X", code, code+1, got, even)
		}
	}
}

// TestSFPRelativeError checks the format's error bound for normal values:
// at most half a mantissa step, i.e. 2^-4 relative.
func TestSFPRelativeError(t *testing.T) {
	for _, f := range []float32{0.0173, 0.12, 0.5001, 0.999, 1.49, 3.3, 77.7, 479} {
		got := SFPFromFloat32(f).Float32()
		rel := math.Abs(float64(got-f)) / float64(f)
		if rel > 1.0/16 {
			t.Errorf("SFP round trip of %v: got %v, relative error %v", f, got, rel)
		}
	}
}

func BenchmarkSFPDecode(b *testing.B) {
	codes := make([]SFP8, 4096)
	for i := range codes {
		codes[i] = SFP8(i * 37)
	}
	out := make([]float32, len(codes))

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for j, c := range codes {
			out[j] = c.Float32()
		}
	}
	_ = out
}
