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

import (
	"os"
	"strconv"
	"unsafe"
)

// DispatchLevel identifies the vector instruction set selected at startup.
type DispatchLevel int

const (
	// DispatchScalar indicates no SIMD, pure Go lane loops.
	DispatchScalar DispatchLevel = iota

	// DispatchSSE2 indicates 128-bit x86 vectors.
	DispatchSSE2

	// DispatchAVX2 indicates 256-bit x86 vectors.
	DispatchAVX2

	// DispatchAVX512 indicates 512-bit x86 vectors.
	DispatchAVX512

	// DispatchNEON indicates 128-bit ARM vectors.
	DispatchNEON
)

// String returns a human-readable name for the dispatch level.
func (d DispatchLevel) String() string {
	switch d {
	case DispatchScalar:
		return "scalar"
	case DispatchSSE2:
		return "sse2"
	case DispatchAVX2:
		return "avx2"
	case DispatchAVX512:
		return "avx512"
	case DispatchNEON:
		return "neon"
	default:
		return "unknown"
	}
}

// MaxVectorBytes is the widest vector register any supported target provides.
// Scratch buffers for zero-padded tails are sized from this so that the same
// remainder handling stays valid under every runtime lane width.
const MaxVectorBytes = 64

// currentLevel and currentWidth are set once by init() in dispatch_*.go.
var (
	currentLevel DispatchLevel
	currentWidth int
)

// CurrentLevel returns the vector instruction set being used.
func CurrentLevel() DispatchLevel {
	return currentLevel
}

// CurrentWidth returns the vector register width in bytes.
// For example: 16 for SSE2/NEON, 32 for AVX2, 64 for AVX-512.
func CurrentWidth() int {
	return currentWidth
}

// NoSimdEnv checks if the HWY_NO_SIMD environment variable is set.
// When set, the scalar fallback is used regardless of CPU capabilities.
func NoSimdEnv() bool {
	val := os.Getenv("HWY_NO_SIMD")
	if val == "" {
		return false
	}
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return true
}

// MaxLanes returns the number of lanes of type T in one vector at the
// current runtime width.
//
// For example, with AVX2 (32 bytes): float32 has 8 lanes, float64 has 4,
// BFloat16 has 16.
func MaxLanes[T Lanes]() int {
	var dummy T
	return currentWidth / int(unsafe.Sizeof(dummy))
}

// MaxSupportedLanes returns the lane count of type T at the widest vector
// width any target supports. It bounds MaxLanes on every machine.
func MaxSupportedLanes[T Lanes]() int {
	var dummy T
	return MaxVectorBytes / int(unsafe.Sizeof(dummy))
}
