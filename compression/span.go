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

// Package compression provides packed weight storage for the gemma-go
// reduction kernels: read-only spans over encoded buffers, the per-element
// codecs (float32, BFloat16, SFP8), and the generic decompress-and-reduce
// driver that feeds decoded lanes to a dot kernel.
package compression

import "github.com/kp-forks/gemma-go/hwy"

// Packed is the constraint for element encodings a PackedSpan can hold.
// The type parameter doubles as the element-type tag of the span.
type Packed interface {
	float32 | hwy.BFloat16 | SFP8
}

// PackedSpan is a read-only view over a contiguous encoded buffer plus its
// logical element count. It does not own or extend the life of the buffer.
type PackedSpan[P Packed] struct {
	data []P
}

// MakeSpan wraps data in a PackedSpan. The caller retains ownership.
func MakeSpan[P Packed](data []P) PackedSpan[P] {
	return PackedSpan[P]{data: data}
}

// Num returns the logical element count.
func (s PackedSpan[P]) Num() int {
	return len(s.data)
}
