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

	"github.com/kp-forks/gemma-go/compression"
)

// MatVec computes out = m * v for a row-major compressed matrix of shape
// rows x cols. Each row reuses the dot kernel selected for (W, V), and the
// array's scale is applied once per row after the unscaled reduction.
func MatVec[W, V compression.Packed](m *compression.CompressedArray[W], rows, cols int, v []V, out []float32) {
	if m.NumElements() != rows*cols {
		panic(fmt.Sprintf("ops: matrix has %d elements, want %d x %d", m.NumElements(), rows, cols))
	}
	if len(v) < cols {
		panic(fmt.Sprintf("ops: vector has %d elements, want at least %d", len(v), cols))
	}
	if len(out) < rows {
		panic(fmt.Sprintf("ops: output has %d elements, want at least %d", len(out), rows))
	}
	span := m.Span()
	scale := m.Scale()
	for r := 0; r < rows; r++ {
		out[r] = scale * DotSpan(span, r*cols, v[:cols])
	}
}
