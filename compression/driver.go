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
	"fmt"

	"github.com/kp-forks/gemma-go/hwy"
)

// Kernel is the capability set a reduction strategy exposes to the driver:
// a four-wide update, its single-wide tail analogue, and one final reduce.
// R is the raw lane type the kernel consumes, S its accumulator lane type.
//
// The driver owns all decoding; a kernel only ever observes decoded raw
// lanes. The four sum and four compensation accumulators stay independent
// until Reduce, which must combine them exactly once.
type Kernel[R RawElem, S hwy.Lanes] interface {
	Update4(w0, w1, w2, w3, v0, v1, v2, v3 hwy.Vec[R],
		sum0, sum1, sum2, sum3, comp0, comp1, comp2, comp3 *hwy.Vec[S])
	Update1(w0, v0 hwy.Vec[R], sum0, comp0 *hwy.Vec[S])
	Reduce(sum0, sum1, sum2, sum3, comp0, comp1, comp2, comp3 *hwy.Vec[S]) float32
}

// DecompressAndCall decodes w (from wOfs) and v in lockstep and drives
// kernel over them, returning the reduced scalar.
//
// The logical length is v.Num(); w must hold at least wOfs+v.Num() elements.
// Equal logical lengths are a caller precondition, not checked here.
//
// Structure: blocks of four vectors feed Update4; whole vectors beyond that
// feed Update1 directly; the remainder, fewer than two vectors' worth, is
// zero-padded into scratch sized for two maximum-width vectors and fed to
// Update1 one whole padded vector at a time.
func DecompressAndCall[R RawElem, S hwy.Lanes, W, V Packed](
	w PackedSpan[W], wOfs int, v PackedSpan[V], kernel Kernel[R, S]) float32 {

	sum0, sum1, sum2, sum3 := hwy.Zero[S](), hwy.Zero[S](), hwy.Zero[S](), hwy.Zero[S]()
	comp0, comp1, comp2, comp3 := hwy.Zero[S](), hwy.Zero[S](), hwy.Zero[S](), hwy.Zero[S]()

	n := hwy.MaxLanes[R]()
	num := v.Num()

	i := 0
	for ; i+4*n <= num; i += 4*n {
		w0, w1 := Decompress2[R](w, wOfs+i)
		w2, w3 := Decompress2[R](w, wOfs+i+2*n)
		v0, v1 := Decompress2[R](v, i)
		v2, v3 := Decompress2[R](v, i+2*n)
		kernel.Update4(w0, w1, w2, w3, v0, v1, v2, v3,
			&sum0, &sum1, &sum2, &sum3, &comp0, &comp1, &comp2, &comp3)
	}
	for ; i+2*n <= num; i += 2*n {
		w0, w1 := Decompress2[R](w, wOfs+i)
		v0, v1 := Decompress2[R](v, i)
		kernel.Update1(w0, v0, &sum0, &comp0)
		kernel.Update1(w1, v1, &sum1, &comp1)
	}

	if remaining := num - i; remaining != 0 {
		if remaining >= 2*n {
			panic(fmt.Sprintf("compression: remainder %d not below two vectors (%d lanes)", remaining, n))
		}
		paddedW := make([]R, 2*hwy.MaxSupportedLanes[R]())
		paddedV := make([]R, 2*hwy.MaxSupportedLanes[R]())
		DecompressAndZeroPad(w, wOfs+i, paddedW, remaining)
		DecompressAndZeroPad(v, i, paddedV, remaining)

		// 1..2 whole vectors, possibly zero-padded.
		for pos := 0; pos < remaining; pos += n {
			w0 := hwy.Load(paddedW[pos:])
			v0 := hwy.Load(paddedV[pos:])
			kernel.Update1(w0, v0, &sum0, &comp0)
		}
	}

	return kernel.Reduce(&sum0, &sum1, &sum2, &sum3, &comp0, &comp1, &comp2, &comp3)
}
