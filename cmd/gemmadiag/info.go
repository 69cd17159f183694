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

package main

import (
	"fmt"

	"github.com/kp-forks/gemma-go/gemma"
	"github.com/kp-forks/gemma-go/hwy"
	"github.com/spf13/cobra"
)

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Print the detected SIMD level and the configured model scaling",
		RunE: func(_ *cobra.Command, _ []string) error {
			fmt.Printf("simd level: %s\n", hwy.CurrentLevel())
			fmt.Printf("vector width: %d bytes\n", hwy.CurrentWidth())
			fmt.Printf("f32 lanes: %d\n", hwy.MaxLanes[float32]())
			fmt.Printf("f64 lanes: %d\n", hwy.MaxLanes[float64]())
			fmt.Printf("bf16 lanes: %d\n", hwy.MaxLanes[hwy.BFloat16]())

			mc := gemma.Config{
				ModelDim: activeCfg.Model.ModelDim,
				Heads:    activeCfg.Model.Heads,
				QKVDim:   activeCfg.Model.QKVDim,
			}
			fmt.Printf("embedding scaling: %g\n", gemma.EmbeddingScaling(mc.ModelDim))
			fmt.Printf("query scale: %g\n", gemma.ChooseQueryScale(mc))
			return nil
		},
	}
	return cmd
}
