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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

type fakeCmd struct {
	fs *pflag.FlagSet
}

func (f *fakeCmd) Flags() *pflag.FlagSet { return f.fs }

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Tensor.Type != "f32" {
		t.Errorf("Tensor.Type: got %q, want \"f32\"", cfg.Tensor.Type)
	}
	if cfg.Tensor.Threshold != 24 {
		t.Errorf("Tensor.Threshold: got %d, want 24", cfg.Tensor.Threshold)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level: got %q, want \"info\"", cfg.Log.Level)
	}
}

func TestLoadFlagOverride(t *testing.T) {
	defaults := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)
	if err := fs.Parse([]string{"--tensor-type", "sfp", "--model-heads", "16"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cfg, err := Load(LoadOptions{Cmd: &fakeCmd{fs: fs}, Defaults: defaults})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Tensor.Type != "sfp" {
		t.Errorf("Tensor.Type: got %q, want \"sfp\"", cfg.Tensor.Type)
	}
	if cfg.Model.Heads != 16 {
		t.Errorf("Model.Heads: got %d, want 16", cfg.Model.Heads)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gemmadiag.yaml")
	content := "tensor:\n  type: bf16\nmodel:\n  model_dim: 4096\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(LoadOptions{ConfigFile: path, Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Tensor.Type != "bf16" {
		t.Errorf("Tensor.Type: got %q, want \"bf16\"", cfg.Tensor.Type)
	}
	if cfg.Model.ModelDim != 4096 {
		t.Errorf("Model.ModelDim: got %d, want 4096", cfg.Model.ModelDim)
	}
	// Unset keys keep defaults.
	if cfg.Model.Heads != 8 {
		t.Errorf("Model.Heads: got %d, want 8", cfg.Model.Heads)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("GEMMADIAG_TENSOR_TYPE", "sfp")

	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Tensor.Type != "sfp" {
		t.Errorf("Tensor.Type from env: got %q, want \"sfp\"", cfg.Tensor.Type)
	}
}

// TestLoadPrecedence pins the source ordering: a changed flag beats the
// config file, while an unchanged flag's default must not shadow the file
// or the programmatic defaults.
func TestLoadPrecedence(t *testing.T) {
	defaults := DefaultConfig()
	path := filepath.Join(t.TempDir(), "gemmadiag.yaml")
	content := "tensor:\n  type: bf16\n  threshold: 30\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)
	if err := fs.Parse([]string{"--tensor-type", "sfp"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cfg, err := Load(LoadOptions{Cmd: &fakeCmd{fs: fs}, ConfigFile: path, Defaults: defaults})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Tensor.Type != "sfp" {
		t.Errorf("Tensor.Type: got %q, want flag value \"sfp\"", cfg.Tensor.Type)
	}
	if cfg.Tensor.Threshold != 30 {
		t.Errorf("Tensor.Threshold: got %d, want file value 30", cfg.Tensor.Threshold)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level: got %q, want default \"info\"", cfg.Log.Level)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(LoadOptions{ConfigFile: "/nonexistent/gemmadiag.yaml", Defaults: DefaultConfig()})
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}
