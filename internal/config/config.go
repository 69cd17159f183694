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
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Tensor TensorConfig `mapstructure:"tensor"`
	Model  ModelConfig  `mapstructure:"model"`
	Log    LogConfig    `mapstructure:"log"`
}

type TensorConfig struct {
	Type      string `mapstructure:"type"`
	Threshold int    `mapstructure:"threshold"`
}

type ModelConfig struct {
	ModelDim int `mapstructure:"model_dim"`
	Heads    int `mapstructure:"heads"`
	QKVDim   int `mapstructure:"qkv_dim"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Tensor: TensorConfig{
			Type:      "f32",
			Threshold: 24,
		},
		Model: ModelConfig{
			ModelDim: 2048,
			Heads:    8,
			QKVDim:   256,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("tensor-type", defaults.Tensor.Type, "Tensor element type: f32, bf16 or sfp")
	fs.Int("tensor-threshold", defaults.Tensor.Threshold, "Mantissa bit count above which the compensated kernel is recommended")
	fs.Int("model-model-dim", defaults.Model.ModelDim, "Model embedding dimension")
	fs.Int("model-heads", defaults.Model.Heads, "Number of attention heads")
	fs.Int("model-qkv-dim", defaults.Model.QKVDim, "Per-head query/key/value dimension")
	fs.String("log-level", defaults.Log.Level, "Log level: debug, info, warn or error")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	v.SetEnvPrefix("GEMMADIAG")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("gemmadiag")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("tensor.type", c.Tensor.Type)
	v.SetDefault("tensor.threshold", c.Tensor.Threshold)
	v.SetDefault("model.model_dim", c.Model.ModelDim)
	v.SetDefault("model.heads", c.Model.Heads)
	v.SetDefault("model.qkv_dim", c.Model.QKVDim)
	v.SetDefault("log.level", c.Log.Level)
}

// bindFlags binds each nested config key to its dashed flag. Unlike an
// alias, a pflag binding only takes effect when the flag was changed or the
// key has no other source, so defaults and config-file values keep their
// precedence when no flags are passed.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	bindings := map[string]string{
		"tensor.type":      "tensor-type",
		"tensor.threshold": "tensor-threshold",
		"model.model_dim":  "model-model-dim",
		"model.heads":      "model-heads",
		"model.qkv_dim":    "model-qkv-dim",
		"log.level":        "log-level",
	}
	for key, flag := range bindings {
		f := fs.Lookup(flag)
		if f == nil {
			return fmt.Errorf("flag %q not registered", flag)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind %q: %w", key, err)
		}
	}
	return nil
}
