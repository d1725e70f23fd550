// Copyright © 2022 Kaleido, Inc.
//
// SPDX-License-Identifier: Apache-2.0
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

// Package etlconfig holds the process-wide configuration for evmetl,
// loaded once from a TOML file at startup and read thereafter behind a
// reader-writer lock. Each top-level CLI command takes a single
// Snapshot() at the start of the run, so that a run observes one
// consistent view of the configuration even though the global can in
// principle be reloaded (tests reload it between cases).
package etlconfig

import (
	"context"
	"sync"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	toml "github.com/pelletier/go-toml"

	"github.com/evmetl/evmetl/internal/etlmsgs"
)

// GlaciersConfig holds the settings describing the upstream "glaciers"
// style decoder engine compatibility knobs: the field and table naming
// conventions decoded output should follow.
type GlaciersConfig struct {
	FieldNamingConvention string `toml:"field_naming_convention"`
	TableNamingConvention string `toml:"table_naming_convention"`
}

// MainConfig holds the top-level run controls shared by all commands.
type MainConfig struct {
	MaxConcurrentFilesDecoding int `toml:"max_concurrent_files_decoding"`
	MaxChunkThreadsPerFile     int `toml:"max_chunk_threads_per_file"`
	ChunkSize                  int `toml:"chunk_size"`
}

// ABIReaderConfig holds the settings for Section 4.3's ABI ingester.
type ABIReaderConfig struct {
	ABIReadMode   string `toml:"abi_read_mode"` // "folder" or "file"
	ABISource     string `toml:"abi_source"`
	UniqueKey     string `toml:"unique_key"` // "hash" or "hash_address"
	RegistryURL   string `toml:"registry_url"`
}

// DecoderConfig holds settings shared by the log and trace decoders.
type DecoderConfig struct {
	MatchAlgorithm string `toml:"match_algorithm"`    // "hash" or "hash_address"
	OutputFormat   string `toml:"output_file_format"` // "parquet" or "csv"
	OutputFolder   string `toml:"output_folder"`
}

// LogDecoderConfig holds the event log decoder's own settings.
type LogDecoderConfig struct {
	LogsFolder string `toml:"logs_folder"`
}

// TraceDecoderConfig holds the call trace decoder's own settings.
type TraceDecoderConfig struct {
	TracesFolder string `toml:"traces_folder"`
}

// Config is the root of the TOML document.
type Config struct {
	Glaciers     GlaciersConfig     `toml:"glaciers"`
	Main         MainConfig         `toml:"main"`
	ABIReader    ABIReaderConfig    `toml:"abi_reader"`
	Decoder      DecoderConfig      `toml:"decoder"`
	LogDecoder   LogDecoderConfig   `toml:"log_decoder"`
	TraceDecoder TraceDecoderConfig `toml:"trace_decoder"`
}

func defaultConfig() *Config {
	return &Config{
		Glaciers: GlaciersConfig{
			FieldNamingConvention: "snake_case",
			TableNamingConvention: "snake_case",
		},
		Main: MainConfig{
			MaxConcurrentFilesDecoding: 4,
			MaxChunkThreadsPerFile:     4,
			ChunkSize:                  10000,
		},
		ABIReader: ABIReaderConfig{
			ABIReadMode: "folder",
			UniqueKey:   "hash_address",
		},
		Decoder: DecoderConfig{
			MatchAlgorithm: "hash_address",
			OutputFormat:   "parquet",
			OutputFolder:   "decoded",
		},
	}
}

var (
	mu      sync.RWMutex
	current *Config
)

func init() {
	current = defaultConfig()
}

// Reset discards any loaded configuration and restores the defaults.
// Intended for test isolation between cases, mirroring the teacher's
// own config.RootConfigReset lifecycle hook.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	current = defaultConfig()
}

// Load reads and parses a TOML configuration file, replacing the
// process-wide configuration. It must be called at most once per
// process lifetime before any Snapshot is taken for a run - callers
// that need to reload (tests) should call Reset first.
func Load(ctx context.Context, path string) error {
	cfg := defaultConfig()
	tree, err := toml.LoadFile(path)
	if err != nil {
		return i18n.WrapError(ctx, err, etlmsgs.MsgConfigParseFailed, path)
	}
	if err := tree.Unmarshal(cfg); err != nil {
		return i18n.WrapError(ctx, err, etlmsgs.MsgConfigParseFailed, path)
	}

	mu.Lock()
	current = cfg
	mu.Unlock()
	return nil
}

// Snapshot returns a copy of the current configuration. Every top-level
// CLI operation calls this exactly once, at the start of the run, and
// then threads the returned value through its call graph - so the rest
// of the decode pipeline never takes the lock again and always sees one
// consistent set of values for the duration of that run.
func Snapshot() Config {
	mu.RLock()
	defer mu.RUnlock()
	return *current
}
