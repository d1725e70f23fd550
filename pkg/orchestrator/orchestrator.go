// Copyright © 2024 Kaleido, Inc.
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

// Package orchestrator drives Section 4.6/5's batch pipeline: enumerate
// input files, join+chunk+decode each one under two independent bounded
// worker pools (files concurrently with each other, chunks concurrently
// within one file), and persist the reassembled result with an atomic
// temp-then-rename write. A failure decoding one file is contained to
// that file (Section 7) - it never aborts the rest of the run.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/log"
	"golang.org/x/sync/semaphore"

	"github.com/evmetl/evmetl/internal/etlconfig"
	"github.com/evmetl/evmetl/internal/etlmsgs"
	"github.com/evmetl/evmetl/pkg/sigindex"
	"github.com/evmetl/evmetl/pkg/tableio"
)

// Report aggregates the per-file outcome of one decode run, so the CLI
// can log a single summary rather than one line per file (mirroring
// pkg/sigindex.IngestReport's shape).
type Report struct {
	mu sync.Mutex

	FilesProcessed int
	FilesFailed    int
	RowsDecoded    int
	RowsMatched    int
	RowsUnmatched  int
	RowsErrored    int
	FailedFiles    []string
}

func (r *Report) recordFile(stats fileStats, failed bool, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if failed {
		r.FilesFailed++
		r.FailedFiles = append(r.FailedFiles, path)
		return
	}
	r.FilesProcessed++
	r.RowsDecoded += stats.rows
	r.RowsMatched += stats.matched
	r.RowsUnmatched += stats.unmatched
	r.RowsErrored += stats.errored
}

type fileStats struct {
	rows      int
	matched   int
	unmatched int
	errored   int
}

// RunLogs decodes every raw log input file under cfg.LogDecoder.LogsFolder
// against idx, writing one decoded output file per input file into
// cfg.Decoder.OutputFolder.
func RunLogs(ctx context.Context, cfg etlconfig.Config, idx *sigindex.SignatureIndex) (*Report, error) {
	files, err := enumerateInputFiles(ctx, cfg.LogDecoder.LogsFolder)
	if err != nil {
		return nil, err
	}
	return runFiles(ctx, cfg, files, func(ctx context.Context, path string) (fileStats, error) {
		return decodeLogFile(ctx, cfg, idx, path)
	})
}

// RunTraces decodes every raw call-trace input file under
// cfg.TraceDecoder.TracesFolder against idx.
func RunTraces(ctx context.Context, cfg etlconfig.Config, idx *sigindex.SignatureIndex) (*Report, error) {
	files, err := enumerateInputFiles(ctx, cfg.TraceDecoder.TracesFolder)
	if err != nil {
		return nil, err
	}
	return runFiles(ctx, cfg, files, func(ctx context.Context, path string) (fileStats, error) {
		return decodeTraceFile(ctx, cfg, idx, path)
	})
}

// runFiles dispatches decodeOne across files under a file-level bounded
// worker pool (max_concurrent_files_decoding). Unlike chunk reassembly
// within a file, files carry no ordering requirement relative to each
// other, so results are simply collected as they complete.
func runFiles(ctx context.Context, cfg etlconfig.Config, files []string, decodeOne func(context.Context, string) (fileStats, error)) (*Report, error) {
	report := &Report{}
	if len(files) == 0 {
		return report, nil
	}

	limit := cfg.Main.MaxConcurrentFilesDecoding
	if limit <= 0 {
		limit = 1
	}
	sem := semaphore.NewWeighted(int64(limit))

	var wg sync.WaitGroup
	for _, path := range files {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return report, ctx.Err()
		}
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			defer sem.Release(1)

			stats, err := decodeFileContained(ctx, path, decodeOne)
			if err != nil {
				log.L(ctx).Errorf("%s", err)
				report.recordFile(stats, true, path)
				return
			}
			report.recordFile(stats, false, path)
		}(path)
	}
	wg.Wait()
	return report, nil
}

// decodeFileContained recovers a panic escaping decodeOne into a
// file-level error, so one corrupt input file cannot take down the
// whole run (Section 7's file-level containment - distinct from a
// chunk-level panic, which is contained inside decodeOne itself and
// never reaches here).
func decodeFileContained(ctx context.Context, path string, decodeOne func(context.Context, string) (fileStats, error)) (stats fileStats, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = i18n.NewError(ctx, etlmsgs.MsgFilePanicRecovered, path, r)
		}
	}()
	stats, err = decodeOne(ctx, path)
	if err != nil {
		err = i18n.WrapError(ctx, err, etlmsgs.MsgFileDecodeFailed, path, err)
	}
	return stats, err
}

// enumerateInputFiles lists the parquet/csv files directly under dir,
// in a stable (sorted) order so that repeated runs over the same
// folder produce output files in the same order (Section 8's
// determinism invariant).
func enumerateInputFiles(ctx context.Context, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, i18n.WrapError(ctx, err, etlmsgs.MsgReadDirFailed, dir)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".parquet" && ext != ".csv" {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func formatOf(path string) tableio.Format {
	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		return tableio.FormatCSV
	}
	return tableio.FormatParquet
}

// outputPath derives the decoded output path for an input file: same
// base name, under cfg.Decoder.OutputFolder, in cfg.Decoder.OutputFormat.
func outputPath(cfg etlconfig.Config, inputPath string) string {
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	ext := ".parquet"
	if cfg.Decoder.OutputFormat == string(tableio.FormatCSV) {
		ext = ".csv"
	}
	return filepath.Join(cfg.Decoder.OutputFolder, stem+ext)
}

// tempOutputPath is outputPath's sibling temp file - written first,
// then renamed onto outputPath only once it is complete, so a reader
// never observes a partially written decoded file (Section 5).
func tempOutputPath(finalPath string) string {
	return finalPath + fmt.Sprintf(".tmp-%d", os.Getpid())
}
