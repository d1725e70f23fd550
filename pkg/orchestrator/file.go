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

package orchestrator

import (
	"context"
	"io"
	"os"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/log"

	"github.com/evmetl/evmetl/internal/etlconfig"
	"github.com/evmetl/evmetl/internal/etlmsgs"
	"github.com/evmetl/evmetl/pkg/matcher"
	"github.com/evmetl/evmetl/pkg/records"
	"github.com/evmetl/evmetl/pkg/sigindex"
	"github.com/evmetl/evmetl/pkg/tableio"
)

// decodeLogFile reads one raw log input file end to end, joins every
// row against idx, decodes it in chunk_size-sized chunks under the
// chunk-level worker pool, and persists the result with an atomic
// temp-then-rename write (Section 5).
func decodeLogFile(ctx context.Context, cfg etlconfig.Config, idx *sigindex.SignatureIndex, path string) (fileStats, error) {
	raws, err := readAllRawLogs(ctx, path)
	if err != nil {
		return fileStats{}, err
	}

	matched, err := matcher.Match(ctx, idx, matcher.LogKeys(raws), matcher.Algorithm(cfg.Decoder.MatchAlgorithm))
	if err != nil {
		return fileStats{}, err
	}

	chunks := chunkSpans(len(raws), cfg.Main.ChunkSize)
	decoded := decodeLogChunks(ctx, path, chunks, raws, matched, cfg.Main.MaxChunkThreadsPerFile)

	stats := fileStats{rows: len(decoded)}
	for _, row := range decoded {
		switch {
		case row.DecodeError != "":
			stats.errored++
		case row.Matched == nil:
			stats.unmatched++
		default:
			stats.matched++
		}
	}

	out := outputPath(cfg, path)
	tmp := tempOutputPath(out)
	if err := writeDecodedLogs(ctx, tmp, tableio.Format(cfg.Decoder.OutputFormat), decoded); err != nil {
		_ = os.Remove(tmp)
		return fileStats{}, err
	}
	if err := os.Rename(tmp, out); err != nil {
		_ = os.Remove(tmp)
		return fileStats{}, i18n.WrapError(ctx, err, etlmsgs.MsgRenameFileFailed, tmp, out)
	}
	log.L(ctx).Infof("Decoded %s -> %s (%d rows, %d matched, %d unmatched, %d errored)", path, out, stats.rows, stats.matched, stats.unmatched, stats.errored)
	return stats, nil
}

// decodeTraceFile is decodeLogFile's call-trace counterpart.
func decodeTraceFile(ctx context.Context, cfg etlconfig.Config, idx *sigindex.SignatureIndex, path string) (fileStats, error) {
	raws, err := readAllRawTraces(ctx, path)
	if err != nil {
		return fileStats{}, err
	}

	matched, err := matcher.Match(ctx, idx, matcher.TraceKeys(raws), matcher.Algorithm(cfg.Decoder.MatchAlgorithm))
	if err != nil {
		return fileStats{}, err
	}

	chunks := chunkSpans(len(raws), cfg.Main.ChunkSize)
	decoded := decodeTraceChunks(ctx, path, chunks, raws, matched, cfg.Main.MaxChunkThreadsPerFile)

	stats := fileStats{rows: len(decoded)}
	for _, row := range decoded {
		switch {
		case row.DecodeError != "":
			stats.errored++
		case row.Matched == nil:
			stats.unmatched++
		default:
			stats.matched++
		}
	}

	out := outputPath(cfg, path)
	tmp := tempOutputPath(out)
	if err := writeDecodedTraces(ctx, tmp, tableio.Format(cfg.Decoder.OutputFormat), decoded); err != nil {
		_ = os.Remove(tmp)
		return fileStats{}, err
	}
	if err := os.Rename(tmp, out); err != nil {
		_ = os.Remove(tmp)
		return fileStats{}, i18n.WrapError(ctx, err, etlmsgs.MsgRenameFileFailed, tmp, out)
	}
	log.L(ctx).Infof("Decoded %s -> %s (%d rows, %d matched, %d unmatched, %d errored)", path, out, stats.rows, stats.matched, stats.unmatched, stats.errored)
	return stats, nil
}

// readAllRawLogs concatenates every batch of an input file into one
// ordered slice - row order within a file must be preserved end to end
// (Section 8), so batching at read time is purely a physical file
// format detail, never a logical grouping.
func readAllRawLogs(ctx context.Context, path string) ([]*records.RawLog, error) {
	r, err := tableio.NewReader(ctx, path, formatOf(path), records.RawLogSchema)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var out []*records.RawLog
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, i18n.WrapError(ctx, err, etlmsgs.MsgReadFileFailed, path)
		}
		rows, err := records.ReadRawLogs(ctx, rec)
		rec.Release()
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

func readAllRawTraces(ctx context.Context, path string) ([]*records.RawTrace, error) {
	r, err := tableio.NewReader(ctx, path, formatOf(path), records.RawTraceSchema)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var out []*records.RawTrace
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, i18n.WrapError(ctx, err, etlmsgs.MsgReadFileFailed, path)
		}
		rows, err := records.ReadRawTraces(ctx, rec)
		rec.Release()
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

func writeDecodedLogs(ctx context.Context, path string, format tableio.Format, rows []*records.DecodedLog) error {
	w, err := tableio.NewWriter(ctx, path, format, records.DecodedLogSchema)
	if err != nil {
		return err
	}
	defer w.Close()

	b := records.NewDecodedLogBuilder()
	for _, row := range rows {
		b.Append(row)
	}
	rec := b.NewRecord()
	defer rec.Release()
	if err := w.Write(rec); err != nil {
		return i18n.WrapError(ctx, err, etlmsgs.MsgWriteFileFailed, path)
	}
	return nil
}

func writeDecodedTraces(ctx context.Context, path string, format tableio.Format, rows []*records.DecodedTrace) error {
	w, err := tableio.NewWriter(ctx, path, format, records.DecodedTraceSchema)
	if err != nil {
		return err
	}
	defer w.Close()

	b := records.NewDecodedTraceBuilder()
	for _, row := range rows {
		b.Append(row)
	}
	rec := b.NewRecord()
	defer rec.Release()
	if err := w.Write(rec); err != nil {
		return i18n.WrapError(ctx, err, etlmsgs.MsgWriteFileFailed, path)
	}
	return nil
}
