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
	"encoding/json"
	"sync"

	"github.com/hyperledger/firefly-common/pkg/log"

	"github.com/evmetl/evmetl/pkg/decode"
	"github.com/evmetl/evmetl/pkg/records"
	"github.com/evmetl/evmetl/pkg/sigindex"
)

// poisonJSON renders a chunk-task failure reason (panic, cancellation)
// in the same `{"error":"..."}` shape used for per-row decode errors,
// since the decoded payload columns carry the only error tag once
// decode_error is no longer a column of its own.
func poisonJSON(reason string) string {
	b, err := json.Marshal(struct {
		Error string `json:"error"`
	}{Error: reason})
	if err != nil {
		return ""
	}
	return string(b)
}

// logChunkJob is one unit of chunk work: a contiguous slice of raw rows
// and their already-resolved matcher rows, tagged with its position in
// the file so results can be reassembled in order once decoded.
type logChunkJob struct {
	index   int
	raws    []*records.RawLog
	matched []*sigindex.Row
}

type logChunkResult struct {
	index   int
	decoded []*records.DecodedLog
}

// decodeLogChunks decodes a file's raw rows, already split into
// fixed-size chunks, under a bounded pool of max_chunk_threads_per_file
// concurrent workers, and returns the decoded rows reassembled back
// into the original chunk order - the same jobs-channel, bounded
// worker-pool, index-keyed-reassembly shape used for concurrent block
// range fetches, adapted from block height order to chunk index order.
func decodeLogChunks(ctx context.Context, filePath string, chunks [][]int, raws []*records.RawLog, matched []*sigindex.Row, maxWorkers int) []*records.DecodedLog {
	numWorkers := boundedWorkerCount(maxWorkers, len(chunks))

	jobs := make(chan logChunkJob, len(chunks))
	results := make(chan logChunkResult, len(chunks))

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				select {
				case <-ctx.Done():
					results <- logChunkResult{index: job.index, decoded: poisonLogRows(job.raws, ctx.Err().Error())}
					continue
				default:
				}
				decoded := decodeLogChunkContained(ctx, filePath, job.index, job.raws, job.matched)
				results <- logChunkResult{index: job.index, decoded: decoded}
			}
		}()
	}

	for i, span := range chunks {
		jobs <- logChunkJob{index: i, raws: raws[span[0]:span[1]], matched: matched[span[0]:span[1]]}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	resultMap := make(map[int][]*records.DecodedLog, len(chunks))
	out := make([]*records.DecodedLog, 0, len(raws))
	next := 0
	for res := range results {
		resultMap[res.index] = res.decoded
		for {
			decoded, ok := resultMap[next]
			if !ok {
				break
			}
			out = append(out, decoded...)
			delete(resultMap, next)
			next++
		}
	}
	return out
}

// decodeLogChunkContained decodes one chunk's rows, recovering a panic
// into a chunk-wide poison result rather than letting it escape and
// abort the whole file (Section 7's chunk-level containment). Per-row
// decode failures never reach here - decode.AssembleLog already
// contains those into a single poisoned row.
func decodeLogChunkContained(ctx context.Context, filePath string, chunkIndex int, raws []*records.RawLog, matched []*sigindex.Row) (decoded []*records.DecodedLog) {
	defer func() {
		if r := recover(); r != nil {
			log.L(ctx).Errorf("recovered from panic while decoding chunk %d of %s: %v", chunkIndex, filePath, r)
			decoded = poisonLogRows(raws, "panic recovered while decoding chunk")
		}
	}()
	decoded = make([]*records.DecodedLog, len(raws))
	for i, raw := range raws {
		decoded[i] = decode.AssembleLog(ctx, *raw, matched[i])
	}
	return decoded
}

func poisonLogRows(raws []*records.RawLog, reason string) []*records.DecodedLog {
	out := make([]*records.DecodedLog, len(raws))
	tagJSON := poisonJSON(reason)
	for i, raw := range raws {
		out[i] = &records.DecodedLog{Raw: *raw, DecodeError: reason, EventJSON: tagJSON}
	}
	return out
}

// traceChunkJob/traceChunkResult mirror the log pipeline's chunk shape
// for call traces.
type traceChunkJob struct {
	index   int
	raws    []*records.RawTrace
	matched []*sigindex.Row
}

type traceChunkResult struct {
	index   int
	decoded []*records.DecodedTrace
}

func decodeTraceChunks(ctx context.Context, filePath string, chunks [][]int, raws []*records.RawTrace, matched []*sigindex.Row, maxWorkers int) []*records.DecodedTrace {
	numWorkers := boundedWorkerCount(maxWorkers, len(chunks))

	jobs := make(chan traceChunkJob, len(chunks))
	results := make(chan traceChunkResult, len(chunks))

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				select {
				case <-ctx.Done():
					results <- traceChunkResult{index: job.index, decoded: poisonTraceRows(job.raws, ctx.Err().Error())}
					continue
				default:
				}
				decoded := decodeTraceChunkContained(ctx, filePath, job.index, job.raws, job.matched)
				results <- traceChunkResult{index: job.index, decoded: decoded}
			}
		}()
	}

	for i, span := range chunks {
		jobs <- traceChunkJob{index: i, raws: raws[span[0]:span[1]], matched: matched[span[0]:span[1]]}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	resultMap := make(map[int][]*records.DecodedTrace, len(chunks))
	out := make([]*records.DecodedTrace, 0, len(raws))
	next := 0
	for res := range results {
		resultMap[res.index] = res.decoded
		for {
			decoded, ok := resultMap[next]
			if !ok {
				break
			}
			out = append(out, decoded...)
			delete(resultMap, next)
			next++
		}
	}
	return out
}

func decodeTraceChunkContained(ctx context.Context, filePath string, chunkIndex int, raws []*records.RawTrace, matched []*sigindex.Row) (decoded []*records.DecodedTrace) {
	defer func() {
		if r := recover(); r != nil {
			log.L(ctx).Errorf("recovered from panic while decoding chunk %d of %s: %v", chunkIndex, filePath, r)
			decoded = poisonTraceRows(raws, "panic recovered while decoding chunk")
		}
	}()
	decoded = make([]*records.DecodedTrace, len(raws))
	for i, raw := range raws {
		decoded[i] = decode.AssembleTrace(ctx, *raw, matched[i])
	}
	return decoded
}

func poisonTraceRows(raws []*records.RawTrace, reason string) []*records.DecodedTrace {
	out := make([]*records.DecodedTrace, len(raws))
	tagJSON := poisonJSON(reason)
	for i, raw := range raws {
		out[i] = &records.DecodedTrace{Raw: *raw, DecodeError: reason, InputJSON: tagJSON, OutputJSON: tagJSON}
	}
	return out
}

// boundedWorkerCount caps a configured worker limit at the number of
// jobs actually available - there is no point starting more goroutines
// than there are chunks to decode.
func boundedWorkerCount(maxWorkers, numChunks int) int {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	if numChunks == 0 {
		return 0
	}
	if maxWorkers > numChunks {
		return numChunks
	}
	return maxWorkers
}

// chunkSpans splits [0, n) into contiguous [start, end) spans of at
// most size rows each, in ascending order - chunk index i is spans[i].
func chunkSpans(n, size int) [][]int {
	if size <= 0 {
		size = n
		if size == 0 {
			size = 1
		}
	}
	var spans [][]int
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		spans = append(spans, []int{start, end})
	}
	return spans
}
