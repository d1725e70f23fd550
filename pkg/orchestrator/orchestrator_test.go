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
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evmetl/evmetl/internal/etlconfig"
	"github.com/evmetl/evmetl/pkg/ethtypes"
	"github.com/evmetl/evmetl/pkg/records"
	"github.com/evmetl/evmetl/pkg/sigindex"
	"github.com/evmetl/evmetl/pkg/tableio"
)

func TestChunkSpans(t *testing.T) {
	assert.Equal(t, [][]int{{0, 3}, {3, 6}, {6, 8}}, chunkSpans(8, 3))
	assert.Equal(t, [][]int{{0, 5}}, chunkSpans(5, 10))
	assert.Nil(t, chunkSpans(0, 3))
}

const transferEventABI = `[{
	"type": "event",
	"name": "Transfer",
	"inputs": [
		{"name": "from", "type": "address", "indexed": true},
		{"name": "to", "type": "address", "indexed": true},
		{"name": "value", "type": "uint256", "indexed": false}
	]
}]`

// TestRunLogsEndToEnd exercises the full folder-mode pipeline: one
// input file with one matched row and one unmatched row, decoded and
// written back out, with the matched/unmatched split and row order
// both preserved (Section 8).
func TestRunLogsEndToEnd(t *testing.T) {
	ctx := context.Background()
	contractAddr, _ := ethtypes.NewAddress("0x00000000000000000000000000000000000000aa")
	otherAddr, _ := ethtypes.NewAddress("0x00000000000000000000000000000000000000bb")

	report := &sigindex.IngestReport{}
	rows, err := sigindex.IngestBlob(ctx, *contractAddr, []byte(transferEventABI), sigindex.ReadBoth, report)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	idx := sigindex.Build(rows, []sigindex.UniqueKeyField{sigindex.KeyHash, sigindex.KeyAddress})

	inDir := t.TempDir()
	outDir := t.TempDir()

	inputRec := buildRawLogRecord(t, []rawLogFixture{
		{
			topic0:  "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef",
			topic1:  "0x000000000000000000000000a0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
			topic2:  "0x0000000000000000000000007a250d5630b4cf539739df2c5dacb4c659f2488d",
			data:    "0x0000000000000000000000000000000000000000000000000000000000000064",
			address: contractAddr.String(),
		},
		{
			topic0:  "0x0000000000000000000000000000000000000000000000000000000000000000",
			data:    "0x",
			address: otherAddr.String(),
		},
	})

	inputPath := filepath.Join(inDir, "sample.parquet")
	w, err := tableio.NewWriter(ctx, inputPath, tableio.FormatParquet, records.RawLogSchema)
	require.NoError(t, err)
	require.NoError(t, w.Write(inputRec))
	require.NoError(t, w.Close())

	cfg := etlconfig.Config{
		Main: etlconfig.MainConfig{
			MaxConcurrentFilesDecoding: 2,
			MaxChunkThreadsPerFile:     2,
			ChunkSize:                  10,
		},
		Decoder: etlconfig.DecoderConfig{
			MatchAlgorithm: "hash_address",
			OutputFormat:   "parquet",
			OutputFolder:   outDir,
		},
		LogDecoder: etlconfig.LogDecoderConfig{LogsFolder: inDir},
	}

	report2, err := RunLogs(ctx, cfg, idx)
	require.NoError(t, err)
	assert.Equal(t, 1, report2.FilesProcessed)
	assert.Equal(t, 0, report2.FilesFailed)
	assert.Equal(t, 2, report2.RowsDecoded)
	assert.Equal(t, 1, report2.RowsMatched)
	assert.Equal(t, 1, report2.RowsUnmatched)
	assert.Equal(t, 0, report2.RowsErrored)

	outputPath := filepath.Join(outDir, "sample.parquet")
	_, err = os.Stat(outputPath)
	require.NoError(t, err)

	r, err := tableio.NewReader(ctx, outputPath, tableio.FormatParquet, records.DecodedLogSchema)
	require.NoError(t, err)
	defer r.Close()

	rec, err := r.Read()
	require.NoError(t, err)
	defer rec.Release()

	require.Equal(t, int64(2), rec.NumRows())
	eventKeys := rec.Column(12).(*array.String)
	assert.Equal(t, `["from","to","value"]`, eventKeys.Value(0))
	assert.True(t, eventKeys.IsNull(1))

	fullSignature := rec.Column(6).(*array.String)
	assert.False(t, fullSignature.IsNull(0))
	assert.True(t, fullSignature.IsNull(1))

	_, err = r.Read()
	assert.Equal(t, io.EOF, err)
}

type rawLogFixture struct {
	topic0, topic1, topic2, topic3 string
	data                           string
	address                        string
}

func buildRawLogRecord(t *testing.T, fixtures []rawLogFixture) arrow.Record {
	t.Helper()
	rb := array.NewRecordBuilder(memory.NewGoAllocator(), records.RawLogSchema)

	appendTopic := func(col int, v string) {
		sb := rb.Field(col).(*array.StringBuilder)
		if v == "" {
			sb.AppendNull()
			return
		}
		sb.Append(v)
	}
	for _, f := range fixtures {
		appendTopic(0, f.topic0)
		appendTopic(1, f.topic1)
		appendTopic(2, f.topic2)
		appendTopic(3, f.topic3)
		rb.Field(4).(*array.StringBuilder).Append(f.data)
		rb.Field(5).(*array.StringBuilder).Append(f.address)
	}
	return rb.NewRecord()
}
