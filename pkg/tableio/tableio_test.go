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

package tableio

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = arrow.NewSchema([]arrow.Field{
	{Name: "name", Type: arrow.BinaryTypes.String},
	{Name: "value", Type: arrow.PrimitiveTypes.Int64},
}, nil)

func buildTestRecord(t *testing.T, names []string, values []int64) arrow.Record {
	t.Helper()
	rb := array.NewRecordBuilder(memory.NewGoAllocator(), testSchema)
	for i, n := range names {
		rb.Field(0).(*array.StringBuilder).Append(n)
		rb.Field(1).(*array.Int64Builder).Append(values[i])
	}
	return rb.NewRecord()
}

func TestParquetRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.parquet")

	rec := buildTestRecord(t, []string{"alpha", "beta"}, []int64{1, 2})
	defer rec.Release()

	w, err := NewWriter(ctx, path, FormatParquet, testSchema)
	require.NoError(t, err)
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Close())

	r, err := NewReader(ctx, path, FormatParquet, testSchema)
	require.NoError(t, err)
	defer r.Close()

	got, err := r.Read()
	require.NoError(t, err)
	defer got.Release()

	assert.Equal(t, int64(2), got.NumRows())
	assert.Equal(t, "alpha", got.Column(0).(*array.String).Value(0))
	assert.Equal(t, int64(2), got.Column(1).(*array.Int64).Value(1))

	_, err = r.Read()
	assert.Equal(t, io.EOF, err)
}

func TestCSVRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.csv")

	rec := buildTestRecord(t, []string{"gamma"}, []int64{42})
	defer rec.Release()

	w, err := NewWriter(ctx, path, FormatCSV, testSchema)
	require.NoError(t, err)
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Close())

	r, err := NewReader(ctx, path, FormatCSV, testSchema)
	require.NoError(t, err)
	defer r.Close()

	got, err := r.Read()
	require.NoError(t, err)
	defer got.Release()

	assert.Equal(t, int64(1), got.NumRows())
	assert.Equal(t, "gamma", got.Column(0).(*array.String).Value(0))
}

func TestNewWriterUnknownFormat(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.bin")
	_, err := NewWriter(ctx, path, Format("bogus"), testSchema)
	assert.Error(t, err)
}
