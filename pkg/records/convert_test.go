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

package records

import (
	"context"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRawLogsRoundTrip(t *testing.T) {
	ctx := context.Background()
	rb := array.NewRecordBuilder(memory.NewGoAllocator(), RawLogSchema)

	topic0 := rb.Field(0).(*array.StringBuilder)
	topic1 := rb.Field(1).(*array.StringBuilder)
	topic2 := rb.Field(2).(*array.StringBuilder)
	topic3 := rb.Field(3).(*array.StringBuilder)
	data := rb.Field(4).(*array.StringBuilder)
	address := rb.Field(5).(*array.StringBuilder)

	topic0.Append("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")
	topic1.Append("0x000000000000000000000000a0b86991c6218b36c1d19d4a2e9eb0ce3606eb48")
	topic2.AppendNull()
	topic3.AppendNull()
	data.Append("0x0000000000000000000000000000000000000000000000000000000000000064")
	address.Append("0x00000000000000000000000000000000000000aa")

	rec := rb.NewRecord()
	defer rec.Release()

	rows, err := ReadRawLogs(ctx, rec)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	require.NotNil(t, row.Topic0)
	assert.Equal(t, "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef", row.Topic0.String())
	assert.Nil(t, row.Topic2)
	assert.Nil(t, row.Topic3)
	assert.Equal(t, "0x00000000000000000000000000000000000000aa", row.Address.String())
}

func TestReadRawLogsInvalidAddress(t *testing.T) {
	ctx := context.Background()
	rb := array.NewRecordBuilder(memory.NewGoAllocator(), RawLogSchema)
	for i := 0; i < 4; i++ {
		rb.Field(i).(*array.StringBuilder).AppendNull()
	}
	rb.Field(4).(*array.StringBuilder).Append("0x")
	rb.Field(5).(*array.StringBuilder).Append("not-an-address")

	rec := rb.NewRecord()
	defer rec.Release()

	_, err := ReadRawLogs(ctx, rec)
	assert.Error(t, err)
}

func TestReadRawTracesRoundTrip(t *testing.T) {
	ctx := context.Background()
	rb := array.NewRecordBuilder(memory.NewGoAllocator(), RawTraceSchema)

	rb.Field(0).(*array.StringBuilder).Append("0xa9059cbb")
	rb.Field(1).(*array.StringBuilder).Append("0xa9059cbb000000000000000000000000a0b86991c6218b36c1d19d4a2e9eb0ce3606eb480000000000000000000000000000000000000000000000000000000000000064")
	rb.Field(2).(*array.StringBuilder).AppendNull()
	rb.Field(3).(*array.StringBuilder).Append("0x00000000000000000000000000000000000000aa")

	rec := rb.NewRecord()
	defer rec.Release()

	rows, err := ReadRawTraces(ctx, rec)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, [4]byte{0xa9, 0x05, 0x9c, 0xbb}, row.Selector)
	assert.Nil(t, row.ResultOutput)
	assert.Equal(t, "0x00000000000000000000000000000000000000aa", row.ActionTo.String())
}
