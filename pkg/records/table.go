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
	"encoding/json"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/evmetl/evmetl/pkg/ethtypes"
)

// Table is the minimal columnar-table collaborator this repo needs
// from a "DataFrame engine": indexed column access, schema and row
// count. It is satisfied directly by arrow.Record, so no adapter type
// is required; pkg/tableio and pkg/orchestrator pass arrow.Record
// values directly rather than through this interface.
type Table interface {
	NumRows() int64
	Schema() *arrow.Schema
	Column(i int) arrow.Array
}

// DecodedLogBuilder accumulates DecodedLog rows and flushes them into
// an arrow.Record batch. The orchestrator creates one builder per
// output file, after the file's chunks are reassembled.
type DecodedLogBuilder struct {
	rb *array.RecordBuilder
}

func NewDecodedLogBuilder() *DecodedLogBuilder {
	return &DecodedLogBuilder{rb: array.NewRecordBuilder(memory.NewGoAllocator(), DecodedLogSchema)}
}

func (b *DecodedLogBuilder) Append(row *DecodedLog) {
	appendHexOrNull(b.rb.Field(0), row.Raw.Topic0)
	appendHexOrNull(b.rb.Field(1), row.Raw.Topic1)
	appendHexOrNull(b.rb.Field(2), row.Raw.Topic2)
	appendHexOrNull(b.rb.Field(3), row.Raw.Topic3)
	b.rb.Field(4).(*array.StringBuilder).Append(row.Raw.Data.String())
	b.rb.Field(5).(*array.StringBuilder).Append(row.Raw.Address.String())
	appendMatched(b.rb, 6, row.Matched)
	appendStringSliceOrNull(b.rb.Field(12), row.EventKeys)
	appendStringSliceOrNull(b.rb.Field(13), row.EventValues)
	appendStringOrNull(b.rb.Field(14), row.EventJSON)
}

func (b *DecodedLogBuilder) NewRecord() arrow.Record {
	return b.rb.NewRecord()
}

// DecodedTraceBuilder is the trace pipeline's equivalent of
// DecodedLogBuilder.
type DecodedTraceBuilder struct {
	rb *array.RecordBuilder
}

func NewDecodedTraceBuilder() *DecodedTraceBuilder {
	return &DecodedTraceBuilder{rb: array.NewRecordBuilder(memory.NewGoAllocator(), DecodedTraceSchema)}
}

func (b *DecodedTraceBuilder) Append(row *DecodedTrace) {
	selectorHex := ethtypes.HexBytes0xPrefix(row.Raw.Selector[:])
	b.rb.Field(0).(*array.StringBuilder).Append(selectorHex.String())
	b.rb.Field(1).(*array.StringBuilder).Append(row.Raw.ActionInput.String())
	b.rb.Field(2).(*array.StringBuilder).Append(row.Raw.ResultOutput.String())
	b.rb.Field(3).(*array.StringBuilder).Append(row.Raw.ActionTo.String())
	appendMatched(b.rb, 4, row.Matched)
	appendStringSliceOrNull(b.rb.Field(10), row.InputKeys)
	appendStringSliceOrNull(b.rb.Field(11), row.InputValues)
	appendStringOrNull(b.rb.Field(12), row.InputJSON)
	appendStringSliceOrNull(b.rb.Field(13), row.OutputKeys)
	appendStringSliceOrNull(b.rb.Field(14), row.OutputValues)
	appendStringOrNull(b.rb.Field(15), row.OutputJSON)
}

func (b *DecodedTraceBuilder) NewRecord() arrow.Record {
	return b.rb.NewRecord()
}

// appendMatched appends the six matched-ABI columns starting at
// fieldOffset, or six nulls when the matcher found no match.
func appendMatched(rb *array.RecordBuilder, fieldOffset int, m *MatchedABI) {
	if m == nil {
		for i := fieldOffset; i < fieldOffset+6; i++ {
			rb.Field(i).AppendNull()
		}
		return
	}
	rb.Field(fieldOffset).(*array.StringBuilder).Append(m.FullSignature)
	rb.Field(fieldOffset + 1).(*array.StringBuilder).Append(m.Name)
	rb.Field(fieldOffset + 2).(*array.BooleanBuilder).Append(m.Anonymous)
	rb.Field(fieldOffset + 3).(*array.Int32Builder).Append(m.NumIndexedArgs)
	rb.Field(fieldOffset + 4).(*array.StringBuilder).Append(m.StateMutability)
	rb.Field(fieldOffset + 5).(*array.StringBuilder).Append(m.ID)
}

func appendHexOrNull(f array.Builder, v *ethtypes.HexBytes0xPrefix) {
	sb := f.(*array.StringBuilder)
	if v == nil {
		sb.AppendNull()
		return
	}
	sb.Append(v.String())
}

func appendStringOrNull(f array.Builder, v string) {
	sb := f.(*array.StringBuilder)
	if v == "" {
		sb.AppendNull()
		return
	}
	sb.Append(v)
}

func appendStringSliceOrNull(f array.Builder, v []string) {
	sb := f.(*array.StringBuilder)
	if v == nil {
		sb.AppendNull()
		return
	}
	marshaled, _ := json.Marshal(v)
	sb.Append(string(marshaled))
}
