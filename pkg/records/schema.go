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

// Package records defines the Go-side row schemas for raw and decoded
// log/trace tables (Section 3's Raw record / Decoded record), and a
// minimal columnar Table collaborator backed by Apache Arrow - the
// concrete, narrowly-interfaced stand-in for the out-of-scope
// "DataFrame engine".
package records

import "github.com/apache/arrow-go/v18/arrow"

// RawLogSchema is the raw input table schema for event logs: the five
// columns Section 6 names, plus the contract address. Binary columns
// are declared as arrow.BinaryTypes.String here (0x-prefixed hex) -
// callers reading raw-bytes-encoded sources convert once at ingest via
// pkg/ethtypes, since "the schema declares which, and conversion is
// lossless" (Section 3).
var RawLogSchema = arrow.NewSchema([]arrow.Field{
	{Name: "topic0", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "topic1", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "topic2", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "topic3", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "data", Type: arrow.BinaryTypes.String, Nullable: false},
	{Name: "address", Type: arrow.BinaryTypes.String, Nullable: false},
}, nil)

// RawTraceSchema is the raw input table schema for call traces.
var RawTraceSchema = arrow.NewSchema([]arrow.Field{
	{Name: "selector", Type: arrow.BinaryTypes.String, Nullable: false},
	{Name: "action_input", Type: arrow.BinaryTypes.String, Nullable: false},
	{Name: "result_output", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "action_to", Type: arrow.BinaryTypes.String, Nullable: false},
}, nil)

// matchedABIFields are the signature-index columns joined onto a raw
// record by the matcher (Section 3's "matched ABI columns").
var matchedABIFields = []arrow.Field{
	{Name: "full_signature", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "anonymous", Type: arrow.FixedWidthTypes.Boolean, Nullable: true},
	{Name: "num_indexed_args", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
	{Name: "state_mutability", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "id", Type: arrow.BinaryTypes.String, Nullable: true},
}

// DecodedLogSchema is RawLogSchema plus the matched ABI columns plus
// the event-specific decoded payload triple. A decode failure carries
// no column of its own: it surfaces as a null event_values/event_keys
// pair and an `{"error":"..."}` tag inside event_json (Section 7).
var DecodedLogSchema = arrow.NewSchema(append(append([]arrow.Field{}, RawLogSchema.Fields()...), append(matchedABIFields, []arrow.Field{
	{Name: "event_keys", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "event_values", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "event_json", Type: arrow.BinaryTypes.String, Nullable: true},
}...)...), nil)

// DecodedTraceSchema is RawTraceSchema plus the matched ABI columns
// plus the trace-specific input_*/output_* decoded payload triples,
// with the same error-in-json convention as DecodedLogSchema.
var DecodedTraceSchema = arrow.NewSchema(append(append([]arrow.Field{}, RawTraceSchema.Fields()...), append(matchedABIFields, []arrow.Field{
	{Name: "input_keys", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "input_values", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "input_json", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "output_keys", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "output_values", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "output_json", Type: arrow.BinaryTypes.String, Nullable: true},
}...)...), nil)
