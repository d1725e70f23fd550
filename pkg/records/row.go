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

import "github.com/evmetl/evmetl/pkg/ethtypes"

// RawLog is one row of a raw log input table, in Go-native form: the
// unit of work passed between the matcher and the per-row decoder
// before being appended back into a columnar Table.
type RawLog struct {
	Topic0  *ethtypes.HexBytes0xPrefix
	Topic1  *ethtypes.HexBytes0xPrefix
	Topic2  *ethtypes.HexBytes0xPrefix
	Topic3  *ethtypes.HexBytes0xPrefix
	Data    ethtypes.HexBytes0xPrefix
	Address ethtypes.Address0xHex
}

// RawTrace is one row of a raw call-trace input table.
type RawTrace struct {
	Selector     [4]byte
	ActionInput  ethtypes.HexBytes0xPrefix
	ResultOutput ethtypes.HexBytes0xPrefix
	ActionTo     ethtypes.Address0xHex
}

// MatchedABI is the signature-index subset joined onto a raw record by
// the matcher - nil when the matcher found no match (hash_address miss).
type MatchedABI struct {
	FullSignature   string
	Name            string
	Anonymous       bool
	NumIndexedArgs  int32
	StateMutability string
	ID              string
}

// DecodedLog is one fully assembled output row for the log pipeline.
// DecodeError is bookkeeping only - the orchestrator's per-file match/
// error counters read it, but it is never written out as its own
// column; a decode failure is instead tagged inside EventJSON
// (Section 7).
type DecodedLog struct {
	Raw          RawLog
	Matched      *MatchedABI
	EventKeys    []string
	EventValues  []string
	EventJSON    string
	DecodeError  string
}

// DecodedTrace is one fully assembled output row for the trace
// pipeline, with the same DecodeError bookkeeping convention as
// DecodedLog.
type DecodedTrace struct {
	Raw          RawTrace
	Matched      *MatchedABI
	InputKeys    []string
	InputValues  []string
	InputJSON    string
	OutputKeys   []string
	OutputValues []string
	OutputJSON   string
	DecodeError  string
}
