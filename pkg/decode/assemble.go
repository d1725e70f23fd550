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

package decode

import (
	"context"
	"encoding/json"

	"github.com/hyperledger/firefly-common/pkg/log"

	"github.com/evmetl/evmetl/pkg/abi"
	"github.com/evmetl/evmetl/pkg/ethtypes"
	"github.com/evmetl/evmetl/pkg/records"
	"github.com/evmetl/evmetl/pkg/sigindex"
)

// errorTagJSON renders a decode error as the `{"error":"<tag>"}` object
// Section 7 requires in place of the decoded payload - the tag is the
// stable taxonomy name when err carries one (abi.Tag), the raw message
// otherwise.
func errorTagJSON(err error) string {
	tag := err.Error()
	if t, ok := abi.TagOf(err); ok {
		tag = string(t)
	}
	b, marshalErr := json.Marshal(struct {
		Error string `json:"error"`
	}{Error: tag})
	if marshalErr != nil {
		return ""
	}
	return string(b)
}

// AssembleLog combines one matcher result with a decode pass into the
// final DecodedLog row. An unmatched record or a decode failure never
// aborts the chunk (Section 7, "poison row" containment) - either
// condition instead produces a row with null decoded columns, identical
// in shape to every other row in the output table. An unmatched record
// also has null ABI columns and an empty DecodeError; a decode failure
// sets DecodeError and an error tag in EventJSON.
func AssembleLog(ctx context.Context, raw records.RawLog, row *sigindex.Row) *records.DecodedLog {
	out := &records.DecodedLog{Raw: raw}
	if row == nil {
		return out
	}
	out.Matched = matchedABI(row)

	topics := collectTopics(raw)
	result, err := DecodeEvent(ctx, row, topics, raw.Data)
	if err != nil {
		log.L(ctx).Warnf("failed to decode log with signature %s: %s", row.FullSignature, err)
		out.DecodeError = err.Error()
		out.EventJSON = errorTagJSON(err)
		return out
	}
	out.EventKeys = result.Keys
	out.EventValues = result.Values
	out.EventJSON = result.JSON
	return out
}

// AssembleTrace combines one matcher result with a decode pass into the
// final DecodedTrace row, with the same poison-row containment as
// AssembleLog.
func AssembleTrace(ctx context.Context, raw records.RawTrace, row *sigindex.Row) *records.DecodedTrace {
	out := &records.DecodedTrace{Raw: raw}
	if row == nil {
		return out
	}
	out.Matched = matchedABI(row)

	result, err := DecodeTrace(ctx, row, raw.ActionInput, raw.ResultOutput)
	if err != nil {
		log.L(ctx).Warnf("failed to decode trace with signature %s: %s", row.FullSignature, err)
		out.DecodeError = err.Error()
		tagJSON := errorTagJSON(err)
		out.InputJSON = tagJSON
		out.OutputJSON = tagJSON
		return out
	}
	out.InputKeys = result.Input.Keys
	out.InputValues = result.Input.Values
	out.InputJSON = result.Input.JSON
	if result.Output != nil {
		out.OutputKeys = result.Output.Keys
		out.OutputValues = result.Output.Values
		out.OutputJSON = result.Output.JSON
	}
	return out
}

func matchedABI(row *sigindex.Row) *records.MatchedABI {
	return &records.MatchedABI{
		FullSignature:   row.FullSignature,
		Name:            row.Name,
		Anonymous:       row.Anonymous,
		NumIndexedArgs:  int32(row.NumIndexedArgs),
		StateMutability: string(row.StateMutability),
		ID:              row.ID,
	}
}

// collectTopics gathers topic0..topic3 into a dense slice, in order,
// stopping at the first absent topic - logs never have a "hole" since
// the EVM always emits topics contiguously from topic0.
func collectTopics(raw records.RawLog) []ethtypes.HexBytes0xPrefix {
	ptrs := []*ethtypes.HexBytes0xPrefix{raw.Topic0, raw.Topic1, raw.Topic2, raw.Topic3}
	topics := make([]ethtypes.HexBytes0xPrefix, 0, 4)
	for _, p := range ptrs {
		if p == nil {
			break
		}
		topics = append(topics, *p)
	}
	return topics
}
