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

// Package decode assembles pkg/abi's generic head/tail codec into the
// event-specific and trace-specific rules of Section 4.4: indexed vs
// non-indexed topic splitting, indexed-dynamic hash-verbatim surfacing,
// selector stripping, and the two render forms (typed-string, JSON).
package decode

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hyperledger/firefly-common/pkg/i18n"

	"github.com/evmetl/evmetl/internal/etlmsgs"
	"github.com/evmetl/evmetl/pkg/abi"
	"github.com/evmetl/evmetl/pkg/ethtypes"
	"github.com/evmetl/evmetl/pkg/sigindex"
)

// EventResult is the assembled decode output for one matched log row:
// parallel key/value-string slices plus the structured JSON form.
type EventResult struct {
	Keys   []string
	Values []string
	JSON   string
}

// namedEntry pairs a rendered NamedValue with its typed-string form,
// computed up front while the originating DecodedValue (with its full
// width/nesting information) is still at hand - RenderTypedString needs
// that tree, not the JSON-flattened NamedValue.
type namedEntry struct {
	nv    *abi.NamedValue
	typed string
}

// DecodeEvent decodes one log row against its matched signature index
// row, splitting parameters into indexed (topic1..topicK) and
// non-indexed (data, as a tuple) per Section 4.4's event-specific
// rules. A decode failure here is reported to the caller, which is
// responsible for turning it into a null-with-error row - this
// function never recovers from a panic itself (the orchestrator's
// chunk worker does that at a higher level, Section 7).
func DecodeEvent(ctx context.Context, row *sigindex.Row, topics []ethtypes.HexBytes0xPrefix, data []byte) (*EventResult, error) {
	trees, err := row.Inputs.TypeTrees(ctx)
	if err != nil {
		return nil, err
	}

	var nonIndexedTrees []*abi.TypeComponent
	var nonIndexedParams []*abi.Parameter
	var nonIndexedOrigIndex []int
	entries := make([]namedEntry, len(row.Inputs))

	topicIdx := 1 // topic0 is the event hash itself, never a parameter value
	for i, p := range row.Inputs {
		tc := trees[i]
		if p.Indexed {
			if topicIdx >= len(topics) {
				return nil, abi.Tag(abi.ErrUnexpectedEndOfBuffer, i18n.NewError(ctx, etlmsgs.MsgTopicCountMismatch, len(topics), row.NumIndexedArgs))
			}
			topicBytes := topics[topicIdx]
			topicIdx++

			if tc.IsDynamic() {
				var hash [32]byte
				copy(hash[:], topicBytes)
				nv := abi.IndexedHash(p.Name, i, hash)
				entries[i] = namedEntry{nv: nv, typed: fmt.Sprintf("indexed-hash(%v)", nv.Value)}
				continue
			}
			values, err := abi.DecodeABIData(ctx, topicBytes, []*abi.TypeComponent{tc})
			if err != nil {
				return nil, err
			}
			dv := values[0]
			nv := abi.RenderJSON(values)[0]
			nv.Name = p.Name
			nv.Index = i
			entries[i] = namedEntry{nv: nv, typed: abi.RenderTypedString(dv)}
			continue
		}
		nonIndexedTrees = append(nonIndexedTrees, tc)
		nonIndexedParams = append(nonIndexedParams, p)
		nonIndexedOrigIndex = append(nonIndexedOrigIndex, i)
	}

	if len(nonIndexedTrees) > 0 {
		values, err := abi.DecodeABIData(ctx, data, nonIndexedTrees)
		if err != nil {
			return nil, err
		}
		for i, dv := range values {
			nv := abi.RenderJSON([]*abi.DecodedValue{dv})[0]
			nv.Name = nonIndexedParams[i].Name
			nv.Index = nonIndexedOrigIndex[i]
			entries[nonIndexedOrigIndex[i]] = namedEntry{nv: nv, typed: abi.RenderTypedString(dv)}
		}
	}

	return assembleResult(entries)
}

func assembleResult(entries []namedEntry) (*EventResult, error) {
	keys := make([]string, len(entries))
	values := make([]string, len(entries))
	namedValues := make([]*abi.NamedValue, len(entries))
	for i, e := range entries {
		keys[i] = e.nv.Name
		values[i] = e.typed
		namedValues[i] = e.nv
	}
	jsonBytes, err := json.Marshal(namedValues)
	if err != nil {
		return nil, err
	}
	return &EventResult{Keys: keys, Values: values, JSON: string(jsonBytes)}, nil
}
