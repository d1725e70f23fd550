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

	"github.com/hyperledger/firefly-common/pkg/i18n"

	"github.com/evmetl/evmetl/internal/etlmsgs"
	"github.com/evmetl/evmetl/pkg/abi"
	"github.com/evmetl/evmetl/pkg/sigindex"
)

// TraceResult is the assembled decode output for one matched trace row:
// the function's input arguments and, where available, its return
// values, each rendered both as typed strings and as structured JSON.
type TraceResult struct {
	Input  *EventResult
	Output *EventResult
}

// DecodeTrace decodes a call trace's action_input and result_output
// against its matched function signature row. action_input carries the
// 4-byte selector as its first four bytes (Section 4.4's trace-specific
// rule) and must be stripped before the remaining bytes are decoded as
// a plain tuple of the function's inputs; result_output has no selector
// prefix and decodes directly against the outputs.
func DecodeTrace(ctx context.Context, row *sigindex.Row, actionInput []byte, resultOutput []byte) (*TraceResult, error) {
	if len(actionInput) < 4 {
		return nil, abi.Tag(abi.ErrUnexpectedEndOfBuffer, i18n.NewError(ctx, etlmsgs.MsgSelectorTooShort, len(actionInput)))
	}
	inputData := actionInput[4:]

	input, err := decodeTuple(ctx, row.Inputs, inputData)
	if err != nil {
		return nil, err
	}

	var output *EventResult
	if len(row.Outputs) > 0 && len(resultOutput) > 0 {
		output, err = decodeTuple(ctx, row.Outputs, resultOutput)
		if err != nil {
			return nil, err
		}
	}

	return &TraceResult{Input: input, Output: output}, nil
}

// decodeTuple decodes a flat parameter list (no indexed/topic concept -
// functions have no topics) as a top-level ABI tuple.
func decodeTuple(ctx context.Context, params abi.ParameterArray, data []byte) (*EventResult, error) {
	trees, err := params.TypeTrees(ctx)
	if err != nil {
		return nil, err
	}
	values, err := abi.DecodeABIData(ctx, data, trees)
	if err != nil {
		return nil, err
	}
	entries := make([]namedEntry, len(values))
	for i, dv := range values {
		nv := abi.RenderJSON([]*abi.DecodedValue{dv})[0]
		nv.Name = params[i].Name
		nv.Index = i
		entries[i] = namedEntry{nv: nv, typed: abi.RenderTypedString(dv)}
	}
	return assembleResult(entries)
}
