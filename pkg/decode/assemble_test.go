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
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/evmetl/evmetl/pkg/ethtypes"
	"github.com/evmetl/evmetl/pkg/records"
)

// TestAssembleLogUnmatched covers scenario 4: an unmatched record
// passes through with null ABI and decoded columns, never an error.
func TestAssembleLogUnmatched(t *testing.T) {
	ctx := context.Background()
	addr, _ := ethtypes.NewAddress("0x0000000000000000000000000000000000000b0b")
	raw := records.RawLog{Address: *addr}

	out := AssembleLog(ctx, raw, nil)
	assert.Nil(t, out.Matched)
	assert.Empty(t, out.EventKeys)
	assert.Empty(t, out.DecodeError)
	assert.Equal(t, raw, out.Raw)
}

// TestAssembleLogDecodeErrorContained covers scenario 6: a decode
// failure produces a row with a DecodeError string rather than
// propagating the error or panicking.
func TestAssembleLogDecodeErrorContained(t *testing.T) {
	ctx := context.Background()
	uintEventABI := `[{"type":"event","name":"N","inputs":[{"name":"v","type":"uint256","indexed":false}]}]`
	row := buildRow(t, ctx, uintEventABI)

	topic0 := mustTopic(hex.EncodeToString(row.Hash[:]))
	raw := records.RawLog{
		Topic0: &topic0,
		Data:   make([]byte, 16), // truncated: uint256 needs 32 bytes
	}

	out := AssembleLog(ctx, raw, row)
	assert.NotNil(t, out.Matched)
	assert.NotEmpty(t, out.DecodeError)
	assert.Empty(t, out.EventKeys)
	assert.Empty(t, out.EventValues)
	assert.Equal(t, `{"error":"UnexpectedEndOfBuffer"}`, out.EventJSON)
}

