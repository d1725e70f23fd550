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
	"encoding/hex"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/hyperledger/firefly-common/pkg/i18n"

	"github.com/evmetl/evmetl/internal/etlmsgs"
	"github.com/evmetl/evmetl/pkg/ethtypes"
)

// ReadRawLogs converts one RawLogSchema batch back into Go-native
// RawLog values, the form the matcher and decoder operate on row by
// row. The inverse of DecodedLogBuilder, one schema layer earlier.
func ReadRawLogs(ctx context.Context, rec arrow.Record) ([]*RawLog, error) {
	topic0 := rec.Column(0).(*array.String)
	topic1 := rec.Column(1).(*array.String)
	topic2 := rec.Column(2).(*array.String)
	topic3 := rec.Column(3).(*array.String)
	data := rec.Column(4).(*array.String)
	address := rec.Column(5).(*array.String)

	n := int(rec.NumRows())
	out := make([]*RawLog, n)
	for i := 0; i < n; i++ {
		row := &RawLog{}
		var err error
		if row.Topic0, err = optionalTopic(ctx, topic0, i); err != nil {
			return nil, err
		}
		if row.Topic1, err = optionalTopic(ctx, topic1, i); err != nil {
			return nil, err
		}
		if row.Topic2, err = optionalTopic(ctx, topic2, i); err != nil {
			return nil, err
		}
		if row.Topic3, err = optionalTopic(ctx, topic3, i); err != nil {
			return nil, err
		}
		b, err := parseHexBytes(ctx, data.Value(i))
		if err != nil {
			return nil, err
		}
		row.Data = b
		addr, err := ethtypes.NewAddress(address.Value(i))
		if err != nil {
			return nil, i18n.WrapError(ctx, err, etlmsgs.MsgInvalidABIJSON, address.Value(i), err)
		}
		row.Address = *addr
		out[i] = row
	}
	return out, nil
}

// ReadRawTraces converts one RawTraceSchema batch back into Go-native
// RawTrace values.
func ReadRawTraces(ctx context.Context, rec arrow.Record) ([]*RawTrace, error) {
	selector := rec.Column(0).(*array.String)
	actionInput := rec.Column(1).(*array.String)
	resultOutput := rec.Column(2).(*array.String)
	actionTo := rec.Column(3).(*array.String)

	n := int(rec.NumRows())
	out := make([]*RawTrace, n)
	for i := 0; i < n; i++ {
		row := &RawTrace{}
		sel, err := parseHexBytes(ctx, selector.Value(i))
		if err != nil {
			return nil, err
		}
		copy(row.Selector[:], sel)
		if row.ActionInput, err = parseHexBytes(ctx, actionInput.Value(i)); err != nil {
			return nil, err
		}
		if !resultOutput.IsNull(i) {
			if row.ResultOutput, err = parseHexBytes(ctx, resultOutput.Value(i)); err != nil {
				return nil, err
			}
		}
		addr, err := ethtypes.NewAddress(actionTo.Value(i))
		if err != nil {
			return nil, i18n.WrapError(ctx, err, etlmsgs.MsgInvalidABIJSON, actionTo.Value(i), err)
		}
		row.ActionTo = *addr
		out[i] = row
	}
	return out, nil
}

func optionalTopic(ctx context.Context, col *array.String, i int) (*ethtypes.HexBytes0xPrefix, error) {
	if col.IsNull(i) {
		return nil, nil
	}
	b, err := parseHexBytes(ctx, col.Value(i))
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func parseHexBytes(ctx context.Context, s string) (ethtypes.HexBytes0xPrefix, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, i18n.WrapError(ctx, err, etlmsgs.MsgInvalidABIJSON, s, err)
	}
	return ethtypes.HexBytes0xPrefix(b), nil
}
