// Copyright © 2022 Kaleido, Inc.
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

package abi

import (
	"context"
	"math/big"

	"github.com/hyperledger/firefly-common/pkg/i18n"

	"github.com/evmetl/evmetl/internal/etlmsgs"
)

// EncodeABIData encodes a list of top-level DecodedValue trees, using
// each value's own type, into head/tail-encoded ABI bytes. It
// exists so the decoder can be exercised with round-trip tests; the
// orchestrator itself never encodes.
func EncodeABIData(ctx context.Context, values []*DecodedValue) ([]byte, error) {
	heads := make([][]byte, len(values))
	tails := make([][]byte, len(values))
	for i, dv := range values {
		head, tail, err := encodeHeadElement(ctx, dv)
		if err != nil {
			return nil, err
		}
		heads[i] = head
		tails[i] = tail
	}

	headsLen := len(values) * slotSize

	out := make([]byte, 0, headsLen)
	tailOffset := headsLen
	var tailBytes []byte
	for i, dv := range values {
		if dv.Component.IsDynamic() {
			out = append(out, encodeUint(uint64(tailOffset))...)
			tailBytes = append(tailBytes, tails[i]...)
			tailOffset += len(tails[i])
		} else {
			out = append(out, heads[i]...)
		}
	}
	out = append(out, tailBytes...)
	return out, nil
}

// encodeHeadElement returns the bytes this value contributes to the
// head (its offset placeholder is computed by the caller for dynamic
// values) and, separately, the bytes it contributes to the tail.
func encodeHeadElement(ctx context.Context, dv *DecodedValue) (head []byte, tail []byte, err error) {
	if dv.Component.IsDynamic() {
		tail, err = encodeABIElement(ctx, dv)
		return nil, tail, err
	}
	head, err = encodeABIElement(ctx, dv)
	return head, nil, err
}

func encodeABIElement(ctx context.Context, dv *DecodedValue) ([]byte, error) {
	tc := dv.Component
	switch tc.cType {
	case ElementaryComponent:
		return encodeElementary(ctx, dv)
	case FixedArrayComponent:
		return encodeArrayBody(ctx, dv.Children, tc.arrayChild, false)
	case DynamicArrayComponent:
		lenPrefix := encodeUint(uint64(len(dv.Children)))
		body, err := encodeArrayBody(ctx, dv.Children, tc.arrayChild, true)
		if err != nil {
			return nil, err
		}
		return append(lenPrefix, body...), nil
	case TupleComponent:
		return encodeTupleBody(ctx, dv.Children)
	default:
		return nil, i18n.NewError(ctx, etlmsgs.MsgMalformedType, tc.CanonicalType())
	}
}

func encodeArrayBody(ctx context.Context, children []*DecodedValue, childType *TypeComponent, dynamicLengthPrefixed bool) ([]byte, error) {
	if !childType.IsDynamic() {
		var out []byte
		for _, c := range children {
			b, err := encodeABIElement(ctx, c)
			if err != nil {
				return nil, err
			}
			out = append(out, b...)
		}
		return out, nil
	}
	heads := make([][]byte, len(children))
	tails := make([][]byte, len(children))
	for i, c := range children {
		tailBytes, err := encodeABIElement(ctx, c)
		if err != nil {
			return nil, err
		}
		tails[i] = tailBytes
	}
	headsLen := len(children) * slotSize
	tailOffset := headsLen
	var out []byte
	var tailBytes []byte
	for i := range children {
		heads[i] = encodeUint(uint64(tailOffset))
		out = append(out, heads[i]...)
		tailBytes = append(tailBytes, tails[i]...)
		tailOffset += len(tails[i])
	}
	out = append(out, tailBytes...)
	return out, nil
}

func encodeTupleBody(ctx context.Context, children []*DecodedValue) ([]byte, error) {
	heads := make([][]byte, len(children))
	tails := make([][]byte, len(children))
	for i, c := range children {
		h, t, err := encodeHeadElement(ctx, c)
		if err != nil {
			return nil, err
		}
		heads[i] = h
		tails[i] = t
	}
	headsLen := len(children) * slotSize
	tailOffset := headsLen
	var out []byte
	var tailBytes []byte
	for i, c := range children {
		if c.Component.IsDynamic() {
			out = append(out, encodeUint(uint64(tailOffset))...)
			tailBytes = append(tailBytes, tails[i]...)
			tailOffset += len(tails[i])
		} else {
			out = append(out, heads[i]...)
		}
	}
	out = append(out, tailBytes...)
	return out, nil
}

func encodeElementary(ctx context.Context, dv *DecodedValue) ([]byte, error) {
	tc := dv.Component
	switch tc.kind {
	case KindAddress:
		addr, _ := dv.Value.([20]byte)
		slot := make([]byte, slotSize)
		copy(slot[12:], addr[:])
		return slot, nil

	case KindBool:
		b, _ := dv.Value.(bool)
		slot := make([]byte, slotSize)
		if b {
			slot[31] = 1
		}
		return slot, nil

	case KindUint:
		v, ok := dv.Value.(*big.Int)
		if !ok {
			return nil, i18n.NewError(ctx, etlmsgs.MsgMalformedType, tc.CanonicalType())
		}
		slot := make([]byte, slotSize)
		v.FillBytes(slot)
		return slot, nil

	case KindInt:
		v, ok := dv.Value.(*big.Int)
		if !ok {
			return nil, i18n.NewError(ctx, etlmsgs.MsgMalformedType, tc.CanonicalType())
		}
		return SerializeInt256TwosComplementBytes(v), nil

	case KindFunction:
		fn, _ := dv.Value.([24]byte)
		slot := make([]byte, slotSize)
		copy(slot[:24], fn[:])
		return slot, nil

	case KindBytes:
		b, _ := dv.Value.([]byte)
		if tc.suffix != "" {
			slot := make([]byte, slotSize)
			copy(slot, b)
			return slot, nil
		}
		return encodeDynamicBytes(b), nil

	case KindString:
		s, _ := dv.Value.(string)
		return encodeDynamicBytes([]byte(s)), nil

	default:
		return nil, i18n.NewError(ctx, etlmsgs.MsgUnsupportedElementaryType, string(tc.kind), tc.CanonicalType())
	}
}

// encodeDynamicBytes produces the length-prefixed, 32-byte padded
// encoding of a byte string or string value's UTF-8 bytes.
func encodeDynamicBytes(b []byte) []byte {
	out := encodeUint(uint64(len(b)))
	padded := len(b)
	if rem := padded % slotSize; rem != 0 {
		padded += slotSize - rem
	}
	slotBuf := make([]byte, padded)
	copy(slotBuf, b)
	return append(out, slotBuf...)
}

func encodeUint(v uint64) []byte {
	slot := make([]byte, slotSize)
	big.NewInt(0).SetUint64(v).FillBytes(slot)
	return slot
}
