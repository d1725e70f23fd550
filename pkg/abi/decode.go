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

const slotSize = 32

// DecodedValue is one node of the decoded value tree, mirroring the
// shape of the TypeComponent that produced it. Elementary nodes carry a
// Go-native Value; array and tuple nodes carry Children instead.
type DecodedValue struct {
	Component *TypeComponent
	Value     interface{} // elementary nodes only
	Children  []*DecodedValue
}

// DecodeABIData decodes head/tail-encoded ABI data against an ordered
// list of top-level parameter types - the standard entry point for
// function inputs/outputs and non-indexed event parameters.
func DecodeABIData(ctx context.Context, data []byte, components []*TypeComponent) ([]*DecodedValue, error) {
	values := make([]*DecodedValue, len(components))
	headCursor := 0
	for i, tc := range components {
		dv, err := decodeHeadElement(ctx, data, 0, headCursor, tc)
		if err != nil {
			return nil, err
		}
		values[i] = dv
		headCursor += slotSize
	}
	return values, nil
}

// decodeHeadElement decodes the value found at the given head slot: for
// a dynamic type the head slot holds a byte offset to the tail data,
// resolved relative to base (the start of the region this head belongs
// to - the whole data for top-level parameters, a tuple's own start for
// tuple members); for a static type the value is inline in the head
// slot itself.
func decodeHeadElement(ctx context.Context, data []byte, base, headOffset int, tc *TypeComponent) (*DecodedValue, error) {
	if tc.IsDynamic() {
		offset, err := readOffset(ctx, data, headOffset)
		if err != nil {
			return nil, err
		}
		return decodeABIElement(ctx, data, base+int(offset), tc)
	}
	return decodeABIElement(ctx, data, headOffset, tc)
}

// decodeABIElement decodes the value of type tc located at byte offset
// pos within data - the shared entry point for elementary, array, and
// tuple nodes, and the recursive workhorse of the whole decoder.
func decodeABIElement(ctx context.Context, data []byte, pos int, tc *TypeComponent) (*DecodedValue, error) {
	switch tc.cType {
	case ElementaryComponent:
		return decodeElementary(ctx, data, pos, tc)
	case FixedArrayComponent:
		return decodeFixedArray(ctx, data, pos, tc)
	case DynamicArrayComponent:
		return decodeDynamicArray(ctx, data, pos, tc)
	case TupleComponent:
		return decodeTuple(ctx, data, pos, tc)
	default:
		return nil, i18n.NewError(ctx, etlmsgs.MsgMalformedType, tc.CanonicalType())
	}
}

func requireBytes(ctx context.Context, data []byte, offset, length int) ([]byte, error) {
	if offset < 0 || length < 0 || offset+length > len(data) {
		return nil, Tag(ErrUnexpectedEndOfBuffer, i18n.NewError(ctx, etlmsgs.MsgABIDataTooShort, length, offset, len(data)))
	}
	return data[offset : offset+length], nil
}

func readSlot(ctx context.Context, data []byte, offset int) ([]byte, error) {
	return requireBytes(ctx, data, offset, slotSize)
}

// readOffset reads a 32-byte slot as a dynamic-type tail offset.
func readOffset(ctx context.Context, data []byte, offset int) (uint64, error) {
	slot, err := readSlot(ctx, data, offset)
	if err != nil {
		return 0, err
	}
	v := ParseInt256TwosComplementBytes(slot)
	if v.Sign() < 0 || !v.IsUint64() {
		return 0, Tag(ErrInvalidOffset, i18n.NewError(ctx, etlmsgs.MsgABIOffsetOutOfRange, v, len(data)))
	}
	return v.Uint64(), nil
}

// readLength reads a 32-byte slot as a dynamic bytes/string/array length.
func readLength(ctx context.Context, data []byte, offset int) (uint64, error) {
	slot, err := readSlot(ctx, data, offset)
	if err != nil {
		return 0, err
	}
	v := ParseInt256TwosComplementBytes(slot)
	if v.Sign() < 0 || !v.IsUint64() {
		return 0, Tag(ErrIntegerOverflow, i18n.NewError(ctx, etlmsgs.MsgABILengthOutOfRange, v, len(data)))
	}
	return v.Uint64(), nil
}

func decodeElementary(ctx context.Context, data []byte, pos int, tc *TypeComponent) (*DecodedValue, error) {
	switch tc.kind {
	case KindAddress:
		slot, err := readSlot(ctx, data, pos)
		if err != nil {
			return nil, err
		}
		var addr [20]byte
		copy(addr[:], slot[12:])
		return &DecodedValue{Component: tc, Value: addr}, nil

	case KindBool:
		slot, err := readSlot(ctx, data, pos)
		if err != nil {
			return nil, err
		}
		return &DecodedValue{Component: tc, Value: slot[31] != 0}, nil

	case KindUint:
		slot, err := readSlot(ctx, data, pos)
		if err != nil {
			return nil, err
		}
		v := new(big.Int).SetBytes(slot)
		return &DecodedValue{Component: tc, Value: v}, nil

	case KindInt:
		slot, err := readSlot(ctx, data, pos)
		if err != nil {
			return nil, err
		}
		v := ParseInt256TwosComplementBytes(slot)
		return &DecodedValue{Component: tc, Value: v}, nil

	case KindFunction:
		slot, err := readSlot(ctx, data, pos)
		if err != nil {
			return nil, err
		}
		var fn [24]byte
		copy(fn[:], slot[:24])
		return &DecodedValue{Component: tc, Value: fn}, nil

	case KindBytes:
		if tc.suffix != "" {
			// fixed bytesN: left-aligned within the 32 byte slot
			slot, err := readSlot(ctx, data, pos)
			if err != nil {
				return nil, err
			}
			n := int(tc.m)
			b := make([]byte, n)
			copy(b, slot[:n])
			return &DecodedValue{Component: tc, Value: b}, nil
		}
		b, err := decodeDynamicBytes(ctx, data, pos)
		if err != nil {
			return nil, err
		}
		return &DecodedValue{Component: tc, Value: b}, nil

	case KindString:
		b, err := decodeDynamicBytes(ctx, data, pos)
		if err != nil {
			return nil, err
		}
		return &DecodedValue{Component: tc, Value: string(b)}, nil

	default:
		return nil, i18n.NewError(ctx, etlmsgs.MsgUnsupportedElementaryType, string(tc.kind), tc.CanonicalType())
	}
}

// decodeDynamicBytes reads a length-prefixed, 32-byte-padded byte
// string: a single length slot followed by ceil(length/32) data slots.
func decodeDynamicBytes(ctx context.Context, data []byte, pos int) ([]byte, error) {
	length, err := readLength(ctx, data, pos)
	if err != nil {
		return nil, err
	}
	return requireBytes(ctx, data, pos+slotSize, int(length))
}

func decodeFixedArray(ctx context.Context, data []byte, pos int, tc *TypeComponent) (*DecodedValue, error) {
	children := make([]*DecodedValue, tc.arrayLength)
	if !tc.arrayChild.IsDynamic() {
		elemSize := staticSize(tc.arrayChild)
		for i := 0; i < int(tc.arrayLength); i++ {
			dv, err := decodeABIElement(ctx, data, pos+i*elemSize, tc.arrayChild)
			if err != nil {
				return nil, err
			}
			children[i] = dv
		}
		return &DecodedValue{Component: tc, Children: children}, nil
	}
	// each element of a dynamic-child fixed array has its own head
	// slot holding an offset, relative to the start of this array's tail.
	for i := 0; i < int(tc.arrayLength); i++ {
		offset, err := readOffset(ctx, data, pos+i*slotSize)
		if err != nil {
			return nil, err
		}
		dv, err := decodeABIElement(ctx, data, pos+int(offset), tc.arrayChild)
		if err != nil {
			return nil, err
		}
		children[i] = dv
	}
	return &DecodedValue{Component: tc, Children: children}, nil
}

func decodeDynamicArray(ctx context.Context, data []byte, pos int, tc *TypeComponent) (*DecodedValue, error) {
	length, err := readLength(ctx, data, pos)
	if err != nil {
		return nil, err
	}
	elemsStart := pos + slotSize
	children := make([]*DecodedValue, length)
	if !tc.arrayChild.IsDynamic() {
		elemSize := staticSize(tc.arrayChild)
		for i := 0; i < int(length); i++ {
			dv, err := decodeABIElement(ctx, data, elemsStart+i*elemSize, tc.arrayChild)
			if err != nil {
				return nil, err
			}
			children[i] = dv
		}
		return &DecodedValue{Component: tc, Children: children}, nil
	}
	for i := 0; i < int(length); i++ {
		offset, err := readOffset(ctx, data, elemsStart+i*slotSize)
		if err != nil {
			return nil, err
		}
		dv, err := decodeABIElement(ctx, data, elemsStart+int(offset), tc.arrayChild)
		if err != nil {
			return nil, err
		}
		children[i] = dv
	}
	return &DecodedValue{Component: tc, Children: children}, nil
}

func decodeTuple(ctx context.Context, data []byte, pos int, tc *TypeComponent) (*DecodedValue, error) {
	children := make([]*DecodedValue, len(tc.tupleChildren))
	headCursor := pos
	for i, child := range tc.tupleChildren {
		dv, err := decodeHeadElement(ctx, data, pos, headCursor, child)
		if err != nil {
			return nil, err
		}
		children[i] = dv
		headCursor += slotSize
	}
	return &DecodedValue{Component: tc, Children: children}, nil
}

// staticSize returns the fixed number of bytes a static (non-dynamic)
// type occupies inline - every elementary type and fixed array/tuple of
// statics occupies a whole number of 32-byte slots.
func staticSize(tc *TypeComponent) int {
	switch tc.cType {
	case ElementaryComponent:
		return slotSize
	case FixedArrayComponent:
		return int(tc.arrayLength) * staticSize(tc.arrayChild)
	case TupleComponent:
		total := 0
		for _, c := range tc.tupleChildren {
			total += staticSize(c)
		}
		return total
	default:
		return slotSize
	}
}
