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

// Package abi implements the Solidity ABI type grammar, canonical
// signature generation, Keccak hashing, and the ABI head/tail codec -
// independently of any runtime-reflection based ABI library.
package abi

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hyperledger/firefly-common/pkg/i18n"

	"github.com/evmetl/evmetl/internal/etlmsgs"
)

// ComponentType classifies a node of the type tree.
type ComponentType int

const (
	ElementaryComponent ComponentType = iota
	FixedArrayComponent
	DynamicArrayComponent
	TupleComponent
)

func (ct ComponentType) String() string {
	switch ct {
	case ElementaryComponent:
		return "elementary"
	case FixedArrayComponent:
		return "fixed-array"
	case DynamicArrayComponent:
		return "dynamic-array"
	case TupleComponent:
		return "tuple"
	default:
		return "unknown"
	}
}

// ElementaryKind is the alphabetic prefix of an elementary Solidity type.
type ElementaryKind string

const (
	KindInt      ElementaryKind = "int"
	KindUint     ElementaryKind = "uint"
	KindAddress  ElementaryKind = "address"
	KindBool     ElementaryKind = "bool"
	KindBytes    ElementaryKind = "bytes" // both "bytes" (dynamic) and "bytesN" (fixed)
	KindString   ElementaryKind = "string"
	KindFunction ElementaryKind = "function"
	KindTuple    ElementaryKind = "tuple" // only used during parsing, never appears in a built tree
)

type suffixRule int

const (
	suffixNone     suffixRule = iota // no suffix possible: address, bool, string
	suffixMOptional                  // bytes / bytesN - N optional, defaults to dynamic
	suffixMRequired                  // uintN / intN - N required
)

type elementaryRule struct {
	kind          ElementaryKind
	suffix        suffixRule
	defaultSuffix string
	mMin, mMax    uint16
	mMod          uint16
}

var elementaryRules = map[string]*elementaryRule{
	"int":      {kind: KindInt, suffix: suffixMRequired, defaultSuffix: "256", mMin: 8, mMax: 256, mMod: 8},
	"uint":     {kind: KindUint, suffix: suffixMRequired, defaultSuffix: "256", mMin: 8, mMax: 256, mMod: 8},
	"address":  {kind: KindAddress, suffix: suffixNone},
	"bool":     {kind: KindBool, suffix: suffixNone},
	"bytes":    {kind: KindBytes, suffix: suffixMOptional, mMin: 1, mMax: 32},
	"string":   {kind: KindString, suffix: suffixNone},
	"function": {kind: KindFunction, suffix: suffixNone},
}

// TypeComponent is one node of the parsed type tree of a Solidity type
// string. It models the type recursively all the way down through array
// dimensions and tuple members, rather than stopping at the top-level
// parameter - so decoding is a plain depth-first walk of this tree.
type TypeComponent struct {
	cType ComponentType

	// ElementaryComponent
	kind   ElementaryKind
	suffix string // the raw suffix text, e.g. "256" for uint256, "" for address
	m      uint16 // width in bits (intN/uintN) or bytes (bytesN); 0 for dynamic bytes/string

	// FixedArrayComponent / DynamicArrayComponent
	arrayLength uint32 // > 0 only for FixedArrayComponent
	arrayChild  *TypeComponent

	// TupleComponent
	name          string // parameter name, not part of the signature
	indexed       bool   // events only
	tupleChildren []*TypeComponent
}

func (tc *TypeComponent) ComponentType() ComponentType { return tc.cType }
func (tc *TypeComponent) ElementaryKind() ElementaryKind { return tc.kind }
func (tc *TypeComponent) Width() uint16                  { return tc.m }
func (tc *TypeComponent) ArrayChild() *TypeComponent     { return tc.arrayChild }
func (tc *TypeComponent) ArrayLength() uint32            { return tc.arrayLength }
func (tc *TypeComponent) TupleChildren() []*TypeComponent { return tc.tupleChildren }
func (tc *TypeComponent) Name() string                   { return tc.name }
func (tc *TypeComponent) Indexed() bool                  { return tc.indexed }

// CanonicalType returns the canonical Solidity type string for this node,
// e.g. "uint256", "(address,uint256)[]". No spaces are ever emitted, and
// widths are always explicit even where the source string left them implied.
func (tc *TypeComponent) CanonicalType() string {
	switch tc.cType {
	case ElementaryComponent:
		switch tc.kind {
		case KindUint, KindInt, KindBytes:
			if tc.suffix == "" {
				return string(tc.kind)
			}
			return string(tc.kind) + tc.suffix
		default:
			return string(tc.kind)
		}
	case FixedArrayComponent:
		return fmt.Sprintf("%s[%d]", tc.arrayChild.CanonicalType(), tc.arrayLength)
	case DynamicArrayComponent:
		return tc.arrayChild.CanonicalType() + "[]"
	case TupleComponent:
		buf := new(strings.Builder)
		buf.WriteByte('(')
		for i, child := range tc.tupleChildren {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(child.CanonicalType())
		}
		buf.WriteByte(')')
		return buf.String()
	default:
		return ""
	}
}

// IsDynamic reports whether the type requires head/tail (offset-indirected)
// encoding: strings, dynamic bytes, dynamic arrays, and any tuple or fixed
// array transitively containing one of those.
func (tc *TypeComponent) IsDynamic() bool {
	switch tc.cType {
	case ElementaryComponent:
		return (tc.kind == KindString) || (tc.kind == KindBytes && tc.suffix == "")
	case DynamicArrayComponent:
		return true
	case FixedArrayComponent:
		return tc.arrayChild.IsDynamic()
	case TupleComponent:
		for _, c := range tc.tupleChildren {
			if c.IsDynamic() {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// ParseType parses a Solidity type string, such as "uint256", "address[]",
// "uint256[3][]" or "tuple[2]", into a TypeComponent tree. A tuple is
// written with the base name "tuple" and its member types are passed in
// tupleComponents, as the JSON ABI format does. The parenthesised form
// "(address,uint256)" is not parsed and returns an error.
func ParseType(ctx context.Context, typeString string, tupleComponents []*TypeComponent) (*TypeComponent, error) {
	name := new(strings.Builder)
	pos := 0
	for ; pos < len(typeString); pos++ {
		r := typeString[pos]
		if r >= 'a' && r <= 'z' {
			name.WriteByte(r)
		} else {
			break
		}
	}
	kindStr := name.String()

	if kindStr == "tuple" {
		tc := &TypeComponent{cType: TupleComponent, tupleChildren: tupleComponents}
		suffix, arrays := splitSuffix(typeString, pos)
		if suffix != "" {
			return nil, i18n.NewError(ctx, etlmsgs.MsgMalformedType, typeString)
		}
		if arrays != "" {
			return parseArraySuffixes(ctx, typeString, tc, arrays)
		}
		return tc, nil
	}

	if kindStr == "byte" {
		kindStr = "bytes"
		suffix, arrays := splitSuffix(typeString, pos)
		if suffix != "" {
			return nil, i18n.NewError(ctx, etlmsgs.MsgMalformedType, typeString)
		}
		tc := &TypeComponent{cType: ElementaryComponent, kind: KindBytes, suffix: "1", m: 1}
		if arrays != "" {
			return parseArraySuffixes(ctx, typeString, tc, arrays)
		}
		return tc, nil
	}

	rule, ok := elementaryRules[kindStr]
	if !ok {
		return nil, i18n.NewError(ctx, etlmsgs.MsgUnsupportedElementaryType, kindStr, typeString)
	}
	suffix, arrays := splitSuffix(typeString, pos)
	if suffix == "" {
		suffix = rule.defaultSuffix
	}
	tc := &TypeComponent{cType: ElementaryComponent, kind: rule.kind, suffix: suffix}
	switch rule.suffix {
	case suffixNone:
		if suffix != "" {
			return nil, i18n.NewError(ctx, etlmsgs.MsgMalformedType, typeString)
		}
	case suffixMRequired:
		if suffix == "" {
			return nil, i18n.NewError(ctx, etlmsgs.MsgMalformedType, typeString)
		}
		if err := applyMSuffix(ctx, typeString, tc, rule, suffix); err != nil {
			return nil, err
		}
	case suffixMOptional:
		if suffix != "" {
			if err := applyMSuffix(ctx, typeString, tc, rule, suffix); err != nil {
				return nil, err
			}
		}
	}

	if arrays != "" {
		return parseArraySuffixes(ctx, typeString, tc, arrays)
	}
	return tc, nil
}

// splitSuffix splits "256[8][]" (starting at pos after "uint") into the
// suffix text ("256") and the array dimension text ("[8][]").
func splitSuffix(typeString string, pos int) (string, string) {
	suffix := new(strings.Builder)
	for ; pos < len(typeString) && typeString[pos] != '['; pos++ {
		suffix.WriteByte(typeString[pos])
	}
	return suffix.String(), typeString[pos:]
}

func applyMSuffix(ctx context.Context, typeString string, tc *TypeComponent, rule *elementaryRule, suffix string) error {
	val, err := strconv.ParseUint(suffix, 10, 16)
	if err != nil {
		return i18n.WrapError(ctx, err, etlmsgs.MsgMalformedType, typeString)
	}
	m := uint16(val)
	if m < rule.mMin || m > rule.mMax {
		return i18n.NewError(ctx, etlmsgs.MsgMalformedType, typeString)
	}
	if rule.mMod != 0 && (m%rule.mMod) != 0 {
		return i18n.NewError(ctx, etlmsgs.MsgMalformedType, typeString)
	}
	tc.m = m
	return nil
}

// parseArraySuffixes recursively wraps child in array dimensions, parsing
// right-to-left so that "T[3][]" is a dynamic array of fixed-3 arrays of T.
func parseArraySuffixes(ctx context.Context, typeString string, child *TypeComponent, suffix string) (*TypeComponent, error) {
	if len(suffix) == 0 || suffix[0] != '[' {
		return nil, i18n.NewError(ctx, etlmsgs.MsgMalformedType, typeString)
	}
	end := strings.IndexByte(suffix, ']')
	if end < 0 {
		return nil, i18n.NewError(ctx, etlmsgs.MsgMalformedType, typeString)
	}
	lenStr := suffix[1:end]
	var outer *TypeComponent
	if lenStr == "" {
		outer = &TypeComponent{cType: DynamicArrayComponent, arrayChild: child}
	} else {
		n, err := strconv.ParseUint(lenStr, 10, 32)
		if err != nil || n == 0 {
			return nil, i18n.NewError(ctx, etlmsgs.MsgMalformedType, typeString)
		}
		outer = &TypeComponent{cType: FixedArrayComponent, arrayChild: child, arrayLength: uint32(n)}
	}
	rest := suffix[end+1:]
	if rest == "" {
		return outer, nil
	}
	return parseArraySuffixes(ctx, typeString, outer, rest)
}
