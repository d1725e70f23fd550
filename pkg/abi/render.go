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
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// ValueType is the render-time type tag attached to every decoded
// value - what event_json's "value_type" column and the typed-string
// render both key off. "indexed-hash" is the one tag with no
// corresponding TypeComponent kind: it marks an indexed dynamic-type
// event parameter that was never recovered, only its topic hash.
type ValueType string

const (
	ValueAddress     ValueType = "Address"
	ValueUint        ValueType = "Uint"
	ValueInt         ValueType = "Int"
	ValueBool        ValueType = "Bool"
	ValueBytes       ValueType = "Bytes"
	ValueString      ValueType = "String"
	ValueArray       ValueType = "Array"
	ValueTuple       ValueType = "Tuple"
	ValueIndexedHash ValueType = "indexed-hash"
)

// NamedValue is a fully rendered decoded value ready for the two output
// forms Section 4.4 requires: a typed-string render and a structured
// JSON object of {name, index, value_type, value}.
type NamedValue struct {
	Name      string      `json:"name"`
	Index     int         `json:"index"`
	ValueType ValueType   `json:"value_type"`
	Value     interface{} `json:"value"`
}

// walkOutput classifies dv's render-time ValueType and produces its
// JSON-safe Value - the single dispatch point shared by both render
// forms, mirroring the teacher's outputserialization.go walk shape.
func walkOutput(dv *DecodedValue) (ValueType, interface{}) {
	tc := dv.Component
	switch tc.cType {
	case ElementaryComponent:
		return walkElementary(dv)
	case FixedArrayComponent, DynamicArrayComponent:
		arr := make([]interface{}, len(dv.Children))
		for i, c := range dv.Children {
			_, v := walkOutput(c)
			arr[i] = v
		}
		return ValueArray, arr
	case TupleComponent:
		obj := make(map[string]interface{}, len(dv.Children))
		for i, c := range dv.Children {
			name := c.Component.name
			if name == "" {
				name = fmt.Sprintf("_%d", i)
			}
			_, v := walkOutput(c)
			obj[name] = v
		}
		return ValueTuple, obj
	default:
		return ValueString, nil
	}
}

func walkElementary(dv *DecodedValue) (ValueType, interface{}) {
	tc := dv.Component
	switch tc.kind {
	case KindAddress:
		addr, _ := dv.Value.([20]byte)
		return ValueAddress, "0x" + hex.EncodeToString(addr[:])
	case KindBool:
		b, _ := dv.Value.(bool)
		return ValueBool, b
	case KindUint:
		v, _ := dv.Value.(*big.Int)
		return ValueUint, v.String()
	case KindInt:
		v, _ := dv.Value.(*big.Int)
		return ValueInt, v.String()
	case KindBytes:
		b, _ := dv.Value.([]byte)
		return ValueBytes, "0x" + hex.EncodeToString(b)
	case KindString:
		s, _ := dv.Value.(string)
		return ValueString, s
	case KindFunction:
		fn, _ := dv.Value.([24]byte)
		return ValueBytes, "0x" + hex.EncodeToString(fn[:])
	default:
		return ValueString, nil
	}
}

// RenderJSON renders values as an ordered slice of NamedValue, suitable
// for serialization into the "event_json" column.
func RenderJSON(values []*DecodedValue) []*NamedValue {
	out := make([]*NamedValue, len(values))
	for i, dv := range values {
		vt, v := walkOutput(dv)
		name := dv.Component.name
		out[i] = &NamedValue{Name: name, Index: i, ValueType: vt, Value: v}
	}
	return out
}

// RenderTypedString renders a single decoded value as a human readable
// typed string, e.g. "Uint(1000000,256)", "Address(0xabc...)",
// "String(\"hello\")" - the form used for the "event_values" column.
func RenderTypedString(dv *DecodedValue) string {
	tc := dv.Component
	switch tc.cType {
	case ElementaryComponent:
		return renderElementaryTyped(dv)
	case FixedArrayComponent, DynamicArrayComponent:
		parts := make([]string, len(dv.Children))
		for i, c := range dv.Children {
			parts[i] = RenderTypedString(c)
		}
		return "Array[" + strings.Join(parts, ",") + "]"
	case TupleComponent:
		parts := make([]string, len(dv.Children))
		for i, c := range dv.Children {
			parts[i] = RenderTypedString(c)
		}
		return "Tuple(" + strings.Join(parts, ",") + ")"
	default:
		return ""
	}
}

func renderElementaryTyped(dv *DecodedValue) string {
	tc := dv.Component
	switch tc.kind {
	case KindAddress:
		addr, _ := dv.Value.([20]byte)
		return fmt.Sprintf("Address(0x%s)", hex.EncodeToString(addr[:]))
	case KindBool:
		b, _ := dv.Value.(bool)
		if b {
			return "Bool(True)"
		}
		return "Bool(False)"
	case KindUint:
		v, _ := dv.Value.(*big.Int)
		return fmt.Sprintf("Uint(%s,%d)", v.String(), tc.m)
	case KindInt:
		v, _ := dv.Value.(*big.Int)
		return fmt.Sprintf("Int(%s,%d)", v.String(), tc.m)
	case KindBytes:
		b, _ := dv.Value.([]byte)
		return fmt.Sprintf("Bytes(0x%s)", hex.EncodeToString(b))
	case KindString:
		s, _ := dv.Value.(string)
		return fmt.Sprintf("String(%q)", s)
	case KindFunction:
		fn, _ := dv.Value.([24]byte)
		return fmt.Sprintf("Bytes(0x%s)", hex.EncodeToString(fn[:]))
	default:
		return ""
	}
}

// IndexedHash renders an indexed dynamic-type event parameter that was
// never recovered from its topic - only the 32-byte hash is available.
func IndexedHash(name string, index int, topic [32]byte) *NamedValue {
	return &NamedValue{
		Name:      name,
		Index:     index,
		ValueType: ValueIndexedHash,
		Value:     "0x" + hex.EncodeToString(topic[:]),
	}
}
