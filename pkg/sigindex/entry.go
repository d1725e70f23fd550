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

// Package sigindex ingests contract ABI files into a queryable
// signature index: the hash/full-signature/contract-address table the
// matcher joins raw records against.
package sigindex

import (
	"encoding/hex"
	"fmt"

	"github.com/evmetl/evmetl/pkg/abi"
	"github.com/evmetl/evmetl/pkg/ethtypes"
)

// ReadMode filters which kinds of ABI item are ingested.
type ReadMode string

const (
	ReadEvents    ReadMode = "events"
	ReadFunctions ReadMode = "functions"
	ReadBoth      ReadMode = "both"
)

// UniqueKeyField names a column that can participate in the ingester's
// deduplication key.
type UniqueKeyField string

const (
	KeyHash          UniqueKeyField = "hash"
	KeyFullSignature UniqueKeyField = "full_signature"
	KeyAddress       UniqueKeyField = "address"
)

// Row is one signature index row: one per (hash, full_signature,
// contract address) triple, Section 3's declared unique key.
type Row struct {
	Hash              [32]byte // only the first 4 bytes are meaningful for functions
	IsFunctionSelector bool    // true if Hash should be compared as a 4-byte selector
	CanonicalSignature string
	FullSignature     string
	Kind              abi.EntryType
	Name              string
	Anonymous         bool
	StateMutability   abi.StateMutability
	NumIndexedArgs    int
	Address           ethtypes.Address0xHex
	ID                string

	Inputs  abi.ParameterArray
	Outputs abi.ParameterArray
}

// HashHex returns the row's hash rendered as the canonical hex key used
// for lookups: the full 32-byte topic hex for events, the 4-byte
// selector hex for functions.
func (r *Row) HashHex() string {
	if r.IsFunctionSelector {
		return "0x" + hex.EncodeToString(r.Hash[:4])
	}
	return "0x" + hex.EncodeToString(r.Hash[:])
}

// uniqueKeyValue returns the value of this row for a given key field,
// used to build the ingester's dedup key tuple.
func (r *Row) uniqueKeyValue(field UniqueKeyField) string {
	switch field {
	case KeyHash:
		return r.HashHex()
	case KeyFullSignature:
		return r.FullSignature
	case KeyAddress:
		return r.Address.String()
	default:
		return ""
	}
}

// UniqueKey builds the composite dedup key string for this row over
// the configured subset of fields, in a stable field order regardless
// of the order fields were listed in configuration.
func (r *Row) UniqueKey(fields []UniqueKeyField) string {
	key := ""
	for _, f := range []UniqueKeyField{KeyHash, KeyFullSignature, KeyAddress} {
		if containsField(fields, f) {
			key += string(f) + "=" + r.uniqueKeyValue(f) + ";"
		}
	}
	return key
}

func containsField(fields []UniqueKeyField, f UniqueKeyField) bool {
	for _, x := range fields {
		if x == f {
			return true
		}
	}
	return false
}

// buildFullSignature renders the human-readable "event Name(type
// indexed? name, ...)" / "function Name(type name, ...)" form used for
// the full_signature column; outputs are not included.
func buildFullSignature(e *abi.Entry, trees []*abiTypeTreePair) string {
	kindWord := "function"
	if e.Type == abi.Event {
		kindWord = "event"
	}
	parts := make([]string, len(trees))
	for i, p := range trees {
		indexed := ""
		if e.Type == abi.Event && p.param.Indexed {
			indexed = "indexed "
		}
		name := p.param.Name
		parts[i] = fmt.Sprintf("%s %s%s", p.tree.CanonicalType(), indexed, name)
	}
	sig := fmt.Sprintf("%s %s(%s)", kindWord, e.Name, joinComma(parts))
	return sig
}

type abiTypeTreePair struct {
	param *abi.Parameter
	tree  *abi.TypeComponent
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
