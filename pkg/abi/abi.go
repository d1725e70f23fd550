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
	"encoding/json"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/hyperledger/firefly-common/pkg/i18n"

	"github.com/evmetl/evmetl/internal/etlmsgs"
)

// EntryType is the JSON ABI "type" discriminator at the top level.
type EntryType string

const (
	Function    EntryType = "function"
	Constructor EntryType = "constructor"
	Fallback    EntryType = "fallback"
	Receive     EntryType = "receive"
	Event       EntryType = "event"
	Error       EntryType = "error"
)

// StateMutability is the JSON ABI "stateMutability" field of a function.
type StateMutability string

const (
	Pure       StateMutability = "pure"
	View       StateMutability = "view"
	NonPayable StateMutability = "nonpayable"
	Payable    StateMutability = "payable"
)

// Parameter is one entry of a JSON ABI "inputs"/"outputs" array.
type Parameter struct {
	Name         string       `json:"name"`
	Type         string       `json:"type"`
	InternalType string       `json:"internalType,omitempty"`
	Components   []*Parameter `json:"components,omitempty"`
	Indexed      bool         `json:"indexed,omitempty"`

	parsed *TypeComponent
}

// ParameterArray is an ordered list of Parameter, as used for both
// "inputs" and "outputs".
type ParameterArray []*Parameter

// Entry is one item of a JSON ABI array: a function, event, error or
// constructor/fallback/receive declaration.
type Entry struct {
	Type            EntryType       `json:"type"`
	Name            string          `json:"name,omitempty"`
	Payable         bool            `json:"payable,omitempty"`
	Constant        bool            `json:"constant,omitempty"`
	Anonymous       bool            `json:"anonymous,omitempty"`
	StateMutability StateMutability `json:"stateMutability,omitempty"`
	Inputs          ParameterArray  `json:"inputs,omitempty"`
	Outputs         ParameterArray  `json:"outputs,omitempty"`
}

// ABI is a full contract ABI: an ordered list of entries, exactly as
// it appears in the JSON source file.
type ABI []*Entry

// ParseJSON parses a single JSON ABI document (a top-level array of
// entries) into an ABI value.
func ParseJSON(ctx context.Context, source string, b []byte) (ABI, error) {
	var a ABI
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, i18n.WrapError(ctx, err, etlmsgs.MsgInvalidABIJSON, source, err)
	}
	return a, nil
}

// TypeTree lazily parses and caches this parameter's TypeComponent tree.
func (p *Parameter) TypeTree(ctx context.Context) (*TypeComponent, error) {
	if p.parsed != nil {
		return p.parsed, nil
	}
	var children []*TypeComponent
	if strings.HasPrefix(p.Type, "tuple") {
		for _, c := range p.Components {
			ct, err := c.TypeTree(ctx)
			if err != nil {
				return nil, err
			}
			children = append(children, ct)
		}
	}
	tc, err := ParseType(ctx, p.Type, children)
	if err != nil {
		return nil, err
	}
	tc.name = p.Name
	tc.indexed = p.Indexed
	p.parsed = tc
	return tc, nil
}

// TypeTrees parses every parameter in the array in order.
func (params ParameterArray) TypeTrees(ctx context.Context) ([]*TypeComponent, error) {
	trees := make([]*TypeComponent, len(params))
	for i, p := range params {
		tc, err := p.TypeTree(ctx)
		if err != nil {
			return nil, err
		}
		trees[i] = tc
	}
	return trees, nil
}

// CanonicalSignature builds the canonical "name(type1,type2,...)" form
// used to compute the 4-byte function selector / 32-byte event topic0:
// no parameter names, no "indexed" keyword, every width explicit.
func (e *Entry) CanonicalSignature(ctx context.Context) (string, error) {
	trees, err := e.Inputs.TypeTrees(ctx)
	if err != nil {
		return "", err
	}
	buf := new(strings.Builder)
	buf.WriteString(e.Name)
	buf.WriteByte('(')
	for i, tc := range trees {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(tc.CanonicalType())
	}
	buf.WriteByte(')')
	return buf.String(), nil
}

// Keccak256 computes the Keccak-256 digest of b. This is the EVM's
// native hash - not SHA3-256 (the NIST padding-finalized variant).
func Keccak256(b []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(b)
	return h.Sum(nil)
}

// SignatureHash returns the full 32-byte Keccak-256 hash of the
// canonical signature. For an event this is topic0; for a function or
// error the first 4 bytes are the selector (see Selector).
func (e *Entry) SignatureHash(ctx context.Context) ([]byte, error) {
	sig, err := e.CanonicalSignature(ctx)
	if err != nil {
		return nil, err
	}
	return Keccak256([]byte(sig)), nil
}

// Selector returns the 4-byte function/error selector: the first 4
// bytes of SignatureHash.
func (e *Entry) Selector(ctx context.Context) ([4]byte, error) {
	var sel [4]byte
	h, err := e.SignatureHash(ctx)
	if err != nil {
		return sel, err
	}
	copy(sel[:], h[:4])
	return sel, nil
}

// Topic0 returns the full 32-byte event topic hash.
func (e *Entry) Topic0(ctx context.Context) ([32]byte, error) {
	var t [32]byte
	h, err := e.SignatureHash(ctx)
	if err != nil {
		return t, err
	}
	copy(t[:], h)
	return t, nil
}
