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

package sigindex

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"os"

	"github.com/hyperledger/firefly-common/pkg/i18n"

	"github.com/evmetl/evmetl/internal/etlmsgs"
	"github.com/evmetl/evmetl/pkg/abi"
	"github.com/evmetl/evmetl/pkg/ethtypes"
)

// persistedRow is Row's on-disk JSON shape: the `abi` subcommand
// writes one of these per row, and `decode-logs`/`decode-traces` read
// them back unchanged rather than re-parsing the original ABI files -
// the index file is the artifact the CLI contract names (Section 6's
// "abi -d <index-file> -a <abi-folder>").
type persistedRow struct {
	Hash               string              `json:"hash"`
	IsFunctionSelector bool                `json:"is_function_selector"`
	CanonicalSignature string              `json:"canonical_signature"`
	FullSignature      string              `json:"full_signature"`
	Kind               abi.EntryType       `json:"kind"`
	Name               string              `json:"name"`
	Anonymous          bool                `json:"anonymous"`
	StateMutability    abi.StateMutability `json:"state_mutability"`
	NumIndexedArgs     int                 `json:"num_indexed_args"`
	Address            string              `json:"address"`
	ID                 string              `json:"id"`
	Inputs             abi.ParameterArray  `json:"inputs"`
	Outputs            abi.ParameterArray  `json:"outputs"`
}

// SaveIndex writes rows to path as a JSON array of persistedRow, the
// index-file artifact produced by the `abi` subcommand.
func SaveIndex(ctx context.Context, path string, rows []*Row) error {
	out := make([]persistedRow, len(rows))
	for i, r := range rows {
		out[i] = persistedRow{
			Hash:               hex.EncodeToString(r.Hash[:]),
			IsFunctionSelector: r.IsFunctionSelector,
			CanonicalSignature: r.CanonicalSignature,
			FullSignature:      r.FullSignature,
			Kind:               r.Kind,
			Name:               r.Name,
			Anonymous:          r.Anonymous,
			StateMutability:    r.StateMutability,
			NumIndexedArgs:     r.NumIndexedArgs,
			Address:            r.Address.String(),
			ID:                 r.ID,
			Inputs:             r.Inputs,
			Outputs:            r.Outputs,
		}
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return i18n.WrapError(ctx, err, etlmsgs.MsgWriteFileFailed, path)
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return i18n.WrapError(ctx, err, etlmsgs.MsgWriteFileFailed, path)
	}
	return nil
}

// LoadIndex reads an index file written by SaveIndex back into Row
// values, ready to pass to Build.
func LoadIndex(ctx context.Context, path string) ([]*Row, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, i18n.WrapError(ctx, err, etlmsgs.MsgReadFileFailed, path)
	}
	var in []persistedRow
	if err := json.Unmarshal(b, &in); err != nil {
		return nil, i18n.WrapError(ctx, err, etlmsgs.MsgInvalidABIJSON, path, err)
	}

	rows := make([]*Row, len(in))
	for i, p := range in {
		hashBytes, err := hex.DecodeString(p.Hash)
		if err != nil {
			return nil, i18n.WrapError(ctx, err, etlmsgs.MsgInvalidABIJSON, path, err)
		}
		var hash [32]byte
		copy(hash[:], hashBytes)

		addr, err := ethtypes.NewAddress(p.Address)
		if err != nil {
			return nil, i18n.WrapError(ctx, err, etlmsgs.MsgInvalidABIJSON, path, err)
		}

		rows[i] = &Row{
			Hash:               hash,
			IsFunctionSelector: p.IsFunctionSelector,
			CanonicalSignature: p.CanonicalSignature,
			FullSignature:      p.FullSignature,
			Kind:               p.Kind,
			Name:               p.Name,
			Anonymous:          p.Anonymous,
			StateMutability:    p.StateMutability,
			NumIndexedArgs:     p.NumIndexedArgs,
			Address:            *addr,
			ID:                 p.ID,
			Inputs:             p.Inputs,
			Outputs:            p.Outputs,
		}
	}
	return rows, nil
}
