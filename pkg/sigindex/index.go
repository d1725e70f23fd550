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
	"sort"
	"sync"
)

// SignatureIndex is the queryable signature index: a build-once,
// read-many table keyed by hash and by (hash, address), plus a
// precomputed majority-vote table for the "hash" matcher algorithm
// (Design Notes: "do not recompute per row"). It is immutable once
// Build returns - every field access after that point takes the read
// lock, so many matcher/decoder goroutines can share one pointer
// safely, mirroring 0xmhha-indexer-go's parser_registry.go registry
// shape.
type SignatureIndex struct {
	mu sync.RWMutex

	rows []*Row

	byHash        map[string][]*Row
	byHashAddress map[string]*Row
	majorityByHash map[string]*Row
}

// Build constructs a SignatureIndex from a flat slice of ingested rows,
// coalescing duplicates under uniqueKeyFields (last-write-wins within
// this build) and precomputing the majority-vote table.
func Build(rows []*Row, uniqueKeyFields []UniqueKeyField) *SignatureIndex {
	idx := &SignatureIndex{
		byHash:         make(map[string][]*Row),
		byHashAddress:  make(map[string]*Row),
		majorityByHash: make(map[string]*Row),
	}

	dedup := make(map[string]*Row, len(rows))
	order := make([]string, 0, len(rows))
	for _, r := range rows {
		key := r.UniqueKey(uniqueKeyFields)
		if _, exists := dedup[key]; !exists {
			order = append(order, key)
		}
		dedup[key] = r // last-writer-wins
	}
	idx.rows = make([]*Row, 0, len(order))
	for _, key := range order {
		idx.rows = append(idx.rows, dedup[key])
	}

	for _, r := range idx.rows {
		idx.byHash[r.HashHex()] = append(idx.byHash[r.HashHex()], r)
		idx.byHashAddress[r.HashHex()+"|"+r.Address.String()] = r
	}

	// Majority vote: group by hash, count occurrences of each distinct
	// canonical signature, pick the highest count with a lexicographic
	// tiebreak on the canonical signature string.
	for hash, candidates := range idx.byHash {
		counts := make(map[string]int)
		bySignature := make(map[string]*Row)
		for _, r := range candidates {
			counts[r.CanonicalSignature]++
			bySignature[r.CanonicalSignature] = r
		}
		signatures := make([]string, 0, len(counts))
		for sig := range counts {
			signatures = append(signatures, sig)
		}
		sort.Strings(signatures)

		best := signatures[0]
		for _, sig := range signatures[1:] {
			if counts[sig] > counts[best] {
				best = sig
			}
		}
		idx.majorityByHash[hash] = bySignature[best]
	}

	return idx
}

// Rows returns a defensive copy of all index rows.
func (idx *SignatureIndex) Rows() []*Row {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]*Row, len(idx.rows))
	copy(out, idx.rows)
	return out
}

// Len reports the number of rows in the index.
func (idx *SignatureIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.rows)
}

// LookupByHash returns every row sharing the given hash hex key.
func (idx *SignatureIndex) LookupByHash(hashHex string) []*Row {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.byHash[hashHex]
}

// LookupByHashAddress returns the row for an exact (hash, address)
// pair, or nil if there is none - the hash_address matcher's miss case.
func (idx *SignatureIndex) LookupByHashAddress(hashHex, address string) *Row {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.byHashAddress[hashHex+"|"+address]
}

// LookupMajority returns the precomputed majority-vote row for a hash,
// or nil if the hash is not in the index at all.
func (idx *SignatureIndex) LookupMajority(hashHex string) *Row {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.majorityByHash[hashHex]
}
