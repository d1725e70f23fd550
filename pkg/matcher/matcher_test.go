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

package matcher

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/evmetl/evmetl/pkg/ethtypes"
	"github.com/evmetl/evmetl/pkg/records"
	"github.com/evmetl/evmetl/pkg/sigindex"
)

const transferTopic0Hex = "ddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"

func rowWithSig(hashHex, canonical string, addr string) *sigindex.Row {
	var hash [32]byte
	copy(hash[:], mustHexDecode(hashHex))
	a, _ := ethtypes.NewAddress(addr)
	return &sigindex.Row{
		Hash:               hash,
		CanonicalSignature: canonical,
		FullSignature:      "event " + canonical,
		Address:            *a,
	}
}

func contractAddr(group byte, i int) string {
	var b [20]byte
	b[0] = group
	b[19] = byte(i)
	return "0x" + hex.EncodeToString(b[:])
}

func mustHexDecode(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

func TestMatchHashAddressMiss(t *testing.T) {
	ctx := context.Background()

	idx := sigindex.Build([]*sigindex.Row{
		rowWithSig(transferTopic0Hex, "A(uint256)", "0x000000000000000000000000000000000000000a"),
	}, []sigindex.UniqueKeyField{sigindex.KeyHash, sigindex.KeyFullSignature, sigindex.KeyAddress})

	addrOther, _ := ethtypes.NewAddress("0x0000000000000000000000000000000000000b0b")
	topicHash := ethtypes.HexBytes0xPrefix(mustHexDecode(transferTopic0Hex))
	log := &records.RawLog{
		Topic0:  &topicHash,
		Address: *addrOther,
	}

	matched, err := Match(ctx, idx, LogKeys([]*records.RawLog{log}), AlgorithmHashAddress)
	assert.NoError(t, err)
	assert.Len(t, matched, 1)
	assert.Nil(t, matched[0])
}

func TestMatchHashMajorityVote(t *testing.T) {
	ctx := context.Background()

	var rows []*sigindex.Row
	for i := 0; i < 10; i++ {
		rows = append(rows, rowWithSig(transferTopic0Hex, "A(uint256)", contractAddr(0xaa, i)))
	}
	for i := 0; i < 3; i++ {
		rows = append(rows, rowWithSig(transferTopic0Hex, "B(uint256)", contractAddr(0xbb, i)))
	}
	idx := sigindex.Build(rows, []sigindex.UniqueKeyField{sigindex.KeyHash, sigindex.KeyFullSignature, sigindex.KeyAddress})

	addrOther, _ := ethtypes.NewAddress("0x00000000000000000000000000000000000000ff")
	topicHash := ethtypes.HexBytes0xPrefix(mustHexDecode(transferTopic0Hex))
	log := &records.RawLog{Topic0: &topicHash, Address: *addrOther}

	matched, err := Match(ctx, idx, LogKeys([]*records.RawLog{log}), AlgorithmHash)
	assert.NoError(t, err)
	assert.NotNil(t, matched[0])
	assert.Equal(t, "A(uint256)", matched[0].CanonicalSignature)
}
