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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evmetl/evmetl/pkg/ethtypes"
)

const transferEventABI = `[{
	"type": "event",
	"name": "Transfer",
	"inputs": [
		{"name": "from", "type": "address", "indexed": true},
		{"name": "to", "type": "address", "indexed": true},
		{"name": "value", "type": "uint256", "indexed": false}
	]
}]`

const anonymousEventABI = `[{
	"type": "event",
	"name": "Hidden",
	"anonymous": true,
	"inputs": [{"name": "x", "type": "uint256", "indexed": false}]
}]`

func transferRow(t *testing.T) (*Row, ethtypes.Address0xHex) {
	t.Helper()
	addr, err := ethtypes.NewAddress("0x00000000000000000000000000000000000000aa")
	require.NoError(t, err)
	report := &IngestReport{}
	rows, err := IngestBlob(context.Background(), *addr, []byte(transferEventABI), ReadBoth, report)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	return rows[0], *addr
}

func TestIngestBlobAnonymousEventSkipped(t *testing.T) {
	addr, err := ethtypes.NewAddress("0x00000000000000000000000000000000000000aa")
	require.NoError(t, err)
	report := &IngestReport{}
	rows, err := IngestBlob(context.Background(), *addr, []byte(anonymousEventABI), ReadBoth, report)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, 1, report.ItemsSkipped)
}

func TestIngestBlobReadModeFilter(t *testing.T) {
	addr, err := ethtypes.NewAddress("0x00000000000000000000000000000000000000aa")
	require.NoError(t, err)

	report := &IngestReport{}
	rows, err := IngestBlob(context.Background(), *addr, []byte(transferEventABI), ReadFunctions, report)
	require.NoError(t, err)
	assert.Empty(t, rows)

	report2 := &IngestReport{}
	rows2, err := IngestBlob(context.Background(), *addr, []byte(transferEventABI), ReadEvents, report2)
	require.NoError(t, err)
	assert.Len(t, rows2, 1)
}

func TestIngestFileRejectsNonHexStem(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "not-an-address.json")
	require.NoError(t, os.WriteFile(path, []byte(transferEventABI), 0644))

	report := &IngestReport{}
	_, err := IngestFile(context.Background(), path, ReadBoth, report)
	assert.Error(t, err)
}

func TestIngestFolderSkipsBadFilesButContinues(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0x0000000000000000000000000000000000000001.json"), []byte(transferEventABI), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad-name.json"), []byte(transferEventABI), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0x0000000000000000000000000000000000000002.json"), []byte(`not json`), 0644))

	report := &IngestReport{}
	rows, err := IngestFolder(context.Background(), dir, ReadBoth, report)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 3, report.FilesScanned)
	assert.Equal(t, 2, report.FilesSkipped)
	assert.NotEmpty(t, report.Warnings)
}

func TestBuildAndLookup(t *testing.T) {
	row, addr := transferRow(t)
	idx := Build([]*Row{row}, []UniqueKeyField{KeyHash, KeyAddress})

	assert.Equal(t, 1, idx.Len())
	assert.Len(t, idx.LookupByHash(row.HashHex()), 1)
	assert.Equal(t, row, idx.LookupByHashAddress(row.HashHex(), addr.String()))
	assert.Nil(t, idx.LookupByHashAddress(row.HashHex(), "0x00000000000000000000000000000000000000ff"))
	assert.Equal(t, row, idx.LookupMajority(row.HashHex()))
	assert.Nil(t, idx.LookupMajority("0xdeadbeef"))
}

func TestBuildDedupLastWriterWins(t *testing.T) {
	row, addr := transferRow(t)
	row2 := *row
	row2.StateMutability = "view"

	idx := Build([]*Row{row, &row2}, []UniqueKeyField{KeyHash, KeyAddress})
	require.Equal(t, 1, idx.Len())
	assert.Equal(t, "view", idx.Rows()[0].StateMutability)
	_ = addr
}

func TestSaveAndLoadIndexRoundTrip(t *testing.T) {
	row, _ := transferRow(t)
	path := filepath.Join(t.TempDir(), "index.json")

	require.NoError(t, SaveIndex(context.Background(), path, []*Row{row}))

	loaded, err := LoadIndex(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	got := loaded[0]
	assert.Equal(t, row.Hash, got.Hash)
	assert.Equal(t, row.HashHex(), got.HashHex())
	assert.Equal(t, row.IsFunctionSelector, got.IsFunctionSelector)
	assert.Equal(t, row.CanonicalSignature, got.CanonicalSignature)
	assert.Equal(t, row.FullSignature, got.FullSignature)
	assert.Equal(t, row.Name, got.Name)
	assert.Equal(t, row.Address.String(), got.Address.String())
	assert.Equal(t, row.NumIndexedArgs, got.NumIndexedArgs)
	require.Len(t, got.Inputs, 3)
	assert.Equal(t, "from", got.Inputs[0].Name)
}

func TestLoadIndexRejectsBadHashHex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"hash":"not-hex","address":"0x00000000000000000000000000000000000000aa"}]`), 0644))

	_, err := LoadIndex(context.Background(), path)
	assert.Error(t, err)
}
