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

package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evmetl/evmetl/pkg/sigindex"
)

const sampleABI = `[{
	"type": "event",
	"name": "Transfer",
	"inputs": [
		{"name": "from", "type": "address", "indexed": true},
		{"name": "to", "type": "address", "indexed": true},
		{"name": "value", "type": "uint256", "indexed": false}
	]
}]`

// TestAbiCommandWritesIndexFile runs the abi subcommand end to end
// against a scratch ABI folder and asserts the resulting index file
// round-trips back into the same rows via sigindex.LoadIndex.
func TestAbiCommandWritesIndexFile(t *testing.T) {
	dir := t.TempDir()
	abiFolder := filepath.Join(dir, "abis")
	require.NoError(t, os.Mkdir(abiFolder, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(abiFolder, "0x0000000000000000000000000000000000000001.json"), []byte(sampleABI), 0644))

	indexFile := filepath.Join(dir, "index.json")

	cmd := abiCommand()
	cmd.SetArgs([]string{"-d", indexFile, "-a", abiFolder})
	require.NoError(t, cmd.Execute())

	rows, err := sigindex.LoadIndex(context.Background(), indexFile)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Transfer", rows[0].Name)
}

func TestUniqueKeyFieldsFor(t *testing.T) {
	assert.Equal(t, []sigindex.UniqueKeyField{sigindex.KeyHash}, uniqueKeyFieldsFor("hash"))
	assert.Equal(t, []sigindex.UniqueKeyField{sigindex.KeyHash, sigindex.KeyAddress}, uniqueKeyFieldsFor("hash_address"))
	assert.Equal(t, []sigindex.UniqueKeyField{sigindex.KeyHash, sigindex.KeyAddress}, uniqueKeyFieldsFor(""))
}
