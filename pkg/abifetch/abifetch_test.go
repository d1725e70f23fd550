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

package abifetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evmetl/evmetl/pkg/ethtypes"
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

func TestFetchABIAndIngest(t *testing.T) {
	addr, _ := ethtypes.NewAddress("0x000000000000000000000000000000000000000a")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, addr.String())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleABI))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	report := &sigindex.IngestReport{}
	rows, err := client.FetchAndIngest(context.Background(), *addr, sigindex.ReadBoth, report)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Transfer", rows[0].Name)
}

func TestFetchABIBadStatus(t *testing.T) {
	addr, _ := ethtypes.NewAddress("0x000000000000000000000000000000000000000b")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.FetchABI(context.Background(), *addr)
	assert.Error(t, err)
}
