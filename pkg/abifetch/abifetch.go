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

// Package abifetch fetches one contract's ABI JSON from an HTTP
// registry by address, feeding the result into the same
// pkg/sigindex.IngestBlob path used for local files - the one network
// I/O suspension point in the pipeline (Section 5).
package abifetch

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/log"

	"github.com/evmetl/evmetl/internal/etlmsgs"
	"github.com/evmetl/evmetl/pkg/ethtypes"
	"github.com/evmetl/evmetl/pkg/sigindex"
)

// Client fetches ABI JSON documents from a registry over HTTP.
type Client struct {
	resty   *resty.Client
	baseURL string
}

// NewClient constructs a Client against a registry base URL - the
// registry is expected to serve a contract's ABI JSON at
// "<baseURL>/<address>".
func NewClient(baseURL string) *Client {
	return &Client{
		resty:   resty.New(),
		baseURL: baseURL,
	}
}

// FetchABI retrieves the raw ABI JSON body for one contract address.
func (c *Client) FetchABI(ctx context.Context, addr ethtypes.Address0xHex) ([]byte, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, addr.String())
	log.L(ctx).Debugf("Fetching ABI for %s from %s", addr, url)

	res, err := c.resty.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, i18n.WrapError(ctx, err, etlmsgs.MsgABIFetchRequestFailed, addr.String())
	}
	if res.IsError() {
		return nil, i18n.NewError(ctx, etlmsgs.MsgABIFetchBadStatus, res.StatusCode(), addr.String())
	}
	log.L(ctx).Infof("Fetched ABI for %s (%d bytes)", addr, len(res.Body()))
	return res.Body(), nil
}

// FetchAndIngest fetches one contract's ABI and ingests it into rows
// via the same path local ABI files take, so the registry and folder
// ABI sources are indistinguishable to the rest of the pipeline.
func (c *Client) FetchAndIngest(ctx context.Context, addr ethtypes.Address0xHex, mode sigindex.ReadMode, report *sigindex.IngestReport) ([]*sigindex.Row, error) {
	b, err := c.FetchABI(ctx, addr)
	if err != nil {
		return nil, err
	}
	return sigindex.IngestBlob(ctx, addr, b, mode, report)
}
