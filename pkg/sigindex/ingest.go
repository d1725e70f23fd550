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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/log"

	"github.com/evmetl/evmetl/internal/etlmsgs"
	"github.com/evmetl/evmetl/pkg/abi"
	"github.com/evmetl/evmetl/pkg/ethtypes"
)

// hexAddressStem matches a file stem of "0x" + 40 hex chars,
// case-insensitive - the contract-address naming convention folder
// mode expects (Section 4.3).
var hexAddressStem = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// IngestReport aggregates the warnings and counters produced by a
// single ingestion run, so the CLI can log one summary rather than one
// line per skipped file (Section 7's "per-file warnings" rule).
type IngestReport struct {
	FilesScanned int
	FilesSkipped int
	ItemsSkipped int
	RowsProduced int
	Warnings     []string
}

func (r *IngestReport) warnf(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// rawABIDocument tolerates both a bare JSON array of entries and an
// object wrapping them under an "abi" key.
type rawABIDocument struct {
	ABI abi.ABI `json:"abi"`
}

// IngestBlob parses a single in-memory ABI JSON document belonging to
// contract address addr, appending its rows to the report's caller via
// the returned slice.
func IngestBlob(ctx context.Context, addr ethtypes.Address0xHex, b []byte, mode ReadMode, report *IngestReport) ([]*Row, error) {
	var rows []*Row

	var entries abi.ABI
	trimmed := strings.TrimSpace(string(b))
	if strings.HasPrefix(trimmed, "[") {
		a, err := abi.ParseJSON(ctx, addr.String(), b)
		if err != nil {
			return nil, err
		}
		entries = a
	} else {
		var doc rawABIDocument
		if err := json.Unmarshal(b, &doc); err != nil {
			return nil, i18n.WrapError(ctx, err, etlmsgs.MsgInvalidABIJSON, addr.String(), err)
		}
		entries = doc.ABI
	}

	for _, e := range entries {
		row, skip, err := buildRow(ctx, e, addr, mode)
		if err != nil {
			return nil, err
		}
		if skip {
			report.ItemsSkipped++
			continue
		}
		rows = append(rows, row)
	}
	report.RowsProduced += len(rows)
	return rows, nil
}

// buildRow constructs a Row from one ABI entry, or reports that the
// entry should be silently skipped (unrecognized type, or filtered out
// by mode).
func buildRow(ctx context.Context, e *abi.Entry, addr ethtypes.Address0xHex, mode ReadMode) (*Row, bool, error) {
	switch e.Type {
	case abi.Event:
		if mode == ReadFunctions {
			return nil, true, nil
		}
		if e.Anonymous {
			// Anonymous events have no topic0 to key a signature index row
			// on; matching them requires a declared-form fallback that is
			// out of scope (Section 4.4).
			return nil, true, nil
		}
	case abi.Function:
		if mode == ReadEvents {
			return nil, true, nil
		}
	default:
		// constructor, fallback, receive, error: not recognized kinds.
		return nil, true, nil
	}

	trees, err := e.Inputs.TypeTrees(ctx)
	if err != nil {
		return nil, false, err
	}
	pairs := make([]*abiTypeTreePair, len(e.Inputs))
	numIndexed := 0
	for i, p := range e.Inputs {
		pairs[i] = &abiTypeTreePair{param: p, tree: trees[i]}
		if p.Indexed {
			numIndexed++
		}
	}

	sigHash, err := e.SignatureHash(ctx)
	if err != nil {
		return nil, false, err
	}
	canonical, err := e.CanonicalSignature(ctx)
	if err != nil {
		return nil, false, err
	}

	var hash [32]byte
	copy(hash[:], sigHash)

	row := &Row{
		Hash:               hash,
		IsFunctionSelector: e.Type == abi.Function,
		CanonicalSignature: canonical,
		FullSignature:      buildFullSignature(e, pairs),
		Kind:               e.Type,
		Name:               e.Name,
		Anonymous:          e.Anonymous,
		StateMutability:    e.StateMutability,
		NumIndexedArgs:     numIndexed,
		Address:            addr,
		Inputs:             e.Inputs,
		Outputs:            e.Outputs,
	}
	row.ID = row.HashHex() + ":" + addr.String()
	return row, false, nil
}

// IngestFile parses a single ABI JSON file whose stem is the contract
// address it belongs to.
func IngestFile(ctx context.Context, path string, mode ReadMode, report *IngestReport) ([]*Row, error) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if !hexAddressStem.MatchString(stem) {
		return nil, i18n.NewError(ctx, etlmsgs.MsgNonHexStemSkipped, path)
	}
	var addr ethtypes.Address0xHex
	if err := addr.SetString(stem); err != nil {
		return nil, i18n.WrapError(ctx, err, etlmsgs.MsgNonHexStemSkipped, path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, i18n.WrapError(ctx, err, etlmsgs.MsgReadFileFailed, path)
	}
	return IngestBlob(ctx, addr, b, mode, report)
}

// IngestFolder recursively scans dir for ABI files whose stem is a
// valid contract address, skipping (with a warning, not an error)
// anything that does not match.
func IngestFolder(ctx context.Context, dir string, mode ReadMode, report *IngestReport) ([]*Row, error) {
	var allRows []*Row

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			report.warnf("failed to stat %s: %s", path, err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(path) != ".json" {
			return nil
		}
		report.FilesScanned++

		rows, err := IngestFile(ctx, path, mode, report)
		if err != nil {
			log.L(ctx).Warnf("Skipping ABI file %s: %s", path, err)
			report.FilesSkipped++
			report.warnf("skipped %s: %s", path, err)
			return nil
		}
		allRows = append(allRows, rows...)
		return nil
	})
	if err != nil {
		return nil, i18n.WrapError(ctx, err, etlmsgs.MsgReadDirFailed, dir)
	}
	return allRows, nil
}
