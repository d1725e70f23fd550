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
	"fmt"

	"github.com/hyperledger/firefly-common/pkg/log"
	"github.com/spf13/cobra"

	"github.com/evmetl/evmetl/internal/etlconfig"
	"github.com/evmetl/evmetl/pkg/orchestrator"
	"github.com/evmetl/evmetl/pkg/sigindex"
)

var (
	decodeLogsFolder    string
	decodeLogsIndexFile string
)

// decodeLogsCommand implements "decode-logs -l <logs-folder> -a
// <index-file>": -a here names the persisted index file produced by a
// prior abi run, not an ABI folder - a deliberately reused flag letter
// with a different meaning per subcommand.
func decodeLogsCommand() *cobra.Command {
	decodeLogsCmd := &cobra.Command{
		Use:   "decode-logs",
		Short: "Decode a folder of raw event log files against a signature index",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, err := runContext()
			if err != nil {
				return err
			}
			defer cancel()

			cfg := etlconfig.Snapshot()
			cfg.LogDecoder.LogsFolder = decodeLogsFolder

			rows, err := sigindex.LoadIndex(ctx, decodeLogsIndexFile)
			if err != nil {
				return err
			}
			uniqueKeys := uniqueKeyFieldsFor(cfg.ABIReader.UniqueKey)
			idx := sigindex.Build(rows, uniqueKeys)

			report, err := orchestrator.RunLogs(ctx, cfg, idx)
			if err != nil {
				return err
			}
			logReport(ctx, report)
			if report.FilesFailed > 0 {
				return fmt.Errorf("%d of %d input files failed to decode", report.FilesFailed, report.FilesFailed+report.FilesProcessed)
			}
			return nil
		},
	}
	decodeLogsCmd.Flags().StringVarP(&decodeLogsFolder, "logs-folder", "l", "", "folder of raw event log input files")
	decodeLogsCmd.Flags().StringVarP(&decodeLogsIndexFile, "index-file", "a", "", "path to a signature index file written by the abi command")
	_ = decodeLogsCmd.MarkFlagRequired("logs-folder")
	_ = decodeLogsCmd.MarkFlagRequired("index-file")
	return decodeLogsCmd
}

// uniqueKeyFieldsFor maps the abi_reader.unique_key config string onto
// the sigindex.Build dedup key fields it names.
func uniqueKeyFieldsFor(uniqueKey string) []sigindex.UniqueKeyField {
	if uniqueKey == "hash" {
		return []sigindex.UniqueKeyField{sigindex.KeyHash}
	}
	return []sigindex.UniqueKeyField{sigindex.KeyHash, sigindex.KeyAddress}
}

func logReport(ctx context.Context, report *orchestrator.Report) {
	log.L(ctx).Infof("Decoded %d files (%d failed): %d rows matched, %d unmatched, %d errored",
		report.FilesProcessed, report.FilesFailed, report.RowsMatched, report.RowsUnmatched, report.RowsErrored)
}
