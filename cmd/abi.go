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
	"github.com/hyperledger/firefly-common/pkg/log"
	"github.com/spf13/cobra"

	"github.com/evmetl/evmetl/pkg/sigindex"
)

var (
	abiIndexFile string
	abiFolder    string
)

// abiCommand implements "abi -d <index-file> -a <abi-folder>": ingest
// every ABI file under abiFolder into a signature index and persist it
// to indexFile, the artifact decode-logs/decode-traces later consume.
func abiCommand() *cobra.Command {
	abiCmd := &cobra.Command{
		Use:   "abi",
		Short: "Ingest an ABI folder into a persisted signature index file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, err := runContext()
			if err != nil {
				return err
			}
			defer cancel()

			report := &sigindex.IngestReport{}
			rows, err := sigindex.IngestFolder(ctx, abiFolder, sigindex.ReadBoth, report)
			if err != nil {
				return err
			}
			for _, w := range report.Warnings {
				log.L(ctx).Warnf("%s", w)
			}
			log.L(ctx).Infof("Scanned %d files, skipped %d files and %d items, produced %d rows", report.FilesScanned, report.FilesSkipped, report.ItemsSkipped, report.RowsProduced)

			if err := sigindex.SaveIndex(ctx, abiIndexFile, rows); err != nil {
				return err
			}
			log.L(ctx).Infof("Wrote signature index with %d rows to %s", len(rows), abiIndexFile)
			return nil
		},
	}
	abiCmd.Flags().StringVarP(&abiIndexFile, "index-file", "d", "", "path to write the persisted signature index file")
	abiCmd.Flags().StringVarP(&abiFolder, "abi-folder", "a", "", "folder of contract ABI JSON files to ingest")
	_ = abiCmd.MarkFlagRequired("index-file")
	_ = abiCmd.MarkFlagRequired("abi-folder")
	return abiCmd
}
