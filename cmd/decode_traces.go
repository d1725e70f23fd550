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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evmetl/evmetl/internal/etlconfig"
	"github.com/evmetl/evmetl/pkg/orchestrator"
	"github.com/evmetl/evmetl/pkg/sigindex"
)

// decodeTracesCommand implements "decode-traces": unlike abi and
// decode-logs, it takes no flags of its own - the traces folder, the
// index file, and everything else come from the loaded config file.
func decodeTracesCommand() *cobra.Command {
	decodeTracesCmd := &cobra.Command{
		Use:   "decode-traces",
		Short: "Decode a folder of raw call trace files against a signature index",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, err := runContext()
			if err != nil {
				return err
			}
			defer cancel()

			cfg := etlconfig.Snapshot()

			rows, err := sigindex.LoadIndex(ctx, cfg.ABIReader.ABISource)
			if err != nil {
				return err
			}
			idx := sigindex.Build(rows, uniqueKeyFieldsFor(cfg.ABIReader.UniqueKey))

			report, err := orchestrator.RunTraces(ctx, cfg, idx)
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
	return decodeTracesCmd
}
