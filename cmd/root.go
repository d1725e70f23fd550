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

// Package cmd wires evmetl's cobra subcommands: abi, decode-logs, and
// decode-traces, each a self-contained run over internal/etlconfig
// and pkg/orchestrator.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hyperledger/firefly-common/pkg/log"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/evmetl/evmetl/internal/etlconfig"
)

var sigs = make(chan os.Signal, 1)

var rootCmd = &cobra.Command{
	Use:   "evmetl",
	Short: "Batch decoder for EVM raw event logs and call traces",
	Long:  ``,
}

var cfgFile string

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "f", "", "config file")
	rootCmd.AddCommand(abiCommand())
	rootCmd.AddCommand(decodeLogsCommand())
	rootCmd.AddCommand(decodeTracesCommand())
}

// Execute runs the configured cobra command tree - the module's only
// entry point, called from main.
func Execute() error {
	return rootCmd.Execute()
}

// runContext sets up logging, loads the configuration file (if one was
// given with --config), and returns a context cancelled on
// SIGINT/SIGTERM, adapted from the teacher's run() lifecycle: logging,
// then config, then signal handling, in that order, so configuration
// errors are still logged with the right prefix.
func runContext() (context.Context, context.CancelFunc, error) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	ctx = log.WithLogger(ctx, logrus.WithField("pid", fmt.Sprintf("%d", os.Getpid())))
	ctx = log.WithLogger(ctx, logrus.WithField("prefix", "evmetl"))

	var loadErr error
	if cfgFile != "" {
		loadErr = etlconfig.Load(ctx, cfgFile)
	}

	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.L(ctx).Infof("Shutting down due to %s", sig.String())
		cancelCtx()
	}()

	if loadErr != nil {
		cancelCtx()
		return nil, nil, loadErr
	}
	return ctx, cancelCtx, nil
}
