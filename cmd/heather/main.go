// Copyright 2025 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gorse-io/heather/base/log"
)

const versionName = "0.1.0"

var rootCommand = &cobra.Command{
	Use:   "heather",
	Short: "Rating prediction by matrix factorization on explicit feedback.",
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		debug, _ := cmd.Root().PersistentFlags().GetBool("debug")
		log.SetLogger(cmd.Root().PersistentFlags(), debug)
	},
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Check the version of heather",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("heather %s (%s %s/%s)\n",
			versionName, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCommand.AddCommand(versionCommand)
	rootCommand.AddCommand(testCommand)
	rootCommand.AddCommand(cvCommand)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}
