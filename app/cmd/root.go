// Copyright © 2019 Annchain Authors <EMAIL ADDRESS>
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
	"strings"

	"github.com/annchain/dagcommit/common/goroutine"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dagcommit",
	Short: "dagcommit: leader election and commit linearization for DAG consensus",
	Long: `dagcommit replays synthetic DAGs through the leader schedule and the
linearizer, and inspects the commit chains they persist.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	defer goroutine.DumpStack(true)
	if err := rootCmd.Execute(); err != nil {
		// cobra already printed the error
		panic(err)
	}
}

func init() {
	// folders
	rootCmd.PersistentFlags().StringP("datadir", "d", "data", "Folder for the commit store")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file in toml. Default to {datadir}/config.toml")

	// log
	rootCmd.PersistentFlags().StringP("log-dir", "l", "log", "Folder for log files")
	rootCmd.PersistentFlags().BoolP("log-stdout", "s", true, "Whether the log will be printed to stdout")
	rootCmd.PersistentFlags().Bool("log-file", false, "Whether the log will be printed to file")
	rootCmd.PersistentFlags().StringP("log-level", "v", "info", "Logging verbosity, possible values:[panic, fatal, error, warn, info, debug, trace]")
	rootCmd.PersistentFlags().BoolP("log-line-number", "n", false, "Whether the log will contain line number")
	rootCmd.PersistentFlags().Bool("multifile-by-level", false, "Output separate log files according to their level")

	rootCmd.PersistentFlags().Int("metrics-port", 0, "Serve prometheus metrics on this port. 0 disables it")

	_ = viper.BindPFlag("datadir", rootCmd.PersistentFlags().Lookup("datadir"))
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	_ = viper.BindPFlag("log.dir", rootCmd.PersistentFlags().Lookup("log-dir"))
	_ = viper.BindPFlag("log.stdout", rootCmd.PersistentFlags().Lookup("log-stdout"))
	_ = viper.BindPFlag("log.file", rootCmd.PersistentFlags().Lookup("log-file"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.line_number", rootCmd.PersistentFlags().Lookup("log-line-number"))
	_ = viper.BindPFlag("log.by_level", rootCmd.PersistentFlags().Lookup("multifile-by-level"))

	_ = viper.BindPFlag("metrics.port", rootCmd.PersistentFlags().Lookup("metrics-port"))

	viper.SetEnvPrefix("dagcommit")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("committee.size", 4)
	viper.SetDefault("dag.cached_rounds", 50)
	viper.SetDefault("dag.block_cache_size", 10000)
	viper.SetDefault("leveldb.cache", 16)
	viper.SetDefault("leveldb.handles", 16)

	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(inspectCmd)
}
