// Copyright © 2016 NAME HERE <EMAIL ADDRESS>
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
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile   string
	rootCpus  int
	rootQuiet bool
	log       *zap.SugaredLogger
)

// RootCmd is the base command every subcommand attaches to.
var RootCmd = &cobra.Command{
	Use:   "gorecomb",
	Short: "Infer bacterial recombination events along a fixed phylogeny",
	Long: `gorecomb reconstructs ancestral sequences on a fixed phylogenetic
tree and infers, branch by branch, which stretches of the alignment were
inherited clonally versus acquired by homologous recombination.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogger()
	},
}

// Execute adds all child commands to RootCmd and runs it.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.gorecomb.yaml)")
	RootCmd.PersistentFlags().IntVar(&rootCpus, "threads", 1, "number of threads (stored in the configuration; branches are evaluated one at a time whatever its value)")
	RootCmd.PersistentFlags().BoolVar(&rootQuiet, "quiet", false, "suppress progress reporting")
	viper.BindPFlag("threads", RootCmd.PersistentFlags().Lookup("threads"))
	viper.BindPFlag("quiet", RootCmd.PersistentFlags().Lookup("quiet"))
}

// initConfig reads a config file and environment variables, letting
// either override the defaults set on the flags above.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".gorecomb")
	}
	viper.SetEnvPrefix("GORECOMB")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
	rootCpus = viper.GetInt("threads")
	rootQuiet = viper.GetBool("quiet")
}

func initLogger() error {
	cfg := zap.NewProductionConfig()
	if rootQuiet {
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	cfg.Encoding = "console"
	cfg.EncoderConfig.TimeKey = ""
	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("cmd: building logger: %w", err)
	}
	log = logger.Sugar()
	return nil
}
