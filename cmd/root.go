// Copyright © 2017 Mesosphere Inc. <http://mesosphere.com>
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
	"io"
	"os"
	"strings"

	"github.com/dcos/pipe-cutter/config"
	"github.com/dcos/pipe-cutter/cutter"
	cutio "github.com/dcos/pipe-cutter/io"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	exitOK     = 0
	exitIO     = 1
	exitConfig = 2
)

var (
	version       bool
	cfgFile       string
	defaultConfig = &config.Config{}
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "pipe-cutter",
	Short: "Limit what is read from stdin or a file, in time or size",
	Long: `pipe-cutter copies its input to stdout and stops after a number of bytes
and/or seconds.

Example: pipe-cutter --tail nginx.log --seconds 10 > 10-secs.log
Example: tail -f nginx.log gunicorn.log | pipe-cutter --bytes 300
`,
	Args: cobra.NoArgs,
	// Execute prints the error itself, once.
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		if version {
			fmt.Printf("Version: %s\n", config.Version)
			os.Exit(exitOK)
		}

		if defaultConfig.FlagVerbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
		os.Exit(runCut(defaultConfig, os.Stdin, os.Stdout))
	},
}

// Execute adds all child commands to the root command sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitConfig)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().BoolVar(&version, "version", false, "Print pipe-cutter version")
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/pipe-cutter.yaml)")

	RootCmd.Flags().Uint64("seconds", 0, "Stop reading after that many seconds")
	RootCmd.Flags().Uint64("bytes", 0, "Stop after reading that many bytes")
	RootCmd.Flags().String("tail", "", `Read changes in this file ("tail -f" style), as opposed to using stdin`)
	RootCmd.Flags().Bool("verbose", false, "Use verbose debug output.")
	RootCmd.Flags().String("metrics-file", "", "Write run metrics in prometheus text format to this file on exit")

	bindFlags()
}

func bindFlags() {
	if err := viper.BindPFlags(RootCmd.Flags()); err != nil {
		logrus.WithError(err).Fatal("Could not bind flags")
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetConfigName("pipe-cutter") // name of config file (without extension)
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath("/etc/pipe-cutter/")
	viper.SetEnvPrefix("PIPE_CUTTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" { // enable ability to specify config file via flag
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err == nil {
		logrus.Debugf("Using config file %s", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		logrus.WithError(err).Fatalf("Error loading config file")
	}

	if err := viper.Unmarshal(defaultConfig); err != nil {
		logrus.WithError(err).Fatalf("Error loading config")
	}
	defaultConfig.SecondsSet = viper.IsSet("seconds")
	defaultConfig.BytesSet = viper.IsSet("bytes")
}

func sessionFromConfig(cfg *config.Config) cutter.Session {
	var s cutter.Session
	if cfg.BytesSet {
		s.ByteLimit = cutter.Bytes(cfg.FlagBytes)
	}
	if cfg.SecondsSet {
		s.TimeLimit = cutter.Seconds(cfg.FlagSeconds)
	}
	if cfg.FlagTail != "" {
		s.Mode = cutter.FollowTail
	}
	return s
}

// runCut copies stdin, or the followed file, to stdout and returns the
// process exit code.
func runCut(cfg *config.Config, stdin io.Reader, stdout io.Writer) int {
	session := sessionFromConfig(cfg)
	if err := session.Validate(); err != nil {
		logrus.Errorf("Error: %s.", err)
		return exitConfig
	}

	var source cutio.Source
	if cfg.FlagTail != "" {
		r, err := cutio.OpenTail(cfg.FlagTail, cutio.PollInterval)
		if err != nil {
			logrus.Error(err)
			return exitIO
		}
		source = r
	} else {
		source = cutio.NewTimedReader(stdin, cutio.PollInterval)
	}
	defer source.Close()

	registry := prometheus.NewRegistry()
	metrics, err := cutter.NewMetrics(registry)
	if err != nil {
		logrus.WithError(err).Error("Could not register metrics")
		return exitIO
	}

	c, err := cutter.New(session, source, stdout,
		cutter.WithMetrics(metrics),
		cutter.WithLogger(logrus.WithField("source", sourceName(cfg))))
	if err != nil {
		logrus.Errorf("Error: %s.", err)
		return exitConfig
	}

	code := exitOK
	if _, err := c.Run(); err != nil {
		logrus.Error(err)
		code = exitIO
	}

	// failed runs keep their counters too
	if cfg.FlagMetricsFile != "" {
		if err := prometheus.WriteToTextfile(cfg.FlagMetricsFile, registry); err != nil {
			logrus.WithError(err).Errorf("Could not write metrics to %s", cfg.FlagMetricsFile)
			code = exitIO
		}
	}
	return code
}

func sourceName(cfg *config.Config) string {
	if cfg.FlagTail != "" {
		return cfg.FlagTail
	}
	return "stdin"
}
