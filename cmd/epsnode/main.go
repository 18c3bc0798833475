// Copyright 2026 The Zaparoo Project Contributors.
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

// Command epsnode runs an EPS protocol node on a bench host: over a serial
// link to a real bus adapter, against a simulated on-board computer, or as a
// conversion table printer for calibrating the heater and thermistor chain.
package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/cubesat-eps/go-eps"
)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := defaultConfig()
	var cfgPath string

	root := &cobra.Command{
		Use:           "epsnode",
		Short:         "EPS telemetry and command node",
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = defaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && fileExists(cfgFile) {
				fc, err := loadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := applyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			if cfg.Debug {
				eps.SetDebugEnabled(true)
			}
			if cfg.LogDir != "" {
				path, err := eps.InitSessionLog(cfg.LogDir)
				if err != nil {
					return err
				}
				eps.Logger().Info().Str("path", path).Msg("session log opened")
			}
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return eps.CloseSessionLog()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.epsnode/config.toml)")
	pf.BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable debug logging")
	pf.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "write a session log file into this directory")
	pf.IntVar(&cfg.QueueCapacity, "queue-capacity", cfg.QueueCapacity, "inbound and outbound queue capacity")
	pf.BoolVar(&cfg.AutoAdvance, "auto-advance", cfg.AutoAdvance,
		"node schedules the next housekeeping field itself (false: the peer requests each field)")
	pf.DurationVar(&cfg.PassInterval, "pass-interval", cfg.PassInterval, "main loop pass interval while busy")
	pf.DurationVar(&cfg.IdleInterval, "idle-interval", cfg.IdleInterval, "main loop pass interval while idle")
	pf.DurationVar(&cfg.ShuntInterval, "shunt-interval", cfg.ShuntInterval, "shunt control period (0 disables)")
	pf.Float64Var(&cfg.ShuntOnAbove, "shunt-on-above", cfg.ShuntOnAbove, "battery voltage that turns the shunts on")
	pf.Float64Var(&cfg.ShuntOffBelow, "shunt-off-below", cfg.ShuntOffBelow, "battery voltage that turns the shunts off")

	root.AddCommand(newRunCommand(&cfg), newSimCommand(&cfg), newConvertCommand())
	return root
}
