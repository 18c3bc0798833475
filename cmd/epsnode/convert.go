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

package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cubesat-eps/go-eps/convert"
)

type tableOptions struct {
	from float64
	to   float64
	step float64
}

func newConvertCommand() *cobra.Command {
	opts := tableOptions{from: -40, to: 125, step: 5}
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Print the thermistor and heater conversion table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printTable(cmd.OutOrStdout(), convert.Default(), opts)
		},
	}
	cmd.Flags().Float64Var(&opts.from, "from", opts.from, "first temperature in °C")
	cmd.Flags().Float64Var(&opts.to, "to", opts.to, "last temperature in °C")
	cmd.Flags().Float64Var(&opts.step, "step", opts.step, "temperature step in °C")
	return cmd
}

func printTable(out io.Writer, p *convert.Pipeline, opts tableOptions) error {
	if opts.step <= 0 {
		return errors.New("--step must be positive")
	}
	if opts.to < opts.from {
		return errors.New("--to must not be below --from")
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	_, _ = fmt.Fprintln(w, "°C\tkΩ\tV\tDAC\tADC\tDAC→°C\t")
	for i := 0; ; i++ {
		c := opts.from + float64(i)*opts.step
		if c > opts.to {
			break
		}
		r := p.TemperatureToResistance(c)
		dac := p.TemperatureToDACCode(c)
		_, _ = fmt.Fprintf(w, "%.1f\t%.3f\t%.4f\t%d\t%d\t%.2f\t\n",
			c, r, p.ResistanceToVoltage(r), dac, p.TemperatureToADCCode(c), p.DACCodeToTemperature(dac))
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	return nil
}
