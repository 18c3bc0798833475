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
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cubesat-eps/go-eps"
	"github.com/cubesat-eps/go-eps/analogio"
	"github.com/cubesat-eps/go-eps/convert"
	"github.com/cubesat-eps/go-eps/frame"
	"github.com/cubesat-eps/go-eps/internal/obcsim"
	"github.com/cubesat-eps/go-eps/polling"
)

// nominalInputs is a healthy board in sunlight.
var nominalInputs = []struct {
	field frame.Field
	value float64
}{
	{frame.FieldBBVol, 5.0},
	{frame.FieldBBCur, 0.42},
	{frame.FieldNYCur, 0.31},
	{frame.FieldPXCur, 0.55},
	{frame.FieldPYCur, 0.12},
	{frame.FieldNXCur, 0.0},
	{frame.FieldBatTemp1, 18.5},
	{frame.FieldBatTemp2, 19.0},
	{frame.FieldBatVol, 7.6},
	{frame.FieldBatCur, 0.35},
	{frame.FieldBTCur, 0.2},
}

func setNominalInputs(board *analogio.SimBoard) {
	for _, in := range nominalInputs {
		// Every nominal field is an input; SetPhysical cannot fail here.
		_ = board.SetPhysical(in.field, in.value)
	}
}

type simOptions struct {
	heater1 float64
	heater2 float64
	batVol  float64
}

func newSimCommand(cfg *config) *cobra.Command {
	opts := simOptions{heater1: 0, heater2: 0, batVol: 7.6}
	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Exercise a node against a simulated on-board computer",
		Long: "Exercise a node against a simulated on-board computer: set both heater\n" +
			"setpoints, request one full housekeeping sequence and print the readings.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSim(cmd.Context(), *cfg, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().Float64Var(&opts.heater1, "heater1", opts.heater1, "heater 1 setpoint in °C")
	cmd.Flags().Float64Var(&opts.heater2, "heater2", opts.heater2, "heater 2 setpoint in °C")
	cmd.Flags().Float64Var(&opts.batVol, "battery", opts.batVol, "simulated battery voltage")
	return cmd
}

func runSim(ctx context.Context, cfg config, opts simOptions, out io.Writer) error {
	nodeCfg := cfg.nodeConfig()
	pipeline, err := convert.New(nodeCfg.Calibration)
	if err != nil {
		return err
	}
	board := analogio.NewSimBoard(pipeline)
	setNominalInputs(board)
	if err := board.SetPhysical(frame.FieldBatVol, opts.batVol); err != nil {
		return err
	}
	node, err := eps.NewNode(nodeCfg, board.Hardware())
	if err != nil {
		return err
	}
	if err := node.Init(); err != nil {
		return fmt.Errorf("init node: %w", err)
	}

	obc := obcsim.New(node.Dispatcher(), node.Pipeline(), obcsim.Options{RequestNext: !cfg.AutoAdvance})
	loop, err := polling.NewLoop(node, obc, cfg.loopConfig())
	if err != nil {
		return err
	}

	if err := obc.SetHeater(eps.Heater1, opts.heater1); err != nil {
		return err
	}
	if err := obc.SetHeater(eps.Heater2, opts.heater2); err != nil {
		return err
	}
	if err := node.ControlShunts(); err != nil {
		return err
	}
	if err := obc.RequestHousekeeping(0); err != nil {
		return err
	}

	for loop.Step() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("simulation interrupted: %w", err)
		}
	}

	for _, r := range obc.Readings() {
		_, _ = fmt.Fprintln(out, r)
	}
	for _, ack := range obc.Acks() {
		_, _ = fmt.Fprintf(out, "ack  %s\n", ack)
	}
	shunts := "off"
	if board.Shunts() {
		shunts = "on"
	}
	m := loop.GetMetrics()
	_, _ = fmt.Fprintf(out, "shunts %s, %d passes, %d frames processed, %d sent, %d dropped\n",
		shunts, m.Passes, m.FramesProcessed, m.FramesSent, node.Dispatcher().Dropped())
	return nil
}
