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
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"periph.io/x/host/v3"

	"github.com/cubesat-eps/go-eps"
	"github.com/cubesat-eps/go-eps/analogio"
	"github.com/cubesat-eps/go-eps/convert"
	"github.com/cubesat-eps/go-eps/polling"
	"github.com/cubesat-eps/go-eps/transport/uart"
)

func newRunCommand(cfg *config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Serve the EPS protocol over a serial bus adapter",
		Long: "Serve the EPS protocol over a serial bus adapter. Sensor inputs come from a\n" +
			"simulated board; the battery shunts can be driven from a real GPIO line.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.Port == "" {
				return errors.New("--port is required")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runNode(ctx, *cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.Port, "port", cfg.Port, "serial port of the bus adapter")
	cmd.Flags().IntVar(&cfg.Baud, "baud", cfg.Baud, "serial baud rate")
	cmd.Flags().StringVar(&cfg.ShuntPin, "shunt-pin", cfg.ShuntPin, "GPIO name driving the shunts (empty: simulated)")
	cmd.Flags().BoolVar(&cfg.ShuntActiveLow, "shunt-active-low", cfg.ShuntActiveLow, "shunt GPIO is active low")
	return cmd
}

func runNode(ctx context.Context, cfg config) error {
	log := eps.Logger()

	board := analogio.NewSimBoard(convert.Default())
	setNominalInputs(board)
	hw := board.Hardware()

	if cfg.ShuntPin != "" {
		if _, err := host.Init(); err != nil {
			return fmt.Errorf("init host drivers: %w", err)
		}
		shunts, err := analogio.OpenGPIOShunts(cfg.ShuntPin, cfg.ShuntActiveLow)
		if err != nil {
			return err
		}
		hw.Shunts = shunts
	}

	node, err := eps.NewNode(cfg.nodeConfig(), hw)
	if err != nil {
		return err
	}
	if err := node.Init(); err != nil {
		return fmt.Errorf("init node: %w", err)
	}

	link, err := uart.Open(ctx, cfg.Port, cfg.Baud, node.Dispatcher(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = link.Close() }()

	loop, err := polling.NewLoop(node, link, cfg.loopConfig())
	if err != nil {
		return err
	}

	log.Info().Str("port", cfg.Port).Int("baud", cfg.Baud).Msg("node running")
	runErr := serve(ctx, loop, link)

	m := loop.GetMetrics()
	s := link.Stats()
	log.Info().
		Int64("passes", m.Passes).
		Int64("processed", m.FramesProcessed).
		Int64("sent", m.FramesSent).
		Int64("process_errors", m.ProcessErrors).
		Int64("link_rx", s.PacketsReceived).
		Int64("link_tx", s.PacketsSent).
		Int64("link_errors", s.DecodeErrors).
		Uint64("dropped", node.Dispatcher().Dropped()).
		Msg("node stopped")
	return runErr
}

type linkRunner interface {
	Run(ctx context.Context) error
}

// serve runs the main loop and the link read loop until ctx ends or the link
// fails. It returns only after both have exited, so nothing logs once the
// session log is closed.
func serve(ctx context.Context, loop *polling.Loop, link linkRunner) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	linkErr := make(chan error, 1)
	go func() { linkErr <- link.Run(ctx) }()

	var runErr error
	if err := loop.Start(ctx); err != nil {
		cancel()
		<-linkErr
		return fmt.Errorf("start main loop: %w", err)
	}

	select {
	case <-ctx.Done():
		eps.Logger().Info().Msg("received signal, stopping...")
		runErr = <-linkErr
	case runErr = <-linkErr:
		cancel()
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	if err := loop.Stop(stopCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
