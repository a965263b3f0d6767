// Copyright 2025 The go-tmlight Authors
// This file is part of go-tmlight.
//
// go-tmlight is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-tmlight is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-tmlight. If not, see <http://www.gnu.org/licenses/>.

// tmlight is a command line light client: it tracks a chain through an
// untrusted full node, verifying headers against an operator supplied
// trust anchor.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/exp/slog"

	"github.com/tmlight/go-tmlight/common"
	"github.com/tmlight/go-tmlight/light"
	httpprovider "github.com/tmlight/go-tmlight/light/provider/http"
	"github.com/tmlight/go-tmlight/light/store"
	dbstore "github.com/tmlight/go-tmlight/light/store/db"
	memstore "github.com/tmlight/go-tmlight/light/store/memory"
	"github.com/tmlight/go-tmlight/log"
	"github.com/tmlight/go-tmlight/types"
)

var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	chainIDFlag = &cli.StringFlag{
		Name:  "chain-id",
		Usage: "Chain identifier to verify against",
	}
	primaryFlag = &cli.StringFlag{
		Name:  "primary",
		Usage: "HTTP address of the primary full node (http://host:port)",
	}
	trustHeightFlag = &cli.Int64Flag{
		Name:  "trust-height",
		Usage: "Height of the trust anchor",
	}
	trustHashFlag = &cli.StringFlag{
		Name:  "trust-hash",
		Usage: "Header hash of the trust anchor (hex)",
	}
	trustingPeriodFlag = &cli.DurationFlag{
		Name:  "trusting-period",
		Usage: "How long the anchor's validator set is trusted for (must be below the unbonding period)",
		Value: light.DefaultTrustingPeriod,
	}
	clockDriftFlag = &cli.DurationFlag{
		Name:  "clock-drift",
		Usage: "Tolerated lag of the local clock behind block timestamps",
		Value: light.DefaultClockDrift,
	}
	heightFlag = &cli.Int64Flag{
		Name:  "height",
		Usage: "Target height to verify to (0 verifies to the node's tip)",
	}
	dbFlag = &cli.StringFlag{
		Name:  "db",
		Usage: "Directory for the persistent trust base (empty keeps it in memory)",
	}
	pruningFlag = &cli.IntFlag{
		Name:  "pruning",
		Usage: "Maximum number of blocks retained in the store (0 disables pruning)",
	}
	verbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "Logging level (debug, info, warn, error)",
		Value: "info",
	}
	watchFlag = &cli.BoolFlag{
		Name:  "watch",
		Usage: "Keep following the chain head after the initial sync",
	}
)

func main() {
	app := &cli.App{
		Name:  "tmlight",
		Usage: "verify blockchain headers against a trust anchor",
		Flags: []cli.Flag{
			configFlag, chainIDFlag, primaryFlag,
			trustHeightFlag, trustHashFlag, trustingPeriodFlag, clockDriftFlag,
			heightFlag, dbFlag, pruningFlag, verbosityFlag, watchFlag,
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// resolveConfig layers flags over the optional config file.
func resolveConfig(ctx *cli.Context) (*config, error) {
	cfg := &config{
		TrustingPeriod: tomlDuration(light.DefaultTrustingPeriod),
		ClockDrift:     tomlDuration(light.DefaultClockDrift),
	}
	if path := ctx.String(configFlag.Name); path != "" {
		loaded, err := loadConfig(path)
		if err != nil {
			return nil, err
		}
		if loaded.TrustingPeriod == 0 {
			loaded.TrustingPeriod = cfg.TrustingPeriod
		}
		if loaded.ClockDrift == 0 {
			loaded.ClockDrift = cfg.ClockDrift
		}
		cfg = loaded
	}
	if ctx.IsSet(chainIDFlag.Name) {
		cfg.ChainID = ctx.String(chainIDFlag.Name)
	}
	if ctx.IsSet(primaryFlag.Name) {
		cfg.Primary = ctx.String(primaryFlag.Name)
	}
	if ctx.IsSet(trustHeightFlag.Name) {
		cfg.TrustHeight = ctx.Int64(trustHeightFlag.Name)
	}
	if ctx.IsSet(trustHashFlag.Name) {
		cfg.TrustHash = ctx.String(trustHashFlag.Name)
	}
	if ctx.IsSet(trustingPeriodFlag.Name) {
		cfg.TrustingPeriod = tomlDuration(ctx.Duration(trustingPeriodFlag.Name))
	}
	if ctx.IsSet(clockDriftFlag.Name) {
		cfg.ClockDrift = tomlDuration(ctx.Duration(clockDriftFlag.Name))
	}
	if ctx.IsSet(dbFlag.Name) {
		cfg.DBPath = ctx.String(dbFlag.Name)
	}
	if ctx.IsSet(pruningFlag.Name) {
		cfg.Pruning = ctx.Int(pruningFlag.Name)
	}
	if cfg.ChainID == "" {
		return nil, fmt.Errorf("chain-id is required")
	}
	if cfg.Primary == "" {
		return nil, fmt.Errorf("primary is required")
	}
	if cfg.TrustHeight <= 0 || cfg.TrustHash == "" {
		return nil, fmt.Errorf("trust-height and trust-hash are required")
	}
	return cfg, nil
}

func newLogger(ctx *cli.Context) (log.Logger, error) {
	var level slog.Level
	switch ctx.String(verbosityFlag.Name) {
	case "debug":
		level = log.LevelDebug
	case "info":
		level = log.LevelInfo
	case "warn":
		level = log.LevelWarn
	case "error":
		level = log.LevelError
	default:
		return nil, fmt.Errorf("unknown verbosity %q", ctx.String(verbosityFlag.Name))
	}
	return log.NewTerminalLogger(os.Stderr, level), nil
}

func run(cliCtx *cli.Context) error {
	cfg, err := resolveConfig(cliCtx)
	if err != nil {
		return err
	}
	logger, err := newLogger(cliCtx)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var anchorHash common.Hash
	if err := anchorHash.UnmarshalText([]byte(cfg.TrustHash)); err != nil {
		return fmt.Errorf("invalid trust-hash: %w", err)
	}

	var st store.Store
	if cfg.DBPath != "" {
		dbst, closeDB, err := dbstore.Open(cfg.ChainID, cfg.DBPath, logger)
		if err != nil {
			return err
		}
		defer closeDB()
		st = dbst
	} else {
		st = memstore.New()
	}

	primary, err := httpprovider.New(cfg.ChainID, cfg.Primary, logger)
	if err != nil {
		return err
	}

	client, err := light.NewClient(ctx, cfg.ChainID,
		light.TrustOptions{
			Period: time.Duration(cfg.TrustingPeriod),
			Height: cfg.TrustHeight,
			Hash:   anchorHash,
		},
		primary, st,
		light.MaxClockDrift(time.Duration(cfg.ClockDrift)),
		light.PruningSize(cfg.Pruning),
		light.Logger(logger),
	)
	if err != nil {
		return err
	}

	sync := func() error {
		var lb *types.LightBlock
		if target := cliCtx.Int64(heightFlag.Name); target > 0 {
			lb, err = client.VerifyToTarget(ctx, target)
		} else {
			lb, err = client.VerifyToHighest(ctx)
		}
		if err != nil {
			return err
		}
		fmt.Printf("verified height=%d hash=%v\n", lb.Height(), lb.Hash())
		return nil
	}
	if err := sync(); err != nil {
		return err
	}

	if !cliCtx.Bool(watchFlag.Name) {
		return nil
	}
	heads, err := primary.SubscribeNewHeaders(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case head, ok := <-heads:
			if !ok {
				return fmt.Errorf("head subscription closed")
			}
			if _, err := client.VerifyToTarget(ctx, head.Height); err != nil {
				logger.Error("Verification failed", "height", head.Height, "err", err)
				continue
			}
			fmt.Printf("verified height=%d hash=%v\n", head.Height, head.Hash())
		}
	}
}
