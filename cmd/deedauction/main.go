// Copyright (c) 2020 The Meter.io developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/meterio/deed-auction/api"
	"github.com/meterio/deed-auction/auction"
	"github.com/meterio/deed-auction/genesis"
	"github.com/meterio/deed-auction/logdb"
	"github.com/meterio/deed-auction/lvldb"
	"github.com/meterio/deed-auction/state"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"
)

var (
	version   string
	gitCommit string
	gitTag    string
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "DeedAuction",
		Usage:     "Custodial auction registry for deed assets",
		Copyright: "2020 Meter Foundation <https://meter.io/>",
		Flags: []cli.Flag{
			dataDirFlag,
			memFlag,
			genesisFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiTimeoutFlag,
			verbosityFlag,
		},
		Action: defaultAction,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openMainDB(ctx *cli.Context) (*lvldb.LevelDB, error) {
	if ctx.Bool(memFlag.Name) {
		return lvldb.NewMem()
	}
	dataDir := ctx.String(dataDirFlag.Name)
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, errors.Wrapf(err, "create data dir [%v]", dataDir)
	}
	db, err := lvldb.New(filepath.Join(dataDir, "main.db"), lvldb.Options{})
	if err != nil {
		return nil, errors.Wrap(err, "open main database")
	}
	return db, nil
}

func openLogDB(ctx *cli.Context) (*logdb.LogDB, error) {
	if ctx.Bool(memFlag.Name) {
		return logdb.NewMem()
	}
	path := filepath.Join(ctx.String(dataDirFlag.Name), "logs.db")
	db, err := logdb.New(path)
	if err != nil {
		return nil, errors.Wrap(err, "open log database")
	}
	return db, nil
}

func applyGenesis(ctx *cli.Context, creator *state.Creator) error {
	path := ctx.String(genesisFlag.Name)
	if path == "" {
		return nil
	}
	cfg, err := genesis.Load(path)
	if err != nil {
		return err
	}
	st, err := creator.NewState()
	if err != nil {
		return err
	}
	if err := cfg.Build(st); err != nil {
		if err == genesis.ErrAlreadyApplied {
			slog.Info("genesis already applied, skipping")
			return nil
		}
		return err
	}
	if err := st.Commit(); err != nil {
		return err
	}
	slog.Info("genesis applied", "accounts", len(cfg.Accounts), "deeds", len(cfg.Deeds))
	return nil
}

func defaultAction(ctx *cli.Context) error {
	initLogger(ctx)
	slog.Info("starting deed auction registry", "version", fullVersion())

	mainDB, err := openMainDB(ctx)
	if err != nil {
		return err
	}
	defer mainDB.Close()

	logDB, err := openLogDB(ctx)
	if err != nil {
		return err
	}
	defer logDB.Close()

	creator := state.NewCreator(mainDB)
	if err := applyGenesis(ctx, creator); err != nil {
		return err
	}

	reg := auction.New()
	handler, closeSubs := api.New(reg, creator, logDB, ctx.String(apiCorsFlag.Name))
	defer closeSubs()

	timeout := time.Duration(ctx.Int(apiTimeoutFlag.Name)) * time.Millisecond
	srv := &http.Server{
		Handler: handleAPITimeout(requestBodyLimit(handler), timeout),
	}

	listener, err := net.Listen("tcp", ctx.String(apiAddrFlag.Name))
	if err != nil {
		return errors.Wrapf(err, "listen API addr [%v]", ctx.String(apiAddrFlag.Name))
	}
	slog.Info("API service started", "addr", listener.Addr())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()

	exitCtx := handleExitSignal()
	select {
	case err := <-errCh:
		return err
	case <-exitCtx.Done():
	}

	slog.Info("shutting down")
	srv.Close()
	return nil
}
