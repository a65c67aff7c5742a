// Copyright 2026 Signal Messenger, LLC
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/signalapp/hostbridge/config"
	"github.com/signalapp/hostbridge/dispatch"
	"github.com/signalapp/hostbridge/host"
	"github.com/signalapp/hostbridge/logger"
	"github.com/signalapp/hostbridge/metrics"
	"github.com/signalapp/hostbridge/service"
	"github.com/signalapp/hostbridge/transport"
	"github.com/signalapp/hostbridge/util"

	stdlog "log"

	pb "github.com/signalapp/hostbridge/proto"
)

var (
	identityCmd = flag.NewFlagSet("identity", flag.ExitOnError)
	submitCmd   = flag.NewFlagSet("submit", flag.ExitOnError)
	notifyCmd   = flag.NewFlagSet("register-notify", flag.ExitOnError)
	bundlesCmd  = flag.NewFlagSet("bundles", flag.ExitOnError)
	volumesCmd  = flag.NewFlagSet("volumes", flag.ExitOnError)
	serveCmd    = flag.NewFlagSet("serve", flag.ExitOnError)

	configPath string
)

var subcommands = map[string]*flag.FlagSet{
	identityCmd.Name(): identityCmd,
	submitCmd.Name():   submitCmd,
	notifyCmd.Name():   notifyCmd,
	bundlesCmd.Name():  bundlesCmd,
	volumesCmd.Name():  volumesCmd,
	serveCmd.Name():    serveCmd,
}

func usage() {
	var names []string
	for name := range subcommands {
		names = append(names, name)
	}
	fmt.Fprintf(os.Stderr, "Usage: %s {%s} [flags]\n", os.Args[0], strings.Join(names, "|"))
	os.Exit(2)
}

func main() {
	for _, fs := range subcommands {
		fs.StringVar(&configPath, "config", "", "Path to host bridge configuration yaml file")
	}
	if len(os.Args) < 2 {
		usage()
	}
	fs, ok := subcommands[os.Args[1]]
	if !ok {
		usage()
	}

	var (
		data      = submitCmd.String("data", "", "hex encoded transaction")
		wait      = submitCmd.Bool("wait", false, "wait for the transaction to be included in a block")
		prove     = submitCmd.Bool("prove", false, "request an inclusion proof")
		runtimeID pb.Namespace
		runtimeOK bool
		block     = notifyCmd.Bool("block", false, "subscribe to runtime blocks")
		tags      = notifyCmd.String("tags", "", "comma separated event tags to subscribe to")
	)
	submitCmd.Func("runtime", "hex encoded target runtime, defaults to the configured runtime", func(s string) error {
		runtimeOK = true
		return runtimeID.Set(s)
	})
	fs.Parse(os.Args[2:])

	cfg, err := config.Read(configPath)
	if err != nil {
		stdlog.Fatalf("could not read configuration: %v", err)
	}
	logger.Init(cfg)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer func() {
		signal.Stop(interrupts)
		cancel()
	}()
	go func() {
		select {
		case <-interrupts:
			logger.Infof("received interrupt, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	shutdownMetrics, err := metrics.Setup(ctx, &cfg.Metrics)
	if err != nil {
		logger.Fatalf("error initializing metrics: %v", err)
	}
	defer shutdownMetrics()

	conn, err := transport.Dial(ctx, &cfg.Transport)
	if err != nil {
		logger.Fatalf("could not reach host: %v", err)
	}

	if fs == serveCmd {
		err = service.Start(ctx, cfg, conn, nil)
		logger.Fatalw("Shutting down", "error", err)
	}

	ns, err := cfg.Namespace()
	if err != nil {
		logger.Fatalf("invalid runtime id: %v", err)
	}
	notifications := make(printNotifier, 16)
	dispatcher := dispatch.New(conn, &util.TxGenerator{}, notifications)
	go func() {
		if err := dispatcher.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Errorw("host connection failed", "err", err)
			cancel()
		}
	}()
	bridge := host.New(dispatcher, ns)

	var out any
	switch fs {
	case identityCmd:
		out, err = bridge.Identity(ctx)
	case submitCmd:
		opts := host.SubmitTxOpts{Wait: *wait, Prove: *prove}
		if runtimeOK {
			opts.RuntimeID = &runtimeID
		}
		var tx []byte
		if tx, err = hex.DecodeString(*data); err != nil {
			logger.Fatalf("invalid -data: %v", err)
		}
		out, err = bridge.SubmitTx(ctx, tx, opts)
	case notifyCmd:
		opts := host.RegisterNotifyOpts{RuntimeBlock: *block}
		for _, tag := range strings.Split(*tags, ",") {
			if tag != "" {
				opts.RuntimeEvent = append(opts.RuntimeEvent, []byte(tag))
			}
		}
		if err = bridge.RegisterNotify(ctx, opts); err == nil {
			fmt.Fprintln(os.Stderr, "registered, waiting for notifications")
			notifications.print(ctx)
			return
		}
	case bundlesCmd:
		out, err = bridge.BundleManager().BundleList(ctx, host.BundleListRequest{})
	case volumesCmd:
		out, err = bridge.VolumeManager().VolumeList(ctx, host.VolumeListRequest{})
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	printJSON(out)
}

func printJSON(v any) {
	bs, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(string(bs))
}

type printNotifier chan pb.RuntimeNotifyRequest

func (p printNotifier) Notify(n pb.RuntimeNotifyRequest) {
	select {
	case p <- n:
	default:
		logger.Warnw("dropping notification, printer is behind")
	}
}

func (p printNotifier) print(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-p:
			printJSON(n)
		}
	}
}
