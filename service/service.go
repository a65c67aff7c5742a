// Copyright 2026 Signal Messenger, LLC
// SPDX-License-Identifier: AGPL-3.0-only

// Package service wires a host connection to the bridge and serves its
// control and health endpoints.
package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/signalapp/hostbridge/config"
	"github.com/signalapp/hostbridge/dispatch"
	"github.com/signalapp/hostbridge/health"
	"github.com/signalapp/hostbridge/host"
	"github.com/signalapp/hostbridge/logger"
	"github.com/signalapp/hostbridge/transport"
	"github.com/signalapp/hostbridge/util"
	"github.com/signalapp/hostbridge/web/handlers"
	"github.com/signalapp/hostbridge/web/middleware"

	pb "github.com/signalapp/hostbridge/proto"
)

// Start runs the bridge over conn and only returns when a component has
// encountered an unrecoverable error or the provided context has been
// cancelled. Host notifications go to notifier, or are logged if it is nil.
func Start(ctx context.Context, cfg *config.Config, conn transport.Conn, notifier dispatch.Notifier) error {
	runtimeID, err := cfg.Namespace()
	if err != nil {
		return fmt.Errorf("runtime id: %w", err)
	}
	if notifier == nil {
		notifier = logNotifier{}
	}

	g, ctx := errgroup.WithContext(ctx)

	// Start up the control server immediately, for debugging and liveness checking.
	ln, err := net.Listen("tcp", cfg.ControlListenAddr)
	if err != nil {
		return fmt.Errorf("control listener: %w", err)
	}
	live, ready := health.New("live", errors.New("waiting for host")), health.New("ready", errors.New("waiting for host"))

	dispatcher := dispatch.New(conn, &util.TxGenerator{}, notifier)
	g.Go(func() error { return dispatcher.Run(ctx) })
	bridge := host.New(dispatcher, runtimeID)
	logger.WithGlobal(zap.Stringer("runtime", runtimeID))

	controlServer := &http.Server{Handler: controlMux(cfg, bridge, live, ready)}
	g.Go(func() error {
		logger.Infof("Starting control http server on %v", ln.Addr())
		if err := controlServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return controlServer.Close()
	})

	// The host is connected and the servers are serving, start checking liveness.
	g.Go(func() error {
		return live.Monitor(ctx, cfg.LivenessCheckPeriod, cfg.LivenessCheckTimeout, func(ctx context.Context) error {
			_, err := bridge.Identity(ctx)
			return err
		})
	})

	g.Go(func() error {
		if err := awaitHost(ctx, cfg, bridge); err != nil {
			return err
		}
		// Fully capable of servicing requests, mark ready.
		ready.Set(nil)
		return nil
	})

	return g.Wait()
}

func controlMux(cfg *config.Config, bridge host.Host, live, ready *health.Health) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/health/live", middleware.Instrument(live))
	mux.Handle("/health/ready", middleware.Instrument(ready))
	mux.Handle("/control/loglevel", middleware.Instrument(handlers.NewSetLogLevel(cfg)))
	mux.Handle("/control/identity", middleware.Instrument(handlers.NewIdentity(bridge)))
	mux.Handle("/control/bundles", middleware.Instrument(handlers.NewBundles(bridge)))
	mux.Handle("/control/volumes", middleware.Instrument(handlers.NewVolumes(bridge)))
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}

// awaitHost waits until the host answers an identity request, then
// registers for the configured notifications.
func awaitHost(ctx context.Context, cfg *config.Config, bridge *host.Bridge) error {
	id, err := util.RetrySupplierWithBackoff(ctx, func() (pb.NodeID, error) {
		ctx, cancel := context.WithTimeout(ctx, cfg.LivenessCheckTimeout)
		defer cancel()
		return bridge.Identity(ctx)
	}, cfg.Transport.MinDialSleep, cfg.Transport.MaxDialSleep, func(err error) {
		logger.Warnw("host identity unavailable", "err", err)
	})
	if err != nil {
		return fmt.Errorf("fetching host identity: %w", err)
	}
	logger.WithGlobal(zap.Stringer("host", id))
	logger.Infow("connected to host")

	if !cfg.Notify.Enabled() {
		return nil
	}
	opts := host.RegisterNotifyOpts{RuntimeBlock: cfg.Notify.RuntimeBlock}
	for _, tag := range cfg.Notify.EventTags {
		opts.RuntimeEvent = append(opts.RuntimeEvent, []byte(tag))
	}
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	if err := bridge.RegisterNotify(ctx, opts); err != nil {
		return fmt.Errorf("registering for notifications: %w", err)
	}
	logger.Infow("registered for host notifications", "block", opts.RuntimeBlock, "tags", cfg.Notify.EventTags)
	return nil
}

type logNotifier struct{}

func (logNotifier) Notify(n pb.RuntimeNotifyRequest) {
	if n.RuntimeBlock != nil {
		logger.Infow("runtime block", "round", *n.RuntimeBlock)
	}
	if n.RuntimeEvent != nil {
		logger.Infow("runtime event", "round", n.RuntimeEvent.Round, "tags", len(n.RuntimeEvent.Tags))
	}
}
