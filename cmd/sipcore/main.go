// Command sipcore runs a SIP server answering REGISTER and OPTIONS requests
// on the configured UDP, TCP and WebSocket listeners.
//
// Usage:
//
//	sipcore [-config sipcore.toml]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"braces.dev/errtrace"
	"golang.org/x/sync/errgroup"

	"github.com/ghettovoice/sipcore/internal/log"
	"github.com/ghettovoice/sipcore/sip"
	"github.com/ghettovoice/sipcore/sip/transport"
)

func main() {
	cfgPath := flag.String("config", "", "path to the TOML configuration file")
	flag.Parse()

	if err := run(*cfgPath); err != nil {
		fmt.Fprintf(os.Stderr, "sipcore: %v\n", err)
		os.Exit(1)
	}
}

type server interface {
	HandleFunc(method sip.RequestMethod, fn func(ctx context.Context, req *sip.Message) sip.Result)
	Serve(ctx context.Context, tp sip.Transport) error
}

func run(cfgPath string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return errtrace.Wrap(err)
	}

	logger := cfg.logger()
	log.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := newServer(cfg, logger)
	srv.HandleFunc(sip.RequestMethodRegister, func(ctx context.Context, req *sip.Message) sip.Result {
		logger.LogAttrs(ctx, slog.LevelInfo, "registration received", slog.Any("request", req))
		return sip.Respond(sip.ResponseStatusOK, "OK")
	})
	srv.HandleFunc(sip.RequestMethodOptions, func(context.Context, *sip.Message) sip.Result {
		return sip.Respond(sip.ResponseStatusOK, "OK")
	})

	tps, closers, err := listen(ctx, cfg, logger)
	defer func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				logger.LogAttrs(context.Background(), slog.LevelWarn, "failed to close listener", slog.Any("error", err))
			}
		}
	}()
	if err != nil {
		return errtrace.Wrap(err)
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, tp := range tps {
		g.Go(func() error {
			err := srv.Serve(ctx, tp)
			if errors.Is(err, sip.ErrTransportClosed) && ctx.Err() != nil {
				return nil
			}
			return errtrace.Wrap(err)
		})
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "server started",
		slog.String("mode", cfg.Mode),
		slog.Any("listen", cfg.Listen),
	)
	err = g.Wait()
	logger.LogAttrs(context.Background(), slog.LevelInfo, "server stopped")
	return errtrace.Wrap(err)
}

func newServer(cfg config, logger *slog.Logger) server {
	opts := &sip.ServerOptions{
		Logger: logger,
		TransactionTable: &sip.TransactionTableOptions{
			LingerTime: cfg.TransactionLinger,
			Logger:     logger,
		},
	}
	if cfg.Mode == modeStateless {
		return sip.NewStatelessServer(opts)
	}
	return sip.NewStatefulServer(opts)
}

func listen(ctx context.Context, cfg config, logger *slog.Logger) ([]sip.Transport, []io.Closer, error) {
	var (
		tps     []sip.Transport
		closers []io.Closer
	)
	for _, l := range cfg.Listen {
		switch l.Network {
		case "udp":
			conn, err := transport.ListenUDP(ctx, l.Addr, &transport.UDPOptions{Options: transport.Options{Logger: logger}})
			if err != nil {
				return tps, closers, errtrace.Wrap(err)
			}
			closers = append(closers, conn)
			tps = append(tps, sip.NewPacketTransport(conn, &sip.PacketTransportOptions{Logger: logger}))
		case "tcp":
			ls, err := transport.ListenTCP(ctx, l.Addr, &transport.Options{Logger: logger})
			if err != nil {
				return tps, closers, errtrace.Wrap(err)
			}
			closers = append(closers, ls)
			tps = append(tps, sip.NewStreamTransport(ls, &sip.StreamTransportOptions{
				ReadLimit:   cfg.TCPReadLimit,
				ReadTimeout: cfg.TCPReadTimeout,
				Logger:      logger,
			}))
		case "ws":
			conn, err := transport.ListenWS(ctx, l.Addr, &transport.WSOptions{Options: transport.Options{Logger: logger}})
			if err != nil {
				return tps, closers, errtrace.Wrap(err)
			}
			closers = append(closers, conn)
			tps = append(tps, sip.NewPacketTransport(conn, &sip.PacketTransportOptions{Logger: logger}))
		default:
			return tps, closers, fmt.Errorf("unexpected listen network %q", l.Network)
		}
	}
	return tps, closers, nil
}
