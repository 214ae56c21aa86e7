package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/control"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/sim"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the control API and drive ticks until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("addr") {
				cfg.Control.Addr, _ = flags.GetString("addr")
			}
			if flags.Changed("tick") {
				cfg.Engine.TickInterval, _ = flags.GetDuration("tick")
			}
			autostart, _ := flags.GetBool("start")

			rt, err := newApp(cfg)
			if err != nil {
				return err
			}
			session := control.NewSession(rt.engine)
			if autostart {
				session.Start()
			}

			lis, err := net.Listen("tcp", cfg.Control.Addr)
			if err != nil {
				rt.close()
				return fmt.Errorf("listen %s: %w", cfg.Control.Addr, err)
			}
			srv := grpc.NewServer()
			control.Register(srv, control.NewServer(session, logger))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				logger.Info("control server listening", zap.String("addr", lis.Addr().String()))
				return srv.Serve(lis)
			})
			g.Go(func() error {
				d := &sim.Driver{Interval: cfg.Engine.TickInterval, Target: session, Logger: logger}
				return d.Run(ctx)
			})
			g.Go(func() error {
				<-ctx.Done()
				logger.Info("shutting down")
				stopped := make(chan struct{})
				go func() {
					srv.GracefulStop()
					close(stopped)
				}()
				select {
				case <-stopped:
				case <-time.After(5 * time.Second):
					srv.Stop()
				}
				return nil
			})

			runErr := g.Wait()
			if err := rt.finish(session.Snapshot()); err != nil {
				return err
			}
			return runErr
		},
	}
	cmd.Flags().String("addr", "", "gRPC listen address (default from config)")
	cmd.Flags().Duration("tick", 0, "tick interval (default from config)")
	cmd.Flags().Bool("start", false, "start stepping immediately")
	return cmd
}
