package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teslashibe/liftviz/internal/log"
	"github.com/teslashibe/liftviz/pkg/session"
	"github.com/teslashibe/liftviz/pkg/skeleton"
	"github.com/teslashibe/liftviz/pkg/web"
)

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.String("port", "8090", "HTTP port")
	f.Bool("watch", false, "reload custom lift definitions when they change")
	f.Float64("frame-rate", 60, "animation ticks per second while playing")
	f.Bool("autoplay", true, "start new sessions playing")
	a.v.BindPFlag("server.port", f.Lookup("port"))
	a.v.BindPFlag("skeleton.watch", f.Lookup("watch"))
	a.v.BindPFlag("animation.frame_rate", f.Lookup("frame-rate"))
	a.v.BindPFlag("animation.autoplay", f.Lookup("autoplay"))
	return cmd
}

func (a *app) serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	skeletons, profiles, err := a.registries()
	if err != nil {
		return err
	}

	if dir := a.cfg.Skeleton.CustomDir; dir != "" && a.cfg.Skeleton.Watch {
		w, err := skeleton.NewWatcher(skeletons, dir)
		if err != nil {
			return err
		}
		defer w.Close()
		w.OnReload(func(lift string) {
			profiles.Ensure(lift)
		})
	}

	sessions := session.NewManager(ctx, skeletons, profiles, a.cfg.DriverOptions())
	defer sessions.Close()

	srv := web.NewServer(a.cfg.Server.Port, sessions)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	log.Info("liftviz started",
		"port", a.cfg.Server.Port,
		"lifts", skeletons.List(),
		"frame_rate", a.cfg.Animation.FrameRate,
	)

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		if err := srv.Shutdown(); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
}
