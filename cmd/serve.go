package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/KaramelBytes/demograph-cli/internal/server"
	"github.com/KaramelBytes/demograph-cli/internal/views"
	"github.com/KaramelBytes/demograph-cli/internal/watch"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	srvAddr  string
	srvWatch bool
	srvInput inputFlags
)

var serveCmd = &cobra.Command{
	Use:   "serve [file]",
	Short: "Serve the prepared table, chart data and metrics over HTTP",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := dataPath(args)
		if err != nil {
			return err
		}
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		sc := *c
		if cmd.Flags().Changed("addr") {
			sc.ListenAddr = srvAddr
		}
		if cmd.Flags().Changed("watch") {
			sc.Watch = srvWatch
		}
		opt, err := srvInput.options(&sc)
		if err != nil {
			return err
		}

		t, err := loadTable(cmd, path, &srvInput)
		if err != nil {
			return err
		}
		holder := server.NewHolder(t)

		var srvOpts []server.Option
		if vs, err := views.Open(sc.ViewsDir); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: saved views unavailable: %v\n", err)
		} else {
			srvOpts = append(srvOpts, server.WithViews(vs))
		}
		srv := server.New(&sc, holder, logger, srvOpts...)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return srv.Run(gctx) })
		if sc.Watch {
			w, err := watch.New(path, holder.ReloadFile(path, opt), sc.WatchDebounce(), logger)
			if err != nil {
				return err
			}
			g.Go(func() error { return w.Run(gctx) })
		}

		logger.Info("serving",
			zap.String("file", path),
			zap.String("addr", sc.ListenAddr),
			zap.Int("rows", t.Len()),
			zap.Bool("watch", sc.Watch),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Serving %d rows from %s on http://%s\n", t.Len(), path, sc.ListenAddr)
		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&srvAddr, "addr", "", "listen address (overrides config listen_addr)")
	serveCmd.Flags().BoolVar(&srvWatch, "watch", false, "reload the table when the file changes")
	srvInput.register(serveCmd)
}
