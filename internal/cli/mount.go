package cli

import (
	"errors"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/brettbedarf/filetree/internal/util"
	"github.com/brettbedarf/filetree/metrics"
	"github.com/brettbedarf/filetree/server"
	"github.com/spf13/cobra"
)

func newMountCmd(a *app) *cobra.Command {
	var umount bool

	cmd := &cobra.Command{
		Use:   "mount MOUNTPOINT",
		Short: "Mount a read-only snapshot of the tree",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.mount(args[0], umount)
		},
	}
	cmd.Flags().BoolVarP(&umount, "umount", "u", false,
		"Unmount the fs first if needed before mounting again. Useful for debuggers that don't exit properly.")
	return cmd
}

func (a *app) mount(mnt string, umount bool) error {
	logger := util.GetLogger("cli.mount")

	if umount {
		// we ignore error here if not already mounted
		exec.Command("fusermount", "-u", mnt).Run() // nolint:errcheck
	}

	if addr := a.cfg.MetricsAddr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(a.registry))
		httpSrv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ErrorLog:          util.NewLogLogger("metrics", util.ErrorLevel),
		}
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Str("addr", addr).Msg("Metrics endpoint stopped")
			}
		}()
		defer httpSrv.Close()
		logger.Info().Str("addr", addr).Msg("Serving metrics")
	}

	srv := server.New(a.cfg, a.tree)

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(signalChan)

	mounted := srv.ServeAsync(mnt)
	for {
		select {
		case err, ok := <-mounted:
			if !ok {
				mounted = nil
				continue
			}
			if err != nil {
				return err
			}
			logger.Info().Str("mountpoint", mnt).Int("inodes", srv.Len()).Msg("Filesystem mounted successfully")
		case sig := <-signalChan:
			logger.Info().Str("signal", sig.String()).Msg("Received signal, unmounting filesystem")
			if mounted != nil {
				// let a pending mount finish so there is something to unmount
				if err := <-mounted; err != nil {
					return err
				}
			}
			if err := srv.Unmount(); err != nil {
				logger.Error().Err(err).Msg("Failed to unmount filesystem")
				return err
			}
			logger.Info().Msg("Filesystem unmounted successfully")
			return nil
		}
	}
}
