package internal

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/markusressel/fancontrol/internal/legacy"
	"github.com/markusressel/fancontrol/internal/ui"
	"github.com/oklog/run"
)

// RunLegacyDaemon runs the classic fancontrol mode until a shutdown signal
// arrives. The returned value is the process exit code, with the same signal
// semantics as the board-mode daemon.
func RunLegacyDaemon(configPath string) int {
	if getProcessOwner() != "root" {
		ui.Error("Fan control requires root permissions to be able to modify hardware registers, please run fancontrol as root")
		return 1
	}

	config, err := legacy.LoadConfig(configPath)
	if err != nil {
		ui.Error("fancontrol: %v", err)
		return 1
	}

	runner := legacy.NewRunner(config)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var g run.Group
	{
		g.Add(func() error {
			err := runner.Run(ctx)
			ui.Info("Legacy control loop stopped.")
			return err
		}, func(err error) {
			if err != nil {
				ui.Warning("Error in legacy control loop: %v", err)
			}
			cancel()
		})
	}
	{
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

		g.Add(func() error {
			select {
			case s := <-sig:
				switch s {
				case syscall.SIGHUP, syscall.SIGINT:
					ui.Info("Received %v signal, exiting...", s)
					return nil
				default:
					ui.Warning("Received %v signal, exiting...", s)
					return fmt.Errorf("terminated by signal: %v", s)
				}
			case <-ctx.Done():
				return nil
			}
		}, func(err error) {
			signal.Stop(sig)
			cancel()
		})
	}

	if err := g.Run(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ui.Info("Done.")
	return 0
}
