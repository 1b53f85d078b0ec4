package internal

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/markusressel/fancontrol/internal/api"
	"github.com/markusressel/fancontrol/internal/board"
	"github.com/markusressel/fancontrol/internal/configuration"
	"github.com/markusressel/fancontrol/internal/sources"
	"github.com/markusressel/fancontrol/internal/statistics"
	"github.com/markusressel/fancontrol/internal/ui"
	"github.com/markusressel/fancontrol/internal/util"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RunDaemon runs the board-mode control loop until a shutdown signal arrives.
// The returned value is the process exit code: hang-up and interrupt are a
// graceful stop (0), terminate and quit report an abnormal stop (1), as do
// configuration, hardware and actuation errors.
func RunDaemon(configPath string) int {
	if getProcessOwner() != "root" {
		ui.Error("Fan control requires root permissions to be able to modify hardware registers, please run fancontrol as root")
		return 1
	}

	config, err := configuration.LoadFile(configPath)
	if err != nil {
		ui.Error("fancontrol: %v", err)
		return 1
	}

	if err = assertHardwareAccess(config); err != nil {
		ui.Error("fancontrol: %v", err)
		return 1
	}

	lock := board.NewPidFileLock(configuration.CurrentDaemonConfig.PidPath)
	if err = lock.Acquire(); err != nil {
		ui.Error("fancontrol: %v", err)
		return 1
	}
	defer lock.Release()

	thermal := board.NewThermalHandover(config.ControlModePath)
	if err = thermal.Acquire(); err != nil {
		ui.Error("fancontrol: %v", err)
		return 1
	}
	defer thermal.Restore()

	ownsPwm := config.ControlMode == configuration.ControlModeUser
	pwmHandover := board.NewPwmHandover(config)
	if ownsPwm {
		if err = pwmHandover.Acquire(); err != nil {
			ui.Error("fancontrol: %v", err)
			return 1
		}
		defer pwmHandover.Restore()
	}

	manager, err := sources.NewManager(config.Sources)
	if err != nil {
		ui.Error("fancontrol: %v", err)
		return 1
	}

	registerCollectors(manager)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager.Start(ctx)
	defer manager.Stop()

	loop := board.NewControlLoop(config, manager, configuration.CurrentDaemonConfig.StatusPath)

	var g run.Group
	{
		// === control loop
		g.Add(func() error {
			err := loop.Run(ctx)
			ui.Info("Control loop stopped.")
			return err
		}, func(err error) {
			if err != nil {
				ui.Warning("Error in control loop: %v", err)
			}
			cancel()
		})
	}
	{
		enabled := configuration.CurrentDaemonConfig.Statistics.Enabled
		if enabled {
			// === Prometheus Exporter
			g.Add(func() error {
				port := configuration.CurrentDaemonConfig.Statistics.Port
				if port <= 0 || port >= 65535 {
					port = 9441
				}
				addr := fmt.Sprintf("%s:%d", configuration.CurrentDaemonConfig.Statistics.Host, port)
				handler := promhttp.Handler()
				mux := http.NewServeMux()
				mux.Handle("/metrics", handler)
				server := &http.Server{Addr: addr, Handler: mux}

				go func() {
					<-ctx.Done()
					ui.Info("Stopping statistics server...")
					timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer timeoutCancel()
					_ = server.Shutdown(timeoutCtx)
				}()

				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					ui.Error("Cannot start prometheus metrics endpoint (%s)", err.Error())
					return err
				}
				return nil
			}, func(err error) {
				if err != nil {
					ui.Warning("Error stopping statistics server: %v", err)
				} else {
					ui.Info("Statistics server stopped.")
				}
				cancel()
			})
		}
	}
	{
		enabled := configuration.CurrentDaemonConfig.Api.Enabled
		if enabled {
			// === REST API
			restServer := api.CreateRestService(config)
			g.Add(func() error {
				addr := fmt.Sprintf("%s:%d", configuration.CurrentDaemonConfig.Api.Host, configuration.CurrentDaemonConfig.Api.Port)

				go func() {
					<-ctx.Done()
					ui.Info("Stopping REST api...")
					timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer timeoutCancel()
					_ = restServer.Shutdown(timeoutCtx)
				}()

				if err := restServer.Start(addr); err != nil && err != http.ErrServerClosed {
					ui.Error("Cannot start REST api endpoint (%s)", err.Error())
					return err
				}
				return nil
			}, func(err error) {
				if err != nil {
					ui.Warning("Error stopping REST api: %v", err)
				} else {
					ui.Info("REST api stopped.")
				}
				cancel()
			})
		}
	}
	{
		// === signal handling
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

// assertHardwareAccess fails before any hardware state is touched, a partially
// acquired register set must never happen.
func assertHardwareAccess(config *configuration.Config) error {
	if config.ControlMode == configuration.ControlModeUser {
		if !util.IsWritable(config.PwmPath) {
			return fmt.Errorf("PWM path is not writable: %s", config.PwmPath)
		}
		if util.FileExists(config.PwmEnablePath) && !util.IsWritable(config.PwmEnablePath) {
			return fmt.Errorf("PWM enable path is not writable: %s", config.PwmEnablePath)
		}
	}
	if !util.IsWritable(config.ControlModePath) {
		return fmt.Errorf("control mode path is not writable: %s", config.ControlModePath)
	}
	return nil
}

func registerCollectors(manager *sources.Manager) {
	sourceCollector := statistics.NewSourceCollector(manager.Sources())
	statistics.Register(sourceCollector)

	boardCollector := statistics.NewBoardCollector(func() *statistics.StatusSample {
		status := board.LatestStatus()
		if status == nil {
			return nil
		}
		return &statistics.StatusSample{
			PwmCurrent: status.Pwm.Current,
			PwmTarget:  status.Pwm.Target,
			PwmApplied: status.Pwm.Applied,
			AnyValid:   status.Safety.AnyValid,
			AnyTimeout: status.Safety.AnyTimeout,
			Critical:   status.Safety.Critical,
		}
	})
	statistics.Register(boardCollector)
}

func getProcessOwner() string {
	stdout, err := exec.Command("ps", "-o", "user=", "-p", strconv.Itoa(os.Getpid())).Output()
	if err != nil {
		ui.Error("%v", err)
		os.Exit(1)
	}
	return strings.TrimSpace(string(stdout))
}
