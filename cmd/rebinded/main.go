// Command rebinded runs the keyboard and mouse-wheel remapping daemon.
package main

import (
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/Xevion/rebinded"
	"github.com/hashicorp/go-hclog"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", defaultConfigPath(), "path to the configuration file")
	logLevel := flag.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	flag.Parse()

	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "rebinded",
		Level: hclog.LevelFromString(*logLevel),
	})

	registry := rebinded.NewPlatformRegistry()
	loader := rebinded.NewLoader(registry)

	rc, diags, err := loader.LoadFile(*configPath)
	for _, d := range diags {
		logLine := d.Message
		if d.Help != "" {
			logLine += " (" + d.Help + ")"
		}
		if d.Severity == rebinded.SeverityWarning {
			logger.Warn(logLine, "offset", d.Span.Start)
		} else {
			logger.Error(logLine, "offset", d.Span.Start)
		}
	}
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		return exitCodeFor(err)
	}

	driver, err := rebinded.NewPlatformDriver(logger)
	if err != nil {
		logger.Error("failed to start platform driver", "error", err)
		return exitCodeFor(err)
	}

	handle := rebinded.Handle(driver)
	dispatcher, err := rebinded.NewDispatcher(rc, registry, handle, logger)
	if err != nil {
		logger.Error("failed to build dispatcher", "error", err)
		return 1
	}

	driverErr := make(chan error, 1)
	go func() {
		driverErr <- driver.Run(dispatcher.Dispatch)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sig:
		logger.Info("shutting down")
		driver.Stop()
		<-driverErr
	case err := <-driverErr:
		if err != nil {
			logger.Error("platform driver stopped unexpectedly", "error", err)
			return 1
		}
	}

	return 0
}

func exitCodeFor(err error) int {
	var startupErr *rebinded.StartupError
	if errors.As(err, &startupErr) {
		switch startupErr.Phase {
		case rebinded.PhaseConfigIO:
			return 2
		case rebinded.PhaseConfigParse:
			return 3
		case rebinded.PhaseConfigValidation:
			return 4
		case rebinded.PhasePlatformInit:
			return 5
		}
	}
	return 1
}

func defaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + "/rebinded/config.toml"
	}
	return "rebinded.toml"
}
