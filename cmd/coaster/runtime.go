package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/nizalia829/roller-coaster-builder/internal/config"
	"github.com/nizalia829/roller-coaster-builder/internal/dispatcher"
	"github.com/nizalia829/roller-coaster-builder/internal/engine"
	"github.com/nizalia829/roller-coaster-builder/internal/logging"
	intOtel "github.com/nizalia829/roller-coaster-builder/internal/otel"
)

// runtime holds the logging, telemetry export and command plumbing shared
// by every subcommand.
type runtime struct {
	command    string
	startTime  time.Time
	logManager *logging.SlogManager
	log        *slog.Logger
	zlog       zerolog.Logger
	otel       *intOtel.Provider
	dispatcher *dispatcher.Dispatcher

	logFile *os.File
	graylog io.WriteCloser

	// set once before any ride starts; read by the log context provider
	engine *engine.Engine
}

func newRuntime(command string) (*runtime, error) {
	rt := &runtime{
		command:    command,
		startTime:  time.Now(),
		logManager: logging.NewSlogManager(),
	}

	var out io.Writer = os.Stdout
	if dir := viper.GetString("logsDir"); dir != "" {
		f, err := logging.OpenLogFile(dir, command, rt.startTime)
		if err != nil {
			return nil, err
		}
		rt.logFile = f
		out = f
	}

	level := viper.GetString("logLevel")
	zlevel, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		zlevel = zerolog.InfoLevel
	}
	rt.zlog = zerolog.New(out).Level(zlevel).With().Timestamp().Str("command", command).Logger()

	var file io.Writer
	if rt.logFile != nil {
		file = rt.logFile
	}

	otelCfg := config.GetOTelConfig()
	rt.otel, err = intOtel.New(intOtel.Config{
		Enabled:        otelCfg.Enabled,
		ServiceName:    otelCfg.ServiceName,
		ServiceVersion: Version,
		Command:        command,
		BatchTimeout:   otelCfg.BatchTimeout,
		LogWriter:      file,
		Endpoint:       otelCfg.Endpoint,
		Insecure:       otelCfg.Insecure,
	})
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to initialize OTel provider: %w", err)
	}

	opts := []logging.Option{logging.WithContext(rt.logContext)}
	if viper.GetBool("graylog.enabled") {
		w, err := logging.NewGraylogWriter(viper.GetString("graylog.address"))
		if err != nil {
			fmt.Fprintln(os.Stderr, "Graylog disabled:", err)
		} else {
			rt.graylog = w
			opts = append(opts, logging.WithGraylog(w))
		}
	}

	rt.logManager.Setup(file, level, rt.otel.LoggerProvider(), opts...)
	rt.log = rt.logManager.Logger().With("command", command)

	rt.dispatcher, err = dispatcher.New(logging.NewDispatcherLogger(rt.zlog))
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}
	return rt, nil
}

func (rt *runtime) logContext() []slog.Attr {
	if rt.engine == nil {
		return nil
	}
	return rt.engine.LogAttrs()
}

// attach creates the engine and registers its commands.
func (rt *runtime) attach(emit bool) (*engine.Engine, error) {
	var emitter engine.Emitter
	if emit {
		emitter = rt.dispatcher
	}
	e, err := engine.New(config.GetEngineConfig(), rt.log, emitter)
	if err != nil {
		return nil, err
	}
	e.RegisterHandlers(rt.dispatcher)
	rt.engine = e
	return e, nil
}

// Close drains the dispatcher and flushes and closes every log output.
func (rt *runtime) Close() {
	if rt.dispatcher != nil {
		rt.dispatcher.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.logManager.Flush(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to flush logs:", err)
	}
	if rt.otel != nil {
		if err := rt.otel.Shutdown(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "Failed to shut down OTel:", err)
		}
	}
	if rt.graylog != nil {
		_ = rt.graylog.Close()
	}
	if rt.logFile != nil {
		_ = rt.logFile.Close()
	}
}
