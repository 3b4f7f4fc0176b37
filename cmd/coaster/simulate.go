package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nizalia829/roller-coaster-builder/internal/config"
	"github.com/nizalia829/roller-coaster-builder/internal/dispatcher"
	"github.com/nizalia829/roller-coaster-builder/internal/engine"
	"github.com/nizalia829/roller-coaster-builder/internal/storage"
	"github.com/nizalia829/roller-coaster-builder/pkg/core"
)

type simulateOptions struct {
	track    string
	dt       float64
	duration float64

	// nil unless set on the command line or in the environment
	chainLift *bool
	speed     *float64
}

// rideSummary is what a finished simulation reports.
type rideSummary struct {
	SessionID  string
	EndState   core.RideState
	Ticks      uint
	Laps       int
	TopSpeed   float64
	MaxHeight  float64
	Duration   float64
	ExportPath string

	// filled in by backends that can read back what they stored
	StoredSessions int
	StoredSamples  int
}

func newSimulateCmd() *cobra.Command {
	opts := simulateOptions{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Ride a track file headlessly and record its telemetry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("chain-lift") {
				v := viper.GetBool("ride.chainLift")
				opts.chainLift = &v
			}
			if cmd.Flags().Changed("speed") {
				v := viper.GetFloat64("ride.speedMultiplier")
				opts.speed = &v
			}

			rt, err := newRuntime("simulate")
			if err != nil {
				return err
			}
			defer rt.Close()

			sum, err := runSimulate(rt, opts)
			if err != nil {
				rt.log.Error("simulation failed", "error", err)
				return err
			}
			printSummary(cmd.OutOrStdout(), sum)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.track, "track", "", "track file to ride")
	cmd.Flags().Float64Var(&opts.dt, "dt", 1.0/60, "simulated seconds per tick")
	cmd.Flags().Float64Var(&opts.duration, "duration", 120, "maximum simulated seconds")
	cmd.Flags().Float64("speed", 1, "ride speed multiplier")
	cmd.Flags().Bool("chain-lift", false, "pull the train up to the first peak")
	_ = cmd.MarkFlagRequired("track")
	return cmd
}

func runSimulate(rt *runtime, opts simulateOptions) (rideSummary, error) {
	if opts.dt <= 0 {
		return rideSummary{}, fmt.Errorf("dt must be positive, got %g", opts.dt)
	}
	if opts.duration <= 0 {
		return rideSummary{}, fmt.Errorf("duration must be positive, got %g", opts.duration)
	}

	tf, err := LoadTrackFile(opts.track)
	if err != nil {
		return rideSummary{}, err
	}

	e, err := rt.attach(true)
	if err != nil {
		return rideSummary{}, err
	}

	backend, err := storage.NewBackend(config.GetStorageConfig(), rt.zlog, rt.log)
	if err != nil {
		return rideSummary{}, err
	}
	if err := backend.Init(); err != nil {
		return rideSummary{}, fmt.Errorf("failed to init %s storage: %w", config.GetStorageConfig().Type, err)
	}
	backendClosed := false
	defer func() {
		if !backendClosed {
			rt.dispatcher.Close()
			_ = backend.Close()
		}
	}()

	// the worker goroutine writes ended; it is read after the dispatcher
	// has drained
	var ended *core.RideSession
	store := storage.Handler(backend)
	rt.dispatcher.Register(engine.CmdTelemetry, func(ev dispatcher.Event) (any, error) {
		if t, ok := ev.Payload.(core.Telemetry); ok && t.Kind == core.TelemetryEnd {
			ended = t.Session
		}
		return store(ev)
	}, dispatcher.Buffered(1024), dispatcher.Blocking())

	if err := tf.Replay(rt.dispatcher); err != nil {
		return rideSummary{}, fmt.Errorf("failed to build track: %w", err)
	}
	chain, speed := opts.chainLift, opts.speed
	if chain == nil && tf.ChainLift == nil {
		v := viper.GetBool("ride.chainLift")
		chain = &v
	}
	if speed == nil && tf.SpeedMultiplier == nil {
		v := viper.GetFloat64("ride.speedMultiplier")
		speed = &v
	}
	if err := tf.ApplyRide(rt.dispatcher, chain, speed); err != nil {
		return rideSummary{}, err
	}

	if _, err := rt.dispatcher.Dispatch(dispatcher.Event{Command: engine.CmdRideStart}); err != nil {
		return rideSummary{}, err
	}

	tick := dispatcher.Event{Command: engine.CmdRideTick, Args: []string{floatArg(opts.dt)}}
	maxHeight := e.Status().MaxHeight
	for elapsed := 0.0; elapsed < opts.duration && e.Status().State.Running(); elapsed += opts.dt {
		if _, err := rt.dispatcher.Dispatch(tick); err != nil {
			return rideSummary{}, err
		}
		maxHeight = max(maxHeight, e.Status().MaxHeight)
	}
	if e.Status().State.Running() {
		if _, err := rt.dispatcher.Dispatch(dispatcher.Event{Command: engine.CmdRideStop}); err != nil {
			return rideSummary{}, err
		}
	}

	rt.log.Debug("draining telemetry", "pending", rt.dispatcher.Pending(engine.CmdTelemetry))
	rt.dispatcher.Close()
	if ended == nil {
		return rideSummary{}, errors.New("ride produced no session summary")
	}
	var stored []core.RideSession
	var samples []core.RideSample
	if r, ok := backend.(storage.Reader); ok {
		if stored, err = r.Sessions(); err == nil {
			samples, err = r.Samples(ended.ID)
		}
		if err != nil {
			return rideSummary{}, fmt.Errorf("failed to read back session %s: %w", ended.ID, err)
		}
	}
	backendClosed = true
	if err := backend.Close(); err != nil {
		return rideSummary{}, fmt.Errorf("failed to close storage: %w", err)
	}

	sum := rideSummary{
		SessionID: ended.ID,
		EndState:  ended.EndState,
		Ticks:     ended.Ticks,
		Laps:      ended.Laps,
		TopSpeed:  ended.TopSpeed,
		MaxHeight: maxHeight,
		Duration:  ended.Duration,

		StoredSessions: len(stored),
		StoredSamples:  len(samples),
	}
	if ex, ok := backend.(storage.Exporter); ok {
		sum.ExportPath = ex.ExportedFilePath()
	}
	rt.log.Info("simulation finished",
		"session", sum.SessionID,
		"endState", sum.EndState,
		"ticks", sum.Ticks,
		"laps", sum.Laps,
		"topSpeed", sum.TopSpeed,
		"maxHeight", sum.MaxHeight,
		"export", sum.ExportPath,
	)
	return sum, nil
}

func printSummary(w io.Writer, s rideSummary) {
	fmt.Fprintf(w, "session:   %s\n", s.SessionID)
	fmt.Fprintf(w, "end state: %s\n", s.EndState)
	fmt.Fprintf(w, "ticks:     %d\n", s.Ticks)
	fmt.Fprintf(w, "laps:      %d\n", s.Laps)
	fmt.Fprintf(w, "top speed: %.2f m/s\n", s.TopSpeed)
	fmt.Fprintf(w, "peak:      %.2f m\n", s.MaxHeight)
	fmt.Fprintf(w, "duration:  %.2f s\n", s.Duration)
	if s.ExportPath != "" {
		fmt.Fprintf(w, "export:    %s\n", s.ExportPath)
	}
	if s.StoredSessions > 0 {
		fmt.Fprintf(w, "stored:    %d samples, %d sessions in database\n", s.StoredSamples, s.StoredSessions)
	}
}
