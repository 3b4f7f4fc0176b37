package engine

import (
	"fmt"
	"strings"

	"github.com/nizalia829/roller-coaster-builder/internal/dispatcher"
	"github.com/nizalia829/roller-coaster-builder/internal/parser"
	"github.com/nizalia829/roller-coaster-builder/internal/util"
	"github.com/nizalia829/roller-coaster-builder/pkg/core"
)

// Commands accepted from the host editor.
const (
	CmdPathAdd    = ":PATH:ADD:"
	CmdPathInsert = ":PATH:INSERT:"
	CmdPathMove   = ":PATH:MOVE:"
	CmdPathDelete = ":PATH:DELETE:"
	CmdPathTilt   = ":PATH:TILT:"
	CmdPathLoop   = ":PATH:LOOP:"
	CmdPathUnloop = ":PATH:UNLOOP:"
	CmdPathClose  = ":PATH:CLOSE:"

	CmdRideStart = ":RIDE:START:"
	CmdRideStop  = ":RIDE:STOP:"
	CmdRideTick  = ":RIDE:TICK:"
	CmdRideSpeed = ":RIDE:SPEED:"
	CmdRideChain = ":RIDE:CHAIN:"

	// CmdTelemetry is emitted by the engine, never sent to it.
	CmdTelemetry = ":TELEMETRY:"
)

// RegisterHandlers registers every editor command with d. Commands are
// synchronous: each edit must be visible to the next command.
func (e *Engine) RegisterHandlers(d *dispatcher.Dispatcher) {
	d.Register(CmdPathAdd, e.handleAdd, dispatcher.Logged())
	d.Register(CmdPathInsert, e.handleInsert, dispatcher.Logged())
	d.Register(CmdPathMove, e.handleMove, dispatcher.Logged())
	d.Register(CmdPathDelete, e.handleDelete, dispatcher.Logged())
	d.Register(CmdPathTilt, e.handleTilt, dispatcher.Logged())
	d.Register(CmdPathLoop, e.handleLoop, dispatcher.Logged())
	d.Register(CmdPathUnloop, e.handleUnloop, dispatcher.Logged())
	d.Register(CmdPathClose, e.handleClose, dispatcher.Logged())

	d.Register(CmdRideStart, e.handleStart, dispatcher.Logged())
	d.Register(CmdRideStop, e.handleStop, dispatcher.Logged())
	// ticks arrive every frame; keep them out of the debug log
	d.Register(CmdRideTick, e.handleTick)
	d.Register(CmdRideSpeed, e.handleSpeed, dispatcher.Logged())
	d.Register(CmdRideChain, e.handleChain, dispatcher.Logged())
}

func (e *Engine) handleAdd(ev dispatcher.Event) (any, error) {
	pos, _, err := parser.ParseVec3(ev.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to add point: %w", err)
	}
	return e.AddPoint(pos)
}

func (e *Engine) handleInsert(ev dispatcher.Event) (any, error) {
	if len(ev.Args) < 2 {
		return nil, fmt.Errorf("failed to insert point: expected id and position, got %d args", len(ev.Args))
	}
	after, err := parser.ParsePointID(ev.Args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to insert point: %w", err)
	}
	pos, _, err := parser.ParseVec3(ev.Args[1:])
	if err != nil {
		return nil, fmt.Errorf("failed to insert point: %w", err)
	}
	return e.InsertPoint(after, pos)
}

func (e *Engine) handleMove(ev dispatcher.Event) (any, error) {
	if len(ev.Args) < 2 {
		return nil, fmt.Errorf("failed to move point: expected id and position, got %d args", len(ev.Args))
	}
	id, err := parser.ParsePointID(ev.Args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to move point: %w", err)
	}
	pos, _, err := parser.ParseVec3(ev.Args[1:])
	if err != nil {
		return nil, fmt.Errorf("failed to move point: %w", err)
	}
	if err := e.MovePoint(id, pos); err != nil {
		return nil, fmt.Errorf("failed to move point %d: %w", id, err)
	}
	return nil, nil
}

func (e *Engine) handleDelete(ev dispatcher.Event) (any, error) {
	id, err := firstID(ev.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to delete point: %w", err)
	}
	if err := e.DeletePoint(id); err != nil {
		return nil, fmt.Errorf("failed to delete point %d: %w", id, err)
	}
	return nil, nil
}

func (e *Engine) handleTilt(ev dispatcher.Event) (any, error) {
	if len(ev.Args) != 2 {
		return nil, fmt.Errorf("failed to set tilt: expected id and degrees, got %d args", len(ev.Args))
	}
	id, err := parser.ParsePointID(ev.Args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to set tilt: %w", err)
	}
	deg, err := parser.ParseFloat(ev.Args[1])
	if err != nil {
		return nil, fmt.Errorf("failed to set tilt: %w", err)
	}
	if err := e.SetTilt(id, deg); err != nil {
		return nil, fmt.Errorf("failed to set tilt on %d: %w", id, err)
	}
	return nil, nil
}

func (e *Engine) handleLoop(ev dispatcher.Event) (any, error) {
	id, err := firstID(ev.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to create loop: %w", err)
	}
	spec, err := parser.ParseLoop(ev.Args[1:], e.cfg.DefaultLoop)
	if err != nil {
		return nil, fmt.Errorf("failed to create loop: %w", err)
	}
	if err := e.CreateLoop(id, spec); err != nil {
		return nil, fmt.Errorf("failed to create loop at %d: %w", id, err)
	}
	return nil, nil
}

func (e *Engine) handleUnloop(ev dispatcher.Event) (any, error) {
	id, err := firstID(ev.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to remove loop: %w", err)
	}
	if err := e.RemoveLoop(id); err != nil {
		return nil, fmt.Errorf("failed to remove loop at %d: %w", id, err)
	}
	return nil, nil
}

func (e *Engine) handleClose(ev dispatcher.Event) (any, error) {
	closed := true
	if len(ev.Args) > 0 {
		v, err := parser.ParseBool(ev.Args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to set closed: %w", err)
		}
		closed = v
	}
	e.SetClosed(closed)
	return nil, nil
}

func (e *Engine) handleStart(dispatcher.Event) (any, error) {
	s, err := e.StartRide()
	if err != nil {
		return nil, fmt.Errorf("failed to start ride: %w", err)
	}
	return s.ID, nil
}

func (e *Engine) handleStop(dispatcher.Event) (any, error) {
	e.StopRide()
	return nil, nil
}

func (e *Engine) handleTick(ev dispatcher.Event) (any, error) {
	if len(ev.Args) != 1 {
		return nil, fmt.Errorf("failed to tick: expected delta seconds, got %d args", len(ev.Args))
	}
	dt, err := parser.ParseFloat(ev.Args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to tick: %w", err)
	}
	return e.Tick(dt), nil
}

func (e *Engine) handleSpeed(ev dispatcher.Event) (any, error) {
	if len(ev.Args) != 1 {
		return nil, fmt.Errorf("failed to set speed: expected multiplier, got %d args", len(ev.Args))
	}
	m, err := parser.ParseFloat(ev.Args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to set speed: %w", err)
	}
	e.SetSpeedMultiplier(m)
	return nil, nil
}

func (e *Engine) handleChain(ev dispatcher.Event) (any, error) {
	if len(ev.Args) != 1 {
		return nil, fmt.Errorf("failed to set chain lift: expected on/off, got %d args", len(ev.Args))
	}
	on, err := parser.ParseBool(ev.Args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to set chain lift: %w", err)
	}
	e.SetChainLift(on)
	return nil, nil
}

func firstID(args []string) (core.PointID, error) {
	if len(args) == 0 || strings.TrimSpace(util.TrimQuotes(args[0])) == "" {
		return 0, fmt.Errorf("missing point id")
	}
	return parser.ParsePointID(args[0])
}
