package visualizer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"pathviz/atomic_float"
	"pathviz/grid_world"
	"pathviz/pathfinding"
)

// Session is the application state of one visualizer page: the current grid, the pending
// marker placement, the wall-painting drag and the running replay. All grid edits go through
// a Session, which publishes an Event for every change.
//
// Methods are safe for concurrent use; http handlers and the websocket reader both call them.
type Session struct {
	mu sync.Mutex

	ctx     context.Context
	initial *grid_world.Grid
	grid    *grid_world.Grid

	placingStart   bool
	placingFinish  bool
	mouseIsPressed bool

	timing       Timing
	speed        *atomic_float.AtomicFloat64
	withDeadline func(context.Context) (context.Context, context.CancelFunc, error)
	debug        bool

	cancelReplay context.CancelFunc
	replayDone   chan struct{}

	events chan Event
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithTiming sets the replay pacing.
func WithTiming(timing Timing) SessionOption {
	return func(s *Session) { s.timing = timing }
}

// WithReplayDeadline derives each replay's context, e.g. to bound its duration.
func WithReplayDeadline(
	fn func(context.Context) (context.Context, context.CancelFunc, error),
) SessionOption {
	return func(s *Session) { s.withDeadline = fn }
}

// WithDebug prints each search to the console.
func WithDebug(debug bool) SessionOption {
	return func(s *Session) { s.debug = debug }
}

var (
	ErrReplayInProgress = errors.New("replay in progress")
	ErrInvalidSpeed     = errors.New("speed must be positive")
)

const eventBuffer = 64

// NewSession returns a session whose grid starts as initial. Events are published until
// ctx is cancelled.
func NewSession(
	ctx context.Context,
	initial *grid_world.Grid,
	options ...SessionOption,
) *Session {
	s := &Session{
		ctx:     ctx,
		initial: initial,
		grid:    initial,
		timing:  DefaultTiming,
		speed:   atomic_float.NewAtomicFloat64(1.0),
		withDeadline: func(ctx context.Context) (context.Context, context.CancelFunc, error) {
			innerCtx, cancel := context.WithCancel(ctx)
			return innerCtx, cancel, nil
		},
		events: make(chan Event, eventBuffer),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Events returns the session's ordered change notifications. There is a single consumer.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Grid returns the current grid value.
func (s *Session) Grid() *grid_world.Grid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid
}

// Replaying reports whether a replay is running.
func (s *Session) Replaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replayingLocked()
}

func (s *Session) replayingLocked() bool {
	if s.replayDone == nil {
		return false
	}
	select {
	case <-s.replayDone:
		return false
	default:
		return true
	}
}

func (s *Session) emit(ctx context.Context, event Event) bool {
	select {
	case s.events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

// setGrid installs next and publishes it. Callers hold mu.
func (s *Session) setGrid(next *grid_world.Grid) {
	s.grid = next
	s.emit(s.ctx, Event{Kind: GridChanged, Grid: next})
}

// SelectStart makes the next mouse down place the start marker.
func (s *Session) SelectStart() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.replayingLocked() {
		return ErrReplayInProgress
	}
	s.placingStart, s.placingFinish = true, false
	return nil
}

// SelectFinish makes the next mouse down place the finish marker.
func (s *Session) SelectFinish() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.replayingLocked() {
		return ErrReplayInProgress
	}
	s.placingStart, s.placingFinish = false, true
	return nil
}

// MouseDown places a pending marker at (row, col), or else toggles the wall there and
// begins a drag.
func (s *Session) MouseDown(row, col int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.replayingLocked() {
		return ErrReplayInProgress
	}

	target := grid_world.Coord{Row: row, Col: col}
	switch {
	case s.placingStart:
		next, err := s.grid.MoveStart(target)
		if err != nil {
			return err
		}
		s.placingStart = false
		s.setGrid(next)
	case s.placingFinish:
		next, err := s.grid.MoveFinish(target)
		if err != nil {
			return err
		}
		s.placingFinish = false
		s.setGrid(next)
	default:
		s.mouseIsPressed = true
		next, err := s.grid.ToggleWall(row, col)
		if err != nil {
			return err
		}
		s.setGrid(next)
	}
	return nil
}

// MouseEnter toggles the wall at (row, col) while a drag is in progress.
func (s *Session) MouseEnter(row, col int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mouseIsPressed {
		return nil
	}
	if s.replayingLocked() {
		return ErrReplayInProgress
	}

	next, err := s.grid.ToggleWall(row, col)
	if err != nil {
		return err
	}
	s.setGrid(next)
	return nil
}

// MouseUp ends a drag.
func (s *Session) MouseUp() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mouseIsPressed = false
}

// ToggleWall flips the wall at c.
func (s *Session) ToggleWall(c grid_world.Coord) error {
	return s.edit(func(g *grid_world.Grid) (*grid_world.Grid, error) {
		return g.ToggleWall(c.Row, c.Col)
	})
}

// MoveStart moves the start marker to c.
func (s *Session) MoveStart(c grid_world.Coord) error {
	return s.edit(func(g *grid_world.Grid) (*grid_world.Grid, error) {
		return g.MoveStart(c)
	})
}

// MoveFinish moves the finish marker to c.
func (s *Session) MoveFinish(c grid_world.Coord) error {
	return s.edit(func(g *grid_world.Grid) (*grid_world.Grid, error) {
		return g.MoveFinish(c)
	})
}

func (s *Session) edit(fn func(*grid_world.Grid) (*grid_world.Grid, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.replayingLocked() {
		return ErrReplayInProgress
	}
	next, err := fn(s.grid)
	if err != nil {
		return err
	}
	s.setGrid(next)
	return nil
}

// Search runs the engine over the current grid without replaying it.
func (s *Session) Search() (*pathfinding.Result, error) {
	grid := s.Grid()
	return pathfinding.Search(grid, grid.Start(), grid.Finish())
}

// Visualize searches the current grid and starts replaying the result. The returned result
// is complete; the replay proceeds in the background and ends with ReplayDone or
// ReplayCancelled.
func (s *Session) Visualize() (*pathfinding.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.replayingLocked() {
		return nil, ErrReplayInProgress
	}

	grid := s.grid
	result, err := pathfinding.Search(grid, grid.Start(), grid.Finish())
	if err != nil {
		return nil, fmt.Errorf("visualize: %w", err)
	}
	log.Printf("search %v -> %v: visited %d, path %d\n",
		grid.Start(), grid.Finish(), len(result.Visited), len(result.Path))
	if s.debug {
		grid_world.Show(grid, result.VisitedCoords(), result.PathCoords())
	}

	replayCtx, cancel, err := s.withDeadline(s.ctx)
	if err != nil {
		return nil, fmt.Errorf("visualize: %w", err)
	}
	// A fresh overlay starts from the plain grid.
	s.emit(s.ctx, Event{Kind: GridChanged, Grid: grid})

	done := make(chan struct{})
	s.cancelReplay, s.replayDone = cancel, done
	go func() {
		defer close(done)
		defer cancel()
		if err := Replay(replayCtx, result, s.timing, s.speed, func(e Event) bool {
			return s.emit(replayCtx, e)
		}); err != nil {
			s.emit(s.ctx, Event{Kind: ReplayCancelled})
		}
	}()
	return result, nil
}

// Wait blocks until the running replay, if any, has finished.
func (s *Session) Wait() {
	s.mu.Lock()
	done := s.replayDone
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Reset cancels any replay and restores the initial grid.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.replayingLocked() {
		s.cancelReplay()
		<-s.replayDone
	}
	s.placingStart, s.placingFinish, s.mouseIsPressed = false, false, false
	s.setGrid(s.initial)
}

// SetSpeed scales replay pacing; 2 replays twice as fast. It applies to a running replay.
func (s *Session) SetSpeed(factor float64) error {
	if factor <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidSpeed, factor)
	}
	s.speed.AtomicSet(factor)
	return nil
}

// Speed returns the current replay speed factor.
func (s *Session) Speed() float64 {
	return s.speed.AtomicRead()
}
