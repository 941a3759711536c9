package visualizer

import (
	"context"
	"time"

	"pathviz/atomic_float"
	"pathviz/grid_world"
	"pathviz/pathfinding"
)

// EventKind tags what changed in the session.
type EventKind int

const (
	// GridChanged carries a new grid value; any replay overlay is no longer current.
	GridChanged EventKind = iota
	// NodeVisited marks the Step'th node of the visited order.
	NodeVisited
	// PathNode marks the Step'th node of the shortest path.
	PathNode
	// ReplayDone ends a replay that ran to completion.
	ReplayDone
	// ReplayCancelled ends a replay that was reset or timed out.
	ReplayCancelled
)

func (k EventKind) String() string {
	switch k {
	case GridChanged:
		return "grid-changed"
	case NodeVisited:
		return "node-visited"
	case PathNode:
		return "path-node"
	case ReplayDone:
		return "replay-done"
	case ReplayCancelled:
		return "replay-cancelled"
	}
	return "unknown"
}

// Event is a single session change, published in order on the session's event channel.
type Event struct {
	Kind  EventKind
	Grid  *grid_world.Grid
	Coord grid_world.Coord
	Step  int
	// Totals of the search being replayed.
	Visited    int
	PathLength int
	Found      bool
}

// Timing is the replay pacing: one visited node per VisitedDelay, then one path node
// per PathDelay.
type Timing struct {
	VisitedDelay time.Duration
	PathDelay    time.Duration
}

// DefaultTiming paces a replay at 10ms per visited node and 50ms per path node.
var DefaultTiming = Timing{
	VisitedDelay: 10 * time.Millisecond,
	PathDelay:    50 * time.Millisecond,
}

// Replay emits the visited order and then the path of result, paced by timing and divided
// by the current speed factor, which may change while the replay runs. It returns
// ctx.Err() if cancelled and nil once ReplayDone has been emitted. emit must return false
// if the event could not be delivered, which aborts the replay.
func Replay(
	ctx context.Context,
	result *pathfinding.Result,
	timing Timing,
	speed *atomic_float.AtomicFloat64,
	emit func(Event) bool,
) error {
	summary := Event{
		Visited:    len(result.Visited),
		PathLength: len(result.Path),
		Found:      result.Found,
	}
	phases := []struct {
		kind  EventKind
		nodes []*grid_world.Node
		delay time.Duration
	}{
		{NodeVisited, result.Visited, timing.VisitedDelay},
		{PathNode, result.Path, timing.PathDelay},
	}

	for _, phase := range phases {
		for i, node := range phase.nodes {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(scaled(phase.delay, speed)):
			}

			event := summary
			event.Kind = phase.kind
			event.Coord = node.Coord()
			event.Step = i
			if !emit(event) {
				return ctx.Err()
			}
		}
	}

	done := summary
	done.Kind = ReplayDone
	if !emit(done) {
		return ctx.Err()
	}
	return nil
}

func scaled(delay time.Duration, speed *atomic_float.AtomicFloat64) time.Duration {
	if speed == nil {
		return delay
	}
	factor := speed.AtomicRead()
	if factor <= 0 {
		return delay
	}
	return time.Duration(float64(delay) / factor)
}
