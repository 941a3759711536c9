package visualizer

import (
	"context"
	"errors"
	"testing"
	"time"

	"pathviz/atomic_float"
	"pathviz/grid_world"
	"pathviz/pathfinding"

	. "github.com/smartystreets/goconvey/convey"
)

type coord = grid_world.Coord

func newTestSession(ctx context.Context, options ...SessionOption) *Session {
	grid, err := grid_world.FromLayout([]string{
		"Sooo",
		"oWoo",
		"oooF",
	})
	if err != nil {
		panic(err)
	}
	options = append([]SessionOption{WithTiming(Timing{})}, options...)
	return NewSession(ctx, grid, options...)
}

// collect drains events until one of the given kinds arrives, or fails after a timeout.
func collect(s *Session, until ...EventKind) (events []Event) {
	timeout := time.After(5 * time.Second)
	for {
		select {
		case event := <-s.Events():
			events = append(events, event)
			for _, kind := range until {
				if event.Kind == kind {
					return
				}
			}
		case <-timeout:
			return
		}
	}
}

// take reads exactly n events.
func take(s *Session, n int) (events []Event) {
	for i := 0; i < n; i++ {
		events = append(events, <-s.Events())
	}
	return
}

func TestSessionEdits(t *testing.T) {
	Convey("Given a session", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		s := newTestSession(ctx)

		Convey("A mouse down toggles a wall and publishes the new grid", func() {
			So(s.MouseDown(0, 1), ShouldBeNil)
			event := <-s.Events()
			So(event.Kind, ShouldEqual, GridChanged)
			So(event.Grid.Node(coord{Row: 0, Col: 1}).IsWall, ShouldBeTrue)
			So(s.Grid(), ShouldPointTo, event.Grid)

			Convey("Dragging paints walls until the mouse is released", func() {
				So(s.MouseEnter(0, 2), ShouldBeNil)
				<-s.Events()
				So(s.Grid().Node(coord{Row: 0, Col: 2}).IsWall, ShouldBeTrue)

				s.MouseUp()
				So(s.MouseEnter(0, 3), ShouldBeNil)
				So(s.Grid().Node(coord{Row: 0, Col: 3}).IsWall, ShouldBeFalse)
				So(len(s.Events()), ShouldEqual, 0)
			})
		})

		Convey("Mouse enter without a mouse down does nothing", func() {
			So(s.MouseEnter(0, 2), ShouldBeNil)
			So(s.Grid().Walls(), ShouldResemble, []coord{{Row: 1, Col: 1}})
		})

		Convey("Selecting start places it on the next mouse down only", func() {
			So(s.SelectStart(), ShouldBeNil)
			So(s.MouseDown(2, 0), ShouldBeNil)
			<-s.Events()
			So(s.Grid().Start(), ShouldResemble, coord{Row: 2, Col: 0})

			So(s.MouseDown(0, 2), ShouldBeNil)
			<-s.Events()
			So(s.Grid().Node(coord{Row: 0, Col: 2}).IsWall, ShouldBeTrue)
			So(s.Grid().Start(), ShouldResemble, coord{Row: 2, Col: 0})
		})

		Convey("Selecting finish places it on the next mouse down", func() {
			So(s.SelectFinish(), ShouldBeNil)
			So(s.MouseDown(0, 3), ShouldBeNil)
			<-s.Events()
			So(s.Grid().Finish(), ShouldResemble, coord{Row: 0, Col: 3})
		})

		Convey("Placing a marker on a wall is rejected and stays pending", func() {
			So(s.SelectFinish(), ShouldBeNil)
			err := s.MouseDown(1, 1)
			So(errors.Is(err, grid_world.ErrWallOccupied), ShouldBeTrue)
			So(s.MouseDown(1, 2), ShouldBeNil)
			<-s.Events()
			So(s.Grid().Finish(), ShouldResemble, coord{Row: 1, Col: 2})
		})

		Convey("Direct edits publish grids and reset restores the initial grid", func() {
			initial := s.Grid()
			So(s.ToggleWall(coord{Row: 2, Col: 1}), ShouldBeNil)
			So(s.MoveStart(coord{Row: 0, Col: 2}), ShouldBeNil)
			So(s.MoveFinish(coord{Row: 1, Col: 0}), ShouldBeNil)
			edits := take(s, 3)
			So(edits[2].Grid.Finish(), ShouldResemble, coord{Row: 1, Col: 0})
			So(edits[2].Grid.Start(), ShouldResemble, coord{Row: 0, Col: 2})

			s.Reset()
			So(take(s, 1)[0].Grid, ShouldPointTo, initial)
			So(s.Grid(), ShouldPointTo, initial)
		})
	})
}

func TestSessionVisualize(t *testing.T) {
	Convey("When a session visualizes its grid", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		s := newTestSession(ctx)

		result, err := s.Visualize()
		So(err, ShouldBeNil)
		So(result.Found, ShouldBeTrue)

		events := collect(s, ReplayDone, ReplayCancelled)
		s.Wait()
		So(s.Replaying(), ShouldBeFalse)

		Convey("Events replay the visited order and then the path", func() {
			So(events[0].Kind, ShouldEqual, GridChanged)
			var visited, path []coord
			for _, event := range events[1 : len(events)-1] {
				switch event.Kind {
				case NodeVisited:
					So(path, ShouldBeEmpty)
					visited = append(visited, event.Coord)
				case PathNode:
					path = append(path, event.Coord)
				}
			}
			So(visited, ShouldResemble, result.VisitedCoords())
			So(path, ShouldResemble, result.PathCoords())

			last := events[len(events)-1]
			So(last.Kind, ShouldEqual, ReplayDone)
			So(last.Visited, ShouldEqual, len(result.Visited))
			So(last.PathLength, ShouldEqual, len(result.Path))
		})

		Convey("Search matches the visualized result", func() {
			again, err := s.Search()
			So(err, ShouldBeNil)
			So(again.VisitedCoords(), ShouldResemble, result.VisitedCoords())
		})
	})

	Convey("When a replay is running", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		s := newTestSession(ctx, WithTiming(Timing{VisitedDelay: time.Hour, PathDelay: time.Hour}))

		_, err := s.Visualize()
		So(err, ShouldBeNil)
		So(s.Replaying(), ShouldBeTrue)

		Convey("Edits are rejected", func() {
			So(s.MouseDown(0, 1), ShouldEqual, ErrReplayInProgress)
			So(s.SelectStart(), ShouldEqual, ErrReplayInProgress)
			So(s.ToggleWall(coord{Row: 0, Col: 1}), ShouldEqual, ErrReplayInProgress)
			_, err := s.Visualize()
			So(err, ShouldEqual, ErrReplayInProgress)
		})

		Convey("Reset cancels it", func() {
			done := make(chan []Event)
			go func() { done <- collect(s, ReplayCancelled) }()
			s.Reset()
			events := <-done
			So(events[len(events)-1].Kind, ShouldEqual, ReplayCancelled)
			So(s.Replaying(), ShouldBeFalse)
		})
	})

	Convey("When the replay deadline passes", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		s := newTestSession(ctx,
			WithTiming(Timing{VisitedDelay: time.Hour, PathDelay: time.Hour}),
			WithReplayDeadline(func(ctx context.Context) (context.Context, context.CancelFunc, error) {
				innerCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
				return innerCtx, cancel, nil
			}))

		_, err := s.Visualize()
		So(err, ShouldBeNil)
		events := collect(s, ReplayCancelled)
		So(events[len(events)-1].Kind, ShouldEqual, ReplayCancelled)
		s.Wait()
		So(s.Replaying(), ShouldBeFalse)
	})
}

func TestReplay(t *testing.T) {
	Convey("When a result is replayed", t, func() {
		grid, err := grid_world.NewGrid(1, 4, coord{Row: 0, Col: 0}, coord{Row: 0, Col: 3})
		So(err, ShouldBeNil)
		result, err := pathfinding.Search(grid, grid.Start(), grid.Finish())
		So(err, ShouldBeNil)

		var events []Event
		speed := atomic_float.NewAtomicFloat64(1000)
		err = Replay(context.Background(), result, DefaultTiming, speed, func(e Event) bool {
			events = append(events, e)
			return true
		})
		So(err, ShouldBeNil)
		So(len(events), ShouldEqual, len(result.Visited)+len(result.Path)+1)
		So(events[0].Kind, ShouldEqual, NodeVisited)
		So(events[len(result.Visited)].Kind, ShouldEqual, PathNode)
		So(events[len(events)-1].Kind, ShouldEqual, ReplayDone)
		So(events[len(events)-1].Found, ShouldBeTrue)
	})

	Convey("When the replay context is cancelled", t, func() {
		grid, err := grid_world.NewGrid(1, 4, coord{Row: 0, Col: 0}, coord{Row: 0, Col: 3})
		So(err, ShouldBeNil)
		result, err := pathfinding.Search(grid, grid.Start(), grid.Finish())
		So(err, ShouldBeNil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err = Replay(ctx, result, Timing{VisitedDelay: time.Hour}, nil, func(Event) bool { return true })
		So(err, ShouldEqual, context.Canceled)
	})

	Convey("When the speed is set", t, func() {
		s := newTestSession(context.Background())
		So(s.SetSpeed(4), ShouldBeNil)
		So(s.Speed(), ShouldEqual, 4.0)
		So(errors.Is(s.SetSpeed(0), ErrInvalidSpeed), ShouldBeTrue)
		So(scaled(100*time.Millisecond, s.speed), ShouldEqual, 25*time.Millisecond)
	})
}
