// Package pathfinding runs Dijkstra's algorithm over a grid_world.Grid.
//
// The grid is treated as an implicit graph: every open cell is connected to its open
// up/down/left/right neighbours with weight 1, and walls are not part of the graph.
// Search produces the order in which nodes were finalized and the shortest path, which
// a host can replay however it likes. Search never mutates the grid it is given.
package pathfinding

import (
	"errors"
	"fmt"
	"math"

	"pathviz/grid_world"
)

// Result contains the outcome of a search. Visited and Path reference nodes of the
// result's own scratch copy of the grid, whose Distance/IsVisited/Previous fields hold
// the final state of the search.
type Result struct {
	// Visited holds nodes in the order they were finalized.
	Visited []*grid_world.Node
	// Path holds the shortest path from start to finish, empty if finish is unreachable.
	Path   []*grid_world.Node
	Found  bool
	grid   *grid_world.Grid
	start  grid_world.Coord
	finish grid_world.Coord
}

// Grid returns the scratch grid the search ran over.
func (r *Result) Grid() *grid_world.Grid { return r.grid }

func (r *Result) Start() grid_world.Coord  { return r.start }
func (r *Result) Finish() grid_world.Coord { return r.finish }

// Distance returns the search distance of c, +Inf if c was never reached.
func (r *Result) Distance(c grid_world.Coord) float64 {
	return r.grid.Node(c).Distance
}

// VisitedCoords returns the coordinates of Visited.
func (r *Result) VisitedCoords() []grid_world.Coord {
	return coords(r.Visited)
}

// PathCoords returns the coordinates of Path.
func (r *Result) PathCoords() []grid_world.Coord {
	return coords(r.Path)
}

func coords(nodes []*grid_world.Node) []grid_world.Coord {
	out := make([]grid_world.Coord, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, node.Coord())
	}
	return out
}

// FrontierKind selects the frontier implementation. Both produce identical output.
type FrontierKind int

const (
	HeapFrontier FrontierKind = iota
	ScanFrontier
)

// Options defines parameters for the search.
type Options struct {
	Frontier FrontierKind
}

// Option is a function that modifies Options.
type Option func(*Options)

// WithFrontier selects how the minimum-distance node is found.
func WithFrontier(kind FrontierKind) Option {
	return func(options *Options) { options.Frontier = kind }
}

var ErrInvalidEndpoint = errors.New("invalid search endpoint")

// Up, down, left, right. The order only matters for tie-break determinism.
var directions = [4]grid_world.Coord{
	{Row: -1, Col: 0},
	{Row: 1, Col: 0},
	{Row: 0, Col: -1},
	{Row: 0, Col: 1},
}

// Search runs Dijkstra's algorithm from start to finish, stopping as soon as finish is
// finalized. An unreachable finish is not an error: the result has an empty Path and
// Visited holds every node reachable from start.
func Search(
	grid *grid_world.Grid,
	start grid_world.Coord,
	finish grid_world.Coord,
	options ...Option,
) (*Result, error) {
	searchOptions := Options{Frontier: HeapFrontier}
	for _, option := range options {
		option(&searchOptions)
	}

	if err := checkEndpoint(grid, start); err != nil {
		return nil, fmt.Errorf("search start: %w", err)
	}
	if err := checkEndpoint(grid, finish); err != nil {
		return nil, fmt.Errorf("search finish: %w", err)
	}

	scratch := grid.Clone()
	scratch.ResetScratch()
	scratch.Ref(start).Distance = 0

	var open []*grid_world.Node
	scratch.Visit(func(n *grid_world.Node) {
		if !n.IsWall {
			open = append(open, n)
		}
	})

	var unvisited frontier
	switch searchOptions.Frontier {
	case ScanFrontier:
		unvisited = newScanFrontier(open)
	default:
		unvisited = newHeapFrontier(open)
	}

	result := &Result{
		grid:   scratch,
		start:  start,
		finish: finish,
	}
	for unvisited.Len() > 0 {
		closest := unvisited.PopMin()
		// Everything left is unreachable.
		if math.IsInf(closest.Distance, 1) {
			break
		}

		closest.IsVisited = true
		result.Visited = append(result.Visited, closest)
		if closest.Coord() == finish {
			break
		}
		relaxNeighbors(scratch, closest, unvisited)
	}

	result.Path = PathOrder(scratch, finish)
	result.Found = len(result.Path) > 0
	return result, nil
}

func checkEndpoint(grid *grid_world.Grid, c grid_world.Coord) error {
	if !grid.InBounds(c) {
		return fmt.Errorf("%w: %v: %w", ErrInvalidEndpoint, c, grid_world.ErrOutOfBounds)
	}
	if grid.Node(c).IsWall {
		return fmt.Errorf("%w: %v: %w", ErrInvalidEndpoint, c, grid_world.ErrWallOccupied)
	}
	return nil
}

func relaxNeighbors(grid *grid_world.Grid, node *grid_world.Node, unvisited frontier) {
	for _, dir := range directions {
		c := grid_world.Coord{Row: node.Row + dir.Row, Col: node.Col + dir.Col}
		if !grid.InBounds(c) {
			continue
		}

		neighbor := grid.Ref(c)
		if neighbor.IsWall || neighbor.IsVisited {
			continue
		}

		if candidate := node.Distance + 1; candidate < neighbor.Distance {
			neighbor.Distance = candidate
			from := node.Coord()
			neighbor.Previous = &from
			unvisited.Update(neighbor)
		}
	}
}

// PathOrder walks Previous links back from finish on a searched grid and returns the path
// in start to finish order. The path is empty if finish was never visited.
func PathOrder(grid *grid_world.Grid, finish grid_world.Coord) []*grid_world.Node {
	path := []*grid_world.Node{}
	if !grid.InBounds(finish) || !grid.Node(finish).IsVisited {
		return path
	}

	// A chain is never longer than the grid.
	limit := grid.Rows() * grid.Cols()
	for current := grid.Ref(finish); current != nil && len(path) < limit; {
		path = append(path, current)
		if current.Previous == nil {
			break
		}
		current = grid.Ref(*current.Previous)
	}

	// reverse path
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
