package grid_world

import (
	"errors"
	"fmt"
	"math"
)

// Coord identifies a grid cell by row and column.
type Coord struct {
	Row, Col int
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Node is a single grid cell. The wall and marker flags are owned by the grid; Distance,
// IsVisited and Previous are search scratch and only meaningful on a grid the search owns.
type Node struct {
	Row, Col int
	IsWall   bool
	IsStart  bool
	IsFinish bool

	Distance  float64
	IsVisited bool
	// Previous is the cell from which this node was reached, nil until set.
	// An index pair, so nodes stay valid when copied between grid values.
	Previous *Coord
}

// Coord returns the node's position.
func (n *Node) Coord() Coord {
	return Coord{Row: n.Row, Col: n.Col}
}

func newNode(row, col int) Node {
	return Node{
		Row:      row,
		Col:      col,
		Distance: math.Inf(1),
	}
}

// Grid is a fixed size, row-major rectangle of nodes with one start and one finish.
// Grid values are treated as immutable: edits return a new Grid which shares every
// row it did not touch with its predecessor.
type Grid struct {
	rows, cols int
	start      Coord
	finish     Coord
	nodes      [][]Node
}

var (
	ErrInvalidDimensions = errors.New("grid dimensions must be positive")
	ErrOutOfBounds       = errors.New("coordinate out of bounds")
	ErrWallOccupied      = errors.New("cell is a wall")
	ErrMarkerOccupied    = errors.New("cell holds the start or finish")
)

// NewGrid builds a rows x cols grid of open cells with the start and finish markers set.
// Start and finish may coincide, in which case a single node carries both flags.
func NewGrid(rows, cols int, start, finish Coord) (*Grid, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("new grid %dx%d: %w", rows, cols, ErrInvalidDimensions)
	}

	grid := &Grid{
		rows:  rows,
		cols:  cols,
		nodes: make([][]Node, 0, rows),
	}
	if !grid.InBounds(start) {
		return nil, fmt.Errorf("new grid start %v: %w", start, ErrOutOfBounds)
	}
	if !grid.InBounds(finish) {
		return nil, fmt.Errorf("new grid finish %v: %w", finish, ErrOutOfBounds)
	}

	for row := 0; row < rows; row++ {
		current := make([]Node, 0, cols)
		for col := 0; col < cols; col++ {
			current = append(current, newNode(row, col))
		}
		grid.nodes = append(grid.nodes, current)
	}

	grid.start, grid.finish = start, finish
	grid.nodes[start.Row][start.Col].IsStart = true
	grid.nodes[finish.Row][finish.Col].IsFinish = true
	return grid, nil
}

func (g *Grid) Rows() int     { return g.rows }
func (g *Grid) Cols() int     { return g.cols }
func (g *Grid) Start() Coord  { return g.start }
func (g *Grid) Finish() Coord { return g.finish }

// InBounds reports whether c lies within the grid.
func (g *Grid) InBounds(c Coord) bool {
	return c.Row >= 0 && c.Row < g.rows && c.Col >= 0 && c.Col < g.cols
}

// Node returns a copy of the node at c. The caller must check bounds.
func (g *Grid) Node(c Coord) Node {
	return g.nodes[c.Row][c.Col]
}

// Ref returns a pointer to the stored node at c. Writing through it is only safe on a grid
// that shares no rows with another grid value, such as one returned by Clone.
func (g *Grid) Ref(c Coord) *Node {
	return &g.nodes[c.Row][c.Col]
}

// Walls returns the wall coordinates in row-major order.
func (g *Grid) Walls() (walls []Coord) {
	g.Visit(func(n *Node) {
		if n.IsWall {
			walls = append(walls, n.Coord())
		}
	})
	return
}

// Visit calls fn on every node in row-major order. fn must not modify the node unless the
// grid was obtained from Clone.
func (g *Grid) Visit(fn func(n *Node)) {
	for row := range g.nodes {
		for col := range g.nodes[row] {
			fn(&g.nodes[row][col])
		}
	}
}

// Clone returns a deep copy sharing no rows with g.
func (g *Grid) Clone() *Grid {
	clone := *g
	clone.nodes = make([][]Node, len(g.nodes))
	for row := range g.nodes {
		clone.nodes[row] = append([]Node(nil), g.nodes[row]...)
	}
	return &clone
}

// ResetScratch restores the search fields of every node to their unvisited defaults.
func (g *Grid) ResetScratch() {
	g.Visit(func(n *Node) {
		n.Distance = math.Inf(1)
		n.IsVisited = false
		n.Previous = nil
	})
}

// withRows returns a shallow copy of g whose listed rows are private copies, so that
// nodes in those rows can be edited without affecting g.
func (g *Grid) withRows(rows ...int) *Grid {
	next := *g
	next.nodes = append([][]Node(nil), g.nodes...)
	for _, row := range rows {
		next.nodes[row] = append([]Node(nil), g.nodes[row]...)
	}
	return &next
}

// ToggleWall flips the wall flag at (row, col). Markers cannot become walls.
func (g *Grid) ToggleWall(row, col int) (*Grid, error) {
	target := Coord{Row: row, Col: col}
	if !g.InBounds(target) {
		return nil, fmt.Errorf("toggle wall %v: %w", target, ErrOutOfBounds)
	}
	if node := g.nodes[row][col]; node.IsStart || node.IsFinish {
		return nil, fmt.Errorf("toggle wall %v: %w", target, ErrMarkerOccupied)
	}

	next := g.withRows(row)
	next.nodes[row][col].IsWall = !next.nodes[row][col].IsWall
	return next, nil
}

// MoveStart clears the start flag at the current start and sets it at to.
func (g *Grid) MoveStart(to Coord) (*Grid, error) {
	next, err := g.moveMarker(to, g.start, func(n *Node, set bool) { n.IsStart = set })
	if err != nil {
		return nil, fmt.Errorf("move start: %w", err)
	}
	next.start = to
	return next, nil
}

// MoveFinish clears the finish flag at the current finish and sets it at to.
func (g *Grid) MoveFinish(to Coord) (*Grid, error) {
	next, err := g.moveMarker(to, g.finish, func(n *Node, set bool) { n.IsFinish = set })
	if err != nil {
		return nil, fmt.Errorf("move finish: %w", err)
	}
	next.finish = to
	return next, nil
}

func (g *Grid) moveMarker(
	to Coord,
	from Coord,
	mark func(n *Node, set bool),
) (*Grid, error) {
	if !g.InBounds(to) {
		return nil, fmt.Errorf("%v: %w", to, ErrOutOfBounds)
	}
	if g.nodes[to.Row][to.Col].IsWall {
		return nil, fmt.Errorf("%v: %w", to, ErrWallOccupied)
	}

	next := g.withRows(from.Row, to.Row)
	mark(&next.nodes[from.Row][from.Col], false)
	mark(&next.nodes[to.Row][to.Col], true)
	return next, nil
}
