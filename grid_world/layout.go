package grid_world

import (
	"errors"
	"fmt"
	"strings"
)

// Layout cell types, plus the overlay runes used when printing a search.
const (
	WALL    = 'W'
	OPEN    = 'o'
	START   = 'S'
	FINISH  = 'F'
	VISITED = '.'
	PATH    = '*'
)

// The reference configuration of the visualizer.
const (
	DEFAULT_ROWS       = 20
	DEFAULT_COLS       = 50
	DEFAULT_START_ROW  = 10
	DEFAULT_START_COL  = 15
	DEFAULT_FINISH_ROW = 10
	DEFAULT_FINISH_COL = 35
)

// A small layout for development, with a wall the search must route around.
var DebugLayout []string = []string{
	"oooooooooo",
	"oooooWoooo",
	"ooSooWooFo",
	"oooooWoooo",
	"ooooWWoooo",
	"oooooooooo",
}

var ErrLayout = errors.New("invalid layout")

// FromLayout converts rows of layout runes into a grid. Every row must have the same width,
// and exactly one START and one FINISH must be present.
func FromLayout(layout []string) (*Grid, error) {
	if len(layout) == 0 || len(layout[0]) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrLayout)
	}

	var starts, finishes, walls []Coord
	width := len(layout[0])
	for row, line := range layout {
		if len(line) != width {
			return nil, fmt.Errorf("%w: row %d has width %d, expected %d", ErrLayout, row, len(line), width)
		}
		for col, cellType := range line {
			c := Coord{Row: row, Col: col}
			switch cellType {
			case START:
				starts = append(starts, c)
			case FINISH:
				finishes = append(finishes, c)
			case WALL:
				walls = append(walls, c)
			case OPEN:
			default:
				return nil, fmt.Errorf("%w: unknown cell %q at %v", ErrLayout, cellType, c)
			}
		}
	}
	if len(starts) != 1 || len(finishes) != 1 {
		return nil, fmt.Errorf("%w: need one start and one finish, found %d and %d",
			ErrLayout, len(starts), len(finishes))
	}

	grid, err := NewGrid(len(layout), width, starts[0], finishes[0])
	if err != nil {
		return nil, err
	}
	for _, wall := range walls {
		if grid, err = grid.ToggleWall(wall.Row, wall.Col); err != nil {
			return nil, err
		}
	}
	return grid, nil
}

// Render returns the grid as layout rows, overlaying visited cells and then path cells.
// Markers and walls are never overwritten.
func (g *Grid) Render(visited, path []Coord) []string {
	cells := make([][]rune, g.rows)
	for row := range g.nodes {
		cells[row] = make([]rune, g.cols)
		for col, node := range g.nodes[row] {
			cells[row][col] = cellType(&node)
		}
	}

	overlay := func(coords []Coord, r rune) {
		for _, c := range coords {
			if cell := cells[c.Row][c.Col]; cell == OPEN || cell == VISITED {
				cells[c.Row][c.Col] = r
			}
		}
	}
	overlay(visited, VISITED)
	overlay(path, PATH)

	lines := make([]string, 0, g.rows)
	for _, row := range cells {
		lines = append(lines, string(row))
	}
	return lines
}

func cellType(n *Node) rune {
	switch {
	case n.IsStart:
		return START
	case n.IsFinish:
		return FINISH
	case n.IsWall:
		return WALL
	}
	return OPEN
}

func (g *Grid) String() string {
	return strings.Join(g.Render(nil, nil), "\n")
}

// Show prints the grid, for visual reference.
func Show(g *Grid, visited, path []Coord) {
	for _, line := range g.Render(visited, path) {
		for _, r := range line {
			fmt.Printf("%c ", r)
		}
		fmt.Println("")
	}
}
