// cell_views contains views derived from the Cell view-model.
package cell_views

import (
	"fmt"
	"strconv"

	"pathviz/grid_world"
	"pathviz/visualizer"
)

// Class attribute values of a grid cell.
const (
	NODE         = "node"
	NODE_WALL    = "node node-wall"
	NODE_START   = "node node-start"
	NODE_FINISH  = "node node-finish"
	NODE_VISITED = "node node-visited"
	NODE_PATH    = "node node-shortest-path"
)

// Cell is the view-model of one grid node: its position and the class it is drawn with.
// As a rule of thumb, Cell fields should be immediately usable as view parameters.
type Cell struct {
	Row, Col int
	Class    string
}

// EleId is the id of the cell's element, e.g. node-3-14.
func (c Cell) EleId() string {
	return fmt.Sprintf("node-%d-%d", c.Row, c.Col)
}

// Status is the text of the status line. Empty fields are left unchanged.
type Status struct {
	Visited    string
	PathLength string
	Message    string
}

// Frame is the view-model of a single session event. A Full frame carries every cell of
// the grid and replaces whatever the page shows; otherwise Cells are changes on top of it.
type Frame struct {
	Full   bool
	Cells  []Cell
	Status Status
}

// Page is the data from which the index page is first rendered.
type Page struct {
	Rows   [][]Cell
	Status Status
}

var readyStatus = Status{Visited: "0", PathLength: "0", Message: "Ready"}

// NewPage returns the page data for the grid, without any search overlay.
func NewPage(grid *grid_world.Grid) Page {
	rows := make([][]Cell, grid.Rows())
	for r := range rows {
		rows[r] = make([]Cell, grid.Cols())
	}
	grid.Visit(func(node *grid_world.Node) {
		rows[node.Row][node.Col] = Cell{Row: node.Row, Col: node.Col, Class: getClass(node)}
	})
	return Page{Rows: rows, Status: readyStatus}
}

// Convert transforms a session event into the frame that views draw.
func Convert(event visualizer.Event) (frame Frame) {
	switch event.Kind {
	case visualizer.GridChanged:
		frame.Full = true
		event.Grid.Visit(func(node *grid_world.Node) {
			frame.Cells = append(frame.Cells, Cell{Row: node.Row, Col: node.Col, Class: getClass(node)})
		})
		frame.Status = readyStatus
	case visualizer.NodeVisited:
		frame.Cells = []Cell{{Row: event.Coord.Row, Col: event.Coord.Col, Class: NODE_VISITED}}
		frame.Status = Status{Visited: strconv.Itoa(event.Step + 1), Message: "Searching"}
	case visualizer.PathNode:
		frame.Cells = []Cell{{Row: event.Coord.Row, Col: event.Coord.Col, Class: NODE_PATH}}
		frame.Status = Status{PathLength: strconv.Itoa(event.Step + 1), Message: "Tracing shortest path"}
	case visualizer.ReplayDone:
		frame.Status = Status{
			Visited:    strconv.Itoa(event.Visited),
			PathLength: strconv.Itoa(event.PathLength),
			Message:    "No path to finish",
		}
		if event.Found {
			frame.Status.Message = fmt.Sprintf("Shortest path found: %d nodes", event.PathLength)
		}
	case visualizer.ReplayCancelled:
		frame.Status = Status{Message: "Visualization cancelled"}
	}
	return
}

func getClass(node *grid_world.Node) (class string) {
	switch {
	case node.IsStart:
		class = NODE_START
	case node.IsFinish:
		class = NODE_FINISH
	case node.IsWall:
		class = NODE_WALL
	default:
		class = NODE
	}
	return
}
