package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"pathviz/grid_world"
	"pathviz/pathfinding"
	"pathviz/visualizer"

	"github.com/gorilla/mux"
)

// command is a user interaction sent by the page over the websocket.
type command struct {
	Op    string  `json:"op"`
	Row   int     `json:"row"`
	Col   int     `json:"col"`
	Value float64 `json:"value"`
}

var ErrUnknownCommand = errors.New("unknown command")

func (server *Server) dispatch(cmd command) (err error) {
	session := server.session
	switch cmd.Op {
	case "mousedown":
		err = session.MouseDown(cmd.Row, cmd.Col)
	case "mouseenter":
		err = session.MouseEnter(cmd.Row, cmd.Col)
	case "mouseup":
		session.MouseUp()
	case "selectStart":
		err = session.SelectStart()
	case "selectFinish":
		err = session.SelectFinish()
	case "visualize":
		_, err = session.Visualize()
	case "reset":
		session.Reset()
	case "speed":
		err = session.SetSpeed(cmd.Value)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Op)
	}
	return
}

// pair is a [row, col] coordinate in JSON.
type pair [2]int

func toPair(c grid_world.Coord) pair {
	return pair{c.Row, c.Col}
}

func toPairs(coords []grid_world.Coord) []pair {
	pairs := make([]pair, 0, len(coords))
	for _, c := range coords {
		pairs = append(pairs, toPair(c))
	}
	return pairs
}

type gridResponse struct {
	Rows   int    `json:"rows"`
	Cols   int    `json:"cols"`
	Start  pair   `json:"start"`
	Finish pair   `json:"finish"`
	Walls  []pair `json:"walls"`
}

type searchResponse struct {
	Visited []pair `json:"visited"`
	Path    []pair `json:"path"`
	Found   bool   `json:"found"`
}

type editRequest struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func newGridResponse(grid *grid_world.Grid) gridResponse {
	return gridResponse{
		Rows:   grid.Rows(),
		Cols:   grid.Cols(),
		Start:  toPair(grid.Start()),
		Finish: toPair(grid.Finish()),
		Walls:  toPairs(grid.Walls()),
	}
}

func newSearchResponse(result *pathfinding.Result) searchResponse {
	return searchResponse{
		Visited: toPairs(result.VisitedCoords()),
		Path:    toPairs(result.PathCoords()),
		Found:   result.Found,
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps session errors to status codes: 409 while a replay runs, else 400.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, visualizer.ErrReplayInProgress) {
		status = http.StatusConflict
	}
	http.Error(w, err.Error(), status)
}

func (server *Server) getGrid(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newGridResponse(server.session.Grid()))
}

// postSearch runs the engine over the current grid without replaying it.
func (server *Server) postSearch(w http.ResponseWriter, r *http.Request) {
	result, err := server.session.Search()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSearchResponse(result))
}

// postVisualize searches and starts replaying the result to the page.
func (server *Server) postVisualize(w http.ResponseWriter, r *http.Request) {
	result, err := server.session.Visualize()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, newSearchResponse(result))
}

func (server *Server) postReset(w http.ResponseWriter, r *http.Request) {
	server.session.Reset()
	writeJSON(w, http.StatusOK, newGridResponse(server.session.Grid()))
}

// postEdit toggles a wall or moves a marker, per the {op} path variable.
func (server *Server) postEdit(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("decode request: %v", err), http.StatusBadRequest)
		return
	}

	target := grid_world.Coord{Row: req.Row, Col: req.Col}
	var err error
	switch mux.Vars(r)["op"] {
	case "wall":
		err = server.session.ToggleWall(target)
	case "start":
		err = server.session.MoveStart(target)
	case "finish":
		err = server.session.MoveFinish(target)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newGridResponse(server.session.Grid()))
}
