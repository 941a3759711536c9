package root_view

import (
	"context"
	"fmt"
	"html/template"
	"time"

	"pathviz/grid_world"
	"pathviz/server/cell_views"
	"pathviz/server/fastview"
	"pathviz/visualizer"

	channerics "github.com/niceyeti/channerics/channels"
)

// Used when no positive batch window is configured.
const defaultBatchWindow = 20 * time.Millisecond

// RootView is the main page's index.html, which is the container for all the
// view components, the wiring for their channels, etc.
type RootView struct {
	views   []fastview.ViewComponent
	updates <-chan []fastview.EleUpdate
}

// NewRootView creates the main page and the views it contains. The views draw the
// events of a single session, starting from its initial grid; their ele-updates are
// merged and batched over batchWindow.
func NewRootView(
	ctx context.Context,
	initial *grid_world.Grid,
	events <-chan visualizer.Event,
	batchWindow time.Duration,
) (*RootView, error) {
	views, err := fastview.NewViewBuilder[visualizer.Event, cell_views.Frame]().
		WithContext(ctx).
		WithModel(
			visualizer.Event{Kind: visualizer.GridChanged, Grid: initial},
			events,
			cell_views.Convert).
		WithView(func(
			done <-chan struct{},
			initial cell_views.Frame,
			frames <-chan cell_views.Frame) fastview.ViewComponent {
			return cell_views.NewGridView(done, initial, frames)
		}).
		WithView(func(
			done <-chan struct{},
			initial cell_views.Frame,
			frames <-chan cell_views.Frame) fastview.ViewComponent {
			return cell_views.NewStatusView(done, initial, frames)
		}).
		Build()
	if err != nil {
		return nil, fmt.Errorf("root view: %w", err)
	}

	return &RootView{
		views:   views,
		updates: fanIn(ctx.Done(), views, batchWindow),
	}, nil
}

// Updates returns the main ele-update channel for all the views.
func (rv *RootView) Updates() <-chan []fastview.EleUpdate {
	return rv.updates
}

// Parse builds the main page's template, with websocket bootstrap code, and returns its name.
func (rv *RootView) Parse(
	parent *template.Template,
) (name string, err error) {
	var bodySpec string
	for _, vc := range rv.views {
		tname, parseErr := vc.Parse(parent)
		if parseErr != nil {
			err = parseErr
			return
		}
		bodySpec += `{{ template "` + tname + `" . }}`
	}

	// The main template bootstraps the rest: sets up the client websocket, forwards user
	// commands over it and applies the server's ele-updates.
	name = "mainpage"
	indexTemplate := `
	{{ define "` + name + `" }}
	<!DOCTYPE html>
	<html>
		<head>
			<link rel="icon" href="data:,">
			<title>Pathfinding Visualizer</title>
			<style>
				body { font-family: sans-serif; text-align: center; }
				table { border-collapse: collapse; margin: 16px auto; user-select: none; }
				.node { width: 24px; height: 24px; border: 1px solid rgb(175, 216, 248); padding: 0; }
				.node-wall { background-color: rgb(12, 53, 71); }
				.node-start { background-color: green; }
				.node-finish { background-color: red; }
				.node-visited { background-color: rgba(0, 190, 218, 0.75); }
				.node-shortest-path { background-color: rgb(255, 254, 106); }
				.status span { margin: 0 12px; }
			</style>
			<script>
				const ws = new WebSocket("ws://" + location.host + "/ws");
				ws.onopen = function (event) {
					console.log("Web socket opened")
				};

				ws.onerror = function (event) {
					console.log('WebSocket error: ', event);
				};

				// Commands are the user's grid interactions, applied by the server.
				function send(op, row, col, value) {
					if (ws.readyState !== WebSocket.OPEN) {
						return;
					}
					ws.send(JSON.stringify({op: op, row: row || 0, col: col || 0, value: value || 0}));
				}

				// When the server pushes view updates, find these eles and update them.
				ws.onmessage = function (event) {
					const items = JSON.parse(event.data)
					for (const update of items) {
						const ele = document.getElementById(update.EleId)
						if (!ele) {
							continue
						}
						for (const op of update.Ops) {
							if (op.Key === "textContent") {
								ele.textContent = op.Value;
							} else {
								ele.setAttribute(op.Key, op.Value)
							}
						}
					}
				}
			</script>
		</head>
		<body>
			<div>
				<button onclick="send('selectStart')">Select Start Node</button>
				<button onclick="send('selectFinish')">Select Finish Node</button>
				<button onclick="send('visualize')">Visualize Dijkstra's Algorithm</button>
				<button onclick="send('reset')">Reset Grid</button>
				<label>Speed
					<select onchange="send('speed', 0, 0, parseFloat(this.value))">
						<option value="0.5">Slow</option>
						<option value="1" selected>Normal</option>
						<option value="4">Fast</option>
					</select>
				</label>
			</div>
		` + bodySpec + `
		</body></html>
	{{ end }}
	`

	_, err = parent.Parse(indexTemplate)
	return
}

// fanIn aggregates the views' ele-update channels into a single channel,
// and throttles its output.
func fanIn(
	done <-chan struct{},
	views []fastview.ViewComponent,
	rate time.Duration,
) <-chan []fastview.EleUpdate {
	if rate <= 0 {
		rate = defaultBatchWindow
	}
	inputs := make([]<-chan []fastview.EleUpdate, len(views))
	for i, view := range views {
		inputs[i] = view.Updates()
	}
	return batchify(
		done,
		channerics.Merge(done, inputs...),
		rate)
}

// batchify collects updates and emits at most one batch per rate, over-writing previously
// received values for the same ele-id, so only the latest value per element is sent.
// It keeps draining source while no one receives a batch, so upstream senders never
// block on a slow or absent client.
func batchify(
	done <-chan struct{},
	source <-chan []fastview.EleUpdate,
	rate time.Duration,
) <-chan []fastview.EleUpdate {
	output := make(chan []fastview.EleUpdate)

	go func() {
		defer close(output)

		data := map[string]fastview.EleUpdate{}
		ticker := channerics.NewTicker(done, rate)
		var (
			pending []fastview.EleUpdate
			out     chan<- []fastview.EleUpdate // nil until a batch is pending
		)
		for {
			select {
			case <-done:
				return
			case updates, ok := <-source:
				if !ok {
					return
				}
				for _, update := range updates {
					data[update.EleId] = update
				}
			case <-ticker:
				if out == nil && len(data) > 0 {
					pending = slicedVals(data)
					data = map[string]fastview.EleUpdate{}
					out = output
				}
			case out <- pending:
				pending, out = nil, nil
			}
		}
	}()

	return output
}

// returns the values of a map as a slice
func slicedVals[T1 comparable, T2 any](mp map[T1]T2) (sliced []T2) {
	for _, v := range mp {
		sliced = append(sliced, v)
	}
	return
}
