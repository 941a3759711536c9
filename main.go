/*
Pathviz is a single page grid pathfinding visualizer. The user draws walls on a grid, places a
start and a finish node, and watches Dijkstra's algorithm explore the grid and trace the shortest
path. The search itself runs to completion in one call; the page only replays its visited order
and path at a human-watchable pace. The server holds all of the state and pushes element updates
to the page over a websocket; the page sends back the user's mouse events as commands.
*/

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"pathviz/config"
	"pathviz/grid_world"
	"pathviz/server"
	"pathviz/visualizer"
)

var (
	dbg        *bool
	host       *string
	port       *string
	configPath *string
)

func init() {
	dbg = flag.Bool("debug", false, "debug mode: small grid, searches printed to the console")
	host = flag.String("host", "", "The host ip")
	port = flag.String("port", "8080", "The host port")
	configPath = flag.String("config", "./config.yaml", "path to the config file")
}

func selectGrid(appConfig *config.AppConfig) (*grid_world.Grid, error) {
	if *dbg {
		return grid_world.FromLayout(grid_world.DebugLayout)
	}
	return appConfig.BuildGrid()
}

func runApp() (err error) {
	var appConfig *config.AppConfig
	if appConfig, err = config.FromYamlOrDefault(*configPath); err != nil {
		return
	}

	// Validate the deadline up front rather than on the first replay.
	var cancelProbe context.CancelFunc
	if _, cancelProbe, err = appConfig.WithReplayDeadline(context.Background()); err != nil {
		return
	}
	cancelProbe()

	appCtx, appCancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer appCancel()

	var initial *grid_world.Grid
	if initial, err = selectGrid(appConfig); err != nil {
		return
	}
	if *dbg {
		grid_world.Show(initial, nil, nil)
	}

	session := visualizer.NewSession(
		appCtx,
		initial,
		visualizer.WithTiming(visualizer.Timing{
			VisitedDelay: appConfig.Replay.VisitedDelay,
			PathDelay:    appConfig.Replay.PathDelay,
		}),
		visualizer.WithReplayDeadline(appConfig.WithReplayDeadline),
		visualizer.WithDebug(*dbg))

	var srv *server.Server
	if srv, err = server.NewServer(
		appCtx,
		*host+":"+*port,
		session,
		appConfig.Replay.BatchWindow,
	); err != nil {
		return
	}

	err = srv.Serve()
	return
}

func main() {
	flag.Parse()
	if err := runApp(); err != nil {
		log.Fatal(err)
	}
}
