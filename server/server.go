package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"time"

	"pathviz/server/cell_views"
	"pathviz/server/fastview"
	"pathviz/server/root_view"
	"pathviz/visualizer"

	"github.com/gorilla/mux"
	channerics "github.com/niceyeti/channerics/channels"
)

// Server serves the visualizer page of a single session to a single client over a single
// websocket, plus a JSON API over the same session. The session's ele-update channel can be
// listened to by only one client, so a second concurrent websocket is refused.
type Server struct {
	ctx       context.Context
	addr      string
	session   *visualizer.Session
	rootView  *root_view.RootView
	router    *mux.Router
	clientSem chan struct{}
}

// NewServer initializes all of the views over the session's events and returns a server.
// The server must be the only consumer of session.Events().
func NewServer(
	ctx context.Context,
	addr string,
	session *visualizer.Session,
	batchWindow time.Duration,
) (*Server, error) {
	rootView, err := root_view.NewRootView(ctx, session.Grid(), session.Events(), batchWindow)
	if err != nil {
		return nil, err
	}

	server := &Server{
		ctx:       ctx,
		addr:      addr,
		session:   session,
		rootView:  rootView,
		router:    mux.NewRouter(),
		clientSem: make(chan struct{}, 1),
	}
	server.routes()
	return server, nil
}

func (server *Server) routes() {
	server.router.HandleFunc("/", server.serveIndex).Methods(http.MethodGet)
	server.router.HandleFunc("/ws", server.serveWebsocket).Methods(http.MethodGet)

	api := server.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/grid", server.getGrid).Methods(http.MethodGet)
	api.HandleFunc("/grid/reset", server.postReset).Methods(http.MethodPost)
	api.HandleFunc("/grid/{op:wall|start|finish}", server.postEdit).Methods(http.MethodPost)
	api.HandleFunc("/search", server.postSearch).Methods(http.MethodPost)
	api.HandleFunc("/visualize", server.postVisualize).Methods(http.MethodPost)
}

// Handler returns the server's routes.
func (server *Server) Handler() http.Handler {
	return server.router
}

// Serve listens on the server's address until its context is cancelled.
func (server *Server) Serve() (err error) {
	srv := &http.Server{
		Addr:    server.addr,
		Handler: server.router,
	}
	go func() {
		<-server.ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()

	log.Printf("serving on %s\n", server.addr)
	if err = srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		err = fmt.Errorf("serve: %w", err)
		return
	}
	return nil
}

// serveWebsocket publishes view updates to the client and applies its commands to the session.
func (server *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	select {
	case server.clientSem <- struct{}{}:
		defer func() { <-server.clientSem }()
	default:
		http.Error(w, "another client is connected", http.StatusConflict)
		return
	}

	commands := make(chan command)
	cli, err := fastview.NewClient[[]fastview.EleUpdate, command](
		server.rootView.Updates(), commands, w, r)
	if err != nil {
		log.Println("upgrade:", err)
		return
	}

	ctx, cancel := context.WithCancel(server.ctx)
	defer cancel()
	go server.dispatchAll(ctx, commands)

	if err = cli.Sync(); err != nil {
		log.Println("websocket:", err)
	}
}

func (server *Server) dispatchAll(ctx context.Context, commands <-chan command) {
	for cmd := range channerics.OrDone(ctx.Done(), commands) {
		if err := server.dispatch(cmd); err != nil {
			log.Printf("%s: %v\n", cmd.Op, err)
		}
	}
}

// Serve the index.html main page.
func (server *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	page := cell_views.NewPage(server.session.Grid())
	if err := renderTemplate(&buf, server.rootView, page); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	_, _ = w.Write(buf.Bytes())
}

func renderTemplate(
	w io.Writer,
	vc fastview.ViewComponent,
	data interface{},
) (err error) {
	t := template.New("index.html")
	var tname string
	if tname, err = vc.Parse(t); err != nil {
		return
	}
	if _, err = t.Parse(`{{ template "` + tname + `" . }}`); err != nil {
		return
	}

	err = t.Execute(w, data)
	return
}
