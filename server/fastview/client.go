package fastview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 1 * time.Second
	// Maximum message size allowed from peer.
	maxMessageSize = 8192

	pingResolution = time.Millisecond * 200
	// The number of pings to tolerate losing before concluding the peer is gone.
	pongWait = pingResolution * 4
)

var upgrader = websocket.Upgrader{}

// A client pushes ele-updates to a web page over a websocket and reads the page's
// messages back. Messages are JSON objects decoded into M and passed to the messages
// chan, e.g. the mouse events of a grid.
type client[T any, M any] struct {
	updates  <-chan T
	messages chan<- M
	ws       *websock
	rootCtx  context.Context
}

// NewClient upgrades the request to a websocket and returns a client publishing items
// from updates to it. Each item is sent in full; callers rate-limit upstream.
// Messages read from the page are sent to messages, which may be nil to discard them.
func NewClient[T any, M any](
	updates <-chan T,
	messages chan<- M,
	w http.ResponseWriter,
	r *http.Request,
) (*client[T, M], error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied to the request.
		return nil, err
	}
	ws.SetReadLimit(maxMessageSize)

	return &client[T, M]{
		updates:  updates,
		messages: messages,
		ws:       NewWebSocket(ws),
		rootCtx:  r.Context(),
	}, nil
}

// Sync runs the read, ping-pong and publish routines until the client disconnects or
// one of them fails, then closes the websocket.
// Sync returns nil upon client disconnect or an error if an unexpected error occurred.
func (cli *client[T, M]) Sync() error {
	group, groupCtx := errgroup.WithContext(cli.rootCtx)

	group.Go(func() error {
		return cli.readMessages(groupCtx)
	})
	group.Go(func() error {
		return cli.pingPong(groupCtx)
	})
	group.Go(func() error {
		return cli.publish(groupCtx)
	})

	err := group.Wait()
	cli.ws.Close()
	if isClosure(err) {
		return nil
	}
	return err
}

var ErrPongDeadlineExceeded error = errors.New("client disconnect, pong deadline exceeded")

// Runs the ping-pong for the client liveness check.
// NOTE: This function requires that readMessages is running to ensure the pong handler is called.
func (cli *client[T, M]) pingPong(ctx context.Context) error {
	pong := make(chan struct{}, 1)
	conn := cli.ws.Conn()
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(_ string) error {
		select {
		case pong <- struct{}{}:
		default:
		}
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	pinger := channerics.NewTicker(ctx.Done(), pingResolution)
	lastPong := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pinger:
			if time.Since(lastPong) > pongWait {
				return ErrPongDeadlineExceeded
			}

			if err := cli.ping(ctx); err != nil {
				return err
			}
		case <-pong:
			lastPong = time.Now()
		}
	}
}

func (cli *client[T, M]) ping(ctx context.Context) error {
	return cli.ws.Write(
		ctx,
		func(ws *websocket.Conn) (err error) {
			if err = ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				if isError(err) {
					err = fmt.Errorf("ping failed: %T %w", err, err)
				}
			}
			return
		})
}

// readMessages decodes messages from the client and forwards them.
// Errors returned by websocket Read methods are permanent, hence any read error
// must trigger full teardown. Malformed messages are skipped.
func (cli *client[T, M]) readMessages(ctx context.Context) error {
	for {
		var (
			msg     M
			decoded bool
		)
		err := cli.ws.Read(
			ctx,
			func(ws *websocket.Conn) (readErr error) {
				var data []byte
				if _, data, readErr = ws.ReadMessage(); readErr != nil {
					return
				}
				decoded = json.Unmarshal(data, &msg) == nil
				return
			})
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
		if !decoded || cli.messages == nil {
			continue
		}

		select {
		case cli.messages <- msg:
		case <-ctx.Done():
			return nil
		}
	}
}

func (cli *client[T, M]) publish(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case updates, ok := <-cli.updates:
			// Graceful input channel closure
			if !ok {
				return nil
			}

			err := cli.ws.Write(
				ctx,
				func(ws *websocket.Conn) (writeErr error) {
					if writeErr = ws.SetWriteDeadline(time.Now().Add(writeWait)); writeErr != nil {
						writeErr = fmt.Errorf("failed to set deadline: %T %w", writeErr, writeErr)
						return
					}

					if writeErr = ws.WriteJSON(updates); writeErr != nil {
						if isError(writeErr) {
							writeErr = fmt.Errorf("publish failed: %T %w", writeErr, writeErr)
						}
					}
					return
				})
			if err != nil {
				return err
			}
		}
	}
}

func isError(err error) bool {
	return err != nil && websocket.IsUnexpectedCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}

func isClosure(err error) bool {
	return err != nil && websocket.IsCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}
