// publisher pushes batches of updates to a web client over a websocket.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
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

var (
	ErrPongDeadlineExceeded error = errors.New("client disconnect, pong deadline exceeded")
	// ErrSockCongestion indicates a write waited too long for the socket.
	ErrSockCongestion error = errors.New("sock op failed due to congestion")
)

// Publisher forwards every item of its updates channel to one websocket client.
// Items are published in order and none are dropped; callers wanting a rate limit
// should coalesce upstream (see server.batchify).
type Publisher[T any] struct {
	updates  <-chan T
	conn     *websocket.Conn
	rootCtx  context.Context
	writeSem chan struct{}
	// lastPong is the unix-nano time of the last pong received.
	lastPong atomic.Int64
}

// Upgrade upgrades the request to a websocket and returns a publisher of @updates
// on it. On failure the http error has already been written.
func Upgrade[T any](
	updates <-chan T,
	w http.ResponseWriter,
	r *http.Request,
) (*Publisher[T], error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade replies to the client itself on failure.
		return nil, fmt.Errorf("upgrade: %w", err)
	}
	conn.SetReadLimit(maxMessageSize)

	pub := &Publisher[T]{
		updates:  updates,
		conn:     conn,
		rootCtx:  r.Context(),
		writeSem: make(chan struct{}, 1),
	}
	pub.lastPong.Store(time.Now().UnixNano())
	conn.SetPongHandler(func(string) error {
		pub.lastPong.Store(time.Now().UnixNano())
		return nil
	})
	return pub, nil
}

// Sync publishes updates until the client disconnects, the updates channel closes,
// or the request context ends; the socket is closed on return. A normal client
// disconnect returns nil.
func (pub *Publisher[T]) Sync() error {
	defer pub.close()

	group, groupCtx := errgroup.WithContext(pub.rootCtx)
	// The read loop only ends on a read error, so closing the socket is what stops it.
	go func() {
		<-groupCtx.Done()
		_ = pub.conn.SetReadDeadline(time.Now())
	}()

	group.Go(func() error {
		return pub.readMessages()
	})
	group.Go(func() error {
		return pub.pingPong(groupCtx)
	})
	group.Go(func() error {
		// Finishing the publish loop ends the whole group.
		if err := pub.publish(groupCtx); err != nil {
			return err
		}
		return errDone
	})

	if err := group.Wait(); err != nil && !errors.Is(err, errDone) && !isClosure(err) {
		return err
	}
	return nil
}

// errDone stops the group when publishing finished normally.
var errDone = errors.New("publisher done")

// readMessages drains client messages, which are ignored, so that control frames
// (pongs, close) are processed.
func (pub *Publisher[T]) readMessages() error {
	for {
		if _, _, err := pub.conn.ReadMessage(); err != nil {
			if isError(err) {
				return fmt.Errorf("read failed: %w", err)
			}
			return errDone
		}
	}
}

// pingPong runs the client liveness check.
func (pub *Publisher[T]) pingPong(ctx context.Context) error {
	pinger := channerics.NewTicker(ctx.Done(), pingResolution)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pinger:
			if time.Since(time.Unix(0, pub.lastPong.Load())) > pongWait {
				return ErrPongDeadlineExceeded
			}
			err := pub.write(ctx, func(conn *websocket.Conn) error {
				return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			})
			if err != nil {
				return fmt.Errorf("ping failed: %w", err)
			}
		}
	}
}

func (pub *Publisher[T]) publish(ctx context.Context) error {
	for update := range channerics.OrDone(ctx.Done(), pub.updates) {
		err := pub.write(ctx, func(conn *websocket.Conn) error {
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return fmt.Errorf("failed to set deadline: %w", err)
			}
			return conn.WriteJSON(update)
		})
		if err != nil {
			return fmt.Errorf("publish failed: %w", err)
		}
	}
	return nil
}

// write serializes writers; gorilla permits one concurrent writer per connection.
func (pub *Publisher[T]) write(
	ctx context.Context,
	writeFn func(*websocket.Conn) error,
) error {
	select {
	case <-ctx.Done():
		return nil
	case pub.writeSem <- struct{}{}:
		defer func() { <-pub.writeSem }()
		return writeFn(pub.conn)
	case <-time.After(writeWait):
		return ErrSockCongestion
	}
}

// close sends a close frame, best effort, and closes the connection.
func (pub *Publisher[T]) close() {
	pub.writeSem <- struct{}{}
	defer func() { <-pub.writeSem }()

	_ = pub.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	pub.conn.Close()
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
