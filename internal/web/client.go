package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"cello/internal/projection"

	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"
)

const (
	writeWait      = time.Second
	maxMessageSize = 8192
	pingInterval   = 200 * time.Millisecond
	// A peer that misses four pings in a row is considered gone.
	pongWait = 4 * pingInterval
)

var upgrader = websocket.Upgrader{}

var (
	// ErrPongDeadlineExceeded ends a client that stopped answering pings.
	ErrPongDeadlineExceeded = errors.New("client disconnect, pong deadline exceeded")
	// errClientGone stops the group when the browser closes the socket.
	errClientGone = errors.New("client closed the connection")
)

// FrameSource hands out the latest published projection frame.
type FrameSource interface {
	Frame() projection.Frame
}

// client streams projection frames to one browser. Only the newest frame is
// sent each publish interval, and only when its sequence number changed.
type client struct {
	frames   FrameSource
	interval time.Duration
	conn     *websocket.Conn

	// writing admits one writer at a time; pings and frames share the socket.
	writing   chan struct{}
	closeOnce sync.Once
	lastSeq   uint64
	sentAny   bool
}

func newClient(frames FrameSource, interval time.Duration, w http.ResponseWriter, r *http.Request) (*client, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(maxMessageSize)
	return &client{
		frames:   frames,
		interval: interval,
		conn:     conn,
		writing:  make(chan struct{}, 1),
	}, nil
}

// Sync publishes frames, keeps the connection alive and reads control frames
// until the peer goes away or ctx is cancelled. A clean close returns nil.
func (cli *client) Sync(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return cli.publish(groupCtx) })
	group.Go(func() error { return cli.keepAlive(groupCtx) })
	group.Go(func() error { return cli.discardReads(groupCtx) })
	group.Go(func() error {
		// ReadMessage only returns once the connection is closed.
		<-groupCtx.Done()
		cli.close()
		return nil
	})

	if err := group.Wait(); err != nil && !errors.Is(err, errClientGone) {
		return err
	}
	return nil
}

// publish sends the current frame at once and then the latest frame on every
// tick of the publish interval.
func (cli *client) publish(ctx context.Context) error {
	if err := cli.sendFrame(ctx); err != nil {
		return err
	}
	for range channerics.NewTicker(ctx.Done(), cli.interval) {
		if err := cli.sendFrame(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (cli *client) sendFrame(ctx context.Context) error {
	frame := cli.frames.Frame()
	if cli.sentAny && frame.Seq == cli.lastSeq {
		return nil
	}
	err := cli.write(ctx, func(conn *websocket.Conn) error {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return err
		}
		return conn.WriteJSON(NewFrameDTO(frame))
	})
	if err != nil {
		return fmt.Errorf("publish frame %d: %w", frame.Seq, err)
	}
	cli.lastSeq, cli.sentAny = frame.Seq, true
	return nil
}

// keepAlive pings the peer and fails once pongs stop arriving.
func (cli *client) keepAlive(ctx context.Context) error {
	pongs := make(chan struct{}, 1)
	cli.conn.SetPongHandler(func(string) error {
		select {
		case pongs <- struct{}{}:
		default:
		}
		return nil
	})

	lastPong := time.Now()
	pinger := channerics.NewTicker(ctx.Done(), pingInterval)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pongs:
			lastPong = time.Now()
		case <-pinger:
			if time.Since(lastPong) > pongWait {
				return ErrPongDeadlineExceeded
			}
			err := cli.write(ctx, func(conn *websocket.Conn) error {
				return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			})
			if err != nil {
				return fmt.Errorf("ping: %w", err)
			}
		}
	}
}

// discardReads consumes inbound messages so pong and close frames are
// handled. The browser sends nothing else.
func (cli *client) discardReads(ctx context.Context) error {
	for {
		_, _, err := cli.conn.ReadMessage()
		switch {
		case ctx.Err() != nil:
			return nil
		case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
			return errClientGone
		case err != nil:
			return fmt.Errorf("read: %w", err)
		}
	}
}

// write runs fn while holding the socket's single writer slot.
func (cli *client) write(ctx context.Context, fn func(*websocket.Conn) error) error {
	select {
	case <-ctx.Done():
		return nil
	case cli.writing <- struct{}{}:
	}
	defer func() { <-cli.writing }()
	return fn(cli.conn)
}

// close says goodbye to the peer and releases the connection.
func (cli *client) close() {
	cli.closeOnce.Do(func() {
		_ = cli.write(context.Background(), func(conn *websocket.Conn) error {
			return conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
		})
		_ = cli.conn.Close()
	})
}
