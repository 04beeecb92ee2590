package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/tomz197/hopline/internal/loop"
	"github.com/tomz197/hopline/internal/protocol"
)

// conn is one browser session. The read loop runs on the handler
// goroutine; all writes happen on the write loop.
type conn struct {
	id        string
	ws        *websocket.Conn
	driver    *loop.Driver
	logger    *log.Logger
	remote    string
	broadcast time.Duration

	// Replies queued by the read loop for the write loop.
	out chan []byte
}

func (c *conn) serve(base context.Context) {
	ctx, cancel := context.WithCancel(base)
	defer cancel()

	c.logger.Info("session opened", "remote", c.remote)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.driver.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		defer cancel()
		c.writeLoop(ctx)
	}()

	// A cancelled session must unblock ReadMessage.
	stop := context.AfterFunc(ctx, func() { _ = c.ws.Close() })
	defer stop()

	err := c.readLoop()
	cancel()
	wg.Wait()
	_ = c.ws.Close()

	if err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.logger.Debug("read ended", "err", err)
	}
	c.logger.Info("session closed", "score", c.driver.Snapshot().Score)
}

func (c *conn) readLoop() error {
	c.ws.SetReadLimit(readLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			return err
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))

		env, err := protocol.DecodeEnvelope(msg)
		if err == nil {
			err = dispatch(c.driver, env)
		}
		if err != nil {
			c.logger.Debug("message rejected", "err", err)
			c.reply(protocol.MsgError, protocol.Error{Message: err.Error()})
		}
	}
}

// reply queues a message for the write loop. Replies are dropped while the
// queue is full.
func (c *conn) reply(t string, payload any) {
	b, err := protocol.Encode(t, payload)
	if err != nil {
		c.logger.Error("encode reply", "type", t, "err", err)
		return
	}
	select {
	case c.out <- b:
	default:
	}
}

func (c *conn) writeLoop(ctx context.Context) {
	state := time.NewTicker(c.broadcast)
	defer state.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	events := c.driver.Events()

	for {
		var err error
		select {
		case <-ctx.Done():
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		case <-state.C:
			err = c.send(protocol.MsgState, c.driver.Snapshot())
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			t, payload := eventMessage(ev)
			err = c.send(t, payload)
		case b := <-c.out:
			err = c.write(websocket.TextMessage, b)
		case <-ping.C:
			err = c.write(websocket.PingMessage, nil)
		}
		if err != nil {
			if !errors.Is(err, websocket.ErrCloseSent) {
				c.logger.Debug("write failed", "err", err)
			}
			return
		}
	}
}

func (c *conn) send(t string, payload any) error {
	b, err := protocol.Encode(t, payload)
	if err != nil {
		return err
	}
	return c.write(websocket.TextMessage, b)
}

func (c *conn) write(messageType int, data []byte) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(messageType, data)
}
