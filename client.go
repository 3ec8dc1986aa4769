package main

import (
	"encoding/json"
	"errors"
	"net"
	"sync"

	"github.com/gobwas/ws/wsutil"

	"signal-directory/directory"
)

const clientQueueSize = 64

var ErrClientGone = errors.New("client closed or too slow")

// Client is one admitted websocket connection. Writes happen on a single
// goroutine fed by a bounded queue, so senders never block.
type Client struct {
	id        directory.ConnectionID
	conn      net.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(id directory.ConnectionID, conn net.Conn) *Client {
	return &Client{
		id:   id,
		conn: conn,
		send: make(chan []byte, clientQueueSize),
		done: make(chan struct{}),
	}
}

func (c *Client) ID() directory.ConnectionID {
	return c.id
}

// Enqueue queues message for writing. A client whose queue is full is closed.
func (c *Client) Enqueue(message any) error {
	encoded, err := json.Marshal(message)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return ErrClientGone
	default:
	}
	select {
	case c.send <- encoded:
		return nil
	default:
		c.Close()
		return ErrClientGone
	}
}

func (c *Client) WriteLoop() {
	for {
		select {
		case msg := <-c.send:
			if err := wsutil.WriteServerText(c.conn, msg); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) ReadMessage() (any, error) {
	msg, err := wsutil.ReadClientText(c.conn)
	if err != nil {
		return nil, err
	}
	return ParseMessage(msg)
}

// Close is safe to call more than once; it unblocks the read loop.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}
