package main

import (
	"sync"

	"github.com/rs/zerolog/log"

	"signal-directory/directory"
)

// Connections tracks live clients and is the directory's transport.
type Connections struct {
	clients map[directory.ConnectionID]*Client
	lock    sync.RWMutex
}

func NewConnections() *Connections {
	return &Connections{clients: make(map[directory.ConnectionID]*Client)}
}

func (c *Connections) Add(client *Client) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.clients[client.ID()] = client
}

func (c *Connections) Remove(id directory.ConnectionID) {
	c.lock.Lock()
	defer c.lock.Unlock()
	delete(c.clients, id)
}

func (c *Connections) get(id directory.ConnectionID) (*Client, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	client, ok := c.clients[id]
	return client, ok
}

func (c *Connections) Send(to directory.ConnectionID, message any) {
	client, ok := c.get(to)
	if !ok {
		return
	}
	if err := client.Enqueue(message); err != nil {
		log.Warn().Err(err).Str("connection-id", string(to)).Msg("Dropping message")
	}
}

func (c *Connections) Notify(to directory.ConnectionID, event directory.Event) {
	c.Send(to, event)
}

func (c *Connections) IsAlive(id directory.ConnectionID) bool {
	_, ok := c.get(id)
	return ok
}

// Disconnect closes the client's socket; its read loop reports the
// disconnection to the directory.
func (c *Connections) Disconnect(id directory.ConnectionID) {
	if client, ok := c.get(id); ok {
		client.Close()
	}
}

func (c *Connections) CloseAll() {
	c.lock.RLock()
	defer c.lock.RUnlock()
	for _, client := range c.clients {
		client.Close()
	}
}

func (c *Connections) Len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return len(c.clients)
}
