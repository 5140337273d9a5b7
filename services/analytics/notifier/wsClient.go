package notifier

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultSendBuffer = 16
	writeTimeout      = 5 * time.Second
)

var (
	errClientClosed = errors.New("websocket client closed")
	errSlowClient   = errors.New("websocket client send buffer is full")
)

// wsClient writes notifications to a websocket connection from its own go routine, so Send never blocks
type wsClient struct {
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewWSClient wraps the connection and starts the writer go routine
func NewWSClient(conn *websocket.Conn, sendBuffer int) *wsClient {
	if sendBuffer <= 0 {
		sendBuffer = defaultSendBuffer
	}

	client := &wsClient{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	go client.writeLoop()

	return client
}

// Send queues the payload for writing
func (client *wsClient) Send(payload []byte) error {
	select {
	case <-client.done:
		return errClientClosed
	default:
	}

	select {
	case client.send <- payload:
		return nil
	default:
		return errSlowClient
	}
}

func (client *wsClient) writeLoop() {
	for {
		select {
		case <-client.done:
			return
		case payload := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := client.conn.WriteMessage(websocket.TextMessage, payload)
			if err != nil {
				log.Debug("websocket write failed", "error", err)
				client.Close()
				return
			}
		}
	}
}

// ReadUntilClosed discards incoming messages and returns when the peer goes away or the client is closed
func (client *wsClient) ReadUntilClosed() {
	for {
		_, _, err := client.conn.ReadMessage()
		if err != nil {
			client.Close()
			return
		}
	}
}

// Close stops the writer and closes the connection
func (client *wsClient) Close() {
	client.closeOnce.Do(func() {
		close(client.done)
		_ = client.conn.Close()
	})
}
