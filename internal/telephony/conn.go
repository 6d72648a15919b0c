package telephony

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The provider connects from its own infrastructure, not a browser.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Conn is a media stream socket safe for one reader plus concurrent writers.
type Conn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
}

// Upgrade switches an HTTP request to the media stream protocol.
func Upgrade(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}

	return &Conn{ws: ws}, nil
}

// ReadMessage blocks for the next frame. Malformed JSON yields (nil, nil)
// so callers can skip it without tearing the socket down.
func (c *Conn) ReadMessage() (*StreamMessage, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return nil, err
	}

	msg, err := ParseMessage(data)
	if err != nil {
		return nil, nil
	}

	return msg, nil
}

// WriteMessage sends one frame. Safe to call from multiple goroutines.
func (c *Conn) WriteMessage(msg *StreamMessage) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return c.ws.WriteJSON(msg)
}

// Close tears the socket down.
func (c *Conn) Close() error {
	return c.ws.Close()
}
