package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/matt-g-everett/iconanim/stream"
)

const writeWait = 5 * time.Second

// Name identifies the websocket sink in metrics.
func (a *Api) Name() string {
	return "websocket"
}

// Publish broadcasts a frame to every connected websocket client.
func (a *Api) Publish(f *stream.Frame) error {
	message, err := f.MarshalBinary()
	if err != nil {
		return err
	}

	a.clientsMutex.RLock()
	clients := make([]*client, 0, len(a.clients))
	for _, c := range a.clients {
		clients = append(clients, c)
	}
	a.clientsMutex.RUnlock()

	for _, c := range clients {
		if err := a.send(c, message); err != nil {
			if isConnectionClosedError(err) {
				a.removeClient(c.conn)
			} else {
				a.log.Warn(err, "broadcast frame")
			}
		}
	}
	return nil
}

func (a *Api) send(c *client, message []byte) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, message)
}

func (a *Api) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.log.WithFields(map[string]any{"remote": r.RemoteAddr}).Warn(err, "websocket upgrade")
		return
	}

	c := &client{conn: conn}
	a.clientsMutex.Lock()
	a.clients[conn] = c
	a.clientsMutex.Unlock()
	defer a.removeClient(conn)

	message, err := a.synth.CalculateFrame().MarshalBinary()
	if err == nil {
		err = a.send(c, message)
	}
	if err != nil {
		return
	}

	// Clients only listen; reading drives ping/pong and close handling.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (a *Api) removeClient(conn *websocket.Conn) {
	a.clientsMutex.Lock()
	_, ok := a.clients[conn]
	delete(a.clients, conn)
	a.clientsMutex.Unlock()
	if ok {
		conn.Close()
	}
}

func (a *Api) closeClients() {
	a.clientsMutex.Lock()
	conns := make([]*websocket.Conn, 0, len(a.clients))
	for conn := range a.clients {
		conns = append(conns, conn)
	}
	a.clientsMutex.Unlock()

	for _, conn := range conns {
		a.removeClient(conn)
	}
}

func isConnectionClosedError(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNoStatusReceived) ||
		strings.Contains(err.Error(), "close sent") ||
		strings.Contains(err.Error(), "use of closed network connection") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}
