package main

import (
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 50
)

// Client represents a WebSocket connection
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	id         string
	remoteAddr string
	msgCount   int
	msgResetAt time.Time
}

// NewClient creates a new Client with a fresh connection id
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		id:         GenerateID(),
		remoteAddr: remoteAddr,
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("ws read", "conn", c.id, "err", err)
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			log.Warn("rate limit exceeded, disconnecting", "conn", c.id, "addr", c.remoteAddr)
			break
		}

		c.handleMessage(message)
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Check for binary marker (0xFF prefix from SendBinary)
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error("marshal", "conn", c.id, "err", err)
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message
// Prefixes with 0xFF marker byte so WritePump can distinguish from text
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF // binary marker
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

// handleMessage turns one inbound event into a simulation command
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Debug("unmarshal", "conn", c.id, "err", err)
		return
	}

	var cmd any
	switch env.T {
	case MsgConnected:
		var role string
		if !c.decodeOptional(env, &role) {
			return
		}
		cmd = ConnectedCmd{ConnID: c.id, Role: role}
	case MsgConnectionPing:
		cmd = PingCmd{ConnID: c.id}
	case MsgDisconnected:
		var reason string
		if !c.decodeOptional(env, &reason) {
			return
		}
		cmd = DisconnectedCmd{ConnID: c.id, Reason: reason}
	case MsgFireCannon:
		var msg FireCannonMsg
		if err := json.Unmarshal(env.D, &msg); err != nil {
			return
		}
		cmd = FireCannonCmd{ConnID: c.id, Angle: msg.Angle, Range: msg.Range}
	case MsgSetDrive:
		var msg SetDriveMsg
		if err := json.Unmarshal(env.D, &msg); err != nil {
			return
		}
		cmd = SetDriveCmd{ConnID: c.id, Angle: msg.Angle, Speed: msg.Speed}
	case MsgCheckScanner:
		var msg CheckScannerMsg
		if err := json.Unmarshal(env.D, &msg); err != nil {
			return
		}
		cmd = CheckScannerCmd{ConnID: c.id, Angle: msg.Angle, Arc: msg.Arc}
	default:
		log.Debug("unknown message", "conn", c.id, "type", env.T)
		return
	}
	c.hub.sim.Submit(cmd)
}

// decodeOptional decodes the payload into v. A missing payload leaves v
// zero; a malformed one drops the message.
func (c *Client) decodeOptional(env InEnvelope, v interface{}) bool {
	if len(env.D) == 0 {
		return true
	}
	if err := json.Unmarshal(env.D, v); err != nil {
		log.Debug("bad payload", "conn", c.id, "type", env.T, "err", err)
		return false
	}
	return true
}
