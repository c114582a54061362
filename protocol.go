package main

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// Snapshot codecs
const (
	CodecJSON    = "json"
	CodecMsgpack = "msgpack"
)

// Client -> Server message types
const (
	MsgConnected      = "connected"
	MsgConnectionPing = "connectionPing"
	MsgDisconnected   = "disconnected"
	MsgFireCannon     = "fireCannon"
	MsgSetDrive       = "setDrive"
	MsgCheckScanner   = "checkScanner"
)

// Server -> Client message types
const (
	MsgNotConnected    = "notConnected"
	MsgRobotStatus     = "robotStatus"
	MsgUsers           = "users"           // full arena snapshot for spectators
	MsgScanInfoUpdated = "scanInfoUpdated" // reply to checkScanner
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages, D is decoded once the type is known
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// FireCannonMsg asks to launch a missile
type FireCannonMsg struct {
	Angle float64 `json:"angle"`
	Range float64 `json:"range"`
}

// SetDriveMsg sets heading and speed
type SetDriveMsg struct {
	Angle float64 `json:"angle"`
	Speed float64 `json:"speed"`
}

// CheckScannerMsg requests a scanner sweep
type CheckScannerMsg struct {
	Angle float64 `json:"angle"`
	Arc   float64 `json:"arc"`
}

// RobotState is sent to a robot's own connection every tick
type RobotState struct {
	ID               string     `json:"id"`
	ConnID           string     `json:"socketId"`
	Name             string     `json:"name"`
	Position         Vec        `json:"position"`
	Heading          float64    `json:"heading"`
	Speed            float64    `json:"speed"`
	Damage           float64    `json:"damage"`
	Dead             bool       `json:"dead"`
	ScanInfo         ScanResult `json:"scanInfo"`
	ArenaCurrentTime int64      `json:"arenaCurrentTime"` // unix ms
}

// MissileState is one in-flight missile
type MissileState struct {
	OwnerID    string  `json:"ownerId"`
	StartPoint Vec     `json:"startPoint"`
	Position   Vec     `json:"position"`
	Heading    float64 `json:"heading"`
	Speed      float64 `json:"speed"`
	Range      float64 `json:"range"`
}

// UserState is one registered session
type UserState struct {
	Name    string `json:"name"`
	Type    Role   `json:"type"`
	RobotID string `json:"robotId,omitempty"`
	Ping    int64  `json:"ping"` // unix ms
}

// ArenaSnapshot is the full arena state sent to spectators
type ArenaSnapshot struct {
	Size             Vec                   `json:"size"`
	CurrentTime      int64                 `json:"currentTime"` // unix ms
	NumOfConnections int                   `json:"numOfConnections"`
	FrameRate        int                   `json:"frameRate"`
	Tick             uint64                `json:"tick"`
	ScoreBoard       map[string]ScoreEntry `json:"scoreBoard"`
	Users            map[string]UserState  `json:"users"`
	Robots           []RobotState          `json:"robots"`
	Missiles         []MissileState        `json:"missiles"`
}

// Snapshot builds the full arena state
func (a *Arena) Snapshot() ArenaSnapshot {
	snap := ArenaSnapshot{
		Size:             Vec{X: a.Width, Y: a.Height},
		CurrentTime:      a.Now.UnixMilli(),
		NumOfConnections: a.Connections,
		FrameRate:        a.TickRate,
		Tick:             a.Tick,
		ScoreBoard:       a.scores.Snapshot(),
		Users:            make(map[string]UserState, len(a.sessions)),
		Robots:           make([]RobotState, 0, len(a.robots)),
		Missiles:         make([]MissileState, 0, len(a.missiles)),
	}
	for id, s := range a.sessions {
		snap.Users[id] = UserState{
			Name:    s.Name,
			Type:    s.Role,
			RobotID: s.RobotID,
			Ping:    s.LastPing.UnixMilli(),
		}
	}
	for _, r := range a.Robots() {
		snap.Robots = append(snap.Robots, r.ToState(a.Now))
	}
	for _, m := range a.missiles {
		snap.Missiles = append(snap.Missiles, m.ToState())
	}
	return snap
}

// EncodeEnvelope marshals env with the given codec. binary reports whether
// the result must go out as a binary frame. msgpack output reuses the JSON
// field names so both codecs decode to the same shape.
func EncodeEnvelope(codec string, env Envelope) (data []byte, binary bool, err error) {
	switch codec {
	case CodecMsgpack:
		var buf bytes.Buffer
		enc := msgpack.NewEncoder(&buf)
		enc.SetCustomStructTag("json")
		if err := enc.Encode(env); err != nil {
			return nil, false, errors.Wrapf(err, "msgpack encode %s", env.T)
		}
		return buf.Bytes(), true, nil
	default:
		data, err := json.Marshal(env)
		if err != nil {
			return nil, false, errors.Wrapf(err, "json encode %s", env.T)
		}
		return data, false, nil
	}
}
