package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

const inboxSize = 1024

// Broadcaster interface for sending messages to clients
type Broadcaster interface {
	SendJSON(msg interface{})
	SendRaw(data []byte)
	SendBinary(data []byte)
}

// Commands accepted by the simulation inbox. Transport adapters only
// produce these; all arena mutation happens on the simulation goroutine.
type (
	AttachCmd struct {
		ConnID string
		Conn   Broadcaster
	}
	DetachCmd struct {
		ConnID string
	}
	ConnectedCmd struct {
		ConnID string
		Role   string
	}
	PingCmd struct {
		ConnID string
	}
	DisconnectedCmd struct {
		ConnID string
		Reason string
	}
	FireCannonCmd struct {
		ConnID string
		Angle  float64
		Range  float64
	}
	SetDriveCmd struct {
		ConnID string
		Angle  float64
		Speed  float64
	}
	CheckScannerCmd struct {
		ConnID string
		Angle  float64
		Arc    float64
	}
	scoreQuery struct {
		reply chan map[string]ScoreEntry
	}
	statsQuery struct {
		reply chan ArenaStats
	}
)

// ArenaStats are the arena counters reported by /healthz
type ArenaStats struct {
	Tick         uint64 `json:"tick"`
	Robots       int    `json:"robots"`
	Sessions     int    `json:"sessions"`
	ScoreEntries int    `json:"scoreEntries"`
}

// Simulation owns the arena and is its only writer. Ticks and inbound
// commands are handled one at a time on the goroutine running Run.
type Simulation struct {
	arena   *Arena
	conns   map[string]Broadcaster // connID -> transport
	inbox   chan any
	timeout time.Duration
	codec   string
}

// NewSimulation creates a simulation for cfg. tracker may be nil.
func NewSimulation(cfg Config, tracker Tracker) *Simulation {
	arena := NewArena(cfg.Width, cfg.Height, cfg.TickRate, time.Now())
	if tracker != nil {
		arena.SetTracker(tracker)
	}
	return &Simulation{
		arena:   arena,
		conns:   make(map[string]Broadcaster),
		inbox:   make(chan any, inboxSize),
		timeout: cfg.SessionTimeout,
		codec:   cfg.SnapshotCodec,
	}
}

// Run starts the tick loop and processes commands until ctx is done
func (s *Simulation) Run(ctx context.Context) {
	ticker := time.NewTicker(s.arena.TickPeriod())
	defer ticker.Stop()

	log.Info("simulation started", "tickRate", s.arena.TickRate, "width", s.arena.Width, "height", s.arena.Height)
	for {
		select {
		case <-ctx.Done():
			log.Info("simulation stopped", "ticks", s.arena.Tick)
			return
		case cmd := <-s.inbox:
			s.handleCommand(cmd)
		case now := <-ticker.C:
			s.Step(now)
		}
	}
}

// Submit enqueues a command without blocking. Commands are dropped when
// the inbox is full, the same way rate-limited commands are ignored.
func (s *Simulation) Submit(cmd any) bool {
	select {
	case s.inbox <- cmd:
		return true
	default:
		log.Warn("inbox full, dropping command", "cmd", fmt.Sprintf("%T", cmd))
		return false
	}
}

// SubmitWait enqueues a command that must not be lost, such as attach or detach
func (s *Simulation) SubmitWait(ctx context.Context, cmd any) error {
	select {
	case s.inbox <- cmd:
		return nil
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "submit %T", cmd)
	}
}

// Scoreboard fetches a copy of the scoreboard from the simulation goroutine
func (s *Simulation) Scoreboard(ctx context.Context) (map[string]ScoreEntry, error) {
	q := scoreQuery{reply: make(chan map[string]ScoreEntry, 1)}
	if err := s.SubmitWait(ctx, q); err != nil {
		return nil, err
	}
	select {
	case scores := <-q.reply:
		return scores, nil
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "scoreboard query")
	}
}

// Stats fetches the arena counters from the simulation goroutine
func (s *Simulation) Stats(ctx context.Context) (ArenaStats, error) {
	q := statsQuery{reply: make(chan ArenaStats, 1)}
	if err := s.SubmitWait(ctx, q); err != nil {
		return ArenaStats{}, err
	}
	select {
	case st := <-q.reply:
		return st, nil
	case <-ctx.Done():
		return ArenaStats{}, errors.Wrap(ctx.Err(), "stats query")
	}
}

// Step runs one tick at the given arena time: missiles first so blasts
// resolve against this tick's positions, then movement, the liveness
// sweep and the broadcast.
func (s *Simulation) Step(now time.Time) {
	a := s.arena
	a.Now = now
	a.Tick++
	a.Connections = len(s.conns)

	for _, ex := range a.UpdateMissiles() {
		log.Debug("missile exploded", "owner", ex.OwnerID, "x", ex.At.X, "y", ex.At.Y, "hits", ex.Hits, "kills", ex.Kills)
	}
	a.UpdateRobots()

	for _, id := range a.ExpiredSessions(s.timeout) {
		a.Disconnect(id, "forced_disconnect")
		log.Info("session timed out", "conn", id)
	}

	s.broadcast()
}

func (s *Simulation) handleCommand(cmd any) {
	a := s.arena
	switch c := cmd.(type) {
	case AttachCmd:
		s.conns[c.ConnID] = c.Conn
		a.Connections = len(s.conns)
		if _, ok := a.Session(c.ConnID); !ok {
			c.Conn.SendJSON(Envelope{T: MsgNotConnected, Data: true})
		}
	case DetachCmd:
		delete(s.conns, c.ConnID)
		a.Connections = len(s.conns)
	case ConnectedCmd:
		sess := a.Connect(c.ConnID, c.Role)
		log.Info("session connected", "conn", c.ConnID, "name", sess.Name, "role", sess.Role)
		if sess.Role == RoleSpectator {
			if conn, ok := s.conns[c.ConnID]; ok {
				s.sendSnapshot(conn)
			}
		}
	case PingCmd:
		a.Ping(c.ConnID)
	case DisconnectedCmd:
		if a.Disconnect(c.ConnID, c.Reason) {
			log.Info("session disconnected", "conn", c.ConnID, "reason", c.Reason)
		}
	case FireCannonCmd:
		if a.FireCannon(c.ConnID, c.Angle, c.Range) {
			log.Debug("cannon fired", "conn", c.ConnID, "angle", c.Angle, "range", c.Range)
		}
	case SetDriveCmd:
		if a.SetDrive(c.ConnID, c.Angle, c.Speed) {
			log.Debug("drive set", "conn", c.ConnID, "angle", c.Angle, "speed", c.Speed)
		}
	case CheckScannerCmd:
		res, ok := a.CheckScanner(c.ConnID, c.Angle, c.Arc)
		if !ok {
			return
		}
		if conn, ok := s.conns[c.ConnID]; ok {
			conn.SendJSON(Envelope{T: MsgScanInfoUpdated, Data: res})
		}
	case scoreQuery:
		c.reply <- a.Scores().Snapshot()
	case statsQuery:
		c.reply <- ArenaStats{
			Tick:         a.Tick,
			Robots:       a.RobotCount(),
			Sessions:     a.SessionCount(),
			ScoreEntries: a.Scores().Len(),
		}
	default:
		log.Warn("unknown command", "cmd", fmt.Sprintf("%T", cmd))
	}
}

// broadcast sends each robot its own status and each spectator the full arena.
// The snapshot is encoded once per tick; if that fails spectators miss this
// tick but robots still get their status.
func (s *Simulation) broadcast() {
	a := s.arena
	var (
		snapshot []byte
		binary   bool
		encoded  bool
		failed   bool
	)
	for _, id := range a.SessionIDs() {
		conn, ok := s.conns[id]
		if !ok {
			continue
		}
		sess, _ := a.Session(id)
		switch sess.Role {
		case RoleRobot:
			if r, ok := a.Robot(sess.RobotID); ok {
				conn.SendJSON(Envelope{T: MsgRobotStatus, Data: r.ToState(a.Now)})
			}
		case RoleSpectator:
			if failed {
				continue
			}
			if !encoded {
				var err error
				snapshot, binary, err = EncodeEnvelope(s.codec, Envelope{T: MsgUsers, Data: a.Snapshot()})
				if err != nil {
					log.Error("encode snapshot", "tick", a.Tick, "err", err)
					failed = true
					continue
				}
				encoded = true
			}
			sendEncoded(conn, snapshot, binary)
		}
	}
}

func (s *Simulation) sendSnapshot(conn Broadcaster) {
	data, binary, err := EncodeEnvelope(s.codec, Envelope{T: MsgUsers, Data: s.arena.Snapshot()})
	if err != nil {
		log.Error("encode snapshot", "err", err)
		return
	}
	sendEncoded(conn, data, binary)
}

func sendEncoded(conn Broadcaster, data []byte, binary bool) {
	if binary {
		conn.SendBinary(data)
	} else {
		conn.SendRaw(data)
	}
}
