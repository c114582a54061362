package main

import (
	"math"
	"math/rand/v2"
	"time"
)

const (
	DefaultArenaWidth  = 750.0
	DefaultArenaHeight = 750.0
	DefaultTickRate    = 30
)

// Tracker receives gameplay events for the analytics log
type Tracker interface {
	Track(evtType, name, connID, data string)
}

// Vec is a point or direction in arena coordinates
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Arena is the world registry: bounds, clock, robots, missiles, sessions and scores.
// It is owned by a single Simulation and must only be touched from its goroutine.
type Arena struct {
	Width       float64
	Height      float64
	TickRate    int
	Now         time.Time
	Connections int
	Tick        uint64

	robots     map[string]*Robot
	robotOrder []string
	missiles   []*Missile
	sessions   map[string]*Session
	scores     *ScoreBoard

	// blast broad phase, rebuilt before each missile pass
	grid       *SpatialGrid
	gridRobots []*Robot
	queryBuf   []int

	rng     *rand.Rand
	tracker Tracker
}

// NewArena creates an empty arena whose clock starts at now
func NewArena(width, height float64, tickRate int, now time.Time) *Arena {
	return &Arena{
		Width:    width,
		Height:   height,
		TickRate: tickRate,
		Now:      now,
		robots:   make(map[string]*Robot),
		sessions: make(map[string]*Session),
		scores:   NewScoreBoard(),
		grid:     NewSpatialGrid(width, height, BlastRadius),
		rng:      rand.New(rand.NewPCG(uint64(now.UnixNano()), 0x9e3779b97f4a7c15)),
	}
}

// SetTracker attaches an event sink; nil disables tracking
func (a *Arena) SetTracker(t Tracker) {
	a.tracker = t
}

func (a *Arena) track(evtType, name, connID, data string) {
	if a.tracker != nil {
		a.tracker.Track(evtType, name, connID, data)
	}
}

// TickPeriod is the duration of one simulation step
func (a *Arena) TickPeriod() time.Duration {
	return time.Second / time.Duration(a.TickRate)
}

// Scores returns the arena scoreboard
func (a *Arena) Scores() *ScoreBoard {
	return a.scores
}

// Robot looks up a robot by its stable id
func (a *Arena) Robot(id string) (*Robot, bool) {
	r, ok := a.robots[id]
	return r, ok
}

// Robots returns the robots in spawn order. The slice is a fresh copy, so
// callers may add or remove robots while ranging over it.
func (a *Arena) Robots() []*Robot {
	list := make([]*Robot, 0, len(a.robotOrder))
	for _, id := range a.robotOrder {
		list = append(list, a.robots[id])
	}
	return list
}

// RobotCount returns the number of robots in the registry, dead or alive
func (a *Arena) RobotCount() int {
	return len(a.robots)
}

// Missiles returns the live missiles
func (a *Arena) Missiles() []*Missile {
	return append([]*Missile(nil), a.missiles...)
}

// Session returns the session registered for a connection
func (a *Arena) Session(connID string) (*Session, bool) {
	s, ok := a.sessions[connID]
	return s, ok
}

// SessionCount returns the number of registered sessions
func (a *Arena) SessionCount() int {
	return len(a.sessions)
}

// SessionRobot resolves a connection to its robot. The second result is
// false when the session is missing or owns no robot.
func (a *Arena) SessionRobot(connID string) (*Robot, bool) {
	s, ok := a.sessions[connID]
	if !ok || s.Role != RoleRobot {
		return nil, false
	}
	return a.Robot(s.RobotID)
}

func (a *Arena) addRobot(r *Robot) {
	a.robots[r.ID] = r
	a.robotOrder = append(a.robotOrder, r.ID)
}

func (a *Arena) removeRobot(id string) {
	if _, ok := a.robots[id]; !ok {
		return
	}
	delete(a.robots, id)
	order := a.robotOrder[:0]
	for _, rid := range a.robotOrder {
		if rid != id {
			order = append(order, rid)
		}
	}
	a.robotOrder = order
}

// outOfBounds reports whether p lies outside the arena on either axis
func (a *Arena) outOfBounds(p Vec) bool {
	return p.X < 0 || p.X > a.Width || p.Y < 0 || p.Y > a.Height
}

// advance moves p along heading at speed units/second for one tick and
// returns the new point together with the distance covered
func (a *Arena) advance(p Vec, heading, speed float64) (Vec, float64) {
	step := speed / float64(a.TickRate)
	return Vec{
		X: p.X + math.Cos(heading)*step,
		Y: p.Y + math.Sin(heading)*step,
	}, math.Abs(step)
}
