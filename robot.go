package main

import "time"

const (
	MaxDamage   = 100.0
	DamageDecay = 0.005 // damage repaired per tick while alive
	MaxSpeed    = 100.0 // units/s
)

// Robot is a player-controlled entity
type Robot struct {
	ID       string
	ConnID   string
	Name     string
	Position Vec
	Heading  float64 // radians
	Speed    float64 // units/s
	Damage   float64 // 0..100
	Dead     bool
	Scan     ScanResult

	LastFired time.Time
	LastDrive time.Time
	LastScan  time.Time
}

// NewRobot creates a robot with empty scan info and all cooldowns starting at now
func NewRobot(id, connID, name string, pos Vec, heading float64, now time.Time) *Robot {
	return &Robot{
		ID:        id,
		ConnID:    connID,
		Name:      name,
		Position:  pos,
		Heading:   heading,
		Scan:      emptyScan(),
		LastFired: now,
		LastDrive: now,
		LastScan:  now,
	}
}

// UpdateRobots runs one movement tick for every living robot: death
// detection, damage decay, position integration and wall clamping.
func (a *Arena) UpdateRobots() {
	for _, r := range a.Robots() {
		if r.Dead {
			continue
		}
		if r.Damage >= MaxDamage {
			r.Damage = MaxDamage
			r.Dead = true
			a.scores.AddDeath(r.Name)
			a.track(EvtDeath, r.Name, r.ConnID, "")
			continue
		}

		r.Damage -= DamageDecay
		if r.Damage < 0 {
			r.Damage = 0
		}

		r.Position, _ = a.advance(r.Position, r.Heading, r.Speed)
		a.clampRobot(r)
	}
}

// clampRobot pins r inside the arena. Touching a wall stops the robot.
func (a *Arena) clampRobot(r *Robot) {
	if r.Position.X < 0 {
		r.Position.X = 0
		r.Speed = 0
	} else if r.Position.X > a.Width {
		r.Position.X = a.Width
		r.Speed = 0
	}
	if r.Position.Y < 0 {
		r.Position.Y = 0
		r.Speed = 0
	} else if r.Position.Y > a.Height {
		r.Position.Y = a.Height
		r.Speed = 0
	}
}

// ToState converts to protocol state
func (r *Robot) ToState(now time.Time) RobotState {
	return RobotState{
		ID:               r.ID,
		ConnID:           r.ConnID,
		Name:             r.Name,
		Position:         r.Position,
		Heading:          r.Heading,
		Speed:            r.Speed,
		Damage:           r.Damage,
		Dead:             r.Dead,
		ScanInfo:         r.Scan.clone(),
		ArenaCurrentTime: now.UnixMilli(),
	}
}
