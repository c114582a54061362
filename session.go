package main

import (
	"math"
	"sort"
	"time"
)

const (
	DefaultSessionTimeout = 60 * time.Second
	defaultRobotName      = "Robot"
)

// Role is what a connection does in the arena
type Role string

const (
	RoleRobot     Role = "robot"
	RoleSpectator Role = "spectator"
)

// spectatorAliases are the role names that register a spectator instead of a robot
var spectatorAliases = map[string]bool{
	"spectator":   true,
	"arenaViewer": true,
}

// Session ties a transport connection to its role and robot
type Session struct {
	ConnID   string
	Name     string
	Role     Role
	RobotID  string // empty for spectators
	LastPing time.Time
}

// Connect registers a session for connID. Any role name other than a
// spectator alias spawns a robot carrying that name at a random spot.
// Connecting again on the same connection replaces the previous session.
func (a *Arena) Connect(connID, roleName string) *Session {
	if _, ok := a.sessions[connID]; ok {
		a.Disconnect(connID, "reconnect")
	}

	sess := &Session{
		ConnID:   connID,
		LastPing: a.Now,
	}
	if spectatorAliases[roleName] {
		sess.Role = RoleSpectator
		sess.Name = roleName
		a.sessions[connID] = sess
		a.track(EvtConnect, roleName, connID, string(RoleSpectator))
		return sess
	}

	name := robotName(roleName)
	r := NewRobot(
		GenerateID(),
		connID,
		name,
		Vec{X: a.rng.Float64() * a.Width, Y: a.rng.Float64() * a.Height},
		a.rng.Float64()*2*math.Pi,
		a.Now,
	)
	a.addRobot(r)
	a.scores.Entry(name)

	sess.Role = RoleRobot
	sess.Name = name
	sess.RobotID = r.ID
	a.sessions[connID] = sess
	a.track(EvtConnect, name, connID, string(RoleRobot))
	return sess
}

// Ping refreshes the liveness timestamp of a session
func (a *Arena) Ping(connID string) bool {
	s, ok := a.sessions[connID]
	if !ok {
		return false
	}
	s.LastPing = a.Now
	return true
}

// Disconnect removes the session for connID along with its robot. Other
// sessions keep resolving to their own robots since they reference robots
// by id, not by position.
func (a *Arena) Disconnect(connID, reason string) bool {
	s, ok := a.sessions[connID]
	if !ok {
		return false
	}
	if s.Role == RoleRobot {
		a.removeRobot(s.RobotID)
	}
	delete(a.sessions, connID)
	a.track(EvtDisconnect, s.Name, connID, reason)
	return true
}

// ExpiredSessions lists, sorted, the connections whose last ping is older than timeout
func (a *Arena) ExpiredSessions(timeout time.Duration) []string {
	var expired []string
	for id, s := range a.sessions {
		if a.Now.Sub(s.LastPing) > timeout {
			expired = append(expired, id)
		}
	}
	sort.Strings(expired)
	return expired
}

// SessionIDs returns the registered connection ids in sorted order
func (a *Arena) SessionIDs() []string {
	ids := make([]string, 0, len(a.sessions))
	for id := range a.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// robotName keeps the chosen name as sent, scores are keyed by it.
// Only a missing name falls back to the default.
func robotName(name string) string {
	if name == "" {
		return defaultRobotName
	}
	return name
}
