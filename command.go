package main

import (
	"math"
	"time"
)

// Cooldowns in tick periods
const (
	FireCooldownTicks  = 6
	DriveCooldownTicks = 3
	ScanCooldownTicks  = 2
)

const (
	minScanArc = math.Pi / 180 // ~1 degree
	maxScanArc = 2 * math.Pi
	// inputs below this are treated as garbage rather than unwound
	minAngleInput = -20 * math.Pi
)

// NormalizeInputAngle maps any client-supplied angle into [0, 2π). Inputs
// below -20π, NaN and infinities count as 0.
func NormalizeInputAngle(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) || a < minAngleInput {
		return 0
	}
	if a < 0 {
		a -= minAngleInput
	}
	a = math.Mod(a, 2*math.Pi)
	if a >= 2*math.Pi || a < 0 {
		a = 0
	}
	return a
}

// commandRobot checks the shared preconditions of every robot command:
// the session exists, owns a robot, the robot is alive and its cooldown
// (last, in ticks) has elapsed against the arena clock.
func (a *Arena) commandRobot(connID string, last func(*Robot) time.Time, ticks int) (*Robot, bool) {
	r, ok := a.SessionRobot(connID)
	if !ok || r.Dead {
		return nil, false
	}
	if a.Now.Sub(last(r)) < time.Duration(ticks)*a.TickPeriod() {
		return nil, false
	}
	return r, true
}

// FireCannon launches a missile from the robot owned by connID. Returns
// false when the command was ignored.
func (a *Arena) FireCannon(connID string, angle, rng float64) bool {
	r, ok := a.commandRobot(connID, func(r *Robot) time.Time { return r.LastFired }, FireCooldownTicks)
	if !ok {
		return false
	}
	if !(rng >= MinMissileRange) {
		rng = MinMissileRange
	}
	a.missiles = append(a.missiles, &Missile{
		OwnerConnID:  connID,
		OwnerRobotID: r.ID,
		Start:        r.Position,
		Position:     r.Position,
		Heading:      NormalizeInputAngle(angle),
		Speed:        MissileSpeed,
		Range:        rng,
	})
	r.LastFired = a.Now
	return true
}

// SetDrive sets heading and speed of the robot owned by connID
func (a *Arena) SetDrive(connID string, angle, speed float64) bool {
	r, ok := a.commandRobot(connID, func(r *Robot) time.Time { return r.LastDrive }, DriveCooldownTicks)
	if !ok {
		return false
	}
	if math.IsNaN(speed) {
		speed = 0
	}
	r.Heading = NormalizeInputAngle(angle)
	r.Speed = Clamp(speed, 0, MaxSpeed)
	r.LastDrive = a.Now
	return true
}

// CheckScanner runs a scanner query for the robot owned by connID
func (a *Arena) CheckScanner(connID string, angle, arc float64) (ScanResult, bool) {
	r, ok := a.commandRobot(connID, func(r *Robot) time.Time { return r.LastScan }, ScanCooldownTicks)
	if !ok {
		return ScanResult{}, false
	}
	if math.IsNaN(arc) {
		arc = minScanArc
	}
	res := a.Scan(r, NormalizeInputAngle(angle), Clamp(arc, minScanArc, maxScanArc))
	r.LastScan = a.Now
	return res, true
}
