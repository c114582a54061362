package main

import (
	"math"
	"sort"
)

const ScannerRange = 500.0

// Sides of a scan target relative to the query heading
const (
	SideClockwise        = -1 // bearing below the heading
	SideCounterClockwise = 1  // bearing above the heading
)

// ScanTarget is one detected object
type ScanTarget struct {
	Type     string  `json:"type"`
	Name     string  `json:"name"`
	ConnID   string  `json:"socketId"`
	Distance float64 `json:"distance"`
	Side     int     `json:"side"`
}

// ScanResult is the outcome of the latest scanner query
type ScanResult struct {
	Found   bool         `json:"found"`
	Angle   float64      `json:"angle"`
	Arc     float64      `json:"arc"`
	Targets []ScanTarget `json:"target"`
}

func emptyScan() ScanResult {
	return ScanResult{Angle: -1, Arc: -1, Targets: []ScanTarget{}}
}

func (s ScanResult) clone() ScanResult {
	s.Targets = append([]ScanTarget{}, s.Targets...)
	return s
}

// Scan queries every other living robot within ScannerRange whose bearing
// falls inside [heading-arc/2, heading+arc/2], closest first. heading must
// already be normalized to [0, 2π). The result replaces requester.Scan.
func (a *Arena) Scan(requester *Robot, heading, arc float64) ScanResult {
	res := ScanResult{Angle: heading, Arc: arc, Targets: []ScanTarget{}}
	half := arc / 2

	for _, r := range a.Robots() {
		if r.ID == requester.ID || r.Dead {
			continue
		}
		dist := math.Sqrt(distanceSqr(requester.Position, r.Position))
		if dist > ScannerRange {
			continue
		}
		bearing := normalizeBearing(math.Atan2(r.Position.Y-requester.Position.Y, r.Position.X-requester.Position.X))
		if !inArc(bearing, heading, half) {
			continue
		}
		res.Targets = append(res.Targets, ScanTarget{
			Type:     "robot",
			Name:     r.Name,
			ConnID:   r.ConnID,
			Distance: dist,
			Side:     scanSide(bearing, heading),
		})
	}

	sort.SliceStable(res.Targets, func(i, j int) bool {
		return res.Targets[i].Distance < res.Targets[j].Distance
	})
	res.Found = len(res.Targets) > 0
	requester.Scan = res
	return res
}

// inArc tests bearing against [heading-half, heading+half] shifted by -2π, 0
// and +2π, which covers intervals straddling the 0/2π seam.
func inArc(bearing, heading, half float64) bool {
	for _, shift := range [...]float64{-2 * math.Pi, 0, 2 * math.Pi} {
		lo := heading + shift - half
		hi := heading + shift + half
		if bearing >= lo && bearing <= hi {
			return true
		}
	}
	return false
}

// scanSide reports which side of heading the bearing lies on
func scanSide(bearing, heading float64) int {
	if NormalizeAngle(bearing-heading) > 0 {
		return SideCounterClockwise
	}
	return SideClockwise
}

// normalizeBearing maps an atan2 result from [-π, π] into [0, 2π)
func normalizeBearing(a float64) float64 {
	a = math.Mod(a+2*math.Pi, 2*math.Pi)
	if a >= 2*math.Pi {
		a = 0
	}
	return a
}
