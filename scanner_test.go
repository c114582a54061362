package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// polar returns the point at distance d and bearing angle from origin
func polar(origin Vec, angle, d float64) Vec {
	return Vec{origin.X + math.Cos(angle)*d, origin.Y + math.Sin(angle)*d}
}

func TestScanFullCircle(t *testing.T) {
	a := newTestArena()
	center := Vec{375, 375}
	me := placeRobot(t, a, "me", "Me", center)
	placeRobot(t, a, "e", "East", polar(center, 0, 100))
	placeRobot(t, a, "s", "South", polar(center, math.Pi/2, 200))
	placeRobot(t, a, "w", "West", polar(center, math.Pi, 300))
	placeRobot(t, a, "n", "North", polar(center, 3*math.Pi/2, 50))

	for _, heading := range []float64{0, 1, math.Pi, 5, 2*math.Pi - 0.01} {
		res := a.Scan(me, heading, 2*math.Pi)
		assert.True(t, res.Found)
		assert.Len(t, res.Targets, 4, "heading %v", heading)
	}
}

func TestScanRange(t *testing.T) {
	a := newTestArena()
	me := placeRobot(t, a, "me", "Me", Vec{100, 100})
	placeRobot(t, a, "near", "Near", Vec{100, 599})
	placeRobot(t, a, "far", "Far", Vec{700, 700})

	res := a.Scan(me, 0, 2*math.Pi)
	require.Len(t, res.Targets, 1)
	assert.Equal(t, "Near", res.Targets[0].Name)
	assert.InDelta(t, 499, res.Targets[0].Distance, 1e-9)
}

func TestScanWrapsAroundZero(t *testing.T) {
	a := newTestArena()
	center := Vec{300, 300}
	me := placeRobot(t, a, "me", "Me", center)
	placeRobot(t, a, "below", "Below", polar(center, -10*math.Pi/180, 100)) // bearing 350 degrees
	placeRobot(t, a, "above", "Above", polar(center, 10*math.Pi/180, 120))
	placeRobot(t, a, "side", "Side", polar(center, math.Pi/2, 100))

	res := a.Scan(me, 5*math.Pi/180, 40*math.Pi/180)
	require.Len(t, res.Targets, 2)
	assert.Equal(t, "Below", res.Targets[0].Name)
	assert.Equal(t, "Above", res.Targets[1].Name)

	// Same seam from the other side: heading just below 2π
	res = a.Scan(me, 2*math.Pi-5*math.Pi/180, 40*math.Pi/180)
	require.Len(t, res.Targets, 2)
	assert.Equal(t, "Below", res.Targets[0].Name)
	assert.Equal(t, "Above", res.Targets[1].Name)
}

func TestScanNarrowArc(t *testing.T) {
	a := newTestArena()
	center := Vec{300, 300}
	me := placeRobot(t, a, "me", "Me", center)
	placeRobot(t, a, "t", "Target", polar(center, 1, 200))

	assert.True(t, a.Scan(me, 1, minScanArc).Found)
	assert.False(t, a.Scan(me, 1.1, minScanArc).Found)
}

func TestScanSortedByDistance(t *testing.T) {
	a := newTestArena()
	center := Vec{375, 375}
	me := placeRobot(t, a, "me", "Me", center)
	placeRobot(t, a, "c", "C", polar(center, 0.1, 300))
	placeRobot(t, a, "a", "A", polar(center, 0.2, 50))
	placeRobot(t, a, "b", "B", polar(center, 0.3, 150))

	res := a.Scan(me, 0.2, 1)
	require.Len(t, res.Targets, 3)
	names := []string{res.Targets[0].Name, res.Targets[1].Name, res.Targets[2].Name}
	assert.Equal(t, []string{"A", "B", "C"}, names)
	for i := 1; i < len(res.Targets); i++ {
		assert.LessOrEqual(t, res.Targets[i-1].Distance, res.Targets[i].Distance)
	}
}

func TestScanSkipsSelfAndDead(t *testing.T) {
	a := newTestArena()
	center := Vec{375, 375}
	me := placeRobot(t, a, "me", "Me", center)
	dead := placeRobot(t, a, "d", "Dead", polar(center, 0, 100))
	dead.Dead = true
	placeRobot(t, a, "l", "Alive", polar(center, 0, 200))

	res := a.Scan(me, 0, 2*math.Pi)
	require.Len(t, res.Targets, 1)
	assert.Equal(t, "Alive", res.Targets[0].Name)
	assert.Equal(t, "l", res.Targets[0].ConnID)
	assert.Equal(t, "robot", res.Targets[0].Type)
}

func TestScanSide(t *testing.T) {
	a := newTestArena()
	center := Vec{375, 375}
	me := placeRobot(t, a, "me", "Me", center)
	placeRobot(t, a, "ccw", "CCW", polar(center, 0.2, 100))
	placeRobot(t, a, "cw", "CW", polar(center, -0.2, 200))

	res := a.Scan(me, 0, 1)
	require.Len(t, res.Targets, 2)
	assert.Equal(t, SideCounterClockwise, res.Targets[0].Side)
	assert.Equal(t, SideClockwise, res.Targets[1].Side)
}

func TestScanReplacesPreviousResult(t *testing.T) {
	a := newTestArena()
	center := Vec{375, 375}
	me := placeRobot(t, a, "me", "Me", center)
	placeRobot(t, a, "t", "Target", polar(center, 0, 100))

	res := a.Scan(me, 0, 0.5)
	require.True(t, res.Found)
	assert.True(t, me.Scan.Found)

	res = a.Scan(me, math.Pi, 0.5)
	assert.False(t, res.Found)
	assert.Empty(t, me.Scan.Targets)
	assert.NotNil(t, me.Scan.Targets)
	assert.Equal(t, math.Pi, me.Scan.Angle)
	assert.Equal(t, 0.5, me.Scan.Arc)
}

func TestInArc(t *testing.T) {
	tests := []struct {
		name                 string
		bearing, heading, hw float64
		want                 bool
	}{
		{"inside", 1, 1.1, 0.2, true},
		{"lower edge", 0.5, 1, 0.5, true},
		{"outside", 0.5, 1.1, 0.2, false},
		{"wrap from low heading", 6.2, 0.05, 0.2, true},
		{"wrap from high heading", 0.05, 6.2, 0.2, true},
		{"full circle", 3, 0, math.Pi, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inArc(tt.bearing, tt.heading, tt.hw))
		})
	}
}
