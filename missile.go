package main

const (
	MissileSpeed    = 500.0 // units/s
	MinMissileRange = 1.0
	BlastRadius     = 50.0
	blastRadiusSqr  = BlastRadius * BlastRadius
	blastFalloff    = 250.0 // divisor turning squared distance into damage
)

// Missile is a cannon shell. It detonates once it has covered Range units.
type Missile struct {
	OwnerConnID  string
	OwnerRobotID string
	Start        Vec
	Position     Vec
	Heading      float64
	Speed        float64
	Range        float64
	Traveled     float64
}

// Explosion describes a detonation resolved during a tick
type Explosion struct {
	At      Vec
	OwnerID string
	Hits    int
	Kills   int
}

// SplashDamage returns the damage dealt at squared distance distSqr from a
// detonation: linear in distSqr, 10 at the epicenter, 0 at the blast edge.
func SplashDamage(distSqr float64) float64 {
	if distSqr > blastRadiusSqr {
		return 0
	}
	return (blastRadiusSqr - distSqr) / blastFalloff
}

// UpdateMissiles advances every missile one tick. A missile that leaves the
// arena is dropped silently; one that exhausts its range explodes. Either
// way it is removed exactly once.
func (a *Arena) UpdateMissiles() []Explosion {
	var blasts []Explosion
	live := a.missiles
	if len(live) > 0 {
		a.indexRobots()
	}
	kept := make([]*Missile, 0, len(live))
	for _, m := range live {
		var step float64
		m.Position, step = a.advance(m.Position, m.Heading, m.Speed)
		m.Traveled += step

		if a.outOfBounds(m.Position) {
			continue
		}
		if m.Traveled >= m.Range {
			blasts = append(blasts, a.explode(m))
			continue
		}
		kept = append(kept, m)
	}
	a.missiles = kept
	return blasts
}

func (a *Arena) explode(m *Missile) Explosion {
	ex := Explosion{At: m.Position, OwnerID: m.OwnerRobotID}
	for _, r := range a.robotsNear(m.Position, BlastRadius) {
		dmg := SplashDamage(distanceSqr(r.Position, m.Position))
		if dmg <= 0 {
			continue
		}
		ex.Hits++
		before := r.Damage
		r.Damage += dmg
		if r.Damage > MaxDamage {
			r.Damage = MaxDamage
		}
		if before < MaxDamage && r.Damage >= MaxDamage {
			ex.Kills++
			a.creditKill(m, r)
		}
	}
	return ex
}

// creditKill awards the kill to the owner's current name. A missile whose
// owner has already left the arena scores nothing.
func (a *Arena) creditKill(m *Missile, victim *Robot) {
	owner, ok := a.Robot(m.OwnerRobotID)
	if !ok {
		return
	}
	a.scores.AddKill(owner.Name)
	a.track(EvtKill, owner.Name, owner.ConnID, victim.Name)
}

// ToState converts to protocol state
func (m *Missile) ToState() MissileState {
	return MissileState{
		OwnerID:    m.OwnerConnID,
		StartPoint: m.Start,
		Position:   m.Position,
		Heading:    m.Heading,
		Speed:      m.Speed,
		Range:      m.Range,
	}
}
