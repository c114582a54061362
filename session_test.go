package main

import (
	"math"
	"strings"
	"testing"
	"time"
)

func TestConnectSpawnsRobot(t *testing.T) {
	a := newTestArena()
	tr := &mockTracker{}
	a.SetTracker(tr)

	sess := a.Connect("c1", "Alice")
	if sess.Role != RoleRobot || sess.Name != "Alice" || sess.RobotID == "" {
		t.Fatalf("unexpected session %+v", sess)
	}
	r, ok := a.Robot(sess.RobotID)
	if !ok {
		t.Fatal("robot not registered")
	}
	if r.ConnID != "c1" || r.Name != "Alice" {
		t.Errorf("robot identity mismatch: %+v", r)
	}
	if r.Position.X < 0 || r.Position.X > a.Width || r.Position.Y < 0 || r.Position.Y > a.Height {
		t.Errorf("spawn outside arena: %v", r.Position)
	}
	if r.Heading < 0 || r.Heading >= 2*math.Pi {
		t.Errorf("spawn heading out of range: %f", r.Heading)
	}
	if r.Speed != 0 || r.Damage != 0 || r.Dead {
		t.Error("fresh robot should be idle and undamaged")
	}
	if a.Scores().Len() != 1 {
		t.Error("scoreboard entry should be created on connect")
	}
	if tr.count(EvtConnect) != 1 {
		t.Error("connect should be tracked")
	}
}

func TestConnectSpectatorAliases(t *testing.T) {
	for _, role := range []string{"spectator", "arenaViewer"} {
		a := newTestArena()
		sess := a.Connect("v1", role)
		if sess.Role != RoleSpectator {
			t.Errorf("%s: expected spectator, got %s", role, sess.Role)
		}
		if sess.RobotID != "" || a.RobotCount() != 0 {
			t.Errorf("%s: spectator must not spawn a robot", role)
		}
		if a.Scores().Len() != 0 {
			t.Errorf("%s: spectator must not get a score entry", role)
		}
	}
}

func TestDisconnectKeepsOtherSessionsResolving(t *testing.T) {
	a := newTestArena()
	a.Connect("c1", "One")
	a.Connect("c2", "Two")
	a.Connect("c3", "Three")

	if !a.Disconnect("c2", "test") {
		t.Fatal("disconnect should report an existing session")
	}
	if a.RobotCount() != 2 || a.SessionCount() != 2 {
		t.Fatalf("expected 2 robots and sessions, got %d/%d", a.RobotCount(), a.SessionCount())
	}
	for _, id := range []string{"c1", "c3"} {
		r, ok := a.SessionRobot(id)
		if !ok {
			t.Fatalf("session %s lost its robot", id)
		}
		if r.ConnID != id {
			t.Errorf("session %s resolves to robot of %s", id, r.ConnID)
		}
	}
	if _, ok := a.SessionRobot("c2"); ok {
		t.Error("disconnected session should not resolve")
	}

	// Commands keep reaching the right robot
	tickClock(a, DriveCooldownTicks)
	if !a.SetDrive("c3", 1, 42) {
		t.Fatal("setDrive for c3 should apply")
	}
	r3, _ := a.SessionRobot("c3")
	r1, _ := a.SessionRobot("c1")
	if r3.Speed != 42 || r1.Speed != 0 {
		t.Errorf("drive hit the wrong robot: c1=%f c3=%f", r1.Speed, r3.Speed)
	}
}

func TestDisconnectUnknown(t *testing.T) {
	a := newTestArena()
	if a.Disconnect("nope", "test") {
		t.Error("disconnect of unknown session should report false")
	}
}

func TestReconnectReplacesSession(t *testing.T) {
	a := newTestArena()
	first := a.Connect("c1", "Alice")
	second := a.Connect("c1", "Bob")

	if a.SessionCount() != 1 || a.RobotCount() != 1 {
		t.Fatalf("expected a single session and robot, got %d/%d", a.SessionCount(), a.RobotCount())
	}
	if _, ok := a.Robot(first.RobotID); ok {
		t.Error("old robot should be removed")
	}
	r, ok := a.SessionRobot("c1")
	if !ok || r.ID != second.RobotID || r.Name != "Bob" {
		t.Error("session should resolve to the new robot")
	}

	a.Connect("c1", "spectator")
	if a.RobotCount() != 0 {
		t.Error("switching to spectator should drop the robot")
	}
}

func TestSessionTimeout(t *testing.T) {
	a := newTestArena()
	a.Connect("quiet", "Quiet")
	a.Connect("chatty", "Chatty")
	a.Connect("viewer", "spectator")

	a.Now = a.Now.Add(30 * time.Second)
	a.Ping("chatty")
	a.Ping("viewer")

	a.Now = a.Now.Add(30 * time.Second)
	if got := a.ExpiredSessions(DefaultSessionTimeout); len(got) != 0 {
		t.Errorf("exactly at the timeout nobody expires, got %v", got)
	}

	a.Now = a.Now.Add(time.Millisecond)
	got := a.ExpiredSessions(DefaultSessionTimeout)
	if len(got) != 1 || got[0] != "quiet" {
		t.Fatalf("expected only quiet to expire, got %v", got)
	}

	a.Now = a.Now.Add(30 * time.Second)
	got = a.ExpiredSessions(DefaultSessionTimeout)
	if len(got) != 3 || got[0] != "chatty" || got[1] != "quiet" || got[2] != "viewer" {
		t.Errorf("expected all sessions sorted, got %v", got)
	}
}

func TestPingUnknown(t *testing.T) {
	a := newTestArena()
	if a.Ping("nope") {
		t.Error("ping of unknown session should report false")
	}
}

func TestScoreSurvivesReconnectUnderSameName(t *testing.T) {
	a := newTestArena()
	a.Connect("c1", "Bob")
	a.Scores().AddKill("Bob")
	a.Disconnect("c1", "test")

	a.Connect("c2", "Bob")
	if got := a.Scores().Entry("Bob").Kills; got != 1 {
		t.Errorf("expected Bob to keep 1 kill, got %d", got)
	}
	if a.Scores().Len() != 1 {
		t.Errorf("expected a single scoreboard entry, got %d", a.Scores().Len())
	}
}

func TestSameNameSharesScoreEntry(t *testing.T) {
	a := newTestArena()
	a.Connect("c1", "Twin")
	a.Connect("c2", "Twin")
	a.Scores().AddDeath("Twin")

	if a.RobotCount() != 2 {
		t.Fatalf("expected two robots, got %d", a.RobotCount())
	}
	if a.Scores().Len() != 1 || a.Scores().Entry("Twin").Deaths != 1 {
		t.Error("robots sharing a name should share one entry")
	}
}

func TestRobotNameKeptVerbatim(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Alice", "Alice"},
		{"  Bob  ", "  Bob  "},
		{"", defaultRobotName},
		{strings.Repeat("x", 40), strings.Repeat("x", 40)},
	}
	for _, tt := range tests {
		if got := robotName(tt.in); got != tt.want {
			t.Errorf("robotName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPaddedNamesKeepSeparateScores(t *testing.T) {
	a := newTestArena()
	a.Connect("c1", "Bob")
	a.Connect("c2", " Bob")
	a.Scores().AddKill("Bob")

	if a.Scores().Len() != 2 {
		t.Fatalf("expected two scoreboard entries, got %d", a.Scores().Len())
	}
	if a.Scores().Entry(" Bob").Kills != 0 {
		t.Error("padded name must not share the entry of Bob")
	}
}

func TestSessionIDsSorted(t *testing.T) {
	a := newTestArena()
	for _, id := range []string{"c", "a", "b"} {
		a.Connect(id, "spectator")
	}
	ids := a.SessionIDs()
	if strings.Join(ids, ",") != "a,b,c" {
		t.Errorf("expected sorted ids, got %v", ids)
	}
}
