package main

import "testing"

func TestScoreBoardEntryCreatedOnDemand(t *testing.T) {
	sb := NewScoreBoard()
	if sb.Len() != 0 {
		t.Fatal("new scoreboard should be empty")
	}
	e := sb.Entry("A")
	if e.Kills != 0 || e.Deaths != 0 {
		t.Error("new entry should be zeroed")
	}
	if sb.Entry("A") != e {
		t.Error("entry should be reused")
	}
	if sb.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", sb.Len())
	}
}

func TestScoreBoardTallies(t *testing.T) {
	sb := NewScoreBoard()
	sb.AddKill("A")
	sb.AddKill("A")
	sb.AddDeath("A")
	sb.AddDeath("B")

	snap := sb.Snapshot()
	if snap["A"] != (ScoreEntry{Kills: 2, Deaths: 1}) {
		t.Errorf("unexpected A entry %+v", snap["A"])
	}
	if snap["B"] != (ScoreEntry{Kills: 0, Deaths: 1}) {
		t.Errorf("unexpected B entry %+v", snap["B"])
	}
}

func TestScoreBoardSnapshotIsCopy(t *testing.T) {
	sb := NewScoreBoard()
	sb.AddKill("A")
	snap := sb.Snapshot()
	sb.AddKill("A")

	if snap["A"].Kills != 1 {
		t.Error("snapshot should not follow later changes")
	}
}
