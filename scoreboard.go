package main

// ScoreEntry holds the tally for one robot name
type ScoreEntry struct {
	Kills  int `json:"kills"`
	Deaths int `json:"deaths"`
}

// ScoreBoard maps robot display names to kills and deaths. Entries are
// created on first reference and live for the whole process, so a robot
// that reconnects under the same name keeps its record, and two sessions
// sharing a name share one entry.
type ScoreBoard struct {
	entries map[string]*ScoreEntry
}

// NewScoreBoard creates an empty scoreboard
func NewScoreBoard() *ScoreBoard {
	return &ScoreBoard{entries: make(map[string]*ScoreEntry)}
}

// Entry returns the entry for name, creating it if needed
func (sb *ScoreBoard) Entry(name string) *ScoreEntry {
	e, ok := sb.entries[name]
	if !ok {
		e = &ScoreEntry{}
		sb.entries[name] = e
	}
	return e
}

// AddKill credits a kill to name
func (sb *ScoreBoard) AddKill(name string) {
	sb.Entry(name).Kills++
}

// AddDeath records a death for name
func (sb *ScoreBoard) AddDeath(name string) {
	sb.Entry(name).Deaths++
}

// Len returns the number of entries
func (sb *ScoreBoard) Len() int {
	return len(sb.entries)
}

// Snapshot copies the scoreboard for sending off the simulation goroutine
func (sb *ScoreBoard) Snapshot() map[string]ScoreEntry {
	out := make(map[string]ScoreEntry, len(sb.entries))
	for name, e := range sb.entries {
		out[name] = *e
	}
	return out
}
