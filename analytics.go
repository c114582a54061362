package main

import (
	"database/sql"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// Event types for analytics tracking
const (
	EvtConnect    = "connect"
	EvtDisconnect = "disconnect"
	EvtKill       = "kill"
	EvtDeath      = "death"
)

const (
	analyticsQueueSize  = 1024
	analyticsBatchSize  = 50
	analyticsFlushEvery = 5 * time.Second
)

// AnalyticsEvent represents a single trackable event
type AnalyticsEvent struct {
	Type      string
	Name      string
	ConnID    string
	Data      string // kill victim, disconnect reason, session role
	Timestamp time.Time
}

// Analytics handles event tracking with batched background writes
type Analytics struct {
	db     *DB
	events chan AnalyticsEvent
	stop   chan struct{}
	wg     sync.WaitGroup
}

// NewAnalytics creates and starts the analytics background writer
func NewAnalytics(db *DB) *Analytics {
	a := &Analytics{
		db:     db,
		events: make(chan AnalyticsEvent, analyticsQueueSize),
		stop:   make(chan struct{}),
	}
	a.wg.Add(1)
	go a.writer()
	return a
}

// Track enqueues an event for async persistence (non-blocking)
func (a *Analytics) Track(evtType, name, connID, data string) {
	select {
	case a.events <- AnalyticsEvent{
		Type:      evtType,
		Name:      name,
		ConnID:    connID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}:
	default:
		// Queue full, drop the event
	}
}

// Stop flushes pending events and shuts down the writer. Track must not be
// called after Stop.
func (a *Analytics) Stop() {
	close(a.stop)
	a.wg.Wait()
}

// writer is the background goroutine that batches and writes events to DB
func (a *Analytics) writer() {
	defer a.wg.Done()

	batch := make([]AnalyticsEvent, 0, analyticsBatchSize)
	ticker := time.NewTicker(analyticsFlushEvery)
	defer ticker.Stop()

	for {
		select {
		case evt := <-a.events:
			batch = append(batch, evt)
			if len(batch) >= analyticsBatchSize {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-a.stop:
			// Drain remaining events
		drain:
			for {
				select {
				case evt := <-a.events:
					batch = append(batch, evt)
				default:
					break drain
				}
			}
			if len(batch) > 0 {
				a.flush(batch)
			}
			return
		}
	}
}

// flush writes a batch of events to the database
func (a *Analytics) flush(events []AnalyticsEvent) {
	if a.db == nil || len(events) == 0 {
		return
	}
	if err := a.insert(events); err != nil {
		log.Error("analytics flush", "events", len(events), "err", err)
	}
}

func (a *Analytics) insert(events []AnalyticsEvent) error {
	tx, err := a.db.conn.Begin()
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO analytics_events (event_type, name, conn_id, data, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "prepare")
	}
	defer stmt.Close()

	for _, evt := range events {
		name := sql.NullString{String: evt.Name, Valid: evt.Name != ""}
		cid := sql.NullString{String: evt.ConnID, Valid: evt.ConnID != ""}
		data := sql.NullString{String: evt.Data, Valid: evt.Data != ""}
		if _, err := stmt.Exec(evt.Type, name, cid, data, evt.Timestamp.Format(time.RFC3339)); err != nil {
			return errors.Wrapf(err, "insert %s", evt.Type)
		}
	}
	return errors.Wrap(tx.Commit(), "commit")
}

// EventCounts returns counts of each event type for the last N days
func (a *Analytics) EventCounts(days int) (map[string]int, error) {
	if a.db == nil {
		return nil, nil
	}
	rows, err := a.db.conn.Query(`
		SELECT event_type, COUNT(*) FROM analytics_events
		WHERE created_at >= date('now', '-' || ? || ' days')
		GROUP BY event_type ORDER BY COUNT(*) DESC
	`, days)
	if err != nil {
		return nil, errors.Wrap(err, "event counts")
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var evtType string
		var count int
		if err := rows.Scan(&evtType, &count); err != nil {
			continue
		}
		result[evtType] = count
	}
	return result, rows.Err()
}

// TopKillers returns robot names ordered by logged kills, most first
func (a *Analytics) TopKillers(limit int) ([]KillCount, error) {
	if a.db == nil {
		return nil, nil
	}
	rows, err := a.db.conn.Query(`
		SELECT name, COUNT(*) AS cnt FROM analytics_events
		WHERE event_type = ? AND name IS NOT NULL
		GROUP BY name ORDER BY cnt DESC, name ASC LIMIT ?
	`, EvtKill, limit)
	if err != nil {
		return nil, errors.Wrap(err, "top killers")
	}
	defer rows.Close()

	var result []KillCount
	for rows.Next() {
		var kc KillCount
		if err := rows.Scan(&kc.Name, &kc.Kills); err != nil {
			continue
		}
		result = append(result, kc)
	}
	return result, rows.Err()
}

// KillCount is one row of TopKillers
type KillCount struct {
	Name  string `json:"name"`
	Kills int    `json:"kills"`
}
