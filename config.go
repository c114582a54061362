package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// maxArenaSize bounds each arena side, the blast grid is allocated from it
const maxArenaSize = 10000

// Config holds server and arena settings
type Config struct {
	Addr           string
	Width          float64
	Height         float64
	TickRate       int
	SessionTimeout time.Duration
	MaxConnsPerIP  int
	MaxTotalConns  int
	DBPath         string // analytics event log, empty disables it
	SnapshotCodec  string
	PublicURL      string // websocket URL advertised by /qr, derived from the request when empty
	LogLevel       string
}

// DefaultConfig returns the stock arena settings
func DefaultConfig() Config {
	return Config{
		Addr:           ":41337",
		Width:          DefaultArenaWidth,
		Height:         DefaultArenaHeight,
		TickRate:       DefaultTickRate,
		SessionTimeout: DefaultSessionTimeout,
		MaxConnsPerIP:  defaultMaxConnsPerIP,
		MaxTotalConns:  defaultMaxTotalConns,
		SnapshotCodec:  CodecJSON,
		LogLevel:       "info",
	}
}

// LoadEnvFiles loads .env style files into the process environment.
// Missing files are skipped; variables already set win.
func LoadEnvFiles(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.Wrapf(err, "load env file %s", f)
		}
	}
	return nil
}

// Validate rejects settings the simulation cannot run with
func (c Config) Validate() error {
	if !(c.Width > 0 && c.Height > 0) {
		return errors.Errorf("arena size must be positive, got %vx%v", c.Width, c.Height)
	}
	if c.Width > maxArenaSize || c.Height > maxArenaSize {
		return errors.Errorf("arena size is capped at %dx%d, got %vx%v", maxArenaSize, maxArenaSize, c.Width, c.Height)
	}
	if c.TickRate <= 0 || c.TickRate > 1000 {
		return errors.Errorf("tick rate must be in 1..1000, got %d", c.TickRate)
	}
	if c.SessionTimeout <= 0 {
		return errors.Errorf("session timeout must be positive, got %s", c.SessionTimeout)
	}
	if c.MaxConnsPerIP <= 0 || c.MaxTotalConns <= 0 {
		return errors.New("connection limits must be positive")
	}
	switch c.SnapshotCodec {
	case CodecJSON, CodecMsgpack:
	default:
		return errors.Errorf("unknown snapshot codec %q", c.SnapshotCodec)
	}
	return nil
}
