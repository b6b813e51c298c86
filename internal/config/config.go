package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"foosrank/internal/trueskill"
)

type Config struct {
	// SQLDSN is the sqlite3 data source, defaults to a file next to the
	// binary.
	SQLDSN string

	// Rating model constants, zero values mean "use the canonical
	// defaults" (beta=25/6, tau=25/300).
	RatingBeta float64
	RatingTau  float64

	// RatingDrawProbability is a pointer so an explicit 0 (no draw
	// margin at all) stays distinguishable from "unset, use 10 %".
	RatingDrawProbability *float64

	// ConservativeK is the uncertainty penalty used by leaderboards when
	// the caller does not pick one.
	ConservativeK float64

	// LockTimeoutMS bounds how long a result submission may wait on
	// players involved in another in-flight submission.
	LockTimeoutMS int
}

func NewFromUserConfigDir() (*Config, error) {
	c := &Config{}
	if err := c.ReloadFromUserConfigDir(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) expandFromEnv() {
	if str := os.Getenv("FOOSRANK_SQL_DSN"); str != "" {
		c.SQLDSN = str
	}

	if str := os.Getenv("FOOSRANK_LOCK_TIMEOUT_MS"); str != "" {
		ms, err := strconv.Atoi(str)
		if err != nil {
			log.Printf("warning: ignoring bad FOOSRANK_LOCK_TIMEOUT_MS: %s", err)
		} else {
			c.LockTimeoutMS = ms
		}
	}
}

func (c *Config) ReloadFromUserConfigDir() error {
	defer c.expandFromEnv()

	path, err := getOrCreateUserConfigPath()
	if err != nil {
		return err
	}
	log.Printf("debug: reading conf from %s", path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		*c = Config{}
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return json.NewDecoder(f).Decode(c)
}

func getOrCreateUserConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(configDir, "foosrank")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}

	return filepath.Join(dir, "config.json"), nil
}

func (c *Config) Write() error {
	path, err := getOrCreateUserConfigPath()
	if err != nil {
		return err
	}
	log.Printf("debug: writing conf to %s", path)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o700)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(f).Encode(c); err != nil {
		if err2 := f.Close(); err2 != nil {
			return fmt.Errorf("unable to close file (%s) after error: %w", err2, err)
		}

		return err
	}

	return f.Close()
}

// Rating returns the rating model parameters with defaults filled in for
// anything the user left unset.
func (c *Config) Rating() trueskill.Parameters {
	p := trueskill.DefaultParameters()

	if c.RatingBeta > 0 {
		p.Beta = c.RatingBeta
	}
	if c.RatingTau > 0 {
		p.Tau = c.RatingTau
	}
	if c.RatingDrawProbability != nil {
		p.DrawProbability = *c.RatingDrawProbability
	}

	return p
}

// LockTimeout never returns zero, an unbounded wait would let one stuck
// submission pile everyone else up behind it.
func (c *Config) LockTimeout() time.Duration {
	if c.LockTimeoutMS <= 0 {
		return 5 * time.Second
	}

	return time.Duration(c.LockTimeoutMS) * time.Millisecond
}

// RankingK returns the uncertainty penalty for conservative scores.
func (c *Config) RankingK() float64 {
	if c.ConservativeK <= 0 {
		return 3.0
	}

	return c.ConservativeK
}
