package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/readspace/readspace/internal/library"
)

// DefaultValidatorSchedule checks the stored token every fifteen minutes.
const DefaultValidatorSchedule = "*/15 * * * *"

// Validator periodically probes the remote API with the stored token and
// clears the session once the server stops accepting it, so an expired
// token turns into a clean signed-out state instead of a wall of 401s.
type Validator struct {
	client   *library.Client
	store    *Store
	schedule string

	mu        sync.Mutex
	cron      *cron.Cron
	isRunning bool
	lastCheck time.Time
}

// NewValidator creates a validator on the given cron schedule. An empty
// schedule uses the default.
func NewValidator(client *library.Client, store *Store, schedule string) *Validator {
	if schedule == "" {
		schedule = DefaultValidatorSchedule
	}
	return &Validator{client: client, store: store, schedule: schedule}
}

// Start begins the periodic checks. Starting twice is an error.
func (v *Validator) Start() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.isRunning {
		return fmt.Errorf("session validator is already running")
	}

	c := cron.New(cron.WithParser(cron.NewParser(
		cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
	)))
	if _, err := c.AddFunc(v.schedule, v.runCheck); err != nil {
		return fmt.Errorf("scheduling session check: %w", err)
	}

	c.Start()
	v.cron = c
	v.isRunning = true
	log.Printf("[session] validator started with schedule %q", v.schedule)
	return nil
}

// Stop halts the periodic checks. Safe to call when not running.
func (v *Validator) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.isRunning {
		return
	}
	ctx := v.cron.Stop()
	<-ctx.Done()
	v.cron = nil
	v.isRunning = false
	log.Printf("[session] validator stopped")
}

// RunNow performs one check immediately, outside the schedule.
func (v *Validator) RunNow() {
	v.runCheck()
}

// LastCheck returns the time of the most recent check, zero before any.
func (v *Validator) LastCheck() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastCheck
}

// runCheck probes the profile endpoint with the stored token. Only a 401
// clears the session; transient failures leave it alone.
func (v *Validator) runCheck() {
	v.mu.Lock()
	v.lastCheck = time.Now()
	v.mu.Unlock()

	state, err := v.store.Current()
	if err != nil {
		log.Printf("[session] validator could not read session: %v", err)
		return
	}
	if state == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err = v.client.GetProfile(ctx, state.Token)
	switch {
	case err == nil:
		return
	case errors.Is(err, library.ErrUnauthorized):
		log.Printf("[session] stored token rejected, clearing session")
		if clearErr := v.store.Clear(); clearErr != nil {
			log.Printf("[session] clearing expired session failed: %v", clearErr)
		}
	default:
		log.Printf("[session] validity check failed, keeping session: %v", err)
	}
}
