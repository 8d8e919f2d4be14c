// Package killswitch implements the global emergency trading halt, the
// gate every signal must clear before any risk check runs.
package killswitch

import (
	"context"
	"fmt"
	"time"

	"tradecore/logger"
)

// Status describes the kill switch's current externalized state.
type Status struct {
	Active        bool
	Reason        string
	ActivatedAt   *time.Time
	DeactivatedAt *time.Time
}

// Store is the externalized kill switch state. A Store may be backed by
// Redis or any other durable key-value store; it must never be the only
// copy of "is trading halted" held in process memory, since the whole
// point of the mechanism is that any process instance can observe and
// flip it.
type Store interface {
	IsActive(ctx context.Context) (bool, error)
	Activate(ctx context.Context, reason string, at time.Time) error
	Deactivate(ctx context.Context, reason string, at time.Time) error
	Status(ctx context.Context) (Status, error)
}

// KillSwitch is the gate consulted at the top of the signal pipeline.
type KillSwitch struct {
	store Store
	log   interface {
		Errorf(format string, args ...interface{})
	}
}

// New builds a KillSwitch backed by store.
func New(store Store) *KillSwitch {
	return &KillSwitch{store: store, log: logger.Component("killswitch")}
}

// IsActive reports whether trading is currently halted. On a backing-store
// error it fails closed: trading is treated as halted rather than risk a
// silent bypass of the emergency stop.
func (k *KillSwitch) IsActive(ctx context.Context) bool {
	active, err := k.store.IsActive(ctx)
	if err != nil {
		k.log.Errorf("kill switch store unavailable, failing closed (halted): %v", err)
		return true
	}
	return active
}

// Activate halts all trading with the given reason.
func (k *KillSwitch) Activate(ctx context.Context, reason string, at time.Time) error {
	if reason == "" {
		reason = "Manual activation"
	}
	if err := k.store.Activate(ctx, reason, at); err != nil {
		return fmt.Errorf("killswitch: activate failed: %w", err)
	}
	return nil
}

// Deactivate resumes trading with the given reason.
func (k *KillSwitch) Deactivate(ctx context.Context, reason string, at time.Time) error {
	if reason == "" {
		reason = "Manual deactivation"
	}
	if err := k.store.Deactivate(ctx, reason, at); err != nil {
		return fmt.Errorf("killswitch: deactivate failed: %w", err)
	}
	return nil
}

// Status returns the full kill switch status, failing closed on error the
// same way IsActive does.
func (k *KillSwitch) Status(ctx context.Context) Status {
	st, err := k.store.Status(ctx)
	if err != nil {
		k.log.Errorf("kill switch store unavailable, failing closed (halted): %v", err)
		return Status{Active: true, Reason: "backing store unavailable"}
	}
	return st
}
