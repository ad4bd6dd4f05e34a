// Copyright (c) Microsoft. All rights reserved.

package agentflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ResourceState tracks readiness of an externally materialized object.
type ResourceState string

const (
	ResourcePending ResourceState = "pending"
	ResourceReady   ResourceState = "ready"
	ResourceFailed  ResourceState = "failed"
)

// ResourceHandle is an opaque identifier plus readiness state for an external
// long-lived object (uploaded file, vector store). Handles are immutable once
// Ready and safe to share read-only across concurrent runs.
type ResourceHandle struct {
	ID         string
	Source     string
	ProviderID string
	State      ResourceState
}

// Provisioner is the external boundary that actually creates resources.
// Implementations wrap a provider's upload / vector-store APIs.
type Provisioner interface {
	// Create submits a creation request for the given source reference and
	// returns the provider-side id of the new object.
	Create(ctx context.Context, source string) (string, error)

	// Status reports the readiness of a previously created object.
	Status(ctx context.Context, providerID string) (ResourceState, error)
}

// BinderConfig controls the create-then-poll protocol of a [Binder].
type BinderConfig struct {
	// PollInterval is the delay between readiness checks. Default: 500ms.
	PollInterval time.Duration

	// MaxWait bounds the total time spent waiting for readiness.
	// Default: 60s.
	MaxWait time.Duration

	// MaxPollRetries bounds consecutive transient poll failures before the
	// materialization is abandoned. Default: 3.
	MaxPollRetries int
}

// DefaultBinderConfig returns the default configuration.
func DefaultBinderConfig() BinderConfig {
	return BinderConfig{
		PollInterval:   500 * time.Millisecond,
		MaxWait:        60 * time.Second,
		MaxPollRetries: 3,
	}
}

// Binder materializes external resources with create-then-poll semantics and
// a bounded wait. Materialization is idempotent per source reference: once a
// source is Ready, repeated calls return the same handle without creating
// duplicate provider objects.
type Binder struct {
	provisioner Provisioner
	config      BinderConfig
	logger      *slog.Logger

	mu      sync.Mutex
	handles map[string]*ResourceHandle
}

// BinderOption configures a [Binder] via [NewBinder].
type BinderOption func(*Binder)

// WithBinderConfig overrides the default [BinderConfig].
func WithBinderConfig(cfg BinderConfig) BinderOption {
	return func(b *Binder) { b.config = cfg }
}

// WithBinderLogger sets the logger used for poll progress.
func WithBinderLogger(logger *slog.Logger) BinderOption {
	return func(b *Binder) { b.logger = logger }
}

// NewBinder creates a Binder over the given provisioner.
func NewBinder(provisioner Provisioner, opts ...BinderOption) *Binder {
	b := &Binder{
		provisioner: provisioner,
		config:      DefaultBinderConfig(),
		logger:      slog.Default(),
		handles:     make(map[string]*ResourceHandle),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.config.PollInterval <= 0 {
		b.config.PollInterval = 500 * time.Millisecond
	}
	if b.config.MaxWait <= 0 {
		b.config.MaxWait = 60 * time.Second
	}
	if b.config.MaxPollRetries <= 0 {
		b.config.MaxPollRetries = 3
	}
	return b
}

// Materialize resolves source into a Ready [ResourceHandle], creating the
// external object if this source has not been materialized before.
//
// It fails with ErrResourceCreation if the provider rejects creation outright
// and ErrResourceTimeout if readiness is not reached within the configured
// bound. A source whose previous materialization failed is attempted again.
func (b *Binder) Materialize(ctx context.Context, source string) (*ResourceHandle, error) {
	b.mu.Lock()
	if h, ok := b.handles[source]; ok && h.State == ResourceReady {
		b.mu.Unlock()
		return h, nil
	}
	b.mu.Unlock()

	providerID, err := b.provisioner.Create(ctx, source)
	if err != nil {
		return nil, &ResourceError{
			Source:  source,
			Message: "provider rejected creation",
			Err:     fmt.Errorf("%w: %w", ErrResourceCreation, err),
		}
	}

	handle := &ResourceHandle{
		ID:         uuid.NewString(),
		Source:     source,
		ProviderID: providerID,
		State:      ResourcePending,
	}

	if err := b.await(ctx, handle); err != nil {
		handle.State = ResourceFailed
		return nil, err
	}

	handle.State = ResourceReady
	b.mu.Lock()
	// A concurrent materialization of the same source may have won; keep the
	// first Ready handle so callers observe one id per source.
	if existing, ok := b.handles[source]; ok && existing.State == ResourceReady {
		b.mu.Unlock()
		return existing, nil
	}
	b.handles[source] = handle
	b.mu.Unlock()

	b.logger.InfoContext(ctx, "resource materialized",
		"source", source,
		"handle_id", handle.ID,
		"provider_id", handle.ProviderID,
	)
	return handle, nil
}

// await polls the provisioner until the object is Ready, fails, or the wait
// bound is exhausted. Transient poll errors are tolerated up to the retry
// bound; never an unbounded spin.
func (b *Binder) await(ctx context.Context, handle *ResourceHandle) error {
	deadline := time.Now().Add(b.config.MaxWait)
	ticker := time.NewTicker(b.config.PollInterval)
	defer ticker.Stop()

	pollFailures := 0
	for {
		state, err := b.provisioner.Status(ctx, handle.ProviderID)
		switch {
		case err != nil:
			pollFailures++
			if pollFailures >= b.config.MaxPollRetries {
				return &ResourceError{
					Source:  handle.Source,
					Message: fmt.Sprintf("status polling failed %d times", pollFailures),
					Err:     fmt.Errorf("%w: %w", ErrResourceCreation, err),
				}
			}
			b.logger.WarnContext(ctx, "resource status poll failed",
				"source", handle.Source,
				"attempt", pollFailures,
				"error", err,
			)
		case state == ResourceReady:
			return nil
		case state == ResourceFailed:
			return &ResourceError{
				Source:  handle.Source,
				Message: "provider reported failure",
				Err:     ErrResourceCreation,
			}
		default:
			pollFailures = 0
		}

		if time.Now().After(deadline) {
			return &ResourceError{
				Source:  handle.Source,
				Message: fmt.Sprintf("not ready within %s", b.config.MaxWait),
				Err:     ErrResourceTimeout,
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
