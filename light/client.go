// Copyright 2025 The go-tmlight Authors
// This file is part of the go-tmlight library.
//
// The go-tmlight library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-tmlight library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-tmlight library. If not, see <http://www.gnu.org/licenses/>.

package light

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tmlight/go-tmlight/light/provider"
	"github.com/tmlight/go-tmlight/light/store"
	"github.com/tmlight/go-tmlight/log"
	"github.com/tmlight/go-tmlight/types"
)

// Client extends trust from an operator supplied anchor to arbitrary newer
// blocks by verifying hops against a single primary provider. Blocks move
// through the store as unverified -> verified -> trusted, or unverified ->
// failed.
//
// A Client serializes its public verification calls internally; sharing the
// underlying store with anything else still requires external coordination.
type Client struct {
	chainID     string
	options     Options
	primary     provider.Provider
	store       store.Store
	clock       Clock
	verifier    Verifier
	scheduler   Scheduler
	pruningSize int
	logger      log.Logger

	mtx sync.Mutex
}

// Option configures a Client.
type Option func(*Client)

// TrustThreshold overrides the default 1/3 threshold for skipping hops.
func TrustThreshold(t types.TrustThreshold) Option {
	return func(c *Client) { c.options.TrustThreshold = t }
}

// MaxClockDrift overrides the default tolerated clock drift.
func MaxClockDrift(d time.Duration) Option {
	return func(c *Client) { c.options.ClockDrift = d }
}

// PruningSize bounds how many blocks the store retains; 0 disables pruning.
func PruningSize(n int) Option {
	return func(c *Client) { c.pruningSize = n }
}

// WithClock replaces the system clock, for tests and simulations.
func WithClock(clock Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// WithVerifier replaces the production verifier.
func WithVerifier(v Verifier) Option {
	return func(c *Client) { c.verifier = v }
}

// WithScheduler replaces the bisecting scheduler.
func WithScheduler(s Scheduler) Option {
	return func(c *Client) { c.scheduler = s }
}

// Logger sets the logger; the default logs to the process root logger.
func Logger(l log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient builds a light client for chainID, anchored at trustOptions.
//
// If the store already carries trusted state above the anchor height, that
// state wins and the anchor is not checked; trusted state at the anchor
// height must match the anchor hash. Otherwise the anchor block is fetched
// from the primary, pinned against the anchor hash and stored as trusted.
// ctx bounds the anchor fetch.
func NewClient(
	ctx context.Context,
	chainID string,
	trustOptions TrustOptions,
	primary provider.Provider,
	s store.Store,
	opts ...Option,
) (*Client, error) {
	if err := trustOptions.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("invalid trust options: %w", err)
	}
	c := &Client{
		chainID: chainID,
		options: Options{
			TrustThreshold: types.DefaultTrustThreshold,
			TrustingPeriod: trustOptions.Period,
			ClockDrift:     DefaultClockDrift,
		},
		primary:   primary,
		store:     s,
		clock:     SystemClock{},
		scheduler: BisectingScheduler{},
		logger:    log.New("module", "light"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.options.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if c.verifier == nil {
		c.verifier = NewVerifier(chainID, c.options)
	}
	if err := c.initialize(ctx, trustOptions); err != nil {
		return nil, err
	}
	return c, nil
}

// initialize reconciles the store with the trust anchor.
func (c *Client) initialize(ctx context.Context, trustOptions TrustOptions) error {
	latest, err := c.store.LatestTrusted()
	switch {
	case err == nil:
		if latest.Height() > trustOptions.Height {
			c.logger.Info("Restored trusted state above the anchor", "height", latest.Height(),
				"anchor", trustOptions.Height)
			return nil
		}
		if latest.Height() == trustOptions.Height {
			if latest.Hash() != trustOptions.Hash {
				return fmt.Errorf("stored trusted header hash %v conflicts with the anchor hash %v at height %d",
					latest.Hash(), trustOptions.Hash, trustOptions.Height)
			}
			return nil
		}
		// Stored state is older than the anchor; adopt the anchor below.
	case errors.Is(err, store.ErrBlockNotFound):
	default:
		return err
	}

	anchor, err := c.primary.LightBlock(ctx, trustOptions.Height)
	if err != nil {
		return fmt.Errorf("fetching the trust anchor at height %d: %w", trustOptions.Height, err)
	}
	if got := anchor.Hash(); got != trustOptions.Hash {
		return fmt.Errorf("the anchor block's hash %v does not match the configured hash %v", got, trustOptions.Hash)
	}
	if err := anchor.ValidateBasic(c.chainID); err != nil {
		return provider.ErrBadLightBlock{Reason: err}
	}
	// The anchor commit must at least stand on its own feet; its authority
	// beyond that is the operator's statement, not something we can check.
	if err := types.VerifyCommitLight(c.chainID, anchor.ValidatorSet, anchor.Commit.BlockID,
		anchor.Height(), anchor.Commit); err != nil {
		return provider.ErrBadLightBlock{Reason: err}
	}
	if now := c.clock.Now(); HeaderExpired(anchor.SignedHeader, c.options.TrustingPeriod, now.Add(c.options.ClockDrift)) {
		return ErrOldHeaderExpired{At: anchor.Time().Add(c.options.TrustingPeriod), Now: now}
	}
	if err := c.store.Insert(anchor, store.StatusTrusted); err != nil {
		return err
	}
	c.logger.Info("Anchored trusted state", "height", anchor.Height(), "hash", anchor.Hash())
	return nil
}

// ChainID returns the chain the client verifies against.
func (c *Client) ChainID() string { return c.chainID }

// VerifyToHighest fetches the primary's current tip and verifies up to it.
func (c *Client) VerifyToHighest(ctx context.Context) (*types.LightBlock, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	latest, err := c.primary.LightBlock(ctx, provider.LatestHeight)
	if err != nil {
		return nil, fmt.Errorf("fetching the latest block: %w", err)
	}
	if err := latest.ValidateBasic(c.chainID); err != nil {
		return nil, provider.ErrBadLightBlock{Reason: err}
	}
	if err := c.store.Insert(latest, store.StatusUnverified); err != nil {
		return nil, err
	}
	return c.verifyToTarget(ctx, latest.Height())
}

// VerifyToTarget verifies the block at the given height against the latest
// trusted state, bisecting through intermediate heights as needed, and
// returns the now-trusted block at the target height.
func (c *Client) VerifyToTarget(ctx context.Context, height int64) (*types.LightBlock, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.verifyToTarget(ctx, height)
}

func (c *Client) verifyToTarget(ctx context.Context, target int64) (*types.LightBlock, error) {
	if target <= 0 {
		return nil, fmt.Errorf("target height must be positive, given %d", target)
	}
	trusted, err := c.store.LatestTrusted()
	if errors.Is(err, store.ErrBlockNotFound) {
		return nil, ErrNoTrustedState
	} else if err != nil {
		return nil, err
	}
	if trusted.Height() == target {
		return trusted, nil
	}
	if trusted.Height() > target {
		return nil, ErrTargetBelowTrusted{Target: target, Trusted: trusted.Height()}
	}

	now := c.clock.Now()
	if HeaderExpired(trusted.SignedHeader, c.options.TrustingPeriod, now.Add(c.options.ClockDrift)) {
		return nil, ErrOldHeaderExpired{At: trusted.Time().Add(c.options.TrustingPeriod), Now: now}
	}

	c.logger.Info("Verifying to target", "trusted", trusted.Height(), "target", target)

	var (
		current = target
		// trace records the heights verified along the way; they all
		// become trusted once the target itself verifies.
		trace []int64
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		candidate, _, err := c.getOrFetchBlock(ctx, current)
		if err != nil {
			return nil, err
		}

		verdict, verifyErr := c.verifier.Verify(trusted, candidate, c.clock.Now())
		switch verdict {
		case VerdictOK:
			if err := c.store.Update(current, store.StatusVerified); err != nil {
				return nil, err
			}
			trace = append(trace, current)
			c.logger.Debug("Verified candidate", "height", current, "target", target)
			if current == target {
				for _, h := range trace {
					if err := c.store.Update(h, store.StatusTrusted); err != nil {
						return nil, err
					}
				}
				if c.pruningSize > 0 {
					if err := c.store.Prune(c.pruningSize); err != nil {
						return nil, fmt.Errorf("pruning light store: %w", err)
					}
				}
				c.logger.Info("Verified target", "height", target, "hops", len(trace))
				return candidate, nil
			}
			trusted = candidate
			current = target

		case VerdictNotEnoughTrust:
			next := c.scheduler.Schedule(trusted.Height(), current, target)
			if next <= trusted.Height() || next >= current {
				return nil, fmt.Errorf("%w: scheduler proposed height %d, wanted a height in (%d, %d)",
					ErrNoProgress, next, trusted.Height(), current)
			}
			c.logger.Debug("Not enough trust, bisecting", "trusted", trusted.Height(),
				"failed", current, "next", next)
			current = next

		default:
			if updateErr := c.store.Update(current, store.StatusFailed); updateErr != nil {
				c.logger.Error("Failed to mark a rejected block", "height", current, "err", updateErr)
			}
			return nil, fmt.Errorf("verifying block at height %d from %q: %w",
				current, candidate.Provider, verifyErr)
		}
	}
}

// getOrFetchBlock returns the non-failed stored block at the height, or
// fetches it from the primary, validates it defensively and stores it as
// unverified. At most one fetch per height happens per verification run.
func (c *Client) getOrFetchBlock(ctx context.Context, height int64) (*types.LightBlock, store.Status, error) {
	lb, status, err := c.store.GetNonFailed(height)
	if err == nil {
		return lb, status, nil
	}
	if !errors.Is(err, store.ErrBlockNotFound) {
		return nil, 0, err
	}

	lb, err = c.primary.LightBlock(ctx, height)
	if err != nil {
		return nil, 0, fmt.Errorf("fetching block at height %d from %q: %w", height, c.primary.ID(), err)
	}
	if lb.Height() != height {
		return nil, 0, provider.ErrBadLightBlock{
			Reason: fmt.Errorf("requested height %d, got %d", height, lb.Height()),
		}
	}
	if lb.Provider != c.primary.ID() {
		return nil, 0, provider.ErrBadLightBlock{
			Reason: fmt.Errorf("block reports provider %q, fetched from %q", lb.Provider, c.primary.ID()),
		}
	}
	if err := lb.ValidateBasic(c.chainID); err != nil {
		return nil, 0, provider.ErrBadLightBlock{Reason: err}
	}
	if err := c.store.Insert(lb, store.StatusUnverified); err != nil {
		return nil, 0, err
	}
	return lb, store.StatusUnverified, nil
}

// TrustedLightBlock returns the trusted block at the given height, or the
// latest trusted block for height 0.
func (c *Client) TrustedLightBlock(height int64) (*types.LightBlock, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if height == 0 {
		return c.store.LatestTrusted()
	}
	lb, status, err := c.store.Get(height)
	if err != nil {
		return nil, err
	}
	if status != store.StatusTrusted {
		return nil, fmt.Errorf("block at height %d is %v, not trusted", height, status)
	}
	return lb, nil
}

// FirstTrustedHeight returns the lowest trusted height.
func (c *Client) FirstTrustedHeight() (int64, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	lb, err := c.store.Lowest(store.StatusTrusted)
	if err != nil {
		return 0, err
	}
	return lb.Height(), nil
}

// LastTrustedHeight returns the highest trusted height.
func (c *Client) LastTrustedHeight() (int64, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	lb, err := c.store.LatestTrusted()
	if err != nil {
		return 0, err
	}
	return lb.Height(), nil
}
