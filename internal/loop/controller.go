// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

// Package loop is the self-feeding learning controller: a single long-lived
// service that picks prompts (exploit/explore), creates render jobs, waits
// for the external renderer, promotes productive prompts, and persists its
// state between ticks. It must survive any single bad tick.
package loop

import (
	"context"
	"errors"
	"math/rand"
	"time"

	json "github.com/goccy/go-json"

	"github.com/motionprod/motion-productions/internal/database"
	"github.com/motionprod/motion-productions/internal/kv"
	"github.com/motionprod/motion-productions/internal/logging"
	"github.com/motionprod/motion-productions/internal/models"
)

const (
	// minDisabledSleep floors the idle sleep so a zero delay_seconds
	// cannot spin the disabled loop.
	minDisabledSleep = 5 * time.Second

	maxPollAttempts = 300

	// Transient failures retry with 1/2/4/8/8s backoff.
	maxRetries = 5
)

// Controller drives the learning cycle against the registry store and the
// KV side-channel. Exactly one instance runs per deployment.
type Controller struct {
	db  *database.DB
	kv  *kv.Store
	rng *rand.Rand

	// pollInterval is 1s in production; tests shrink it.
	pollInterval time.Duration
}

// New builds the controller with its own PRNG stream.
func New(db *database.DB, kvStore *kv.Store, seed int64) *Controller {
	return &Controller{
		db:           db,
		kv:           kvStore,
		rng:          rand.New(rand.NewSource(seed)),
		pollInterval: time.Second,
	}
}

// String names the controller for supervisor logs.
func (c *Controller) String() string { return "loop-controller" }

// Serve runs ticks until the context is canceled. Suture restarts it if it
// ever returns early, but a tick error never escapes this loop.
func (c *Controller) Serve(ctx context.Context) error {
	logging.Info().Msg("Loop controller started")
	for {
		if err := ctx.Err(); err != nil {
			logging.Info().Msg("Loop controller stopping")
			return err
		}

		cfg := c.loadConfig()
		if !cfg.Enabled {
			c.sleep(ctx, c.idleDelay(cfg))
			continue
		}

		if err := c.tick(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Tick failed; continuing")
			c.recordError(ctx, nil, err)
		}
		c.sleep(ctx, time.Duration(cfg.DelaySeconds)*time.Second)
	}
}

func (c *Controller) idleDelay(cfg models.LoopConfig) time.Duration {
	d := time.Duration(cfg.DelaySeconds) * time.Second
	if d < minDisabledSleep {
		d = minDisabledSleep
	}
	return d
}

// tick runs one learning cycle: pick a prompt, render, attribute, persist.
func (c *Controller) tick(ctx context.Context, cfg models.LoopConfig) error {
	state := c.loadState()

	mode := chooseMode(c.rng, cfg.ExploitRatio, state.GoodPrompts)
	var prompt, workflow string
	if mode == ModeExploit {
		prompt = pickExploit(c.rng, state.GoodPrompts, state.RecentPrompts)
		workflow = models.WorkflowExploiter
		state.ExploitCount++
	} else {
		prompt = pickExplore(ctx, c.rng, c.db)
		workflow = models.WorkflowExplorer
		state.ExploreCount++
	}

	duration := cfg.DurationSeconds
	var job *models.Job
	err := c.withRetry(ctx, func() error {
		var err error
		job, err = c.db.CreateJob(ctx, prompt, &duration, &workflow)
		return err
	})
	if err != nil {
		return err
	}
	logging.Info().Str("job_id", job.ID).Str("mode", mode).Str("prompt", prompt).Msg("Loop created job")

	state.RecentPrompts = append(state.RecentPrompts, prompt)
	state.LastPrompt = prompt
	state.LastJobID = job.ID

	completed := c.waitForJob(ctx, job.ID)
	if completed {
		// The renderer delivers the learning run and discoveries itself;
		// attribution decides whether the prompt earned a promotion.
		if learned, err := c.db.HasLearningRunForJob(ctx, job.ID); err == nil && !learned {
			logging.Warn().Str("job_id", job.ID).Msg("Completed job has no learning run")
		}
		total, err := c.db.DiscoveryTotalForJob(ctx, job.ID)
		if err != nil {
			logging.Warn().Err(err).Str("job_id", job.ID).Msg("Discovery attribution failed")
		} else if total > 0 {
			state.GoodPrompts = promote(state.GoodPrompts, prompt)
			logging.Info().Str("prompt", prompt).Int("discoveries", total).Msg("Prompt promoted")
		}
	}

	state.RunCount++
	state.LastRunAt = time.Now().UTC()
	c.saveState(ctx, state)
	return nil
}

// waitForJob polls the job at 1s intervals for up to 300 attempts. Failure
// and timeout both record an error event and report not-completed.
func (c *Controller) waitForJob(ctx context.Context, jobID string) bool {
	for attempt := 0; attempt < maxPollAttempts; attempt++ {
		if !c.sleep(ctx, c.pollInterval) {
			return false
		}
		job, err := c.db.GetJob(ctx, jobID)
		if err != nil {
			logging.Warn().Err(err).Str("job_id", jobID).Msg("Job poll failed")
			continue
		}
		switch job.Status {
		case models.JobStatusCompleted:
			return true
		case models.JobStatusFailed:
			logging.Warn().Str("job_id", jobID).Msg("Job failed; skipping learning")
			c.recordError(ctx, &jobID, errors.New("job failed"))
			return false
		}
	}
	logging.Warn().Str("job_id", jobID).Msg("Job poll timed out")
	c.recordError(ctx, &jobID, errors.New("job poll timed out"))
	return false
}

// promote appends a prompt to good_prompts LRU-style: an existing entry
// moves to the tail, and the list stays within the cap.
func promote(goodPrompts []string, prompt string) []string {
	out := make([]string, 0, len(goodPrompts)+1)
	for _, p := range goodPrompts {
		if p != prompt {
			out = append(out, p)
		}
	}
	out = append(out, prompt)
	if len(out) > models.MaxLoopPrompts {
		out = out[len(out)-models.MaxLoopPrompts:]
	}
	return out
}

func (c *Controller) loadConfig() models.LoopConfig {
	cfg := models.DefaultLoopConfig()
	if raw, err := c.kv.Get(kv.LoopConfigKey); err == nil {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			logging.Warn().Err(err).Msg("Corrupt loop config; using defaults")
			return models.DefaultLoopConfig()
		}
	}
	return cfg
}

func (c *Controller) loadState() models.LoopState {
	var state models.LoopState
	if raw, err := c.kv.Get(kv.LoopStateKey); err == nil {
		_ = json.Unmarshal(raw, &state)
	}
	return state
}

// saveState persists the blob with a bumped version. A rate-limited write
// honors Retry-After once; persistent failure is logged and the tick's
// state is lost (the next tick rebuilds counters from the previous blob).
func (c *Controller) saveState(ctx context.Context, state models.LoopState) {
	state.Version++
	state.Clamp()
	raw, err := json.Marshal(state)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to encode loop state")
		return
	}

	err = c.kv.Set(kv.LoopStateKey, raw, 0)
	if errors.Is(err, kv.ErrRateLimited) {
		if !c.sleep(ctx, kv.RetryAfter) {
			return
		}
		err = c.kv.Set(kv.LoopStateKey, raw, 0)
	}
	if err != nil {
		logging.Error().Err(err).Msg("Failed to save loop state")
	}
}

func (c *Controller) recordError(ctx context.Context, jobID *string, cause error) {
	payload, _ := json.Marshal(map[string]string{"error": cause.Error()})
	if _, err := c.db.InsertEvent(ctx, models.EventError, jobID, string(payload)); err != nil {
		logging.Warn().Err(err).Msg("Failed to record error event")
	}
}

// withRetry runs op with exponential backoff on transient failure.
func (c *Controller) withRetry(ctx context.Context, op func() error) error {
	backoff := time.Second
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if attempt == maxRetries-1 {
			break
		}
		logging.Warn().Err(err).Dur("backoff", backoff).Msg("Retrying after transient failure")
		if !c.sleep(ctx, backoff) {
			return ctx.Err()
		}
		if backoff < 8*time.Second {
			backoff *= 2
		}
	}
	return err
}

// sleep waits for d or until cancellation; reports false when canceled.
func (c *Controller) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
