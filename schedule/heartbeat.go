package schedule

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HeartbeatOK is the sentinel the model returns when the standing
// instructions produced nothing worth surfacing. A response that is
// exactly the sentinel after trimming is discarded without delivery.
const HeartbeatOK = "HEARTBEAT_OK"

// DedupWindow is how long an identical heartbeat response suppresses
// repeats of itself.
const DedupWindow = 24 * time.Hour

// Heartbeat periodically evaluates a standing-instructions document
// against the agent and surfaces anything noteworthy to the owner.
// Identical responses within DedupWindow are delivered only once, so an
// unchanged observation does not turn into a nag.
type Heartbeat struct {
	path      string
	agent     Agent
	deliverer Deliverer
	interval  time.Duration
	hours     *ActiveHours

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *zap.SugaredLogger

	mu         sync.Mutex
	recentSeen map[string]time.Time
}

// HeartbeatConfig contains configuration for the heartbeat loop
type HeartbeatConfig struct {
	Path     string        // Standing-instructions document
	Interval time.Duration // How often to evaluate (default: 30 minutes)
	Hours    *ActiveHours  // Optional daily dispatch window; nil means always active
}

// NewHeartbeat creates a heartbeat loop over the given instructions document
func NewHeartbeat(agent Agent, deliverer Deliverer, cfg HeartbeatConfig, log *zap.SugaredLogger) *Heartbeat {
	return NewHeartbeatWithContext(context.Background(), agent, deliverer, cfg, log)
}

// NewHeartbeatWithContext creates a heartbeat with a parent context
func NewHeartbeatWithContext(ctx context.Context, agent Agent, deliverer Deliverer, cfg HeartbeatConfig, log *zap.SugaredLogger) *Heartbeat {
	hbCtx, cancel := context.WithCancel(ctx)

	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Minute
	}

	return &Heartbeat{
		path:       cfg.Path,
		agent:      agent,
		deliverer:  deliverer,
		interval:   interval,
		hours:      cfg.Hours,
		ctx:        hbCtx,
		cancel:     cancel,
		logger:     log,
		recentSeen: make(map[string]time.Time),
	}
}

// Start begins the heartbeat loop. The first evaluation happens
// immediately so a fresh process checks in without waiting a full
// interval.
func (h *Heartbeat) Start() {
	h.wg.Add(1)
	go h.run()
	h.logger.Infow("Heartbeat started", "interval", h.interval, "path", h.path)
}

// Stop cancels the loop and waits for it to exit
func (h *Heartbeat) Stop() {
	h.cancel()
	h.wg.Wait()
	h.logger.Infow("Heartbeat stopped")
}

func (h *Heartbeat) run() {
	defer h.wg.Done()

	h.Tick(time.Now())

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case tickTime := <-ticker.C:
			h.Tick(tickTime)
		}
	}
}

// Tick runs one heartbeat evaluation as of the given instant. Exported
// so tests can drive it with an injected clock. Errors are logged and
// swallowed; a broken tick never takes the loop down.
func (h *Heartbeat) Tick(now time.Time) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Errorw("Heartbeat tick panicked", "panic", rec)
		}
	}()

	if h.hours != nil && !h.hours.Contains(now) {
		return
	}

	instructions, ok := h.readInstructions()
	if !ok {
		return
	}

	response, err := h.agent.Send(h.ctx, h.buildPrompt(now, instructions))
	if err != nil {
		h.logger.Warnw("Heartbeat agent call failed", "error", err)
		return
	}

	trimmed := strings.TrimSpace(response)
	if trimmed == "" || trimmed == HeartbeatOK {
		h.logger.Debugw("Heartbeat OK, nothing to surface")
		return
	}

	if h.seenRecently(trimmed, now) {
		h.logger.Debugw("Heartbeat response suppressed as duplicate")
		return
	}

	h.deliverer.Deliver(h.ctx, trimmed)
}

// readInstructions loads the standing-instructions document. A missing
// or blank document means the heartbeat is effectively disabled; both
// are skipped without noise since either is a normal state.
func (h *Heartbeat) readInstructions() (string, bool) {
	if h.path == "" {
		return "", false
	}
	data, err := os.ReadFile(h.path)
	if err != nil {
		if !os.IsNotExist(err) {
			h.logger.Warnw("Failed to read heartbeat instructions", "path", h.path, "error", err)
		}
		return "", false
	}
	instructions := strings.TrimSpace(string(data))
	if instructions == "" {
		return "", false
	}
	return instructions, true
}

func (h *Heartbeat) buildPrompt(now time.Time, instructions string) string {
	return fmt.Sprintf(
		"It is %s (%s). Review your standing instructions below and act on anything that is due.\n\n"+
			"If there is nothing worth telling the user right now, respond with exactly %s and nothing else.\n\n"+
			"%s",
		now.Format("Monday, January 2, 2006 15:04"),
		now.Format("MST"),
		HeartbeatOK,
		instructions,
	)
}

// seenRecently reports whether an identical response was already
// delivered within DedupWindow, recording this one as seen if not.
// Stale entries are pruned lazily on each call.
func (h *Heartbeat) seenRecently(response string, now time.Time) bool {
	sum := sha256.Sum256([]byte(response))
	hash := hex.EncodeToString(sum[:])

	h.mu.Lock()
	defer h.mu.Unlock()

	for k, seenAt := range h.recentSeen {
		if now.Sub(seenAt) > DedupWindow {
			delete(h.recentSeen, k)
		}
	}

	if _, seen := h.recentSeen[hash]; seen {
		return true
	}
	h.recentSeen[hash] = now
	return false
}
