package schedule

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/vigil/errors"
	"github.com/teranos/vigil/logger"
)

func writeInstructions(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "HEARTBEAT.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newTestHeartbeat(t *testing.T, path string, agent Agent, deliverer Deliverer) *Heartbeat {
	t.Helper()
	hb := NewHeartbeat(agent, deliverer, HeartbeatConfig{
		Path:     path,
		Interval: time.Hour,
	}, logger.Logger)
	t.Cleanup(hb.Stop)
	return hb
}

func TestHeartbeatDeliversFinding(t *testing.T) {
	path := writeInstructions(t, "Watch for overdue invoices.")
	agent := &fakeAgent{response: "Invoice #42 is 3 days overdue."}
	deliverer := &fakeDeliverer{}
	hb := newTestHeartbeat(t, path, agent, deliverer)

	hb.Tick(time.Now())

	require.Equal(t, 1, agent.calls())
	require.Len(t, deliverer.delivered(), 1)
	assert.Equal(t, "Invoice #42 is 3 days overdue.", deliverer.delivered()[0])
}

func TestHeartbeatPromptIncludesClockAndInstructions(t *testing.T) {
	path := writeInstructions(t, "Watch for overdue invoices.")
	agent := &fakeAgent{response: HeartbeatOK}
	hb := newTestHeartbeat(t, path, agent, &fakeDeliverer{})

	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	hb.Tick(now)

	require.Equal(t, 1, agent.calls())
	prompt := agent.prompts[0]
	assert.Contains(t, prompt, "Tuesday, March 10, 2026 14:30")
	assert.Contains(t, prompt, "Watch for overdue invoices.")
	assert.Contains(t, prompt, HeartbeatOK)
}

func TestHeartbeatSentinelSuppressed(t *testing.T) {
	path := writeInstructions(t, "Watch for overdue invoices.")
	deliverer := &fakeDeliverer{}

	for _, response := range []string{
		HeartbeatOK,
		"  HEARTBEAT_OK  ",
		"",
		"   \n  ",
	} {
		agent := &fakeAgent{response: response}
		hb := newTestHeartbeat(t, path, agent, deliverer)
		hb.Tick(time.Now())
	}

	assert.Empty(t, deliverer.delivered())
}

func TestHeartbeatSentinelPrefixStillDelivers(t *testing.T) {
	path := writeInstructions(t, "Watch for overdue invoices.")
	deliverer := &fakeDeliverer{}

	// Only an exact sentinel match suppresses; a real finding that
	// happens to mention the token must still reach the owner.
	agent := &fakeAgent{response: "HEARTBEAT_OK was NOT returned: invoice #42 is overdue!"}
	hb := newTestHeartbeat(t, path, agent, deliverer)
	hb.Tick(time.Now())

	require.Len(t, deliverer.delivered(), 1)
	assert.Equal(t, "HEARTBEAT_OK was NOT returned: invoice #42 is overdue!", deliverer.delivered()[0])
}

func TestHeartbeatFirstEvaluationIsImmediate(t *testing.T) {
	path := writeInstructions(t, "Watch for overdue invoices.")
	agent := &fakeAgent{response: "Invoice #42 is overdue."}
	deliverer := &fakeDeliverer{}
	hb := newTestHeartbeat(t, path, agent, deliverer)

	// Interval is an hour; Start must not wait for the first tick.
	hb.Start()

	require.Eventually(t, func() bool {
		return agent.calls() == 1
	}, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		return len(deliverer.delivered()) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHeartbeatDedupWithinWindow(t *testing.T) {
	path := writeInstructions(t, "Watch for overdue invoices.")
	agent := &fakeAgent{response: "Invoice #42 is 3 days overdue."}
	deliverer := &fakeDeliverer{}
	hb := newTestHeartbeat(t, path, agent, deliverer)

	start := time.Now()
	hb.Tick(start)
	hb.Tick(start.Add(1 * time.Hour))
	hb.Tick(start.Add(23 * time.Hour))

	assert.Len(t, deliverer.delivered(), 1, "identical responses within 24h deliver once")

	// Past the window the same observation is news again
	hb.Tick(start.Add(25 * time.Hour))
	assert.Len(t, deliverer.delivered(), 2)
}

func TestHeartbeatDistinctResponsesBothDeliver(t *testing.T) {
	path := writeInstructions(t, "Watch for overdue invoices.")
	agent := &fakeAgent{response: "Invoice #42 is overdue."}
	deliverer := &fakeDeliverer{}
	hb := newTestHeartbeat(t, path, agent, deliverer)

	now := time.Now()
	hb.Tick(now)

	agent.mu.Lock()
	agent.response = "Invoice #43 is overdue."
	agent.mu.Unlock()
	hb.Tick(now.Add(time.Hour))

	assert.Len(t, deliverer.delivered(), 2)
}

func TestHeartbeatMissingDocumentSkips(t *testing.T) {
	agent := &fakeAgent{response: "should not be called"}
	deliverer := &fakeDeliverer{}
	hb := newTestHeartbeat(t, filepath.Join(t.TempDir(), "missing.md"), agent, deliverer)

	hb.Tick(time.Now())

	assert.Zero(t, agent.calls(), "no document means no heartbeat")
	assert.Empty(t, deliverer.delivered())
}

func TestHeartbeatBlankDocumentSkips(t *testing.T) {
	path := writeInstructions(t, "   \n\n  ")
	agent := &fakeAgent{response: "should not be called"}
	hb := newTestHeartbeat(t, path, agent, &fakeDeliverer{})

	hb.Tick(time.Now())

	assert.Zero(t, agent.calls())
}

func TestHeartbeatAgentErrorSwallowed(t *testing.T) {
	path := writeInstructions(t, "Watch for overdue invoices.")
	agent := &fakeAgent{err: errors.New("model unavailable")}
	deliverer := &fakeDeliverer{}
	hb := newTestHeartbeat(t, path, agent, deliverer)

	hb.Tick(time.Now())

	assert.Empty(t, deliverer.delivered())

	// Recovery on a later tick still works
	agent.mu.Lock()
	agent.err = nil
	agent.response = "Invoice #42 is overdue."
	agent.mu.Unlock()

	hb.Tick(time.Now())
	assert.Len(t, deliverer.delivered(), 1)
}

func TestHeartbeatHonorsActiveHours(t *testing.T) {
	path := writeInstructions(t, "Watch for overdue invoices.")
	agent := &fakeAgent{response: "Invoice #42 is overdue."}
	deliverer := &fakeDeliverer{}

	hb := NewHeartbeat(agent, deliverer, HeartbeatConfig{
		Path:     path,
		Interval: time.Hour,
		Hours:    &ActiveHours{Start: 8, End: 22, Loc: time.UTC},
	}, logger.Logger)
	t.Cleanup(hb.Stop)

	hb.Tick(time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC))
	assert.Zero(t, agent.calls())

	hb.Tick(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, 1, agent.calls())
	assert.Len(t, deliverer.delivered(), 1)
}
