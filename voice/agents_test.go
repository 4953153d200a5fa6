package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ubilite/models"
)

func testRoster() []models.CallAgent {
	return []models.CallAgent{
		{ID: "agent-1", Name: "Grace", Languages: []string{"en", "sw"}, Extension: "1001"},
		{ID: "agent-2", Name: "Amina", Languages: []string{"sw"}, Extension: "1002"},
		{ID: "agent-3", Name: "Claudine", Languages: []string{"fr"}, Extension: "1003"},
	}
}

func TestAssignPrefersLanguageMatch(t *testing.T) {
	p := NewPool(testRoster())

	agent, pos := p.Assign("call-1", "sw")
	require.NotNil(t, agent)
	assert.Equal(t, 0, pos)
	assert.Equal(t, "agent-1", agent.ID)

	// Grace is busy now; the next Swahili caller gets Amina.
	agent, _ = p.Assign("call-2", "sw")
	require.NotNil(t, agent)
	assert.Equal(t, "agent-2", agent.ID)
}

func TestAssignFallsBackToEnglish(t *testing.T) {
	p := NewPool(testRoster())

	// No German speaker on the roster: any English speaker will do.
	agent, _ := p.Assign("call-1", "de")
	require.NotNil(t, agent)
	assert.Equal(t, "agent-1", agent.ID)
}

func TestQueueKeepsFIFOOrder(t *testing.T) {
	p := NewPool(testRoster())
	// Occupy the whole roster so the English fallback has nobody left.
	p.Assign("busy-1", "sw")
	p.Assign("busy-2", "sw")
	p.Assign("call-1", "fr")

	agent, pos := p.Assign("call-2", "fr")
	assert.Nil(t, agent)
	assert.Equal(t, 1, pos)

	agent, pos = p.Assign("call-3", "fr")
	assert.Nil(t, agent)
	assert.Equal(t, 2, pos)

	// Re-asking keeps the position instead of re-enqueueing.
	_, pos = p.Assign("call-2", "fr")
	assert.Equal(t, 1, pos)
	assert.Equal(t, 1, p.Position("call-2", "fr"))
	assert.Equal(t, 0, p.Position("call-9", "fr"))
}

func TestReleaseHandsAgentToNextInQueue(t *testing.T) {
	p := NewPool(testRoster())
	p.Assign("busy-1", "sw")
	p.Assign("busy-2", "sw")
	p.Assign("call-1", "fr")
	p.Assign("call-2", "fr")

	next, lang := p.Release("agent-3")
	assert.Equal(t, "call-2", next)
	assert.Equal(t, "fr", lang)
	assert.Equal(t, 0, p.Position("call-2", "fr"))

	// The agent went straight back to busy serving the waiter.
	agent, pos := p.Assign("call-3", "fr")
	assert.Nil(t, agent)
	assert.Equal(t, 1, pos)
}

func TestReleaseWithEmptyQueues(t *testing.T) {
	p := NewPool(testRoster())
	p.Assign("call-1", "sw")

	next, _ := p.Release("agent-1")
	assert.Equal(t, "", next)

	agent, _ := p.Assign("call-2", "sw")
	require.NotNil(t, agent)
	assert.Equal(t, "agent-1", agent.ID)
}
