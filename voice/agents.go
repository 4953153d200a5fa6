package voice

import (
	"sync"

	"ubilite/models"
)

// Pool is the in-process call-center roster. One pool per service
// instance; assignment and release are the only mutations.
type Pool struct {
	mu     sync.Mutex
	agents map[string]*models.CallAgent
	order  []string
	// Per-language FIFO of session ids waiting for an agent.
	queues map[string][]string
}

func NewPool(agents []models.CallAgent) *Pool {
	p := &Pool{
		agents: make(map[string]*models.CallAgent, len(agents)),
		queues: make(map[string][]string),
	}
	for i := range agents {
		a := agents[i]
		if a.Status == "" {
			a.Status = models.AGENT_STATUS_AVAILABLE
		}
		if a.MaxCalls <= 0 {
			a.MaxCalls = 1
		}
		p.agents[a.ID] = &a
		p.order = append(p.order, a.ID)
	}
	return p
}

// Assign finds an agent for the session: first one speaking the caller's
// language, then any English speaker, else the session joins the
// language's queue and its 1-based position is returned.
func (p *Pool) Assign(sessionID, lang string) (*models.CallAgent, int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	agent := p.findAvailable(lang)
	if agent == nil && lang != "en" {
		agent = p.findAvailable("en")
	}
	if agent != nil {
		p.markBusy(agent, sessionID)
		cp := *agent
		return &cp, 0
	}

	for i, sid := range p.queues[lang] {
		if sid == sessionID {
			return nil, i + 1
		}
	}
	p.queues[lang] = append(p.queues[lang], sessionID)
	return nil, len(p.queues[lang])
}

// Release frees the agent and hands back the next waiting session the
// agent can serve, if any. The caller is responsible for re-engaging that
// session.
func (p *Pool) Release(agentID string) (nextSession string, nextLang string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	agent, ok := p.agents[agentID]
	if !ok {
		return "", ""
	}
	agent.CurrentCall = ""
	if agent.CurrentCalls > 0 {
		agent.CurrentCalls--
	}
	agent.Status = models.AGENT_STATUS_AVAILABLE

	for _, lang := range append(agent.Languages, "en") {
		if q := p.queues[lang]; len(q) > 0 {
			next := q[0]
			p.queues[lang] = q[1:]
			p.markBusy(agent, next)
			return next, lang
		}
	}
	return "", ""
}

// Position reports where the session currently stands in its queue, or 0
// when it is not waiting.
func (p *Pool) Position(sessionID, lang string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, sid := range p.queues[lang] {
		if sid == sessionID {
			return i + 1
		}
	}
	return 0
}

// Agents returns a snapshot of the roster for status endpoints.
func (p *Pool) Agents() []models.CallAgent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.CallAgent, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, *p.agents[id])
	}
	return out
}

func (p *Pool) findAvailable(lang string) *models.CallAgent {
	for _, id := range p.order {
		a := p.agents[id]
		if a.Status == models.AGENT_STATUS_AVAILABLE && a.CurrentCalls < a.MaxCalls && a.Speaks(lang) {
			return a
		}
	}
	return nil
}

func (p *Pool) markBusy(a *models.CallAgent, sessionID string) {
	a.Status = models.AGENT_STATUS_BUSY
	a.CurrentCall = sessionID
	a.CurrentCalls++
}
