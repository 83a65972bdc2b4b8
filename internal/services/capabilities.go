package services

// Capabilities records which optional collaborators initialized at
// startup. It is computed once in main and read-only afterwards;
// pipeline steps branch on it instead of failing when a collaborator
// is down.
type Capabilities struct {
	ai     bool
	email  bool
	events bool
}

func NewCapabilities(ai, email, events bool) Capabilities {
	return Capabilities{ai: ai, email: email, events: events}
}

func (c Capabilities) AI() bool     { return c.ai }
func (c Capabilities) Email() bool  { return c.email }
func (c Capabilities) Events() bool { return c.events }
