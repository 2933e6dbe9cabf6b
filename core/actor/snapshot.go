package actor

import "time"

// StateSnapshot is a serializable description of the actor's lifecycle
// state, suitable for handing to a snapshot repository.
type StateSnapshot struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	State   string    `json:"state"`
	Reason  string    `json:"reason,omitempty"`
	TakenAt time.Time `json:"taken_at"`
}

// PortSpec describes one registered port: enough to recreate its shape
// (name, message type, buffer, timeout), not its in-flight messages.
type PortSpec struct {
	Name    string        `json:"name"`
	Type    string        `json:"type"`
	Buffer  int           `json:"buffer"`
	Timeout time.Duration `json:"timeout"`
}

// SnapshotState captures the current lifecycle state.
func (a *Actor) SnapshotState() StateSnapshot {
	st := a.state.Status()
	return StateSnapshot{
		ID:      a.id,
		Name:    a.Name(),
		State:   st.State.String(),
		Reason:  st.Reason,
		TakenAt: time.Now().UTC(),
	}
}

// SnapshotPorts captures the configuration of all registered ports.
func (a *Actor) SnapshotPorts() []PortSpec {
	a.muPorts.Lock()
	defer a.muPorts.Unlock()
	specs := make([]PortSpec, 0, len(a.ports))
	for name, wp := range a.ports {
		specs = append(specs, PortSpec{
			Name:    name,
			Type:    wp.port.Token().Name(),
			Buffer:  wp.buffer,
			Timeout: wp.timeout,
		})
	}
	return specs
}
