package auth

// GateState is the access decision for protected screens.
type GateState int

const (
	// GateResolving blocks with a placeholder: no content, no redirect.
	GateResolving GateState = iota
	// GateAuthorized exposes the protected content.
	GateAuthorized
	// GateUnauthorized redirects to the entry screen, replacing history.
	GateUnauthorized
)

// Gate wraps protected surfaces. While the session store is still resolving it
// stays in GateResolving; only once resolution completes does it decide
// between authorized and unauthorized.
type Gate struct {
	store *SessionStore
}

func NewGate(store *SessionStore) *Gate {
	return &Gate{store: store}
}

// State evaluates the gate against the store's current snapshot.
func (g *Gate) State() GateState {
	identity, resolving := g.store.Current()
	switch {
	case resolving:
		return GateResolving
	case identity != nil:
		return GateAuthorized
	default:
		return GateUnauthorized
	}
}

// Watch re-evaluates the gate on every session store change. The cancel
// function releases the underlying subscription.
func (g *Gate) Watch() (<-chan GateState, func()) {
	snapshots, cancel := g.store.Subscribe()
	states := make(chan GateState, 8)
	go func() {
		defer close(states)
		for snap := range snapshots {
			state := GateUnauthorized
			switch {
			case snap.Resolving:
				state = GateResolving
			case snap.Identity != nil:
				state = GateAuthorized
			}
			select {
			case states <- state:
			default:
				select {
				case <-states:
				default:
				}
				states <- state
			}
		}
	}()
	return states, cancel
}
