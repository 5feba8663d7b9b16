package provider

// Registry holds the configured fulfillment provider clients keyed by
// name. It is populated once at startup and read-only afterwards, so no
// locking is needed.
type Registry struct {
	clients map[string]Client
}

// NewRegistry creates a registry from the given clients, keyed by each
// client's Name().
func NewRegistry(clients ...Client) *Registry {
	r := &Registry{clients: make(map[string]Client, len(clients))}
	for _, c := range clients {
		r.clients[c.Name()] = c
	}
	return r
}

// Get returns the client registered under the given name.
func (r *Registry) Get(name string) (Client, bool) {
	c, ok := r.clients[name]
	return c, ok
}

// All returns every registered client. Order is not deterministic.
func (r *Registry) All() []Client {
	out := make([]Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}

// Names returns the registered provider names. Order is not deterministic.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.clients))
	for name := range r.clients {
		out = append(out, name)
	}
	return out
}
