// Package capability defines the embeddable capability surface (C9):
// in-process implementations of the same list/call contract an
// external CP server exposes, so the pool can dispatch to them without
// subprocess or daemon round-trip overhead.
package capability

import "github.com/binkshq/binks/pkg/cp"

// Server is an in-process capability implementation. A call targeting
// a registered Server short-circuits transport entirely: the pool
// invokes ListTools/Call directly.
type Server interface {
	ServerName() string
	ListTools() []cp.ToolDescriptor
	Call(name string, args map[string]any) (cp.ToolResult, error)
}

// Registry holds the embedded servers a pool can dispatch to by name,
// keyed the same way as CP-configured servers in the manifest.
type Registry struct {
	servers map[string]Server
}

// NewRegistry returns an empty embedded-server registry.
func NewRegistry() *Registry {
	return &Registry{servers: make(map[string]Server)}
}

// Register adds s under its own ServerName.
func (r *Registry) Register(s Server) {
	r.servers[s.ServerName()] = s
}

// Lookup returns the embedded server registered under name, if any.
func (r *Registry) Lookup(name string) (Server, bool) {
	s, ok := r.servers[name]
	return s, ok
}

// Names returns every registered embedded server name.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.servers))
	for name := range r.servers {
		names = append(names, name)
	}
	return names
}
