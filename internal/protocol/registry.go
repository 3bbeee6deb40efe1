package protocol

import "sync"

// Validator checks the body schema of one packet type.
type Validator func(*Packet) error

// Registry maps packet types to validators. New packet kinds register here
// instead of touching Packet.
type Registry struct {
	mu         sync.RWMutex
	validators map[string]Validator
}

func NewRegistry() *Registry {
	return &Registry{validators: make(map[string]Validator)}
}

// DefaultRegistry knows the identity, pair and ping packets.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(TypeIdentity, ValidateIdentity)
	r.Register(TypePair, ValidatePair)
	r.Register(TypePing, ValidatePing)
	return r
}

// Register replaces any validator already set for packetType.
func (r *Registry) Register(packetType string, v Validator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validators[packetType] = v
}

// Known reports whether a validator is registered for packetType.
func (r *Registry) Known(packetType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.validators[packetType]
	return ok
}

// Validate runs the validator for p.Type. Unknown types pass.
func (r *Registry) Validate(p *Packet) error {
	if p == nil {
		return ErrMalformedPacket
	}
	r.mu.RLock()
	v, ok := r.validators[p.Type]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	return v(p)
}
