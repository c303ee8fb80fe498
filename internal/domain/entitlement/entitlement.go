package entitlement

import (
	"chat-gateway/internal/config"
	"chat-gateway/internal/domain/identity"
)

// Entitlement is the quota policy for one identity class.
type Entitlement struct {
	MaxMessagesPerDay int
}

// Table maps identity classes to their quota policy. Loaded once at process
// start and never mutated.
type Table map[identity.Class]Entitlement

// NewTable builds the entitlement table from configuration.
func NewTable(cfg *config.Config) Table {
	return Table{
		identity.ClassAnonymous: {MaxMessagesPerDay: cfg.AnonymousMaxMessagesPerDay},
		identity.ClassGuest:     {MaxMessagesPerDay: cfg.GuestMaxMessagesPerDay},
		identity.ClassRegular:   {MaxMessagesPerDay: cfg.RegularMaxMessagesPerDay},
	}
}

// ForIdentity returns the entitlement for the caller's class.
func (t Table) ForIdentity(id identity.Identity) Entitlement {
	if ent, ok := t[id.Class()]; ok {
		return ent
	}
	return t[identity.ClassAnonymous]
}
