// Package domain holds the coordinator's entity types and the
// sanitization rules shared with clients.
package domain

import "github.com/google/uuid"

// ClientID uniquely names one live connection. It is assigned by the
// server at accept time and opaque to clients.
type ClientID string

// NewClientID returns a fresh random identity. Collisions over a process
// lifetime are cryptographically negligible.
func NewClientID() ClientID {
	return ClientID(uuid.NewString())
}

func (id ClientID) String() string { return string(id) }
