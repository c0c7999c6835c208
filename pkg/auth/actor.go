package auth

import "github.com/google/uuid"

// Actor is the authenticated caller, passed explicitly into every
// user-scoped service call.
type Actor struct {
	UserID  uuid.UUID
	IsAdmin bool
}

// CanAccess reports whether the actor may read a resource owned by ownerID.
func (a Actor) CanAccess(ownerID uuid.UUID) bool {
	return a.IsAdmin || (a.UserID != uuid.Nil && a.UserID == ownerID)
}

// Ref returns the actor id as a nullable reference for audit columns.
func (a Actor) Ref() *uuid.UUID {
	if a.UserID == uuid.Nil {
		return nil
	}
	id := a.UserID
	return &id
}
