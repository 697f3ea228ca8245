package services

import "tour-backend/models"

// requireAdmin is the per-operation gate every moderation method calls before reading the store.
func requireAdmin(caller *models.Caller) error {
	if caller == nil || caller.UserID == 0 {
		return ErrUnauthenticated
	}
	if !caller.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
