package models

// Caller is the authenticated identity behind an admin request.
// A nil *Caller means the request is anonymous.
type Caller struct {
	UserID uint     `json:"user_id"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles"`
}

func (c *Caller) HasRole(role string) bool {
	if c == nil {
		return false
	}
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (c *Caller) IsAdmin() bool { return c.HasRole(RoleAdmin) }
