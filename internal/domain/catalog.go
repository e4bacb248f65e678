package domain

import (
	"strings"
	"time"
)

// Duration is a catalog entry; its ID is the amount in hundredths.
type Duration struct {
	ID       int64
	IsActive bool
}

type Collaborator struct {
	ID        string
	Login     string
	FirstName string
	LastName  string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName prefers "First Last" and falls back to the login.
func (c *Collaborator) DisplayName() string {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	return CoalesceStr(name, c.Login)
}
