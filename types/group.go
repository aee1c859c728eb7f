package types

import (
	"errors"
	"strings"
	"time"
)

// Group is a named collection of members used to originate group loans.
type Group struct {
	ID          int64         `json:"id,omitempty"`
	UserID      int           `json:"user_id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Members     []GroupMember `json:"members"`
	CreatedAt   time.Time     `json:"created_at,omitempty"`
}

// GroupMember references a customer that belongs to a group.
type GroupMember struct {
	CustomerID int64  `json:"customer_id"`
	Name       string `json:"name"`
}

// Validate checks the ownership and field contract of a group row.
func (g Group) Validate() error {
	if g.UserID < 1 {
		return errors.New("group owner is required")
	}
	if strings.TrimSpace(g.Name) == "" {
		return errors.New("group name is required")
	}
	seen := make(map[int64]struct{}, len(g.Members))
	for _, member := range g.Members {
		if member.CustomerID < 1 {
			return errors.New("group member must reference a customer")
		}
		if _, dup := seen[member.CustomerID]; dup {
			return errors.New("group members must be unique")
		}
		seen[member.CustomerID] = struct{}{}
	}
	return nil
}
