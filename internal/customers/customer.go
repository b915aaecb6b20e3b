// Package customers manages the salon's client base and their tags.
package customers

import (
	"errors"
	"strings"
	"time"
)

// Tag labels a customer. Its identity is derived from the display name, so
// re-adding "VIP client" on two different customers nets the same tag id.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TagID normalizes a tag name into its deterministic identity: lowercased,
// runs of whitespace collapsed to single hyphens. A pure function, not a
// stored lookup.
func TagID(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

// NewTag builds a tag whose id is derived from the name.
func NewTag(name string) Tag {
	return Tag{ID: TagID(name), Name: strings.TrimSpace(name)}
}

// Customer is a salon client.
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Tags      []Tag     `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks write-time invariants and normalizes tag identities.
func (c *Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("customers: name is required")
	}
	seen := make(map[string]struct{}, len(c.Tags))
	normalized := c.Tags[:0]
	for _, tag := range c.Tags {
		t := NewTag(tag.Name)
		if t.ID == "" {
			continue
		}
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		normalized = append(normalized, t)
	}
	c.Tags = normalized
	return nil
}
