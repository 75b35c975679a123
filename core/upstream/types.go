package upstream

import "time"

// Pull is one pull request snapshot as returned by the upstream list call.
// Field names follow the GitHub REST shape so real payloads round-trip; the
// store persists the whole snapshot opaquely and only the triage logic
// interprets it.
type Pull struct {
	Number    int64      `json:"number"`
	Title     string     `json:"title"`
	State     string     `json:"state"`
	Draft     bool       `json:"draft"`
	User      *User      `json:"user"`
	UpdatedAt *time.Time `json:"updated_at"`
	Labels    []Label    `json:"labels"`
}

// User is the author of a pull request.
type User struct {
	Login string `json:"login"`
}

// Label is one label attached to a pull request.
type Label struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Pull request states accepted by the list call's state filter.
const (
	StateOpen   = "open"
	StateClosed = "closed"
	StateAll    = "all"
)

// IsClosed reports whether the pull request is closed upstream.
func (p *Pull) IsClosed() bool {
	return p.State == StateClosed
}

// HasLabel reports whether the pull request carries the exact label name.
func (p *Pull) HasLabel(name string) bool {
	for _, l := range p.Labels {
		if l.Name == name {
			return true
		}
	}
	return false
}

// HasLabelPrefix reports whether any label name starts with the given prefix.
func (p *Pull) HasLabelPrefix(prefix string) bool {
	for _, l := range p.Labels {
		if len(l.Name) >= len(prefix) && l.Name[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}
