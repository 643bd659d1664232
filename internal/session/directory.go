package session

import "sync"

// Directory tracks the most recently seen connection id for each user.
// Bindings are last-write-wins: a reconnect silently supersedes the old
// connection, which is what lets the disconnect path tell a page reload
// apart from a real departure.
type Directory struct {
	mu       sync.Mutex
	bindings map[string]string
}

func NewDirectory() *Directory {
	return &Directory{bindings: make(map[string]string)}
}

func (d *Directory) Bind(userID, connectionID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bindings[userID] = connectionID
}

func (d *Directory) Resolve(userID string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	connectionID, ok := d.bindings[userID]
	return connectionID, ok
}

// UnbindIfMatches removes the binding only while it still points at the
// given connection. A stale disconnect must not clobber a binding already
// refreshed by a newer connection.
func (d *Directory) UnbindIfMatches(userID, connectionID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.bindings[userID] != connectionID {
		return false
	}
	delete(d.bindings, userID)
	return true
}
