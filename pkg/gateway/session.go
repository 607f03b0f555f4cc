package gateway

import "time"

// Session is one connected agent. Its ID doubles as the safety session ID
// that scopes backups, the undo slot and pending confirmations.
type Session struct {
	ID         string
	RemoteAddr string
	StartedAt  time.Time
}
