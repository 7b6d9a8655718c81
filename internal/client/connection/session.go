package connection

import "github.com/dmitrijs2005/selfkeeper/internal/client/models"

type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	}
	return "unknown"
}

// Session is a snapshot of the connection. Identity is set only while
// Status is StatusConnected.
type Session struct {
	Status   Status
	Identity *models.Identity
}

func (s Session) Connected() bool {
	return s.Status == StatusConnected && s.Identity != nil
}
