package core

const (
	AppName       = "TuskBridge"
	AppVersion    = "0.1.0"
	RepositoryURL = "https://github.com/sandevgo/tuskbridge"
)

// SessionKey is the stable, UUID-shaped handle this bridge derives from a
// chat conversation identifier.
type SessionKey string

func (k SessionKey) String() string {
	return string(k)
}
