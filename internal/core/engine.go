package core

import "context"

// Engine answers a prompt within the conversation identified by key.
type Engine interface {
	Run(ctx context.Context, prompt string, key SessionKey) (string, error)
}
