package srv

import "context"

// funcService adapts plain functions to Service.
type funcService struct {
	start   func(ctx context.Context) error
	cleanup func() error
}

func (f *funcService) Start(ctx context.Context) error {
	if f.start != nil {
		return f.start(ctx)
	}
	return nil
}

func (f *funcService) Shutdown(ctx context.Context) error {
	if f.cleanup != nil {
		return f.cleanup()
	}
	return nil
}

// NewCleanup returns a Service that only runs fn on shutdown, for closing
// databases and other resources opened during setup.
func NewCleanup(fn func() error) Service {
	return &funcService{cleanup: fn}
}

// NewFunc returns a Service whose Start runs fn.
func NewFunc(fn func(ctx context.Context) error) Service {
	return &funcService{start: fn}
}
