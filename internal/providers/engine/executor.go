// Package engine drives the conversational engine CLI: one child process
// per turn, structured output on first contact, resume by continuity token
// afterwards.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"
	"time"

	"github.com/sandevgo/tuskbridge/internal/core"
	"github.com/sandevgo/tuskbridge/pkg/log"
)

const (
	DefaultCommand   = "claude"
	DefaultTimeout   = 120 * time.Second
	DefaultMaxBuffer = 5 * 1024 * 1024

	// EmptyResponse replaces an empty reply so callers never see "".
	EmptyResponse = "(Claude returned an empty response)"

	// waitDelay bounds how long Wait blocks on pipes held open by
	// grandchildren after the engine itself has exited or been killed.
	waitDelay = 2 * time.Second
)

// DefaultStripEnv lists variables removed from the child environment. The
// engine refuses to start when it believes it is nested in another session.
var DefaultStripEnv = []string{"CLAUDECODE"}

type Mode int

const (
	ModeNew Mode = iota
	ModeResume
)

func (m Mode) String() string {
	if m == ModeResume {
		return "resume"
	}
	return "new"
}

type Config struct {
	Command       string
	BaseArgs      []string
	Model         string
	MCPConfigPath string
	WorkDir       string
	StripEnv      []string
	Timeout       time.Duration
	MaxBuffer     int
}

type Executor struct {
	cfg   Config
	store core.SessionStore
}

func NewExecutor(cfg Config, store core.SessionStore) (*Executor, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if cfg.Command == "" {
		cfg.Command = DefaultCommand
	}
	if cfg.BaseArgs == nil {
		cfg.BaseArgs = []string{"--print"}
	}
	if cfg.StripEnv == nil {
		cfg.StripEnv = DefaultStripEnv
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBuffer <= 0 {
		cfg.MaxBuffer = DefaultMaxBuffer
	}

	return &Executor{cfg: cfg, store: store}, nil
}

// Run sends prompt to the engine within the conversation identified by key
// and returns the reply text.
//
// Without a stored token the engine is started in structured output mode and
// the session_id it reports is stored for key; with one, the engine is
// resumed in plain text mode. The store is written only after a clean exit
// with parseable output.
//
// Run does not serialize turns. Two concurrent first-contact turns for the
// same key both start fresh engine sessions and the last one to finish owns
// the stored token; callers that need ordering must lock per key.
func (e *Executor) Run(ctx context.Context, prompt string, key core.SessionKey) (string, error) {
	logger := log.FromCtx(ctx)

	token, found, err := e.store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to look up session %s: %w", key, err)
	}

	mode := ModeNew
	if found {
		mode = ModeResume
	}

	start := time.Now()
	stdout, err := e.exec(ctx, prompt, e.Args(mode, token))
	if err != nil {
		logger.Debug().Err(err).Str("mode", mode.String()).Str("kind", Kind(err)).Msg("engine run failed")
		return "", err
	}

	logger.Debug().
		Str("mode", mode.String()).
		Int("stdout_bytes", len(stdout)).
		Dur("elapsed", time.Since(start)).
		Msg("engine run finished")

	raw := strings.TrimSpace(stdout)
	if raw == "" {
		return EmptyResponse, nil
	}

	if mode == ModeResume {
		return raw, nil
	}

	switch out := Decode(raw).(type) {
	case Structured:
		if out.Token != "" {
			if err := e.store.Put(ctx, key, out.Token); err != nil {
				logger.Error().Err(err).Msg("failed to store continuity token")
			}
		}
		return out.Text, nil
	case Raw:
		logger.Warn().Msg("engine output is not structured, continuity token not captured")
		return out.Text, nil
	default:
		return raw, nil
	}
}

// Args builds the engine argument list for mode.
func (e *Executor) Args(mode Mode, token string) []string {
	args := make([]string, 0, len(e.cfg.BaseArgs)+8)
	args = append(args, e.cfg.BaseArgs...)

	if e.cfg.Model != "" {
		args = append(args, "--model", e.cfg.Model)
	}
	if e.cfg.MCPConfigPath != "" {
		args = append(args, "--mcp-config", e.cfg.MCPConfigPath)
	}

	if mode == ModeResume {
		return append(args, "--output-format", "text", "--resume", token)
	}
	return append(args, "--output-format", "json")
}

func (e *Executor) exec(ctx context.Context, prompt string, args []string) (string, error) {
	cmd := exec.Command(e.cfg.Command, args...)
	cmd.Env = e.environ()
	cmd.Dir = e.cfg.WorkDir
	cmd.WaitDelay = waitDelay

	// The prompt goes through stdin, closed after the last byte, so it is
	// never subject to shell quoting.
	cmd.Stdin = strings.NewReader(prompt)

	stdout := newCappedBuffer(e.cfg.MaxBuffer)
	var stderr bytes.Buffer
	cmd.Stdout = stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return "", &LaunchError{Command: e.cfg.Command, Err: err}
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	timer := time.NewTimer(e.cfg.Timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if stdout.Exceeded() {
			return "", &CapacityError{Limit: e.cfg.MaxBuffer}
		}
		if err != nil {
			return "", waitError(err, stderr.String())
		}
		return stdout.String(), nil

	case <-stdout.Overflow():
		e.kill(ctx, cmd)
		<-done
		return "", &CapacityError{Limit: e.cfg.MaxBuffer}

	case <-timer.C:
		e.kill(ctx, cmd)
		<-done
		return "", &TimeoutError{Timeout: e.cfg.Timeout}

	case <-ctx.Done():
		e.kill(ctx, cmd)
		<-done
		return "", fmt.Errorf("engine run cancelled: %w", ctx.Err())
	}
}

// kill is best effort; the process may already be gone.
func (e *Executor) kill(ctx context.Context, cmd *exec.Cmd) {
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		log.FromCtx(ctx).Debug().Err(err).Int("pid", cmd.Process.Pid).Msg("failed to kill engine process")
	}
}

func (e *Executor) environ() []string {
	env := os.Environ()
	if len(e.cfg.StripEnv) == 0 {
		return env
	}

	filtered := env[:0:0]
	for _, kv := range env {
		name, _, _ := strings.Cut(kv, "=")
		if !slices.Contains(e.cfg.StripEnv, name) {
			filtered = append(filtered, kv)
		}
	}
	return filtered
}

func waitError(err error, stderr string) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Code: exitErr.ExitCode(), Stderr: strings.TrimSpace(stderr)}
	}
	return fmt.Errorf("failed to collect engine output: %w", err)
}
