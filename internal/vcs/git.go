package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds every git subprocess.
const DefaultTimeout = 15 * time.Second

// Git implements Repository by running the git binary in a working directory.
type Git struct {
	dir     string
	binary  string
	timeout time.Duration
}

// Compile-time check that Git implements Repository.
var _ Repository = (*Git)(nil)

// GitOption configures a Git repository handle.
type GitOption func(*Git)

// WithTimeout overrides the per-command timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) GitOption {
	return func(g *Git) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithBinary overrides the git executable (default "git").
func WithBinary(path string) GitOption {
	return func(g *Git) { g.binary = path }
}

// NewGit returns a handle for the repository whose working tree is dir.
func NewGit(dir string, opts ...GitOption) *Git {
	g := &Git{
		dir:     dir,
		binary:  "git",
		timeout: DefaultTimeout,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Dir returns the working directory.
func (g *Git) Dir() string {
	return g.dir
}

// Stage runs `git add -- path`.
func (g *Git) Stage(ctx context.Context, path string) error {
	_, err := g.run(ctx, "add", "--", path)
	return err
}

// HasStagedChanges runs `git diff --cached --quiet -- path`, which exits 1
// when the index differs from HEAD.
func (g *Git) HasStagedChanges(ctx context.Context, path string) (bool, error) {
	_, err := g.run(ctx, "diff", "--cached", "--quiet", "--", path)
	if err == nil {
		return false, nil
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.ExitCode == 1 {
		return true, nil
	}
	return false, err
}

// Commit runs `git commit -m message -- path`. The message travels as a single
// argument, so quotes in it need no escaping.
func (g *Git) Commit(ctx context.Context, path, message string) error {
	_, err := g.run(ctx, "commit", "--quiet", "-m", message, "--", path)
	return err
}

// Log parses `git log --oneline`. Each line is split at the first space into
// the abbreviated hash and the subject.
func (g *Git) Log(ctx context.Context, limit int) ([]Commit, error) {
	if limit <= 0 {
		return []Commit{}, nil
	}
	out, err := g.run(ctx, "log", "--oneline", "--no-decorate", "--no-color", "-n", strconv.Itoa(limit))
	if err != nil {
		return nil, err
	}
	return ParseOneline(out, limit), nil
}

// HasRemote runs `git remote` and looks for an exact name match.
func (g *Git) HasRemote(ctx context.Context, name string) (bool, error) {
	out, err := g.run(ctx, "remote")
	if err != nil {
		return false, err
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == name {
			return true, nil
		}
	}
	return false, nil
}

// ParseOneline converts `git log --oneline` output into commits, keeping at
// most limit entries. Blank lines are skipped.
func ParseOneline(out string, limit int) []Commit {
	commits := []Commit{}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		if len(commits) >= limit {
			break
		}
		hash, message, _ := strings.Cut(line, " ")
		commits = append(commits, Commit{Hash: hash, Message: message})
	}
	return commits
}

// CommandError describes a failed git invocation.
type CommandError struct {
	Args     []string
	ExitCode int    // -1 when the process did not exit normally
	Stderr   string // first line of stderr
	Err      error
}

func (e *CommandError) Error() string {
	msg := e.Err.Error()
	if e.Stderr != "" {
		msg = e.Stderr
	}
	return fmt.Sprintf("git %s: %s", strings.Join(e.Args, " "), msg)
}

func (e *CommandError) Unwrap() error { return e.Err }

func (g *Git) run(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, g.binary, args...)
	cmd.Dir = g.dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		cmdErr := &CommandError{
			Args:     args,
			ExitCode: -1,
			Stderr:   firstLine(stderr.String()),
			Err:      err,
		}
		if ctx.Err() == context.DeadlineExceeded {
			cmdErr.Err = fmt.Errorf("timed out after %s: %w", g.timeout, ctx.Err())
			return "", cmdErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cmdErr.ExitCode = exitErr.ExitCode()
		}
		return "", cmdErr
	}
	return stdout.String(), nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
