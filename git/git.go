// Package git wraps the git command line for workspace version control.
//
// Stations use it to initialize repositories, stage generated
// artifacts, and commit pipeline output. All operations shell out to
// the system git binary; the runner is injectable for tests.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
)

// Sentinel errors returned by repository operations.
var (
	ErrGitNotAvailable = errors.New("git: binary not found in PATH")
	ErrNotARepository  = errors.New("git: not a repository")
	ErrNothingToCommit = errors.New("git: nothing to commit")
	ErrRemoteNotFound  = errors.New("git: remote not found")
)

// Runner executes a git invocation in a working directory and returns
// combined stdout. Implemented by execRunner in production; tests
// substitute a scripted runner.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (stdout string, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(errb.String())
		if msg == "" {
			msg = strings.TrimSpace(out.String())
		}
		return out.String(), fmt.Errorf("git %s: %s: %w", strings.Join(args, " "), msg, err)
	}
	return out.String(), nil
}

// Status summarizes the working tree of a repository.
type Status struct {
	Branch    string   `json:"branch"`
	Clean     bool     `json:"clean"`
	Modified  []string `json:"modified,omitempty"`
	Untracked []string `json:"untracked,omitempty"`
	Staged    []string `json:"staged,omitempty"`
	Ahead     int      `json:"ahead"`
	Behind    int      `json:"behind"`
}

// Info describes repository-level facts.
type Info struct {
	Branch      string `json:"branch"`
	CommitCount int    `json:"commit_count"`
	HeadHash    string `json:"head_hash,omitempty"`
}

// Ops performs git operations rooted at a repository path.
type Ops struct {
	dir    string
	runner Runner
	logger *slog.Logger
}

// Option configures an Ops.
type Option func(*Ops)

// WithRunner substitutes the command runner.
func WithRunner(r Runner) Option {
	return func(o *Ops) { o.runner = r }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Ops) { o.logger = logger }
}

// New creates git operations for the repository at dir.
func New(dir string, opts ...Option) *Ops {
	o := &Ops{
		dir:    dir,
		runner: execRunner{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Dir returns the repository path.
func (o *Ops) Dir() string { return o.dir }

// Available reports whether the git binary can be found.
func Available() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// IsInitialized reports whether dir is inside a git work tree.
func (o *Ops) IsInitialized(ctx context.Context) bool {
	out, err := o.runner.Run(ctx, o.dir, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(out) == "true"
}

// Init initializes a repository with the given default branch.
func (o *Ops) Init(ctx context.Context, defaultBranch string) error {
	if !Available() {
		return ErrGitNotAvailable
	}
	if defaultBranch == "" {
		defaultBranch = "main"
	}
	if _, err := o.runner.Run(ctx, o.dir, "init", "--initial-branch", defaultBranch); err != nil {
		return err
	}
	o.logger.Info("initialized repository",
		slog.String("dir", o.dir),
		slog.String("branch", defaultBranch),
	)
	return nil
}

// CurrentBranch returns the checked-out branch name.
func (o *Ops) CurrentBranch(ctx context.Context) (string, error) {
	out, err := o.runner.Run(ctx, o.dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Status parses `git status --porcelain` plus upstream divergence.
func (o *Ops) Status(ctx context.Context) (*Status, error) {
	branch, err := o.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}
	out, err := o.runner.Run(ctx, o.dir, "status", "--porcelain")
	if err != nil {
		return nil, err
	}

	st := &Status{Branch: branch}
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 3 {
			continue
		}
		code, path := line[:2], strings.TrimSpace(line[3:])
		switch {
		case code == "??":
			st.Untracked = append(st.Untracked, path)
		case code[0] != ' ' && code[0] != '?':
			st.Staged = append(st.Staged, path)
			if code[1] != ' ' {
				st.Modified = append(st.Modified, path)
			}
		default:
			st.Modified = append(st.Modified, path)
		}
	}
	st.Clean = len(st.Modified) == 0 && len(st.Untracked) == 0 && len(st.Staged) == 0

	// Divergence is best effort: branches without an upstream have
	// none to report.
	if div, err := o.runner.Run(ctx, o.dir, "rev-list", "--left-right", "--count", "HEAD...@{upstream}"); err == nil {
		fields := strings.Fields(strings.TrimSpace(div))
		if len(fields) == 2 {
			st.Ahead, _ = strconv.Atoi(fields[0])
			st.Behind, _ = strconv.Atoi(fields[1])
		}
	}
	return st, nil
}

// Add stages the given paths.
func (o *Ops) Add(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	_, err := o.runner.Run(ctx, o.dir, append([]string{"add", "--"}, paths...)...)
	return err
}

// AddAll stages every change in the work tree.
func (o *Ops) AddAll(ctx context.Context) error {
	_, err := o.runner.Run(ctx, o.dir, "add", "-A")
	return err
}

// Commit records staged changes and returns the new commit hash.
// Returns ErrNothingToCommit when the index is clean.
func (o *Ops) Commit(ctx context.Context, message string) (string, error) {
	out, err := o.runner.Run(ctx, o.dir, "commit", "-m", message)
	if err != nil {
		if strings.Contains(out, "nothing to commit") ||
			strings.Contains(err.Error(), "nothing to commit") {
			return "", ErrNothingToCommit
		}
		return "", err
	}
	hash, err := o.runner.Run(ctx, o.dir, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	hash = strings.TrimSpace(hash)
	o.logger.Info("created commit",
		slog.String("hash", hash),
		slog.String("message", message),
	)
	return hash, nil
}

// Remote returns the URL of a named remote.
func (o *Ops) Remote(ctx context.Context, name string) (string, error) {
	out, err := o.runner.Run(ctx, o.dir, "remote", "get-url", name)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrRemoteNotFound, name)
	}
	return strings.TrimSpace(out), nil
}

// Remotes lists configured remote names.
func (o *Ops) Remotes(ctx context.Context) ([]string, error) {
	out, err := o.runner.Run(ctx, o.dir, "remote")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}

// AddRemote adds a remote, updating the URL if the name already
// exists.
func (o *Ops) AddRemote(ctx context.Context, name, url string) error {
	if _, err := o.Remote(ctx, name); err == nil {
		_, err = o.runner.Run(ctx, o.dir, "remote", "set-url", name, url)
		return err
	}
	_, err := o.runner.Run(ctx, o.dir, "remote", "add", name, url)
	return err
}

// RemoveRemote deletes a remote.
func (o *Ops) RemoveRemote(ctx context.Context, name string) error {
	_, err := o.runner.Run(ctx, o.dir, "remote", "remove", name)
	return err
}

// Push publishes a branch to a remote, setting upstream tracking.
func (o *Ops) Push(ctx context.Context, remote, branch string, force bool) error {
	args := []string{"push", "--set-upstream"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, remote, branch)
	_, err := o.runner.Run(ctx, o.dir, args...)
	if err == nil {
		o.logger.Info("pushed branch",
			slog.String("remote", remote),
			slog.String("branch", branch),
		)
	}
	return err
}

// Pull fetches and merges from a remote branch.
func (o *Ops) Pull(ctx context.Context, remote, branch string) error {
	_, err := o.runner.Run(ctx, o.dir, "pull", remote, branch)
	return err
}

// Info returns branch, commit count, and head hash for the
// repository.
func (o *Ops) Info(ctx context.Context) (*Info, error) {
	if !o.IsInitialized(ctx) {
		return nil, fmt.Errorf("%w: %s", ErrNotARepository, o.dir)
	}
	branch, err := o.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}
	info := &Info{Branch: branch}
	if out, err := o.runner.Run(ctx, o.dir, "rev-list", "--count", "HEAD"); err == nil {
		info.CommitCount, _ = strconv.Atoi(strings.TrimSpace(out))
	}
	if out, err := o.runner.Run(ctx, o.dir, "rev-parse", "HEAD"); err == nil {
		info.HeadHash = strings.TrimSpace(out)
	}
	return info, nil
}
