package search

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// GitDirName is the entry whose presence marks a repository root.
const GitDirName = ".git"

var (
	// ErrInvalidRepository means the validator ran and rejected the directory.
	ErrInvalidRepository = errors.New("HEAD could not be resolved")

	// ErrValidatorUnavailable means the validator could not be launched.
	ErrValidatorUnavailable = errors.New("failed to run repository check, is git installed and configured?")
)

// Validator confirms that a directory holding a .git directory is a usable
// repository. A nil error confirms it.
type Validator interface {
	Validate(ctx context.Context, dir string) error
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(ctx context.Context, dir string) error

// Validate calls f(ctx, dir).
func (f ValidatorFunc) Validate(ctx context.Context, dir string) error {
	return f(ctx, dir)
}

// GitValidator runs `git rev-parse HEAD` inside the candidate directory.
// Only the exit status is consulted.
type GitValidator struct {
	Binary string   // Executable, "git" when empty
	Args   []string // Arguments, "rev-parse HEAD" when empty
}

// NewGitValidator returns a validator using the git binary on PATH.
func NewGitValidator() *GitValidator {
	return &GitValidator{Binary: "git", Args: []string{"rev-parse", "HEAD"}}
}

// Validate implements Validator.
func (g *GitValidator) Validate(ctx context.Context, dir string) error {
	binary := g.Binary
	if binary == "" {
		binary = "git"
	}
	args := g.Args
	if len(args) == 0 {
		args = []string{"rev-parse", "HEAD"}
	}

	// Leaving the streams nil connects them to the null device.
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Dir = dir

	err := cmd.Run()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("%s %s exited with status %d: %w",
			binary, strings.Join(args, " "), exitErr.ExitCode(), ErrInvalidRepository)
	}
	return fmt.Errorf("%w: %w", ErrValidatorUnavailable, err)
}

// CheckGit reports whether a git executable is available on PATH.
func CheckGit() error {
	if _, err := exec.LookPath("git"); err != nil {
		return fmt.Errorf("%w: %w", ErrValidatorUnavailable, err)
	}
	return nil
}

// Detector decides whether a directory is a repository root.
type Detector struct {
	Paranoid  bool
	Validator Validator
}

// NewDetector returns a detector; when paranoid is set and v is nil the git
// executable is used.
func NewDetector(paranoid bool, v Validator) *Detector {
	if paranoid && v == nil {
		v = NewGitValidator()
	}
	return &Detector{Paranoid: paranoid, Validator: v}
}

// HasGitDir reports whether dir/.git exists and is a directory. A .git file,
// as written for linked worktrees, does not count.
func HasGitDir(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, GitDirName))
	return err == nil && info.IsDir()
}

// Confirm runs the paranoid check for a directory already known to contain
// .git. It always confirms when the detector is not paranoid. The returned
// error explains a rejection.
func (d *Detector) Confirm(ctx context.Context, dir string) (bool, error) {
	if !d.Paranoid {
		return true, nil
	}
	if d.Validator == nil {
		return false, ErrValidatorUnavailable
	}
	if err := d.Validator.Validate(ctx, dir); err != nil {
		return false, err
	}
	return true, nil
}

// IsRepo combines HasGitDir and Confirm.
func (d *Detector) IsRepo(ctx context.Context, dir string) (bool, error) {
	if !HasGitDir(dir) {
		return false, nil
	}
	return d.Confirm(ctx, dir)
}

// ShouldSkip reports whether a directory named name is left out of recursion.
// Hidden names are skipped unless showAll is set; names that are not valid
// UTF-8 are treated as hidden.
func ShouldSkip(name string, showAll bool) bool {
	if showAll {
		return false
	}
	return !utf8.ValidString(name) || strings.HasPrefix(name, ".")
}
