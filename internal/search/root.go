package search

import (
	"fmt"
	"os"

	"github.com/mitchellh/go-homedir"
)

// StartupError is a fatal problem detected before any walking begins.
type StartupError struct {
	Op   string // What was being attempted
	Path string // Offending path, empty when none applies
	Err  error
}

func (e *StartupError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}

// ResolveRoot turns the user-supplied search root into a canonical
// directory path. An empty arg means the current working directory; a
// leading ~ is expanded to the home directory.
func ResolveRoot(arg string) (string, error) {
	if arg == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", &StartupError{Op: "could not get current directory", Err: err}
		}
		return wd, nil
	}

	expanded, err := homedir.Expand(arg)
	if err != nil {
		return "", &StartupError{Op: "invalid search root", Path: arg, Err: err}
	}

	root, err := canonicalPath(expanded)
	if err != nil {
		return "", &StartupError{Op: "directory is invalid or does not exist", Path: arg, Err: err}
	}

	info, err := os.Stat(root)
	if err != nil {
		return "", &StartupError{Op: "directory is invalid or does not exist", Path: arg, Err: err}
	}
	if !info.IsDir() {
		return "", &StartupError{Op: "not a directory", Path: arg, Err: fmt.Errorf("%s is a %s", root, info.Mode().Type())}
	}
	return root, nil
}
