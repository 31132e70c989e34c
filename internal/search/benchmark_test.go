package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// setupWorkspace creates a tree of projects, every third one a repository
// with a populated .git directory and nested vendor checkouts.
func setupWorkspace(b *testing.B) string {
	root := b.TempDir()

	for i := 0; i < 10; i++ {
		for j := 0; j < 10; j++ {
			project := filepath.Join(root, fmt.Sprintf("group%d", i), fmt.Sprintf("project%d", j))
			dirs := []string{"src/pkg", "docs", ".cache/tmp"}
			if j%3 == 0 {
				dirs = append(dirs, ".git/objects/aa", ".git/refs/heads", "vendor/dep/.git")
			}
			for _, d := range dirs {
				if err := os.MkdirAll(filepath.Join(project, d), 0o755); err != nil {
					b.Fatalf("Failed to create directory: %v", err)
				}
			}
			for k := 0; k < 5; k++ {
				file := filepath.Join(project, "src", fmt.Sprintf("file%d.go", k))
				if err := os.WriteFile(file, []byte("package pkg\n"), 0o644); err != nil {
					b.Fatalf("Failed to create file: %v", err)
				}
			}
		}
	}
	return root
}

func discard(context.Context, Event) error { return nil }

func BenchmarkWalk(b *testing.B) {
	root := setupWorkspace(b)
	ctx := context.Background()

	b.Run("Default", func(b *testing.B) {
		opts := DefaultOptions(root)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := Walk(ctx, opts, discard); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("ShowAll", func(b *testing.B) {
		opts := DefaultOptions(root)
		opts.ShowAll = true
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := Walk(ctx, opts, discard); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("FollowSymlinks", func(b *testing.B) {
		opts := DefaultOptions(root)
		opts.Symlinks = SymlinkFollow
		opts.MaxDepth = UnlimitedDepth
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := Walk(ctx, opts, discard); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("Paranoid", func(b *testing.B) {
		opts := DefaultOptions(root)
		opts.Paranoid = true
		opts.Validator = ValidatorFunc(func(context.Context, string) error { return nil })
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := Walk(ctx, opts, discard); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkFormatMatch(b *testing.B) {
	msg := MatchMessage{Path: "/home/user/src/project", Name: "project", Dir: "/home/user/src", Depth: 2}
	for i := 0; i < b.N; i++ {
		_ = FormatMatch(`{base} {"dir"} {depth}`, msg)
	}
}
