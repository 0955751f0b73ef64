// Package git finds the Go packages touched by uncommitted changes.
package git

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
)

// ChangedFile is a file named by git diff, relative to the repository
// root.
type ChangedFile struct {
	Path    string
	Deleted bool
}

// ChangedFiles runs git diff in dir against baseRef.
func ChangedFiles(ctx context.Context, dir, baseRef string) ([]ChangedFile, error) {
	cmd := exec.CommandContext(ctx, "git", "diff", "--name-status", "--no-renames", baseRef)
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git diff failed: %w", err)
	}
	return parseNameStatus(output)
}

// parseNameStatus reads `git diff --name-status` lines such as
// "M\tinternal/foo/foo.go".
func parseNameStatus(output []byte) ([]ChangedFile, error) {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	var changes []ChangedFile
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		status, path, ok := strings.Cut(line, "\t")
		if !ok || status == "" {
			return nil, fmt.Errorf("unexpected diff line %q", line)
		}
		changes = append(changes, ChangedFile{
			Path:    filepath.FromSlash(path),
			Deleted: status[0] == 'D',
		})
	}
	return changes, scanner.Err()
}

// PackageDirs returns the directories holding changed non-test Go files,
// sorted and without duplicates. Deleted files count: their package may
// have lost declarations or vanished.
func PackageDirs(changes []ChangedFile) []string {
	var dirs []string
	for _, c := range changes {
		if !strings.HasSuffix(c.Path, ".go") || strings.HasSuffix(c.Path, "_test.go") {
			continue
		}
		dirs = append(dirs, filepath.Dir(c.Path))
	}
	slices.Sort(dirs)
	return slices.Compact(dirs)
}
