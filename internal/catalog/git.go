package catalog

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// GitInfo contains git repository information for a workspace.
type GitInfo struct {
	IsGit   bool
	GitRoot string
}

// DetectGit detects if a directory is within a git repository.
// Returns git information or falls back to non-git mode.
func DetectGit(ctx context.Context, root string) GitInfo {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--show-toplevel")
	cmd.Dir = root

	output, err := cmd.Output()
	if err != nil {
		// Not a git repo or git not available
		return GitInfo{IsGit: false}
	}

	return GitInfo{
		IsGit:   true,
		GitRoot: strings.TrimSpace(string(output)),
	}
}

// GitFileChange represents a file change detected by git.
type GitFileChange struct {
	Path   string
	Status string // "A" (added), "M" (modified), "D" (deleted)
}

// GitChanges uses `git status --porcelain` to detect file changes.
// Much faster than walking the filesystem for git workspaces. Porcelain
// paths are always relative to the repository root, not to gitRoot.
func GitChanges(ctx context.Context, gitRoot string) ([]GitFileChange, error) {
	cmd := exec.CommandContext(ctx, "git", "status", "--porcelain")
	cmd.Dir = gitRoot

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git status failed: %w", err)
	}

	var changes []GitFileChange
	scanner := bufio.NewScanner(bytes.NewReader(output))

	for scanner.Scan() {
		line := scanner.Text()
		if len(line) < 4 {
			continue
		}

		// Porcelain format: "XY filename" where X is the index status
		// and Y is the working tree status.
		status := strings.TrimSpace(line[0:2])
		path := strings.TrimSpace(line[3:])

		// Renames print as "R  old -> new"; the new path is what exists.
		if strings.Contains(path, " -> ") {
			parts := strings.Split(path, " -> ")
			if len(parts) == 2 {
				path = parts[1]
			}
		}

		statusCode := "M"
		if strings.Contains(status, "A") {
			statusCode = "A"
		} else if strings.Contains(status, "D") {
			statusCode = "D"
		} else if strings.Contains(status, "R") {
			statusCode = "M" // renamed = modified at the new path
		} else if strings.Contains(status, "??") {
			statusCode = "A" // untracked = added
		}

		changes = append(changes, GitFileChange{
			Path:   path,
			Status: statusCode,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse git status: %w", err)
	}

	return changes, nil
}

// ListGitFiles returns the paths git knows about under dir: tracked files
// plus untracked files that are not ignored, relative to dir. Used as the
// discovery baseline for git workspaces instead of a full filesystem walk.
func ListGitFiles(ctx context.Context, dir string) ([]string, error) {
	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = dir

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git ls-files failed: %w", err)
	}

	var files []string
	scanner := bufio.NewScanner(bytes.NewReader(output))

	for scanner.Scan() {
		path := strings.TrimSpace(scanner.Text())
		if path != "" {
			files = append(files, path)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse git ls-files: %w", err)
	}

	return files, nil
}
