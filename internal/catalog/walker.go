package catalog

import (
	"bufio"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	gitignore "github.com/sabhiram/go-gitignore"
)

// FileInfo contains metadata about a discovered file.
type FileInfo struct {
	Path      string // relative to the workspace root
	Hash      string
	SizeBytes int64
	MtimeUnix int64
}

// WalkError represents an error that occurred during file walking.
type WalkError struct {
	Path string
	Err  error
}

func (e *WalkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// WalkResult contains the results of a workspace walk.
type WalkResult struct {
	Files  []FileInfo
	Errors []WalkError
}

// DefaultIgnorePatterns are common directories and files to skip.
var DefaultIgnorePatterns = []string{
	".git",
	".loxkit",
	"node_modules",
	"dist",
	"build",
	"vendor",
	"coverage",
	".cache",
	"target",
	".idea",
	".vscode",
	".DS_Store",
}

// FileFilter decides which files belong in the catalog.
type FileFilter interface {
	Match(relPath string) bool
}

// ExtFilter matches files by extension.
type ExtFilter struct {
	exts map[string]bool
}

// NewExtFilter creates a filter matching the given extensions (".lox").
func NewExtFilter(exts ...string) *ExtFilter {
	m := make(map[string]bool, len(exts))
	for _, e := range exts {
		m[strings.ToLower(e)] = true
	}
	return &ExtFilter{exts: m}
}

// Match reports whether the file extension is one of the configured ones.
func (f *ExtFilter) Match(relPath string) bool {
	return f.exts[strings.ToLower(filepath.Ext(relPath))]
}

// WalkerConfig configures the file walker behavior.
type WalkerConfig struct {
	// MaxConcurrency limits parallel file hashing. Default: 4
	MaxConcurrency int
	// Filter selects catalog files. Default: NewExtFilter(".lox")
	Filter FileFilter
	// Include restricts the walk to paths matching these gitignore-style
	// patterns. Empty means everything passes.
	Include []string
	// Exclude adds gitignore-style patterns on top of DefaultIgnorePatterns
	// and the workspace .gitignore files.
	Exclude []string
	// FollowSymlinks enables symlink following with cycle detection. Default: false
	FollowSymlinks bool
	// ExistingFiles maps path -> known record for fast-path optimization.
	// If provided, the walker skips hashing files whose size and mtime
	// are unchanged.
	ExistingFiles map[string]FileRecord
}

// Walker walks a workspace and discovers catalog files.
type Walker struct {
	root            string
	config          WalkerConfig
	ignoreMatcher   gitignore.IgnoreParser
	includeMatcher  gitignore.IgnoreParser
	filter          FileFilter
	visitedSymlinks map[string]bool
	symlinkMutex    sync.Mutex
}

// NewWalker creates a file walker for the given workspace root.
func NewWalker(root string) (*Walker, error) {
	return NewWalkerWithConfig(root, WalkerConfig{})
}

// NewWalkerWithConfig creates a file walker with custom configuration.
func NewWalkerWithConfig(root string, config WalkerConfig) (*Walker, error) {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.Filter == nil {
		config.Filter = NewExtFilter(".lox")
	}

	w := &Walker{
		root:            root,
		config:          config,
		filter:          config.Filter,
		visitedSymlinks: make(map[string]bool),
	}

	allPatterns := make([]string, 0, len(DefaultIgnorePatterns)+len(config.Exclude)+10)
	allPatterns = append(allPatterns, DefaultIgnorePatterns...)
	allPatterns = append(allPatterns, config.Exclude...)
	allPatterns = append(allPatterns, w.loadGitignorePatterns(root)...)
	w.ignoreMatcher = gitignore.CompileIgnoreLines(allPatterns...)

	if len(config.Include) > 0 {
		w.includeMatcher = gitignore.CompileIgnoreLines(config.Include...)
	}

	return w, nil
}

// loadGitignorePatterns loads patterns from all .gitignore files in the workspace.
func (w *Walker) loadGitignorePatterns(root string) []string {
	var patterns []string

	rootGitignore := filepath.Join(root, ".gitignore")
	if lines, err := readGitignoreLines(rootGitignore); err == nil {
		patterns = append(patterns, lines...)
	}

	// Nested .gitignore files are flattened into one pattern set. Strict
	// per-directory scoping is not honored.
	filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || d.Name() != ".gitignore" || path == rootGitignore {
			return nil
		}
		if lines, err := readGitignoreLines(path); err == nil {
			patterns = append(patterns, lines...)
		}
		return nil
	})

	return patterns
}

// readGitignoreLines reads patterns from a .gitignore file.
func readGitignoreLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

// Walk discovers all catalog files in the workspace.
func (w *Walker) Walk() ([]FileInfo, error) {
	result := w.WalkWithErrors()
	return result.Files, nil
}

// WalkWithErrors discovers all catalog files and returns detailed error information.
func (w *Walker) WalkWithErrors() WalkResult {
	pathChan := make(chan string, 100)
	resultChan := make(chan FileInfo, 100)
	errorChan := make(chan WalkError, 100)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < w.config.MaxConcurrency; i++ {
		wg.Add(1)
		go w.fileProcessor(ctx, pathChan, resultChan, errorChan, &wg)
	}

	var files []FileInfo
	var errors []WalkError
	collectDone := make(chan struct{})
	go func() {
		defer close(collectDone)
		for {
			select {
			case info, ok := <-resultChan:
				if !ok {
					return
				}
				files = append(files, info)
			case err, ok := <-errorChan:
				if !ok {
					return
				}
				errors = append(errors, err)
			case <-ctx.Done():
				return
			}
		}
	}()

	walkErr := filepath.WalkDir(w.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			errorChan <- WalkError{Path: path, Err: err}
			return nil // continue walking
		}

		relPath, err := filepath.Rel(w.root, path)
		if err != nil {
			errorChan <- WalkError{Path: path, Err: err}
			return nil
		}

		if w.ignoreMatcher.MatchesPath(relPath) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&os.ModeSymlink != 0 {
			if !w.config.FollowSymlinks {
				return nil
			}
			realPath, err := filepath.EvalSymlinks(path)
			if err != nil {
				errorChan <- WalkError{Path: path, Err: fmt.Errorf("failed to resolve symlink: %w", err)}
				return nil
			}

			w.symlinkMutex.Lock()
			if w.visitedSymlinks[realPath] {
				w.symlinkMutex.Unlock()
				return nil // skip cycle
			}
			w.visitedSymlinks[realPath] = true
			w.symlinkMutex.Unlock()
		}

		if d.IsDir() {
			return nil
		}

		if !w.filter.Match(relPath) {
			return nil
		}
		if w.includeMatcher != nil && !w.includeMatcher.MatchesPath(relPath) {
			return nil
		}

		select {
		case pathChan <- path:
		case <-ctx.Done():
			return ctx.Err()
		}

		return nil
	})

	close(pathChan)
	wg.Wait()
	close(resultChan)
	close(errorChan)
	<-collectDone

	if walkErr != nil && walkErr != context.Canceled {
		errors = append(errors, WalkError{Path: w.root, Err: walkErr})
	}

	return WalkResult{
		Files:  files,
		Errors: errors,
	}
}

// Collect stats and hashes an explicit list of workspace-relative paths,
// applying the same ignore, include and extension rules as a full walk.
// Used when git already knows the candidate file set.
func (w *Walker) Collect(relPaths []string) WalkResult {
	var result WalkResult
	for _, relPath := range relPaths {
		if w.ignoreMatcher.MatchesPath(relPath) {
			continue
		}
		if !w.filter.Match(relPath) {
			continue
		}
		if w.includeMatcher != nil && !w.includeMatcher.MatchesPath(relPath) {
			continue
		}

		fullPath := filepath.Join(w.root, relPath)
		info, err := w.getFileInfo(fullPath, relPath)
		if err != nil {
			result.Errors = append(result.Errors, WalkError{Path: relPath, Err: err})
			continue
		}
		result.Files = append(result.Files, *info)
	}
	return result
}

// fileProcessor hashes file paths from the channel.
func (w *Walker) fileProcessor(ctx context.Context, pathChan <-chan string, resultChan chan<- FileInfo, errorChan chan<- WalkError, wg *sync.WaitGroup) {
	defer wg.Done()

	for path := range pathChan {
		select {
		case <-ctx.Done():
			return
		default:
		}

		relPath, err := filepath.Rel(w.root, path)
		if err != nil {
			errorChan <- WalkError{Path: path, Err: err}
			continue
		}

		info, err := w.getFileInfo(path, relPath)
		if err != nil {
			errorChan <- WalkError{Path: path, Err: err}
			continue
		}

		resultChan <- *info
	}
}

// getFileInfo reads file metadata and computes the hash, reusing the known
// hash when size and mtime are unchanged.
func (w *Walker) getFileInfo(fullPath, relPath string) (*FileInfo, error) {
	stat, err := os.Stat(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	size := stat.Size()
	mtime := stat.ModTime().Unix()

	if existing, ok := w.config.ExistingFiles[relPath]; ok {
		if existing.SizeBytes == size && existing.MtimeUnix == mtime {
			return &FileInfo{
				Path:      relPath,
				Hash:      existing.Hash,
				SizeBytes: size,
				MtimeUnix: mtime,
			}, nil
		}
	}

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return nil, fmt.Errorf("failed to hash file: %w", err)
	}

	return &FileInfo{
		Path:      relPath,
		Hash:      fmt.Sprintf("%x", hasher.Sum(nil)),
		SizeBytes: size,
		MtimeUnix: mtime,
	}, nil
}
