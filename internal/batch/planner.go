package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"splatconv/internal/fileutil"
)

var (
	// ErrInputNotFound reports a missing input root.
	ErrInputNotFound = errors.New("input root not found")
	// ErrInputNotDirectory reports an input root that is not a directory.
	ErrInputNotDirectory = errors.New("input root is not a directory")
)

// Plan walks inputRoot recursively and produces one task per file whose
// extension matches inputExt (case-insensitive). Each task's output path
// mirrors the input's directory structure under outputRoot with the
// extension replaced by outputExt. Planning is pure discovery: no directory
// is created and nothing is written. Zero matches yield an empty, non-error
// plan. Tasks are returned in sorted input-path order so runs are
// deterministic.
func Plan(inputRoot, outputRoot, inputExt, outputExt string) ([]Task, error) {
	info, err := os.Stat(inputRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, inputRoot)
		}
		return nil, fmt.Errorf("stat input root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrInputNotDirectory, inputRoot)
	}

	var tasks []Task
	walkErr := filepath.WalkDir(inputRoot, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), inputExt) {
			return nil
		}
		rel, err := filepath.Rel(inputRoot, path)
		if err != nil {
			return err
		}
		tasks = append(tasks, Task{
			InputPath:    path,
			OutputPath:   filepath.Join(outputRoot, fileutil.ReplaceExtension(rel, outputExt)),
			RelativePath: rel,
		})
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk input root: %w", walkErr)
	}

	sort.Slice(tasks, func(i, j int) bool { return tasks[i].InputPath < tasks[j].InputPath })
	return tasks, nil
}
