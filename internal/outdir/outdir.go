// Package outdir prepares the thumbnail output directory before a run.
package outdir

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// CleanPrompt is shown before existing thumbnails are deleted.
const CleanPrompt = "Are you sure you want to delete all existing thumbnails? [y/N] "

// Confirmer asks a yes/no question.
type Confirmer func(prompt string) (bool, error)

// Always answers every prompt with answer.
func Always(answer bool) Confirmer {
	return func(string) (bool, error) { return answer, nil }
}

// TerminalConfirmer writes the prompt to out and accepts a "y" line from in.
// End of input counts as no.
func TerminalConfirmer(in io.Reader, out io.Writer) Confirmer {
	reader := bufio.NewReader(in)
	return func(prompt string) (bool, error) {
		if _, err := io.WriteString(out, prompt); err != nil {
			return false, err
		}
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, fmt.Errorf("read answer: %w", err)
		}
		return strings.EqualFold(strings.TrimSpace(line), "y"), nil
	}
}

// Options mirror the cleanup flags of a run.
type Options struct {
	DryRun     bool
	NoClean    bool
	ForceClean bool
}

// Prepare gets dir ready for writing. It returns false when the user
// declined to delete existing thumbnails, in which case nothing changed.
// Dry runs never touch the filesystem.
func Prepare(dir string, opts Options, confirm Confirmer) (bool, error) {
	if opts.DryRun {
		return true, nil
	}

	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("create output directory: %w", err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("stat output directory: %w", err)
	case !info.IsDir():
		return false, fmt.Errorf("output path %s is not a directory", dir)
	}

	if opts.NoClean {
		return true, nil
	}

	if !opts.ForceClean {
		if confirm == nil {
			return false, errors.New("cleanup needs confirmation; pass --forceClean or --noClean")
		}
		ok, err := confirm(CleanPrompt)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}

	if err := os.RemoveAll(dir); err != nil {
		return false, fmt.Errorf("remove output directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("create output directory: %w", err)
	}
	return true, nil
}

// Lock takes an exclusive lock on <dir>.lock so two runs never write the
// same directory. Release it with Unlock.
func Lock(dir string) (*flock.Flock, error) {
	lockPath := strings.TrimRight(dir, string(os.PathSeparator)) + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another thumbnail run is writing to %s", dir)
	}
	return lock, nil
}
