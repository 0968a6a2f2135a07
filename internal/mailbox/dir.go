package mailbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/emersion/go-mbox"
)

// Source yields the messages currently available for ingest.
type Source interface {
	Messages(ctx context.Context) ([]Message, error)
}

// Dir is a drop directory holding .eml files and .mbox archives. Mail
// clients and fetchmail-style tools export into it; nothing is deleted.
type Dir struct {
	Path string
}

// NewDir returns a Dir rooted at path.
func NewDir(path string) *Dir {
	return &Dir{Path: path}
}

// Messages parses every message in the directory, files in name order and
// mbox entries in archive order. Messages that fail to parse are skipped and
// reported together in the returned error alongside the parsed ones.
func (d *Dir) Messages(ctx context.Context) ([]Message, error) {
	entries, err := os.ReadDir(d.Path)
	if err != nil {
		return nil, fmt.Errorf("read mail dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var (
		msgs []Message
		errs []error
	)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return msgs, err
		}

		path := filepath.Join(d.Path, name)
		switch strings.ToLower(filepath.Ext(name)) {
		case ".eml":
			msg, err := readEML(path)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				continue
			}
			msgs = append(msgs, msg)
		case ".mbox":
			got, err := readMbox(path)
			msgs = append(msgs, got...)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
			}
		}
	}
	return msgs, errors.Join(errs...)
}

func readEML(path string) (Message, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Message{}, err
	}
	return ParseMessage(raw)
}

// readMbox returns every parsable message in the archive.
func readMbox(path string) ([]Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var (
		msgs []Message
		errs []error
	)
	r := mbox.NewReader(f)
	for i := 0; ; i++ {
		part, err := r.NextMessage()
		if err == io.EOF {
			break
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("message %d: %w", i, err))
			break
		}

		raw, err := io.ReadAll(part)
		if err != nil {
			errs = append(errs, fmt.Errorf("message %d: %w", i, err))
			continue
		}
		msg, err := ParseMessage(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("message %d: %w", i, err))
			continue
		}
		msgs = append(msgs, msg)
	}
	return msgs, errors.Join(errs...)
}
