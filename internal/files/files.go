/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const workingSuffix = ".tmp"

// Sink is the durable home of a feed document. Fragments are appended to a working
// file that survives process restarts; Publish atomically renames it into place.
type Sink struct {
	dir      string
	fileName string
}

// NewSink creates a sink writing into dir. The directory is created when missing.
//
// Parameters:
// - dir string: The directory holding working and published files.
// - fileName string: The published file name, for example "ym-export.yml".
//
// Returns:
// - *Sink: The sink.
// - error: An error if the directory cannot be created.
func NewSink(dir, fileName string) (*Sink, error) {
	if fileName == "" {
		return nil, errors.New("file name is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating export directory: %w", err)
	}
	return &Sink{dir: dir, fileName: fileName}, nil
}

// WorkingPath is the path of the in-progress document.
func (s *Sink) WorkingPath() string {
	return filepath.Join(s.dir, s.fileName+workingSuffix)
}

// PublishedPath is the path a finished document is renamed to. A non-zero date
// produces a dated name such as "ym-export-2024-05-01.yml".
func (s *Sink) PublishedPath(date time.Time) string {
	if date.IsZero() {
		return filepath.Join(s.dir, s.fileName)
	}
	ext := filepath.Ext(s.fileName)
	base := strings.TrimSuffix(s.fileName, ext)
	return filepath.Join(s.dir, fmt.Sprintf("%s-%s%s", base, date.Format("2006-01-02"), ext))
}

// Append writes data to the working file, creating it if needed. With truncate set
// any stale content is dropped first.
//
// Returns:
// - string: The working file path.
// - error: An error if the write or sync fails.
func (s *Sink) Append(data []byte, truncate bool) (string, error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if truncate {
		flags |= os.O_TRUNC
	}

	path := s.WorkingPath()
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return "", fmt.Errorf("error opening export file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("error writing export file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("error syncing export file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("error closing export file: %w", err)
	}
	return path, nil
}

// Publish renames the working file to its published name.
func (s *Sink) Publish(date time.Time) (string, error) {
	target := s.PublishedPath(date)
	if err := os.Rename(s.WorkingPath(), target); err != nil {
		return "", fmt.Errorf("error publishing export file: %w", err)
	}
	return target, nil
}

// ErrShortFile is returned by Rewind when the working file holds less than the
// requested length.
var ErrShortFile = errors.New("export file is shorter than the saved progress")

// Size returns the length of the working file.
func (s *Sink) Size() (int64, error) {
	info, err := os.Stat(s.WorkingPath())
	if err != nil {
		return 0, fmt.Errorf("error reading export file: %w", err)
	}
	return info.Size(), nil
}

// Rewind cuts the working file back to size, dropping anything written after it.
func (s *Sink) Rewind(size int64) error {
	current, err := s.Size()
	if err != nil {
		return err
	}
	if current < size {
		return fmt.Errorf("%w: %d < %d", ErrShortFile, current, size)
	}
	if current == size {
		return nil
	}
	if err := os.Truncate(s.WorkingPath(), size); err != nil {
		return fmt.Errorf("error truncating export file: %w", err)
	}
	return nil
}

// Discard removes the working file. A missing file is not an error.
func (s *Sink) Discard() error {
	err := os.Remove(s.WorkingPath())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error removing export file: %w", err)
	}
	return nil
}

// Latest returns the most recently published document, dated or not.
func (s *Sink) Latest() (string, error) {
	ext := filepath.Ext(s.fileName)
	base := strings.TrimSuffix(s.fileName, ext)
	matches, err := filepath.Glob(filepath.Join(s.dir, base+"*"+ext))
	if err != nil {
		return "", err
	}

	var latest string
	var latestMod time.Time
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		if latest == "" || info.ModTime().After(latestMod) {
			latest, latestMod = m, info.ModTime()
		}
	}
	if latest == "" {
		return "", os.ErrNotExist
	}
	return latest, nil
}
