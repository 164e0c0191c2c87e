package filestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/platewise/reviewpipe/internal/domain"
)

// Default stage file names inside the data directory
const (
	DefaultRawFile     = "raw_reviews.json"
	DefaultMatchedFile = "matched_reviews.json"
	DefaultOutputFile  = "generated_reviews.sql"
)

const filePerm = 0o644

// Paths names the stage files; empty names use the defaults
type Paths struct {
	RawFile     string
	MatchedFile string
	OutputFile  string
}

// Store keeps stage artifacts as files in one data directory
type Store struct {
	dir   string
	paths Paths
}

// New creates the data directory if needed and returns a store rooted at it
func New(dir string, paths Paths) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: pipeline.data_dir is empty", domain.ErrInvalidConfig)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	if paths.RawFile == "" {
		paths.RawFile = DefaultRawFile
	}
	if paths.MatchedFile == "" {
		paths.MatchedFile = DefaultMatchedFile
	}
	if paths.OutputFile == "" {
		paths.OutputFile = DefaultOutputFile
	}
	return &Store{dir: dir, paths: paths}, nil
}

// Dir returns the data directory
func (s *Store) Dir() string { return s.dir }

// RawPath returns the raw review file path
func (s *Store) RawPath() string { return s.path(s.paths.RawFile) }

// MatchedPath returns the matched review file path
func (s *Store) MatchedPath() string { return s.path(s.paths.MatchedFile) }

// OutputPath returns the generated statement file path
func (s *Store) OutputPath() string { return s.path(s.paths.OutputFile) }

func (s *Store) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, name)
}

// ReadRawReviews loads the harvest output
func (s *Store) ReadRawReviews() ([]domain.RawReview, error) {
	var reviews []domain.RawReview
	if err := readJSON(s.RawPath(), &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// WriteRawReviews replaces the harvest output
func (s *Store) WriteRawReviews(reviews []domain.RawReview) error {
	if reviews == nil {
		reviews = []domain.RawReview{}
	}
	return writeJSON(s.RawPath(), reviews)
}

// ReadMatches loads the match output
func (s *Store) ReadMatches() ([]domain.FinalMatch, error) {
	var matches []domain.FinalMatch
	if err := readJSON(s.MatchedPath(), &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

// WriteMatches replaces the match output
func (s *Store) WriteMatches(matches []domain.FinalMatch) error {
	if matches == nil {
		matches = []domain.FinalMatch{}
	}
	return writeJSON(s.MatchedPath(), matches)
}

// WriteStatements replaces the generated statement file
func (s *Store) WriteStatements(sql string) error {
	return WriteFileAtomic(s.OutputPath(), []byte(sql), filePerm)
}

// RawReviewsExist reports whether the harvest output is present
func (s *Store) RawReviewsExist() bool { return fileExists(s.RawPath()) }

// MatchesExist reports whether the match output is present
func (s *Store) MatchesExist() bool { return fileExists(s.MatchedPath()) }

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func readJSON(path string, dst any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", domain.ErrMissingStageInput, path)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return WriteFileAtomic(path, append(data, '\n'), filePerm)
}

// WriteFileAtomic writes to a temp file in the same directory and renames it over path,
// so readers never see a partial file
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".stage-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
