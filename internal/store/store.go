package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/brogergvhs/noveld/internal/novel"
)

const (
	indexFile = "novels.json"
	novelsDir = "novels"
)

// Store persists the catalog index and per-novel datasets as indented
// JSON under a single data directory. Every save rewrites the whole
// document, so a file on disk is always a complete snapshot.
type Store struct {
	dataDir string
}

func New(dataDir string) *Store {
	return &Store{dataDir: dataDir}
}

func (s *Store) Init() error {
	if err := os.MkdirAll(filepath.Join(s.dataDir, novelsDir), 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	return nil
}

func (s *Store) IndexPath() string {
	return filepath.Join(s.dataDir, indexFile)
}

func (s *Store) DatasetPath(slug string) string {
	return filepath.Join(s.dataDir, novelsDir, slug+".json")
}

// LoadIndex returns nil without error when no index exists yet.
func (s *Store) LoadIndex() (novel.Index, error) {
	b, err := os.ReadFile(s.IndexPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var ix novel.Index
	if err := json.Unmarshal(b, &ix); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.IndexPath(), err)
	}

	return ix, nil
}

func (s *Store) SaveIndex(ix novel.Index) error {
	if ix == nil {
		ix = novel.Index{}
	}

	return writeJSON(s.IndexPath(), ix)
}

// LoadDataset returns nil without error when the novel has no file yet.
func (s *Store) LoadDataset(slug string) (*novel.Dataset, error) {
	b, err := os.ReadFile(s.DatasetPath(slug))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var ds novel.Dataset
	if err := json.Unmarshal(b, &ds); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.DatasetPath(slug), err)
	}

	return &ds, nil
}

func (s *Store) SaveDataset(ds *novel.Dataset) error {
	doc := *ds
	if doc.Chapters == nil {
		doc.Chapters = []novel.Chapter{}
	}

	return writeJSON(s.DatasetPath(doc.Metadata.NovelSlug), &doc)
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, b, 0644)
}
