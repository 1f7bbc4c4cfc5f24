// Package catalog seeds the topic catalog from a JSON dump.
//
// The dump is one JSON array of {"id", "title", "interest", "difficulty"}
// objects. It is streamed and imported in batches.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wikichallenge/wikichallenge-server/internal/domain/topic"
	"github.com/wikichallenge/wikichallenge-server/pkg/logger"
)

// DefaultBatchSize is the number of entries per Import call.
const DefaultBatchSize = 1000

// ErrInvalidEntry marks a dump entry without a positive id or a title.
var ErrInvalidEntry = errors.New("catalog: invalid entry")

type entry struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Interest   int    `json:"interest"`
	Difficulty int    `json:"difficulty"`
}

func (e entry) topic() (topic.Topic, error) {
	title := strings.TrimSpace(e.Title)
	if e.ID <= 0 || title == "" {
		return topic.Topic{}, fmt.Errorf("%w: id=%d title=%q", ErrInvalidEntry, e.ID, e.Title)
	}
	return topic.Topic{ID: e.ID, Title: title, Interest: e.Interest, Difficulty: e.Difficulty}, nil
}

// Seeder imports catalog dumps into a topic store.
type Seeder struct {
	importer  topic.Importer
	batchSize int
	log       *logger.Logger
}

// NewSeeder creates a seeder. A non-positive batchSize means DefaultBatchSize.
func NewSeeder(importer topic.Importer, batchSize int, log *logger.Logger) *Seeder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Seeder{importer: importer, batchSize: batchSize, log: log.Named("catalog")}
}

// SeedFile imports the dump at path and returns the number of entries.
func (s *Seeder) SeedFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	n, err := s.Seed(ctx, f)
	if err != nil {
		return n, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

// Seed imports the dump read from r. Batches imported before an error stay
// imported.
func (s *Seeder) Seed(ctx context.Context, r io.Reader) (int, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return 0, fmt.Errorf("failed to read catalog: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return 0, fmt.Errorf("%w: catalog must be a JSON array", ErrInvalidEntry)
	}

	total := 0
	batch := make([]topic.Topic, 0, s.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.importer.Import(ctx, batch); err != nil {
			return err
		}
		total += len(batch)
		s.log.Debug("catalog batch imported", logger.Int("entries", len(batch)), logger.Int("total", total))
		batch = batch[:0]
		return nil
	}

	for dec.More() {
		var e entry
		if err := dec.Decode(&e); err != nil {
			return total, fmt.Errorf("failed to decode entry %d: %w", total+len(batch)+1, err)
		}
		t, err := e.topic()
		if err != nil {
			return total, err
		}
		batch = append(batch, t)
		if len(batch) == s.batchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if _, err := dec.Token(); err != nil {
		return total, fmt.Errorf("failed to read catalog: %w", err)
	}
	if err := flush(); err != nil {
		return total, err
	}
	return total, nil
}
