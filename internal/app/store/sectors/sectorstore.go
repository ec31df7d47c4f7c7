// internal/app/store/sectors/sectorstore.go
package sectorstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dalemusser/folioadmin/internal/app/backend"
	"github.com/dalemusser/folioadmin/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/jonboulle/clockwork"
)

var (
	// ErrDuplicateID is returned by Create when the sector id is taken.
	ErrDuplicateID = errors.New("a sector with this id already exists")
	// ErrMissingID is returned when a sector has no id.
	ErrMissingID = errors.New("sector id is required")
	ErrNotFound  = errors.New("sector not found")
)

var table = models.KindSector.Table()

type Store struct {
	be    backend.Backend
	clock clockwork.Clock
}

func New(be backend.Backend) *Store {
	return &Store{be: be, clock: clockwork.NewRealClock()}
}

// NewWithClock is New with an explicit clock for timestamps.
func NewWithClock(be backend.Backend, clock clockwork.Clock) *Store {
	return &Store{be: be, clock: clock}
}

// List returns every sector ordered by title (case-insensitive).
func (s *Store) List(ctx context.Context) ([]models.Sector, error) {
	rows, err := s.be.Select(ctx, table, backend.Query{OrderBy: "title"})
	if err != nil {
		return nil, err
	}
	out, err := backend.DecodeRows[models.Sector](rows)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return text.Fold(out[i].Title) < text.Fold(out[j].Title)
	})
	return out, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (models.Sector, error) {
	row, err := s.be.Get(ctx, table, id)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return models.Sector{}, ErrNotFound
		}
		return models.Sector{}, err
	}
	var sec models.Sector
	if err := backend.Decode(row, &sec); err != nil {
		return models.Sector{}, err
	}
	return sec, nil
}

// Create inserts sec with CreatedAt set to now.
func (s *Store) Create(ctx context.Context, sec models.Sector) (models.Sector, error) {
	sec.ID = strings.TrimSpace(sec.ID)
	if sec.ID == "" {
		return models.Sector{}, ErrMissingID
	}
	sec.CreatedAt = s.clock.Now().UTC()
	sec.UpdatedAt = nil

	row := toRow(sec)
	row["id"] = sec.ID
	row["created_at"] = sec.CreatedAt

	if err := s.be.Insert(ctx, table, row); err != nil {
		if backend.IsUniqueViolation(err) {
			return models.Sector{}, ErrDuplicateID
		}
		return models.Sector{}, fmt.Errorf("insert sector %q: %w", sec.ID, err)
	}
	return sec, nil
}

// Update replaces the editable fields of the sector with the given id
// and sets UpdatedAt. The id itself is never changed.
func (s *Store) Update(ctx context.Context, id string, sec models.Sector) error {
	if id == "" {
		return ErrMissingID
	}
	row := toRow(sec)
	row["updated_at"] = s.clock.Now().UTC()

	if err := s.be.Update(ctx, table, id, row); err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("update sector %q: %w", id, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.be.Delete(ctx, table, id); err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete sector %q: %w", id, err)
	}
	return nil
}

// toRow builds the persisted columns. content_modal is always written as
// a whole nested document.
func toRow(sec models.Sector) backend.Row {
	services := sec.Services
	if services == nil {
		services = []string{}
	}
	return backend.Row{
		"title":       sec.Title,
		"description": sec.Description,
		"services":    services,
		"icon":        sec.Icon,
		"image":       sec.Image,
		"content_modal": map[string]any{
			"hero_title":    sec.Content.HeroTitle,
			"hero_subtitle": sec.Content.HeroSubtitle,
			"description":   sec.Content.Description,
			"highlights":    nonNil(sec.Content.Highlights),
			"tech_stack":    nonNil(sec.Content.TechStack),
			"case_study": map[string]any{
				"title":   sec.Content.CaseStudy.Title,
				"results": sec.Content.CaseStudy.Results,
			},
			"cta_text": sec.Content.CTAText,
		},
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Touched returns when the sector was last written.
func Touched(sec models.Sector) time.Time {
	if sec.UpdatedAt != nil {
		return *sec.UpdatedAt
	}
	return sec.CreatedAt
}
