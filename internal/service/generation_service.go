package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"imagecompare/internal/catalog"
	"imagecompare/internal/models"
	"imagecompare/internal/repository"
	"imagecompare/internal/reqctx"
)

// maxIDAttempts bounds the identifier collision loop. A v4 collision is
// astronomically unlikely, so hitting the bound means the generator is broken.
const maxIDAttempts = 16

type GenerationService struct {
	source      catalog.Source
	comparisons ComparisonStore
	newID       func() uuid.UUID
	log         zerolog.Logger
}

func NewGenerationService(source catalog.Source, comparisons ComparisonStore, log zerolog.Logger) *GenerationService {
	return &GenerationService{
		source:      source,
		comparisons: comparisons,
		newID:       uuid.New,
		log:         log,
	}
}

// CategoryResult reports the comparisons written for one category.
type CategoryResult struct {
	Dirname     string
	Comparisons []models.Comparison
}

// GenerateAll scans the catalog and stores every comparison it implies.
//
// Categories are processed in sorted order and nothing is rolled back: on
// error the comparisons stored before the failure are returned alongside it.
func (s *GenerationService) GenerateAll(ctx context.Context, actor int64) ([]models.Comparison, error) {
	return s.GenerateAllReporting(ctx, actor, nil)
}

// GenerateAllReporting is GenerateAll with a callback invoked after each
// category completes.
func (s *GenerationService) GenerateAllReporting(ctx context.Context, actor int64, onCategory func(CategoryResult)) ([]models.Comparison, error) {
	log := s.log.With().
		Str("request_id", reqctx.RequestID(ctx)).
		Int64("admin_id", actor).
		Logger()

	refs, err := s.source.Scan(ctx)
	if err != nil {
		return nil, &FileSystemError{Err: err}
	}

	groups := catalog.GroupByCategory(refs)
	var all []models.Comparison
	for _, dirname := range catalog.SortedCategories(groups) {
		files := groups[dirname]
		if len(files) < 2 {
			log.Warn().Str("dirname", dirname).Int("files", len(files)).Msg("category has too few files")
			return all, &InsufficientFilesError{Dirname: dirname, Count: len(files)}
		}

		window := catalog.WindowFor(dirname)
		pairs := catalog.GeneratePairs(files, window)

		stored := make([]models.Comparison, 0, len(pairs))
		for _, pair := range pairs {
			c, err := s.InsertComparison(ctx, dirname, [2]string{pair.A, pair.B}, actor)
			if err != nil {
				all = append(all, stored...)
				return all, fmt.Errorf("store comparison in %q: %w", dirname, err)
			}
			stored = append(stored, c)
		}
		all = append(all, stored...)

		log.Info().
			Str("dirname", dirname).
			Int("files", len(files)).
			Int("window", window).
			Int("comparisons", len(stored)).
			Msg("category generated")

		if onCategory != nil {
			onCategory(CategoryResult{Dirname: dirname, Comparisons: stored})
		}
	}

	return all, nil
}

// InsertComparison allocates a fresh identifier and stores the comparison.
// When an identical comparison is already stored it is returned unchanged.
func (s *GenerationService) InsertComparison(ctx context.Context, dirname string, images [2]string, actor int64) (models.Comparison, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := s.newID()

		taken, err := s.comparisons.Exists(ctx, id)
		if err != nil {
			return models.Comparison{}, err
		}
		if taken {
			s.log.Debug().Stringer("id", id).Msg("comparison id collision, retrying")
			continue
		}

		c, _, err := s.comparisons.InsertIfAbsent(ctx, models.Comparison{
			ID:        id,
			Dirname:   dirname,
			Images:    images,
			CreatedBy: actor,
		})
		if errors.Is(err, repository.ErrIDTaken) {
			s.log.Debug().Stringer("id", id).Msg("comparison id claimed concurrently, retrying")
			continue
		}
		if err != nil {
			return models.Comparison{}, err
		}
		return c, nil
	}
	return models.Comparison{}, ErrIDSpaceExhausted
}
