package lookup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookshelf/internal/isbn"
	"bookshelf/internal/platform/logger"
)

// DefaultSourceTimeout bounds a single source call when Config leaves it unset.
const DefaultSourceTimeout = 8 * time.Second

type Config struct {
	SourceTimeout time.Duration
}

// Service resolves raw ISBN input to one metadata record, consulting the
// cache first and then every configured source in order.
type Service struct {
	cache    CacheStore
	attempts []Attempt
	mirror   CoverMirror
	metrics  *Metrics
	log      *logger.Logger
	cfg      Config
}

// NewService wires the pipeline. mirror and metrics may be nil.
func NewService(cache CacheStore, attempts []Attempt, mirror CoverMirror, metrics *Metrics, log *logger.Logger, cfg Config) *Service {
	if cfg.SourceTimeout <= 0 {
		cfg.SourceTimeout = DefaultSourceTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		cache:    cache,
		attempts: attempts,
		mirror:   mirror,
		metrics:  metrics,
		log:      log.With("service", "lookup"),
		cfg:      cfg,
	}
}

// Lookup returns the resolved metadata for raw. The only errors it returns
// wrap ErrInvalidISBN or ErrMetadataNotFound.
func (s *Service) Lookup(ctx context.Context, raw string) (Metadata, error) {
	isbn13, err := isbn.Normalize(raw)
	if err != nil {
		s.metrics.IncLookup(OutcomeInvalid)
		return Metadata{}, fmt.Errorf("%w: %q", ErrInvalidISBN, raw)
	}
	log := s.log.With("isbn13", isbn13)

	cached, ok, err := s.cache.GetByISBN13(ctx, isbn13)
	switch {
	case err != nil:
		log.Warn("cache read failed, treating as miss", "error", err)
	case ok:
		s.metrics.IncLookup(OutcomeCacheHit)
		return cached, nil
	}

	candidates := s.collect(ctx, isbn13, log)
	best, ok := Pick(isbn13, candidates)
	if !ok {
		s.metrics.IncLookup(OutcomeNotFound)
		log.Info("no source had a record", "attempts", len(s.attempts))
		return Metadata{}, fmt.Errorf("%w: %s", ErrMetadataNotFound, isbn13)
	}
	log.Debug("picked candidate", "source", best.Source, "candidates", len(candidates), "score", Score(best.Candidate))

	best.CoverURL = s.mirrorCover(ctx, isbn13, best.CoverURL, log)

	if err := s.cache.Upsert(ctx, best); err != nil {
		log.Error("cache upsert failed", "error", err)
	}
	s.metrics.IncLookup(OutcomeResolved)
	return best, nil
}

// collect runs every attempt in order and keeps whatever candidates come back.
func (s *Service) collect(ctx context.Context, isbn13 string, log *logger.Logger) []Candidate {
	isbn10, has10 := isbn.To10(isbn13)

	var candidates []Candidate
	for _, a := range s.attempts {
		key := isbn13
		if a.Form == KeyISBN10 {
			if !has10 {
				continue
			}
			key = isbn10
		}

		c, err := s.fetch(ctx, a, key)
		if err != nil {
			var se *SourceError
			if errors.As(err, &se) && se.Timeout() {
				log.Warn("source timed out", "source", a.Source.Name(), "form", a.Form)
			} else {
				log.Warn("source failed", "source", a.Source.Name(), "form", a.Form, "error", err)
			}
			continue
		}
		if c != nil {
			candidates = append(candidates, *c)
		}
	}
	return candidates
}

// fetch calls one source under its own deadline. Panics inside a source are
// reported as source errors too.
func (s *Service) fetch(ctx context.Context, a Attempt, key string) (c *Candidate, err error) {
	name := a.Source.Name()
	ctx, cancel := context.WithTimeout(ctx, s.cfg.SourceTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			c, err = nil, fmt.Errorf("panic: %v", r)
		}
		result := "hit"
		switch {
		case err != nil && errors.Is(err, context.DeadlineExceeded):
			result = "timeout"
		case err != nil:
			result = "error"
		case c == nil:
			result = "miss"
		}
		s.metrics.ObserveAttempt(name, a.Form, result, time.Since(start))
		if err != nil {
			err = &SourceError{Source: name, Form: a.Form, Err: err}
		}
	}()

	c, err = a.Source.FetchByISBN(ctx, key)
	if err == nil && c != nil && c.Source == "" {
		labelled := *c
		labelled.Source = name
		c = &labelled
	}
	return c, err
}

// mirrorCover returns the URL the resolved record should carry.
func (s *Service) mirrorCover(ctx context.Context, isbn13, coverURL string, log *logger.Logger) string {
	if s.mirror == nil || coverURL == "" {
		return coverURL
	}
	if s.mirror.Owns(coverURL) {
		s.metrics.IncMirror("owned")
		return coverURL
	}
	mirrored, err := s.mirror.Mirror(ctx, isbn13, coverURL)
	if err != nil {
		s.metrics.IncMirror("failed")
		log.Warn("cover mirroring failed, keeping source url", "error", err)
		return coverURL
	}
	s.metrics.IncMirror("mirrored")
	return mirrored
}
