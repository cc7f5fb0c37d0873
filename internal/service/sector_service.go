package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/repository"
	apperrors "github.com/spec-kit/queue-service/pkg/util/errorutil"
)

const defaultSectorColor = "#6366f1"

var tracer = otel.Tracer("github.com/spec-kit/queue-service/internal/service")

// SectorService manages the sector registry.
type SectorService struct {
	// mu serializes writes to the registry.
	mu      sync.Mutex
	sectors repository.SectorRepository
	logger  *zap.Logger
}

// SectorDependencies bundles requirements for the sector service.
type SectorDependencies struct {
	SectorRepo repository.SectorRepository
	Logger     *zap.Logger
}

// SectorInput describes a new sector.
type SectorInput struct {
	Name             string
	Prefix           string
	Color            string
	IsVisible        bool
	Tags             []string
	AllowedForwardTo []string
	IsReception      bool
	Counters         int
}

// SectorPatch carries the fields to change; nil fields are left untouched.
type SectorPatch struct {
	Name             *string
	Prefix           *string
	Color            *string
	IsVisible        *bool
	Tags             *[]string
	AllowedForwardTo *[]string
	IsReception      *bool
	Counters         *int
}

// NewSectorService constructs the service.
func NewSectorService(deps SectorDependencies) *SectorService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectorService{sectors: deps.SectorRepo, logger: logger}
}

// Add registers a sector under a fresh id.
func (s *SectorService) Add(ctx context.Context, input SectorInput) (*domain.Sector, error) {
	ctx, span := tracer.Start(ctx, "SectorService.Add")
	defer span.End()

	sector := &domain.Sector{
		ID:               uuid.NewString(),
		Name:             strings.TrimSpace(input.Name),
		Prefix:           strings.TrimSpace(input.Prefix),
		Color:            strings.TrimSpace(input.Color),
		IsVisible:        input.IsVisible,
		Tags:             input.Tags,
		AllowedForwardTo: input.AllowedForwardTo,
		IsReception:      input.IsReception,
		Counters:         input.Counters,
	}
	if sector.Color == "" {
		sector.Color = defaultSectorColor
	}
	if err := validateSector(sector); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sectors.Create(ctx, sector); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("sector.id", sector.ID))
	s.logger.Info("sector added", zap.String("sector_id", sector.ID), zap.String("prefix", sector.Prefix))
	return sector, nil
}

// Remove deletes a sector. Tickets issued in it keep the stale id.
func (s *SectorService) Remove(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "SectorService.Remove")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sectors.Delete(ctx, id); err != nil {
		return sectorError(err, id)
	}
	s.logger.Info("sector removed", zap.String("sector_id", id))
	return nil
}

// Update merges patch into the stored sector.
func (s *SectorService) Update(ctx context.Context, id string, patch SectorPatch) (*domain.Sector, error) {
	ctx, span := tracer.Start(ctx, "SectorService.Update")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	sector, err := s.sectors.GetByID(ctx, id)
	if err != nil {
		return nil, sectorError(err, id)
	}
	if patch.Name != nil {
		sector.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Prefix != nil {
		sector.Prefix = strings.TrimSpace(*patch.Prefix)
	}
	if patch.Color != nil {
		sector.Color = strings.TrimSpace(*patch.Color)
	}
	if patch.IsVisible != nil {
		sector.IsVisible = *patch.IsVisible
	}
	if patch.Tags != nil {
		sector.Tags = *patch.Tags
	}
	if patch.AllowedForwardTo != nil {
		sector.AllowedForwardTo = *patch.AllowedForwardTo
	}
	if patch.IsReception != nil {
		sector.IsReception = *patch.IsReception
	}
	if patch.Counters != nil {
		sector.Counters = *patch.Counters
	}
	if err := validateSector(sector); err != nil {
		return nil, err
	}
	if err := s.sectors.Update(ctx, sector); err != nil {
		return nil, sectorError(err, id)
	}
	s.logger.Info("sector updated", zap.String("sector_id", id))
	return sector, nil
}

// Get returns one sector.
func (s *SectorService) Get(ctx context.Context, id string) (*domain.Sector, error) {
	sector, err := s.sectors.GetByID(ctx, id)
	if err != nil {
		return nil, sectorError(err, id)
	}
	return sector, nil
}

// List returns every sector in registration order.
func (s *SectorService) List(ctx context.Context) ([]domain.Sector, error) {
	return s.sectors.List(ctx)
}

// ListVisible returns the sectors offered at the kiosk.
func (s *SectorService) ListVisible(ctx context.Context) ([]domain.Sector, error) {
	all, err := s.sectors.List(ctx)
	if err != nil {
		return nil, err
	}
	visible := make([]domain.Sector, 0, len(all))
	for _, sector := range all {
		if sector.IsVisible {
			visible = append(visible, sector)
		}
	}
	return visible, nil
}

// Seed stores sectors when the registry is empty and reports how many were
// written.
func (s *SectorService) Seed(ctx context.Context, sectors []domain.Sector) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.sectors.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for i := range sectors {
		sector := sectors[i]
		if err := validateSector(&sector); err != nil {
			return i, err
		}
		if err := s.sectors.Create(ctx, &sector); err != nil {
			return i, err
		}
	}
	s.logger.Info("sector registry seeded", zap.Int("count", len(sectors)))
	return len(sectors), nil
}

func validateSector(sector *domain.Sector) error {
	details := map[string]any{}
	if sector.Name == "" {
		details["name"] = "required"
	}
	if sector.Prefix == "" {
		details["prefix"] = "required"
	}
	if sector.Counters < 0 {
		details["counters"] = "must not be negative"
	}
	if sector.IsReception && sector.Counters == 0 {
		details["counters"] = "reception sectors need at least one counter"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid sector", details)
	}
	return nil
}

func sectorError(err error, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("sector", id)
	}
	return err
}
