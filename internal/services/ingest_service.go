// Package services orchestrates ingestion: parse an upload, store the ledger
// and notify other instances.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"balancete/internal/core"
	"balancete/internal/events"
	"balancete/internal/ingest"
	"balancete/internal/ledgers"
	"balancete/internal/log"
)

const defaultCompany = "Empresa Administradora"

var ErrEmptyUpload = errors.New("empty upload")

// IngestRequest carries an upload. An empty EntityID registers a new entity;
// otherwise the entity's ledger is replaced. Empty Name, Company and Period
// keep the current values, or the defaults for a new entity.
type IngestRequest struct {
	EntityID string
	Name     string
	Company  string
	Period   string
	FileName string
	Content  []byte
}

type IngestService struct {
	repo      ledgers.Repository
	parser    ingest.SpreadsheetParser
	publisher events.Publisher
	now       func() time.Time
	newID     func() string
}

func NewIngestService(repo ledgers.Repository, parser ingest.SpreadsheetParser, publisher events.Publisher) *IngestService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &IngestService{
		repo:      repo,
		parser:    parser,
		publisher: publisher,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Ingest parses the upload, validates the ledger and replaces the stored one.
// A failed publish is logged and does not fail the ingestion.
func (s *IngestService) Ingest(ctx context.Context, req IngestRequest) (core.Entity, core.Ledger, error) {
	if len(req.Content) == 0 {
		return core.Entity{}, core.Ledger{}, ErrEmptyUpload
	}
	if len(req.Content) > ingest.MaxUploadBytes {
		return core.Entity{}, core.Ledger{}, ingest.ErrFileTooLarge
	}

	entity, err := s.resolveEntity(ctx, req)
	if err != nil {
		return core.Entity{}, core.Ledger{}, err
	}

	l, err := s.parser.Parse(ctx, ingest.Upload{
		FileName:   req.FileName,
		EntityID:   entity.ID,
		EntityName: entity.Name,
		Content:    req.Content,
	})
	if err != nil {
		return core.Entity{}, core.Ledger{}, fmt.Errorf("parse %s: %w", req.FileName, err)
	}
	l.EntityID, l.Name = entity.ID, entity.Name
	if err := l.Validate(); err != nil {
		return core.Entity{}, core.Ledger{}, fmt.Errorf("validate ledger: %w", err)
	}

	if err := s.repo.SaveLedger(ctx, entity, l); err != nil {
		return core.Entity{}, core.Ledger{}, fmt.Errorf("save ledger: %w", err)
	}

	slog.DebugContext(ctx, "Ledger stored",
		log.FieldEntityID, entity.ID,
		log.FieldEntityName, entity.Name,
		log.FieldFileName, req.FileName,
		log.FieldFileSize, len(req.Content),
		log.FieldCategoryCount, l.Receitas.SeriesCount()+l.Despesas.SeriesCount())

	s.publish(ctx, events.LedgerIngested, entity.ID)
	return entity, l, nil
}

func (s *IngestService) resolveEntity(ctx context.Context, req IngestRequest) (core.Entity, error) {
	if req.EntityID != "" {
		e, err := s.repo.FetchEntity(ctx, req.EntityID)
		if err != nil {
			return core.Entity{}, fmt.Errorf("fetch entity %s: %w", req.EntityID, err)
		}
		e.Name = firstNonEmpty(req.Name, e.Name)
		e.Company = firstNonEmpty(req.Company, e.Company)
		e.Period = firstNonEmpty(req.Period, e.Period)
		return e, nil
	}

	existing, err := s.repo.ListEntities(ctx)
	if err != nil {
		return core.Entity{}, fmt.Errorf("list entities: %w", err)
	}
	now := s.now()
	e := core.Entity{
		ID:        s.newID(),
		Name:      firstNonEmpty(req.Name, fmt.Sprintf("Cliente %d", len(existing)+1)),
		Company:   firstNonEmpty(req.Company, defaultCompany),
		Period:    firstNonEmpty(req.Period, fmt.Sprintf("Janeiro a Dezembro %d", now.Year())),
		CreatedAt: now.UTC(),
	}
	return e, e.Validate()
}

// Delete removes the entity and its ledger.
func (s *IngestService) Delete(ctx context.Context, entityID string) error {
	if err := s.repo.DeleteEntity(ctx, entityID); err != nil {
		return fmt.Errorf("delete entity %s: %w", entityID, err)
	}
	slog.InfoContext(ctx, "Entity deleted", log.FieldEntityID, entityID)
	s.publish(ctx, events.EntityDeleted, entityID)
	return nil
}

func (s *IngestService) publish(ctx context.Context, t events.EventType, entityID string) {
	if err := s.publisher.Publish(ctx, events.NewLedgerEvent(t, entityID, s.now())); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			log.FieldEventType, t,
			log.FieldEntityID, entityID,
			"error", err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
