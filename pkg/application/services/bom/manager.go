package bom

import (
	"context"
	"fmt"

	"github.com/taechang/production-core/pkg/domain/entities"
	"github.com/taechang/production-core/pkg/domain/repositories"
	"github.com/taechang/production-core/pkg/domain/services"
	"github.com/taechang/production-core/pkg/infrastructure/events"
	"go.uber.org/zap"
)

// Manager maintains BOM edges and keeps the graph acyclic
type Manager struct {
	items     repositories.ItemReader
	boms      repositories.BOMRepository
	cache     ExplosionCache
	validator *services.BOMValidator
	events    events.EventStore
	logger    *zap.Logger
}

// NewManager creates a BOM manager. cache may be nil.
func NewManager(items repositories.ItemReader, boms repositories.BOMRepository, cache ExplosionCache, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		items:     items,
		boms:      boms,
		cache:     cache,
		validator: services.NewBOMValidator(),
		logger:    logger,
	}
}

// SetEventStore publishes edge changes to store. nil disables publishing.
func (m *Manager) SetEventStore(store events.EventStore) {
	m.events = store
}

// AddEdge stores a new edge after checking that both items exist, that the
// pair is not already linked and that the edge does not close a cycle.
func (m *Manager) AddEdge(ctx context.Context, edge *entities.BOMEdge) error {
	if err := edge.Validate(); err != nil {
		return fmt.Errorf("invalid BOM edge: %w", err)
	}
	if _, err := m.items.GetItem(ctx, edge.ParentItemID); err != nil {
		return err
	}
	if _, err := m.items.GetItem(ctx, edge.ChildItemID); err != nil {
		return err
	}

	existing, err := m.boms.GetAllEdges(ctx)
	if err != nil {
		return fmt.Errorf("failed to get BOM edges: %w", err)
	}
	current := make([]entities.BOMEdge, 0, len(existing))
	for _, e := range existing {
		if e.ParentItemID == edge.ParentItemID && e.ChildItemID == edge.ChildItemID {
			return fmt.Errorf("item %d already has component %d (bom id %d)", e.ParentItemID, e.ChildItemID, e.BOMID)
		}
		current = append(current, *e)
	}
	if path, cyclic := m.validator.WouldCreateCycle(current, edge.ParentItemID, edge.ChildItemID); cyclic {
		return &entities.CircularBOMError{Path: path}
	}

	edge.IsActive = true
	if err := m.boms.SaveEdge(ctx, edge); err != nil {
		return fmt.Errorf("failed to save BOM edge: %w", err)
	}
	m.logger.Info("BOM edge added",
		zap.Int64("bom_id", edge.BOMID),
		zap.Int64("parent_item_id", int64(edge.ParentItemID)),
		zap.Int64("child_item_id", int64(edge.ChildItemID)),
		zap.String("quantity_required", edge.QuantityRequired.String()),
	)
	m.Invalidate(ctx)
	m.publish(events.NewBOMEdgeEvent(events.BOMEdgeAddedEvent, *edge))
	return nil
}

// DeactivateEdge soft-deletes an edge
func (m *Manager) DeactivateEdge(ctx context.Context, bomID int64) error {
	edge := entities.BOMEdge{BOMID: bomID}
	if all, err := m.boms.GetAllEdges(ctx); err == nil {
		for _, e := range all {
			if e.BOMID == bomID {
				edge = *e
				break
			}
		}
	}

	if err := m.boms.DeactivateEdge(ctx, bomID); err != nil {
		return err
	}
	edge.IsActive = false
	m.logger.Info("BOM edge deactivated", zap.Int64("bom_id", bomID))
	m.Invalidate(ctx)
	m.publish(events.NewBOMEdgeEvent(events.BOMEdgeDeactivatedEvent, edge))
	return nil
}

// Audit validates the whole active edge set, reporting cycles and duplicate pairs
// that may have been loaded around the manager.
func (m *Manager) Audit(ctx context.Context) (*services.ValidationResult, error) {
	edges, err := m.boms.GetAllEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get BOM edges: %w", err)
	}
	values := make([]entities.BOMEdge, 0, len(edges))
	for _, e := range edges {
		values = append(values, *e)
	}
	return m.validator.ValidateBOM(values), nil
}

// Invalidate drops every cached explosion. Call it after bulk writes that
// bypass the manager, such as a CSV import.
func (m *Manager) Invalidate(ctx context.Context) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Purge(ctx); err != nil {
		m.logger.Warn("explosion cache purge failed", zap.Error(err))
	}
}

func (m *Manager) publish(event events.Event) {
	if m.events == nil {
		return
	}
	if err := m.events.AppendEvent(event.StreamID(), event); err != nil {
		m.logger.Error("failed to append event", zap.String("event_type", event.Type()), zap.Error(err))
	}
}
