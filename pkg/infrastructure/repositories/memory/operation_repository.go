package memory

import (
	"context"
	"fmt"

	"github.com/taechang/production-core/pkg/domain/entities"
	"github.com/taechang/production-core/pkg/domain/repositories"
)

// GetOperation returns an operation record by id
func (s *Store) GetOperation(_ context.Context, id string) (*entities.OperationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	op, exists := s.operations[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", entities.ErrOperationNotFound, id)
	}
	return op.Clone(), nil
}

// SaveOperation inserts or replaces an operation record
func (s *Store) SaveOperation(_ context.Context, op *entities.OperationRecord) error {
	if op.OperationID == "" {
		return fmt.Errorf("operation id cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putOperationLocked(op)
	return nil
}

func (s *Store) putOperationLocked(op *entities.OperationRecord) {
	if _, exists := s.operations[op.OperationID]; !exists {
		s.opOrder = append(s.opOrder, op.OperationID)
	}
	s.operations[op.OperationID] = op.Clone()
}

// FindOperations returns the records matching every non-zero field of the query, oldest first
func (s *Store) FindOperations(_ context.Context, query repositories.OperationQuery) ([]*entities.OperationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*entities.OperationRecord
	for _, id := range s.opOrder {
		op := s.operations[id]
		if query.InputItemID != 0 && op.InputItemID != query.InputItemID {
			continue
		}
		if query.OutputItemID != 0 && op.OutputItemID != query.OutputItemID {
			continue
		}
		if query.OperationType != "" && op.OperationType != query.OperationType {
			continue
		}
		if query.Status != "" && op.Status != query.Status {
			continue
		}
		result = append(result, op.Clone())
	}
	return result, nil
}

// GetDeductions returns the deduction records of an operation in insertion order
func (s *Store) GetDeductions(_ context.Context, operationID string) ([]*entities.DeductionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*entities.DeductionRecord, 0, len(s.deductions[operationID]))
	for _, record := range s.deductions[operationID] {
		c := *record
		records = append(records, &c)
	}
	return records, nil
}
