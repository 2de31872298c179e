package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/vanledger/vanledger-api/internal/models"
)

// SettlementFSM wraps a settlement with its state machine
type SettlementFSM struct {
	settlement *models.Settlement
	fsm        *fsm.FSM
}

// NewSettlementFSM creates a new settlement state machine
func NewSettlementFSM(settlement *models.Settlement) *SettlementFSM {
	sfsm := &SettlementFSM{
		settlement: settlement,
	}

	sfsm.fsm = fsm.NewFSM(
		settlement.Status,
		fsm.Events{
			// DRAFT → SUBMITTED
			{Name: "submit", Src: []string{models.SettlementStatusDraft}, Dst: models.SettlementStatusSubmitted},

			// DRAFT/SUBMITTED → APPROVED (terminal for aggregates: they freeze)
			{Name: "approve", Src: []string{models.SettlementStatusDraft, models.SettlementStatusSubmitted}, Dst: models.SettlementStatusApproved},

			// SUBMITTED → DISPUTED
			{Name: "dispute", Src: []string{models.SettlementStatusSubmitted}, Dst: models.SettlementStatusDisputed},

			// DISPUTED → DRAFT (back to editable, recomputable state)
			{Name: "reopen", Src: []string{models.SettlementStatusDisputed}, Dst: models.SettlementStatusDraft},
		},
		fsm.Callbacks{},
	)

	return sfsm
}

// Submit transitions the settlement to SUBMITTED
func (s *SettlementFSM) Submit(ctx context.Context) error {
	if !s.settlement.MaySubmit() {
		return fmt.Errorf("settlement cannot be submitted in current state: %s", s.settlement.Status)
	}

	if err := s.fsm.Event(ctx, "submit"); err != nil {
		return fmt.Errorf("failed to submit settlement: %w", err)
	}

	s.settlement.Status = s.fsm.Current()
	return nil
}

// Approve transitions the settlement to APPROVED
func (s *SettlementFSM) Approve(ctx context.Context) error {
	if !s.settlement.MayApprove() {
		return fmt.Errorf("settlement cannot be approved in current state: %s", s.settlement.Status)
	}

	if err := s.fsm.Event(ctx, "approve"); err != nil {
		return fmt.Errorf("failed to approve settlement: %w", err)
	}

	s.settlement.Status = s.fsm.Current()
	return nil
}

// Dispute transitions the settlement to DISPUTED
func (s *SettlementFSM) Dispute(ctx context.Context) error {
	if !s.settlement.MayDispute() {
		return fmt.Errorf("settlement cannot be disputed in current state: %s", s.settlement.Status)
	}

	if err := s.fsm.Event(ctx, "dispute"); err != nil {
		return fmt.Errorf("failed to dispute settlement: %w", err)
	}

	s.settlement.Status = s.fsm.Current()
	return nil
}

// Reopen transitions a disputed settlement back to DRAFT
func (s *SettlementFSM) Reopen(ctx context.Context) error {
	if !s.settlement.MayReopen() {
		return fmt.Errorf("settlement cannot be reopened in current state: %s", s.settlement.Status)
	}

	if err := s.fsm.Event(ctx, "reopen"); err != nil {
		return fmt.Errorf("failed to reopen settlement: %w", err)
	}

	s.settlement.Status = s.fsm.Current()
	return nil
}

// Current returns the current state
func (s *SettlementFSM) Current() string {
	return s.fsm.Current()
}

// Can checks if a transition is possible
func (s *SettlementFSM) Can(event string) bool {
	return s.fsm.Can(event)
}
