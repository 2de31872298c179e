package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSettlementCutoffTime(t *testing.T) {
	created := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	approved := time.Date(2026, 3, 10, 17, 30, 0, 0, time.UTC)

	s := &Settlement{Status: SettlementStatusSubmitted, CreatedAt: created}
	assert.Equal(t, created, s.CutoffTime(), "unapproved periods cut on creation time")

	s.Status = SettlementStatusApproved
	s.ApprovedAt = &approved
	assert.Equal(t, approved, s.CutoffTime(), "approval time wins once set")
}

func TestSettlementBoundsWindow(t *testing.T) {
	cases := map[string]bool{
		SettlementStatusDraft:     false,
		SettlementStatusSubmitted: true,
		SettlementStatusApproved:  true,
		SettlementStatusDisputed:  false,
	}
	for status, want := range cases {
		s := &Settlement{Status: status}
		assert.Equal(t, want, s.BoundsWindow(), "status %s", status)
	}
}

func TestSettlementIsFrozen(t *testing.T) {
	for _, status := range []string{SettlementStatusDraft, SettlementStatusSubmitted, SettlementStatusDisputed} {
		assert.False(t, (&Settlement{Status: status}).IsFrozen(), "status %s", status)
	}
	assert.True(t, (&Settlement{Status: SettlementStatusApproved}).IsFrozen())
}

func TestSettlementTransitionGuards(t *testing.T) {
	draft := &Settlement{Status: SettlementStatusDraft}
	assert.True(t, draft.MaySubmit())
	assert.True(t, draft.MayApprove())
	assert.True(t, draft.MayDelete())
	assert.False(t, draft.MayDispute())
	assert.False(t, draft.MayReopen())

	submitted := &Settlement{Status: SettlementStatusSubmitted}
	assert.False(t, submitted.MaySubmit())
	assert.True(t, submitted.MayApprove())
	assert.True(t, submitted.MayDispute())
	assert.False(t, submitted.MayDelete())

	approved := &Settlement{Status: SettlementStatusApproved}
	assert.False(t, approved.MayApprove())
	assert.False(t, approved.MayDispute())
	assert.False(t, approved.MayReopen())
	assert.False(t, approved.MayDelete())

	disputed := &Settlement{Status: SettlementStatusDisputed}
	assert.True(t, disputed.MayReopen())
	assert.False(t, disputed.MaySubmit())
	assert.False(t, disputed.MayDelete())
}
