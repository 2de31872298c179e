package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vanledger/vanledger-api/internal/models"
)

func submittedOn(id string, date, created time.Time) models.Settlement {
	return models.Settlement{
		ID: id, VehicleID: "v1",
		Status:         models.SettlementStatusSubmitted,
		SettlementDate: date,
		CreatedAt:      created,
	}
}

func TestPlanMerge_KeepsEarliestAcrossDates(t *testing.T) {
	// Two SUBMITTED rows for the same vehicle on different calendar days
	// still merge; the earlier settlement date survives.
	monday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)
	rows := []models.Settlement{
		submittedOn("s-tue", tuesday, tuesday.Add(20*time.Hour)),
		submittedOn("s-mon", monday, monday.Add(18*time.Hour)),
	}

	plan := planMerge(rows)

	require.NotNil(t, plan)
	assert.Equal(t, "s-mon", plan.canonical.ID)
	require.Len(t, plan.removed, 1)
	assert.Equal(t, "s-tue", plan.removed[0].ID)
	assert.Equal(t, tuesday.Add(20*time.Hour), plan.span, "span reaches the latest duplicate's creation time")
}

func TestPlanMerge_TieBreaksOnCreationTime(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	rows := []models.Settlement{
		submittedOn("later", date, date.Add(12*time.Hour)),
		submittedOn("first", date, date.Add(9*time.Hour)),
		submittedOn("middle", date, date.Add(10*time.Hour)),
	}

	plan := planMerge(rows)

	require.NotNil(t, plan)
	assert.Equal(t, "first", plan.canonical.ID)
	assert.Len(t, plan.removed, 2)
	assert.Equal(t, date.Add(12*time.Hour), plan.span)
}

func TestPlanMerge_OnlySubmittedRowsParticipate(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	approvedAt := date.Add(8 * time.Hour)
	rows := []models.Settlement{
		{
			ID: "frozen", VehicleID: "v1",
			Status:         models.SettlementStatusApproved,
			SettlementDate: date.AddDate(0, 0, -1),
			ApprovedAt:     &approvedAt,
			CreatedAt:      date.Add(7 * time.Hour),
		},
		submittedOn("a", date, date.Add(9*time.Hour)),
		submittedOn("b", date, date.Add(10*time.Hour)),
	}

	plan := planMerge(rows)

	require.NotNil(t, plan)
	assert.Equal(t, "a", plan.canonical.ID)
	for _, removed := range plan.removed {
		assert.NotEqual(t, "frozen", removed.ID, "frozen history is never deleted")
	}
}

func TestPlanMerge_NothingToMerge(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	assert.Nil(t, planMerge(nil))
	assert.Nil(t, planMerge([]models.Settlement{submittedOn("only", date, date)}))
	assert.Nil(t, planMerge([]models.Settlement{
		submittedOn("one", date, date),
		{ID: "draft", Status: models.SettlementStatusDraft, SettlementDate: date, CreatedAt: date},
	}))
}
