package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vanledger/vanledger-api/internal/models"
	"github.com/vanledger/vanledger-api/internal/repository"
)

// ingestTxnRepo mimics the idempotent insert: a second row with the same ID is
// a duplicate, whatever its payload.
type ingestTxnRepo struct {
	repository.TransactionRepository
	latest  *time.Time
	created []models.Transaction
	ids     map[string]bool
}

func (m *ingestTxnRepo) LatestSyncedAt(ctx context.Context) (*time.Time, error) {
	return m.latest, nil
}

func (m *ingestTxnRepo) CreateIdempotent(ctx context.Context, txn *models.Transaction) error {
	if m.ids == nil {
		m.ids = map[string]bool{}
	}
	if m.ids[txn.ID] {
		return repository.ErrDuplicateTransaction
	}
	m.ids[txn.ID] = true
	m.created = append(m.created, *txn)
	return nil
}

func newIngestService(repo *ingestTxnRepo) *TransactionService {
	return NewTransactionService(nil, repo, nil)
}

func TestPost_AssignsStrictlyIncreasingSyncedAt(t *testing.T) {
	repo := &ingestTxnRepo{}
	svc := newIngestService(repo)

	for i := 0; i < 100; i++ {
		err := svc.Post(context.Background(), &models.Transaction{
			Type:         models.TxnInvoiceSale,
			Total:        10,
			BusinessDate: time.Now(),
		})
		require.NoError(t, err)
	}

	require.Len(t, repo.created, 100)
	for i := 1; i < len(repo.created); i++ {
		assert.True(t, repo.created[i].SyncedAt.After(repo.created[i-1].SyncedAt),
			"arrival timestamps must be strictly increasing (row %d)", i)
	}
}

func TestPost_SeedsClockFromStoredRows(t *testing.T) {
	// The newest stored arrival time is ahead of the wall clock, as after a
	// clock step-back across a restart. New rows must still sort after it.
	future := time.Now().Add(time.Hour)
	repo := &ingestTxnRepo{latest: &future}
	svc := newIngestService(repo)

	err := svc.Post(context.Background(), &models.Transaction{
		Type:         models.TxnReceipt,
		Total:        5,
		BusinessDate: time.Now(),
	})

	require.NoError(t, err)
	assert.True(t, repo.created[0].SyncedAt.After(future))
}

func TestPost_ReplayReturnsDuplicate(t *testing.T) {
	repo := &ingestTxnRepo{}
	svc := newIngestService(repo)

	first := models.Transaction{ID: "client-id-1", Type: models.TxnInvoiceSale, Total: 100, BusinessDate: time.Now()}
	require.NoError(t, svc.Post(context.Background(), &first))

	replay := models.Transaction{ID: "client-id-1", Type: models.TxnInvoiceSale, Total: 100, BusinessDate: time.Now()}
	err := svc.Post(context.Background(), &replay)

	assert.Equal(t, ErrDuplicate, err)
	assert.Len(t, repo.created, 1, "stored row must be left untouched")
}

func TestPost_RejectsUnknownType(t *testing.T) {
	svc := newIngestService(&ingestTxnRepo{})

	err := svc.Post(context.Background(), &models.Transaction{
		Type:         "WIRE_TRANSFER",
		Total:        100,
		BusinessDate: time.Now(),
	})

	assert.Error(t, err)
}

func TestPost_RequiresBusinessDate(t *testing.T) {
	svc := newIngestService(&ingestTxnRepo{})

	err := svc.Post(context.Background(), &models.Transaction{
		Type:  models.TxnInvoiceSale,
		Total: 100,
	})

	assert.Error(t, err)
}

func TestPost_GeneratesIDWhenMissing(t *testing.T) {
	repo := &ingestTxnRepo{}
	svc := newIngestService(repo)

	txn := models.Transaction{Type: models.TxnPayment, Total: 50, BusinessDate: time.Now()}
	require.NoError(t, svc.Post(context.Background(), &txn))

	assert.NotEmpty(t, txn.ID)
	assert.Equal(t, models.TransactionStatusPosted, txn.Status)
}

func TestPost_KeepsClientBusinessDate(t *testing.T) {
	repo := &ingestTxnRepo{}
	svc := newIngestService(repo)

	backdated := time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC)
	txn := models.Transaction{Type: models.TxnInvoiceSale, Total: 100, BusinessDate: backdated}
	require.NoError(t, svc.Post(context.Background(), &txn))

	assert.Equal(t, backdated, repo.created[0].BusinessDate)
	assert.True(t, repo.created[0].SyncedAt.After(backdated))
}

func TestSync_PerItemOutcomes(t *testing.T) {
	repo := &ingestTxnRepo{}
	svc := newIngestService(repo)

	batch := []models.Transaction{
		{ID: "a", Type: models.TxnInvoiceSale, Total: 100, BusinessDate: time.Now()},
		{ID: "a", Type: models.TxnInvoiceSale, Total: 100, BusinessDate: time.Now()}, // retry of the first
		{ID: "b", Type: "NOT_A_TYPE", Total: 1, BusinessDate: time.Now()},
		{ID: "c", Type: models.TxnReceipt, Total: 30, BusinessDate: time.Now()},
	}

	outcomes := svc.Sync(context.Background(), batch)

	require.Len(t, outcomes, 4)
	assert.Equal(t, "accepted", outcomes[0].Status)
	assert.Equal(t, "duplicate", outcomes[1].Status)
	assert.Equal(t, "rejected", outcomes[2].Status)
	assert.NotEmpty(t, outcomes[2].Error)
	assert.Equal(t, "accepted", outcomes[3].Status)
	assert.Len(t, repo.created, 2)
}
