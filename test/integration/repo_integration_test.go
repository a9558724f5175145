package integration

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/ozlabs/forge/internal/models"
	"github.com/ozlabs/forge/internal/storage/postgres"
)

func cleanTables(t *testing.T) {
	t.Helper()
	db := connect(t)
	require.NoError(t, db.Exec("TRUNCATE jobs, credit_ledger_entries").Error)
}

func TestJobLifecycle_Postgres(t *testing.T) {
	cleanTables(t)
	db := connect(t)
	repo := postgres.NewJobRepository(db)
	ctx := context.Background()

	j := &models.Job{
		UserID:          "user-1",
		Type:            "logo",
		InputData:       datatypes.JSON(`{"business_name":"Acme"}`),
		Status:          "pending",
		CreditsReserved: 10,
	}
	require.NoError(t, repo.Create(ctx, j))
	require.NotEmpty(t, j.ID)

	claimed, err := repo.ClaimNext(ctx)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, j.ID, claimed.ID)
	assert.Equal(t, "processing", claimed.Status)

	require.NoError(t, repo.UpdateProgress(ctx, j.ID, 40))
	require.NoError(t, repo.MarkCompleted(ctx, j.ID, datatypes.JSON(`{"image_url":"x"}`), 10))

	final, err := repo.Get(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", final.Status)
	assert.Equal(t, 100, final.Progress)
	assert.Equal(t, 10, final.CreditsCharged)
}

func TestClaimNext_NoDoubleClaim(t *testing.T) {
	cleanTables(t)
	db := connect(t)
	repo := postgres.NewJobRepository(db)
	ctx := context.Background()

	const jobs = 5
	for i := 0; i < jobs; i++ {
		require.NoError(t, repo.Create(ctx, &models.Job{
			UserID: "user-1",
			Type:   "generic",
			Status: "pending",
		}))
	}

	var mu sync.Mutex
	seen := map[string]int{}
	var wg sync.WaitGroup

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				claimed, err := repo.ClaimNext(ctx)
				if err != nil || claimed == nil {
					return
				}
				mu.Lock()
				seen[claimed.ID]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, jobs)
	for id, count := range seen {
		assert.Equal(t, 1, count, "job %s claimed more than once", id)
	}
}

func TestLedgerAppend_ConcurrentBalancesConsistent(t *testing.T) {
	cleanTables(t)
	db := connect(t)
	repo := postgres.NewLedgerRepository(db)
	ctx := context.Background()

	const appends = 20
	var wg sync.WaitGroup
	for i := 0; i < appends; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Append(ctx, "user-1", 5, "grant", "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	balance, err := repo.Balance(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, appends*5, balance)

	entries, err := repo.ListByUser(ctx, "user-1", 100)
	require.NoError(t, err)
	require.Len(t, entries, appends)

	sum := 0
	for _, e := range entries {
		sum += e.Amount
	}
	assert.Equal(t, entries[0].BalanceAfter, sum, "newest balance_after must equal the sum of all amounts")
}
