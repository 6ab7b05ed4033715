package core_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightops/internal/core"
)

func TestDocumentService_ConcurrentNumbering(t *testing.T) {
	pool := setupTestDB(t) // Skips if TEST_DATABASE_URL is not set
	defer pool.Close()

	docService := core.NewDocumentService(pool)
	ctx := context.Background()
	date := day("2026-03-01")

	const n = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = make(map[string]bool, n)
	)
	errCh := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			num, err := docService.NextNumber(ctx, 1, core.PrefixInvoice, date)
			if err != nil {
				errCh <- err
				return
			}
			mu.Lock()
			numbers[num] = true
			mu.Unlock()
		}()
	}

	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Errorf("concurrent numbering error: %v", err)
	}

	assert.Len(t, numbers, n, "every caller must receive a distinct number")
	assert.True(t, numbers["INV-DXB-2026-00001"])
	assert.True(t, numbers["INV-DXB-2026-00010"])

	var last int64
	err := pool.QueryRow(ctx, `
		SELECT last_number FROM document_sequences
		WHERE office_id = 1 AND prefix = $1 AND financial_year = 2026`, core.PrefixInvoice).Scan(&last)
	require.NoError(t, err)
	assert.Equal(t, int64(n), last)
}

func TestDocumentService_RolledBackNumberIsReused(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	docService := core.NewDocumentService(pool)
	ctx := context.Background()
	date := day("2026-03-01")

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	num, err := docService.NextNumberTx(ctx, tx, 1, core.PrefixReceipt, date)
	require.NoError(t, err)
	assert.Equal(t, "RCT-DXB-2026-00001", num)
	require.NoError(t, tx.Rollback(ctx))

	num, err = docService.NextNumber(ctx, 1, core.PrefixReceipt, date)
	require.NoError(t, err)
	assert.Equal(t, "RCT-DXB-2026-00001", num, "a number taken by a rolled-back document is not consumed")
}

func TestDocumentService_UnknownOffice(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	_, err := core.NewDocumentService(pool).NextNumber(context.Background(), 99, core.PrefixJob, day("2026-03-01"))
	assert.True(t, core.IsKind(err, core.KindNotFound))
}
