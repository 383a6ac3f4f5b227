package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoffee-app/hoffee/app/models"
)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := Open(filepath.Join(t.TempDir(), "orders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestRecordAndRecent(t *testing.T) {
	a := openTestArchive(t)

	require.NoError(t, a.Record(models.OrderHistoryItem{
		ID: "ORD-1289", Date: "12.05.2024", Items: "Капучино M, Круассан",
		Total: 430, Status: models.OrderCompleted,
	}))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, a.Record(models.OrderHistoryItem{
		ID: "ORD-1245", Date: "13.05.2024", Items: "Флэт Уайт",
		Total: 280, Status: models.OrderCompleted, PickupTime: "15:00",
	}))

	items, err := a.Recent(10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "ORD-1245", items[0].ID, "newest first")
	assert.Equal(t, "15:00", items[0].PickupTime)
	assert.Equal(t, "ORD-1289", items[1].ID)
}

func TestRecentHonorsLimit(t *testing.T) {
	a := openTestArchive(t)
	for _, id := range []string{"ORD-1001", "ORD-1002", "ORD-1003"} {
		require.NoError(t, a.Record(models.OrderHistoryItem{
			ID: id, Total: 100, Status: models.OrderCompleted,
		}))
	}

	items, err := a.Recent(2)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestTotalSpentSkipsCancelled(t *testing.T) {
	a := openTestArchive(t)
	require.NoError(t, a.Record(models.OrderHistoryItem{ID: "ORD-1", Total: 300, Status: models.OrderCompleted}))
	require.NoError(t, a.Record(models.OrderHistoryItem{ID: "ORD-2", Total: 500, Status: models.OrderCancelled}))

	total, err := a.TotalSpent()
	require.NoError(t, err)
	assert.Equal(t, 300, total)
}
