package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/mailrag/internal/core/domain"
)

func TestCategoryList_ShowsDefaults(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "category", "list")

	require.NoError(t, err)
	for _, c := range domain.DefaultCategories() {
		assert.Contains(t, out, c.Name)
	}
}

func TestCategoryAdd(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "category", "add", "Finance", "--description", "invoices and receipts")
	require.NoError(t, err)
	assert.Contains(t, out, "Added category #6 Finance")

	out, err = execute(t, "categories", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "invoices and receipts")
}

func TestCategoryAdd_Duplicate(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "category", "add", "HR")

	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestCategoryRename_MovesEmails(t *testing.T) {
	ts := setupTestServices(t)
	ctx := context.Background()
	_, _ = ts.store.Emails().Create(ctx, &domain.Email{Body: "a", Category: "HR"})

	out, err := execute(t, "category", "rename", "2", "People")

	require.NoError(t, err)
	assert.Contains(t, out, "Renamed category #2 to People")
	got, _ := ts.store.Emails().Get(ctx, 1)
	assert.Equal(t, "People", got.Category)

	cat, err := ts.store.Categories().Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCategories()[1].Description, cat.Description, "rename keeps the description")
}

func TestCategoryDelete(t *testing.T) {
	ts := setupTestServices(t)
	ctx := context.Background()
	_, _ = ts.store.Emails().Create(ctx, &domain.Email{Body: "a", Category: "Notice"})

	_, err := execute(t, "category", "delete", "5")

	require.NoError(t, err)
	got, _ := ts.store.Emails().Get(ctx, 1)
	assert.Equal(t, domain.CategoryUnclassified, got.Category)
}

func TestCategoryDelete_Unclassified(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "category", "delete", "1")

	assert.ErrorIs(t, err, domain.ErrProtectedCategory)
}

func TestCategoryCmd_ErrorsWithoutServices(t *testing.T) {
	clearServices(t)

	_, err := execute(t, "category", "list")

	assert.ErrorContains(t, err, "not configured")
}
