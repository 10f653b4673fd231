package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/mailrag/internal/core/domain"
)

func TestEmailCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, c := range emailCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"add", "list", "show", "category", "delete", "reclassify"}, names)
}

func TestEmailAdd_FromFlags(t *testing.T) {
	ts := setupTestServices(t)

	out, err := execute(t, "email", "add", "--body", "Payday moves to the 24th.",
		"--sender", "hr@example.com", "--subject", "Payday")

	require.NoError(t, err)
	assert.Contains(t, out, "Added email #1")
	assert.Contains(t, out, "Category: Notice")
	require.Len(t, ts.emails.ingested, 1)
	assert.Equal(t, "hr@example.com", ts.emails.ingested[0].Sender)
	assert.Equal(t, "Payday", ts.emails.ingested[0].Subject)
}

func TestEmailAdd_FromStdin(t *testing.T) {
	ts := setupTestServices(t)
	rootCmd.SetIn(strings.NewReader("Standup is cancelled today.\n"))

	_, err := execute(t, "email", "add", "--subject", "Standup")

	require.NoError(t, err)
	require.Len(t, ts.emails.ingested, 1)
	assert.Equal(t, "Standup is cancelled today.\n", ts.emails.ingested[0].Body)
}

func TestEmailAdd_FromFile(t *testing.T) {
	ts := setupTestServices(t)
	path := filepath.Join(t.TempDir(), "offsite.eml")
	msg := "From: Ops <ops@example.com>\r\nSubject: Offsite\r\n\r\nThe offsite is on Friday.\r\n"
	require.NoError(t, os.WriteFile(path, []byte(msg), 0o600))

	_, err := execute(t, "email", "add", "--file", path, "--sender", "override@example.com")

	require.NoError(t, err)
	require.Len(t, ts.emails.ingested, 1)
	got := ts.emails.ingested[0]
	assert.Equal(t, "Offsite", got.Subject)
	assert.Equal(t, "override@example.com", got.Sender, "flags win over headers")
	assert.Contains(t, got.Body, "The offsite is on Friday.")
}

func TestEmailAdd_EmptyBody(t *testing.T) {
	ts := setupTestServices(t)
	rootCmd.SetIn(strings.NewReader("   "))

	_, err := execute(t, "email", "add")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
	assert.Empty(t, ts.emails.ingested)
}

func TestEmailAdd_ServiceError(t *testing.T) {
	ts := setupTestServices(t)
	ts.emails.ingestErr = errBoom

	_, err := execute(t, "email", "add", "--body", "x")

	assert.ErrorIs(t, err, errBoom)
}

func TestEmailAdd_JSON(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "email", "add", "--body", "hello", "--subject", "Hi", "--json")

	require.NoError(t, err)
	var v emailJSONView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, int64(1), v.ID)
	assert.Equal(t, "Notice", v.Category)
	assert.Equal(t, "completed", v.Status)
	assert.Empty(t, v.Body, "add does not echo the body")
}

func TestEmailList(t *testing.T) {
	ts := setupTestServices(t)
	ctx := context.Background()
	_, _ = ts.store.Emails().Create(ctx, &domain.Email{Body: "a", Subject: "Payroll", Category: "HR"})
	_, _ = ts.store.Emails().Create(ctx, &domain.Email{Body: "b", Subject: "Sprint", Category: "Project", Status: domain.StatusPending})

	out, err := execute(t, "email", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Payroll")
	assert.Contains(t, out, "Sprint")
	assert.Contains(t, out, "(pending)")
	assert.Less(t, strings.Index(out, "Sprint"), strings.Index(out, "Payroll"), "newest first")

	out, err = execute(t, "email", "list", "--category", "HR")
	require.NoError(t, err)
	assert.Contains(t, out, "Payroll")
	assert.NotContains(t, out, "Sprint")
}

func TestEmailList_Empty(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "email", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "No emails found.")
}

func TestEmailList_JSON(t *testing.T) {
	ts := setupTestServices(t)
	_, _ = ts.store.Emails().Create(context.Background(), &domain.Email{Body: "a", Subject: "Payroll"})

	out, err := execute(t, "email", "list", "--json")

	require.NoError(t, err)
	var v []emailJSONView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	require.Len(t, v, 1)
	assert.Equal(t, "Payroll", v[0].Subject)
	assert.Nil(t, v[0].ExtractedDate)
}

func TestEmailShow(t *testing.T) {
	ts := setupTestServices(t)
	date := "2024-05-03"
	_, _ = ts.store.Emails().Create(context.Background(), &domain.Email{
		Sender: "ops@example.com", Subject: "Offsite", Body: "Friday at the lake.", ExtractedDate: &date,
	})

	out, err := execute(t, "email", "show", "1")

	require.NoError(t, err)
	assert.Contains(t, out, "ops@example.com")
	assert.Contains(t, out, "Date:     2024-05-03")
	assert.Contains(t, out, "Friday at the lake.")
}

func TestEmailShow_Errors(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "email", "show", "abc")
	assert.ErrorContains(t, err, "invalid id")

	_, err = execute(t, "email", "show", "42")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEmailCategoryAndDelete(t *testing.T) {
	ts := setupTestServices(t)
	ctx := context.Background()
	_, _ = ts.store.Emails().Create(ctx, &domain.Email{Body: "a"})

	out, err := execute(t, "email", "category", "1", "HR")
	require.NoError(t, err)
	assert.Contains(t, out, "moved to HR")
	got, _ := ts.store.Emails().Get(ctx, 1)
	assert.Equal(t, "HR", got.Category)

	out, err = execute(t, "email", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted email #1")
	_, err = ts.store.Emails().Get(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEmailReclassify(t *testing.T) {
	ts := setupTestServices(t)
	_, _ = ts.store.Emails().Create(context.Background(), &domain.Email{Body: "a", Status: domain.StatusPending})

	out, err := execute(t, "email", "reclassify")

	require.NoError(t, err)
	assert.Contains(t, out, "Reclassified 1 pending emails")
}

func TestEmailCmd_ErrorsWithoutServices(t *testing.T) {
	clearServices(t)

	_, err := execute(t, "email", "list")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestParseID(t *testing.T) {
	id, err := parseID("17")
	require.NoError(t, err)
	assert.Equal(t, int64(17), id)

	for _, bad := range []string{"0", "-3", "x", ""} {
		_, err := parseID(bad)
		assert.Error(t, err, bad)
	}
}
