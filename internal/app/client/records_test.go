package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicsync/internal/domain/clinic"
	"clinicsync/internal/domain/operation"
)

func TestApp_CreateClientIdempotentByRequestID(t *testing.T) {
	app := newTestApp(t, openTestStorage(t), "", "")
	ctx := context.Background()

	first, err := app.CreateClient(ctx, clinic.Client{FullName: "  Иванов Иван ", Phone: "+79991234567"}, "req-1")
	require.NoError(t, err)
	assert.Equal(t, "Иванов Иван", first.FullName)

	again, err := app.CreateClient(ctx, clinic.Client{FullName: "Иванов Иван", Phone: "+79991234567"}, "req-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, 1, app.GetSyncStatus().PendingCount)

	_, err = app.CreateClient(ctx, clinic.Client{FullName: "Иванов Иван", Phone: "+79991234567"}, "")
	require.NoError(t, err)
	assert.Equal(t, 2, app.GetSyncStatus().PendingCount)
}

func TestApp_CreateRejectsInvalidData(t *testing.T) {
	app := newTestApp(t, openTestStorage(t), "", "")
	ctx := context.Background()

	_, err := app.CreateClient(ctx, clinic.Client{FullName: " ", Phone: "+79991234567"}, "")
	assert.ErrorIs(t, err, clinic.ErrInvalidData)

	_, err = app.CreatePatient(ctx, clinic.Patient{Name: "Барсик", Species: "кот", ClientID: -42}, "")
	assert.ErrorIs(t, err, clinic.ErrDanglingRef)

	ops, err := app.PendingOperations(ctx)
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestApp_UpdateCoalescesUnsentChanges(t *testing.T) {
	app := newTestApp(t, openTestStorage(t), "", "")
	ctx := context.Background()

	client, err := app.CreateClient(ctx, clinic.Client{FullName: "Иванов Иван", Phone: "+79991234567"}, "")
	require.NoError(t, err)

	client.Phone = "+79990000001"
	_, err = app.UpdateClient(ctx, *client, "")
	require.NoError(t, err)

	ops, err := app.PendingOperations(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, operation.KindCreate, ops[0].Kind)
	assert.Equal(t, "+79990000001", ops[0].Payload.(operation.ClientPayload).Phone)
}

func TestApp_UpdatePatientKeepsOwner(t *testing.T) {
	app := newTestApp(t, openTestStorage(t), "", "")
	ctx := context.Background()

	client, patient := createIvanovAndBarsik(t, app)
	other, err := app.CreateClient(ctx, clinic.Client{FullName: "Петров Петр", Phone: "+79997654321"}, "")
	require.NoError(t, err)

	patient.Name = "Барсик II"
	patient.ClientID = other.ID
	updated, err := app.UpdatePatient(ctx, *patient, "")
	require.NoError(t, err)
	assert.Equal(t, client.ID, updated.ClientID)

	patients, err := app.GetPatientsByClient(ctx, client.ID)
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, "Барсик II", patients[0].Name)

	_, err = app.GetPatientsByClient(ctx, 999)
	assert.ErrorIs(t, err, clinic.ErrNotFound)
}

func TestApp_SearchClientsCaseInsensitive(t *testing.T) {
	app := newTestApp(t, openTestStorage(t), "", "")
	ctx := context.Background()

	createIvanovAndBarsik(t, app)

	found, err := app.SearchClients(ctx, "иванов", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Иванов Иван", found[0].FullName)

	found, err = app.SearchClients(ctx, "7999123", 10)
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestApp_CredentialsPersisted(t *testing.T) {
	store := openTestStorage(t)
	ctx := context.Background()
	box := testBox(t)

	app := newApp(testConfig("", ""), discardLogger(), box, store)
	require.NoError(t, app.Init(ctx))
	require.NoError(t, app.UpdateCredentials(ctx, "https://central.example.com/", "sk_live_abcdef123456"))
	require.NoError(t, app.UpdateBranch(ctx, 5, "Северный"))

	sealed, err := store.GetSetting(ctx, settingAPIKey)
	require.NoError(t, err)
	assert.NotContains(t, sealed, "sk_live_abcdef123456")

	// новый экземпляр с тем же секретом читает сохраненные значения
	reloaded := newApp(testConfig("https://fallback.example.com", "sk_fallback"), discardLogger(), box, store)
	require.NoError(t, reloaded.Init(ctx))
	creds := reloaded.Credentials()
	assert.Equal(t, "https://central.example.com", creds.ServerURL)
	assert.Equal(t, "sk_live_abcdef123456", creds.APIKey)
	assert.Equal(t, int64(5), creds.BranchID)
	assert.Equal(t, "Северный", creds.BranchName)

	require.NoError(t, store.Close())
}
