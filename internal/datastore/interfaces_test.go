package datastore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/histolab/msinet-go/internal/conf"
	"github.com/histolab/msinet-go/internal/errors"
)

// createDatabase initializes a temporary database for testing purposes.
// It ensures the database connection is opened and handles potential errors.
func createDatabase(t *testing.T) Interface {
	t.Helper()
	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = t.TempDir() + "/test.db"

	dataStore := New(settings)

	// Attempt to open a database connection.
	require.NoError(t, dataStore.Open(), "Failed to open database")

	// Ensure the database is closed after the test completes.
	t.Cleanup(func() {
		assert.NoError(t, dataStore.Close(), "Failed to close datastore")
	})

	return dataStore
}

func TestCreateAndGetUser(t *testing.T) {
	ds := createDatabase(t)

	user := &User{Email: "a@b.com", Password: "$2a$10$notaplaintextpassword", FirstName: "Jo"}
	require.NoError(t, ds.CreateUser(user))
	assert.NotZero(t, user.ID, "Expected user ID to be assigned")

	got, err := ds.GetUserByEmail("a@b.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "Jo", got.FirstName)

	exists, err := ds.UserExists("a@b.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = ds.UserExists("nobody@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGetUserByEmailNotFound(t *testing.T) {
	ds := createDatabase(t)

	_, err := ds.GetUserByEmail("missing@example.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound), "Expected ErrNotFound, got %v", err)
}

func TestDuplicateEmailRejected(t *testing.T) {
	ds := createDatabase(t)

	require.NoError(t, ds.CreateUser(&User{Email: "a@b.com", Password: "hash", FirstName: "Jo"}))
	err := ds.CreateUser(&User{Email: "a@b.com", Password: "hash", FirstName: "Al"})
	assert.Error(t, err, "Expected unique index to reject duplicate email")
}

func TestCreatePatientAndListByUser(t *testing.T) {
	ds := createDatabase(t)

	user := &User{Email: "doc@clinic.org", Password: "hash", FirstName: "Dana"}
	require.NoError(t, ds.CreateUser(user))

	require.NoError(t, ds.CreatePatient(&Patient{FirstName: "Ann", UserID: user.ID}))
	require.NoError(t, ds.CreatePatient(&Patient{FirstName: "Ben", UserID: user.ID}))

	patients, err := ds.GetPatientsByUser(user.ID)
	require.NoError(t, err)
	require.Len(t, patients, 2)
	assert.Equal(t, "Ann", patients[0].FirstName)
	assert.Equal(t, "Ben", patients[1].FirstName)
}

func TestGetPatientNotFound(t *testing.T) {
	ds := createDatabase(t)

	_, err := ds.GetPatient(12345)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSaveResultPreservesPatientIDVerbatim(t *testing.T) {
	ds := createDatabase(t)

	// No patient with this ID exists; the result is stored regardless.
	result := &Result{Note: "needs review", Percentage: "87.23%", PatientID: 999}
	require.NoError(t, ds.SaveResult(result))

	results, err := ds.GetResultsByPatient(999)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, uint(999), results[0].PatientID)
	assert.Equal(t, "87.23%", results[0].Percentage)
	assert.False(t, results[0].Date.IsZero(), "Expected server-assigned creation time")
}

func TestGetPatientPreloadsResultsInOrder(t *testing.T) {
	ds := createDatabase(t)

	user := &User{Email: "doc@clinic.org", Password: "hash", FirstName: "Dana"}
	require.NoError(t, ds.CreateUser(user))
	patient := &Patient{FirstName: "Ann", UserID: user.ID}
	require.NoError(t, ds.CreatePatient(patient))

	require.NoError(t, ds.SaveResult(&Result{Note: "first", Percentage: "51.00%", PatientID: patient.ID}))
	require.NoError(t, ds.SaveResult(&Result{Note: "second", Percentage: "93.10%", PatientID: patient.ID}))

	got, err := ds.GetPatient(patient.ID)
	require.NoError(t, err)
	require.Len(t, got.Results, 2)
	assert.Equal(t, "first", got.Results[0].Note)
	assert.Equal(t, "second", got.Results[1].Note)

	// Reading twice without intervening writes returns the same ordered set.
	again, err := ds.GetPatient(patient.ID)
	require.NoError(t, err)
	require.Len(t, again.Results, 2)
	for i := range got.Results {
		assert.Equal(t, got.Results[i].ID, again.Results[i].ID)
	}
}
