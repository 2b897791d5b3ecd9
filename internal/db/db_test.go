//go:build integration

package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/raphaelgruber/contact-dedupe/internal/models"
)

var testDB *Client
var testContainer testcontainers.Container

// TestMain sets up and tears down the SurrealDB container for all tests.
func TestMain(m *testing.M) {
	// Disable ryuk (cleanup container) as it can cause issues in some environments
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	var err error
	testContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v3.0.0-beta.1",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--log", "info", "--user", "root", "--pass", "root"},
			WaitingFor:   wait.ForLog("Started web server").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start SurrealDB container: %v", err)
	}

	host, err := testContainer.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	// Workaround: testcontainers may return "null" as host in some environments
	if host == "" || host == "null" {
		host = "localhost"
	}
	mappedPort, err := testContainer.MappedPort(ctx, "8000")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	testDB, err = NewClient(ctx, Config{
		URL:       fmt.Sprintf("ws://%s:%s/rpc", host, mappedPort.Port()),
		Namespace: "test",
		Database:  "test",
		Username:  "root",
		Password:  "root",
		AuthLevel: AuthRoot,
	}, nil)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := testDB.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	code := m.Run()

	_ = testDB.Close(ctx)
	_ = testContainer.Terminate(ctx)

	os.Exit(code)
}

func testEntry(session string, removed, kept int, at time.Time) models.AuditEntry {
	return models.AuditEntry{
		Removal: models.Removal{
			SessionID:    session,
			RemovedIndex: removed,
			KeptIndex:    kept,
			Reason:       "email identical after normalization + identical phone",
			RemovedAt:    at,
		},
		Source:  "/data/contacts.csv",
		Header:  []string{"Nom", "Email"},
		Columns: models.Columns{FamilyName: "Nom", Email: "Email"},
		Removed: models.Record{"Nom": "Martin", "Email": "jeanmartin+work@mail.com"},
		Kept:    models.Record{"Nom": "Martin", "Email": "jean.martin@mail.com"},
	}
}

func TestCreateRemoval(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.WipeData(ctx))

	stored, err := testDB.CreateRemoval(ctx, testEntry("s1", 1, 0, time.Now()))
	require.NoError(t, err)

	id, err := models.RecordIDString(stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "s1-1", id)
	assert.Equal(t, "s1", stored.SessionID)
	assert.Equal(t, 1, stored.RemovedIndex)
	assert.Equal(t, 0, stored.KeptIndex)
	assert.Equal(t, "jean.martin@mail.com", stored.Kept["Email"])
	assert.False(t, stored.RemovedAt.IsZero())
}

func TestMirrorRemoval_Duplicate(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.WipeData(ctx))

	entry := testEntry("s2", 4, 2, time.Now())
	require.NoError(t, testDB.MirrorRemoval(ctx, entry))
	assert.ErrorIs(t, testDB.MirrorRemoval(ctx, entry), ErrAlreadyMirrored)
}

func TestListRemovalsAndSessions(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.WipeData(ctx))

	base := time.Now().Add(-time.Hour)
	require.NoError(t, testDB.MirrorRemoval(ctx, testEntry("a", 1, 0, base)))
	require.NoError(t, testDB.MirrorRemoval(ctx, testEntry("a", 3, 2, base.Add(time.Minute))))
	require.NoError(t, testDB.MirrorRemoval(ctx, testEntry("b", 5, 4, base.Add(2*time.Minute))))

	all, err := testDB.ListRemovals(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "b", all[0].SessionID, "newest first")

	onlyA, err := testDB.ListRemovals(ctx, "a", 10)
	require.NoError(t, err)
	require.Len(t, onlyA, 2)
	assert.Equal(t, 3, onlyA[0].RemovedIndex)

	limited, err := testDB.ListRemovals(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	sessions, err := testDB.ListSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "b", sessions[0].SessionID)
	assert.Equal(t, 2, sessions[1].Removals)
}
