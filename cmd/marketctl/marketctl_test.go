package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"eventmarket/internal/repositories/memory"
	"eventmarket/internal/seed"
	"eventmarket/internal/services"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSchemaPrint(t *testing.T) {
	out, err := execute(t, "", "schema", "print", "--driver", "pgx")
	require.NoError(t, err)
	assert.Contains(t, out, "CREATE TABLE IF NOT EXISTS users")
	assert.Contains(t, out, "CREATE TABLE IF NOT EXISTS event_requests")
	assert.Contains(t, out, "CREATE INDEX IF NOT EXISTS")
}

func TestHashPassword(t *testing.T) {
	out, err := execute(t, "", "hash-password", "--cost", "4", "s3cret!")
	require.NoError(t, err)
	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret!")))

	out, err = execute(t, "from-stdin\n", "hash-password", "--cost", "4")
	require.NoError(t, err)
	hash = strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("from-stdin")))
}

func TestHashPasswordEmpty(t *testing.T) {
	_, err := execute(t, "\n", "hash-password")
	assert.EqualError(t, err, "password is empty")
}

func TestSeedRejectsMemoryDriver(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "memory")
	_, err := execute(t, "", "seed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `driver "memory" is not a SQL database`)
}

func TestRebuildRatings(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	loaded, err := seed.Load(ctx, seed.Stores{Users: store, Categories: store, Reviews: store, Requests: store}, services.BcryptHasher{Cost: bcrypt.MinCost})
	require.NoError(t, err)
	require.True(t, loaded)

	var out bytes.Buffer
	err = rebuildRatings(ctx, &out,
		&services.ProviderService{ProviderRepo: store},
		&services.ReviewService{ReviewsRepo: store},
	)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "1\tElegant Affairs\t4.50\t2", lines[0])
	assert.Equal(t, "rebuilt 7 providers", lines[7])

	p, err := store.GetProviderByID(ctx, 1)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, p.Rating, 1e-9)
	assert.Equal(t, 2, p.ReviewCount)
}

func TestRatingsRebuildRejectsMemoryDriver(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "memory")
	_, err := execute(t, "", "ratings", "rebuild")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `driver "memory" is not a SQL database`)
}
