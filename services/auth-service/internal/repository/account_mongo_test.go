package repository

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/landlordy-api/services/auth-service/internal/model"
)

func TestUpdateDocument_ClearWinsOverValue(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	verified := true
	doc := updateDocument(UpdateAccountParams{
		EmailVerified:          &verified,
		VerificationToken:      &model.Token{Value: "ignored", ExpiresAt: now},
		ClearVerificationToken: true,
		PasswordResetToken:     &model.Token{Value: "reset", ExpiresAt: now.Add(time.Hour)},
	}, now)

	set, ok := doc["$set"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, true, set["email_verified"])
	assert.Equal(t, now, set["updated_at"])
	assert.NotContains(t, set, "verification_token")
	assert.Equal(t, &model.Token{Value: "reset", ExpiresAt: now.Add(time.Hour)}, set["password_reset_token"])

	unset, ok := doc["$unset"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, bson.M{"verification_token": ""}, unset)
}

func TestUpdateDocument_OmitsEmptyUnset(t *testing.T) {
	t.Parallel()

	name := "Grace"
	doc := updateDocument(UpdateAccountParams{FirstName: &name}, time.Now())

	assert.NotContains(t, doc, "$unset")
	assert.Equal(t, "Grace", doc["$set"].(bson.M)["first_name"])
}

func TestTokenFilters(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, bson.M{
		"password_reset_token.value":      "tok",
		"password_reset_token.expires_at": bson.M{"$gt": now},
	}, liveTokenFilter(passwordResetTokenField, "tok", now))

	assert.Equal(t, bson.M{
		"verification_token.expires_at": bson.M{"$lte": now},
	}, expiredTokenFilter(verificationTokenField, now))
}

// newMongoRepo connects to MONGO_TEST_URI and returns a repository backed by a
// throwaway database.
func newMongoRepo(t *testing.T) AccountRepository {
	t.Helper()

	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx := context.Background()
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	require.NoError(t, err)

	db := client.Database("landlordy_test_" + strings.ReplaceAll(uuid.NewString(), "-", ""))
	t.Cleanup(func() {
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	logger := zerolog.Nop()
	repo, err := NewAccountMongoRepository(ctx, &logger, db)
	require.NoError(t, err)
	return repo
}

func TestMongoAccountLifecycle(t *testing.T) {
	repo := newMongoRepo(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	created, err := repo.CreateAccount(ctx, &model.Account{
		Email:             "ada@example.com",
		PasswordHash:      "hash",
		FirstName:         "Ada",
		LastName:          "Lovelace",
		VerificationToken: &model.Token{Value: "verify", ExpiresAt: now.Add(time.Hour)},
	})
	require.NoError(t, err)

	_, err = repo.CreateAccount(ctx, &model.Account{Email: "ada@example.com"})
	require.ErrorIs(t, err, ErrDuplicateEmail)

	_, err = repo.GetAccountByVerificationToken(ctx, "verify", now.Add(time.Hour))
	require.ErrorIs(t, err, ErrAccountNotFound)

	verified, err := repo.ConsumeVerificationToken(ctx, "verify", now)
	require.NoError(t, err)
	assert.Equal(t, created.ID, verified.ID)
	assert.True(t, verified.EmailVerified)
	assert.Nil(t, verified.VerificationToken)

	_, err = repo.ConsumeVerificationToken(ctx, "verify", now)
	require.ErrorIs(t, err, ErrAccountNotFound)

	_, err = repo.UpdateAccount(ctx, created.ID, UpdateAccountParams{
		PasswordResetToken: &model.Token{Value: "reset", ExpiresAt: now.Add(time.Hour)},
	})
	require.NoError(t, err)

	found, err := repo.GetAccountByPasswordResetToken(ctx, "reset", now)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	reset, err := repo.ConsumePasswordResetToken(ctx, "reset", now, "new-hash")
	require.NoError(t, err)
	assert.Equal(t, "new-hash", reset.PasswordHash)
	assert.Nil(t, reset.PasswordResetToken)
	assert.True(t, reset.EmailVerified)
}

func TestMongoConsumePasswordResetToken_Concurrent(t *testing.T) {
	repo := newMongoRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := repo.CreateAccount(ctx, &model.Account{
		Email:              "ada@example.com",
		EmailVerified:      true,
		PasswordResetToken: &model.Token{Value: "reset", ExpiresAt: now.Add(time.Hour)},
	})
	require.NoError(t, err)

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = repo.ConsumePasswordResetToken(ctx, "reset", now, "hash")
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrAccountNotFound)
	}
	assert.Equal(t, 1, succeeded)
}

func TestMongoClearExpiredTokens(t *testing.T) {
	repo := newMongoRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := repo.CreateAccount(ctx, &model.Account{
		Email:              "old@example.com",
		VerificationToken:  &model.Token{Value: "v-old", ExpiresAt: now.Add(-time.Minute)},
		PasswordResetToken: &model.Token{Value: "r-live", ExpiresAt: now.Add(time.Hour)},
	})
	require.NoError(t, err)

	cleared, err := repo.ClearExpiredTokens(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, cleared)

	account, err := repo.GetAccountByEmail(ctx, "old@example.com")
	require.NoError(t, err)
	assert.Nil(t, account.VerificationToken)
	require.NotNil(t, account.PasswordResetToken)
	assert.Equal(t, "r-live", account.PasswordResetToken.Value)
}
