package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/landlordy-api/services/auth-service/internal/model"
)

const (
	accountCollection = "users"

	verificationTokenField  = "verification_token"
	passwordResetTokenField = "password_reset_token"
)

type accountMongoRepository struct {
	db     *mongo.Database
	logger *zerolog.Logger
}

// NewAccountMongoRepository creates the account indexes and returns a MongoDB
// backed AccountRepository.
func NewAccountMongoRepository(
	ctx context.Context,
	logger *zerolog.Logger,
	db *mongo.Database,
) (AccountRepository, error) {
	collection := db.Collection(accountCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: verificationTokenField + ".value", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: passwordResetTokenField + ".value", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Error().Err(err).Msg("failed to create account indexes")
		return nil, fmt.Errorf("create account indexes: %w", err)
	}

	return &accountMongoRepository{db: db, logger: logger}, nil
}

func (r *accountMongoRepository) CreateAccount(ctx context.Context, account *model.Account) (*model.Account, error) {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	if _, err := r.db.Collection(accountCollection).InsertOne(ctx, account); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}

	return account, nil
}

func (r *accountMongoRepository) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *accountMongoRepository) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *accountMongoRepository) GetAccountByVerificationToken(
	ctx context.Context,
	token string,
	now time.Time,
) (*model.Account, error) {
	return r.findOne(ctx, liveTokenFilter(verificationTokenField, token, now))
}

func (r *accountMongoRepository) GetAccountByPasswordResetToken(
	ctx context.Context,
	token string,
	now time.Time,
) (*model.Account, error) {
	return r.findOne(ctx, liveTokenFilter(passwordResetTokenField, token, now))
}

func (r *accountMongoRepository) UpdateAccount(
	ctx context.Context,
	id string,
	params UpdateAccountParams,
) (*model.Account, error) {
	return r.updateOne(ctx, bson.M{"_id": id}, params)
}

func (r *accountMongoRepository) ConsumeVerificationToken(
	ctx context.Context,
	token string,
	now time.Time,
) (*model.Account, error) {
	verified := true
	return r.updateOne(ctx,
		liveTokenFilter(verificationTokenField, token, now),
		UpdateAccountParams{EmailVerified: &verified, ClearVerificationToken: true},
	)
}

func (r *accountMongoRepository) ConsumePasswordResetToken(
	ctx context.Context,
	token string,
	now time.Time,
	passwordHash string,
) (*model.Account, error) {
	return r.updateOne(ctx,
		liveTokenFilter(passwordResetTokenField, token, now),
		UpdateAccountParams{PasswordHash: &passwordHash, ClearPasswordResetToken: true},
	)
}

func (r *accountMongoRepository) ClearExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	var cleared int64
	for _, field := range []string{verificationTokenField, passwordResetTokenField} {
		result, err := r.db.Collection(accountCollection).UpdateMany(
			ctx,
			expiredTokenFilter(field, now),
			bson.M{"$unset": bson.M{field: ""}},
		)
		if err != nil {
			return cleared, fmt.Errorf("clear expired %s: %w", field, err)
		}
		cleared += result.ModifiedCount
	}

	return cleared, nil
}

func (r *accountMongoRepository) Ping(ctx context.Context) error {
	return r.db.Client().Ping(ctx, nil)
}

// updateOne applies params to the single document matching filter. The match
// and the write are one FindOneAndUpdate, so a token filter makes it a
// compare-and-set.
func (r *accountMongoRepository) updateOne(
	ctx context.Context,
	filter bson.M,
	params UpdateAccountParams,
) (*model.Account, error) {
	if params.empty() {
		return nil, ErrNothingToUpdate
	}

	result := r.db.Collection(accountCollection).FindOneAndUpdate(
		ctx,
		filter,
		updateDocument(params, time.Now().UTC()),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var account model.Account
	if err := result.Decode(&account); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("update account: %w", err)
	}

	return &account, nil
}

func (r *accountMongoRepository) findOne(ctx context.Context, filter bson.M) (*model.Account, error) {
	var account model.Account
	if err := r.db.Collection(accountCollection).FindOne(ctx, filter).Decode(&account); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}

	return &account, nil
}

func liveTokenFilter(field, token string, now time.Time) bson.M {
	return bson.M{
		field + ".value":      token,
		field + ".expires_at": bson.M{"$gt": now},
	}
}

func expiredTokenFilter(field string, now time.Time) bson.M {
	return bson.M{field + ".expires_at": bson.M{"$lte": now}}
}

// updateDocument translates params into $set and $unset operators. A Clear
// flag wins over the token value of the same kind.
func updateDocument(params UpdateAccountParams, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	unset := bson.M{}

	if params.PasswordHash != nil {
		set["password_hash"] = *params.PasswordHash
	}
	if params.FirstName != nil {
		set["first_name"] = *params.FirstName
	}
	if params.LastName != nil {
		set["last_name"] = *params.LastName
	}
	if params.EmailVerified != nil {
		set["email_verified"] = *params.EmailVerified
	}

	switch {
	case params.ClearVerificationToken:
		unset[verificationTokenField] = ""
	case params.VerificationToken != nil:
		set[verificationTokenField] = params.VerificationToken
	}
	switch {
	case params.ClearPasswordResetToken:
		unset[passwordResetTokenField] = ""
	case params.PasswordResetToken != nil:
		set[passwordResetTokenField] = params.PasswordResetToken
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}
