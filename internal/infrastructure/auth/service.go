package auth

import (
	"context"
	"time"

	"flaretrack/pkg/errors"
	jwtutil "flaretrack/pkg/jwt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

// Account is a registered user of the tracker.
type Account struct {
	ID           string    `bson:"_id" json:"id"`
	Email        string    `bson:"email" json:"email"`
	Name         string    `bson:"name" json:"name"`
	PasswordHash string    `bson:"password_hash" json:"-"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

// AccountStore persists accounts.
type AccountStore interface {
	Create(ctx context.Context, account *Account) error
	GetByEmail(ctx context.Context, email string) (*Account, error)
}

// MongoAccountStore implements AccountStore using MongoDB.
type MongoAccountStore struct {
	collection *mongo.Collection
}

func NewMongoAccountStore(db *mongo.Database) *MongoAccountStore {
	collection := db.Collection("accounts")

	_, _ = collection.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return &MongoAccountStore{collection: collection}
}

func (s *MongoAccountStore) Create(ctx context.Context, account *Account) error {
	if _, err := s.collection.InsertOne(ctx, account); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.NewConflictError("email is already registered")
		}
		return errors.NewStorageError("failed to create account: " + err.Error())
	}
	return nil
}

func (s *MongoAccountStore) GetByEmail(ctx context.Context, email string) (*Account, error) {
	var account Account
	err := s.collection.FindOne(ctx, bson.M{"email": email}).Decode(&account)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.NewNotFoundError("account")
		}
		return nil, errors.NewStorageError("failed to get account: " + err.Error())
	}
	return &account, nil
}

// Service handles registration and login. Passwords are bcrypt-hashed;
// successful logins are exchanged for a signed JWT the API layer uses to
// resolve the explicit user ID every core call requires.
type Service struct {
	store      AccountStore
	jwtManager *jwtutil.JWTManager
}

func NewService(store AccountStore, jwtManager *jwtutil.JWTManager) *Service {
	return &Service{
		store:      store,
		jwtManager: jwtManager,
	}
}

// Register creates an account and returns its ID.
func (s *Service) Register(ctx context.Context, email, name, password string) (string, error) {
	if email == "" {
		return "", errors.NewValidationError("email is required")
	}
	if len(password) < 8 {
		return "", errors.NewValidationError("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.NewInternalError("failed to hash password")
	}

	account := &Account{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	if err := s.store.Create(ctx, account); err != nil {
		return "", err
	}
	return account.ID, nil
}

// Login verifies credentials and returns a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	account, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return "", errors.NewUnauthorizedError("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return "", errors.NewUnauthorizedError("invalid email or password")
	}

	token, err := s.jwtManager.GenerateToken(account.ID, account.Email)
	if err != nil {
		return "", errors.NewInternalError("failed to issue token")
	}
	return token, nil
}
