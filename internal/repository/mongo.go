package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AnshRaj112/vidtube-backend/internal/models"
)

const usersCollection = "users"

type userDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`

	Username string `bson:"username"`
	Email    string `bson:"email"`
	FullName string `bson:"fullName"`

	Avatar        string `bson:"avatar"`
	AvatarRef     string `bson:"avatarRef,omitempty"`
	CoverImage    string `bson:"coverImage,omitempty"`
	CoverImageRef string `bson:"coverImageRef,omitempty"`

	Password     string `bson:"password,omitempty"`
	RefreshToken string `bson:"refreshToken,omitempty"`
}

func (d *userDocument) toModel() *models.User {
	return &models.User{
		ID:            d.ID.Hex(),
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
		Username:      d.Username,
		Email:         d.Email,
		FullName:      d.FullName,
		Avatar:        d.Avatar,
		AvatarRef:     d.AvatarRef,
		CoverImage:    d.CoverImage,
		CoverImageRef: d.CoverImageRef,
		PasswordHash:  d.Password,
		RefreshToken:  d.RefreshToken,
	}
}

// MongoUserStore stores users in the "users" collection.
type MongoUserStore struct {
	coll *mongo.Collection
}

func NewMongoUserStore(db *mongo.Database) *MongoUserStore {
	return &MongoUserStore{coll: db.Collection(usersCollection)}
}

// EnsureIndexes creates the unique indexes that back the uniqueness checks.
func (s *MongoUserStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (s *MongoUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *MongoUserStore) FindProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	opts := options.FindOne().SetProjection(bson.M{"password": 0, "refreshToken": 0})
	var doc userDocument
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user profile: %w", err)
	}
	return doc.toModel().Profile(), nil
}

func (s *MongoUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": caseInsensitive(email)})
}

func (s *MongoUserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"username": caseInsensitive(username)})
}

func (s *MongoUserStore) FindByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error) {
	var or bson.A
	if email != "" {
		or = append(or, bson.M{"email": caseInsensitive(email)})
	}
	if username != "" {
		or = append(or, bson.M{"username": caseInsensitive(username)})
	}
	if len(or) == 0 {
		return nil, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"$or": or})
}

func (s *MongoUserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDocument
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toModel(), nil
}

func (s *MongoUserStore) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	doc := userDocument{
		CreatedAt:     now,
		UpdatedAt:     now,
		Username:      user.Username,
		Email:         user.Email,
		FullName:      user.FullName,
		Avatar:        user.Avatar,
		AvatarRef:     user.AvatarRef,
		CoverImage:    user.CoverImage,
		CoverImageRef: user.CoverImageRef,
		Password:      user.PasswordHash,
	}

	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("insert user: unexpected id type %T", res.InsertedID)
	}
	user.ID = oid.Hex()
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (s *MongoUserStore) Update(ctx context.Context, id string, update models.UserUpdate) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	fields := map[string]*string{
		"username":      update.Username,
		"email":         update.Email,
		"fullName":      update.FullName,
		"avatar":        update.Avatar,
		"avatarRef":     update.AvatarRef,
		"coverImage":    update.CoverImage,
		"coverImageRef": update.CoverImageRef,
		"password":      update.PasswordHash,
	}
	for key, v := range fields {
		if v != nil {
			set[key] = *v
		}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc userDocument
	err = s.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return doc.toModel(), nil
}

// SetRefreshToken skips document validation; only the token field changes.
func (s *MongoUserStore) SetRefreshToken(ctx context.Context, id, token string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	update := bson.M{"$set": bson.M{"refreshToken": token}}
	if token == "" {
		update = bson.M{"$unset": bson.M{"refreshToken": 1}}
	}

	opts := options.Update().SetBypassDocumentValidation(true)
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": oid}, update, opts)
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SwapRefreshToken matches on the previous token so two concurrent refreshes
// cannot both win.
func (s *MongoUserStore) SwapRefreshToken(ctx context.Context, id, expected, next string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	if expected == "" {
		return ErrStaleRefreshToken
	}

	opts := options.Update().SetBypassDocumentValidation(true)
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "refreshToken": expected},
		bson.M{"$set": bson.M{"refreshToken": next}},
		opts,
	)
	if err != nil {
		return fmt.Errorf("swap refresh token: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrStaleRefreshToken
	}
	return nil
}

func (s *MongoUserStore) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, nil)
}

func caseInsensitive(v string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(v) + "$", Options: "i"}
}
