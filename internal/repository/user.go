// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"time"

	"forum/internal/cache"
	"forum/internal/models"
	"forum/internal/observability"
	"forum/internal/validation"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.StoredUser, error)
	GetByName(ctx context.Context, name string) (*models.StoredUser, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*models.StoredUser, error)
	Create(ctx context.Context, user *models.StoredUser) (*models.StoredUser, error)
	UpdateName(ctx context.Context, id string, name string) (*models.StoredUser, error)
	DeleteAll(ctx context.Context) error
}

type userRepository struct {
	users   *mongo.Collection
	logger  *observability.RepoLogger
	metrics *observability.DatabaseMetrics
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(users *mongo.Collection) UserRepository {
	return &userRepository{
		users:   users,
		logger:  observability.NewRepoLogger("users"),
		metrics: observability.NewDatabaseMetrics(),
	}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.StoredUser, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.NewNotFoundError("User", id)
	}
	defer r.metrics.TrackQuery("findOne", "users")()

	var user models.StoredUser
	if err := r.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewNotFoundError("User", id)
		}
		r.logger.LogError(ctx, err, "read")
		return nil, models.NewInternalError(err)
	}
	if verr := validation.ValidateUser(&user); verr != nil {
		r.logger.LogInvalidDocument(ctx, id, verr)
		return nil, models.NewNotFoundError("User", id)
	}
	return &user, nil
}

// GetByName looks a user up by display name. Returns (nil, nil) on absence so
// callers can distinguish "free name" from a failed query.
func (r *userRepository) GetByName(ctx context.Context, name string) (*models.StoredUser, error) {
	defer r.metrics.TrackQuery("findOne", "users")()

	var user models.StoredUser
	if err := r.users.FindOne(ctx, bson.M{"name": name}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		r.logger.LogError(ctx, err, "read")
		return nil, models.NewInternalError(err)
	}
	validated, ok := validation.ValidateUserSafe(&user)
	if !ok {
		// A schema-invalid document is treated as absent, the same way the
		// batch read drops it from the result map.
		r.logger.LogInvalidDocument(ctx, user.ID.Hex(), errors.New("schema validation failed"))
		return nil, nil
	}
	return validated, nil
}

// GetByIDs batch-fetches users for author resolution. Unknown or malformed
// ids are simply absent from the result map.
func (r *userRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*models.StoredUser, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	result := make(map[string]*models.StoredUser, len(oids))
	if len(oids) == 0 {
		return result, nil
	}
	defer r.metrics.TrackQuery("find", "users")()

	cursor, err := r.users.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		r.logger.LogError(ctx, err, "read")
		return nil, models.NewInternalError(err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var user models.StoredUser
		if err := cursor.Decode(&user); err != nil {
			r.logger.LogError(ctx, err, "decode")
			continue
		}
		if validated, ok := validation.ValidateUserSafe(&user); ok {
			result[validated.ID.Hex()] = validated
		} else {
			r.logger.LogInvalidDocument(ctx, user.ID.Hex(), errors.New("schema validation failed"))
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, models.NewInternalError(err)
	}
	return result, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.StoredUser) (*models.StoredUser, error) {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	if err := validation.ValidateUser(user); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	defer r.metrics.TrackQuery("insertOne", "users")()

	res, err := r.users.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, models.NewConflictError("User already exists")
		}
		r.logger.LogError(ctx, err, "create")
		return nil, models.NewInternalError(err)
	}
	user.ID = res.InsertedID.(primitive.ObjectID)
	r.logger.LogCreate(ctx, map[string]interface{}{"user_id": user.ID.Hex(), "name": user.Name})
	return user, nil
}

// UpdateName atomically renames the user and returns the updated document.
func (r *userRepository) UpdateName(ctx context.Context, id string, name string) (*models.StoredUser, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.NewNotFoundError("User", id)
	}
	defer r.metrics.TrackQuery("findOneAndUpdate", "users")()

	update := bson.M{"$set": bson.M{"name": name, "updatedAt": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user models.StoredUser
	if err := r.users.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewNotFoundError("User", id)
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, models.NewConflictError("Username is already taken")
		}
		r.logger.LogError(ctx, err, "update")
		return nil, models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, id)
	if verr := validation.ValidateUser(&user); verr != nil {
		r.logger.LogInvalidDocument(ctx, id, verr)
		return nil, models.NewNotFoundError("User", id)
	}
	r.logger.LogUpdate(ctx, map[string]interface{}{"user_id": id, "name": name})
	return &user, nil
}

// DeleteAll wipes the collection. Used by the seeder and integration resets.
func (r *userRepository) DeleteAll(ctx context.Context) error {
	defer r.metrics.TrackQuery("deleteMany", "users")()
	if _, err := r.users.DeleteMany(ctx, bson.M{}); err != nil {
		r.logger.LogError(ctx, err, "delete")
		return models.NewInternalError(err)
	}
	r.logger.LogDelete(ctx, map[string]interface{}{"scope": "all"})
	return nil
}
