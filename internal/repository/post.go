package repository

import (
	"context"
	"errors"
	"regexp"
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

// InteractionKind selects which interaction set a toggle targets.
type InteractionKind string

const (
	InteractionLike    InteractionKind = "likes"
	InteractionForward InteractionKind = "forwards"
)

// PostUpdate carries the fields of a partial post update. Nil pointers mean
// "leave unchanged"; in particular omitted Images preserves the stored list.
type PostUpdate struct {
	Title   *string
	Content *string
	Images  *[]string
}

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	Create(ctx context.Context, post *models.StoredPost) (*models.StoredPost, error)
	GetByID(ctx context.Context, id string) (*models.StoredPost, error)
	List(ctx context.Context) ([]models.StoredPost, error)
	ListByAuthor(ctx context.Context, authorID string) ([]models.StoredPost, error)
	Update(ctx context.Context, id string, update PostUpdate) (*models.StoredPost, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query string) ([]models.StoredPost, error)
	ToggleInteraction(ctx context.Context, id string, kind InteractionKind, userID string) (*models.StoredPost, error)
	AddComment(ctx context.Context, id string, comment models.Comment) (*models.StoredPost, error)
	DeleteAll(ctx context.Context) error
}

type postRepository struct {
	posts   *mongo.Collection
	logger  *observability.RepoLogger
	metrics *observability.DatabaseMetrics
}

// NewPostRepository returns a new PostRepository implementation.
func NewPostRepository(posts *mongo.Collection) PostRepository {
	return &postRepository{
		posts:   posts,
		logger:  observability.NewRepoLogger("posts"),
		metrics: observability.NewDatabaseMetrics(),
	}
}

func (r *postRepository) Create(ctx context.Context, post *models.StoredPost) (*models.StoredPost, error) {
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.Body.Images == nil {
		post.Body.Images = []string{}
	}
	if post.Interactions.Likes == nil {
		post.Interactions.Likes = []string{}
	}
	if post.Interactions.Forwards == nil {
		post.Interactions.Forwards = []string{}
	}
	if post.Interactions.Comments == nil {
		post.Interactions.Comments = []models.Comment{}
	}
	if err := validation.ValidatePost(post); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	defer r.metrics.TrackQuery("insertOne", "posts")()

	res, err := r.posts.InsertOne(ctx, post)
	if err != nil {
		r.logger.LogError(ctx, err, "create")
		return nil, models.NewInternalError(err)
	}
	post.ID = res.InsertedID.(primitive.ObjectID)
	cache.InvalidatePost(ctx, post.ID.Hex(), post.Author)
	r.logger.LogCreate(ctx, map[string]interface{}{"post_id": post.ID.Hex(), "author": post.Author})
	return post, nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.StoredPost, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.NewNotFoundError("Post", id)
	}

	var post models.StoredPost
	key := cache.PostKey(id)
	cerr := cache.CacheAside(ctx, key, &post, cache.PostTTL, func() error {
		defer r.metrics.TrackQuery("findOne", "posts")()
		if err := r.posts.FindOne(ctx, bson.M{"_id": oid}).Decode(&post); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return models.NewNotFoundError("Post", id)
			}
			r.logger.LogError(ctx, err, "read")
			return models.NewInternalError(err)
		}
		return nil
	})
	if cerr != nil {
		return nil, cerr
	}
	if verr := validation.ValidatePost(&post); verr != nil {
		r.logger.LogInvalidDocument(ctx, id, verr)
		return nil, models.NewNotFoundError("Post", id)
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context) ([]models.StoredPost, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.find(ctx, bson.M{}, opts)
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID string) ([]models.StoredPost, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.find(ctx, bson.M{"author": authorID}, opts)
}

// Search matches the query case-insensitively against title and content.
func (r *postRepository) Search(ctx context.Context, query string) ([]models.StoredPost, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	filter := bson.M{"$or": bson.A{
		bson.M{"title": pattern},
		bson.M{"body.content": pattern},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.find(ctx, filter, opts)
}

// find runs the query and decodes documents one at a time so a single
// malformed document is dropped instead of failing the whole result set.
func (r *postRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.StoredPost, error) {
	defer r.metrics.TrackQuery("find", "posts")()

	cursor, err := r.posts.Find(ctx, filter, opts)
	if err != nil {
		r.logger.LogError(ctx, err, "read")
		return nil, models.NewInternalError(err)
	}
	defer cursor.Close(ctx)

	posts := make([]models.StoredPost, 0)
	for cursor.Next(ctx) {
		var post models.StoredPost
		if err := cursor.Decode(&post); err != nil {
			r.logger.LogError(ctx, err, "decode")
			continue
		}
		if validated, ok := validation.ValidatePostSafe(&post); ok {
			posts = append(posts, *validated)
		} else {
			r.logger.LogInvalidDocument(ctx, post.ID.Hex(), errors.New("schema validation failed"))
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) Update(ctx context.Context, id string, update PostUpdate) (*models.StoredPost, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.NewNotFoundError("Post", id)
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Content != nil {
		set["body.content"] = *update.Content
	}
	if update.Images != nil {
		set["body.images"] = *update.Images
	}
	defer r.metrics.TrackQuery("findOneAndUpdate", "posts")()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var post models.StoredPost
	if err := r.posts.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&post); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewNotFoundError("Post", id)
		}
		r.logger.LogError(ctx, err, "update")
		return nil, models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, id, post.Author)
	if verr := validation.ValidatePost(&post); verr != nil {
		r.logger.LogInvalidDocument(ctx, id, verr)
		return nil, models.NewNotFoundError("Post", id)
	}
	r.logger.LogUpdate(ctx, map[string]interface{}{"post_id": id})
	return &post, nil
}

func (r *postRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.NewNotFoundError("Post", id)
	}
	defer r.metrics.TrackQuery("findOneAndDelete", "posts")()

	var post models.StoredPost
	if err := r.posts.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&post); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.NewNotFoundError("Post", id)
		}
		r.logger.LogError(ctx, err, "delete")
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, id, post.Author)
	r.logger.LogDelete(ctx, map[string]interface{}{"post_id": id})
	return nil
}

// ToggleInteraction flips the user's membership in the likes or forwards set
// with a single pipeline update, so concurrent toggles by different users
// never clobber each other. Membership is evaluated server-side against the
// current array.
func (r *postRepository) ToggleInteraction(ctx context.Context, id string, kind InteractionKind, userID string) (*models.StoredPost, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.NewNotFoundError("Post", id)
	}
	field := "interactions." + string(kind)
	// Tolerate documents written before the interaction lists existed.
	current := bson.M{"$ifNull": bson.A{"$" + field, bson.A{}}}

	pipeline := bson.A{
		bson.M{"$set": bson.M{
			field: bson.M{"$cond": bson.A{
				bson.M{"$in": bson.A{userID, current}},
				bson.M{"$setDifference": bson.A{current, bson.A{userID}}},
				bson.M{"$concatArrays": bson.A{current, bson.A{userID}}},
			}},
			"updatedAt": "$$NOW",
		}},
	}
	defer r.metrics.TrackQuery("findOneAndUpdate", "posts")()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var post models.StoredPost
	if err := r.posts.FindOneAndUpdate(ctx, bson.M{"_id": oid}, pipeline, opts).Decode(&post); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewNotFoundError("Post", id)
		}
		r.logger.LogError(ctx, err, "update")
		return nil, models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, id, post.Author)
	if verr := validation.ValidatePost(&post); verr != nil {
		r.logger.LogInvalidDocument(ctx, id, verr)
		return nil, models.NewNotFoundError("Post", id)
	}
	return &post, nil
}

// AddComment appends the comment and returns the updated document.
func (r *postRepository) AddComment(ctx context.Context, id string, comment models.Comment) (*models.StoredPost, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.NewNotFoundError("Post", id)
	}
	defer r.metrics.TrackQuery("findOneAndUpdate", "posts")()

	update := bson.M{
		"$push": bson.M{"interactions.comments": comment},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var post models.StoredPost
	if err := r.posts.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&post); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewNotFoundError("Post", id)
		}
		r.logger.LogError(ctx, err, "update")
		return nil, models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, id, post.Author)
	if verr := validation.ValidatePost(&post); verr != nil {
		r.logger.LogInvalidDocument(ctx, id, verr)
		return nil, models.NewNotFoundError("Post", id)
	}
	r.logger.LogUpdate(ctx, map[string]interface{}{"post_id": id, "operation": "comment"})
	return &post, nil
}

// DeleteAll wipes the collection. Used by the seeder and integration resets.
func (r *postRepository) DeleteAll(ctx context.Context) error {
	defer r.metrics.TrackQuery("deleteMany", "posts")()
	if _, err := r.posts.DeleteMany(ctx, bson.M{}); err != nil {
		r.logger.LogError(ctx, err, "delete")
		return models.NewInternalError(err)
	}
	r.logger.LogDelete(ctx, map[string]interface{}{"scope": "all"})
	return nil
}
