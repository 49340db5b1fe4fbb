package service

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"forum/internal/models"
	"forum/internal/repository"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected *models.AppError, got %T: %v", err, err)
	require.Equal(t, code, appErr.Code)
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeValidation)
}

func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeForbidden)
}

func assertConflictError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeConflict)
}

func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeNotFound)
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn       func(context.Context, *models.StoredPost) (*models.StoredPost, error)
	getByIDFn      func(context.Context, string) (*models.StoredPost, error)
	listFn         func(context.Context) ([]models.StoredPost, error)
	listByAuthorFn func(context.Context, string) ([]models.StoredPost, error)
	updateFn       func(context.Context, string, repository.PostUpdate) (*models.StoredPost, error)
	deleteFn       func(context.Context, string) error
	searchFn       func(context.Context, string) ([]models.StoredPost, error)
	toggleFn       func(context.Context, string, repository.InteractionKind, string) (*models.StoredPost, error)
	addCommentFn   func(context.Context, string, models.Comment) (*models.StoredPost, error)
	deleteAllFn    func(context.Context) error
}

func (s *postRepoStub) Create(ctx context.Context, p *models.StoredPost) (*models.StoredPost, error) {
	return s.createFn(ctx, p)
}
func (s *postRepoStub) GetByID(ctx context.Context, id string) (*models.StoredPost, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context) ([]models.StoredPost, error) {
	return s.listFn(ctx)
}
func (s *postRepoStub) ListByAuthor(ctx context.Context, authorID string) ([]models.StoredPost, error) {
	return s.listByAuthorFn(ctx, authorID)
}
func (s *postRepoStub) Update(ctx context.Context, id string, u repository.PostUpdate) (*models.StoredPost, error) {
	return s.updateFn(ctx, id, u)
}
func (s *postRepoStub) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) Search(ctx context.Context, q string) ([]models.StoredPost, error) {
	return s.searchFn(ctx, q)
}
func (s *postRepoStub) ToggleInteraction(ctx context.Context, id string, kind repository.InteractionKind, userID string) (*models.StoredPost, error) {
	return s.toggleFn(ctx, id, kind, userID)
}
func (s *postRepoStub) AddComment(ctx context.Context, id string, c models.Comment) (*models.StoredPost, error) {
	return s.addCommentFn(ctx, id, c)
}
func (s *postRepoStub) DeleteAll(ctx context.Context) error {
	return s.deleteAllFn(ctx)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, p *models.StoredPost) (*models.StoredPost, error) {
			p.ID = primitive.NewObjectID()
			return p, nil
		},
		getByIDFn: func(_ context.Context, _ string) (*models.StoredPost, error) {
			return &models.StoredPost{ID: primitive.NewObjectID()}, nil
		},
		listFn:         func(_ context.Context) ([]models.StoredPost, error) { return nil, nil },
		listByAuthorFn: func(_ context.Context, _ string) ([]models.StoredPost, error) { return nil, nil },
		updateFn: func(_ context.Context, _ string, _ repository.PostUpdate) (*models.StoredPost, error) {
			return &models.StoredPost{ID: primitive.NewObjectID()}, nil
		},
		deleteFn: func(_ context.Context, _ string) error { return nil },
		searchFn: func(_ context.Context, _ string) ([]models.StoredPost, error) { return nil, nil },
		toggleFn: func(_ context.Context, _ string, _ repository.InteractionKind, _ string) (*models.StoredPost, error) {
			return &models.StoredPost{ID: primitive.NewObjectID()}, nil
		},
		addCommentFn: func(_ context.Context, _ string, _ models.Comment) (*models.StoredPost, error) {
			return &models.StoredPost{ID: primitive.NewObjectID()}, nil
		},
		deleteAllFn: func(_ context.Context) error { return nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn    func(context.Context, string) (*models.StoredUser, error)
	getByNameFn  func(context.Context, string) (*models.StoredUser, error)
	getByIDsFn   func(context.Context, []string) (map[string]*models.StoredUser, error)
	createFn     func(context.Context, *models.StoredUser) (*models.StoredUser, error)
	updateNameFn func(context.Context, string, string) (*models.StoredUser, error)
	deleteAllFn  func(context.Context) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id string) (*models.StoredUser, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByName(ctx context.Context, name string) (*models.StoredUser, error) {
	return s.getByNameFn(ctx, name)
}
func (s *userRepoStub) GetByIDs(ctx context.Context, ids []string) (map[string]*models.StoredUser, error) {
	return s.getByIDsFn(ctx, ids)
}
func (s *userRepoStub) Create(ctx context.Context, u *models.StoredUser) (*models.StoredUser, error) {
	return s.createFn(ctx, u)
}
func (s *userRepoStub) UpdateName(ctx context.Context, id, name string) (*models.StoredUser, error) {
	return s.updateNameFn(ctx, id, name)
}
func (s *userRepoStub) DeleteAll(ctx context.Context) error {
	return s.deleteAllFn(ctx)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id string) (*models.StoredUser, error) {
			oid, err := primitive.ObjectIDFromHex(id)
			if err != nil {
				return nil, models.NewNotFoundError("User", id)
			}
			return testUser(oid, "someone"), nil
		},
		getByNameFn: func(_ context.Context, _ string) (*models.StoredUser, error) { return nil, nil },
		getByIDsFn: func(_ context.Context, ids []string) (map[string]*models.StoredUser, error) {
			out := make(map[string]*models.StoredUser, len(ids))
			for _, id := range ids {
				if oid, err := primitive.ObjectIDFromHex(id); err == nil {
					out[id] = testUser(oid, "someone")
				}
			}
			return out, nil
		},
		createFn: func(_ context.Context, u *models.StoredUser) (*models.StoredUser, error) {
			u.ID = primitive.NewObjectID()
			return u, nil
		},
		updateNameFn: func(_ context.Context, id, name string) (*models.StoredUser, error) {
			oid, err := primitive.ObjectIDFromHex(id)
			if err != nil {
				return nil, models.NewNotFoundError("User", id)
			}
			return testUser(oid, name), nil
		},
		deleteAllFn: func(_ context.Context) error { return nil },
	}
}

func testUser(id primitive.ObjectID, name string) *models.StoredUser {
	now := time.Now().UTC()
	return &models.StoredUser{
		ID:    id,
		Name:  name,
		Email: name + "@example.com",
		Credentials: models.Credentials{
			Salt: "$2a$10$N9qo8uLOickgx2ZMRZoMye",
			Hash: "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func testPost(author string) *models.StoredPost {
	now := time.Now().UTC()
	return &models.StoredPost{
		ID:     primitive.NewObjectID(),
		Author: author,
		Title:  "a title",
		Body:   models.PostBody{Content: "some content", Images: []string{}},
		Interactions: models.Interactions{
			Likes:    []string{},
			Forwards: []string{},
			Comments: []models.Comment{},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// memoryPostRepo is an in-memory PostRepository with the same toggle and
// comment semantics as the real store. It backs the concurrency and
// set-invariant tests.
type memoryPostRepo struct {
	mu    sync.Mutex
	posts map[string]*models.StoredPost
}

func newMemoryPostRepo() *memoryPostRepo {
	return &memoryPostRepo{posts: make(map[string]*models.StoredPost)}
}

func (r *memoryPostRepo) put(p *models.StoredPost) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts[p.ID.Hex()] = p
}

func clonePost(p *models.StoredPost) *models.StoredPost {
	cp := *p
	cp.Body.Images = slices.Clone(p.Body.Images)
	cp.Interactions.Likes = slices.Clone(p.Interactions.Likes)
	cp.Interactions.Forwards = slices.Clone(p.Interactions.Forwards)
	cp.Interactions.Comments = slices.Clone(p.Interactions.Comments)
	return &cp
}

func (r *memoryPostRepo) Create(_ context.Context, p *models.StoredPost) (*models.StoredPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.posts[p.ID.Hex()] = clonePost(p)
	return clonePost(p), nil
}

func (r *memoryPostRepo) GetByID(_ context.Context, id string) (*models.StoredPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, models.NewNotFoundError("Post", id)
	}
	return clonePost(p), nil
}

func (r *memoryPostRepo) List(_ context.Context) ([]models.StoredPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.StoredPost, 0, len(r.posts))
	for _, p := range r.posts {
		out = append(out, *clonePost(p))
	}
	return out, nil
}

func (r *memoryPostRepo) ListByAuthor(_ context.Context, authorID string) ([]models.StoredPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.StoredPost, 0)
	for _, p := range r.posts {
		if p.Author == authorID {
			out = append(out, *clonePost(p))
		}
	}
	return out, nil
}

func (r *memoryPostRepo) Update(_ context.Context, id string, u repository.PostUpdate) (*models.StoredPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, models.NewNotFoundError("Post", id)
	}
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Content != nil {
		p.Body.Content = *u.Content
	}
	if u.Images != nil {
		p.Body.Images = append([]string(nil), (*u.Images)...)
	}
	p.UpdatedAt = time.Now().UTC()
	return clonePost(p), nil
}

func (r *memoryPostRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return models.NewNotFoundError("Post", id)
	}
	delete(r.posts, id)
	return nil
}

func (r *memoryPostRepo) Search(_ context.Context, _ string) ([]models.StoredPost, error) {
	return r.List(context.Background())
}

func (r *memoryPostRepo) ToggleInteraction(_ context.Context, id string, kind repository.InteractionKind, userID string) (*models.StoredPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, models.NewNotFoundError("Post", id)
	}
	target := &p.Interactions.Likes
	if kind == repository.InteractionForward {
		target = &p.Interactions.Forwards
	}
	idx := -1
	for i, v := range *target {
		if v == userID {
			idx = i
			break
		}
	}
	if idx >= 0 {
		*target = append((*target)[:idx], (*target)[idx+1:]...)
	} else {
		*target = append(*target, userID)
	}
	p.UpdatedAt = time.Now().UTC()
	return clonePost(p), nil
}

func (r *memoryPostRepo) AddComment(_ context.Context, id string, c models.Comment) (*models.StoredPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, models.NewNotFoundError("Post", id)
	}
	p.Interactions.Comments = append(p.Interactions.Comments, c)
	p.UpdatedAt = time.Now().UTC()
	return clonePost(p), nil
}

func (r *memoryPostRepo) DeleteAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts = make(map[string]*models.StoredPost)
	return nil
}
