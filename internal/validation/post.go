package validation

import (
	"fmt"

	"forum/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ValidatePost enforces the post document schema, including the set
// invariant on the interaction lists: no user id may appear twice in likes
// or forwards, and every member must be a well-formed id reference (the
// superseded design embedded whole user snapshots there).
func ValidatePost(p *models.StoredPost) error {
	if p == nil {
		return fmt.Errorf("post document is nil")
	}
	if !isIDReference(p.Author) {
		return fmt.Errorf("post author must be a user id reference")
	}
	if p.Title == "" {
		return fmt.Errorf("post title is required")
	}
	if p.Body.Content == "" {
		return fmt.Errorf("post content is required")
	}
	if err := validateIDSet("likes", p.Interactions.Likes); err != nil {
		return err
	}
	if err := validateIDSet("forwards", p.Interactions.Forwards); err != nil {
		return err
	}
	for i, c := range p.Interactions.Comments {
		if !isIDReference(c.Author) {
			return fmt.Errorf("comment %d author must be a user id reference", i)
		}
		if c.Body.Content == "" {
			return fmt.Errorf("comment %d content is required", i)
		}
	}
	if p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
		return fmt.Errorf("post timestamps are missing")
	}
	return nil
}

// ValidatePostSafe is the non-throwing validator for query results. A false
// return means the document must be dropped from the result set.
func ValidatePostSafe(p *models.StoredPost) (*models.StoredPost, bool) {
	if err := ValidatePost(p); err != nil {
		return nil, false
	}
	return p, true
}

func validateIDSet(field string, ids []string) error {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if !isIDReference(id) {
			return fmt.Errorf("%s entry %q is not a user id reference", field, id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%s contains duplicate id %q", field, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func isIDReference(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}
