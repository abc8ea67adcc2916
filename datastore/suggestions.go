package datastore

import (
	"context"
	"fmt"
	"time"

	"github.com/coreybb/couponbook/docstore"
	"github.com/coreybb/couponbook/models"
)

type SuggestionRepository struct {
	suggestions *docstore.Collection[models.Suggestion]
	now         func() time.Time
}

func NewSuggestionRepository(suggestions *docstore.Collection[models.Suggestion]) *SuggestionRepository {
	return &SuggestionRepository{suggestions: suggestions, now: time.Now}
}

// CreateSuggestion stamps CreatedAt and appends the suggestion.
func (r *SuggestionRepository) CreateSuggestion(ctx context.Context, userID, content string) (*models.Suggestion, error) {
	var created models.Suggestion
	err := r.suggestions.Update(ctx, func(suggestions []models.Suggestion) ([]models.Suggestion, error) {
		taken := idSet(suggestions, func(s models.Suggestion) string { return s.ID })
		created = models.Suggestion{
			ID:        newID(taken),
			UserID:    userID,
			Content:   content,
			CreatedAt: r.now().UTC(),
		}
		return append(suggestions, created), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert suggestion: %w", err)
	}
	return &created, nil
}

func (r *SuggestionRepository) GetSuggestions(ctx context.Context) []models.Suggestion {
	return r.suggestions.Load(ctx)
}

func (r *SuggestionRepository) DeleteSuggestion(ctx context.Context, suggestionID string) error {
	err := r.suggestions.Update(ctx, func(suggestions []models.Suggestion) ([]models.Suggestion, error) {
		for i := range suggestions {
			if suggestions[i].ID == suggestionID {
				return append(suggestions[:i], suggestions[i+1:]...), nil
			}
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return fmt.Errorf("failed to delete suggestion %s: %w", suggestionID, err)
	}
	return nil
}
