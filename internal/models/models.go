// package models defines the data model for snapmix
package models

import (
	"strings"
	"time"
)

// Model defines the base interface for all persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Track is a Spotify track as shown to the user.
type Track struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Artists []string `json:"artists"`
}

// ArtistLine joins the artist names the way the results table shows them.
func (t Track) ArtistLine() string {
	return strings.Join(t.Artists, ", ")
}

// Profile is the authenticated Spotify user.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Country     string `json:"country,omitempty"`
	Product     string `json:"product,omitempty"`
}

// Name prefers the display name and falls back to the user ID.
func (p Profile) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.ID
}

// TrackIDs returns the IDs of tracks in order, skipping blanks.
func TrackIDs(tracks []Track) []string {
	ids := make([]string, 0, len(tracks))
	for _, t := range tracks {
		if t.ID != "" {
			ids = append(ids, t.ID)
		}
	}
	return ids
}
