package models

import (
	"errors"
	"time"
)

// AnalysisRun is the persisted record of one analysis cycle.
type AnalysisRun struct {
	id              string
	sequence        int
	userID          string
	mediaType       string
	imageDigest     string
	rawAnalysis     string
	params          map[string]string
	seedTrackIDs    []string
	recommendations []Track
	createdAt       time.Time
	updatedAt       time.Time
	deletedAt       *time.Time
}

// NewAnalysisRun creates an unsaved run; the repository assigns ID and sequence on Create.
func NewAnalysisRun(userID, mediaType, imageDigest, rawAnalysis string) *AnalysisRun {
	now := time.Now().UTC()
	return &AnalysisRun{
		userID:      userID,
		mediaType:   mediaType,
		imageDigest: imageDigest,
		rawAnalysis: rawAnalysis,
		params:      map[string]string{},
		createdAt:   now,
		updatedAt:   now,
	}
}

func (r *AnalysisRun) ID() string                   { return r.id }
func (r *AnalysisRun) Sequence() int                { return r.sequence }
func (r *AnalysisRun) UserID() string               { return r.userID }
func (r *AnalysisRun) MediaType() string            { return r.mediaType }
func (r *AnalysisRun) ImageDigest() string          { return r.imageDigest }
func (r *AnalysisRun) RawAnalysis() string          { return r.rawAnalysis }
func (r *AnalysisRun) Params() map[string]string    { return r.params }
func (r *AnalysisRun) SeedTrackIDs() []string       { return r.seedTrackIDs }
func (r *AnalysisRun) Recommendations() []Track     { return r.recommendations }
func (r *AnalysisRun) CreatedAt() time.Time         { return r.createdAt }
func (r *AnalysisRun) UpdatedAt() time.Time         { return r.updatedAt }
func (r *AnalysisRun) DeletedAt() *time.Time        { return r.deletedAt }
func (r *AnalysisRun) IsDeleted() bool              { return r.deletedAt != nil }
func (r *AnalysisRun) SetID(id string)              { r.id = id }
func (r *AnalysisRun) SetSequence(seq int)          { r.sequence = seq }
func (r *AnalysisRun) SetCreatedAt(t time.Time)     { r.createdAt = t }
func (r *AnalysisRun) SetUpdatedAt(t time.Time)     { r.updatedAt = t }
func (r *AnalysisRun) SetDeletedAt(t *time.Time)    { r.deletedAt = t }
func (r *AnalysisRun) SetSeedTrackIDs(ids []string) { r.seedTrackIDs = ids }

// SetParams stores the parsed parameters in their wire form.
func (r *AnalysisRun) SetParams(p map[string]string) {
	if p == nil {
		p = map[string]string{}
	}
	r.params = p
}

// SetRecommendations replaces the stored recommendations.
func (r *AnalysisRun) SetRecommendations(tracks []Track) {
	r.recommendations = tracks
}

// Validate checks the fields the database requires.
func (r *AnalysisRun) Validate() error {
	if r.mediaType == "" {
		return errors.New("media type is required")
	}
	if r.imageDigest == "" {
		return errors.New("image digest is required")
	}
	return nil
}
