package tasks

import (
	"fmt"

	"github.com/desertthunder/snapmix/internal/models"
	"github.com/desertthunder/snapmix/internal/params"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within the cycle
	Total   int    // Total steps in the cycle
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Authorize Phase = iota
	LoadProfile
	EncodeImage
	AnalyzeImage
	ParseParams
	FetchRecommendations
	RecordRun
	Done
)

func (p Phase) String() string {
	switch p {
	case Authorize:
		return "authorize"
	case LoadProfile:
		return "load_profile"
	case EncodeImage:
		return "encode_image"
	case AnalyzeImage:
		return "analyze_image"
	case ParseParams:
		return "parse_params"
	case FetchRecommendations:
		return "fetch_recommendations"
	case RecordRun:
		return "record_run"
	case Done:
		return "done"
	default:
		return ""
	}
}

// cycleSteps is the number of phases a full [Pipeline.Run] reports, excluding authorization.
const cycleSteps = 6

func authorizeUpdate(stored bool) ProgressUpdate {
	msg := "Exchanging authorization code..."
	if stored {
		msg = "Using saved Spotify token..."
	}
	return ProgressUpdate{Phase: Authorize, Step: 1, Total: 1, Message: msg}
}

func loadingProfileUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadProfile,
		Step:    step,
		Total:   total,
		Message: "Loading Spotify profile and top tracks...",
	}
}

func profileLoadedUpdate(step, total int, profile *models.Profile, top []models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadProfile,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Signed in as %s (%d top tracks)", profile.Name(), len(top)),
		Data:    profile,
	}
}

func encodeUpdate(step, total int, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   EncodeImage,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Reading %s...", path),
	}
}

func analyzeUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AnalyzeImage,
		Step:    step,
		Total:   total,
		Message: "Analyzing photo mood...",
	}
}

func parsedUpdate(step, total int, set params.Set, skipped int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ParseParams,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Parsed %d parameters (%d lines skipped)", set.Len(), skipped),
		Data:    set,
	}
}

func recommendingUpdate(step, total, seeds int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchRecommendations,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching recommendations from %d seed tracks...", seeds),
	}
}

func recordUpdate(step, total int, run *models.AnalysisRun) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RecordRun,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Saved run #%d", run.Sequence()),
		Data:    run,
	}
}

func doneUpdate(tracks []models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    cycleSteps,
		Total:   cycleSteps,
		Message: fmt.Sprintf("✓ %d recommendations", len(tracks)),
		Data:    tracks,
	}
}
