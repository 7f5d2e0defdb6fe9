package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/creatorpulse/server/internal/auth"
	"github.com/creatorpulse/server/internal/logging"
	"github.com/creatorpulse/server/internal/models"
	"github.com/creatorpulse/server/internal/voice"
)

// Per-sample length bounds for voice training input
const (
	minSampleLength = 100
	maxSampleLength = 10000
	maxSampleCount  = 20
)

// VoiceAPI handles voice profile endpoints
type VoiceAPI struct {
	trainer        VoiceTrainer
	users          AuthService
	authMiddleware *auth.Middleware
	logger         *logging.Logger
}

// NewVoiceAPI creates a new voice API handler
func NewVoiceAPI(trainer VoiceTrainer, users AuthService, authMiddleware *auth.Middleware, logger *logging.Logger) *VoiceAPI {
	return &VoiceAPI{
		trainer:        trainer,
		users:          users,
		authMiddleware: authMiddleware,
		logger:         logger,
	}
}

// RegisterRoutes registers voice routes on the given mux
func (api *VoiceAPI) RegisterRoutes(mux *http.ServeMux, corsMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/train-voice", corsMiddleware(api.authMiddleware.RequireAuth(api.handleTrain)))
	mux.HandleFunc("/api/voice-profile", corsMiddleware(api.authMiddleware.RequireAuth(api.handleProfile)))
}

// handleProfile returns the caller's trained profile, or the untrained
// defaults when no training has run yet.
func (api *VoiceAPI) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := auth.GetUserID(r.Context())

	user, err := api.users.GetUser(r.Context(), userID)
	if err != nil {
		api.logger.Error("Failed to load voice profile", logging.WithField("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load voice profile")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "not_found", "user not found")
		return
	}

	profile := user.VoiceProfile
	if profile == nil {
		profile = &models.VoiceProfile{StyleParameters: models.DefaultStyleParameters()}
	}
	writeJSON(w, http.StatusOK, profile)
}

func (api *VoiceAPI) handleTrain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := auth.GetUserID(r.Context())

	var params struct {
		Samples []string `json:"samples"`
	}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	samples := make([]string, 0, len(params.Samples))
	for _, sample := range params.Samples {
		if trimmed := strings.TrimSpace(sample); trimmed != "" {
			samples = append(samples, trimmed)
		}
	}

	if len(samples) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "at least one writing sample is required")
		return
	}
	if len(samples) > maxSampleCount {
		writeError(w, http.StatusBadRequest, "invalid_request", "too many samples; send at most 20")
		return
	}
	for _, sample := range samples {
		if len(sample) < minSampleLength {
			writeError(w, http.StatusBadRequest, "invalid_request", "each sample must be at least 100 characters")
			return
		}
		if len(sample) > maxSampleLength {
			writeError(w, http.StatusBadRequest, "invalid_request", "each sample must be at most 10000 characters")
			return
		}
	}

	profile, err := api.trainer.Train(r.Context(), userID, samples)
	if err != nil {
		if errors.Is(err, voice.ErrAnalysisFailed) {
			writeError(w, http.StatusBadGateway, "analysis_failed", "voice analysis failed; the existing profile was left unchanged")
			return
		}
		api.logger.Error("Voice training failed", logging.WithFields(map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		}))
		writeError(w, http.StatusInternalServerError, "internal_error", "voice training failed")
		return
	}

	writeJSON(w, http.StatusOK, profile)
}
