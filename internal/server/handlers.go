package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"ytgrab/internal/domain"
	"ytgrab/internal/orchestrator"
	"ytgrab/internal/ports"
)

type downloadPayload struct {
	URL     string `json:"url"`
	Format  string `json:"format"`
	Quality string `json:"quality"`
}

// handleDownload accepts a download request, runs every synchronous check,
// records the Started attempt and enqueues the background job. The
// orchestration outcome is observable only through /history.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload downloadPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if payload.Format == "" {
		payload.Format = string(domain.FormatMP4)
	}
	if payload.Quality == "" {
		payload.Quality = "720p"
	}

	request := domain.DownloadRequest{
		URL:     strings.TrimSpace(payload.URL),
		Format:  domain.Format(payload.Format),
		Quality: domain.Quality(payload.Quality),
	}

	if !domain.IsValidYouTubeURL(request.URL) {
		s.reject(w, http.StatusBadRequest, "Invalid YouTube URL format.")
		return
	}
	if !domain.IsAllowedFormat(request.Format) {
		s.reject(w, http.StatusBadRequest,
			fmt.Sprintf("Unsupported format. Allowed: %v", domain.AllowedFormats))
		return
	}
	if request.Format != domain.FormatMP3 && !domain.IsAllowedQuality(request.Quality) {
		s.reject(w, http.StatusBadRequest,
			fmt.Sprintf("Unsupported quality. Allowed: %v", domain.AllowedQualities))
		return
	}

	allowed, err := s.limiter.Allow(ctx, clientIP(r))
	if err != nil {
		s.logger.Error("rate limit check failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "rate limit check failed")
		return
	}
	if !allowed {
		s.reject(w, http.StatusTooManyRequests, domain.ErrRateLimitExceeded.Error())
		return
	}

	probe, err := s.gate.Check(ctx, request.URL)
	if err != nil {
		s.writeError(w, gateStatus(err), err.Error())
		return
	}
	s.metadata.Memoize(ctx, request.URL, probe)

	id, err := s.history.Create(ctx, request.URL)
	if err != nil {
		s.logger.Error("failed to create history record", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to record download")
		return
	}

	fileRoot := fmt.Sprintf("download_%d", time.Now().UnixNano())
	fileName := fmt.Sprintf("%s.%s", fileRoot, request.Format)
	job := orchestrator.Job{
		AttemptID:      id,
		Request:        request,
		OutputPath:     filepath.Join(s.cfg.Downloads.Dir, fileName),
		OutputLocation: "/files/" + fileName,
	}

	if err := s.queue.Publish(ctx, &ports.QueueMessage{Target: s.cfg.Queue.Name, Body: job}); err != nil {
		s.logger.Error("failed to enqueue download", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to start download")
		return
	}

	s.metrics.IncrementCounter("requests.accepted", map[string]string{"format": string(request.Format)})
	s.writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"status":  "success",
		"message": "Download started",
		"id":      id,
	})
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	url := strings.TrimSpace(r.URL.Query().Get("url"))
	if !domain.IsValidYouTubeURL(url) {
		s.reject(w, http.StatusBadRequest, "Invalid YouTube URL format.")
		return
	}

	metadata, err := s.metadata.GetOrFetch(r.Context(), url)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrMetadataUnavailable) {
			status = http.StatusBadGateway
		}
		s.writeError(w, status, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, metadata)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	attempts, err := s.history.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list history", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list history")
		return
	}
	if attempts == nil {
		attempts = []domain.DownloadAttempt{}
	}
	s.writeJSON(w, http.StatusOK, attempts)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// reject counts and writes a synchronous rejection.
func (s *Server) reject(w http.ResponseWriter, status int, detail string) {
	s.metrics.IncrementCounter("requests.rejected",
		map[string]string{"status": fmt.Sprintf("%d", status)})
	s.writeError(w, status, detail)
}

// gateStatus maps constraint-gate errors to HTTP status codes.
func gateStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrVideoTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrVideoTooLong):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrMetadataUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
