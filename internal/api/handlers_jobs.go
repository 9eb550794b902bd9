// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package api

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/motionprod/motion-productions/internal/blob"
	"github.com/motionprod/motion-productions/internal/database"
	"github.com/motionprod/motion-productions/internal/logging"
	"github.com/motionprod/motion-productions/internal/metrics"
	"github.com/motionprod/motion-productions/internal/models"
)

type createJobRequest struct {
	Prompt          string   `json:"prompt"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
	WorkflowType    *string  `json:"workflow_type,omitempty"`
}

// jobResponse is a job row plus the derived download URL.
type jobResponse struct {
	*models.Job
	DownloadURL string `json:"download_url,omitempty"`
	Rating      *int   `json:"rating,omitempty"`
}

func (s *Server) jobView(job *models.Job) *jobResponse {
	resp := &jobResponse{Job: job}
	if job.Status == models.JobStatusCompleted && job.R2Key != nil && *job.R2Key != "" {
		resp.DownloadURL = fmt.Sprintf("/jobs/%s/download", job.ID)
	}
	return resp
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := decodeJSON(w, r, &req, 1<<20); err != nil {
		return
	}

	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Prompt == "" {
		respondError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	if len(req.Prompt) > models.MaxPromptLen {
		respondError(w, http.StatusBadRequest, "prompt too long",
			fmt.Sprintf("maximum length is %d", models.MaxPromptLen))
		return
	}
	if req.WorkflowType != nil && !models.ValidWorkflowType(*req.WorkflowType) {
		respondError(w, http.StatusBadRequest, "invalid workflow_type",
			"must be one of explorer, exploiter, main, web")
		return
	}
	if req.DurationSeconds != nil && (*req.DurationSeconds <= 0 || *req.DurationSeconds > 60) {
		respondError(w, http.StatusBadRequest, "invalid duration_seconds", "must be in (0,60]")
		return
	}

	job, err := s.db.CreateJob(r.Context(), req.Prompt, req.DurationSeconds, req.WorkflowType)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	if n, err := s.db.CountJobs(r.Context(), ""); err == nil {
		metrics.SetJobsTotal(int64(n))
	}
	respondJSON(w, http.StatusCreated, s.jobView(job))
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && status != models.JobStatusPending &&
		status != models.JobStatusCompleted && status != models.JobStatusFailed {
		respondError(w, http.StatusBadRequest, "invalid status filter")
		return
	}

	limit := queryInt(r, "limit", 100, 100)
	if status == models.JobStatusPending {
		// The renderer queue is consumed whole, so the pending bound must
		// exceed any realistic backlog; the loop feeds one job at a time,
		// making thousands of queued jobs already a pathological state.
		limit = queryInt(r, "limit", 5000, 5000)
	}

	jobs, err := s.db.ListJobs(r.Context(), status, limit, queryInt(r, "offset", 0, 1<<30))
	if err != nil {
		respondStoreError(w, err)
		return
	}

	out := make([]*jobResponse, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, s.jobView(job))
	}
	respondJSON(w, http.StatusOK, map[string]any{"jobs": out, "count": len(out)})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.db.GetJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	view := s.jobView(job)
	if rating, err := s.db.GetFeedback(r.Context(), job.ID); err == nil {
		view.Rating = &rating
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleUploadVideo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := s.db.GetJob(r.Context(), id)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if job.Status == models.JobStatusCompleted {
		respondError(w, http.StatusBadRequest, "job already has video")
		return
	}

	data, contentType, err := s.readUpload(w, r)
	if err != nil {
		return
	}
	if len(data) == 0 {
		respondError(w, http.StatusBadRequest, "empty upload body")
		return
	}

	key := blob.JobVideoKey(id)
	if err := s.blobs.Put(r.Context(), key, data, contentType); err != nil {
		logging.Error().Err(err).Str("job_id", id).Msg("Blob upload failed")
		respondError(w, http.StatusInternalServerError, "failed to store video", err.Error())
		return
	}
	if err := s.db.SetJobR2Key(r.Context(), id, key); err != nil {
		respondStoreError(w, err)
		return
	}

	job, err = s.db.GetJob(r.Context(), id)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	logging.Info().Str("job_id", id).Int("bytes", len(data)).Msg("Video uploaded")
	respondJSON(w, http.StatusOK, s.jobView(job))
}

// readUpload accepts either a raw body or a multipart form with a "file"
// (or "video") part.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	maxBytes := s.cfg.API.MaxUploadBytes
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			respondError(w, http.StatusBadRequest, "invalid multipart body", err.Error())
			return nil, "", err
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			file, header, err = r.FormFile("video")
		}
		if err != nil {
			respondError(w, http.StatusBadRequest, "missing file part")
			return nil, "", err
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			respondError(w, http.StatusBadRequest, "failed to read file part", err.Error())
			return nil, "", err
		}
		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "video/mp4"
		}
		return data, contentType, nil
	}

	data, err := readBody(w, r, maxBytes)
	if err != nil {
		return nil, "", err
	}
	contentType := mediaType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = "video/mp4"
	}
	return data, contentType, nil
}

func (s *Server) handleDownloadVideo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := s.db.GetJob(r.Context(), id)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if job.Status != models.JobStatusCompleted || job.R2Key == nil {
		respondError(w, http.StatusNotFound, "no video for job")
		return
	}

	obj, err := s.blobs.Get(r.Context(), *job.R2Key)
	if errors.Is(err, blob.ErrNotFound) {
		respondError(w, http.StatusNotFound, "video blob missing")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch video", err.Error())
		return
	}

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(obj.Data); err != nil {
		logging.Warn().Err(err).Str("job_id", id).Msg("Video stream interrupted")
	}
}

type feedbackRequest struct {
	Rating int `json:"rating"`
}

func (s *Server) handleJobFeedback(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.db.GetJob(r.Context(), id); err != nil {
		respondStoreError(w, err)
		return
	}

	var req feedbackRequest
	if err := decodeJSON(w, r, &req, 1<<16); err != nil {
		return
	}
	if req.Rating != 1 && req.Rating != 2 {
		respondError(w, http.StatusBadRequest, "invalid rating", "must be 1 (down) or 2 (up)")
		return
	}

	if err := s.db.UpsertFeedback(r.Context(), id, req.Rating); err != nil &&
		!errors.Is(err, database.ErrTableAbsent) {
		respondStoreError(w, err)
		return
	}

	payload, _ := json.Marshal(map[string]int{"rating": req.Rating})
	if _, err := s.db.InsertEvent(r.Context(), models.EventFeedback, &id, string(payload)); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"job_id": id, "rating": req.Rating})
}
