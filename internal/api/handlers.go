package api

import (
	"net/http"

	"github.com/mocap-data/motion.stream/internal/pipeline"
	"github.com/mocap-data/motion.stream/internal/recorder"
)

func (s *Server) handlePipelineStart(w http.ResponseWriter, r *http.Request) {
	if err := s.pipe.Start(); err != nil {
		writeJSONError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "pipeline started"})
}

func (s *Server) handlePipelineStop(w http.ResponseWriter, r *http.Request) {
	s.pipe.Stop()
	writeJSON(w, http.StatusOK, map[string]string{"message": "pipeline stopped"})
}

func (s *Server) handlePipelineStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pipe.Status())
}

func (s *Server) handleConfigGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pipe.Config())
}

// configDelta is a partial configuration update. Absent fields keep
// their current value; the merged result is validated and applied as one
// atomic replacement.
type configDelta struct {
	CameraIndex     *int               `json:"camera_index"`
	TargetFrameRate *int               `json:"fps"`
	SenderHost      *string            `json:"host"`
	SenderPort      *int               `json:"port"`
	Features        *pipeline.Features `json:"features"`
}

func (s *Server) handleConfigUpdate(w http.ResponseWriter, r *http.Request) {
	var delta configDelta
	if !decodeBody(w, r, &delta) {
		return
	}

	cfg := s.pipe.Config()
	if delta.CameraIndex != nil {
		cfg.CameraIndex = *delta.CameraIndex
	}
	if delta.TargetFrameRate != nil {
		cfg.TargetFrameRate = *delta.TargetFrameRate
	}
	if delta.SenderHost != nil {
		cfg.SenderHost = *delta.SenderHost
	}
	if delta.SenderPort != nil {
		cfg.SenderPort = *delta.SenderPort
	}
	if delta.Features != nil {
		cfg.Features = *delta.Features
	}

	if err := s.pipe.UpdateConfig(cfg); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

type recordRequest struct {
	Path   string `json:"path"`
	Format string `json:"format"`
}

func (s *Server) handleRecordStart(w http.ResponseWriter, r *http.Request) {
	req := recordRequest{Format: recorder.FormatJSONL}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeJSONError(w, http.StatusBadRequest, "path is required")
		return
	}
	if err := s.pipe.StartRecording(req.Path, req.Format); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "recording started", "path": req.Path})
}

func (s *Server) handleRecordStop(w http.ResponseWriter, r *http.Request) {
	s.pipe.StopRecording()
	writeJSON(w, http.StatusOK, map[string]string{"message": "recording stopped"})
}

type replayRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleReplayStart(w http.ResponseWriter, r *http.Request) {
	var req replayRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeJSONError(w, http.StatusBadRequest, "path is required")
		return
	}
	if err := s.pipe.StartReplay(req.Path); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "replay loaded; takes effect when the pipeline next starts",
		"path":    req.Path,
	})
}

func (s *Server) handleReplayStop(w http.ResponseWriter, r *http.Request) {
	s.pipe.StopReplay()
	writeJSON(w, http.StatusOK, map[string]string{"message": "replay stopped"})
}
