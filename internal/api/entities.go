package api

import (
	"net/http"

	"github.com/mocap-data/motion.stream/internal/db"
)

func (s *Server) handleListCameras(w http.ResponseWriter, r *http.Request) {
	cameras, err := s.db.ListCameraSources()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cameras)
}

func (s *Server) handleCreateCamera(w http.ResponseWriter, r *http.Request) {
	var camera db.CameraSource
	if !decodeBody(w, r, &camera) {
		return
	}
	if camera.Label == "" {
		writeJSONError(w, http.StatusBadRequest, "label is required")
		return
	}
	if err := s.db.InsertCameraSource(&camera); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, camera)
}

func (s *Server) handleDeleteCamera(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeleteCameraSource(r.PathValue("id")); err != nil {
		writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "camera deleted"})
}

func (s *Server) handleListTargets(w http.ResponseWriter, r *http.Request) {
	targets, err := s.db.ListSendTargets()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, targets)
}

func (s *Server) handleCreateTarget(w http.ResponseWriter, r *http.Request) {
	var target db.SendTarget
	if !decodeBody(w, r, &target) {
		return
	}
	if target.Host == "" || target.Port == 0 {
		writeJSONError(w, http.StatusBadRequest, "host and port are required")
		return
	}
	if err := s.db.InsertSendTarget(&target); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, target)
}

func (s *Server) handleDeleteTarget(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeleteSendTarget(r.PathValue("id")); err != nil {
		writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "target deleted"})
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	models, err := s.db.ListAvatarModels()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, models)
}

func (s *Server) handleCreateModel(w http.ResponseWriter, r *http.Request) {
	var model db.AvatarModel
	if !decodeBody(w, r, &model) {
		return
	}
	if model.Name == "" || model.Path == "" {
		writeJSONError(w, http.StatusBadRequest, "name and path are required")
		return
	}
	if err := s.db.InsertAvatarModel(&model); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, model)
}

func (s *Server) handleListChannelMaps(w http.ResponseWriter, r *http.Request) {
	maps, err := s.db.ListChannelMaps()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, maps)
}

func (s *Server) handleUpsertChannelMap(w http.ResponseWriter, r *http.Request) {
	var m db.ChannelMap
	if !decodeBody(w, r, &m) {
		return
	}
	if err := s.db.UpsertChannelMap(&m); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleListRecordings(w http.ResponseWriter, r *http.Request) {
	recordings, err := s.db.ListRecordings()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, recordings)
}
