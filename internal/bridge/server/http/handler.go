package http

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/autopeer-io/carbridge/internal/bridge/control"
	"github.com/autopeer-io/carbridge/internal/bridge/fields"
	"github.com/autopeer-io/carbridge/internal/pkg/validate"
	"github.com/autopeer-io/carbridge/pkg/log"
)

// CommandRequest selects exactly one actuator operation.
type CommandRequest struct {
	Level      *float64 `json:"level,omitempty"`
	Percentage *int     `json:"percentage,omitempty"`
	On         *bool    `json:"on,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Connection == nil || !s.deps.Connection.IsConnected() {
		http.Error(w, "mqtt broker not connected", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, fields.Catalog)
}

func (s *Server) handleFields(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Fields.Snapshot())
}

func (s *Server) handleField(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	v, ok := s.deps.Fields.Get(key)
	if !ok {
		writeError(w, http.StatusNotFound, "no value for field "+key)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"key": key, "value": v})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Status.Snapshot())
}

func (s *Server) handleActuators(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Actuators.States())
}

func (s *Server) handleActuator(w http.ResponseWriter, r *http.Request) {
	l, err := s.deps.Actuators.Get(mux.Vars(r)["name"])
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, l.State())
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	l, err := s.deps.Actuators.Get(mux.Vars(r)["name"])
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var req CommandRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	switch {
	case req.Level != nil && req.Percentage == nil && req.On == nil:
		if math.IsNaN(*req.Level) || math.IsInf(*req.Level, 0) {
			writeError(w, http.StatusBadRequest, "level must be a finite number")
			return
		}
		err = l.Set(ctx, int(math.Round(*req.Level)))
	case req.Percentage != nil && req.Level == nil && req.On == nil:
		err = l.SetPercentage(ctx, *req.Percentage)
	case req.On != nil && req.Level == nil && req.Percentage == nil:
		if *req.On {
			err = l.TurnOn(ctx, nil)
		} else {
			err = l.TurnOff(ctx)
		}
	default:
		writeError(w, http.StatusBadRequest, "exactly one of level, percentage or on is required")
		return
	}

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, l.State())
	case errors.Is(err, validate.ErrOutOfRange), errors.Is(err, control.ErrNotSwitchable):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func (s *Server) handleDiLauncher(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Export == nil {
		writeError(w, http.StatusNotImplemented, "no automation exporter configured")
		return
	}
	if !s.exporting.CompareAndSwap(false, true) {
		writeError(w, http.StatusConflict, "an export is already running")
		return
	}

	s.jobs.Add(1)
	go func() {
		defer s.jobs.Done()
		defer s.exporting.Store(false)
		if _, err := s.deps.Export(s.jobCtx); err != nil {
			log.Error(err, "DiLauncher export failed")
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error(err, "Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}
