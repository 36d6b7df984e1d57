package rest

import (
	"encoding/json"
	"net/http"

	"github.com/appforge/canvasflow/logger"
	"github.com/appforge/canvasflow/model"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// EventRequest is what the rendering layer posts for every UI event.
// The form snapshot travels with the call; the engine holds no ambient
// form state.
type EventRequest struct {
	SessionID string                       `json:"sessionId"`
	ElementID string                       `json:"elementId"`
	EventType model.EventType              `json:"eventType"`
	Payload   model.EventPayload           `json:"payload"`
	Form      *model.FormSubmissionContext `json:"form,omitempty"`
}

func (s *Server) HandleEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "malformed event")
		return
	}
	defer r.Body.Close()
	if req.SessionID == "" || req.EventType == "" {
		respondWithError(w, http.StatusBadRequest, "sessionId and eventType are required")
		return
	}
	s.dispatcher.OnEvent(req.SessionID, req.ElementID, req.EventType, req.Payload, req.Form)
	respondWithJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) HandleIndexProbe(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	respondWithJSON(w, http.StatusOK, map[string]bool{"present": s.dispatcher.Has(key)})
}

func (s *Server) HandleSync(w http.ResponseWriter, r *http.Request) {
	if err := s.syncer.Sync(r.Context()); err != nil {
		logger.Error("workflow sync failed", zap.Error(err))
		respondWithError(w, http.StatusBadGateway, "error syncing workflows")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "synced"})
}

// PagesRequest replaces the known page set of the canvas document.
type PagesRequest struct {
	Pages []string `json:"pages"`
}

func (s *Server) HandlePages(w http.ResponseWriter, r *http.Request) {
	var req PagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "malformed page list")
		return
	}
	defer r.Body.Close()
	s.pages.Replace(req.Pages)
	respondWithJSON(w, http.StatusOK, map[string]int{"pages": len(req.Pages)})
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
