package api

import (
	"net/http"

	"garagelog/internal/service"
)

func (s *HTTPServer) handleMechanics(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var in service.MechanicInput
		if err := decodeBody(w, r, &in); err != nil {
			return
		}
		m, err := s.mechanics.CreateMechanic(r.Context(), in)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, m)

	case http.MethodGet:
		all, err := s.mechanics.ListMechanics(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"mechanics": all, "count": len(all)})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleMechanicByID(w http.ResponseWriter, r *http.Request) {
	id := pathSuffix(r.URL.Path, "/api/v1/mechanics/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "mechanic id is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		m, err := s.mechanics.GetMechanic(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, m)

	case http.MethodPut:
		var in service.MechanicInput
		if err := decodeBody(w, r, &in); err != nil {
			return
		}
		m, err := s.mechanics.UpdateMechanic(r.Context(), id, in)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, m)

	case http.MethodDelete:
		if err := s.mechanics.DeleteMechanic(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
