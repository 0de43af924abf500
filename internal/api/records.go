package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"garagelog/internal/service"
)

func (s *HTTPServer) handleRecords(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var in service.RecordInput
		if err := decodeBody(w, r, &in); err != nil {
			return
		}
		rec, err := s.records.CreateRecord(r.Context(), in)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, rec)

	case http.MethodGet:
		vehicleID := strings.TrimSpace(r.URL.Query().Get("vehicle_id"))
		records, err := s.records.ListRecords(r.Context(), vehicleID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"records": records, "count": len(records)})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleRecordByID(w http.ResponseWriter, r *http.Request) {
	id := pathSuffix(r.URL.Path, "/api/v1/records/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "record id is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		rec, err := s.records.GetRecord(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)

	case http.MethodPut:
		var in service.RecordInput
		if err := decodeBody(w, r, &in); err != nil {
			return
		}
		rec, err := s.records.UpdateRecord(r.Context(), id, in)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)

	case http.MethodDelete:
		if err := s.records.DeleteRecord(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleRecordSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	model := strings.TrimSpace(r.URL.Query().Get("model"))
	records, err := s.records.ListRecordsByModel(r.Context(), model)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records, "count": len(records)})
}

func (s *HTTPServer) handleBulkCost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Model string  `json:"model"`
		Cost  float64 `json:"cost"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		return
	}

	updated, err := s.records.UpdateCostByModel(r.Context(), body.Model, body.Cost)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": updated})
}

func (s *HTTPServer) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	model := strings.TrimSpace(r.URL.Query().Get("model"))
	removed, err := s.records.DeleteByModel(r.Context(), model)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

// pathSuffix extracts the single trailing segment after the prefix, or ""
// when absent or nested.
func pathSuffix(path, prefix string) string {
	suffix := strings.TrimSpace(strings.TrimPrefix(path, prefix))
	if suffix == "" || strings.Contains(suffix, "/") {
		return ""
	}
	return suffix
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return err
	}
	return nil
}
