package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	core "sctrace/tracking/service/core"

	"sctrace/ledger"
)

// TrackerHandler serves the gateway's JSON-over-HTTP surface.
type TrackerHandler struct {
	svc    *core.Service
	logger *log.Logger
}

// NewTrackerHandler creates a new TrackerHandler.
func NewTrackerHandler(s *core.Service, l *log.Logger) *TrackerHandler {
	return &TrackerHandler{svc: s, logger: l}
}

// RegisterProduct handles POST /v1/products requests.
func (h *TrackerHandler) RegisterProduct(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	productID := h.svc.RegisterProduct()
	h.respondJSON(w, map[string]interface{}{
		"product_id": productID,
	}, http.StatusCreated)
}

// SubmitEvent handles POST /v1/events requests.
func (h *TrackerHandler) SubmitEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	if r.Header.Get("Content-Type") != "application/json" {
		h.respondError(w, "Content-Type must be application/json", http.StatusBadRequest)
		return
	}
	if r.ContentLength > 1*1024*1024 { // 1MB limit
		h.respondError(w, "Request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	var reqPayload struct {
		ProductID int64   `json:"product_id"`
		Actor     string  `json:"actor"`
		Location  string  `json:"location"`
		Action    string  `json:"action"`
		Quantity  float64 `json:"quantity,omitempty"`
		BatchID   string  `json:"batch_id,omitempty"`
		Transport string  `json:"transport,omitempty"`
		Notes     string  `json:"notes,omitempty"`
		Receiver  string  `json:"receiver,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&reqPayload); err != nil {
		h.logger.Printf("HTTP Handler: Failed to parse JSON request: %v", err)
		h.respondError(w, "Bad Request: Invalid JSON format", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	// Required-field checks at the boundary; the core re-validates.
	if reqPayload.ProductID < 1 {
		h.respondError(w, "product_id must be a positive integer", http.StatusBadRequest)
		return
	}
	if reqPayload.Actor == "" || reqPayload.Location == "" || reqPayload.Action == "" {
		h.respondError(w, "actor, location and action are required", http.StatusBadRequest)
		return
	}

	input := &core.EventInput{
		ProductID: reqPayload.ProductID,
		Actor:     reqPayload.Actor,
		Location:  reqPayload.Location,
		Action:    reqPayload.Action,
		Quantity:  reqPayload.Quantity,
		BatchID:   reqPayload.BatchID,
		Transport: reqPayload.Transport,
		Notes:     reqPayload.Notes,
		Receiver:  reqPayload.Receiver,
	}

	result, err := h.svc.SubmitEvent(r.Context(), input)
	if err != nil {
		h.logger.Printf("HTTP Handler: Service layer processing failed: %v", err)
		statusCode := http.StatusInternalServerError
		if errors.Is(err, ledger.ErrInvalidEvent) {
			statusCode = http.StatusBadRequest
		}
		h.respondError(w, err.Error(), statusCode)
		return
	}

	h.respondJSON(w, map[string]interface{}{
		"request_id":   result.RequestID,
		"submitted_at": result.SubmittedAt.Format(time.RFC3339Nano),
		"pending":      result.Pending,
		"status":       "ACCEPTED",
	}, http.StatusAccepted)
}

// CommitPending handles POST /v1/commits requests.
func (h *TrackerHandler) CommitPending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var reqPayload struct {
		Proof int64 `json:"proof,omitempty"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&reqPayload); err != nil {
			h.respondError(w, "Bad Request: Invalid JSON format", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()
	}
	if reqPayload.Proof < 0 {
		h.respondError(w, "proof cannot be negative", http.StatusBadRequest)
		return
	}

	block := h.svc.CommitPending(reqPayload.Proof)
	h.respondJSON(w, map[string]interface{}{
		"block": block,
	}, http.StatusCreated)
}

// ChainValid handles GET /v1/chain/valid requests.
func (h *TrackerHandler) ChainValid(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	h.respondJSON(w, map[string]interface{}{
		"valid":  h.svc.IsValid(),
		"length": h.svc.ChainLength(),
	}, http.StatusOK)
}

// History handles GET /v1/history?product_id=N requests. Unknown ids
// yield an empty history, not an error.
func (h *TrackerHandler) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	productID, err := strconv.ParseInt(r.URL.Query().Get("product_id"), 10, 64)
	if err != nil || productID < 1 {
		h.respondError(w, "product_id must be a positive integer", http.StatusBadRequest)
		return
	}

	history := h.svc.History(productID)
	if history == nil {
		history = []ledger.HistoryEntry{}
	}
	h.respondJSON(w, map[string]interface{}{
		"product_id": productID,
		"history":    history,
	}, http.StatusOK)
}

// SummaryRows handles GET /v1/ledger/rows requests. An optional limit
// query parameter returns only the most recent rows.
func (h *TrackerHandler) SummaryRows(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	rows := h.svc.SummaryRows()
	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		limit, err := strconv.Atoi(rawLimit)
		if err != nil || limit < 0 {
			h.respondError(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		if limit < len(rows) {
			rows = rows[len(rows)-limit:]
		}
	}
	if rows == nil {
		rows = []ledger.SummaryRow{}
	}
	h.respondJSON(w, map[string]interface{}{
		"rows": rows,
	}, http.StatusOK)
}

// Chain handles GET /v1/chain requests for explorer display.
func (h *TrackerHandler) Chain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	blocks := h.svc.ChainView()
	h.respondJSON(w, map[string]interface{}{
		"length": len(blocks),
		"blocks": blocks,
	}, http.StatusOK)
}

// HealthCheck handles GET /health requests.
func (h *TrackerHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	h.respondJSON(w, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339Nano),
		"service":   "tracker-gateway",
	}, http.StatusOK)
}

// respondJSON sends a JSON response.
func (h *TrackerHandler) respondJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Printf("HTTP Handler: Failed to encode JSON response: %v", err)
	}
}

// respondError sends an error response.
func (h *TrackerHandler) respondError(w http.ResponseWriter, message string, statusCode int) {
	h.respondJSON(w, map[string]interface{}{
		"error":   message,
		"status":  statusCode,
		"message": http.StatusText(statusCode),
	}, statusCode)
}
