package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/nearby/internal/interfaces"
)

const kvPathPrefix = "/api/kv/"

// KVHandler exposes the variables store used for {key} config references
type KVHandler struct {
	kvStorage interfaces.KeyValueStorage
	logger    arbor.ILogger
}

// NewKVHandler creates a new KV handler
func NewKVHandler(kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) *KVHandler {
	return &KVHandler{
		kvStorage: kvStorage,
		logger:    logger,
	}
}

type kvResponse struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func toKVResponse(pair interfaces.KeyValuePair, value string) kvResponse {
	return kvResponse{
		Key:         pair.Key,
		Value:       value,
		Description: pair.Description,
		CreatedAt:   pair.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   pair.UpdatedAt.Format(time.RFC3339),
	}
}

// ListKVHandler handles GET /api/kv. Values are masked.
func (h *KVHandler) ListKVHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	pairs, err := h.kvStorage.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list variables")
		WriteError(w, http.StatusInternalServerError, "Failed to list variables")
		return
	}

	items := make([]kvResponse, len(pairs))
	for i, pair := range pairs {
		items[i] = toKVResponse(pair, maskValue(pair.Value))
	}

	WriteJSON(w, http.StatusOK, items)
}

// GetKVHandler handles GET /api/kv/{key}, returning the unmasked value
func (h *KVHandler) GetKVHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	key, ok := h.keyFromPath(w, r)
	if !ok {
		return
	}

	pair, err := h.kvStorage.GetPair(r.Context(), key)
	if errors.Is(err, interfaces.ErrKeyNotFound) {
		WriteError(w, http.StatusNotFound, "Key not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("key", key).Msg("Failed to get variable")
		WriteError(w, http.StatusInternalServerError, "Failed to retrieve variable")
		return
	}

	WriteJSON(w, http.StatusOK, toKVResponse(*pair, pair.Value))
}

// CreateKVHandler handles POST /api/kv. Existing keys (case-insensitive) are rejected with 409.
func (h *KVHandler) CreateKVHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Key         string `json:"key"`
		Value       string `json:"value"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Key) == "" || req.Value == "" {
		WriteError(w, http.StatusBadRequest, "Key and value are required")
		return
	}

	if _, err := h.kvStorage.Get(r.Context(), req.Key); err == nil {
		WriteError(w, http.StatusConflict, "A key with this name already exists. Key names are case-insensitive.")
		return
	}

	if _, err := h.kvStorage.Upsert(r.Context(), req.Key, req.Value, req.Description); err != nil {
		h.logger.Error().Err(err).Str("key", req.Key).Msg("Failed to create variable")
		WriteError(w, http.StatusInternalServerError, "Failed to create variable")
		return
	}

	h.logger.Info().Str("key", req.Key).Msg("Variable created")
	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"status": "success",
		"key":    req.Key,
	})
}

// UpdateKVHandler handles PUT /api/kv/{key}. An empty value keeps the stored
// one, allowing description-only updates.
func (h *KVHandler) UpdateKVHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPut) {
		return
	}

	key, ok := h.keyFromPath(w, r)
	if !ok {
		return
	}

	var req struct {
		Value       string `json:"value"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	value := req.Value
	if value == "" {
		current, err := h.kvStorage.Get(r.Context(), key)
		if errors.Is(err, interfaces.ErrKeyNotFound) {
			WriteError(w, http.StatusNotFound, "Key not found")
			return
		}
		if err != nil {
			h.logger.Error().Err(err).Str("key", key).Msg("Failed to read variable for update")
			WriteError(w, http.StatusInternalServerError, "Failed to retrieve variable")
			return
		}
		value = current
	}

	created, err := h.kvStorage.Upsert(r.Context(), key, value, req.Description)
	if err != nil {
		h.logger.Error().Err(err).Str("key", key).Msg("Failed to upsert variable")
		WriteError(w, http.StatusInternalServerError, "Failed to update variable")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	WriteJSON(w, status, map[string]interface{}{
		"status":  "success",
		"key":     key,
		"created": created,
	})
}

// DeleteKVHandler handles DELETE /api/kv/{key}
func (h *KVHandler) DeleteKVHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}

	key, ok := h.keyFromPath(w, r)
	if !ok {
		return
	}

	err := h.kvStorage.Delete(r.Context(), key)
	if errors.Is(err, interfaces.ErrKeyNotFound) {
		WriteError(w, http.StatusNotFound, "Key not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("key", key).Msg("Failed to delete variable")
		WriteError(w, http.StatusInternalServerError, "Failed to delete variable")
		return
	}

	h.logger.Info().Str("key", key).Msg("Variable deleted")
	WriteSuccess(w, "Variable deleted")
}

// keyFromPath extracts and unescapes {key} from /api/kv/{key}
func (h *KVHandler) keyFromPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	encoded := strings.TrimPrefix(r.URL.Path, kvPathPrefix)
	key, err := url.QueryUnescape(encoded)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid key encoding")
		return "", false
	}
	if key == "" {
		WriteError(w, http.StatusBadRequest, "Missing key parameter")
		return "", false
	}
	return key, true
}

// maskValue keeps the first and last four characters of values of 8+ characters
func maskValue(value string) string {
	if len(value) < 8 {
		return "••••••••"
	}
	return value[:4] + "..." + value[len(value)-4:]
}
