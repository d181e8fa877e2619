package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/nearby/internal/interfaces"
)

// memoryKV implements interfaces.KeyValueStorage in memory
type memoryKV struct {
	pairs map[string]interfaces.KeyValuePair
}

func newMemoryKV() *memoryKV {
	return &memoryKV{pairs: map[string]interfaces.KeyValuePair{}}
}

func (m *memoryKV) Get(ctx context.Context, key string) (string, error) {
	pair, err := m.GetPair(ctx, key)
	if err != nil {
		return "", err
	}
	return pair.Value, nil
}

func (m *memoryKV) GetPair(ctx context.Context, key string) (*interfaces.KeyValuePair, error) {
	pair, ok := m.pairs[strings.ToLower(key)]
	if !ok {
		return nil, interfaces.ErrKeyNotFound
	}
	return &pair, nil
}

func (m *memoryKV) Upsert(ctx context.Context, key, value, description string) (bool, error) {
	k := strings.ToLower(key)
	_, exists := m.pairs[k]
	m.pairs[k] = interfaces.KeyValuePair{Key: k, Value: value, Description: description, UpdatedAt: time.Now()}
	return !exists, nil
}

func (m *memoryKV) Delete(ctx context.Context, key string) error {
	k := strings.ToLower(key)
	if _, ok := m.pairs[k]; !ok {
		return interfaces.ErrKeyNotFound
	}
	delete(m.pairs, k)
	return nil
}

func (m *memoryKV) List(ctx context.Context) ([]interfaces.KeyValuePair, error) {
	out := make([]interfaces.KeyValuePair, 0, len(m.pairs))
	for _, p := range m.pairs {
		out = append(out, p)
	}
	return out, nil
}

func (m *memoryKV) GetAll(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string, len(m.pairs))
	for k, p := range m.pairs {
		out[k] = p.Value
	}
	return out, nil
}

func TestKVHandler_CreateGetList(t *testing.T) {
	kv := newMemoryKV()
	handler := NewKVHandler(kv, arbor.NewLogger())

	rec := httptest.NewRecorder()
	handler.CreateKVHandler(rec, httptest.NewRequest(http.MethodPost, "/api/kv",
		strings.NewReader(`{"key":"Places-Host","value":"places.example.com","description":"host"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	handler.CreateKVHandler(rec, httptest.NewRequest(http.MethodPost, "/api/kv",
		strings.NewReader(`{"key":"places-host","value":"other"}`)))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	handler.GetKVHandler(rec, httptest.NewRequest(http.MethodGet, "/api/kv/places-host", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"value":"places.example.com"`)

	rec = httptest.NewRecorder()
	handler.ListKVHandler(rec, httptest.NewRequest(http.MethodGet, "/api/kv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"value":"plac....com"`)
}

func TestKVHandler_UpdateAndDelete(t *testing.T) {
	kv := newMemoryKV()
	kv.Upsert(context.Background(), "category", "Coffee", "first")
	handler := NewKVHandler(kv, arbor.NewLogger())

	rec := httptest.NewRecorder()
	handler.UpdateKVHandler(rec, httptest.NewRequest(http.MethodPut, "/api/kv/category", strings.NewReader(`{"description":"renamed"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	pair, err := kv.GetPair(context.Background(), "category")
	require.NoError(t, err)
	assert.Equal(t, "Coffee", pair.Value)
	assert.Equal(t, "renamed", pair.Description)

	rec = httptest.NewRecorder()
	handler.UpdateKVHandler(rec, httptest.NewRequest(http.MethodPut, "/api/kv/new-key", strings.NewReader(`{"value":"v"}`)))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	handler.DeleteKVHandler(rec, httptest.NewRequest(http.MethodDelete, "/api/kv/category", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.DeleteKVHandler(rec, httptest.NewRequest(http.MethodDelete, "/api/kv/category", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestKVHandler_BadRequests(t *testing.T) {
	handler := NewKVHandler(newMemoryKV(), arbor.NewLogger())

	rec := httptest.NewRecorder()
	handler.CreateKVHandler(rec, httptest.NewRequest(http.MethodPost, "/api/kv", strings.NewReader(`{"key":""}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	handler.GetKVHandler(rec, httptest.NewRequest(http.MethodGet, "/api/kv/", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	handler.GetKVHandler(rec, httptest.NewRequest(http.MethodGet, "/api/kv/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMaskValue(t *testing.T) {
	assert.Equal(t, "••••••••", maskValue("short"))
	assert.Equal(t, "abcd...mnop", maskValue("abcdefghijklmnop"))
}
