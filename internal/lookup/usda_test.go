package lookup

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladimiradmaev/carbclarity/internal/domain"
	apperrors "github.com/vladimiradmaev/carbclarity/internal/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *USDAClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewUSDAClient("test-key")
	client.BaseURL = server.URL
	return client
}

const searchBody = `{
  "foods": [
    {"fdcId": 1750340, "description": "Apples, fuji, with skin, raw",
     "foodNutrients": [{"nutrientId": 1003, "value": 0.15}, {"nutrientId": 1005, "value": 15.7}]},
    {"fdcId": 2344719, "description": "Apple juice",
     "foodNutrients": [{"nutrientId": 1003, "value": 0.1}]}
  ]
}`

func TestSearchRequest(t *testing.T) {
	var got searchRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/foods/search", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "application/json; charset=utf-8", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))

		_, _ = w.Write([]byte(searchBody))
	})

	candidates, err := client.Search(context.Background(), "apple")
	require.NoError(t, err)

	assert.Equal(t, searchRequest{Query: "apple", DataType: []string{"Foundation"}}, got)
	want := []domain.FoodCandidate{
		{ID: 1750340, Name: "Apples, fuji, with skin, raw", CarbsPer100g: 15.7},
		{ID: 2344719, Name: "Apple juice", CarbsPer100g: 0, StillLoadingDetail: true},
	}
	if diff := cmp.Diff(want, candidates); diff != "" {
		t.Errorf("Search mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
	}{
		{"unauthorized", http.StatusUnauthorized, "", apperrors.CodeInvalidAPIKey},
		{"forbidden", http.StatusForbidden, "", apperrors.CodeInvalidAPIKey},
		{"bad request", http.StatusBadRequest, "", apperrors.CodeServerError},
		{"server error", http.StatusInternalServerError, "", apperrors.CodeServerError},
		{"garbage", http.StatusOK, "<html>", apperrors.CodeParseError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Search(context.Background(), "apple")
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, Classify(err).Code)
		})
	}
}

func TestSearchServerErrorCarriesStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.Search(context.Background(), "apple")
	classified := Classify(err)
	assert.Equal(t, "Server Error (503)", classified.Message)
	assert.Equal(t, 503, classified.Context["status"])
}

func TestSearchWithoutKeySkipsRequest(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	client.APIKey = ""

	_, err := client.Search(context.Background(), "apple")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNoAPIKey))
	assert.False(t, called)
}

func TestDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "1005", r.URL.Query().Get("nutrients"))
		switch r.URL.Path {
		case "/food/1":
			_, _ = w.Write([]byte(`{"fdcId": 1, "description": "Rice", "foodNutrients": [{"nutrientId": 1005, "value": 28.2}]}`))
		case "/food/2":
			_, _ = w.Write([]byte(`not json`))
		case "/food/3":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	carbs, ok, err := client.Detail(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 28.2, carbs)

	_, ok, err = client.Detail(ctx, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = client.Detail(ctx, 404)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = client.Detail(ctx, 3)
	assert.Equal(t, apperrors.CodeInvalidAPIKey, Classify(err).Code)
}
