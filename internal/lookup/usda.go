// Package lookup talks to food composition sources: the USDA FoodData Central
// API and an AI estimate backed by Gemini with an OpenAI fallback.
package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vladimiradmaev/carbclarity/internal/domain"
	apperrors "github.com/vladimiradmaev/carbclarity/internal/errors"
)

// FoodData Central endpoint and the nutrient id of "Carbohydrate, by difference"
const (
	USDABaseURL       = "https://api.nal.usda.gov/fdc/v1"
	CarbohydrateID    = 1005
	searchContentType = "application/json; charset=utf-8"
)

// USDAClient is an HTTP client for the FoodData Central API.
type USDAClient struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// NewUSDAClient creates a client for the public API
func NewUSDAClient(apiKey string) *USDAClient {
	return &USDAClient{
		APIKey:  apiKey,
		BaseURL: USDABaseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type searchRequest struct {
	Query    string   `json:"query"`
	DataType []string `json:"dataType"`
}

type searchResponse struct {
	Foods []food `json:"foods"`
}

type food struct {
	FdcID         int        `json:"fdcId"`
	Description   string     `json:"description"`
	FoodNutrients []nutrient `json:"foodNutrients"`
}

type nutrient struct {
	NutrientID int     `json:"nutrientId"`
	Value      float64 `json:"value"`
}

// carbs returns the first carbohydrate value of the food, or 0
func (f food) carbs() float64 {
	for _, n := range f.FoodNutrients {
		if n.NutrientID == CarbohydrateID {
			return n.Value
		}
	}
	return 0
}

func (c *USDAClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if c.APIKey == "" {
		return nil, apperrors.NewNoAPIKeyError()
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.APIKey)
	req.Header.Set("Content-Type", searchContentType)
	return req, nil
}

func (c *USDAClient) do(req *http.Request) (int, []byte, error) {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read lookup response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// Search looks up Foundation foods matching query. Foods the search result
// carries no positive carbohydrate value for are marked StillLoadingDetail.
func (c *USDAClient) Search(ctx context.Context, query string) ([]domain.FoodCandidate, error) {
	data, err := json.Marshal(searchRequest{Query: query, DataType: []string{"Foundation"}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/foods/search", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	status, body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, &StatusError{StatusCode: status, Body: string(body)}
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	candidates := make([]domain.FoodCandidate, 0, len(result.Foods))
	for _, f := range result.Foods {
		carbs := f.carbs()
		candidates = append(candidates, domain.FoodCandidate{
			ID:                 f.FdcID,
			Name:               f.Description,
			CarbsPer100g:       carbs,
			StillLoadingDetail: carbs <= 0,
		})
	}
	return candidates, nil
}

// Detail fetches the carbohydrate value of one food. An unknown food or an
// undecodable body yields ok == false without an error.
func (c *USDAClient) Detail(ctx context.Context, id int) (float64, bool, error) {
	path := fmt.Sprintf("/food/%d?nutrients=%d", id, CarbohydrateID)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return 0, false, err
	}

	status, body, err := c.do(req)
	if err != nil {
		return 0, false, err
	}
	if status == http.StatusNotFound {
		return 0, false, nil
	}
	if status < 200 || status > 299 {
		return 0, false, &StatusError{StatusCode: status, Body: string(body)}
	}

	var f food
	if err := json.Unmarshal(body, &f); err != nil {
		return 0, false, nil
	}
	return f.carbs(), true, nil
}
