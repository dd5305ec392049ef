package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
)

/* ─── Core API wire types ────────────────────────────────────────────── */

// progressData mirrors GET /progress/summary.
type progressData struct {
	LastWeightKG        *float64 `json:"last_weight_kg"`
	LastWaistCM         *float64 `json:"last_waist_cm"`
	LastHipsCM          *float64 `json:"last_hips_cm"`
	LastChestCM         *float64 `json:"last_chest_cm"`
	AvgCaloriesLast7Day *float64 `json:"avg_calories_last_7_days"`
	Message             string   `json:"message"`
}

// menuMeal is one slot of the weekly menu.
type menuMeal struct {
	Title        string `json:"title"`
	CaloriesKcal int    `json:"calories_kcal"`
}

// menuData mirrors GET /menu/week.
type menuData struct {
	WeekStart string                         `json:"week_start"`
	WeekEnd   string                         `json:"week_end"`
	Menu      map[string]map[string]menuMeal `json:"menu"`
}

// reportData mirrors GET /report/weekly.
type reportData struct {
	WeekStart   string         `json:"week_start"`
	WeekEnd     string         `json:"week_end"`
	SummaryText string         `json:"summary_text"`
	StatusFlags map[string]any `json:"status_flags"`
}

// mealEstimate mirrors the vision service's POST /vision/estimate_meal.
type mealEstimate struct {
	Label           string  `json:"label"`
	Confidence      float64 `json:"confidence"`
	PortionGramsEst int     `json:"portion_grams_est"`
	CaloriesKcal    float64 `json:"calories_kcal"`
	ProteinsG       float64 `json:"proteins_g"`
	FatsG           float64 `json:"fats_g"`
	CarbsG          float64 `json:"carbs_g"`
}

/* ─── Core API client ────────────────────────────────────────────────── */

// CoreClient talks to the core nutrition API. Raw net/http keeps the bot
// free of any generated client code.
type CoreClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewCoreClient builds a client for the given base URL.
func NewCoreClient(baseURL string) *CoreClient {
	return &CoreClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// getJSON performs a GET with query params and decodes the JSON response.
func (c *CoreClient) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET",
		c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("core api %s returned %d: %s", path, resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// postJSON performs a POST with a JSON body and checks for a 2xx status.
func (c *CoreClient) postJSON(ctx context.Context, path string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("core api %s returned %d: %s", path, resp.StatusCode, body)
	}
	return nil
}

// LogDailyIntake records calories for the user on the given ISO date.
func (c *CoreClient) LogDailyIntake(ctx context.Context, telegramID, date string, calories float64) error {
	return c.postJSON(ctx, "/log/daily-intake", map[string]any{
		"telegram_id": telegramID,
		"date":        date,
		"calories_in": calories,
	})
}

// ProgressSummary fetches the user's latest measurements and 7-day average.
func (c *CoreClient) ProgressSummary(ctx context.Context, telegramID string) (progressData, error) {
	var out progressData
	err := c.getJSON(ctx, "/progress/summary", url.Values{"telegram_id": {telegramID}}, &out)
	return out, err
}

// WeekMenu fetches (or triggers generation of) the user's weekly menu.
func (c *CoreClient) WeekMenu(ctx context.Context, telegramID string) (menuData, error) {
	var out menuData
	err := c.getJSON(ctx, "/menu/week", url.Values{"telegram_id": {telegramID}}, &out)
	return out, err
}

// WeeklyReport fetches the user's latest weekly report.
func (c *CoreClient) WeeklyReport(ctx context.Context, telegramID string) (reportData, error) {
	var out reportData
	err := c.getJSON(ctx, "/report/weekly", url.Values{"telegram_id": {telegramID}}, &out)
	return out, err
}

/* ─── Vision client ──────────────────────────────────────────────────── */

// VisionClient talks to the meal-estimation service.
type VisionClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewVisionClient builds a client for the given base URL. The timeout is
// longer than the core client's: image analysis is the slow path.
func NewVisionClient(baseURL string) *VisionClient {
	return &VisionClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// EstimateMeal uploads a photo and returns the estimated dish and macros.
func (c *VisionClient) EstimateMeal(ctx context.Context, imageBytes []byte, filename string) (mealEstimate, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="image"; filename=%q`, filename))
	header.Set("Content-Type", "image/jpeg")
	part, err := writer.CreatePart(header)
	if err != nil {
		return mealEstimate{}, err
	}
	if _, err := part.Write(imageBytes); err != nil {
		return mealEstimate{}, err
	}
	if err := writer.Close(); err != nil {
		return mealEstimate{}, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/vision/estimate_meal", &buf)
	if err != nil {
		return mealEstimate{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return mealEstimate{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return mealEstimate{}, fmt.Errorf("vision api returned %d: %s", resp.StatusCode, body)
	}

	var out mealEstimate
	err = json.NewDecoder(resp.Body).Decode(&out)
	return out, err
}
