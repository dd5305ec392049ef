package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func f(v float64) *float64 { return &v }

/* ─── Parsing and formatting tests ───────────────────────────────────── */

// TestParseCalories verifies numeric detection, the comma separator, and
// rejection of everything else.
func TestParseCalories(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"540", 540, true},
		{"540.5", 540.5, true},
		{"540,5", 540.5, true},
		{"0", 0, true},
		{"-100", 0, false},
		{"dinner", 0, false},
		{"", 0, false},
		{"/menu", 0, false},
	}
	for _, tc := range cases {
		got, ok := parseCalories(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("parseCalories(%q) = (%v, %v), want (%v, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

// TestFormatProgress_SkipsMissingMetrics verifies that never-logged metrics
// don't render as zeros.
func TestFormatProgress_SkipsMissingMetrics(t *testing.T) {
	out := formatProgress(progressData{
		LastWeightKG:        f(79.5),
		AvgCaloriesLast7Day: f(2400),
		Message:             "You're staying close to your target. Keep it up!",
	})
	if !strings.Contains(out, "Weight: 79.5 kg") {
		t.Errorf("missing weight line: %q", out)
	}
	if strings.Contains(out, "Waist") || strings.Contains(out, "Hips") {
		t.Errorf("unlogged metrics should be skipped: %q", out)
	}
	if !strings.Contains(out, "2400 kcal") {
		t.Errorf("missing average line: %q", out)
	}
	if !strings.HasSuffix(out, "Keep it up!") {
		t.Errorf("coaching message should come last: %q", out)
	}
}

// TestFormatMenu_OrderedOutput verifies dates ascending and the fixed slot
// order regardless of map iteration order.
func TestFormatMenu_OrderedOutput(t *testing.T) {
	data := menuData{
		Menu: map[string]map[string]menuMeal{
			"2026-08-25": {
				"breakfast": {Title: "oatmeal with berries", CaloriesKcal: 500},
			},
			"2026-08-24": {
				"snack":     {Title: "quinoa salad", CaloriesKcal: 500},
				"breakfast": {Title: "vegetable soup", CaloriesKcal: 500},
			},
		},
	}
	out := formatMenu(data)

	if idx24, idx25 := strings.Index(out, "2026-08-24"), strings.Index(out, "2026-08-25"); idx24 > idx25 {
		t.Errorf("days should render in date order: %q", out)
	}
	if bIdx, sIdx := strings.Index(out, "Breakfast"), strings.Index(out, "Snack"); bIdx > sIdx {
		t.Errorf("breakfast should render before snack: %q", out)
	}
	if !strings.Contains(out, "vegetable soup (~500 kcal)") {
		t.Errorf("missing meal line: %q", out)
	}
}

// TestFormatReport_FlagsSortedAndOptional verifies flag rendering.
func TestFormatReport_FlagsSortedAndOptional(t *testing.T) {
	withFlags := formatReport(reportData{
		WeekStart:   "2026-08-24",
		WeekEnd:     "2026-08-30",
		SummaryText: "Your weekly report is ready!",
		StatusFlags: map[string]any{"weight_change": -0.5, "avg_calories": 2400.0},
	})
	if !strings.Contains(withFlags, "Status: avg_calories: 2400, weight_change: -0.5") {
		t.Errorf("flags should be sorted by key: %q", withFlags)
	}

	noFlags := formatReport(reportData{
		WeekStart:   "2026-08-24",
		WeekEnd:     "2026-08-30",
		SummaryText: "No data for this week yet.",
	})
	if strings.Contains(noFlags, "Status:") {
		t.Errorf("empty flags should not render a status line: %q", noFlags)
	}
}

/* ─── Core client tests ──────────────────────────────────────────────── */

// TestCoreClient_ProgressSummary verifies the query param and decoding.
func TestCoreClient_ProgressSummary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/progress/summary" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("telegram_id"); got != "42" {
			t.Errorf("telegram_id = %q, want 42", got)
		}
		json.NewEncoder(w).Encode(progressData{LastWeightKG: f(79.5), Message: "ok"})
	}))
	defer server.Close()

	data, err := NewCoreClient(server.URL).ProgressSummary(context.Background(), "42")
	if err != nil {
		t.Fatalf("ProgressSummary: %v", err)
	}
	if data.LastWeightKG == nil || *data.LastWeightKG != 79.5 {
		t.Errorf("weight = %v, want 79.5", data.LastWeightKG)
	}
}

// TestCoreClient_LogDailyIntake verifies the posted JSON body.
func TestCoreClient_LogDailyIntake(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	err := NewCoreClient(server.URL).LogDailyIntake(context.Background(), "42", "2026-08-30", 540)
	if err != nil {
		t.Fatalf("LogDailyIntake: %v", err)
	}
	if got["telegram_id"] != "42" || got["date"] != "2026-08-30" || got["calories_in"] != 540.0 {
		t.Errorf("posted body = %v", got)
	}
}

// TestCoreClient_ErrorStatus verifies that non-2xx responses surface as
// errors with the body included.
func TestCoreClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"user not found"}`))
	}))
	defer server.Close()

	_, err := NewCoreClient(server.URL).WeekMenu(context.Background(), "42")
	if err == nil || !strings.Contains(err.Error(), "user not found") {
		t.Errorf("expected not-found error, got %v", err)
	}
}

/* ─── Vision client tests ────────────────────────────────────────────── */

// TestVisionClient_EstimateMeal verifies the multipart upload and decoding.
func TestVisionClient_EstimateMeal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("image")
		if err != nil {
			t.Errorf("missing image part: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		if header.Filename != "abc.jpg" {
			t.Errorf("filename = %q, want abc.jpg", header.Filename)
		}
		json.NewEncoder(w).Encode(mealEstimate{
			Label: "pilaf", Confidence: 0.75, PortionGramsEst: 200, CaloriesKcal: 300,
		})
	}))
	defer server.Close()

	estimate, err := NewVisionClient(server.URL).EstimateMeal(
		context.Background(), []byte("fake image bytes"), "abc.jpg")
	if err != nil {
		t.Fatalf("EstimateMeal: %v", err)
	}
	if estimate.Label != "pilaf" || estimate.CaloriesKcal != 300 {
		t.Errorf("estimate = %+v", estimate)
	}
}

/* ─── Message handling tests ─────────────────────────────────────────── */

// setupBotTest wires a bot to a mock Telegram server that records sent
// messages, plus mock core and vision backends.
func setupBotTest(t *testing.T, coreHandler http.HandlerFunc) (*Bot, *[]string) {
	t.Helper()
	var sent []string
	telegram := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/sendMessage") {
			r.ParseForm()
			sent = append(sent, r.Form.Get("text"))
		}
		w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	t.Cleanup(telegram.Close)

	core := httptest.NewServer(coreHandler)
	t.Cleanup(core.Close)

	b := New("test-token", NewCoreClient(core.URL), NewVisionClient("http://unused"))
	b.apiBaseURL = telegram.URL
	return b, &sent
}

// TestHandleMessage_Start verifies the /start disclaimer.
func TestHandleMessage_Start(t *testing.T) {
	b, sent := setupBotTest(t, func(w http.ResponseWriter, r *http.Request) {})
	msg := tgMessage{From: &tgUser{ID: 42}, Chat: tgChat{ID: 7}, Text: "/start"}

	if err := b.handleMessage(context.Background(), msg); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}
	if len(*sent) != 1 || !strings.Contains((*sent)[0], "not a doctor") {
		t.Errorf("expected disclaimer, got %v", *sent)
	}
}

// TestHandleMessage_NumberLogsIntake verifies the numeric shortcut.
func TestHandleMessage_NumberLogsIntake(t *testing.T) {
	var posted map[string]any
	b, sent := setupBotTest(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/log/daily-intake" {
			json.NewDecoder(r.Body).Decode(&posted)
		}
		w.Write([]byte(`{"status":"ok"}`))
	})
	msg := tgMessage{From: &tgUser{ID: 42}, Chat: tgChat{ID: 7}, Text: "540"}

	if err := b.handleMessage(context.Background(), msg); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}
	if posted["calories_in"] != 540.0 || posted["telegram_id"] != "42" {
		t.Errorf("posted body = %v", posted)
	}
	if len(*sent) != 1 || !strings.Contains((*sent)[0], "Logged 540 kcal") {
		t.Errorf("expected confirmation, got %v", *sent)
	}
}

// TestHandleMessage_UnknownTextGetsHint verifies the fallback reply.
func TestHandleMessage_UnknownTextGetsHint(t *testing.T) {
	b, sent := setupBotTest(t, func(w http.ResponseWriter, r *http.Request) {})
	msg := tgMessage{From: &tgUser{ID: 42}, Chat: tgChat{ID: 7}, Text: "hello there"}

	if err := b.handleMessage(context.Background(), msg); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}
	if len(*sent) != 1 || !strings.Contains((*sent)[0], "/progress") {
		t.Errorf("expected command hint, got %v", *sent)
	}
}
