package vision

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
)

// solidPNG encodes a 8x8 image of one color.
func solidPNG(t *testing.T, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

/* ─── Classifier tests ───────────────────────────────────────────────── */

// TestClassify_BrightnessBands verifies the three brightness bands using
// uniform gray images whose average brightness equals the channel value.
func TestClassify_BrightnessBands(t *testing.T) {
	cases := []struct {
		name       string
		gray       uint8
		wantLabel  string
		wantConfid float64
	}{
		{"dark", 40, "pilaf", 0.75},
		{"just below medium cutoff", 84, "pilaf", 0.75},
		{"medium", 120, "buckwheat with chicken", 0.8},
		{"just below light cutoff", 169, "buckwheat with chicken", 0.8},
		{"light", 220, "cucumber tomato salad", 0.7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			img := solidPNG(t, color.RGBA{tc.gray, tc.gray, tc.gray, 255})
			label, confidence := classify(img)
			if label != tc.wantLabel || confidence != tc.wantConfid {
				t.Errorf("classify = (%q, %v), want (%q, %v)",
					label, confidence, tc.wantLabel, tc.wantConfid)
			}
		})
	}
}

// TestClassify_InvalidBytesFallsBack verifies that garbage input yields the
// default label at half confidence rather than an error.
func TestClassify_InvalidBytesFallsBack(t *testing.T) {
	label, confidence := classify([]byte("not an image"))
	if label != defaultLabel || confidence != 0.5 {
		t.Errorf("classify(garbage) = (%q, %v), want (%q, 0.5)", label, confidence, defaultLabel)
	}
}

/* ─── Macro tests ────────────────────────────────────────────────────── */

// TestCalcMacros_ScalesToPortion verifies the per-100g scaling for the
// standard 200g portion.
func TestCalcMacros_ScalesToPortion(t *testing.T) {
	got := calcMacros("pilaf", 200)
	want := per100g{CaloriesKcal: 300, ProteinsG: 10, FatsG: 12, CarbsG: 38}
	if got != want {
		t.Errorf("calcMacros(pilaf, 200) = %+v, want %+v", got, want)
	}
}

// TestCalcMacros_UnknownLabelUsesDefault verifies the table fallback.
func TestCalcMacros_UnknownLabelUsesDefault(t *testing.T) {
	if got, want := calcMacros("mystery dish", 200), calcMacros(defaultLabel, 200); got != want {
		t.Errorf("unknown label = %+v, want default dish %+v", got, want)
	}
}

/* ─── Endpoint tests ─────────────────────────────────────────────────── */

func setupVisionTest() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler().RegisterRoutes(router)
	return router
}

// multipartImage builds a multipart body with one "image" part carrying the
// given content type.
func multipartImage(t *testing.T, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="image"; filename="meal.png"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	part.Write(data)
	writer.Close()
	return &buf, writer.FormDataContentType()
}

// TestEstimateMealEndpoint_Success posts a dark photo and checks the full
// response shape.
func TestEstimateMealEndpoint_Success(t *testing.T) {
	router := setupVisionTest()
	body, contentType := multipartImage(t, "image/png", solidPNG(t, color.RGBA{30, 30, 30, 255}))

	req := httptest.NewRequest("POST", "/vision/estimate_meal", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp mealEstimate
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Label != "pilaf" {
		t.Errorf("label = %q, want pilaf", resp.Label)
	}
	if resp.PortionGramsEst != defaultPortionGrams {
		t.Errorf("portion = %d, want %d", resp.PortionGramsEst, defaultPortionGrams)
	}
	if resp.CaloriesKcal != 300 {
		t.Errorf("calories = %v, want 300", resp.CaloriesKcal)
	}
}

// TestEstimateMealEndpoint_RejectsNonImage verifies the content-type gate.
func TestEstimateMealEndpoint_RejectsNonImage(t *testing.T) {
	router := setupVisionTest()
	body, contentType := multipartImage(t, "text/plain", []byte("hello"))

	req := httptest.NewRequest("POST", "/vision/estimate_meal", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

// TestEstimateMealEndpoint_MissingFile verifies the missing-part error.
func TestEstimateMealEndpoint_MissingFile(t *testing.T) {
	router := setupVisionTest()
	req := httptest.NewRequest("POST", "/vision/estimate_meal", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}
