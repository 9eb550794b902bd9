// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/motionprod/motion-productions/internal/blob"
	"github.com/motionprod/motion-productions/internal/config"
	"github.com/motionprod/motion-productions/internal/database"
	"github.com/motionprod/motion-productions/internal/kv"
	"github.com/motionprod/motion-productions/internal/models"
	"github.com/motionprod/motion-productions/internal/namegen"
)

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()

	db, err := database.New(&config.DatabaseConfig{
		Path:      filepath.Join(t.TempDir(), "test.db"),
		MaxMemory: "256MB",
		Threads:   2,
	})
	if err != nil {
		t.Fatalf("database.New() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	kvStore, err := kv.Open("")
	if err != nil {
		t.Fatalf("kv.Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = kvStore.Close() })

	cfg := &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 8080, Timeout: 30 * time.Second},
		API: config.APIConfig{
			RateLimitReqs:   10000,
			RateLimitWindow: time.Minute,
			MaxUploadBytes:  25 << 20,
		},
	}

	srv := NewServer(db, kvStore, blob.NewMemoryStore(), namegen.New(db, 42), cfg)
	return srv, srv.Router()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	_, h := newTestServer(t)

	for _, path := range []string{"/health", "/api/health"} {
		rec := doJSON(t, h, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d, want 200", path, rec.Code)
		}
		var body map[string]any
		decode(t, rec, &body)
		if body["ok"] != true || body["service"] != "motion-productions" {
			t.Errorf("%s body = %v", path, body)
		}
	}
}

func TestJobLifecycleOverHTTP(t *testing.T) {
	_, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/jobs", map[string]any{
		"prompt": "Sunset over the ocean", "duration_seconds": 6,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decode(t, rec, &created)
	if created.Status != models.JobStatusPending {
		t.Errorf("status = %q, want pending", created.Status)
	}

	// Empty upload body is rejected.
	req := httptest.NewRequest(http.MethodPost, "/jobs/"+created.ID+"/upload", bytes.NewReader(nil))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty upload status = %d, want 400", rec.Code)
	}

	video := []byte("not really an mp4 but bytes all the same")
	req = httptest.NewRequest(http.MethodPost, "/jobs/"+created.ID+"/upload", bytes.NewReader(video))
	req.Header.Set("Content-Type", "video/mp4")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d: %s", rec.Code, rec.Body.String())
	}
	var uploaded struct {
		Status      string `json:"status"`
		DownloadURL string `json:"download_url"`
	}
	decode(t, rec, &uploaded)
	if uploaded.Status != models.JobStatusCompleted {
		t.Errorf("status after upload = %q, want completed", uploaded.Status)
	}
	if uploaded.DownloadURL == "" {
		t.Error("expected download_url after upload")
	}

	// Second upload is rejected.
	req = httptest.NewRequest(http.MethodPost, "/jobs/"+created.ID+"/upload", bytes.NewReader(video))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("second upload status = %d, want 400", rec.Code)
	}
	var errBody struct {
		Error string `json:"error"`
	}
	decode(t, rec, &errBody)
	if errBody.Error != "job already has video" {
		t.Errorf("error = %q", errBody.Error)
	}

	// Download returns the exact bytes with a matching length.
	rec = doJSON(t, h, http.MethodGet, "/jobs/"+created.ID+"/download", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("download status = %d", rec.Code)
	}
	if !bytes.Equal(rec.Body.Bytes(), video) {
		t.Error("downloaded bytes differ from upload")
	}
	if got := rec.Header().Get("Content-Length"); got != fmt.Sprintf("%d", len(video)) {
		t.Errorf("Content-Length = %s, want %d", got, len(video))
	}
}

func TestCreateJobValidation(t *testing.T) {
	_, h := newTestServer(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing prompt", map[string]any{}},
		{"blank prompt", map[string]any{"prompt": "   "}},
		{"bad workflow", map[string]any{"prompt": "ok", "workflow_type": "robot"}},
		{"bad duration", map[string]any{"prompt": "ok", "duration_seconds": 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/jobs", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestDiscoveryCapEnforcement(t *testing.T) {
	_, h := newTestServer(t)

	items := make([]map[string]any, 0, 20)
	for i := 0; i < 20; i++ {
		items = append(items, map[string]any{"key": fmt.Sprintf("%d,%d,%d", i, i+10, i+20)})
	}
	body := map[string]any{"static_colors": items}

	rec := doJSON(t, h, http.MethodPost, "/knowledge/discoveries", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Results   map[string]int `json:"results"`
		Truncated bool           `json:"truncated"`
	}
	decode(t, rec, &resp)
	if !resp.Truncated {
		t.Error("expected truncated:true on first batch")
	}
	if resp.Results["static_colors"] != models.MaxDiscoveryItems {
		t.Errorf("accepted = %d, want %d", resp.Results["static_colors"], models.MaxDiscoveryItems)
	}

	// Same 20 keys again: the first 14 already exist and increment for
	// free; the remaining 6 are fresh inserts within budget.
	rec = doJSON(t, h, http.MethodPost, "/knowledge/discoveries", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("second status = %d: %s", rec.Code, rec.Body.String())
	}
	decode(t, rec, &resp)
	if resp.Truncated {
		t.Error("second batch should not truncate")
	}
	if resp.Results["static_colors"] != 20 {
		t.Errorf("second accepted = %d, want 20", resp.Results["static_colors"])
	}
}

func TestColorKeyCanonicalization(t *testing.T) {
	_, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/knowledge/discoveries", map[string]any{
		"static_colors": []map[string]any{{"key": "100,125,150_1.0"}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/registries", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("registries status = %d", rec.Code)
	}
	var view struct {
		Static struct {
			Colors []struct {
				Key            string             `json:"key"`
				OpacityPct     *float64           `json:"opacity_pct"`
				DepthBreakdown map[string]float64 `json:"depth_breakdown"`
			} `json:"colors"`
		} `json:"static"`
	}
	decode(t, rec, &view)
	if len(view.Static.Colors) != 1 {
		t.Fatalf("colors = %d, want 1", len(view.Static.Colors))
	}
	c := view.Static.Colors[0]
	if c.Key != "100,125,150" {
		t.Errorf("key = %q, want canonical form", c.Key)
	}
	if c.OpacityPct == nil || *c.OpacityPct != 100 {
		t.Errorf("opacity_pct = %v, want 100", c.OpacityPct)
	}
	for k := range c.DepthBreakdown {
		if !models.IsColorPrimitive(k) {
			t.Errorf("non-primitive key %q in depth_breakdown", k)
		}
	}
}

func TestNarrativeLowCountDisplaysValue(t *testing.T) {
	_, h := newTestServer(t)

	submit := func() {
		rec := doJSON(t, h, http.MethodPost, "/knowledge/discoveries", map[string]any{
			"narrative": map[string][]map[string]any{
				"genre": {{"key": "noir", "value": "noir", "name": "shadowtone"}},
			},
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
	}
	submit()

	genreEntry := func() (name string, count int) {
		rec := doJSON(t, h, http.MethodGet, "/registries", nil)
		var view struct {
			Narrative map[string][]struct {
				Key   string `json:"key"`
				Name  string `json:"name"`
				Count int    `json:"count"`
			} `json:"narrative"`
		}
		decode(t, rec, &view)
		for _, e := range view.Narrative["genre"] {
			if e.Key == "noir" {
				return e.Name, e.Count
			}
		}
		t.Fatal("noir entry not found")
		return "", 0
	}

	name, count := genreEntry()
	if count != 1 || name != "noir" {
		t.Errorf("entry = (%q, %d), want value shown while count < 5", name, count)
	}

	for i := 0; i < 4; i++ {
		submit()
	}
	name, count = genreEntry()
	if count != 5 {
		t.Fatalf("count = %d, want 5", count)
	}
	if name != "shadowtone" {
		t.Errorf("name = %q, want stored name once established", name)
	}
}

func TestRegistriesIncludeUndiscoveredOrigins(t *testing.T) {
	_, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/registries", nil)
	var view struct {
		Dynamic struct {
			Gradient []struct {
				Key   string `json:"key"`
				Count int    `json:"count"`
			} `json:"gradient"`
		} `json:"dynamic"`
		Narrative map[string][]struct {
			Key   string `json:"key"`
			Count int    `json:"count"`
		} `json:"narrative"`
	}
	decode(t, rec, &view)

	found := map[string]bool{}
	for _, e := range view.Dynamic.Gradient {
		found[e.Key] = true
	}
	for _, origin := range models.OriginGradient {
		if !found[origin] {
			t.Errorf("origin gradient %q missing from empty view", origin)
		}
	}
	if len(view.Narrative["mood"]) != len(models.NarrativeOrigins["mood"]) {
		t.Errorf("mood entries = %d, want all origins", len(view.Narrative["mood"]))
	}
}

func TestLoopProgressScenario(t *testing.T) {
	srv, h := newTestServer(t)
	ctx := t.Context()

	// 20 completed jobs, 17 with learning runs, 13 with discovery runs.
	var ids []string
	for i := 0; i < 20; i++ {
		job, err := srv.db.CreateJob(ctx, fmt.Sprintf("prompt %d", i), nil, nil)
		if err != nil {
			t.Fatalf("CreateJob() failed: %v", err)
		}
		if err := srv.db.UpdateJobStatus(ctx, job.ID, models.JobStatusCompleted); err != nil {
			t.Fatalf("UpdateJobStatus() failed: %v", err)
		}
		ids = append(ids, job.ID)
	}
	for i := 0; i < 17; i++ {
		if _, err := srv.db.InsertLearningRun(ctx, &ids[i], "p", "{}", "{}"); err != nil {
			t.Fatalf("InsertLearningRun() failed: %v", err)
		}
	}
	for i := 0; i < 13; i++ {
		if err := srv.db.InsertDiscoveryRun(ctx, ids[i], "{}", 1); err != nil {
			t.Fatalf("InsertDiscoveryRun() failed: %v", err)
		}
	}

	rec := doJSON(t, h, http.MethodGet, "/loop/progress?last=20", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp loopProgressResponse
	decode(t, rec, &resp)
	if resp.PrecisionPct != 85 {
		t.Errorf("precision_pct = %v, want 85", resp.PrecisionPct)
	}
	if resp.DiscoveryRatePct != 65 {
		t.Errorf("discovery_rate_pct = %v, want 65", resp.DiscoveryRatePct)
	}
	if resp.TargetPct != 95 {
		t.Errorf("target_pct = %v, want 95", resp.TargetPct)
	}
	if resp.TotalRuns != 20 {
		t.Errorf("total_runs = %d, want 20", resp.TotalRuns)
	}
}

func TestBackfillNamesCascade(t *testing.T) {
	srv, h := newTestServer(t)
	ctx := t.Context()

	b := &models.Blend{Domain: "motion", ProfileKey: "pk-gib", Name: "dsc_ab12cd"}
	if err := srv.db.InsertBlend(ctx, b); err != nil {
		t.Fatalf("InsertBlend() failed: %v", err)
	}
	// Three rows referencing the gibberish name in their source prompts.
	for i := 0; i < 3; i++ {
		ref := &models.Blend{
			Domain:     "lighting",
			ProfileKey: fmt.Sprintf("ref-%d", i),
			Name:       fmt.Sprintf("glowref%d", i),
			Sources:    []string{"derived from dsc_ab12cd frames"},
		}
		if err := srv.db.InsertBlend(ctx, ref); err != nil {
			t.Fatalf("InsertBlend(ref) failed: %v", err)
		}
	}

	rec := doJSON(t, h, http.MethodPost, "/registries/backfill-names?limit=1&table=learned_motion", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Renamed []renamedRow `json:"renamed"`
		Count   int          `json:"count"`
	}
	decode(t, rec, &resp)
	if resp.Count != 1 {
		t.Fatalf("renamed count = %d, want 1", resp.Count)
	}
	newName := resp.Renamed[0].NewName
	if newName == "" || namegen.IsGibberish(newName) {
		t.Fatalf("new name %q should be a clean allocator name", newName)
	}

	renamed, err := srv.db.GetBlendByKey(ctx, "motion", "pk-gib")
	if err != nil {
		t.Fatalf("GetBlendByKey() failed: %v", err)
	}
	if renamed.Name != newName {
		t.Errorf("row name = %q, want %q", renamed.Name, newName)
	}
	for i := 0; i < 3; i++ {
		ref, err := srv.db.GetBlendByKey(ctx, "lighting", fmt.Sprintf("ref-%d", i))
		if err != nil {
			t.Fatalf("GetBlendByKey(ref) failed: %v", err)
		}
		want := "derived from " + newName + " frames"
		if ref.Sources[0] != want {
			t.Errorf("ref %d source = %q, want %q", i, ref.Sources[0], want)
		}
	}
}

func TestLoopStateVersionMonotonic(t *testing.T) {
	_, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/loop/state", models.LoopState{Version: 5, RunCount: 3})
	if rec.Code != http.StatusOK {
		t.Fatalf("first save status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodPost, "/loop/state", models.LoopState{Version: 4})
	if rec.Code != http.StatusConflict {
		t.Errorf("stale save status = %d, want 409", rec.Code)
	}
}

func TestLoopStateRateLimit(t *testing.T) {
	_, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/loop/state", models.LoopState{Version: 1})
	if rec.Code != http.StatusOK {
		t.Fatalf("first save status = %d", rec.Code)
	}
	// Second save within the 1/s key budget trips the limiter.
	rec = doJSON(t, h, http.MethodPost, "/loop/state", models.LoopState{Version: 2})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second save status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "2" {
		t.Errorf("Retry-After = %q, want 2", rec.Header().Get("Retry-After"))
	}
}

func TestLoopConfigMergePatch(t *testing.T) {
	_, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/loop/config", map[string]any{"exploit_ratio": 0.8})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var cfg models.LoopConfig
	decode(t, rec, &cfg)
	if cfg.ExploitRatio != 0.8 {
		t.Errorf("exploit_ratio = %v, want 0.8", cfg.ExploitRatio)
	}
	if cfg.DelaySeconds != 30 {
		t.Errorf("delay_seconds = %d, want untouched default 30", cfg.DelaySeconds)
	}

	rec = doJSON(t, h, http.MethodPost, "/loop/config", map[string]any{"exploit_ratio": 1.5})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("out-of-range status = %d, want 400", rec.Code)
	}
}

func TestInterpretationGibberishGate(t *testing.T) {
	_, h := newTestServer(t)

	gibberish := "dsc_9f3acb21 qqqqzzzz xkcdqwrtpsdfgh"
	rec := doJSON(t, h, http.MethodPost, "/interpretations", map[string]any{
		"prompt": gibberish, "source": "worker",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("worker gibberish status = %d, want 400", rec.Code)
	}

	// The loop bypasses the detector.
	rec = doJSON(t, h, http.MethodPost, "/interpretations", map[string]any{
		"prompt": gibberish, "source": "loop",
	})
	if rec.Code != http.StatusCreated {
		t.Errorf("loop gibberish status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	// Batch skips gibberish items silently.
	rec = doJSON(t, h, http.MethodPost, "/interpretations/batch", map[string]any{
		"items": []map[string]any{
			{"prompt": gibberish, "source": "worker"},
			{"prompt": "calm ocean sunrise", "source": "worker"},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("batch status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Written int `json:"written"`
		Skipped int `json:"skipped"`
	}
	decode(t, rec, &resp)
	if resp.Written != 1 || resp.Skipped != 1 {
		t.Errorf("batch = %+v, want 1 written 1 skipped", resp)
	}
}

func TestEventTypeValidation(t *testing.T) {
	_, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/events", map[string]any{"event_type": "video_played"})
	if rec.Code != http.StatusCreated {
		t.Errorf("valid event status = %d, want 201", rec.Code)
	}
	rec = doJSON(t, h, http.MethodPost, "/events", map[string]any{"event_type": "made_up"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid event status = %d, want 400", rec.Code)
	}
}

func TestLinguisticBatchUpsert(t *testing.T) {
	_, h := newTestServer(t)

	body := map[string]any{
		"items": []map[string]any{
			{"span": "Crimson", "canonical": "red", "domain": "color", "variant_type": "synonym"},
			{"span": "", "domain": "color"},
			{"span": "crimson", "canonical": "red", "domain": "color"},
		},
	}
	rec := doJSON(t, h, http.MethodPost, "/linguistic/batch", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("batch status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Written int `json:"written"`
		Skipped int `json:"skipped"`
	}
	decode(t, rec, &resp)
	// The duplicate span increments the same row; both writes count.
	if resp.Written != 2 || resp.Skipped != 1 {
		t.Errorf("batch = %+v, want 2 written 1 skipped", resp)
	}

	rec = doJSON(t, h, http.MethodGet, "/registries", nil)
	var reg struct {
		Linguistic []struct {
			Span  string `json:"span"`
			Count int    `json:"count"`
		} `json:"linguistic"`
	}
	decode(t, rec, &reg)
	if len(reg.Linguistic) != 1 {
		t.Fatalf("linguistic rows = %d, want 1", len(reg.Linguistic))
	}
	if reg.Linguistic[0].Span != "crimson" || reg.Linguistic[0].Count != 2 {
		t.Errorf("row = %+v, want span crimson count 2", reg.Linguistic[0])
	}
}

func TestDiscoveryUnknownCategoryRejected(t *testing.T) {
	_, h := newTestServer(t)

	// A typo'd category must not 201 and silently drop the items.
	rec := doJSON(t, h, http.MethodPost, "/knowledge/discoveries", map[string]any{
		"static_colours": []map[string]any{{"key": "10,20,30"}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("typo category status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
	var errBody struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	decode(t, rec, &errBody)
	if errBody.Details != "static_colours" {
		t.Errorf("details = %q, want the offending key", errBody.Details)
	}

	// One bad key poisons the whole batch; the valid categories alongside it
	// are not written.
	rec = doJSON(t, h, http.MethodPost, "/knowledge/discoveries", map[string]any{
		"static_colors":  []map[string]any{{"key": "10,20,30"}},
		"bogus_category": []map[string]any{{"key": "x"}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("mixed batch status = %d, want 400", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/registries", nil)
	var reg struct {
		Static struct {
			Colors []registryEntry `json:"colors"`
		} `json:"static"`
	}
	decode(t, rec, &reg)
	if len(reg.Static.Colors) != 0 {
		t.Errorf("static colors after rejected batch = %d rows, want 0", len(reg.Static.Colors))
	}
}

func TestEventPayloadAcceptsAnyShape(t *testing.T) {
	_, h := newTestServer(t)

	payloads := []any{
		map[string]any{"position_pct": 40, "source": "web"},
		[]any{1, 2, 3},
		"plain string",
	}
	for _, p := range payloads {
		rec := doJSON(t, h, http.MethodPost, "/events", map[string]any{
			"event_type": "video_played", "payload": p,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("payload %v status = %d, want 201: %s", p, rec.Code, rec.Body.String())
		}
	}

	rec := doJSON(t, h, http.MethodGet, "/events?type=video_played", nil)
	var list struct {
		Events []struct {
			Payload string `json:"payload"`
		} `json:"events"`
		Count int `json:"count"`
	}
	decode(t, rec, &list)
	if list.Count != 3 {
		t.Fatalf("events = %d, want 3", list.Count)
	}
	// The object payload is stored verbatim.
	verbatim := false
	for _, ev := range list.Events {
		if strings.Contains(ev.Payload, "position_pct") {
			verbatim = true
		}
	}
	if !verbatim {
		t.Error("object payload was not stored verbatim")
	}
}

func TestPendingListServesFullBacklog(t *testing.T) {
	srv, h := newTestServer(t)
	ctx := context.Background()

	// The renderer consumes the pending queue whole, so a backlog past the
	// general list clamp must still come back in one response.
	const backlog = 520
	for i := 0; i < backlog; i++ {
		if _, err := srv.db.CreateJob(ctx, "queued prompt", nil, nil); err != nil {
			t.Fatalf("CreateJob() failed: %v", err)
		}
	}

	rec := doJSON(t, h, http.MethodGet, "/jobs?status=pending", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d: %s", rec.Code, rec.Body.String())
	}
	var list struct {
		Count int `json:"count"`
	}
	decode(t, rec, &list)
	if list.Count != backlog {
		t.Errorf("pending count = %d, want %d", list.Count, backlog)
	}
}
