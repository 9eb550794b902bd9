// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/motionprod/motion-productions/internal/config"
	"github.com/motionprod/motion-productions/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(&config.DatabaseConfig{
		Path:      filepath.Join(t.TempDir(), "test.db"),
		MaxMemory: "256MB",
		Threads:   2,
	})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() failed: %v", err)
		}
	})
	return db
}

func TestJobLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	dur := 6.0
	job, err := db.CreateJob(ctx, "calm blue ocean drift", &dur, nil)
	if err != nil {
		t.Fatalf("CreateJob() failed: %v", err)
	}
	if job.ID == "" {
		t.Fatal("expected job ID to be assigned")
	}
	if job.Status != models.JobStatusPending {
		t.Errorf("status = %q, want %q", job.Status, models.JobStatusPending)
	}

	got, err := db.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob() failed: %v", err)
	}
	if got.Prompt != job.Prompt {
		t.Errorf("prompt = %q, want %q", got.Prompt, job.Prompt)
	}

	if err := db.SetJobR2Key(ctx, job.ID, "jobs/"+job.ID+"/video.mp4"); err != nil {
		t.Fatalf("SetJobR2Key() failed: %v", err)
	}
	got, err = db.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob() after upload failed: %v", err)
	}
	if got.Status != models.JobStatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if got.R2Key == nil || *got.R2Key == "" {
		t.Error("expected r2_key to be set")
	}

	if _, err := db.GetJob(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetJob(missing) = %v, want ErrNotFound", err)
	}
}

func TestListJobsFiltersByStatus(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a, _ := db.CreateJob(ctx, "first", nil, nil)
	if _, err := db.CreateJob(ctx, "second", nil, nil); err != nil {
		t.Fatalf("CreateJob() failed: %v", err)
	}
	if err := db.UpdateJobStatus(ctx, a.ID, models.JobStatusCompleted); err != nil {
		t.Fatalf("UpdateJobStatus() failed: %v", err)
	}

	completed, err := db.ListJobs(ctx, models.JobStatusCompleted, 10, 0)
	if err != nil {
		t.Fatalf("ListJobs() failed: %v", err)
	}
	if len(completed) != 1 || completed[0].ID != a.ID {
		t.Errorf("completed jobs = %d, want exactly job %s", len(completed), a.ID)
	}

	all, err := db.ListJobs(ctx, "", 10, 0)
	if err != nil {
		t.Fatalf("ListJobs(all) failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all jobs = %d, want 2", len(all))
	}
}

func TestStaticColorInsertThenIncrement(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sc := &models.StaticColor{
		Key: "100,125,150", R: 100, G: 125, B: 150, Name: "mistsong",
		DepthBreakdown: map[string]float64{"blue": 60, "gray": 40},
	}
	if err := db.InsertStaticColor(ctx, sc); err != nil {
		t.Fatalf("InsertStaticColor() failed: %v", err)
	}

	// A second insert with the same key must lose to the constraint.
	dup := &models.StaticColor{Key: "100,125,150", R: 100, G: 125, B: 150}
	if err := db.InsertStaticColor(ctx, dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate insert = %v, want ErrDuplicate", err)
	}

	count, err := db.IncrementStaticColor(ctx, "100,125,150")
	if err != nil {
		t.Fatalf("IncrementStaticColor() failed: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}

	got, err := db.GetStaticColorByKey(ctx, "100,125,150")
	if err != nil {
		t.Fatalf("GetStaticColorByKey() failed: %v", err)
	}
	if got.Name != "mistsong" {
		t.Errorf("name = %q, want mistsong", got.Name)
	}
	if got.DepthBreakdown["blue"] != 60 {
		t.Errorf("depth_breakdown[blue] = %v, want 60", got.DepthBreakdown["blue"])
	}
}

func TestBlendInsertIncrementAndSourceMerge(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	b := &models.Blend{
		Domain:     "motion",
		ProfileKey: "drift_low_steady",
		Name:       "slowdrift",
		Sources:    []string{"calm ocean"},
		DepthPct:   40,
	}
	if err := db.InsertBlend(ctx, b); err != nil {
		t.Fatalf("InsertBlend() failed: %v", err)
	}

	count, err := db.IncrementBlend(ctx, "motion", "drift_low_steady", "misty forest")
	if err != nil {
		t.Fatalf("IncrementBlend() failed: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}

	got, err := db.GetBlendByKey(ctx, "motion", "drift_low_steady")
	if err != nil {
		t.Fatalf("GetBlendByKey() failed: %v", err)
	}
	if len(got.Sources) != 2 {
		t.Errorf("sources = %v, want both prompts", got.Sources)
	}

	if _, err := db.GetBlendByKey(ctx, "bogus", "x"); err == nil {
		t.Error("expected error for unknown domain")
	}
}

func TestNarrativeUpsert(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ne := &models.NarrativeEntry{Aspect: "mood", EntryKey: "serene", Value: "serene"}
	count, inserted, err := db.UpsertNarrativeEntry(ctx, ne)
	if err != nil {
		t.Fatalf("UpsertNarrativeEntry() failed: %v", err)
	}
	if !inserted || count != 1 {
		t.Errorf("first upsert = (count=%d inserted=%v), want (1 true)", count, inserted)
	}

	count, inserted, err = db.UpsertNarrativeEntry(ctx, &models.NarrativeEntry{Aspect: "mood", EntryKey: "serene"})
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	if inserted || count != 2 {
		t.Errorf("second upsert = (count=%d inserted=%v), want (2 false)", count, inserted)
	}
}

func TestNameReserveAndGlobalLookup(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.ReserveName(ctx, "emberglow"); err != nil {
		t.Fatalf("ReserveName() failed: %v", err)
	}
	if err := db.ReserveName(ctx, "emberglow"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second reserve = %v, want ErrDuplicate", err)
	}

	taken, err := db.NameInUse(ctx, "emberglow")
	if err != nil {
		t.Fatalf("NameInUse() failed: %v", err)
	}
	if !taken {
		t.Error("reserved name should read as in use")
	}

	// Registry name columns count too.
	sc := &models.StaticColor{Key: "0,0,255", B: 255, Name: "deepwave"}
	if err := db.InsertStaticColor(ctx, sc); err != nil {
		t.Fatalf("InsertStaticColor() failed: %v", err)
	}
	taken, err = db.NameInUse(ctx, "deepwave")
	if err != nil {
		t.Fatalf("NameInUse(deepwave) failed: %v", err)
	}
	if !taken {
		t.Error("registry row name should read as in use")
	}

	taken, err = db.NameInUse(ctx, "unusedname")
	if err != nil {
		t.Fatalf("NameInUse(unusedname) failed: %v", err)
	}
	if taken {
		t.Error("fresh name should not read as in use")
	}
}

func TestInterpretationQueueOrdering(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.EnqueueInterpretation(ctx, "i-loop", "loop prompt", models.InterpSourceLoop); err != nil {
		t.Fatalf("EnqueueInterpretation() failed: %v", err)
	}
	if _, err := db.EnqueueInterpretation(ctx, "i-web", "web prompt", models.InterpSourceWeb); err != nil {
		t.Fatalf("EnqueueInterpretation() failed: %v", err)
	}

	// Web submissions jump the queue even when enqueued later.
	next, err := db.NextPendingInterpretation(ctx)
	if err != nil {
		t.Fatalf("NextPendingInterpretation() failed: %v", err)
	}
	if next.ID != "i-web" {
		t.Errorf("next = %s, want i-web", next.ID)
	}

	if err := db.CompleteInterpretation(ctx, "i-web", `{"kind":"scene"}`); err != nil {
		t.Fatalf("CompleteInterpretation() failed: %v", err)
	}
	next, err = db.NextPendingInterpretation(ctx)
	if err != nil {
		t.Fatalf("NextPendingInterpretation() after complete failed: %v", err)
	}
	if next.ID != "i-loop" {
		t.Errorf("next = %s, want i-loop", next.ID)
	}

	if err := db.CompleteInterpretation(ctx, "i-loop", `{}`); err != nil {
		t.Fatalf("CompleteInterpretation() failed: %v", err)
	}
	if _, err := db.NextPendingInterpretation(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("empty queue = %v, want ErrNotFound", err)
	}
}

func TestProgressOverRecentJobs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// 4 completed jobs: 3 with a learning run, 2 with a discovery run.
	var ids []string
	for i := 0; i < 4; i++ {
		job, err := db.CreateJob(ctx, "prompt", nil, nil)
		if err != nil {
			t.Fatalf("CreateJob() failed: %v", err)
		}
		if err := db.UpdateJobStatus(ctx, job.ID, models.JobStatusCompleted); err != nil {
			t.Fatalf("UpdateJobStatus() failed: %v", err)
		}
		ids = append(ids, job.ID)
	}
	for i := 0; i < 3; i++ {
		if _, err := db.InsertLearningRun(ctx, &ids[i], "prompt", "{}", "{}"); err != nil {
			t.Fatalf("InsertLearningRun() failed: %v", err)
		}
	}
	for i := 0; i < 2; i++ {
		if err := db.InsertDiscoveryRun(ctx, ids[i], "{}", 0); err != nil {
			t.Fatalf("InsertDiscoveryRun() failed: %v", err)
		}
	}

	p, err := db.GetProgress(ctx, 20)
	if err != nil {
		t.Fatalf("GetProgress() failed: %v", err)
	}
	if p.TotalRuns != 4 {
		t.Errorf("total_runs = %d, want 4", p.TotalRuns)
	}
	if p.PrecisionPct != 75 {
		t.Errorf("precision_pct = %v, want 75", p.PrecisionPct)
	}
	if p.DiscoveryRatePct != 50 {
		t.Errorf("discovery_rate_pct = %v, want 50", p.DiscoveryRatePct)
	}
	if p.TargetPct != ProgressTargetPct {
		t.Errorf("target_pct = %v, want %v", p.TargetPct, ProgressTargetPct)
	}
}

func TestCoverageSnapshot(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sc := &models.StaticColor{Key: "255,0,0", R: 255}
	if err := db.InsertStaticColor(ctx, sc); err != nil {
		t.Fatalf("InsertStaticColor() failed: %v", err)
	}
	ss := &models.StaticSound{Key: "50_tone_soft", Tone: "tone", StrengthPct: 50}
	if err := db.InsertStaticSound(ctx, ss); err != nil {
		t.Fatalf("InsertStaticSound() failed: %v", err)
	}
	ne := &models.NarrativeEntry{Aspect: "genre", EntryKey: "drama"}
	if _, _, err := db.UpsertNarrativeEntry(ctx, ne); err != nil {
		t.Fatalf("UpsertNarrativeEntry() failed: %v", err)
	}

	cov, err := db.GetCoverage(ctx)
	if err != nil {
		t.Fatalf("GetCoverage() failed: %v", err)
	}
	if cov.StaticColorCount != 1 {
		t.Errorf("static color count = %d, want 1", cov.StaticColorCount)
	}
	if !cov.SoundPrimitives["tone"] {
		t.Error("tone primitive should be present")
	}
	if cov.SoundPrimitives["pulse"] {
		t.Error("pulse primitive should be absent")
	}
	genre := cov.Narrative["genre"]
	if genre.Count != 1 || genre.OriginSize != 7 {
		t.Errorf("genre coverage = %+v, want count 1 over origin 7", genre)
	}
}

func TestCascadeRename(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	b := &models.Blend{
		Domain:     "motion",
		ProfileKey: "pk1",
		Name:       "dsc_ab12cd",
		Sources:    []string{"blend of dsc_ab12cd and blue"},
	}
	if err := db.InsertBlend(ctx, b); err != nil {
		t.Fatalf("InsertBlend() failed: %v", err)
	}
	if _, err := db.CreateJob(ctx, "render dsc_ab12cd slowly", nil, nil); err != nil {
		t.Fatalf("CreateJob() failed: %v", err)
	}

	if err := db.RenameRow(ctx, "learned_motion", b.ID, "driftglow"); err != nil {
		t.Fatalf("RenameRow() failed: %v", err)
	}
	n, err := db.CascadeRename(ctx, "dsc_ab12cd", "driftglow", false)
	if err != nil {
		t.Fatalf("CascadeRename() failed: %v", err)
	}
	if n < 2 {
		t.Errorf("cascade touched %d rows, want at least 2", n)
	}

	jobs, err := db.ListJobs(ctx, "", 10, 0)
	if err != nil {
		t.Fatalf("ListJobs() failed: %v", err)
	}
	if jobs[0].Prompt != "render driftglow slowly" {
		t.Errorf("job prompt = %q, want rename applied", jobs[0].Prompt)
	}
	got, err := db.GetBlendByKey(ctx, "motion", "pk1")
	if err != nil {
		t.Fatalf("GetBlendByKey() failed: %v", err)
	}
	if got.Sources[0] != "blend of driftglow and blue" {
		t.Errorf("sources[0] = %q, want rename applied", got.Sources[0])
	}
}

func TestFeatureMapMarksAllTables(t *testing.T) {
	db := newTestDB(t)
	for _, table := range requiredTables {
		if !db.HasTable(table) {
			t.Errorf("required table %q missing from feature map", table)
		}
	}
	for _, table := range optionalTables {
		if !db.HasTable(table) {
			t.Errorf("optional table %q should exist after schema init", table)
		}
	}
}
