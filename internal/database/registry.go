// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/motionprod/motion-productions/internal/logging"
	"github.com/motionprod/motion-productions/internal/models"
)

// blendTable maps a domain to its learned_<domain> table, rejecting unknown
// domains so table names are never built from raw input.
func blendTable(domain string) (string, error) {
	for _, d := range models.BlendDomains {
		if d == domain {
			return "learned_" + d, nil
		}
	}
	return "", fmt.Errorf("unknown blend domain %q", domain)
}

func marshalMap(m map[string]float64) *string {
	if len(m) == 0 {
		return nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	s := string(b)
	return &s
}

func unmarshalMap(s *string) map[string]float64 {
	if s == nil || *s == "" {
		return nil
	}
	var m map[string]float64
	if err := json.Unmarshal([]byte(*s), &m); err != nil {
		return nil
	}
	return m
}

func marshalSources(sources []string) *string {
	if len(sources) == 0 {
		return nil
	}
	if len(sources) > models.MaxBlendSources {
		sources = sources[len(sources)-models.MaxBlendSources:]
	}
	b, err := json.Marshal(sources)
	if err != nil {
		return nil
	}
	s := string(b)
	return &s
}

func unmarshalSources(s *string) []string {
	if s == nil || *s == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(*s), &out); err != nil {
		return nil
	}
	return out
}

// --- static_color ---

// GetStaticColorByKey looks up a pure color row by canonical key.
func (db *DB) GetStaticColorByKey(ctx context.Context, key string) (*models.StaticColor, error) {
	if !db.features["static_color"] {
		return nil, ErrNotFound
	}
	ctx, cancel := queryContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		`SELECT id, key, r, g, b, count, name, depth_breakdown, theme_breakdown, opacity_pct, updated_at
		 FROM static_color WHERE key = ?`, key)
	return scanStaticColor(row)
}

// IncrementStaticColor bumps the count for an existing key and returns the
// new count.
func (db *DB) IncrementStaticColor(ctx context.Context, key string) (int, error) {
	if !db.features["static_color"] {
		return 0, ErrTableAbsent
	}
	ctx, cancel := queryContext(ctx)
	defer cancel()

	var count int
	err := db.conn.QueryRowContext(ctx,
		`UPDATE static_color SET count = count + 1, updated_at = ? WHERE key = ? RETURNING count`,
		now(), key).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment static_color: %w", err)
	}
	return count, nil
}

// UpdateStaticColorBreakdown refreshes the stored breakdowns for an existing
// key. Used when a resubmission carries fresher depth data.
func (db *DB) UpdateStaticColorBreakdown(ctx context.Context, key string, depth, theme map[string]float64, opacityPct *float64) error {
	if !db.features["static_color"] {
		return ErrTableAbsent
	}
	ctx, cancel := queryContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx,
		`UPDATE static_color SET depth_breakdown = ?, theme_breakdown = ?, opacity_pct = ?, updated_at = ? WHERE key = ?`,
		marshalMap(depth), marshalMap(theme), opacityPct, now(), key)
	if err != nil {
		return fmt.Errorf("failed to update static_color breakdown: %w", err)
	}
	return nil
}

// InsertStaticColor inserts a new pure color row. Returns ErrDuplicate when
// a racing writer inserted the key first; the caller reconciles by
// incrementing instead.
func (db *DB) InsertStaticColor(ctx context.Context, sc *models.StaticColor) error {
	if !db.features["static_color"] {
		logging.Warn().Str("table", "static_color").Msg("Skipping write: table not present")
		return ErrTableAbsent
	}
	ctx, cancel := queryContext(ctx)
	defer cancel()

	sc.Count = 1
	sc.UpdatedAt = now()
	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO static_color (key, r, g, b, count, name, depth_breakdown, theme_breakdown, opacity_pct, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		sc.Key, sc.R, sc.G, sc.B, sc.Count, nullable(sc.Name),
		marshalMap(sc.DepthBreakdown), marshalMap(sc.ThemeBreakdown), sc.OpacityPct, sc.UpdatedAt).Scan(&sc.ID)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert static_color: %w", err)
	}
	return nil
}

// ListStaticColors returns pure color rows ordered by count descending.
func (db *DB) ListStaticColors(ctx context.Context, limit, offset int) ([]*models.StaticColor, error) {
	if !db.features["static_color"] {
		return nil, nil
	}
	ctx, cancel := queryContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, key, r, g, b, count, name, depth_breakdown, theme_breakdown, opacity_pct, updated_at
		 FROM static_color ORDER BY count DESC, id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list static_color: %w", err)
	}
	defer rows.Close()

	var out []*models.StaticColor
	for rows.Next() {
		sc, err := scanStaticColor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func scanStaticColor(row interface{ Scan(...any) error }) (*models.StaticColor, error) {
	var sc models.StaticColor
	var name, depths, themes *string
	err := row.Scan(&sc.ID, &sc.Key, &sc.R, &sc.G, &sc.B, &sc.Count, &name,
		&depths, &themes, &sc.OpacityPct, &sc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan static_color: %w", err)
	}
	sc.Name = deref(name)
	sc.DepthBreakdown = unmarshalMap(depths)
	sc.ThemeBreakdown = unmarshalMap(themes)
	return &sc, nil
}

// --- static_sound ---

// GetStaticSoundByKey looks up a pure sound row by canonical key.
func (db *DB) GetStaticSoundByKey(ctx context.Context, key string) (*models.StaticSound, error) {
	if !db.features["static_sound"] {
		return nil, ErrNotFound
	}
	ctx, cancel := queryContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		`SELECT id, key, amplitude, strength_pct, tone, timbre, count, name, depth_breakdown, updated_at
		 FROM static_sound WHERE key = ?`, key)
	return scanStaticSound(row)
}

// IncrementStaticSound bumps the count for an existing key.
func (db *DB) IncrementStaticSound(ctx context.Context, key string) (int, error) {
	if !db.features["static_sound"] {
		return 0, ErrTableAbsent
	}
	ctx, cancel := queryContext(ctx)
	defer cancel()

	var count int
	err := db.conn.QueryRowContext(ctx,
		`UPDATE static_sound SET count = count + 1, updated_at = ? WHERE key = ? RETURNING count`,
		now(), key).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment static_sound: %w", err)
	}
	return count, nil
}

// InsertStaticSound inserts a new pure sound row, ErrDuplicate on a lost
// insert race.
func (db *DB) InsertStaticSound(ctx context.Context, ss *models.StaticSound) error {
	if !db.features["static_sound"] {
		logging.Warn().Str("table", "static_sound").Msg("Skipping write: table not present")
		return ErrTableAbsent
	}
	ctx, cancel := queryContext(ctx)
	defer cancel()

	ss.Count = 1
	ss.UpdatedAt = now()
	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO static_sound (key, amplitude, strength_pct, tone, timbre, count, name, depth_breakdown, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		ss.Key, ss.Amplitude, ss.StrengthPct, ss.Tone, ss.Timbre, ss.Count,
		nullable(ss.Name), marshalMap(ss.DepthBreakdown), ss.UpdatedAt).Scan(&ss.ID)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert static_sound: %w", err)
	}
	return nil
}

// ListStaticSounds returns pure sound rows ordered by count descending.
func (db *DB) ListStaticSounds(ctx context.Context, limit, offset int) ([]*models.StaticSound, error) {
	if !db.features["static_sound"] {
		return nil, nil
	}
	ctx, cancel := queryContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, key, amplitude, strength_pct, tone, timbre, count, name, depth_breakdown, updated_at
		 FROM static_sound ORDER BY count DESC, id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list static_sound: %w", err)
	}
	defer rows.Close()

	var out []*models.StaticSound
	for rows.Next() {
		ss, err := scanStaticSound(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ss)
	}
	return out, rows.Err()
}

func scanStaticSound(row interface{ Scan(...any) error }) (*models.StaticSound, error) {
	var ss models.StaticSound
	var name, depths *string
	err := row.Scan(&ss.ID, &ss.Key, &ss.Amplitude, &ss.StrengthPct, &ss.Tone,
		&ss.Timbre, &ss.Count, &name, &depths, &ss.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan static_sound: %w", err)
	}
	ss.Name = deref(name)
	ss.DepthBreakdown = unmarshalMap(depths)
	return &ss, nil
}

// --- learned_<domain> blends ---

// GetBlendByKey looks up a blended-registry row by profile key.
func (db *DB) GetBlendByKey(ctx context.Context, domain, profileKey string) (*models.Blend, error) {
	table, err := blendTable(domain)
	if err != nil {
		return nil, err
	}
	if !db.features[table] {
		return nil, ErrNotFound
	}
	ctx, cancel := queryContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT id, profile_key, name, count, sources, depth_breakdown, depth_pct, profile, updated_at
		 FROM %s WHERE profile_key = ?`, table), profileKey)
	return scanBlend(row, domain)
}

// IncrementBlend bumps the count for an existing profile key and merges new
// source prompts into the bounded sources list.
func (db *DB) IncrementBlend(ctx context.Context, domain, profileKey string, source string) (int, error) {
	table, err := blendTable(domain)
	if err != nil {
		return 0, err
	}
	if !db.features[table] {
		return 0, ErrTableAbsent
	}

	existing, err := db.GetBlendByKey(ctx, domain, profileKey)
	if err != nil {
		return 0, err
	}
	sources := existing.Sources
	if source != "" && !containsString(sources, source) {
		sources = append(sources, source)
	}

	ctx, cancel := queryContext(ctx)
	defer cancel()

	var count int
	err = db.conn.QueryRowContext(ctx, fmt.Sprintf(
		`UPDATE %s SET count = count + 1, sources = ?, updated_at = ? WHERE profile_key = ? RETURNING count`, table),
		marshalSources(sources), now(), profileKey).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment %s: %w", table, err)
	}
	return count, nil
}

// InsertBlend inserts a new blended-registry row, ErrDuplicate on a lost
// insert race.
func (db *DB) InsertBlend(ctx context.Context, b *models.Blend) error {
	table, err := blendTable(b.Domain)
	if err != nil {
		return err
	}
	if !db.features[table] {
		logging.Warn().Str("table", table).Msg("Skipping write: table not present")
		return ErrTableAbsent
	}
	ctx, cancel := queryContext(ctx)
	defer cancel()

	b.Count = 1
	b.UpdatedAt = now()
	err = db.conn.QueryRowContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (profile_key, name, count, sources, depth_breakdown, depth_pct, profile, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`, table),
		b.ProfileKey, nullable(b.Name), b.Count, marshalSources(b.Sources),
		marshalMap(b.DepthBreakdown), b.DepthPct, nullable(b.Extra), b.UpdatedAt).Scan(&b.ID)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert %s: %w", table, err)
	}
	return nil
}

// ListBlends returns blended rows for one domain ordered by count descending.
func (db *DB) ListBlends(ctx context.Context, domain string, limit, offset int) ([]*models.Blend, error) {
	table, err := blendTable(domain)
	if err != nil {
		return nil, err
	}
	if !db.features[table] {
		return nil, nil
	}
	ctx, cancel := queryContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(
		`SELECT id, profile_key, name, count, sources, depth_breakdown, depth_pct, profile, updated_at
		 FROM %s ORDER BY count DESC, id LIMIT ? OFFSET ?`, table), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	defer rows.Close()

	var out []*models.Blend
	for rows.Next() {
		b, err := scanBlend(rows, domain)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBlend(row interface{ Scan(...any) error }, domain string) (*models.Blend, error) {
	var b models.Blend
	var name, sources, depths, profile *string
	err := row.Scan(&b.ID, &b.ProfileKey, &name, &b.Count, &sources, &depths,
		&b.DepthPct, &profile, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan blend: %w", err)
	}
	b.Domain = domain
	b.Name = deref(name)
	b.Sources = unmarshalSources(sources)
	b.DepthBreakdown = unmarshalMap(depths)
	b.Extra = deref(profile)
	return &b, nil
}

// --- learned_blend fallback ---

// InsertLearnedBlend stores an uncategorized blend. Name uniqueness is the
// caller's responsibility (via the allocator); a constraint hit still maps
// to ErrDuplicate for the retry loop.
func (db *DB) InsertLearnedBlend(ctx context.Context, lb *models.LearnedBlend) error {
	if !db.features["learned_blend"] {
		logging.Warn().Str("table", "learned_blend").Msg("Skipping write: table not present")
		return ErrTableAbsent
	}
	ctx, cancel := queryContext(ctx)
	defer cancel()

	lb.CreatedAt = now()
	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO learned_blend (name, domain, inputs, output, primitive_depths, created_at)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		lb.Name, lb.Domain, nullable(lb.InputsJSON), nullable(lb.OutputJSON),
		nullable(lb.PrimitiveDepths), lb.CreatedAt).Scan(&lb.ID)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert learned_blend: %w", err)
	}
	return nil
}

// ListLearnedBlends returns fallback blends newest-first.
func (db *DB) ListLearnedBlends(ctx context.Context, limit, offset int) ([]*models.LearnedBlend, error) {
	if !db.features["learned_blend"] {
		return nil, nil
	}
	ctx, cancel := queryContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, domain, inputs, output, primitive_depths, created_at
		 FROM learned_blend ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list learned_blend: %w", err)
	}
	defer rows.Close()

	var out []*models.LearnedBlend
	for rows.Next() {
		var lb models.LearnedBlend
		var inputs, output, depths *string
		if err := rows.Scan(&lb.ID, &lb.Name, &lb.Domain, &inputs, &output, &depths, &lb.CreatedAt); err != nil {
			return nil, err
		}
		lb.InputsJSON = deref(inputs)
		lb.OutputJSON = deref(output)
		lb.PrimitiveDepths = deref(depths)
		out = append(out, &lb)
	}
	return out, rows.Err()
}

// --- narrative_entry ---

// UpsertNarrativeEntry inserts a semantic-registry row or increments the
// existing (aspect, entry_key) row. Returns the resulting count and whether
// the row was newly inserted.
func (db *DB) UpsertNarrativeEntry(ctx context.Context, ne *models.NarrativeEntry) (int, bool, error) {
	if !db.features["narrative_entry"] {
		logging.Warn().Str("table", "narrative_entry").Msg("Skipping write: table not present")
		return 0, false, ErrTableAbsent
	}
	ctx, cancel := queryContext(ctx)
	defer cancel()

	ne.UpdatedAt = now()
	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO narrative_entry (aspect, entry_key, value, name, count, updated_at)
		 VALUES (?, ?, ?, ?, 1, ?)
		 ON CONFLICT (aspect, entry_key) DO UPDATE SET
			count = narrative_entry.count + 1, updated_at = excluded.updated_at
		 RETURNING id, count`,
		ne.Aspect, ne.EntryKey, nullable(ne.Value), nullable(ne.Name), ne.UpdatedAt).Scan(&ne.ID, &ne.Count)
	if err != nil {
		return 0, false, fmt.Errorf("failed to upsert narrative_entry: %w", err)
	}
	return ne.Count, ne.Count == 1, nil
}

// ListNarrativeEntries returns semantic rows, optionally for one aspect,
// ordered by count descending.
func (db *DB) ListNarrativeEntries(ctx context.Context, aspect string, limit, offset int) ([]*models.NarrativeEntry, error) {
	if !db.features["narrative_entry"] {
		return nil, nil
	}
	ctx, cancel := queryContext(ctx)
	defer cancel()

	query := `SELECT id, aspect, entry_key, value, name, count, updated_at FROM narrative_entry`
	args := []any{}
	if aspect != "" {
		query += ` WHERE aspect = ?`
		args = append(args, aspect)
	}
	query += ` ORDER BY count DESC, id LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list narrative_entry: %w", err)
	}
	defer rows.Close()

	var out []*models.NarrativeEntry
	for rows.Next() {
		var ne models.NarrativeEntry
		var value, name *string
		if err := rows.Scan(&ne.ID, &ne.Aspect, &ne.EntryKey, &value, &name, &ne.Count, &ne.UpdatedAt); err != nil {
			return nil, err
		}
		ne.Value = deref(value)
		ne.Name = deref(name)
		out = append(out, &ne)
	}
	return out, rows.Err()
}

// --- linguistic_variant ---

// UpsertLinguisticVariant inserts or increments a (span, domain) variant.
func (db *DB) UpsertLinguisticVariant(ctx context.Context, lv *models.LinguisticVariant) error {
	if !db.features["linguistic_variant"] {
		logging.Warn().Str("table", "linguistic_variant").Msg("Skipping write: table not present")
		return ErrTableAbsent
	}
	ctx, cancel := queryContext(ctx)
	defer cancel()

	lv.CreatedAt = now()
	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO linguistic_variant (span, canonical, domain, variant_type, count, created_at)
		 VALUES (?, ?, ?, ?, 1, ?)
		 ON CONFLICT (span, domain) DO UPDATE SET count = linguistic_variant.count + 1
		 RETURNING id, count`,
		lv.Span, nullable(lv.Canonical), lv.Domain, nullable(lv.VariantType), lv.CreatedAt).Scan(&lv.ID, &lv.Count)
	if err != nil {
		return fmt.Errorf("failed to upsert linguistic_variant: %w", err)
	}
	return nil
}

// ListLinguisticVariants returns variants ordered by count descending.
func (db *DB) ListLinguisticVariants(ctx context.Context, limit, offset int) ([]*models.LinguisticVariant, error) {
	if !db.features["linguistic_variant"] {
		return nil, nil
	}
	ctx, cancel := queryContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, span, canonical, domain, variant_type, count, created_at
		 FROM linguistic_variant ORDER BY count DESC, id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list linguistic_variant: %w", err)
	}
	defer rows.Close()

	var out []*models.LinguisticVariant
	for rows.Next() {
		var lv models.LinguisticVariant
		var canonical, variantType *string
		if err := rows.Scan(&lv.ID, &lv.Span, &canonical, &lv.Domain, &variantType, &lv.Count, &lv.CreatedAt); err != nil {
			return nil, err
		}
		lv.Canonical = deref(canonical)
		lv.VariantType = deref(variantType)
		out = append(out, &lv)
	}
	return out, rows.Err()
}

// --- name reserve / allocator store ---

// namedTables lists every table carrying a user-visible name column, for
// the global uniqueness check.
func namedTables() []string {
	tables := []string{"static_color", "static_sound", "learned_blend", "narrative_entry"}
	for _, d := range models.BlendDomains {
		tables = append(tables, "learned_"+d)
	}
	return tables
}

// NameInUse reports whether a candidate name is reserved or already carried
// by any registry row. Checked across every name column so pure, blended,
// and semantic tiers never collide.
func (db *DB) NameInUse(ctx context.Context, name string) (bool, error) {
	ctx, cancel := queryContext(ctx)
	defer cancel()

	if db.features["name_reserve"] {
		var one int
		err := db.conn.QueryRowContext(ctx,
			`SELECT 1 FROM name_reserve WHERE name = ?`, name).Scan(&one)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return false, err
		}
	}

	for _, table := range namedTables() {
		if !db.features[table] {
			continue
		}
		var one int
		err := db.conn.QueryRowContext(ctx, fmt.Sprintf(
			`SELECT 1 FROM %s WHERE name = ? LIMIT 1`, table), name).Scan(&one)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return false, err
		}
	}
	return false, nil
}

// ReserveName claims a name atomically. Returns ErrDuplicate when another
// writer reserved it first.
func (db *DB) ReserveName(ctx context.Context, name string) error {
	if !db.features["name_reserve"] {
		// Without a reserve table, uniqueness rests on the registry
		// UNIQUE constraints alone.
		return nil
	}
	ctx, cancel := queryContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO name_reserve (name, created_at) VALUES (?, ?)`, name, now())
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to reserve name: %w", err)
	}
	return nil
}

// BlendNameInUse reports whether a name is already carried by a fallback
// blend row.
func (db *DB) BlendNameInUse(ctx context.Context, name string) (bool, error) {
	if !db.features["learned_blend"] {
		return false, nil
	}
	ctx, cancel := queryContext(ctx)
	defer cancel()

	var one int
	err := db.conn.QueryRowContext(ctx,
		`SELECT 1 FROM learned_blend WHERE name = ? LIMIT 1`, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// --- interpretation ---

// EnqueueInterpretation stores a pending prompt interpretation.
func (db *DB) EnqueueInterpretation(ctx context.Context, id, prompt, source string) (*models.Interpretation, error) {
	if !db.features["interpretation"] {
		return nil, ErrTableAbsent
	}
	ctx, cancel := queryContext(ctx)
	defer cancel()

	in := &models.Interpretation{
		ID:        id,
		Prompt:    prompt,
		Source:    source,
		Status:    models.InterpStatusPending,
		CreatedAt: now(),
	}
	in.UpdatedAt = in.CreatedAt
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO interpretation (id, prompt, instruction, source, status, created_at, updated_at)
		 VALUES (?, ?, NULL, ?, ?, ?, ?)`,
		in.ID, in.Prompt, in.Source, in.Status, in.CreatedAt, in.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue interpretation: %w", err)
	}
	return in, nil
}

// NextPendingInterpretation returns the highest-priority pending row: web
// submissions first, then oldest-first. ErrNotFound when the queue is empty.
func (db *DB) NextPendingInterpretation(ctx context.Context) (*models.Interpretation, error) {
	if !db.features["interpretation"] {
		return nil, ErrNotFound
	}
	ctx, cancel := queryContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		`SELECT id, prompt, instruction, source, status, created_at, updated_at
		 FROM interpretation WHERE status = ?
		 ORDER BY CASE WHEN source = ? THEN 0 ELSE 1 END, created_at
		 LIMIT 1`, models.InterpStatusPending, models.InterpSourceWeb)
	return scanInterpretation(row)
}

// GetInterpretation returns one row by ID.
func (db *DB) GetInterpretation(ctx context.Context, id string) (*models.Interpretation, error) {
	if !db.features["interpretation"] {
		return nil, ErrNotFound
	}
	ctx, cancel := queryContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		`SELECT id, prompt, instruction, source, status, created_at, updated_at
		 FROM interpretation WHERE id = ?`, id)
	return scanInterpretation(row)
}

// CompleteInterpretation attaches the structured instruction and marks the
// row done.
func (db *DB) CompleteInterpretation(ctx context.Context, id, instruction string) error {
	if !db.features["interpretation"] {
		return ErrTableAbsent
	}
	ctx, cancel := queryContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE interpretation SET instruction = ?, status = ?, updated_at = ? WHERE id = ?`,
		instruction, models.InterpStatusDone, now(), id)
	if err != nil {
		return fmt.Errorf("failed to complete interpretation: %w", err)
	}
	return expectOneRow(res)
}

// ListInterpretations returns rows newest-first, optionally by status.
func (db *DB) ListInterpretations(ctx context.Context, status string, limit, offset int) ([]*models.Interpretation, error) {
	if !db.features["interpretation"] {
		return nil, nil
	}
	ctx, cancel := queryContext(ctx)
	defer cancel()

	query := `SELECT id, prompt, instruction, source, status, created_at, updated_at FROM interpretation`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list interpretations: %w", err)
	}
	defer rows.Close()

	var out []*models.Interpretation
	for rows.Next() {
		in, err := scanInterpretation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func scanInterpretation(row interface{ Scan(...any) error }) (*models.Interpretation, error) {
	var in models.Interpretation
	err := row.Scan(&in.ID, &in.Prompt, &in.Instruction, &in.Source, &in.Status,
		&in.CreatedAt, &in.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan interpretation: %w", err)
	}
	return &in, nil
}

// --- helpers ---

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
