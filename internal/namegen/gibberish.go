// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package namegen

import (
	"regexp"
	"strings"
)

// gibberishLengthThreshold: names longer than this that are not vocabulary
// derived are treated as machine noise.
const gibberishLengthThreshold = 24

var (
	dscPattern   = regexp.MustCompile(`^dsc_[0-9a-f]+$`)
	novelPattern = regexp.MustCompile(`^Novel\d+$`)
)

// vocabSet indexes every full vocabulary word for the detector.
var vocabSet = func() map[string]bool {
	m := make(map[string]bool)
	for _, w := range Starts {
		m[w] = true
	}
	for _, w := range Ends {
		m[w] = true
	}
	for _, w := range Singles {
		m[w] = true
	}
	for _, words := range ColorFamilies {
		for _, w := range words {
			m[w] = true
		}
	}
	return m
}()

// IsGibberish reports whether a single name/token is machine-generated
// noise: a dsc_<hex> key leak, a Novel<n> fallback, or an over-long token
// with no vocabulary anchor. This single function gates both prompt
// acceptance and name backfill.
func IsGibberish(name string) bool {
	if dscPattern.MatchString(name) || novelPattern.MatchString(name) {
		return true
	}
	if len(name) <= gibberishLengthThreshold {
		return false
	}
	lower := strings.ToLower(name)
	if vocabSet[lower] {
		return false
	}
	for _, w := range Starts {
		if strings.HasPrefix(lower, w) {
			return false
		}
	}
	for _, w := range Ends {
		if strings.HasSuffix(lower, w) {
			return false
		}
	}
	return true
}

// IsGibberishPrompt reports whether any token of a prompt trips the
// detector. In strict mode, long vowel-less tokens are also rejected; the
// loop controller uses strict mode to filter explore candidates.
func IsGibberishPrompt(prompt string, strict bool) bool {
	for _, tok := range strings.Fields(prompt) {
		tok = strings.Trim(tok, ".,!?;:\"'()")
		if tok == "" {
			continue
		}
		if IsGibberish(tok) {
			return true
		}
		if strict && len(tok) > 12 && !strings.ContainsAny(strings.ToLower(tok), "aeiouy") {
			return true
		}
	}
	return false
}
