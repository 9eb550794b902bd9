// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

// Package models defines the domain types shared across the registry store,
// the ingestion API, and the loop controller: jobs, learning runs, events,
// discovery rows for the pure/blended/semantic registries, and the loop
// state/config blobs kept in the KV side-channel.
//
// The package also carries the fixed origin sets (color and sound primitives,
// canonical gradient/camera/motion lists, narrative aspect origins). These are
// the single source of truth referenced by both the depth calculator and the
// registries view; they must not be duplicated elsewhere.
package models
