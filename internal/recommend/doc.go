// Harmonium - Music Library and Streaming Backend
// Copyright 2026 Harmonium contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmonium-fm/harmonium

// Package recommend implements the personalization engine: the recency
// weighting transform, taste-profile extraction, the cross-user album
// popularity index and the multi-signal recommendation ranker.
//
// The ranker combines taste-profile matches (artists, genres, listened
// albums, liked songs) with popularity and randomization into five
// independently capped, cross-deduplicated result lists. Results are
// cached per (user, calendar day); the popularity index is cached for
// hours because popularity changes slowly and staleness is acceptable.
//
// The package has no dependency on the HTTP layer; it consumes the
// store interfaces and is driven with a userId.
package recommend
