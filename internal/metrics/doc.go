// Harmonium - Music Library and Streaming Backend
// Copyright 2026 Harmonium contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmonium-fm/harmonium

/*
Package metrics provides Prometheus metrics collection and export.

The package instruments MongoDB queries, API endpoints, the in-process
caches and the recommendation and wrapped report generators. Metrics are
exposed at /metrics in Prometheus text format via promhttp.

Cardinality is kept bounded: endpoint labels use chi route patterns (no
path parameters or query strings), error labels come from a fixed set of
categories, and no per-user labels exist.

All recording functions are safe for concurrent use.
*/
package metrics
