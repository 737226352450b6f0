// Harmonium - Music Library and Streaming Backend
// Copyright 2026 Harmonium contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmonium-fm/harmonium

// Package testinfra provides container-backed infrastructure for
// integration tests, currently a disposable MongoDB instance for the
// store layer.
//
// Everything here is behind the integration build tag; run with
//
//	go test -tags integration ./internal/store/...
//
// Tests skip gracefully when Docker is not available.
package testinfra
