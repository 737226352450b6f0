// Harmonium - Music Library and Streaming Backend
// Copyright 2026 Harmonium contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmonium-fm/harmonium

package recommend

import "errors"

// ErrNoListeningHistory indicates the user has never listened to any
// song or album, so there is nothing to base recommendations on. The
// HTTP layer maps this to 404.
var ErrNoListeningHistory = errors.New("user has no listening history")
