// Harmonium - Music Library and Streaming Backend
// Copyright 2026 Harmonium contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmonium-fm/harmonium

package models

// Genre is a catalog genre tag.
//
// Genres are a closed vocabulary maintained by the catalog ingestion
// pipeline; the backend treats unknown values as opaque strings rather
// than rejecting them, so catalog updates never break older servers.
type Genre string

// Known genre tags.
const (
	GenreRock       Genre = "ROCK"
	GenrePop        Genre = "POP"
	GenreJazz       Genre = "JAZZ"
	GenreClassical  Genre = "CLASSICAL"
	GenreElectronic Genre = "ELECTRONIC"
	GenreHipHop     Genre = "HIP_HOP"
	GenreFolk       Genre = "FOLK"
	GenreMetal      Genre = "METAL"
	GenreBlues      Genre = "BLUES"
	GenreCountry    Genre = "COUNTRY"
	GenreLatin      Genre = "LATIN"
	GenreSoundtrack Genre = "SOUNDTRACK"
)

// Song is a single track inside an album document.
type Song struct {
	Title string `bson:"title" json:"title"`
	File  string `bson:"file" json:"file"`
}

// Album is a catalog album document.
//
// Albums are stored in the external catalog collection and are read-only
// to this backend. Artist and Genre are lists because compilations and
// collaborations carry multiple tags; an album with no tags contributes
// nothing to taste aggregations.
type Album struct {
	ID     string   `bson:"_id" json:"id"`
	Title  string   `bson:"title" json:"title"`
	Artist []string `bson:"artist" json:"artist"`
	Genre  []Genre  `bson:"genre" json:"genre"`
	Lang   string   `bson:"lang" json:"lang"`
	Cover  string   `bson:"cover" json:"cover"`
	Songs  []Song   `bson:"songs" json:"songs"`
}

// HasAnyArtist reports whether the album shares at least one artist tag
// with the given set.
func (a *Album) HasAnyArtist(artists map[string]struct{}) bool {
	for _, name := range a.Artist {
		if _, ok := artists[name]; ok {
			return true
		}
	}
	return false
}

// HasAnyGenre reports whether the album shares at least one genre tag
// with the given set.
func (a *Album) HasAnyGenre(genres map[Genre]struct{}) bool {
	for _, g := range a.Genre {
		if _, ok := genres[g]; ok {
			return true
		}
	}
	return false
}
