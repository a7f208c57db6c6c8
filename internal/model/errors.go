package model

import "errors"

// Fatal per-unit errors. These mean the input invariants for one segment or
// story are broken in a way that makes correct output impossible; the caller
// should skip the unit and continue with the next.
var (
	// ErrWordRelocate: a word's text could not be found in its paragraph's
	// cleaned text, so the transcript and alignment source disagree.
	ErrWordRelocate = errors.New("word cannot be relocated in cleaned paragraph text")

	// ErrTokenDesync: an NER token could not be found in the transcript at
	// or after the scan offset; tool tokenization and transcript diverged.
	ErrTokenDesync = errors.New("ner token not found at transcript scan offset")

	// ErrRefData: a required reference-data file is missing or empty.
	ErrRefData = errors.New("reference data unavailable")

	// ErrResolutionConflict: the same raw text resolved to two different
	// authority identifiers within one story.
	ErrResolutionConflict = errors.New("conflicting resolutions within story")
)
