// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package diagram

import "unicode/utf8"

// Pixel estimates for a monospaced font. yEd recomputes label sizes on
// load; these only need to be close enough for an initial layout.
const (
	classBaseHeight       = 46.0
	classLineHeight       = 14.0
	classStereotypeHeight = 20.0
	classMinWidth         = 50.0
	memberCharWidth       = 7.3
	titleCharWidth        = 8.0
	stereotypeCharWidth   = 7.5
	noteHeight            = 28.0
	noteCharWidth         = 7.25
	notePadding           = 40.0
	labelPadding          = 20.0
)

// classSize returns the width and height of a class box.
func classSize(name, stereotype string, lines []string) (float64, float64) {
	height := classBaseHeight + classLineHeight*float64(len(lines))
	if stereotype != "" {
		height += classStereotypeHeight
	}

	width := classMinWidth
	for _, line := range lines {
		width = max(width, labelPadding+float64(runeCount(line))*memberCharWidth)
	}
	width = max(width, float64(runeCount(name))*titleCharWidth+labelPadding)
	if stereotype != "" {
		// Guillemets and spacing around the stereotype.
		width = max(width, float64(runeCount(stereotype)+4)*stereotypeCharWidth+labelPadding)
	}
	return width, height
}

// noteSize returns the width and height of a note.
func noteSize(text string) (float64, float64) {
	return float64(runeCount(text))*noteCharWidth + notePadding, noteHeight
}

func runeCount(s string) int {
	return utf8.RuneCountInString(s)
}
