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

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ErrUnknownFormat is returned for an unrecognized output format.
var ErrUnknownFormat = errors.New("unknown output format")

// Format is an output file format.
type Format string

const (
	FormatGraphML Format = "graphml"
	FormatMermaid Format = "mermaid"
	FormatJSON    Format = "json"
)

// ParseFormat converts a format name. "" selects GraphML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "graphml", "yed":
		return FormatGraphML, nil
	case "mermaid", "mmd":
		return FormatMermaid, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q (want graphml, mermaid or json)", ErrUnknownFormat, s)
	}
}

// FormatFromPath picks the format from the output file extension:
// .graphml, .mmd or .mermaid, .json.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".graphml":
		return FormatGraphML, nil
	case ".mmd", ".mermaid":
		return FormatMermaid, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: cannot infer from %q", ErrUnknownFormat, path)
	}
}

// Write writes g in format f.
func Write(w io.Writer, g *Graph, f Format) error {
	switch f {
	case FormatGraphML:
		return WriteGraphML(w, g)
	case FormatMermaid:
		return WriteMermaid(w, g)
	case FormatJSON:
		return WriteJSON(w, g)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}
