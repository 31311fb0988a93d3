// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package resolve

import (
	"errors"
	"fmt"
)

// Sentinel errors for entity resolution.
var (
	// ErrUnknownEntity is returned when the entity queue yields a name the
	// parsed file has no declaration for.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrSymbolNotFound is returned when a named import cannot be matched to
	// an export of the imported file.
	ErrSymbolNotFound = errors.New("exported symbol not found")

	// ErrDefaultExportNotFound is returned when the imported file declares
	// its default export but no entity was resolved for it.
	ErrDefaultExportNotFound = errors.New("default export not found")

	// ErrNoInput is returned when discovery finds no source files.
	ErrNoInput = errors.New("no source files found")
)

// ResolutionError describes an import the resolver could not link.
type ResolutionError struct {
	// File is the importing file.
	File string

	// Import is the module specifier as written.
	Import string

	// Name is the imported name, "default" for default imports.
	Name string

	// Err is ErrSymbolNotFound or ErrDefaultExportNotFound.
	Err error
}

// Error implements error.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s: import %q from %q: %v", e.File, e.Name, e.Import, e.Err)
}

// Unwrap returns the underlying sentinel.
func (e *ResolutionError) Unwrap() error {
	return e.Err
}
