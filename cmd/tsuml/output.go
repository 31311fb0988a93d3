// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

// printer writes the one-line outcome of a command. Styling is applied
// only when the destination is a terminal.
type printer struct {
	out    io.Writer
	errOut io.Writer
}

func (p printer) success(out string) {
	quoted := fmt.Sprintf("%q", out)
	if isTerminal(p.out) {
		fmt.Fprintf(p.out, "%s %s\n", successStyle.Render("Output successfully saved into"), pathStyle.Render(quoted))
		return
	}
	fmt.Fprintf(p.out, "Output successfully saved into %s\n", quoted)
}

func (p printer) failure(err error) {
	if isTerminal(p.errOut) {
		fmt.Fprintf(p.errOut, "%s %v\n", errorStyle.Render("Error:"), err)
		return
	}
	fmt.Fprintf(p.errOut, "Error: %v\n", err)
}
