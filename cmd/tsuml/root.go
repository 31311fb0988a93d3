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
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/tsuml/services/uml/config"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configPath string
	envFile    string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "tsuml",
		Short:         "Draw UML class diagrams from TypeScript sources",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", config.FileName, "project config file")
	pf.StringVar(&flags.envFile, "env-file", ".env", "file of TSUML_* defaults")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error (default info)")
	pf.StringVar(&flags.logFormat, "log-format", "auto", "log format: auto, text, json")

	root.AddCommand(
		newRenderCmd(flags),
		newOrderCmd(flags),
		newVersionCmd(),
	)
	return root
}

// loadConfig layers environment, project file and changed flags.
func (g *globalFlags) loadConfig(cmd *cobra.Command, fromFlags *config.Config) (*config.Config, error) {
	env, err := config.LoadEnv(g.envFile)
	if err != nil {
		return nil, err
	}
	file, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	cfg := env.Merge(file).Merge(fromFlags)
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = g.logLevel
	}
	return cfg, nil
}

// newLogger builds the diagnostics logger on w.
//
// Description:
//
//	"auto" picks a text handler when w is a terminal and JSON otherwise,
//	so piped runs produce machine readable logs.
//
// Outputs:
//
//	*slog.Logger - Never nil on success.
//	error - Non-nil for an unknown level or format.
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if level == "" {
		level = "info"
	}
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", "auto":
		if isTerminal(w) {
			return slog.New(slog.NewTextHandler(w, opts)), nil
		}
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q (want auto, text or json)", format)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
