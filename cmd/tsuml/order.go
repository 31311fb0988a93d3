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
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/tsuml/services/uml/config"
	"github.com/AleutianAI/tsuml/services/uml/depgraph"
	"github.com/AleutianAI/tsuml/services/uml/resolve"
)

func newOrderCmd(g *globalFlags) *cobra.Command {
	f := &renderFlags{}
	cmd := &cobra.Command{
		Use:   "order [paths...]",
		Short: "Print the order in which files are resolved",
		Long: `Order prints one file per line, imports before their importers.
Broken import cycles are listed after the order. Paths are shown relative
to the working directory when possible.`,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			p := printer{out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()}
			defer func() {
				if err != nil {
					p.failure(err)
				}
			}()

			overlay, err := f.overlay(cmd, args)
			if err != nil {
				return err
			}
			cfg, err := g.loadConfig(cmd, overlay)
			if err != nil {
				return err
			}
			logger, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, g.logFormat)
			if err != nil {
				return err
			}
			if len(cfg.Include) == 0 {
				return errNoInclude
			}
			return printOrder(cmd, cfg, resolve.NewBuilder(
				resolve.WithAliases(cfg.Aliases),
				resolve.WithExclude(cfg.Exclude...),
				resolve.WithStrict(cfg.IsStrict()),
				resolve.WithCyclePolicy(depgraph.CyclePolicyContinue),
				resolve.WithCanonicalAliases(cfg.IsCanonicalAliases()),
				resolve.WithLogger(logger),
			))
		},
	}

	fl := cmd.Flags()
	fl.StringSliceVarP(&f.include, "include", "i", nil, "files or directories to order")
	fl.StringSliceVarP(&f.aliases, "alias", "a", nil, "import alias as @name=path")
	fl.StringSliceVar(&f.exclude, "exclude", nil, "doublestar patterns of files to skip")
	fl.BoolVar(&f.strict, "strict", true, "fail on imports that cannot be resolved")
	return cmd
}

// printOrder always continues past cycles: listing them is the point.
func printOrder(cmd *cobra.Command, cfg *config.Config, b *resolve.Builder) error {
	result, err := b.Build(cmd.Context(), cfg.Include)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for i, file := range result.Order {
		fmt.Fprintf(out, "%4d  %s\n", i+1, relative(file))
	}
	for _, cycle := range result.Cycles {
		names := make([]string, len(cycle))
		for i, f := range cycle {
			names[i] = relative(f)
		}
		fmt.Fprintf(out, "cycle: %s\n", strings.Join(names, " -> "))
	}
	return nil
}

func relative(path string) string {
	wd, err := filepath.Abs(".")
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(wd, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
