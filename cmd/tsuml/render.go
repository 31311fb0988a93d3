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
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/tsuml/services/uml/config"
	"github.com/AleutianAI/tsuml/services/uml/depgraph"
	"github.com/AleutianAI/tsuml/services/uml/diagram"
	"github.com/AleutianAI/tsuml/services/uml/resolve"
	"github.com/AleutianAI/tsuml/services/uml/telemetry"
)

var (
	errNoInclude = errors.New("no input: pass --include or set include in the config file")
	errNoOut     = errors.New("no output file: pass --out or set out in the config file")
)

// renderFlags hold the flag values of the render command.
type renderFlags struct {
	include          []string
	aliases          []string
	exclude          []string
	out              string
	format           string
	withPrivate      bool
	classNamesOnly   bool
	strict           bool
	allowCycles      bool
	groupByFolder    bool
	canonicalAliases bool
	workers          int
	watch            bool
	traceStdout      bool
	metricsOut       string
}

func newRenderCmd(g *globalFlags) *cobra.Command {
	f := &renderFlags{}
	cmd := &cobra.Command{
		Use:   "render [paths...]",
		Short: "Render a class diagram",
		Long: `Render resolves every TypeScript file under the included paths and
writes a class diagram. The format follows --format or the extension of
--out: .graphml (yEd), .mmd or .mermaid (Mermaid), .json.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, g, f, args)
		},
	}

	fl := cmd.Flags()
	fl.StringSliceVarP(&f.include, "include", "i", nil, "files or directories to diagram")
	fl.StringSliceVarP(&f.aliases, "alias", "a", nil, "import alias as @name=path")
	fl.StringSliceVar(&f.exclude, "exclude", nil, "doublestar patterns of files to skip")
	fl.StringVarP(&f.out, "out", "o", "", "output file")
	fl.StringVar(&f.format, "format", "", "graphml, mermaid or json (default from --out)")
	fl.BoolVar(&f.withPrivate, "with-private", false, "draw private class members")
	fl.BoolVar(&f.classNamesOnly, "class-names-only", false, "draw boxes without members")
	fl.BoolVar(&f.strict, "strict", true, "fail on imports that cannot be resolved")
	fl.BoolVar(&f.allowCycles, "allow-cycles", false, "continue past file import cycles")
	fl.BoolVar(&f.groupByFolder, "group-by-folder", true, "group entities by directory")
	fl.BoolVar(&f.canonicalAliases, "canonical-aliases", true, "draw aliased imports under their declared name")
	fl.IntVar(&f.workers, "workers", 0, "parallel file readers (default number of CPUs)")
	fl.BoolVarP(&f.watch, "watch", "w", false, "re-render when a source file changes")
	fl.BoolVar(&f.traceStdout, "trace-stdout", false, "print OpenTelemetry spans to stdout")
	fl.StringVar(&f.metricsOut, "metrics-out", "", "write Prometheus metrics to this file on exit")
	return cmd
}

// overlay turns the flags the user set into a Config layer. Positional
// arguments are added to --include.
func (f *renderFlags) overlay(cmd *cobra.Command, args []string) (*config.Config, error) {
	c := &config.Config{
		Include: append(append([]string{}, f.include...), args...),
		Exclude: f.exclude,
		Out:     f.out,
		Format:  f.format,
	}
	if len(f.aliases) > 0 {
		c.Aliases = make(map[string]string, len(f.aliases))
		for _, a := range f.aliases {
			name, target, err := config.ParseAlias(a)
			if err != nil {
				return nil, err
			}
			c.Aliases[name] = target
		}
	}

	changed := cmd.Flags().Changed
	bools := []struct {
		flag  string
		value bool
		dst   **bool
	}{
		{"with-private", f.withPrivate, &c.WithPrivate},
		{"class-names-only", f.classNamesOnly, &c.ClassNamesOnly},
		{"strict", f.strict, &c.Strict},
		{"allow-cycles", f.allowCycles, &c.AllowCycles},
		{"group-by-folder", f.groupByFolder, &c.GroupByFolder},
		{"canonical-aliases", f.canonicalAliases, &c.CanonicalAliases},
	}
	for _, b := range bools {
		if changed(b.flag) {
			*b.dst = config.Bool(b.value)
		}
	}
	return c, nil
}

func runRender(cmd *cobra.Command, g *globalFlags, f *renderFlags, args []string) (err error) {
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
	job, err := newRenderJob(cfg, logger, f.workers)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	if f.traceStdout {
		shutdown, err := telemetry.SetupTracing(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer func() {
			if serr := shutdown(context.Background()); serr != nil {
				logger.Warn("flushing spans failed", slog.String("error", serr.Error()))
			}
		}()
	}
	if f.metricsOut != "" {
		telemetry.RecordBuildInfo(version)
		defer func() {
			if merr := telemetry.WriteMetrics(f.metricsOut); merr != nil {
				logger.Warn("writing metrics failed", slog.String("error", merr.Error()))
			}
		}()
	}

	render := func(ctx context.Context) error {
		out, err := job.run(ctx)
		if err != nil {
			return err
		}
		p.success(out)
		return nil
	}

	if !f.watch {
		return render(ctx)
	}

	if err := render(ctx); err != nil {
		p.failure(err)
	}
	watched, err := job.resolver.ExpandPaths(job.include)
	if err != nil {
		return err
	}
	w, err := newSourceWatcher(watched, job.resolver.Extensions(), logger)
	if err != nil {
		return err
	}
	defer w.Close()
	logger.Info("watching for changes", slog.Int("directories", w.Len()))
	return w.Run(ctx, func(ctx context.Context) {
		if err := render(ctx); err != nil {
			p.failure(err)
		}
	})
}

// renderJob is one configured resolve-and-draw pipeline. It is rebuilt
// per command and reused across watch iterations.
type renderJob struct {
	include  []string
	out      string
	format   diagram.Format
	grouped  bool
	resolver *resolve.Builder
	drawer   *diagram.Builder
	logger   *slog.Logger
}

func newRenderJob(cfg *config.Config, logger *slog.Logger, workers int) (*renderJob, error) {
	if len(cfg.Include) == 0 {
		return nil, errNoInclude
	}
	if cfg.Out == "" {
		return nil, errNoOut
	}

	var format diagram.Format
	var err error
	if cfg.Format != "" {
		format, err = diagram.ParseFormat(cfg.Format)
	} else {
		format, err = diagram.FormatFromPath(cfg.Out)
	}
	if err != nil {
		return nil, err
	}

	policy := depgraph.CyclePolicyAbort
	if cfg.IsAllowCycles() {
		policy = depgraph.CyclePolicyContinue
	}

	settings := diagram.DefaultSettings()
	settings.HidePrivateMembers = !cfg.IsWithPrivate()
	settings.ClassNamesOnly = cfg.IsClassNamesOnly()

	return &renderJob{
		include: cfg.Include,
		out:     cfg.Out,
		format:  format,
		grouped: cfg.IsGroupByFolder(),
		resolver: resolve.NewBuilder(
			resolve.WithAliases(cfg.Aliases),
			resolve.WithExclude(cfg.Exclude...),
			resolve.WithStrict(cfg.IsStrict()),
			resolve.WithCyclePolicy(policy),
			resolve.WithCanonicalAliases(cfg.IsCanonicalAliases()),
			resolve.WithWorkerCount(workers),
			resolve.WithLogger(logger),
		),
		drawer: diagram.NewBuilder(settings),
		logger: logger,
	}, nil
}

// run resolves the sources, draws the diagram and writes it. It returns
// the path written.
func (j *renderJob) run(ctx context.Context) (string, error) {
	result, err := j.resolver.Build(ctx, j.include)
	if err != nil {
		return "", err
	}

	var g *diagram.Graph
	if j.grouped {
		g, err = j.drawer.BuildGrouped(result.Folder())
	} else {
		g, err = j.drawer.Build(result.Entities())
	}
	if err != nil {
		return "", fmt.Errorf("drawing diagram: %w", err)
	}

	if err := writeOutput(j.out, g, j.format); err != nil {
		return "", err
	}
	j.logger.Debug("diagram written",
		slog.String("run_id", result.RunID),
		slog.String("out", j.out),
		slog.String("format", string(j.format)),
		slog.Int("nodes", g.NodeCount()),
		slog.Int("edges", len(g.Edges)))
	return j.out, nil
}

// writeOutput writes g to a temporary file next to path and renames it
// into place, so a failed render never truncates the previous diagram.
func writeOutput(path string, g *diagram.Graph, format diagram.Format) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tsuml-*")
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriter(tmp)
	if err := diagram.Write(bw, g, format); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
