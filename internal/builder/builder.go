// Package builder mirrors a project's source tree into the build output,
// processing each file by extension, and packages the result with pdc.
package builder

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/Norgate-AV/pdmake/internal/cache"
	"github.com/Norgate-AV/pdmake/internal/codes"
	"github.com/Norgate-AV/pdmake/internal/compiler"
	"github.com/Norgate-AV/pdmake/internal/config"
	"github.com/Norgate-AV/pdmake/internal/logging"
	"github.com/Norgate-AV/pdmake/internal/processor"
	"github.com/Norgate-AV/pdmake/internal/toolchain"
	"github.com/Norgate-AV/pdmake/internal/utils"
)

// Stage is one step of a build
type Stage int

const (
	EnsureOutputRoot Stage = iota
	WalkTree
	EmitManifest
	InvokePackager
	Done
)

var stageNames = map[Stage]string{
	EnsureOutputRoot: "ensure output root",
	WalkTree:         "walk tree",
	EmitManifest:     "emit manifest",
	InvokePackager:   "invoke packager",
	Done:             "done",
}

func (s Stage) String() string {
	return stageNames[s]
}

// Packager turns a finished build tree into a bundle
type Packager interface {
	Package(pdcPath, tree, bundle string, opts compiler.Options) error
}

// Progress receives per-file notifications during the walk
type Progress interface {
	Start(total int)
	File(rel string, skipped bool)
	Finish()
}

// Options wires the collaborators of a build
type Options struct {
	Mode     Mode
	Jobs     int
	Registry *processor.Registry
	Cache    *cache.Cache
	Packager Packager
	Resolver toolchain.Resolver
	Progress Progress

	// PackageOptions is passed through to pdc
	PackageOptions compiler.Options
}

// Report summarizes a finished build
type Report struct {
	Processed int
	Skipped   int
	Manifest  string
	Bundle    string
}

// Builder runs builds for one project
type Builder struct {
	cfg  *config.Config
	opts Options
}

// sourceFile is a file scheduled for processing
type sourceFile struct {
	path   string
	rel    string
	dest   string
	output string
}

// New creates a builder. A nil registry processes everything with Copy, and a
// nil cache disables incremental skipping.
func New(cfg *config.Config, opts Options) *Builder {
	if opts.Jobs < 1 {
		opts.Jobs = 1
	}

	if opts.Registry == nil {
		opts.Registry = processor.NewRegistry()
	}

	if opts.Cache == nil {
		opts.Cache = cache.New(nil, cfg.Root)
	}

	return &Builder{cfg: cfg, opts: opts}
}

// OutputRoot is the mirrored tree for the builder's mode
func (b *Builder) OutputRoot() string {
	return filepath.Join(b.cfg.TargetDir(), b.opts.Mode.String())
}

// Build runs every stage in order, stopping at the first failure
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	log := logging.From(ctx)
	report := &Report{}

	stages := []struct {
		stage Stage
		run   func(context.Context, *Report) error
	}{
		{EnsureOutputRoot, b.ensureOutputRoot},
		{WalkTree, b.walkTree},
		{EmitManifest, b.emitManifest},
		{InvokePackager, b.invokePackager},
	}

	for _, s := range stages {
		log.Debug().Stringer("stage", s.stage).Str("mode", b.opts.Mode.String()).Msg("Entering build stage")

		if err := s.run(ctx, report); err != nil {
			return report, err
		}
	}

	log.Debug().Stringer("stage", Done).Int("processed", report.Processed).Int("skipped", report.Skipped).Msg("Build finished")

	return report, nil
}

func (b *Builder) ensureOutputRoot(_ context.Context, _ *Report) error {
	root := b.OutputRoot()
	if err := os.MkdirAll(root, 0o755); err != nil {
		return codes.IO(err, EnsureOutputRoot.String(), root)
	}

	return nil
}

func (b *Builder) walkTree(ctx context.Context, report *Report) (err error) {
	log := logging.From(ctx)

	defer func() {
		if serr := b.opts.Cache.Save(); serr != nil {
			if err == nil {
				err = codes.IO(serr, "save cache", b.cfg.TargetDir())
				return
			}

			log.Error().Err(serr).Msg("Failed to save cache")
		}
	}()

	if b.opts.Cache.Bind(cache.FingerprintSettings(b.cfg.Build.Environment)) {
		log.Info().Msg("Build environment changed, rebuilding everything")
	}

	files, err := b.collect()
	if err != nil {
		return err
	}

	if err := b.prune(ctx, files); err != nil {
		return err
	}

	if b.opts.Progress != nil {
		b.opts.Progress.Start(len(files))
		defer b.opts.Progress.Finish()
	}

	var processed, skipped atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Jobs)

	for _, f := range files {
		f := f
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			skip, err := b.processFile(gctx, f)
			if err != nil {
				return err
			}

			if skip {
				skipped.Add(1)
			} else {
				processed.Add(1)
			}

			if b.opts.Progress != nil {
				b.opts.Progress.File(f.rel, skip)
			}

			return nil
		})
	}

	err = g.Wait()

	report.Processed = int(processed.Load())
	report.Skipped = int(skipped.Load())

	if err == nil {
		// Wait only reports worker errors; a cancelled parent stops scheduling silently
		err = ctx.Err()
	}

	return err
}

type walkRoot struct {
	dir      string
	required bool
}

// roots are walked in order into the same output root
func (b *Builder) roots() []walkRoot {
	return []walkRoot{
		{b.cfg.SourceDir(), true},
		{b.cfg.AssetsDir(), false},
	}
}

// collect lists every file to build in lexical, depth-first order: the
// source root first, then the assets root when present. Two files producing
// the same output are rejected, since the result would depend on build order.
func (b *Builder) collect() ([]sourceFile, error) {
	out := b.OutputRoot()
	target := b.cfg.TargetDir()

	var files []sourceFile
	owners := map[string]string{}

	seen := map[string]bool{}
	for _, r := range b.roots() {
		if seen[r.dir] {
			continue
		}
		seen[r.dir] = true

		info, err := os.Stat(r.dir)
		if err != nil {
			if !r.required && errors.Is(err, fs.ErrNotExist) {
				continue
			}

			return nil, codes.IO(err, WalkTree.String(), r.dir)
		}

		if !info.IsDir() {
			return nil, codes.IO(fmt.Errorf("not a directory"), WalkTree.String(), r.dir)
		}

		err = filepath.WalkDir(r.dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return codes.IO(err, WalkTree.String(), path)
			}

			if d.IsDir() {
				// Never feed the build output back into itself
				if path == target {
					return filepath.SkipDir
				}

				return nil
			}

			dest, err := utils.Rebase(path, r.dir, out)
			if err != nil {
				return codes.IO(err, WalkTree.String(), path)
			}

			rel, err := filepath.Rel(b.cfg.Root, path)
			if err != nil {
				rel = path
			}
			rel = utils.NormalizeKey(rel)

			output := b.opts.Registry.For(path).OutputPath(dest)
			if owner, ok := owners[output]; ok {
				return codes.IO(fmt.Errorf("%s and %s both produce the same output", owner, rel), WalkTree.String(), output)
			}
			owners[output] = rel

			files = append(files, sourceFile{path: path, rel: rel, dest: dest, output: output})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}

// prune deletes the outputs of recorded files that are no longer in the tree
// and forgets them
func (b *Builder) prune(ctx context.Context, files []sourceFile) error {
	log := logging.From(ctx)

	current := make(map[string]bool, len(files))
	outputs := make(map[string]bool, len(files))
	for _, f := range files {
		current[f.rel] = true
		outputs[f.output] = true
	}

	for _, key := range b.opts.Cache.Keys() {
		if current[key] {
			continue
		}

		src := filepath.Join(b.cfg.Root, filepath.FromSlash(key))
		if output, ok := b.outputFor(src); ok && !outputs[output] {
			if err := os.Remove(output); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return codes.IO(err, "prune", output)
			}

			log.Debug().Str("file", key).Str("output", output).Msg("Source removed, deleted its output")
		}

		b.opts.Cache.Remove(key)
	}

	return nil
}

// outputFor maps a source path to its output, if it lies under a walk root
func (b *Builder) outputFor(src string) (string, bool) {
	for _, r := range b.roots() {
		rel, err := filepath.Rel(r.dir, src)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}

		dest := filepath.Join(b.OutputRoot(), rel)
		return b.opts.Registry.For(src).OutputPath(dest), true
	}

	return "", false
}

// processFile builds one file, reporting whether it was skipped as unchanged
func (b *Builder) processFile(ctx context.Context, f sourceFile) (bool, error) {
	log := logging.From(ctx)

	dir := filepath.Dir(f.dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, codes.IO(err, "create directory", dir)
	}

	p := b.opts.Registry.For(f.path)
	if b.opts.Cache.Check(f.path) && exists(f.output) {
		log.Debug().Str("file", f.rel).Msg("Unchanged, skipping")
		return true, nil
	}

	log.Debug().Str("file", f.rel).Str("processor", fmt.Sprintf("%T", p)).Msg("Processing")

	if err := p.Process(f.path, f.dest); err != nil {
		if codes.KindOf(err) == codes.KindUnknown {
			err = codes.Processor(err, f.path, "")
		}

		return false, err
	}

	if err := b.opts.Cache.Update(f.path); err != nil {
		return false, codes.IO(err, "fingerprint", f.path)
	}

	return false, nil
}

func (b *Builder) emitManifest(ctx context.Context, report *Report) error {
	path, err := NewManifest(b.cfg).Write(b.OutputRoot())
	if err != nil {
		return err
	}

	report.Manifest = path
	logging.From(ctx).Debug().Str("file", path).Msg("Wrote manifest")

	return nil
}

func (b *Builder) invokePackager(ctx context.Context, report *Report) error {
	if b.opts.Packager == nil {
		return codes.Packaging(errors.New("no packager configured"), "")
	}

	pdc := toolchain.Pdc
	if b.opts.Resolver != nil {
		resolved, err := b.opts.Resolver.Resolve(toolchain.Pdc)
		if err != nil {
			return codes.Packaging(err, "")
		}

		pdc = resolved
	}

	bundle := b.cfg.BundlePath()
	log := logging.From(ctx)
	log.Info().Str("bundle", bundle).Msg("Packaging")
	log.Debug().
		Stringer("command", compiler.GetBuildCommand(pdc, b.OutputRoot(), bundle, b.opts.PackageOptions)).
		Msg("Running packager")

	if err := b.opts.Packager.Package(pdc, b.OutputRoot(), bundle, b.opts.PackageOptions); err != nil {
		return err
	}

	report.Bundle = bundle

	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
