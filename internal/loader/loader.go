package loader

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/philipparndt/gobim/internal/scene"
	"github.com/philipparndt/gobim/pkg/openscad"
	"github.com/philipparndt/gobim/pkg/stl"
)

// Loader resolves the geometry of manifest nodes. Parsed files are cached
// for the lifetime of the loader, so one loader serves one load pass.
type Loader struct {
	dir      string
	openscad *openscad.Renderer
	logger   *slog.Logger
	files    map[string]*stl.Model
}

// Option configures a Loader
type Option func(*options)

type options struct {
	openscadBinary string
	logger         *slog.Logger
}

// WithOpenSCAD sets the OpenSCAD executable used for .scad geometry
func WithOpenSCAD(binary string) Option {
	return func(o *options) {
		o.openscadBinary = binary
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// New creates a loader resolving relative geometry paths against dir
func New(dir string, opts ...Option) *Loader {
	o := buildOptions(opts)
	return &Loader{
		dir:      dir,
		openscad: openscad.NewRenderer(dir, o.openscadBinary),
		logger:   o.logger,
		files:    make(map[string]*stl.Model),
	}
}

// Result is one model delivered by LoadAsync
type Result struct {
	Model *scene.ModelSpec
	Err   error
}

// Load reads the manifest and the geometry of every model
func Load(ctx context.Context, manifestPath string, opts ...Option) ([]*scene.ModelSpec, error) {
	var models []*scene.ModelSpec
	for res := range LoadAsync(ctx, manifestPath, opts...) {
		if res.Err != nil {
			return nil, res.Err
		}
		models = append(models, res.Model)
	}
	return models, nil
}

// LoadAsync loads the manifest in the background and delivers each model as
// soon as its geometry is resolved. The channel is closed after the last
// model or the first error.
func LoadAsync(ctx context.Context, manifestPath string, opts ...Option) <-chan Result {
	out := make(chan Result)

	go func() {
		defer close(out)

		send := func(r Result) bool {
			select {
			case out <- r:
				return true
			case <-ctx.Done():
				return false
			}
		}

		manifest, err := ReadManifest(manifestPath)
		if err != nil {
			send(Result{Err: err})
			return
		}

		l := New(manifest.Dir(), opts...)
		for _, entry := range manifest.Models {
			if err := ctx.Err(); err != nil {
				send(Result{Err: err})
				return
			}
			model, err := l.LoadModel(ctx, entry)
			if err != nil {
				send(Result{Err: err})
				return
			}
			if !send(Result{Model: model}) {
				return
			}
		}
	}()

	return out
}

// LoadModel resolves the geometry of one manifest model
func (l *Loader) LoadModel(ctx context.Context, entry ModelEntry) (*scene.ModelSpec, error) {
	start := time.Now()

	root, err := l.node(ctx, entry, entry.Root)
	if err != nil {
		return nil, fmt.Errorf("model %q: %w", entry.ID, err)
	}

	name := entry.Name
	if name == "" {
		name = entry.ID
	}
	l.logger.Debug("model geometry resolved", "model", entry.ID, "elapsed", time.Since(start))

	return &scene.ModelSpec{
		ID:     entry.ID,
		Name:   name,
		Source: entry.Geometry,
		Root:   root,
	}, nil
}

func (l *Loader) node(ctx context.Context, model ModelEntry, n NodeEntry) (*scene.NodeSpec, error) {
	spec := &scene.NodeSpec{ID: n.ID, Name: n.Name, Kind: n.Kind}
	if spec.Name == "" {
		spec.Name = n.ID
	}

	if n.Geometry != "" {
		g, err := l.geometry(ctx, n.Geometry, model.Geometry)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", n.ID, err)
		}
		spec.Geometry = g
	}

	for _, c := range n.Children {
		child, err := l.node(ctx, model, c)
		if err != nil {
			return nil, err
		}
		spec.Children = append(spec.Children, child)
	}
	return spec, nil
}

func (l *Loader) geometry(ctx context.Context, ref, defaultFile string) (*scene.Geometry, error) {
	file, solidName := geometryRef(ref, defaultFile)
	model, err := l.file(ctx, file)
	if err != nil {
		return nil, err
	}

	if solidName == "" {
		g := &scene.Geometry{Bounds: model.BoundingBox()}
		for _, s := range model.Solids {
			g.Triangles += len(s.Triangles)
			g.SurfaceArea += s.SurfaceArea()
		}
		return g, nil
	}

	solid, ok := model.Solid(solidName)
	if !ok {
		return nil, fmt.Errorf("solid %q not found in %s", solidName, file)
	}
	return &scene.Geometry{
		Bounds:      solid.BoundingBox(),
		Triangles:   len(solid.Triangles),
		SurfaceArea: solid.SurfaceArea(),
	}, nil
}

func (l *Loader) path(file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(l.dir, file)
}

func (l *Loader) file(ctx context.Context, file string) (*stl.Model, error) {
	path := l.path(file)
	if m, ok := l.files[path]; ok {
		return m, nil
	}

	var (
		model *stl.Model
		err   error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".stl":
		model, err = stl.Parse(path)
	case ".scad":
		l.logger.Info("rendering OpenSCAD file", "file", path)
		model, err = l.openscad.Render(ctx, path)
	default:
		return nil, fmt.Errorf("unsupported file type: %s (expected .stl or .scad)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file, err)
	}

	l.files[path] = model
	return model, nil
}

// Dependencies lists every file a manifest load reads: the manifest, each
// geometry file and the use/include closure of OpenSCAD sources.
func Dependencies(manifestPath string, opts ...Option) ([]string, error) {
	manifest, err := ReadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	l := New(manifest.Dir(), opts...)

	abs, err := filepath.Abs(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", manifestPath, err)
	}
	files := []string{abs}
	seen := map[string]bool{abs: true}
	add := func(path string) {
		if p, err := filepath.Abs(path); err == nil && !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, model := range manifest.Models {
		var walk func(n NodeEntry) error
		walk = func(n NodeEntry) error {
			if n.Geometry != "" {
				file, _ := geometryRef(n.Geometry, model.Geometry)
				path := l.path(file)
				if strings.EqualFold(filepath.Ext(path), ".scad") {
					deps, err := l.openscad.ResolveDependencies(path)
					if err != nil {
						return err
					}
					for _, d := range deps {
						add(d)
					}
				} else {
					add(path)
				}
			}
			for _, c := range n.Children {
				if err := walk(c); err != nil {
					return err
				}
			}
			return nil
		}
		if err := walk(model.Root); err != nil {
			return nil, err
		}
	}
	return files, nil
}
