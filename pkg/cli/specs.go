package cli

import (
	"fmt"

	"github.com/getmockd/routemock/pkg/config"
	"github.com/getmockd/routemock/pkg/loader"
	"github.com/getmockd/routemock/pkg/route"
	"github.com/getmockd/routemock/pkg/router"
	"github.com/getmockd/routemock/pkg/template"
)

// fileResult is the outcome of loading one route file.
type fileResult struct {
	Path  string
	Specs []*route.Spec
	Err   error
}

// loadRouteFiles loads and normalizes every route file of cfg, checking each
// pattern the way the router would. A failed file does not stop the others.
func loadRouteFiles(cfg *config.Config) ([]fileResult, error) {
	paths, err := cfg.RouteFilePaths()
	if err != nil {
		return nil, err
	}

	renderer := template.New()
	l := loader.New(route.Builtins(), loader.WithExprCheck(renderer.Compile))

	results := make([]fileResult, 0, len(paths))
	for _, p := range paths {
		res := fileResult{Path: p}
		res.Specs, res.Err = loadRouteFile(l, p)
		results = append(results, res)
	}
	return results, nil
}

func loadRouteFile(l *loader.Loader, path string) ([]*route.Spec, error) {
	id, err := loader.ID(path)
	if err != nil {
		return nil, err
	}
	v, err := l.Load(id)
	if err != nil {
		return nil, err
	}
	specs, err := route.NormalizeAll(v, id)
	if err != nil {
		return nil, err
	}
	for _, s := range specs {
		if _, err := router.CompilePattern(s.URL); err != nil {
			return nil, fmt.Errorf("%s: route #%d: %w", s.Source, s.Index, err)
		}
	}
	return specs, nil
}
