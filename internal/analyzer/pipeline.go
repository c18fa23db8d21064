package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/repoflow/repoflow/internal/githost"
	"github.com/repoflow/repoflow/internal/progress"
)

// scanRoots are the top-level directories worth descending into. Anything
// else at the repository root is listed but never entered.
var scanRoots = map[string]bool{
	"src":        true,
	"app":        true,
	"pages":      true,
	"components": true,
	"screens":    true,
	"views":      true,
	"routes":     true,
}

// Options tunes a Pipeline. Zero values select the regex strategy, a silent
// reporter, and the built-in demo dataset as fallback.
type Options struct {
	Strategy ClassificationStrategy
	Reporter progress.Reporter
	Fallback *AnalysisResult
}

// Pipeline runs a full repository analysis: scan, classify, extract,
// resolve, synthesize. One run at a time per Pipeline.
type Pipeline struct {
	source   Source
	strategy ClassificationStrategy
	reporter progress.Reporter
	fallback *AnalysisResult

	nodes    []FlowNode
	routes   []RouteEntry
	refs     map[string][]RawNavRef
	usedIDs  map[string]bool
	seen     int
	analyzed int
	readme   string
}

// NewPipeline builds a Pipeline over the given source.
func NewPipeline(source Source, opts Options) *Pipeline {
	if opts.Strategy == nil {
		opts.Strategy = RegexStrategy{}
	}
	if opts.Reporter == nil {
		opts.Reporter = progress.NopReporter{}
	}
	if opts.Fallback == nil {
		opts.Fallback = demoDataset
	}
	return &Pipeline{
		source:   source,
		strategy: opts.Strategy,
		reporter: opts.Reporter,
		fallback: opts.Fallback,
	}
}

// Analyze parses the repository URL and runs the analysis.
func (p *Pipeline) Analyze(ctx context.Context, repoURL string) (*AnalysisResult, error) {
	ref, err := githost.ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}
	return p.AnalyzeRef(ctx, ref)
}

// AnalyzeRef runs the analysis for an already-parsed reference. Fetch
// failures divert to the fallback dataset; a rate-limited probe and context
// cancellation propagate instead so callers can react.
func (p *Pipeline) AnalyzeRef(ctx context.Context, ref githost.RepositoryReference) (*AnalysisResult, error) {
	p.reset()

	p.reporter.Stage("probing repository")
	if err := p.source.Probe(ctx, ref); err != nil {
		if _, ok := githost.AsRateLimited(err); ok {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, err
		}
		return fallbackResult(p.fallback, ref.URL, ref.Name, err), nil
	}

	p.reporter.Stage("scanning repository tree")
	err := p.scanRoot(ctx, ref)
	if err != nil && githost.IsNotFound(err) && ref.BranchDefaulted() {
		// The default branch is a guess; repositories created before the
		// rename still ship a master branch.
		p.reset()
		err = p.scanRoot(ctx, ref.WithBranch("master"))
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return fallbackResult(p.fallback, ref.URL, ref.Name, err), nil
	}

	if len(p.nodes) == 0 {
		return nil, fmt.Errorf("analyzing %s: %w", ref, githost.ErrEmptyResult)
	}

	p.reporter.Stage("resolving navigation graph")
	p.resolveConnections()

	p.reporter.Stage("synthesizing user journeys")
	journeys := SynthesizeJourneys(p.nodes)

	p.reporter.Finish(fmt.Sprintf("%d nodes, %d routes, %d journeys", len(p.nodes), len(p.routes), len(journeys)))

	return &AnalysisResult{
		RepoURL:       ref.URL,
		RepoName:      ref.Name,
		Nodes:         p.nodes,
		Routes:        p.routes,
		Journeys:      journeys,
		TotalFiles:    p.seen,
		AnalyzedFiles: p.analyzed,
		Timestamp:     time.Now().UTC(),
	}, nil
}

// Readme returns the root README captured during the last run, if any.
func (p *Pipeline) Readme() string { return p.readme }

func (p *Pipeline) reset() {
	p.nodes = nil
	p.routes = nil
	p.refs = make(map[string][]RawNavRef)
	p.usedIDs = make(map[string]bool)
	p.seen = 0
	p.analyzed = 0
	p.readme = ""
}

func (p *Pipeline) scanRoot(ctx context.Context, ref githost.RepositoryReference) error {
	entries, err := p.source.ListDirectory(ctx, ref, "")
	if err != nil {
		return err
	}
	for _, e := range entries {
		switch e.Kind {
		case githost.FileKindDirectory:
			if scanRoots[strings.ToLower(e.Name)] {
				if err := p.scanDir(ctx, ref, e.Path); err != nil {
					return err
				}
			}
		case githost.FileKindFile:
			// Root files never become candidates; the README is read only
			// to enrich generated reports.
			if strings.EqualFold(e.Name, "readme.md") {
				p.readme = p.source.ReadFile(ctx, e.ContentLocation)
			}
		}
	}
	return nil
}

func (p *Pipeline) scanDir(ctx context.Context, ref githost.RepositoryReference, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries, err := p.source.ListDirectory(ctx, ref, dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		switch e.Kind {
		case githost.FileKindDirectory:
			if githost.SkipDir(e.Name) {
				continue
			}
			if err := p.scanDir(ctx, ref, e.Path); err != nil {
				return err
			}
		case githost.FileKindFile:
			p.seen++
			p.processFile(ctx, e)
		}
	}
	return nil
}

func (p *Pipeline) processFile(ctx context.Context, f githost.RemoteFile) {
	if !p.strategy.Candidate(f.Path) {
		return
	}
	text := p.source.ReadFile(ctx, f.ContentLocation)
	if text == "" {
		return
	}
	decls := p.strategy.Declarations(text)
	if len(decls) == 0 {
		return
	}

	p.refs[f.Path] = ExtractNavRefs(text)

	for _, d := range decls {
		kind := p.strategy.Classify(f.Path, d.Name, text)
		route := RoutePath(f.Path, d.Name)
		node := FlowNode{
			ID:          p.uniqueID(d.Name),
			DisplayName: DisplayName(d.Name),
			RoutePath:   route,
			SourcePath:  f.Path,
			Kind:        kind,
			Metadata:    ExtractMetadata(d.Name, kind, route, text),
		}
		p.nodes = append(p.nodes, node)

		if kind == KindPage && route != "" && route != "/" {
			p.routes = append(p.routes, RouteEntry{
				Path:          route,
				ComponentName: d.Name,
				SourcePath:    f.Path,
				Guards:        RouteGuards(text),
				Params:        RouteParams(route),
			})
		}
	}

	p.analyzed++
	p.reporter.File(f.Path)
}

func (p *Pipeline) uniqueID(name string) string {
	base := strings.ToLower(name)
	for i := 0; ; i++ {
		id := fmt.Sprintf("%s-%d", base, i)
		if !p.usedIDs[id] {
			p.usedIDs[id] = true
			return id
		}
	}
}

// resolveConnections is the second pass: navigation references recorded
// during the scan become edges against the now-complete node set. Targets
// without a matching route are dropped so every edge points at a real node.
func (p *Pipeline) resolveConnections() {
	byRoute := make(map[string]*FlowNode, len(p.nodes))
	for i := range p.nodes {
		if _, ok := byRoute[p.nodes[i].RoutePath]; !ok {
			byRoute[p.nodes[i].RoutePath] = &p.nodes[i]
		}
	}

	attached := make(map[string]bool, len(p.refs))
	for i := range p.nodes {
		n := &p.nodes[i]
		if attached[n.SourcePath] {
			continue
		}
		attached[n.SourcePath] = true

		for _, ref := range p.refs[n.SourcePath] {
			target, ok := byRoute[normalizeTarget(ref.Target)]
			if !ok {
				continue
			}
			kind := ref.Kind
			if kind == ConnNavigation && target.Kind == KindModal {
				kind = ConnModal
			}
			n.Connections = append(n.Connections, Connection{
				TargetNodeID:       target.ID,
				Kind:               kind,
				TriggerDescription: ref.Trigger,
				Condition:          ref.Condition,
			})
		}
	}
}

// normalizeTarget reduces a literal navigation target to the route form the
// extractor produces: no query, no fragment, no trailing slash.
func normalizeTarget(target string) string {
	if i := strings.IndexAny(target, "?#"); i >= 0 {
		target = target[:i]
	}
	if len(target) > 1 {
		target = strings.TrimSuffix(target, "/")
	}
	return target
}
