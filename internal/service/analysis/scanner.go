package analysis

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/hugo-lorenzo-mato/omnidoc/internal/core"
)

// Scanner enumerates and loads candidate documentation files into the
// documentation index. Total bytes and file count are capped; when a
// cap is hit the index is truncated deterministically, largest
// relevance first, and the truncation is noted for the report.
//
// Like discovery, the scanner is never fatal: on repository access
// failure it degrades to an empty index with status missing.
type Scanner struct {
	sc *stageContext
}

func NewScanner(sc *stageContext) *Scanner {
	return &Scanner{sc: sc}
}

func (s *Scanner) Kind() core.StageKind {
	return core.StageScanner
}

// loadConcurrency bounds parallel documentation reads per run.
const loadConcurrency = 4

func (s *Scanner) Run(ctx context.Context, st *core.AnalysisState) error {
	log := s.sc.logger.WithStage(string(s.Kind()))

	paths, err := s.sc.caps.Docs.ListDocs(ctx, s.sc.ref)
	if err != nil {
		if ctx.Err() != nil {
			return core.ErrCancelled("documentation scan interrupted").WithCause(ctx.Err())
		}
		log.Warn("documentation listing failed, proceeding without docs", "error", err)
		st.AddError("documentation scan degraded: " + err.Error())
		st.Docs = &core.DocumentationIndex{Status: core.DocStatusMissing}
		return nil
	}

	ranked := rankCandidates(paths, st.Hints)

	truncated := false
	if len(ranked) > s.sc.cfg.MaxDocFiles {
		ranked = ranked[:s.sc.cfg.MaxDocFiles]
		truncated = true
	}

	files, loadErrs := s.loadAll(ctx, ranked)
	if ctx.Err() != nil {
		return core.ErrCancelled("documentation scan interrupted").WithCause(ctx.Err())
	}
	for _, lerr := range loadErrs {
		log.Warn("documentation file skipped", "error", lerr)
	}

	files, byteTruncated := applyByteCap(files, s.sc.cfg.MaxDocBytes)
	truncated = truncated || byteTruncated

	index := &core.DocumentationIndex{
		Files:     files,
		Truncated: truncated,
	}
	for _, f := range files {
		index.TotalBytes += len(f.Content)
		if f.Type == core.DocTypeReadme {
			index.HasReadme = true
		}
	}
	index.Status = classifyDocStatus(index)

	if truncated {
		st.AddError(fmt.Sprintf("documentation index truncated to %d files / %d bytes; lower-relevance files were skipped",
			len(files), index.TotalBytes))
	}

	st.Docs = index
	log.Info("documentation index committed",
		"files", len(files),
		"bytes", index.TotalBytes,
		"status", string(index.Status),
		"truncated", truncated)
	return nil
}

// loadAll reads the ranked files concurrently, preserving rank order in
// the result. Individual read failures drop the file, not the run.
func (s *Scanner) loadAll(ctx context.Context, ranked []core.DocFile) ([]core.DocFile, []error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)

	loaded := make([]core.DocFile, len(ranked))
	errs := make([]error, len(ranked))

	for i := range ranked {
		i := i
		g.Go(func() error {
			content, err := s.sc.caps.Docs.ReadDoc(gctx, s.sc.ref, ranked[i].Path)
			if err != nil {
				errs[i] = fmt.Errorf("read %s: %w", ranked[i].Path, err)
				return nil
			}
			if len(content) > s.sc.cfg.MaxDocFileSize {
				content = truncateRuneSafe(content, s.sc.cfg.MaxDocFileSize)
			}
			f := ranked[i]
			f.Content = content
			f.Size = len(content)
			loaded[i] = f
			return nil
		})
	}
	_ = g.Wait()

	var files []core.DocFile
	var loadErrs []error
	for i := range loaded {
		if errs[i] != nil {
			loadErrs = append(loadErrs, errs[i])
			continue
		}
		if loaded[i].Path != "" {
			files = append(files, loaded[i])
		}
	}
	return files, loadErrs
}

// rankCandidates orders documentation paths by hint-derived relevance,
// highest first. Ties break on path so truncation is deterministic.
func rankCandidates(paths []string, hints []core.ContextHint) []core.DocFile {
	files := make([]core.DocFile, 0, len(paths))
	for _, p := range paths {
		files = append(files, core.DocFile{
			Path:      p,
			Type:      classifyDocType(p),
			Relevance: relevance(p, hints),
		})
	}
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Relevance != files[j].Relevance {
			return files[i].Relevance > files[j].Relevance
		}
		return files[i].Path < files[j].Path
	})
	return files
}

// relevance scores a path against the context hints. READMEs carry a
// base weight so they survive truncation even without hints.
func relevance(p string, hints []core.ContextHint) float64 {
	lower := strings.ToLower(p)
	score := 0.0
	if classifyDocType(p) == core.DocTypeReadme {
		score += 0.5
	}
	for _, h := range hints {
		switch h.Kind {
		case "doc_file_changed":
			if strings.EqualFold(h.Value, p) {
				score += 2 * h.Weight
			}
		case "keyword", "section":
			if strings.Contains(lower, strings.ToLower(h.Value)) {
				score += h.Weight
			}
		}
	}
	return score
}

// truncateRuneSafe cuts content at max bytes, backing up so a
// multi-byte rune is never split.
func truncateRuneSafe(content string, max int) string {
	if len(content) <= max {
		return content
	}
	for max > 0 && !utf8.RuneStart(content[max]) {
		max--
	}
	return content[:max]
}

// applyByteCap keeps files in rank order until the budget is spent.
// A file that would overflow the budget is dropped along with the rest.
func applyByteCap(files []core.DocFile, maxBytes int) ([]core.DocFile, bool) {
	total := 0
	for i, f := range files {
		if total+f.Size > maxBytes {
			return files[:i], true
		}
		total += f.Size
	}
	return files, false
}

// minReadmeBytes and minTotalBytes separate minimal documentation from
// present documentation.
const (
	minReadmeBytes = 100
	minTotalBytes  = 1000
)

func classifyDocStatus(index *core.DocumentationIndex) core.DocStatus {
	if len(index.Files) == 0 {
		return core.DocStatusMissing
	}
	readmeBytes := 0
	for _, f := range index.Files {
		if f.Type == core.DocTypeReadme {
			readmeBytes += f.Size
		}
	}
	if readmeBytes < minReadmeBytes || index.TotalBytes < minTotalBytes {
		return core.DocStatusMinimal
	}
	return core.DocStatusPresent
}

func classifyDocType(p string) core.DocType {
	base := strings.ToLower(path.Base(p))
	switch {
	case strings.HasPrefix(base, "readme"):
		return core.DocTypeReadme
	case strings.HasPrefix(base, "changelog") || strings.HasPrefix(base, "history"):
		return core.DocTypeChangelog
	case strings.Contains(base, "api") || strings.Contains(p, "/api/"):
		return core.DocTypeAPI
	case strings.Contains(base, "config") || strings.Contains(base, "settings"):
		return core.DocTypeConfig
	case strings.Contains(strings.ToLower(p), "guide") || strings.Contains(strings.ToLower(p), "tutorial"):
		return core.DocTypeGuide
	default:
		return core.DocTypeOther
	}
}
