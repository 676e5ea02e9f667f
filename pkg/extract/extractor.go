package extract

import (
	"context"
	"errors"
	"strings"

	"multimodal-rag-be/internal/pkg/logger"
	"multimodal-rag-be/pkg/apperror"
	"multimodal-rag-be/pkg/filetype"
	"multimodal-rag-be/pkg/store"
	"multimodal-rag-be/pkg/utils"
)

const logModule = "DocumentExtractor"

// Summarizer turns non-text content into text. chatbot.Agent satisfies it.
type Summarizer interface {
	SummarizeImage(ctx context.Context, image []byte) (string, error)
	SummarizeTable(ctx context.Context, tableHTML string) (string, error)
}

type Config struct {
	MaxChars      int
	NewAfterChars int
	CombineUnder  int
	// MaxPDFImages caps how many embedded images are summarized per PDF.
	MaxPDFImages int
}

func DefaultConfig() Config {
	return Config{
		MaxChars:      utils.DefaultMaxChars,
		NewAfterChars: utils.DefaultNewAfterChars,
		CombineUnder:  utils.DefaultCombineUnder,
		MaxPDFImages:  20,
	}
}

// Extractor converts uploaded files into fragments: text chunks first,
// then image summaries, then table summaries.
type Extractor struct {
	summarizer Summarizer
	cfg        Config
	logger     logger.ILogger
}

func NewExtractor(summarizer Summarizer, cfg Config, log logger.ILogger) *Extractor {
	return &Extractor{summarizer: summarizer, cfg: cfg, logger: log}
}

// Extract dispatches on kind. An empty result is an ExtractionFailure.
func (e *Extractor) Extract(ctx context.Context, kind filetype.Kind, data []byte, source string) ([]store.Fragment, error) {
	var (
		frags []store.Fragment
		err   error
	)
	switch kind {
	case filetype.KindPDF:
		frags, err = e.extractPDF(ctx, data, source)
	case filetype.KindMarkdown:
		frags, err = e.extractMarkdown(ctx, data, source)
	case filetype.KindText:
		frags = e.textFragments(string(data), source)
	case filetype.KindImage:
		frags, err = e.extractImage(ctx, data, source)
	default:
		return nil, apperror.New(apperror.ErrExtractionFailure, "Extractor.Extract", "unsupported file type "+string(kind))
	}
	if err != nil {
		return nil, asExtractionError(err)
	}
	if len(frags) == 0 {
		return nil, apperror.New(apperror.ErrExtractionFailure, "Extractor.Extract", "no content extracted")
	}

	e.logger.Info(logModule, "Extracted fragments", map[string]interface{}{
		"source":    source,
		"kind":      string(kind),
		"fragments": len(frags),
	})
	return frags, nil
}

func (e *Extractor) textFragments(text, source string) []store.Fragment {
	chunks := utils.ChunkParagraphs(text, e.cfg.MaxChars, e.cfg.NewAfterChars, e.cfg.CombineUnder)
	frags := make([]store.Fragment, 0, len(chunks))
	for _, c := range chunks {
		frags = append(frags, store.Fragment{Text: c, OriginKind: store.OriginText, Source: source})
	}
	return frags
}

func (e *Extractor) extractImage(ctx context.Context, data []byte, source string) ([]store.Fragment, error) {
	summary, err := e.summarizer.SummarizeImage(ctx, data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(summary) == "" {
		return nil, nil
	}
	return []store.Fragment{{Text: summary, OriginKind: store.OriginImage, Source: source}}, nil
}

func (e *Extractor) summarizeTables(ctx context.Context, tables []string, source string) ([]store.Fragment, error) {
	var out []store.Fragment
	for _, html := range tables {
		summary, err := e.summarizer.SummarizeTable(ctx, html)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(summary) != "" {
			out = append(out, store.Fragment{Text: summary, OriginKind: store.OriginTable, Source: source})
		}
	}
	return out, nil
}

func asExtractionError(err error) error {
	if errors.Is(err, apperror.ErrBackendUnavailable) || errors.Is(err, apperror.ErrExtractionFailure) {
		return err
	}
	return apperror.Wrap(apperror.ErrExtractionFailure, "Extractor.Extract", err)
}
