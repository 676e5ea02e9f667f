package extract

import (
	"bytes"
	"context"
	"strings"

	"multimodal-rag-be/pkg/store"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// splitMarkdown separates prose blocks from GFM tables. Tables come back
// rendered as HTML.
func splitMarkdown(src []byte) (string, []string, error) {
	root := markdown.Parser().Parse(text.NewReader(src))

	var prose strings.Builder
	var tables []string
	var renderErr error

	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if n.Kind() == east.KindTable {
			var buf bytes.Buffer
			if err := markdown.Renderer().Render(&buf, src, n); err != nil {
				renderErr = err
				return ast.WalkStop, nil
			}
			tables = append(tables, buf.String())
			return ast.WalkSkipChildren, nil
		}
		if n.Type() != ast.TypeBlock {
			return ast.WalkContinue, nil
		}
		lines := n.Lines()
		if lines == nil || lines.Len() == 0 {
			return ast.WalkContinue, nil
		}
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			prose.Write(seg.Value(src))
		}
		prose.WriteString("\n\n")
		return ast.WalkSkipChildren, nil
	})
	if renderErr != nil {
		return "", nil, renderErr
	}
	return prose.String(), tables, nil
}

func (e *Extractor) extractMarkdown(ctx context.Context, data []byte, source string) ([]store.Fragment, error) {
	prose, tables, err := splitMarkdown(data)
	if err != nil {
		return nil, err
	}

	frags := e.textFragments(prose, source)
	tableFrags, err := e.summarizeTables(ctx, tables, source)
	if err != nil {
		return nil, err
	}
	return append(frags, tableFrags...), nil
}
