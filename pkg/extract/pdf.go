package extract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"

	"multimodal-rag-be/pkg/apperror"
	"multimodal-rag-be/pkg/store"

	"github.com/ledongthuc/pdf"
)

func (e *Extractor) extractPDF(ctx context.Context, data []byte, source string) (frags []store.Fragment, err error) {
	// The pdf reader panics on malformed streams.
	defer func() {
		if r := recover(); r != nil {
			frags = nil
			err = apperror.New(apperror.ErrExtractionFailure, "Extractor.extractPDF", fmt.Sprint(r))
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, apperror.Wrap(apperror.ErrExtractionFailure, "Extractor.extractPDF", err)
	}

	var pages []string
	var images [][]byte
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		if txt, err := page.GetPlainText(nil); err == nil && strings.TrimSpace(txt) != "" {
			pages = append(pages, txt)
		}
		if len(images) < e.cfg.MaxPDFImages {
			images = append(images, pageImages(page, e.cfg.MaxPDFImages-len(images))...)
		}
	}

	frags = e.textFragments(strings.Join(pages, "\n\n"), source)
	for _, img := range images {
		imgFrags, err := e.extractImage(ctx, img, source)
		if err != nil {
			return nil, err
		}
		frags = append(frags, imgFrags...)
	}
	return frags, nil
}

// pageImages returns up to limit embedded raster images re-encoded as PNG.
// Only flate or unfiltered 8-bit RGB and gray images are decoded.
func pageImages(page pdf.Page, limit int) [][]byte {
	xobjs := page.Resources().Key("XObject")
	var out [][]byte
	for _, name := range xobjs.Keys() {
		if len(out) >= limit {
			break
		}
		v := xobjs.Key(name)
		if v.Key("Subtype").Name() != "Image" {
			continue
		}
		if img, ok := decodeImage(v); ok {
			out = append(out, img)
		}
	}
	return out
}

func decodeImage(v pdf.Value) (encoded []byte, ok bool) {
	defer func() {
		if recover() != nil {
			encoded, ok = nil, false
		}
	}()

	filter := v.Key("Filter")
	if !(filter.IsNull() || (filter.Kind() == pdf.Name && filter.Name() == "FlateDecode")) {
		return nil, false
	}
	if v.Key("BitsPerComponent").Int64() != 8 {
		return nil, false
	}
	w, h := int(v.Key("Width").Int64()), int(v.Key("Height").Int64())
	if w <= 0 || h <= 0 {
		return nil, false
	}

	var channels int
	switch v.Key("ColorSpace").Name() {
	case "DeviceRGB":
		channels = 3
	case "DeviceGray":
		channels = 1
	default:
		return nil, false
	}

	rc := v.Reader()
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil || len(raw) < w*h*channels {
		return nil, false
	}

	var img image.Image
	if channels == 3 {
		rgba := image.NewRGBA(image.Rect(0, 0, w, h))
		for i := 0; i < w*h; i++ {
			rgba.Set(i%w, i/w, color.RGBA{R: raw[i*3], G: raw[i*3+1], B: raw[i*3+2], A: 0xff})
		}
		img = rgba
	} else {
		gray := image.NewGray(image.Rect(0, 0, w, h))
		copy(gray.Pix, raw[:w*h])
		img = gray
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}
