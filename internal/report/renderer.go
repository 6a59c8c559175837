// Package report lays out a technical visit as a paginated PDF.
package report

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/zuriciver-web/v0-technical-visit-form/internal/photo"
	"github.com/zuriciver-web/v0-technical-visit-form/internal/visit"
)

// Layout constants in millimetres on an A4 portrait page.
const (
	margin       = 20.0
	titleY       = 20.0
	ruleY        = 28.0
	gridTop      = 40.0
	rowStep      = 18.0
	fieldWidth   = 85.0
	fieldHeight  = 12.0
	photoTop     = 35.0
	photoBandPad = 60.0
)

// Photo page titles.
const (
	EntryTitle = "INGRESO DE FIBRA"
	RouteTitle = "RECORRIDO DE FIBRA %d"
	SiteTitle  = "SALA DONDE LLEGA FIBRA"
)

// PhotoErrorCaption is drawn on a photo page whose image cannot be embedded.
const PhotoErrorCaption = "Error al cargar la imagen"

const notAvailable = "N/A"

// Report is a rendered visit document.
type Report struct {
	ID       string
	Filename string
	PDF      []byte
	Pages    int
	// Failed lists the titles of photo pages that show the error caption.
	Failed []string
}

// Options tunes a Renderer.
type Options struct {
	Image photo.NormalizeOptions
	// Uncompressed disables stream compression, which keeps page content
	// readable when inspecting output.
	Uncompressed bool
	// Now overrides the creation date, for reproducible output.
	Now func() time.Time
}

// Renderer turns visit records into PDF documents. It holds no per-request
// state and is safe for concurrent use.
type Renderer struct {
	opts   Options
	logger *slog.Logger
}

// NewRenderer creates a renderer.
func NewRenderer(opts Options, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Renderer{opts: opts, logger: logger}
}

// Render lays out the record and returns the finished document. Photos
// that cannot be decoded are replaced by an error caption on their page;
// any other failure aborts the render and no document is returned.
func (r *Renderer) Render(ctx context.Context, rec *visit.Record) (rep *Report, err error) {
	defer func() {
		if p := recover(); p != nil {
			rep, err = nil, fmt.Errorf("rendering report: panic: %v", p)
		}
	}()

	id := uuid.NewString()
	d := newDocument(r.opts)
	d.setInfo(rec, id, r.opts.Now())

	d.drawSummary(rec)
	if err := d.pdf.Error(); err != nil {
		return nil, fmt.Errorf("drawing summary: %w", err)
	}

	var failed []string
	for i, p := range photoPages(rec) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if perr := d.drawPhotoPage(i, p, r.opts.Image); perr != nil {
			r.logger.Warn("photo page degraded",
				"report_id", id,
				"page", p.title,
				"error", perr,
			)
			failed = append(failed, p.title)
		}
		if err := d.pdf.Error(); err != nil {
			return nil, fmt.Errorf("drawing %s: %w", p.title, err)
		}
	}

	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing pdf: %w", err)
	}

	return &Report{
		ID:       id,
		Filename: visit.ReportFilename(rec.ProjectCode),
		PDF:      buf.Bytes(),
		Pages:    d.pdf.PageCount(),
		Failed:   failed,
	}, nil
}

type photoPage struct {
	title string
	value visit.Photo
}

// photoPages lists the photo pages in output order: entry, route, site.
func photoPages(rec *visit.Record) []photoPage {
	var pages []photoPage
	if rec.EntryPhoto.Present() {
		pages = append(pages, photoPage{title: EntryTitle, value: rec.EntryPhoto})
	}
	for i, p := range rec.RoutePhotos {
		pages = append(pages, photoPage{title: fmt.Sprintf(RouteTitle, i+1), value: p})
	}
	if rec.SitePhoto.Present() {
		pages = append(pages, photoPage{title: SiteTitle, value: rec.SitePhoto})
	}
	return pages
}
