package report

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/zuriciver-web/v0-technical-visit-form/internal/photo"
	"github.com/zuriciver-web/v0-technical-visit-form/internal/visit"
)

const fontFamily = "Helvetica"

// document wraps one fpdf instance for the duration of a render.
type document struct {
	pdf          *fpdf.Fpdf
	tr           func(string) string
	pageW, pageH float64
}

func newDocument(opts Options) *document {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(!opts.Uncompressed)
	w, h := pdf.GetPageSize()
	return &document{
		pdf:   pdf,
		tr:    pdf.UnicodeTranslatorFromDescriptor(""),
		pageW: w,
		pageH: h,
	}
}

func (d *document) setInfo(rec *visit.Record, id string, now time.Time) {
	d.pdf.SetTitle("Visita técnica "+rec.ProjectCode, true)
	d.pdf.SetSubject(rec.ClientName, true)
	d.pdf.SetCreator("technical-visit-form", false)
	d.pdf.SetKeywords("report-id:"+id, false)
	d.pdf.SetCreationDate(now)
}

// drawSummary writes page 1: title, rule and the field grid.
func (d *document) drawSummary(rec *visit.Record) {
	d.pdf.AddPage()

	d.pdf.SetFont(fontFamily, "B", 18)
	d.centerText(titleY, "VISITA TÉCNICA PROYECTO: "+rec.ProjectCode)

	d.pdf.SetLineWidth(0.5)
	d.pdf.Line(margin, ruleY, d.pageW-margin, ruleY)

	left, right := margin, d.pageW/2+5
	y := gridTop

	d.field("Código Proyecto:", rec.ProjectCode, left, y)
	d.field("Nombre Cliente:", rec.ClientName, right, y)
	y += rowStep

	d.field("Nombre Contacto:", rec.ContactName, left, y)
	d.field("Fono Contacto:", rec.ContactPhone, right, y)
	y += rowStep

	lat, lon := rec.Coordinates()
	d.field("Coordenadas:", visit.FormatCoordinates(lat, lon), left, y)
	d.link("Ver en Google Maps", visit.MapURL(lat, lon), right, y+5)
	y += rowStep

	if days, ok := rec.Days(); ok {
		d.field("Días Aprox. de Construcción:", fmt.Sprintf("%d días", days), left, y)
		y += rowStep
	}

	permits := "No"
	if rec.PermitsRequired {
		permits = "Sí"
	}
	d.field("Permisos:", permits, left, y)
	if summary := rec.PermitSummary(); summary != "" {
		d.field("Tipo de Permisos:", summary, right, y)
	}
}

// field draws a bold label, its value on the line below and a thin grey
// border around both.
func (d *document) field(label, value string, x, y float64) {
	if strings.TrimSpace(value) == "" {
		value = notAvailable
	}

	d.pdf.SetFont(fontFamily, "B", 10)
	d.pdf.Text(x, y, d.tr(label))
	d.pdf.SetFont(fontFamily, "", 10)
	d.pdf.Text(x, y+5, d.clip(d.tr(value), fieldWidth-4))

	d.pdf.SetDrawColor(200, 200, 200)
	d.pdf.SetLineWidth(0.2)
	d.pdf.Rect(x-2, y-4, fieldWidth, fieldHeight, "D")
	d.pdf.SetDrawColor(0, 0, 0)
}

// link draws blue text at baseline y with a clickable area over it.
func (d *document) link(text, url string, x, y float64) {
	text = d.tr(text)
	_, h := d.pdf.GetFontSize()
	d.pdf.SetTextColor(0, 0, 255)
	d.pdf.Text(x, y, text)
	d.pdf.LinkString(x, y-h, d.pdf.GetStringWidth(text), h+1, url)
	d.pdf.SetTextColor(0, 0, 0)
}

func (d *document) centerText(y float64, s string) {
	s = d.tr(s)
	d.pdf.Text((d.pageW-d.pdf.GetStringWidth(s))/2, y, s)
}

// clip shortens an already translated string so it fits width.
func (d *document) clip(s string, width float64) string {
	if d.pdf.GetStringWidth(s) <= width {
		return s
	}
	const ellipsis = "..."
	for len(s) > 0 && d.pdf.GetStringWidth(s+ellipsis) > width {
		s = s[:len(s)-1]
	}
	return s + ellipsis
}

// drawPhotoPage adds a titled page for one photo. When the photo cannot
// be embedded the page carries an error caption instead and the error is
// returned so the caller can record it; the document stays usable.
func (d *document) drawPhotoPage(i int, p photoPage, opts photo.NormalizeOptions) error {
	d.pdf.AddPage()
	d.pdf.SetFont(fontFamily, "B", 14)
	d.centerText(titleY, p.title)

	img, err := photo.NormalizeDataURI(string(p.value), opts)
	if err == nil {
		err = d.embed(fmt.Sprintf("photo-%d", i), img)
	}
	if err != nil {
		d.pdf.SetFont(fontFamily, "", 10)
		d.centerText(d.pageH/2, PhotoErrorCaption)
		return err
	}
	return nil
}

// embed places a JPEG filling the page width minus margins and the
// vertical band below the title.
func (d *document) embed(name string, img *photo.Image) error {
	opts := fpdf.ImageOptions{ImageType: "JPG"}
	info := d.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.JPEG))
	if err := d.pdf.Error(); err != nil {
		d.pdf.ClearError()
		return fmt.Errorf("registering image: %w", err)
	}
	if info == nil {
		return errors.New("registering image: no image info")
	}
	d.pdf.ImageOptions(name, margin, photoTop, d.pageW-2*margin, d.pageH-photoBandPad, false, opts, 0, "")
	return nil
}
