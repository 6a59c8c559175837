// Package visit provides the technical visit record and its formatting rules.
package visit

import (
	"fmt"
	"strconv"
	"strings"
)

// PermitType is one of the permits a site can require.
type PermitType string

const (
	Municipal PermitType = "municipal"
	Serviu    PermitType = "serviu"
	MOP       PermitType = "mop"
	Building  PermitType = "building"
)

// ValidPermitTypes is the set of allowed permit types, in display order.
var ValidPermitTypes = []PermitType{Municipal, Serviu, MOP, Building}

// MaxRoutePhotos is the maximum number of route photos a record may carry.
const MaxRoutePhotos = 3

// IsValid checks if a permit type is recognized.
func (t PermitType) IsValid() bool {
	for _, v := range ValidPermitTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Label returns a human-readable label for the permit type.
func (t PermitType) Label() string {
	switch t {
	case Municipal:
		return "Municipal"
	case Serviu:
		return "SERVIU"
	case MOP:
		return "MOP"
	case Building:
		return "Edificio"
	default:
		return string(t)
	}
}

// ParsePermitType resolves user input to a permit type.
// The Spanish "edificio" is accepted for Building.
func ParsePermitType(s string) (PermitType, error) {
	t := PermitType(strings.ToLower(strings.TrimSpace(s)))
	if t == "edificio" {
		t = Building
	}
	if !t.IsValid() {
		return "", fmt.Errorf("invalid permit type: %q", s)
	}
	return t, nil
}

// Photo is an image carried as a data URI (or bare base64) string.
type Photo string

// Present reports whether a photo value was supplied.
func (p Photo) Present() bool {
	return strings.TrimSpace(string(p)) != ""
}

// Record is one technical visit submission. It only lives for the
// duration of a single render request.
type Record struct {
	ProjectCode      string       `json:"projectCode" validate:"notblank"`
	ClientName       string       `json:"clientName" validate:"notblank"`
	ContactName      string       `json:"contactName" validate:"notblank"`
	ContactPhone     string       `json:"contactPhone,omitempty"`
	Latitude         Number       `json:"latitude" validate:"lat"`
	Longitude        Number       `json:"longitude" validate:"lng"`
	ConstructionDays Number       `json:"constructionDays,omitempty"`
	PermitsRequired  bool         `json:"permitsRequired"`
	PermitTypes      []PermitType `json:"permitTypes,omitempty" validate:"dive,permit"`
	EntryPhoto       Photo        `json:"entryPhoto,omitempty"`
	RoutePhotos      []Photo      `json:"routePhotos,omitempty" validate:"max=3"`
	SitePhoto        Photo        `json:"sitePhoto,omitempty"`
}

// Coordinates returns latitude and longitude as floats.
// Unparseable values come back as zero; call Validate first.
func (r *Record) Coordinates() (lat, lon float64) {
	lat, _ = r.Latitude.Float()
	lon, _ = r.Longitude.Float()
	return lat, lon
}

// Days returns the construction estimate and whether one was given.
func (r *Record) Days() (int, bool) {
	if r.ConstructionDays.IsZero() {
		return 0, false
	}
	n, ok := r.ConstructionDays.Int()
	if !ok || n <= 0 {
		return 0, false
	}
	return n, true
}

// PermitSummary returns the selected permit types uppercased and
// comma-joined. It is empty unless permits are required and at least
// one type is selected.
func (r *Record) PermitSummary() string {
	if !r.PermitsRequired || len(r.PermitTypes) == 0 {
		return ""
	}
	parts := make([]string, len(r.PermitTypes))
	for i, t := range r.PermitTypes {
		parts[i] = string(t)
	}
	return strings.ToUpper(strings.Join(parts, ", "))
}

// PhotoCount returns how many photo pages the record produces.
func (r *Record) PhotoCount() int {
	n := len(r.RoutePhotos)
	if r.EntryPhoto.Present() {
		n++
	}
	if r.SitePhoto.Present() {
		n++
	}
	return n
}

// FormatCoordinates renders a coordinate pair as "lat, lon" with exactly
// six decimal places each.
func FormatCoordinates(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', 6, 64) + ", " + strconv.FormatFloat(lon, 'f', 6, 64)
}

// MapURL returns a Google Maps link centered on the given point.
func MapURL(lat, lon float64) string {
	return fmt.Sprintf("https://maps.google.com/?q=%s,%s",
		strconv.FormatFloat(lat, 'f', -1, 64),
		strconv.FormatFloat(lon, 'f', -1, 64))
}

// ReportFilename returns the download filename for a project's report.
// Characters that are unsafe in a filename or header are replaced with "_".
func ReportFilename(projectCode string) string {
	code := strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == 0x7f:
			return '_'
		case strings.ContainsRune(`/\:*?"<>|`, r):
			return '_'
		}
		return r
	}, strings.TrimSpace(projectCode))
	if code == "" {
		code = "sin-codigo"
	}
	return "visita-tecnica-" + code + ".pdf"
}
