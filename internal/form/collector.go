// Package form collects a technical visit the way the browser form does:
// it holds the field values and selected photos, gates submission on
// validation, encodes photos and hands the record to a submitter.
package form

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/zuriciver-web/v0-technical-visit-form/internal/client"
	"github.com/zuriciver-web/v0-technical-visit-form/internal/photo"
	"github.com/zuriciver-web/v0-technical-visit-form/internal/visit"
)

// Collector is the mutable form state. Coordinates and the construction
// estimate are kept as text, as typed.
type Collector struct {
	ProjectCode      string
	ClientName       string
	ContactName      string
	ContactPhone     string
	Latitude         string
	Longitude        string
	ConstructionDays string
	PermitsRequired  bool

	permitTypes []visit.PermitType
	entryPhoto  photo.Source
	routePhotos []photo.Source
	sitePhoto   photo.Source
}

// New returns an empty collector.
func New() *Collector {
	return &Collector{}
}

// TogglePermit selects a permit type, or deselects it if already selected.
func (c *Collector) TogglePermit(t visit.PermitType) {
	if i := slices.Index(c.permitTypes, t); i >= 0 {
		c.permitTypes = slices.Delete(c.permitTypes, i, i+1)
		return
	}
	c.permitTypes = append(c.permitTypes, t)
}

// PermitTypes returns the selected permit types in selection order.
func (c *Collector) PermitTypes() []visit.PermitType {
	return slices.Clone(c.permitTypes)
}

// SetEntryPhoto selects the entry photo; nil clears it.
func (c *Collector) SetEntryPhoto(src photo.Source) {
	c.entryPhoto = src
}

// SetSitePhoto selects the site photo; nil clears it.
func (c *Collector) SetSitePhoto(src photo.Source) {
	c.sitePhoto = src
}

// AddRoutePhoto appends a route photo. Once the cap is reached further
// photos are rejected with a notice and the selection is unchanged.
func (c *Collector) AddRoutePhoto(src photo.Source) error {
	if len(c.routePhotos) >= visit.MaxRoutePhotos {
		return ErrRouteLimit
	}
	if src == nil {
		return nil
	}
	c.routePhotos = append(c.routePhotos, src)
	return nil
}

// RemoveRoutePhoto removes the route photo at index.
func (c *Collector) RemoveRoutePhoto(index int) error {
	if index < 0 || index >= len(c.routePhotos) {
		return fmt.Errorf("route photo %d out of range (have %d)", index, len(c.routePhotos))
	}
	c.routePhotos = slices.Delete(c.routePhotos, index, index+1)
	return nil
}

// RoutePhotos returns the selected route photos in order.
func (c *Collector) RoutePhotos() []photo.Source {
	return slices.Clone(c.routePhotos)
}

// MapURL returns a preview map link, or "" until both coordinates parse.
func (c *Collector) MapURL() string {
	lat, latOK := visit.Number(c.Latitude).Float()
	lon, lonOK := visit.Number(c.Longitude).Float()
	if !latOK || !lonOK {
		return ""
	}
	return visit.MapURL(lat, lon)
}

// Validate is the gate run before submission. It returns a *Notice
// describing the first problem found, or nil.
func (c *Collector) Validate() error {
	if strings.TrimSpace(c.ProjectCode) == "" ||
		strings.TrimSpace(c.ClientName) == "" ||
		strings.TrimSpace(c.ContactName) == "" {
		return ErrRequiredFields
	}

	lat, latOK := visit.Number(c.Latitude).Float()
	lon, lonOK := visit.Number(c.Longitude).Float()
	if !latOK || !lonOK || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return ErrInvalidCoordinates
	}

	if c.entryPhoto == nil || c.sitePhoto == nil {
		return ErrRequiredPhotos
	}
	return nil
}

// Record validates the form and builds the payload, encoding every photo.
// Route photos are encoded concurrently and keep their order.
func (c *Collector) Record(ctx context.Context) (*visit.Record, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	entry, err := photo.Encode(c.entryPhoto)
	if err != nil {
		return nil, fmt.Errorf("encoding entry photo: %w", err)
	}
	route, err := photo.EncodeAll(ctx, c.routePhotos)
	if err != nil {
		return nil, fmt.Errorf("encoding route photos: %w", err)
	}
	site, err := photo.Encode(c.sitePhoto)
	if err != nil {
		return nil, fmt.Errorf("encoding site photo: %w", err)
	}

	rec := &visit.Record{
		ProjectCode:      strings.TrimSpace(c.ProjectCode),
		ClientName:       strings.TrimSpace(c.ClientName),
		ContactName:      strings.TrimSpace(c.ContactName),
		ContactPhone:     strings.TrimSpace(c.ContactPhone),
		Latitude:         visit.Number(strings.TrimSpace(c.Latitude)),
		Longitude:        visit.Number(strings.TrimSpace(c.Longitude)),
		ConstructionDays: visit.Number(strings.TrimSpace(c.ConstructionDays)),
		PermitsRequired:  c.PermitsRequired,
		EntryPhoto:       visit.Photo(entry),
		SitePhoto:        visit.Photo(site),
	}
	if c.PermitsRequired {
		rec.PermitTypes = c.PermitTypes()
	}
	for _, uri := range route {
		rec.RoutePhotos = append(rec.RoutePhotos, visit.Photo(uri))
	}
	return rec, nil
}

// Submitter renders a record remotely.
type Submitter interface {
	GeneratePDF(ctx context.Context, rec *visit.Record) (*client.Download, error)
}

// Submit validates, encodes and submits the form. Validation failures
// return a *Notice and nothing is sent. Any other failure is reported
// as the generic render notice wrapping the cause.
func (c *Collector) Submit(ctx context.Context, s Submitter) (*client.Download, error) {
	rec, err := c.Record(ctx)
	if err != nil {
		var n *Notice
		if errors.As(err, &n) {
			return nil, n
		}
		return nil, ErrRenderFailed.wrap(err)
	}

	dl, err := s.GeneratePDF(ctx, rec)
	if err != nil {
		return nil, ErrRenderFailed.wrap(err)
	}
	return dl, nil
}
