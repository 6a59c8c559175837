package form

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/zuriciver-web/v0-technical-visit-form/internal/client"
	"github.com/zuriciver-web/v0-technical-visit-form/internal/photo"
	"github.com/zuriciver-web/v0-technical-visit-form/internal/visit"
)

func filledCollector() *Collector {
	c := New()
	c.ProjectCode = "PRY-9"
	c.ClientName = "Cliente"
	c.ContactName = "Contacto"
	c.Latitude = "-33.4"
	c.Longitude = "-70.6"
	c.SetEntryPhoto(photo.Bytes("entry.jpg", []byte("entry")))
	c.SetSitePhoto(photo.Bytes("site.jpg", []byte("site")))
	return c
}

type fakeSubmitter struct {
	calls int
	rec   *visit.Record
	err   error
}

func (f *fakeSubmitter) GeneratePDF(_ context.Context, rec *visit.Record) (*client.Download, error) {
	f.calls++
	f.rec = rec
	if f.err != nil {
		return nil, f.err
	}
	return &client.Download{Filename: visit.ReportFilename(rec.ProjectCode), PDF: []byte("%PDF")}, nil
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Collector)
		want   error
	}{
		{"valid", func(c *Collector) {}, nil},
		{"blank project", func(c *Collector) { c.ProjectCode = "  " }, ErrRequiredFields},
		{"missing client", func(c *Collector) { c.ClientName = "" }, ErrRequiredFields},
		{"missing contact", func(c *Collector) { c.ContactName = "" }, ErrRequiredFields},
		{"text before coordinates", func(c *Collector) { c.ContactName = ""; c.Latitude = "x" }, ErrRequiredFields},
		{"bad latitude", func(c *Collector) { c.Latitude = "abc" }, ErrInvalidCoordinates},
		{"empty longitude", func(c *Collector) { c.Longitude = "" }, ErrInvalidCoordinates},
		{"latitude out of range", func(c *Collector) { c.Latitude = "91" }, ErrInvalidCoordinates},
		{"longitude out of range", func(c *Collector) { c.Longitude = "-180.5" }, ErrInvalidCoordinates},
		{"zero coordinates", func(c *Collector) { c.Latitude = "0"; c.Longitude = "0" }, nil},
		{"missing entry photo", func(c *Collector) { c.SetEntryPhoto(nil) }, ErrRequiredPhotos},
		{"missing site photo", func(c *Collector) { c.SetSitePhoto(nil) }, ErrRequiredPhotos},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := filledCollector()
			tt.modify(c)
			err := c.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			var n *Notice
			if errors.As(err, &n) && !n.Destructive {
				t.Error("validation notice should be destructive")
			}
		})
	}
}

func TestRoutePhotoLimit(t *testing.T) {
	c := New()
	for i := 0; i < visit.MaxRoutePhotos; i++ {
		if err := c.AddRoutePhoto(photo.Bytes("r.jpg", []byte{byte(i)})); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	err := c.AddRoutePhoto(photo.Bytes("extra.jpg", []byte("x")))
	if !errors.Is(err, ErrRouteLimit) {
		t.Errorf("error = %v, want route limit notice", err)
	}
	if n := len(c.RoutePhotos()); n != visit.MaxRoutePhotos {
		t.Errorf("route photos = %d, want %d", n, visit.MaxRoutePhotos)
	}

	if err := c.RemoveRoutePhoto(0); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := c.AddRoutePhoto(photo.Bytes("again.jpg", []byte("y"))); err != nil {
		t.Errorf("add after remove: %v", err)
	}
	if err := c.RemoveRoutePhoto(5); err == nil {
		t.Error("expected error removing out of range")
	}
}

func TestRemoveRoutePhotoKeepsOrder(t *testing.T) {
	c := New()
	for _, name := range []string{"a", "b", "c"} {
		if err := c.AddRoutePhoto(photo.Bytes(name, []byte(name))); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.RemoveRoutePhoto(1); err != nil {
		t.Fatal(err)
	}
	got := c.RoutePhotos()
	if len(got) != 2 || got[0].Name() != "a" || got[1].Name() != "c" {
		t.Errorf("route photos after remove = %v", got)
	}
}

func TestTogglePermit(t *testing.T) {
	c := New()
	c.TogglePermit(visit.Municipal)
	c.TogglePermit(visit.MOP)
	c.TogglePermit(visit.Municipal)
	got := c.PermitTypes()
	if len(got) != 1 || got[0] != visit.MOP {
		t.Errorf("permit types = %v, want [mop]", got)
	}
}

func TestMapURL(t *testing.T) {
	c := New()
	if got := c.MapURL(); got != "" {
		t.Errorf("empty coordinates map url = %q", got)
	}
	c.Latitude = "-33.45"
	if got := c.MapURL(); got != "" {
		t.Errorf("half coordinates map url = %q", got)
	}
	c.Longitude = "-70.66"
	if got := c.MapURL(); got != "https://maps.google.com/?q=-33.45,-70.66" {
		t.Errorf("map url = %q", got)
	}
}

func TestSubmit(t *testing.T) {
	c := filledCollector()
	c.ConstructionDays = "12"
	c.PermitsRequired = true
	c.TogglePermit(visit.Serviu)
	for _, name := range []string{"r1", "r2"} {
		if err := c.AddRoutePhoto(photo.Bytes(name, []byte(name))); err != nil {
			t.Fatal(err)
		}
	}

	sub := &fakeSubmitter{}
	dl, err := c.Submit(context.Background(), sub)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if dl.Filename != "visita-tecnica-PRY-9.pdf" {
		t.Errorf("filename = %q", dl.Filename)
	}

	rec := sub.rec
	if rec.ConstructionDays != "12" {
		t.Errorf("construction days = %q", rec.ConstructionDays)
	}
	if len(rec.PermitTypes) != 1 || rec.PermitTypes[0] != visit.Serviu {
		t.Errorf("permit types = %v", rec.PermitTypes)
	}
	if rec.EntryPhoto != visit.Photo(photo.DataURI([]byte("entry"))) {
		t.Errorf("entry photo = %q", rec.EntryPhoto)
	}
	if len(rec.RoutePhotos) != 2 || rec.RoutePhotos[1] != visit.Photo(photo.DataURI([]byte("r2"))) {
		t.Errorf("route photos out of order: %v", rec.RoutePhotos)
	}
	if err := rec.Validate(); err != nil {
		t.Errorf("submitted record fails server validation: %v", err)
	}
}

func TestSubmitDropsPermitTypesWhenNotRequired(t *testing.T) {
	c := filledCollector()
	c.TogglePermit(visit.Municipal)

	sub := &fakeSubmitter{}
	if _, err := c.Submit(context.Background(), sub); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(sub.rec.PermitTypes) != 0 {
		t.Errorf("permit types = %v, want none", sub.rec.PermitTypes)
	}
}

func TestSubmitInvalidSendsNothing(t *testing.T) {
	c := filledCollector()
	c.SetSitePhoto(nil)

	sub := &fakeSubmitter{}
	_, err := c.Submit(context.Background(), sub)
	if !errors.Is(err, ErrRequiredPhotos) {
		t.Errorf("error = %v, want required photos notice", err)
	}
	if sub.calls != 0 {
		t.Errorf("submitter called %d times, want 0", sub.calls)
	}
}

func TestSubmitFailure(t *testing.T) {
	cause := errors.New("boom")
	sub := &fakeSubmitter{err: cause}
	_, err := filledCollector().Submit(context.Background(), sub)
	if !errors.Is(err, ErrRenderFailed) {
		t.Errorf("error = %v, want render failed notice", err)
	}
	if !errors.Is(err, cause) {
		t.Error("render failure should wrap the cause")
	}
}

type fakeLocator struct {
	pos  Position
	err  error
	opts PositionOptions
}

func (f *fakeLocator) CurrentPosition(_ context.Context, opts PositionOptions) (Position, error) {
	f.opts = opts
	return f.pos, f.err
}

func TestLocate(t *testing.T) {
	c := New()
	loc := &fakeLocator{pos: Position{Latitude: -33.4378912, Longitude: -70.65}}

	n := c.Locate(context.Background(), loc)
	if n != Located {
		t.Errorf("notice = %+v, want located", n)
	}
	if c.Latitude != "-33.437891" || c.Longitude != "-70.650000" {
		t.Errorf("coordinates = %q, %q", c.Latitude, c.Longitude)
	}
	if !loc.opts.HighAccuracy || loc.opts.Timeout != 10*time.Second || loc.opts.MaxAge != 0 {
		t.Errorf("position options = %+v", loc.opts)
	}
}

func TestLocateErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"denied", ErrPermissionDenied, "Permiso de ubicación denegado"},
		{"unavailable", ErrPositionUnavailable, "Ubicación no disponible"},
		{"timeout", ErrTimeout, "Tiempo de espera agotado"},
		{"deadline", context.DeadlineExceeded, "Tiempo de espera agotado"},
		{"other", errors.New("weird"), "No se pudo obtener la ubicación"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			c.Latitude = "1"
			n := c.Locate(context.Background(), &fakeLocator{err: tt.err})
			if n.Title != "Error de geolocalización" || n.Description != tt.want || !n.Destructive {
				t.Errorf("notice = %+v", n)
			}
			if c.Latitude != "1" {
				t.Error("coordinates changed on failure")
			}
		})
	}
}

func TestLocateWithoutLocator(t *testing.T) {
	if n := New().Locate(context.Background(), nil); n != ErrNoGeolocation {
		t.Errorf("notice = %+v", n)
	}
}

func TestHTTPLocator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"status":"success","lat":-33.45,"lon":-70.6667}`)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}))
	defer srv.Close()

	pos, err := NewHTTPLocator(srv.URL).CurrentPosition(context.Background(), DefaultPositionOptions)
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if pos.Latitude != -33.45 || pos.Longitude != -70.6667 {
		t.Errorf("position = %+v", pos)
	}
}

func TestHTTPLocatorErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"forbidden", http.StatusForbidden, "", ErrPermissionDenied},
		{"unauthorized", http.StatusUnauthorized, "", ErrPermissionDenied},
		{"server error", http.StatusBadGateway, "", ErrPositionUnavailable},
		{"fail status", http.StatusOK, `{"status":"fail","message":"private range"}`, ErrPositionUnavailable},
		{"bad body", http.StatusOK, `not json`, ErrPositionUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				if _, err := w.Write([]byte(tt.body)); err != nil {
					t.Fatalf("write: %v", err)
				}
			}))
			defer srv.Close()

			_, err := NewHTTPLocator(srv.URL).CurrentPosition(context.Background(), PositionOptions{})
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestHTTPLocatorTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	_, err := NewHTTPLocator(srv.URL).CurrentPosition(context.Background(), PositionOptions{Timeout: 20 * time.Millisecond})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("error = %v, want timeout", err)
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("error message = %q", err)
	}
}
