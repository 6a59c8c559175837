package cli

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zuriciver-web/v0-technical-visit-form/internal/client"
	"github.com/zuriciver-web/v0-technical-visit-form/internal/config"
	"github.com/zuriciver-web/v0-technical-visit-form/internal/form"
	"github.com/zuriciver-web/v0-technical-visit-form/internal/photo"
	"github.com/zuriciver-web/v0-technical-visit-form/internal/report"
	"github.com/zuriciver-web/v0-technical-visit-form/internal/web"
)

// writePhoto writes a small PNG and returns its path.
func writePhoto(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 10, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 10; x++ {
			img.Set(x, y, color.RGBA{R: 20, G: uint8(x * 25), B: 180, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// reportServer runs the real web server and counts render requests.
func reportServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	cfg := &config.Config{
		Addr:            ":0",
		MaxBodyBytes:    16 << 20,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		ShutdownTimeout: time.Second,
		ImageMaxDim:     2000,
		ImageQuality:    85,
		ImageMaxPixels:  50_000_000,
	}
	srv, err := web.NewServer(cfg, nil, report.NewRenderer(report.Options{}, nil))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == client.GeneratePath {
			calls.Add(1)
		}
		srv.ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)
	return ts, &calls
}

func TestSubmit(t *testing.T) {
	ts, calls := reportServer(t)
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("VR_SERVER_URL", ts.URL)

	out, err := executeCommand("submit",
		"--project", "PRY-2025-001",
		"--client", "Constructora Andes",
		"--contact", "Juan Soto",
		"--lat", "-33.437916",
		"--lng", "-70.650641",
		"--days", "15",
		"--permit", "municipal",
		"--permit", "edificio",
		"--entry", writePhoto(t, dir, "ingreso.png"),
		"--route", writePhoto(t, dir, "r1.png"),
		"--route", writePhoto(t, dir, "r2.png"),
		"--site", writePhoto(t, dir, "sala.png"),
		"-o", dir,
	)
	if err != nil {
		t.Fatalf("submit: %v\n%s", err, out)
	}
	if calls.Load() != 1 {
		t.Errorf("render calls = %d, want 1", calls.Load())
	}
	if !strings.Contains(out, "PDF generado") {
		t.Errorf("output = %q", out)
	}

	data, err := os.ReadFile(filepath.Join(dir, "visita-tecnica-PRY-2025-001.pdf"))
	if err != nil {
		t.Fatalf("report not saved: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Error("saved file is not a PDF")
	}
}

func TestSubmitMissingPhotosSendsNothing(t *testing.T) {
	ts, calls := reportServer(t)
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("VR_SERVER_URL", ts.URL)

	out, err := executeCommand("submit",
		"--project", "P", "--client", "C", "--contact", "N",
		"--lat", "1", "--lng", "2",
		"--entry", writePhoto(t, dir, "ingreso.png"),
		"-o", dir,
	)
	if !errors.Is(err, form.ErrRequiredPhotos) {
		t.Errorf("error = %v, want required photos", err)
	}
	if !strings.Contains(out, "Fotos requeridas") {
		t.Errorf("output = %q", out)
	}
	if calls.Load() != 0 {
		t.Errorf("render calls = %d, want 0", calls.Load())
	}
}

func TestSubmitInvalidCoordinates(t *testing.T) {
	ts, calls := reportServer(t)
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("VR_SERVER_URL", ts.URL)

	_, err := executeCommand("submit",
		"--project", "P", "--client", "C", "--contact", "N",
		"--lat", "abc", "--lng", "2",
		"--entry", writePhoto(t, dir, "e.png"),
		"--site", writePhoto(t, dir, "s.png"),
	)
	if !errors.Is(err, form.ErrInvalidCoordinates) {
		t.Errorf("error = %v, want invalid coordinates", err)
	}
	if calls.Load() != 0 {
		t.Errorf("render calls = %d, want 0", calls.Load())
	}
}

func TestSubmitTooManyRoutePhotos(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	p := writePhoto(t, dir, "r.png")

	_, err := executeCommand("submit",
		"--route", p, "--route", p, "--route", p, "--route", p,
	)
	if !errors.Is(err, form.ErrRouteLimit) {
		t.Errorf("error = %v, want route limit", err)
	}
}

func TestSubmitUnknownPermit(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if _, err := executeCommand("submit", "--permit", "fire"); err == nil {
		t.Error("expected error for unknown permit type")
	}
}

func TestSubmitLocate(t *testing.T) {
	ts, _ := reportServer(t)
	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"status":"success","lat":-33.45,"lon":-70.6667}`)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}))
	defer geo.Close()

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("VR_SERVER_URL", ts.URL)
	t.Setenv("VR_LOCATE_URL", geo.URL)

	out, err := executeCommand("submit",
		"--project", "LOC-1", "--client", "C", "--contact", "N",
		"--locate",
		"--entry", writePhoto(t, dir, "e.png"),
		"--site", writePhoto(t, dir, "s.png"),
		"-o", dir,
	)
	if err != nil {
		t.Fatalf("submit: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Ubicación obtenida") {
		t.Errorf("output = %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "visita-tecnica-LOC-1.pdf")); err != nil {
		t.Errorf("report not saved: %v", err)
	}
}

func TestSubmitLocateFailureKeepsManualCoordinates(t *testing.T) {
	ts, calls := reportServer(t)
	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer geo.Close()

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("VR_SERVER_URL", ts.URL)
	t.Setenv("VR_LOCATE_URL", geo.URL)

	out, err := executeCommand("submit",
		"--project", "MAN-1", "--client", "C", "--contact", "N",
		"--lat", "-33.437916", "--lng", "-70.650641",
		"--locate",
		"--entry", writePhoto(t, dir, "e.png"),
		"--site", writePhoto(t, dir, "s.png"),
		"-o", dir,
	)
	if err != nil {
		t.Fatalf("submit: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Permiso de ubicación denegado") {
		t.Errorf("output = %q, want the geolocation notice", out)
	}
	if calls.Load() != 1 {
		t.Errorf("render calls = %d, want 1", calls.Load())
	}
	if _, err := os.Stat(filepath.Join(dir, "visita-tecnica-MAN-1.pdf")); err != nil {
		t.Errorf("report not saved: %v", err)
	}
}

func TestSubmitLocateFailureWithoutCoordinates(t *testing.T) {
	ts, calls := reportServer(t)
	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer geo.Close()

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("VR_SERVER_URL", ts.URL)
	t.Setenv("VR_LOCATE_URL", geo.URL)

	_, err := executeCommand("submit",
		"--project", "P", "--client", "C", "--contact", "N",
		"--locate",
		"--entry", writePhoto(t, dir, "e.png"),
		"--site", writePhoto(t, dir, "s.png"),
	)
	if !errors.Is(err, form.ErrInvalidCoordinates) {
		t.Errorf("error = %v, want invalid coordinates", err)
	}
	if calls.Load() != 0 {
		t.Errorf("render calls = %d, want 0", calls.Load())
	}
}

func TestSubmitServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		if _, err := w.Write([]byte(`{"error":"Error al generar PDF"}`)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("VR_SERVER_URL", srv.URL)

	_, err := executeCommand("submit",
		"--project", "P", "--client", "C", "--contact", "N",
		"--lat", "1", "--lng", "2",
		"--entry", writePhoto(t, dir, "e.png"),
		"--site", writePhoto(t, dir, "s.png"),
		"-o", dir,
	)
	if !errors.Is(err, form.ErrRenderFailed) {
		t.Errorf("error = %v, want render failed", err)
	}
	var serr *client.StatusError
	if !errors.As(err, &serr) || serr.Code != http.StatusInternalServerError {
		t.Errorf("error = %v, want wrapped status error", err)
	}
}

func TestSaveDownloadUsesBaseName(t *testing.T) {
	dir := t.TempDir()
	path, err := saveDownload(dir, &client.Download{Filename: "../../etc/visita.pdf", PDF: []byte("%PDF")})
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(dir, "visita.pdf") {
		t.Errorf("path = %q", path)
	}
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	data, err := os.ReadFile(writePhoto(t, dir, "e.png"))
	if err != nil {
		t.Fatal(err)
	}
	record := `{"projectCode":"OFF-1","clientName":"C","contactName":"N","latitude":1,"longitude":2,` +
		`"entryPhoto":"` + photo.DataURI(data) + `","routePhotos":["data:image/png;base64,!!"]}`
	in := filepath.Join(dir, "record.json")
	if err := os.WriteFile(in, []byte(record), 0o600); err != nil {
		t.Fatal(err)
	}
	outPath := filepath.Join(dir, "out.pdf")

	out, err := executeCommand("render", in, "-o", outPath, "--format", "json")
	if err != nil {
		t.Fatalf("render: %v\n%s", err, out)
	}
	var res reportResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if res.File != outPath || res.Pages != 3 {
		t.Errorf("result = %+v", res)
	}
	if len(res.Failed) != 1 || res.Failed[0] != "RECORRIDO DE FIBRA 1" {
		t.Errorf("failed = %v", res.Failed)
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Errorf("output missing: %v", err)
	}
}

func TestRenderInvalidRecord(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "record.json")
	if err := os.WriteFile(in, []byte(`{"projectCode":"X"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := executeCommand("render", in, "-o", filepath.Join(dir, "x.pdf")); err == nil {
		t.Error("expected validation error")
	}
}
