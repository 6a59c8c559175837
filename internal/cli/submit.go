package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zuriciver-web/v0-technical-visit-form/internal/client"
	"github.com/zuriciver-web/v0-technical-visit-form/internal/form"
	"github.com/zuriciver-web/v0-technical-visit-form/internal/photo"
	"github.com/zuriciver-web/v0-technical-visit-form/internal/visit"
)

type submitOptions struct {
	projectCode string
	clientName  string
	contactName string
	phone       string
	latitude    string
	longitude   string
	days        string
	permits     bool
	permitTypes []string
	entry       string
	route       []string
	site        string
	locate      bool
	outDir      string
}

func newSubmitCmd() *cobra.Command {
	var opts submitOptions

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a visit to the server and download the report",
		Long: `Fill in a technical visit from flags, validate it the way the form does,
upload it to the report server and save the returned PDF.

Entry and site photos are required; up to 3 route photos may be given.`,
		Example: `  vr submit --project PRY-2025-001 --client "Constructora Andes" \
    --contact "Juan Soto" --lat -33.437916 --lng -70.650641 \
    --permit municipal --permit mop \
    --entry ingreso.jpg --route r1.jpg --route r2.jpg --site sala.jpg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(cmd, opts, newAPIClient(), form.NewHTTPLocator(getLocateURL()))
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.projectCode, "project", "", "project code (required)")
	f.StringVar(&opts.clientName, "client", "", "client name (required)")
	f.StringVar(&opts.contactName, "contact", "", "contact name (required)")
	f.StringVar(&opts.phone, "phone", "", "contact phone")
	f.StringVar(&opts.latitude, "lat", "", "latitude in decimal degrees")
	f.StringVar(&opts.longitude, "lng", "", "longitude in decimal degrees")
	f.StringVar(&opts.days, "days", "", "approximate construction days")
	f.BoolVar(&opts.permits, "permits", false, "permits are required (implied by --permit)")
	f.StringArrayVar(&opts.permitTypes, "permit", nil, "required permit type: municipal, serviu, mop, building (repeatable)")
	f.StringVar(&opts.entry, "entry", "", "entry photo file (required)")
	f.StringArrayVar(&opts.route, "route", nil, "route photo file (repeatable, up to 3)")
	f.StringVar(&opts.site, "site", "", "site photo file (required)")
	f.BoolVar(&opts.locate, "locate", false, "fill coordinates from the current network location")
	f.StringVarP(&opts.outDir, "output-dir", "o", ".", "directory to save the report in")

	return cmd
}

func runSubmit(cmd *cobra.Command, opts submitOptions, sub form.Submitter, loc form.Locator) error {
	out := cmd.OutOrStdout()

	c := form.New()
	c.ProjectCode = opts.projectCode
	c.ClientName = opts.clientName
	c.ContactName = opts.contactName
	c.ContactPhone = opts.phone
	c.Latitude = opts.latitude
	c.Longitude = opts.longitude
	c.ConstructionDays = opts.days
	c.PermitsRequired = opts.permits || len(opts.permitTypes) > 0

	for _, s := range opts.permitTypes {
		t, err := visit.ParsePermitType(s)
		if err != nil {
			return err
		}
		c.TogglePermit(t)
	}

	if opts.entry != "" {
		c.SetEntryPhoto(photo.File(opts.entry))
	}
	for _, path := range opts.route {
		if err := c.AddRoutePhoto(photo.File(path)); err != nil {
			return noticeError(out, err)
		}
	}
	if opts.site != "" {
		c.SetSitePhoto(photo.File(opts.site))
	}

	// A failed lookup leaves the --lat/--lng values in place; Validate
	// decides whether they are usable.
	if opts.locate {
		n := c.Locate(cmd.Context(), loc)
		if !isJSON() {
			printNotice(out, n)
		}
	}

	dl, err := c.Submit(cmd.Context(), sub)
	if err != nil {
		return noticeError(out, err)
	}

	path, err := saveDownload(opts.outDir, dl)
	if err != nil {
		return err
	}

	if !isJSON() {
		printNotice(out, form.Generated)
	}
	return printReport(out, reportResult{
		File:     path,
		ReportID: dl.ReportID,
		Bytes:    len(dl.PDF),
	})
}

// noticeError prints a form notice in text mode and returns err for the
// exit status.
func noticeError(w io.Writer, err error) error {
	var n *form.Notice
	if errors.As(err, &n) && !isJSON() {
		printNotice(w, n)
	}
	return err
}

// saveDownload writes the report under dir. Only the base name of the
// server-supplied filename is used.
func saveDownload(dir string, dl *client.Download) (string, error) {
	name := filepath.Base(dl.Filename)
	if name == "." || name == string(filepath.Separator) || name == ".." {
		name = "visita-tecnica.pdf"
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, dl.PDF, 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}
