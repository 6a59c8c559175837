package web

import (
	"fmt"
	"net/http"

	"github.com/zuriciver-web/v0-technical-visit-form/internal/visit"
)

type formData struct {
	PermitTypes    []visit.PermitType
	MaxRoutePhotos int
	GeneratePath   string
}

// handleForm renders the visit form page.
func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, "form.html", formData{
		PermitTypes:    visit.ValidPermitTypes,
		MaxRoutePhotos: visit.MaxRoutePhotos,
		GeneratePath:   generatePath,
	})
}

func (s *Server) render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		http.Error(w, fmt.Sprintf("Error rendering template: %v", err), http.StatusInternalServerError)
	}
}
