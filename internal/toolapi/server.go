package toolapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/parcelworks/appealdesk/internal/appeal"
	"github.com/parcelworks/appealdesk/internal/telemetry"
)

// PDFRenderer prints packet markdown to PDF bytes.
type PDFRenderer interface {
	Render(ctx context.Context, markdown string) ([]byte, error)
}

type Server struct {
	registry *Registry
	svc      *appeal.Service
	pdf      PDFRenderer
	router   chi.Router
}

// NewServer builds the HTTP surface over the operation registry. pdf may be
// nil, in which case the PDF endpoint reports the export as unavailable.
func NewServer(svc *appeal.Service, registry *Registry, pdf PDFRenderer) *Server {
	s := &Server{
		registry: registry,
		svc:      svc,
		pdf:      pdf,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			slog.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/v1/health", s.handleHealth)
	s.router.Get("/v1/tools", s.handleListTools)
	s.router.Post("/v1/tools/{name}", s.handleInvoke)
	s.router.Get("/v1/case", s.handleCase)
	s.router.Post("/v1/case/reset", s.handleReset)
	s.router.Get("/v1/packet.pdf", s.handlePacketPDF)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]any{"ok": true})
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	type toolSpec struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		InputSchema map[string]any `json:"input_schema"`
	}
	specs := make([]toolSpec, 0, len(s.registry.Tools()))
	for _, t := range s.registry.Tools() {
		specs = append(specs, toolSpec{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema})
	}
	writeJSON(w, 200, map[string]any{"tools": specs})
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, &appeal.Error{Code: appeal.CodeValidation, Message: "read body: " + err.Error(), Status: 400})
		return
	}

	ctx, span := telemetry.Tracer().Start(r.Context(), "tool.invoke")
	span.SetAttributes(attribute.String("tool.name", name))
	defer span.End()

	result, err := s.registry.Invoke(ctx, name, body)
	if err != nil {
		span.RecordError(err)
		writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true, "result": result})
}

func (s *Server) handleCase(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]any{"ok": true, "result": s.svc.View()})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]any{"ok": true, "result": s.svc.Reset()})
}

func (s *Server) handlePacketPDF(w http.ResponseWriter, r *http.Request) {
	if s.pdf == nil {
		writeError(w, &appeal.Error{Code: appeal.CodeValidation, Message: "pdf export is not configured", Status: 400})
		return
	}
	doc, err := s.svc.BuildPacket()
	if err != nil {
		writeError(w, err)
		return
	}
	blob, err := s.pdf.Render(r.Context(), doc)
	if err != nil {
		writeError(w, &appeal.Error{Code: appeal.CodeInternal, Message: "render pdf: " + err.Error(), Status: 500})
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="appeal-packet.pdf"`)
	w.WriteHeader(200)
	_, _ = w.Write(blob)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	var ae *appeal.Error
	if errors.As(err, &ae) {
		writeJSON(w, ae.Status, map[string]any{
			"ok": false,
			"error": map[string]any{
				"code":      ae.Code,
				"message":   ae.Message,
				"transient": ae.Transient,
			},
		})
		return
	}
	writeJSON(w, 500, map[string]any{
		"ok": false,
		"error": map[string]any{
			"code":      appeal.CodeInternal,
			"message":   err.Error(),
			"transient": false,
		},
	})
}
