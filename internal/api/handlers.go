package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/open-tracker/internal/tracker"
)

// 1x1 transparent GIF
var pixelGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00,
	0x80, 0x00, 0x00, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x2c,
	0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x02,
	0x02, 0x44, 0x01, 0x00, 0x3b,
}

// Minimal valid stylesheet. Some email clients block images but still fetch
// linked stylesheets, so this is a second open-detection channel.
const trackingCSS = "/* */\nbody { -email-tracked: open; }\n"

const confirmHTML = `<!DOCTYPE html><html><body style="font-family:Arial,sans-serif;text-align:center;padding:50px;">
	<h1>Thank you</h1>
	<p>Your confirmation has been recorded.</p>
</body></html>`

// Handlers carries the HTTP handler set for the tracking API
type Handlers struct {
	svc        *tracker.Service
	logTimeout time.Duration
}

// NewHandlers creates the handler set. logTimeout bounds the open-event write
// so a slow store cannot delay the fixed tracking responses.
func NewHandlers(svc *tracker.Service, logTimeout time.Duration) *Handlers {
	if logTimeout <= 0 {
		logTimeout = 2 * time.Second
	}
	return &Handlers{svc: svc, logTimeout: logTimeout}
}

// Home is the liveness endpoint
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Email Tracking Server is running."))
}

// HealthCheck reports service health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// RegisterRequest is the typed payload for POST /register
type RegisterRequest struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
}

// Register creates a tracking identifier for an outgoing email
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	res, err := h.svc.Register(r.Context(), req.Recipient, req.Subject, requestBaseURL(r))
	if err != nil {
		var vErr *tracker.ValidationError
		if errors.As(err, &vErr) {
			respondJSON(w, http.StatusBadRequest, map[string]string{"error": vErr.Error()})
			return
		}
		log.Printf("ERROR registering email for %s: %v", req.Recipient, err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not register email"})
		return
	}

	log.Printf("REGISTERED email for %s with ID %s", req.Recipient, res.TrackingID)
	respondJSON(w, http.StatusCreated, res)
}

// TrackPixel serves the 1x1 GIF and logs an open event as a side effect.
// The pixel is always served with status 200, whatever happens to the log.
func (h *Handlers) TrackPixel(w http.ResponseWriter, r *http.Request) {
	trackingID := chi.URLParam(r, "trackingID")
	h.logOpen(r, trackingID, "PIXEL_ACCESS")

	setNoCache(w)
	w.Header().Set("Content-Type", "image/gif")
	w.Write(pixelGIF)
}

// TrackStylesheet serves the fixed stylesheet and logs an open event
func (h *Handlers) TrackStylesheet(w http.ResponseWriter, r *http.Request) {
	trackingID := chi.URLParam(r, "trackingID")
	h.logOpen(r, trackingID, "CSS_ACCESS")

	setNoCache(w)
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Write([]byte(trackingCSS))
}

// ConfirmOpen serves the click-through acknowledgement page and logs the event
func (h *Handlers) ConfirmOpen(w http.ResponseWriter, r *http.Request) {
	trackingID := chi.URLParam(r, "trackingID")
	h.logOpen(r, trackingID, "CONFIRM_CLICK")

	setNoCache(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(confirmHTML))
}

// logOpen records the open event and deliberately discards the outcome after
// logging it. Tracking failures must never be visible to the remote reader.
func (h *Handlers) logOpen(r *http.Request, trackingID, kind string) {
	ctx, cancel := context.WithTimeout(r.Context(), h.logTimeout)
	defer cancel()

	ip := realIP(r)
	if err := h.svc.LogOpen(ctx, trackingID, ip, r.UserAgent()); err != nil {
		log.Printf("ERROR logging open for %s: %v", trackingID, err)
		return
	}
	log.Printf("%s: tracking ID %s from IP %s", kind, trackingID, ip)
}

// Dashboard renders all registrations joined with their open events
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	reports, err := h.svc.Report(r.Context())
	if err != nil {
		log.Printf("ERROR loading dashboard: %v", err)
		http.Error(w, "could not load dashboard", http.StatusInternalServerError)
		return
	}
	renderDashboard(w, reports)
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("ERROR encoding response: %v", err)
	}
}

func setNoCache(w http.ResponseWriter) {
	// Email and browser clients aggressively cache images and stylesheets;
	// caching would suppress re-tracking on subsequent opens.
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
}

// requestBaseURL reconstructs the inbound request's own base URL, used when
// no external tracking base URL is configured.
func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

func realIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
