package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/ignite/polite-popup/internal/config"
	"github.com/ignite/polite-popup/internal/popup"
)

// Handlers carries the dependencies for all HTTP handlers.
type Handlers struct {
	cfg      *config.Config
	store    popup.ExposureStore
	sessions *SessionManager
	preview  *newsletterPreview
}

func NewHandlers(cfg *config.Config, store popup.ExposureStore) *Handlers {
	gateCfg := popup.Config{
		Timeout:         cfg.Popup.Timeout(),
		ScrollThreshold: cfg.Popup.ContentScrollThresholdInPercentage,
	}
	return &Handlers{
		cfg:      cfg,
		store:    store,
		sessions: NewSessionManager(gateCfg, store, cfg.Popup.SessionTTL()),
		preview:  newNewsletterPreview(cfg.Newsletter),
	}
}

type triggerPayload struct {
	VID      string `json:"vid"`
	PagePath string `json:"page_path"`
}

type triggerResponse struct {
	VID      string `json:"vid"`
	Targeted bool   `json:"targeted"`
	Visible  bool   `json:"visible"`
}

// HandleTrigger handles POST /api/v1/popup/trigger. The handler decides
// whether the page is targeted content; the gate itself performs no routing
// logic. A missing vid is minted here so the client can persist it.
func (h *Handlers) HandleTrigger(w http.ResponseWriter, r *http.Request) {
	if h.filterRequest(w, r) {
		return
	}

	var payload triggerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if payload.PagePath == "" {
		http.Error(w, "missing required fields", http.StatusBadRequest)
		return
	}

	vid := payload.VID
	if vid == "" {
		vid = uuid.NewString()
	}

	resp := triggerResponse{VID: vid, Targeted: h.pathTargeted(payload.PagePath)}
	if resp.Targeted {
		gate := h.sessions.Gate(vid, payload.PagePath)
		gate.Trigger()
		resp.Visible = gate.Visible()
		log.Printf("TRIGGER vid=%s path=%s", vid, payload.PagePath)
	}

	writeJSON(w, http.StatusOK, resp)
}

type scrollPayload struct {
	VID            string  `json:"vid"`
	PagePath       string  `json:"page_path"`
	ScrollOffset   float64 `json:"scroll_offset"`
	DocumentHeight float64 `json:"document_height"`
	ViewportHeight float64 `json:"viewport_height"`
}

// HandleScroll handles POST /api/v1/popup/scroll. Accepts both
// application/json and text/plain bodies (navigator.sendBeacon).
func (h *Handlers) HandleScroll(w http.ResponseWriter, r *http.Request) {
	if h.filterRequest(w, r) {
		return
	}

	var payload scrollPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if payload.VID == "" || payload.PagePath == "" {
		http.Error(w, "missing required fields", http.StatusBadRequest)
		return
	}

	gate := h.sessions.Gate(payload.VID, payload.PagePath)
	gate.UpdateScroll(payload.ScrollOffset, payload.DocumentHeight, payload.ViewportHeight)

	w.WriteHeader(http.StatusNoContent)
}

type stateResponse struct {
	Visible bool `json:"visible"`
	popup.ExposureRecord
}

// HandleState handles GET /api/v1/popup/state.
func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request) {
	vid := r.URL.Query().Get("vid")
	pagePath := r.URL.Query().Get("page_path")
	if vid == "" {
		http.Error(w, "missing vid", http.StatusBadRequest)
		return
	}

	resp := stateResponse{}
	if gate, ok := h.sessions.Lookup(vid, pagePath); ok {
		resp.Visible = gate.Visible()
	}
	// Read path is fail-soft: a storage error still yields the default record.
	rec, err := h.store.Read(r.Context(), vid)
	if err != nil {
		log.Printf("ERROR reading exposure record vid=%s: %v", vid, err)
	}
	resp.ExposureRecord = rec

	writeJSON(w, http.StatusOK, resp)
}

// HandleBeacon handles GET /api/v1/popup/beacon, the img-pixel fallback for
// the scroll signal. It always serves the pixel, even on bad input.
func (h *Handlers) HandleBeacon(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	vid := q.Get("vid")
	pagePath := q.Get("page_path")

	if vid != "" && pagePath != "" && !isBot(r.UserAgent()) {
		offset, err1 := strconv.ParseFloat(q.Get("scroll_offset"), 64)
		docH, err2 := strconv.ParseFloat(q.Get("document_height"), 64)
		viewH, err3 := strconv.ParseFloat(q.Get("viewport_height"), 64)
		if err1 == nil && err2 == nil && err3 == nil {
			gate := h.sessions.Gate(vid, pagePath)
			gate.UpdateScroll(offset, docH, viewH)
		}
	}

	servePixel(w)
}

type subscribedPayload struct {
	VID string `json:"vid"`
}

// HandleSubscribed handles POST /api/v1/popup/subscribed. It records the
// status transition only; the subscription itself is handled elsewhere.
func (h *Handlers) HandleSubscribed(w http.ResponseWriter, r *http.Request) {
	var payload subscribedPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if payload.VID == "" {
		http.Error(w, "missing vid", http.StatusBadRequest)
		return
	}

	rec, err := h.store.Read(r.Context(), payload.VID)
	if err != nil {
		log.Printf("ERROR reading exposure record vid=%s: %v", payload.VID, err)
		rec = popup.DefaultExposureRecord()
	}
	rec.Status = popup.StatusSubscribed
	if err := h.store.Write(r.Context(), payload.VID, rec); err != nil {
		log.Printf("ERROR writing exposure record vid=%s: %v", payload.VID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	log.Printf("SUBSCRIBED vid=%s", payload.VID)
	w.WriteHeader(http.StatusNoContent)
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// filterRequest applies the shared request hardening: bot user-agents are
// dropped quietly, non-allowlisted referrers rejected. Reports whether the
// request was handled.
func (h *Handlers) filterRequest(w http.ResponseWriter, r *http.Request) bool {
	if isBot(r.UserAgent()) {
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	referer := r.Header.Get("Referer")
	if referer != "" && !h.allowedReferer(referer) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return true
	}
	return false
}

func (h *Handlers) allowedReferer(referer string) bool {
	domains := h.cfg.Popup.AllowedReferrerDomains
	if len(domains) == 0 {
		return true
	}
	lower := strings.ToLower(referer)
	for _, d := range domains {
		if strings.Contains(lower, strings.ToLower(d)) {
			return true
		}
	}
	return false
}

func (h *Handlers) pathTargeted(pagePath string) bool {
	prefixes := h.cfg.Popup.TargetPathPrefixes
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(pagePath, p) {
			return true
		}
	}
	return false
}

var botKeywords = []string{"bot", "crawler", "spider", "headless", "phantom", "wget", "curl", "python-requests"}

func isBot(ua string) bool {
	lower := strings.ToLower(ua)
	for _, kw := range botKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// 1x1 transparent GIF
var pixelGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00,
	0x80, 0x00, 0x00, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x2c,
	0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x02,
	0x02, 0x44, 0x01, 0x00, 0x3b,
}

func servePixel(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Write(pixelGIF)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR encoding response: %v", err)
	}
}
