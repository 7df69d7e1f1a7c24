package sink

import (
	"encoding/json"
	"net/http"
	"qrscan/pkg/log"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// DefaultPath is the form POST path the station submits to.
const DefaultPath = "/V1/qr_update.php"

const maxFormBytes = 1 << 20

// Handler serves the sink endpoints.
type Handler struct {
	store      *Store
	failStatus int
	now        func() time.Time
}

// NewHandler creates a handler recording into store. A non-zero failStatus
// makes every POST answer with that status without recording anything.
func NewHandler(store *Store, failStatus int) *Handler {
	return &Handler{store: store, failStatus: failStatus, now: time.Now}
}

// NewRouter mounts the handler. path is where form POSTs are accepted.
func NewRouter(h *Handler, path string) http.Handler {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Healthz)
	r.Get("/submissions", h.Submissions)
	r.Post(path, h.Receive)
	return r
}

// Receive records one form POST with the data and warehouseCode fields.
func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	if h.failStatus != 0 {
		log.Info("Rejecting submission with forced status %d", h.failStatus)
		http.Error(w, http.StatusText(h.failStatus), h.failStatus)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid form payload"})
		return
	}
	data, ok := r.PostForm["data"]
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "data form field is required"})
		return
	}

	sub := Submission{
		ID:            uuid.NewString(),
		Data:          data[0],
		WarehouseCode: r.PostForm.Get("warehouseCode"),
		Products:      splitProducts(data[0]),
		RemoteAddr:    r.RemoteAddr,
		ReceivedAt:    h.now().UTC(),
	}
	h.store.Add(sub)
	log.Info("Received submission %s: %d product(s), warehouse %q", sub.ID, len(sub.Products), sub.WarehouseCode)

	writeJSON(w, http.StatusOK, map[string]any{"id": sub.ID, "products": len(sub.Products)})
}

// Submissions lists the stored submissions, oldest first.
func (h *Handler) Submissions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.List())
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func splitProducts(data string) []string {
	if data == "" {
		return []string{}
	}
	return strings.Split(data, ",")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
