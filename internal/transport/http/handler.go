package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"bloodbridge/internal/localstore/models"
	"bloodbridge/internal/offline"
	"bloodbridge/internal/resourcecache"
	"bloodbridge/internal/synccoord"
	"bloodbridge/pkg/platform/httputil"
	"bloodbridge/pkg/platform/sentinel"
)

// OfflineService is the offline facade the handler drives.
type OfflineService interface {
	SubmitOrQueue(ctx context.Context, kind models.MutationKind, payload json.RawMessage) (offline.SubmitResult, error)
	SyncNow(ctx context.Context) (synccoord.Result, error)
	PendingSync(ctx context.Context) ([]models.SyncQueueItem, error)
	OfflineStats(ctx context.Context) (offline.OfflineStats, error)
	CacheStats(ctx context.Context) (offline.CacheStats, error)
	HydrateReferenceData(ctx context.Context, force bool) (offline.HydrateResult, error)
	SearchCachedBloodBanks(ctx context.Context, query string) ([]resourcecache.BloodBank, bool)
	SearchCachedMedicalResources(ctx context.Context, query string) ([]resourcecache.MedicalResource, bool)
	SearchCachedEmergencyAlerts(ctx context.Context, query string) ([]resourcecache.EmergencyAlert, bool)
	HydrateUserData(ctx context.Context, userID string) (offline.UserDataResult, error)
	CachedProfile(ctx context.Context, userID string) (models.ProfileRecord, bool, error)
	CachedDonations(ctx context.Context, userID string) ([]models.DonationRecord, error)
	CachedEmergencies(ctx context.Context) ([]models.EmergencyRecord, error)
	Logout(ctx context.Context) error
}

// Connectivity exposes the monitor state and the manual override.
type Connectivity interface {
	Online() bool
	Since() time.Time
	SetOnline(online bool)
}

// Handler serves the offline layer's diagnostics and control endpoints.
type Handler struct {
	svc    OfflineService
	conn   Connectivity
	logger *slog.Logger
}

func NewHandler(svc OfflineService, conn Connectivity, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, conn: conn, logger: logger}
}

// Register registers the offline routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/offline/stats", h.handleOfflineStats)
	r.Delete("/offline", h.handleLogout)
	r.Post("/offline/users/{userID}/hydrate", h.handleHydrateUser)
	r.Get("/offline/profile/{userID}", h.handleProfile)
	r.Get("/offline/donations/{userID}", h.handleDonations)
	r.Get("/offline/emergencies", h.handleEmergencies)

	r.Get("/cache/stats", h.handleCacheStats)
	r.Post("/cache/hydrate", h.handleHydrate)
	r.Get("/cache/{collection}/search", h.handleSearch)

	r.Post("/queue", h.handleSubmit)
	r.Post("/sync", h.handleSync)
	r.Get("/sync/pending", h.handlePending)

	r.Get("/connectivity", h.handleConnectivity)
	r.Post("/connectivity", h.handleSetConnectivity)
}

func (h *Handler) handleOfflineStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.OfflineStats(r.Context())
	if err != nil {
		h.fail(w, r, "offline stats", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context()); err != nil {
		h.fail(w, r, "logout", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleHydrateUser(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.HydrateUserData(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, r, "hydrate user data", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	rec, found, err := h.svc.CachedProfile(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, r, "cached profile", err)
		return
	}
	if !found {
		httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorBody{Error: "not_found", Description: "no cached profile"})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleDonations(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.CachedDonations(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, r, "cached donations", err)
		return
	}
	if records == nil {
		records = []models.DonationRecord{}
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

func (h *Handler) handleEmergencies(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.CachedEmergencies(r.Context())
	if err != nil {
		h.fail(w, r, "cached emergencies", err)
		return
	}
	if records == nil {
		records = []models.EmergencyRecord{}
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

func (h *Handler) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.CacheStats(r.Context())
	if err != nil {
		h.fail(w, r, "cache stats", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleHydrate(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	res, err := h.svc.HydrateReferenceData(r.Context(), force)
	if err != nil {
		h.fail(w, r, "hydrate reference data", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// searchResponse separates an absent snapshot (found=false) from an empty match.
type searchResponse[T any] struct {
	Found bool `json:"found"`
	Items []T  `json:"items"`
}

func writeSearch[T any](w http.ResponseWriter, items []T, found bool) {
	if items == nil {
		items = []T{}
	}
	httputil.WriteJSON(w, http.StatusOK, searchResponse[T]{Found: found, Items: items})
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query().Get("q")
	switch resourcecache.Collection(chi.URLParam(r, "collection")) {
	case resourcecache.BloodBanks:
		items, found := h.svc.SearchCachedBloodBanks(ctx, q)
		writeSearch(w, items, found)
	case resourcecache.MedicalResources:
		items, found := h.svc.SearchCachedMedicalResources(ctx, q)
		writeSearch(w, items, found)
	case resourcecache.EmergencyAlerts:
		items, found := h.svc.SearchCachedEmergencyAlerts(ctx, q)
		writeSearch(w, items, found)
	default:
		httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorBody{Error: "not_found", Description: "unknown collection"})
	}
}

// submitRequest mirrors the queue item wire shape.
type submitRequest struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid submit request",
			"request_id", chimw.GetReqID(ctx),
			"error", err.Error(),
		)
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorBody{Error: "bad_request", Description: "invalid request body"})
		return
	}
	kind, err := models.ParseMutationKind(req.Type)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	res, err := h.svc.SubmitOrQueue(ctx, kind, req.Data)
	if err != nil {
		h.fail(w, r, "submit mutation", err)
		return
	}
	status := http.StatusOK
	if res.Queued {
		status = http.StatusAccepted
	}
	httputil.WriteJSON(w, status, res)
}

func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.SyncNow(r.Context())
	if err != nil {
		h.fail(w, r, "sync", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{
		"attempted": res.Attempted,
		"succeeded": res.Succeeded,
		"failed":    res.Failed,
	})
}

func (h *Handler) handlePending(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.PendingSync(r.Context())
	if err != nil {
		h.fail(w, r, "pending sync", err)
		return
	}
	if items == nil {
		items = []models.SyncQueueItem{}
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

type connectivityState struct {
	Online bool       `json:"online"`
	Since  *time.Time `json:"since,omitempty"`
}

func (h *Handler) state() connectivityState {
	st := connectivityState{Online: h.conn.Online()}
	if since := h.conn.Since(); !since.IsZero() {
		st.Since = &since
	}
	return st
}

func (h *Handler) handleConnectivity(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.state())
}

// handleSetConnectivity forces the connectivity state, e.g. from a client that
// observed its own network drop before the probe did.
func (h *Handler) handleSetConnectivity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Online *bool `json:"online"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Online == nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorBody{Error: "bad_request", Description: `body must be {"online": bool}`})
		return
	}
	h.conn.SetOnline(*req.Online)
	httputil.WriteJSON(w, http.StatusOK, h.state())
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	status, _ := httputil.Classify(err)
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError && !errors.Is(err, sentinel.ErrNetworkFailure) {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, op+" failed",
		"request_id", chimw.GetReqID(ctx),
		"error", err.Error(),
	)
	httputil.WriteError(w, err)
}
