package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Kenfack-franck/jobHunterAi/engine/cache"
	"github.com/Kenfack-franck/jobHunterAi/engine/domain"
	"github.com/Kenfack-franck/jobHunterAi/engine/feed"
	"github.com/Kenfack-franck/jobHunterAi/engine/probe"
	"github.com/Kenfack-franck/jobHunterAi/engine/search"
	"github.com/Kenfack-franck/jobHunterAi/engine/source"
	"github.com/Kenfack-franck/jobHunterAi/engine/watch"
	"github.com/Kenfack-franck/jobHunterAi/pkg/metrics"
)

func newRouter(engine *search.Engine, prefs *source.PrefStore, watchReg *watch.Registry, sources *probe.SourceService, analyzer *probe.Analyzer, feedSvc *feed.Service, cacheStore *cache.Store, reg *metrics.Registry, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handleHealth)
	mux.Handle("GET /metrics", reg.Handler())

	mux.HandleFunc("POST /api/search", handleSearch(engine, logger))
	mux.HandleFunc("GET /api/sources", handleCatalog)
	mux.HandleFunc("GET /api/preferences", handleGetPrefs(prefs, logger))
	mux.HandleFunc("PUT /api/preferences", handlePutPrefs(prefs, logger))
	mux.HandleFunc("DELETE /api/cache", handleInvalidateCache(cacheStore, logger))

	mux.HandleFunc("POST /api/watches", handleAddWatch(watchReg, logger))
	mux.HandleFunc("GET /api/watches", handleListWatches(watchReg, logger))
	mux.HandleFunc("DELETE /api/watches/{id}", handleRemoveWatch(watchReg, logger))

	mux.HandleFunc("POST /api/custom-sources", handleAddSource(sources, logger))
	mux.HandleFunc("GET /api/custom-sources", handleListSources(sources, logger))
	mux.HandleFunc("DELETE /api/custom-sources/{id}", handleDeleteSource(sources, logger))
	mux.HandleFunc("POST /api/custom-sources/analyze", handleAnalyze(analyzer))

	mux.HandleFunc("POST /api/feed", handleFeed(feedSvc, logger))

	return mux
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// SearchRequest is the JSON body for POST /api/search.
type SearchRequest struct {
	UserID   string `json:"user_id"`
	Keywords string `json:"keywords"`
	Location string `json:"location,omitempty"`
	JobType  string `json:"job_type,omitempty"`
	WorkMode string `json:"work_mode,omitempty"`
	Company  string `json:"company,omitempty"`
}

func handleSearch(engine *search.Engine, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.UserID == "" {
			writeError(w, http.StatusBadRequest, "user_id is required")
			return
		}

		q := domain.Query{
			Keywords: req.Keywords,
			Location: req.Location,
			JobType:  req.JobType,
			WorkMode: req.WorkMode,
			Company:  req.Company,
		}
		report, err := engine.Search(r.Context(), req.UserID, q)
		if err != nil {
			var vErr *domain.ValidationError
			if errors.As(err, &vErr) {
				writeError(w, http.StatusBadRequest, vErr.Error())
				return
			}
			logger.Error("search failed", "err", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func handleCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sources": source.All()})
}

func handleGetPrefs(prefs *source.PrefStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			writeError(w, http.StatusBadRequest, "user_id is required")
			return
		}
		p, err := prefs.GetOrCreate(r.Context(), userID)
		if err != nil {
			logger.Error("load preferences failed", "err", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func handlePutPrefs(prefs *source.PrefStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p source.Preferences
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if p.UserID == "" {
			writeError(w, http.StatusBadRequest, "user_id is required")
			return
		}
		if err := prefs.Update(r.Context(), p); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
	}
}

func handleInvalidateCache(cacheStore *cache.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		key := r.URL.Query().Get("key")

		var (
			removed int64
			err     error
		)
		switch {
		case key != "":
			removed, err = cacheStore.InvalidateKey(r.Context(), key)
		case userID != "":
			removed, err = cacheStore.InvalidateUser(r.Context(), userID)
		default:
			writeError(w, http.StatusBadRequest, "user_id or key is required")
			return
		}
		if err != nil {
			logger.Error("cache invalidation failed", "err", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"removed": removed})
	}
}

// WatchRequest is the JSON body for POST /api/watches.
type WatchRequest struct {
	UserID         string `json:"user_id"`
	CompanyName    string `json:"company_name"`
	AlertThreshold int    `json:"alert_threshold,omitempty"`
	ProfileID      string `json:"profile_id,omitempty"`
}

func handleAddWatch(watchReg *watch.Registry, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req WatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.UserID == "" || req.CompanyName == "" {
			writeError(w, http.StatusBadRequest, "user_id and company_name are required")
			return
		}
		res, err := watchReg.AddWatch(r.Context(), req.UserID, req.CompanyName, req.AlertThreshold, req.ProfileID)
		if err != nil {
			var vErr *domain.ValidationError
			if errors.As(err, &vErr) {
				writeError(w, http.StatusBadRequest, vErr.Error())
				return
			}
			logger.Error("add watch failed", "err", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		status := http.StatusCreated
		if res.AlreadyWatching {
			status = http.StatusOK
		}
		writeJSON(w, status, res)
	}
}

func handleListWatches(watchReg *watch.Registry, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			writeError(w, http.StatusBadRequest, "user_id is required")
			return
		}
		page := queryInt(r, "page", 1)
		perPage := queryInt(r, "per_page", 20)

		views, total, err := watchReg.ListWatches(r.Context(), userID, page, perPage)
		if err != nil {
			logger.Error("list watches failed", "err", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"watches": views, "total": total, "page": page, "per_page": perPage,
		})
	}
}

func handleRemoveWatch(watchReg *watch.Registry, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		watchID := r.PathValue("id")
		if userID == "" {
			writeError(w, http.StatusBadRequest, "user_id is required")
			return
		}
		if err := watchReg.RemoveWatch(r.Context(), userID, watchID); err != nil {
			if errors.Is(err, watch.ErrWatchNotFound) {
				writeError(w, http.StatusNotFound, "watch not found")
				return
			}
			logger.Error("remove watch failed", "err", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"removed": true})
	}
}

// CustomSourceRequest is the JSON body for POST /api/custom-sources.
type CustomSourceRequest struct {
	UserID     string `json:"user_id"`
	SourceName string `json:"source_name"`
	SourceURL  string `json:"source_url"`
	Frequency  string `json:"scraping_frequency,omitempty"`
}

func handleAddSource(sources *probe.SourceService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CustomSourceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.UserID == "" || req.SourceURL == "" {
			writeError(w, http.StatusBadRequest, "user_id and source_url are required")
			return
		}
		src, err := sources.Add(r.Context(), req.UserID, req.SourceName, req.SourceURL, req.Frequency)
		if err != nil {
			switch {
			case errors.Is(err, probe.ErrDuplicateSource):
				writeError(w, http.StatusConflict, "source url already added")
			case errors.Is(err, probe.ErrSourceUnreachable):
				writeError(w, http.StatusUnprocessableEntity, err.Error())
			case errors.Is(err, domain.ErrInvalidSourceURL):
				writeError(w, http.StatusBadRequest, "source_url must be an absolute http(s) url")
			default:
				logger.Error("add custom source failed", "err", err)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
			return
		}
		writeJSON(w, http.StatusCreated, src)
	}
}

func handleListSources(sources *probe.SourceService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			writeError(w, http.StatusBadRequest, "user_id is required")
			return
		}
		page := queryInt(r, "page", 1)
		perPage := queryInt(r, "per_page", 20)
		activeOnly := r.URL.Query().Get("active_only") == "true"

		list, total, err := sources.List(r.Context(), userID, page, perPage, activeOnly)
		if err != nil {
			logger.Error("list custom sources failed", "err", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"sources": list, "total": total, "page": page, "per_page": perPage,
		})
	}
}

func handleDeleteSource(sources *probe.SourceService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		sourceID := r.PathValue("id")
		if userID == "" {
			writeError(w, http.StatusBadRequest, "user_id is required")
			return
		}
		ok, err := sources.Delete(r.Context(), userID, sourceID)
		if err != nil {
			logger.Error("delete custom source failed", "err", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, "source not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"removed": true})
	}
}

// AnalyzeRequest is the JSON body for POST /api/custom-sources/analyze.
type AnalyzeRequest struct {
	URL string `json:"url"`
}

func handleAnalyze(analyzer *probe.Analyzer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AnalyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := domain.ValidateSourceURL(req.URL); err != nil {
			writeError(w, http.StatusBadRequest, "url must be an absolute http(s) url")
			return
		}
		writeJSON(w, http.StatusOK, analyzer.Analyze(r.Context(), req.URL))
	}
}

// FeedRequest is the JSON body for POST /api/feed.
type FeedRequest struct {
	UserID      string `json:"user_id"`
	ProfileText string `json:"profile_text"`
	Limit       int    `json:"limit,omitempty"`
}

func handleFeed(feedSvc *feed.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FeedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.UserID == "" {
			writeError(w, http.StatusBadRequest, "user_id is required")
			return
		}
		entries, err := feedSvc.Feed(r.Context(), req.UserID, req.ProfileText, req.Limit)
		if err != nil {
			if errors.Is(err, feed.ErrEmptyProfile) {
				writeError(w, http.StatusBadRequest, "profile_text is required")
				return
			}
			logger.Error("feed failed", "err", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"feed": entries, "count": len(entries)})
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
