package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rushteam/shoprec/core"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the recommendation HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:    a.cfg.Server.Addr,
		Handler: newRouter(a, logger),
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newRouter(a *app, logger *zap.Logger) http.Handler {
	h := &handler{app: a, log: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.health)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/recommend/content/{productID}", h.contentRecommend)
		r.Get("/recommend/collab/{userID}", h.collabRecommend)
		r.Get("/categories", h.categories)
		r.Get("/popular/products", h.popularProducts)
		r.Get("/popular/users", h.popularUsers)
	})
	return r
}

type handler struct {
	app *app
	log *zap.Logger
}

type errResponse struct {
	Error string `json:"error"`
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) contentRecommend(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errResponse{Error: "invalid product id"})
		return
	}
	topN := queryInt(r, "top_n", h.app.cfg.Recommend.DefaultTopN)

	recs, err := h.app.engine.ByContent(r.Context(), productID, topN)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recListResponse(recs))
}

func (h *handler) collabRecommend(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errResponse{Error: "invalid user id"})
		return
	}
	topN := queryInt(r, "top_n", h.app.cfg.Recommend.DefaultTopN)
	category := r.URL.Query().Get("category")

	recs, err := h.app.engine.ByCollaboration(r.Context(), userID, topN, category)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recListResponse(recs))
}

func (h *handler) categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"categories": h.app.catalog.Categories()})
}

func (h *handler) popularProducts(w http.ResponseWriter, r *http.Request) {
	n := queryInt(r, "n", 0)
	ids, err := h.app.pop.TopProducts(r.Context(), n)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]core.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := h.app.catalog.Product(id); ok {
			out = append(out, p)
		}
	}
	writeJSON(w, http.StatusOK, map[string][]core.Product{"products": out})
}

func (h *handler) popularUsers(w http.ResponseWriter, r *http.Request) {
	n := queryInt(r, "n", 0)
	ids, err := h.app.pop.TopUsers(r.Context(), n)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]int64{"users": ids})
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case core.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errResponse{Error: err.Error()})
	case core.IsInvalidInput(err):
		writeJSON(w, http.StatusBadRequest, errResponse{Error: err.Error()})
	default:
		h.log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, errResponse{Error: "internal error"})
	}
}

// recListResponse 固定返回 recommendations 数组，空结果序列化为 [] 而不是 null。
func recListResponse(recs []core.Recommendation) map[string][]core.Recommendation {
	if recs == nil {
		recs = []core.Recommendation{}
	}
	return map[string][]core.Recommendation{"recommendations": recs}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
