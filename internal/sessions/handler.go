package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/2beens/powerpush/internal/middleware"
	"github.com/2beens/powerpush/internal/pose"
	"github.com/2beens/powerpush/internal/pushups"
	"github.com/2beens/powerpush/internal/telemetry/tracing"
	"github.com/2beens/powerpush/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=sessions_test

type RecordsLister interface {
	List(ctx context.Context, sessionID string) ([]pushups.Record, error)
}

type LatestRecordGetter interface {
	Latest(ctx context.Context, sessionID string) (*pushups.Record, error)
}

type Handler struct {
	manager *Manager
	// nil when repetitions are not persisted
	records RecordsLister
	// nil without redis
	latest LatestRecordGetter
}

func NewHandler(manager *Manager, records RecordsLister, latest LatestRecordGetter) *Handler {
	return &Handler{
		manager: manager,
		records: records,
		latest:  latest,
	}
}

// SetupRoutes registers the session routes. Session creation is rate limited
// when a rate limiter is given.
func (handler *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	newSessionsPerMin int,
) {
	var startHandler http.Handler = http.HandlerFunc(handler.HandleStart)
	if rateLimiter != nil && newSessionsPerMin > 0 {
		startHandler = middleware.RateLimit(rateLimiter, "new-session", newSessionsPerMin)(startHandler)
	}

	mainRouter.Handle("/sessions", startHandler).Methods("POST", "OPTIONS").Name("new-session")
	mainRouter.HandleFunc("/sessions/{id}/frames", handler.HandleFrame).Methods("POST", "OPTIONS").Name("session-frame")
	mainRouter.HandleFunc("/sessions/{id}/metrics", handler.HandleMetrics).Methods("GET", "OPTIONS").Name("session-metrics")
	mainRouter.HandleFunc("/sessions/{id}/finish", handler.HandleFinish).Methods("POST", "OPTIONS").Name("session-finish")
	mainRouter.HandleFunc("/sessions/{id}/repetitions", handler.HandleRepetitions).Methods("GET", "OPTIONS").Name("session-repetitions")
	mainRouter.HandleFunc("/sessions/{id}/latest", handler.HandleLatest).Methods("GET", "OPTIONS").Name("session-latest")
}

func (handler *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "sessionsHandler.start")
	defer span.End()

	var params StartParams
	if err := decodeOptionalJSON(r.Body, &params); err != nil {
		pkg.WriteJSONError(w, http.StatusBadRequest, "invalid session params")
		return
	}
	if params.BodyWeightKg < 0 {
		pkg.WriteJSONError(w, http.StatusBadRequest, "body weight must be positive")
		return
	}

	info, err := handler.manager.Start(ctx, params)
	if errors.Is(err, pushups.ErrInvalidConfig) {
		log.Debugf("start session: %s", err)
		pkg.WriteJSONError(w, http.StatusBadRequest, "invalid body weight")
		return
	}
	if err != nil {
		log.Errorf("start session: %s", err)
		pkg.WriteJSONError(w, http.StatusInternalServerError, "failed to start session")
		return
	}

	pkg.WriteJSON(w, http.StatusCreated, info)
}

func (handler *Handler) HandleFrame(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "sessionsHandler.frame")
	defer span.End()

	var frame pose.Frame
	if err := json.NewDecoder(r.Body).Decode(&frame); err != nil {
		pkg.WriteJSONError(w, http.StatusBadRequest, "invalid frame")
		return
	}
	if frame.Seq < 0 {
		pkg.WriteJSONError(w, http.StatusBadRequest, "frame seq must not be negative")
		return
	}

	res, err := handler.manager.ProcessFrame(ctx, mux.Vars(r)["id"], frame)
	if err != nil {
		handler.writeErr(w, "process frame", err)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, res)
}

func (handler *Handler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	snapshot, err := handler.manager.Snapshot(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		handler.writeErr(w, "session metrics", err)
		return
	}
	pkg.WriteJSON(w, http.StatusOK, snapshot)
}

func (handler *Handler) HandleFinish(w http.ResponseWriter, r *http.Request) {
	snapshot, err := handler.manager.Finish(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		handler.writeErr(w, "finish session", err)
		return
	}
	pkg.WriteJSON(w, http.StatusOK, snapshot)
}

func (handler *Handler) HandleRepetitions(w http.ResponseWriter, r *http.Request) {
	if handler.records == nil {
		pkg.WriteJSONError(w, http.StatusNotFound, "repetition history is not enabled")
		return
	}

	sessionID := mux.Vars(r)["id"]
	records, err := handler.records.List(r.Context(), sessionID)
	if err != nil {
		log.Errorf("list repetitions of %s: %s", sessionID, err)
		pkg.WriteJSONError(w, http.StatusInternalServerError, "failed to list repetitions")
		return
	}

	pkg.WriteJSON(w, http.StatusOK, struct {
		Repetitions []pushups.Record `json:"repetitions"`
		Total       int              `json:"total"`
	}{
		Repetitions: records,
		Total:       len(records),
	})
}

// HandleLatest returns the last repetition record of the session. It outlives
// the session itself for a while, so clients can still read it after finishing.
func (handler *Handler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	if handler.latest == nil {
		pkg.WriteJSONError(w, http.StatusNotFound, "latest repetition is not enabled")
		return
	}

	sessionID := mux.Vars(r)["id"]
	rec, err := handler.latest.Latest(r.Context(), sessionID)
	if err != nil {
		log.Errorf("latest repetition of %s: %s", sessionID, err)
		pkg.WriteJSONError(w, http.StatusInternalServerError, "failed to get latest repetition")
		return
	}
	if rec == nil {
		pkg.WriteJSONError(w, http.StatusNotFound, "no repetitions")
		return
	}

	pkg.WriteJSON(w, http.StatusOK, rec)
}

func (handler *Handler) writeErr(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ErrSessionNotFound) {
		pkg.WriteJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	log.Errorf("%s: %s", op, err)
	pkg.WriteJSONError(w, http.StatusInternalServerError, "internal error")
}

// decodeOptionalJSON decodes the body into v, an empty body leaves v untouched.
func decodeOptionalJSON(body io.Reader, v any) error {
	if body == nil {
		return nil
	}
	err := json.NewDecoder(body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
