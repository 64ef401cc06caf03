package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/edgeee/excuse-generator/api/validator"
)

// A DB provides a storage layer that persists excuses and interactions.
type DB interface {
	TopExcuses(ctx context.Context, limit int) ([]Excuse, error)
	CountExcuses(ctx context.Context) (int, error)
	GetExcuse(ctx context.Context, id string) (Excuse, error)
	InsertExcuse(ctx context.Context, e Excuse) (Excuse, error)
	IncrementCounter(ctx context.Context, id string, c Counter, delta int) (int, error)
	InsertInteraction(ctx context.Context, in Interaction) (Interaction, error)
}

// A Cache holds a snapshot of the leaderboard. TopExcuses reports false when
// no snapshot is stored.
type Cache interface {
	TopExcuses(ctx context.Context, limit int) ([]Excuse, bool, error)
	StoreTopExcuses(ctx context.Context, excuses []Excuse) error
	Invalidate(ctx context.Context) error
}

// A Generator produces excuse text and the accompanying tips.
type Generator interface {
	Excuse(ctx context.Context, tone Tone, category string) (string, error)
	Tips(ctx context.Context, excuse string, tone Tone) (string, error)
}

// API provides the REST endpoints for the application.
type API struct {
	Logger *slog.Logger
	DB     DB
	Val    *validator.Validator

	// Cache is optional. Without it the leaderboard is read from DB on every
	// request.
	Cache Cache

	// Generator is nil when no LLM credential is configured, in which case
	// generation answers with the fallback excuse.
	Generator Generator

	// SkipTips disables the second generation call.
	SkipTips bool

	// Debug adds the underlying error to 500 responses.
	Debug bool

	once sync.Once
	mux  *http.ServeMux
}

const (
	// LeaderboardSize is the number of excuses kept in a leaderboard snapshot
	// and the largest limit accepted by the leaderboard endpoint.
	LeaderboardSize = 50

	defaultLeaderboardLimit = 10

	// maxBodyBytes bounds request bodies; every accepted body is a few
	// short fields.
	maxBodyBytes = 16 << 10
)

const (
	msgInvalidTone       = "Invalid tone. Must be funny, believable, or dramatic."
	msgInvalidExcuseType = "Invalid excuse type. Use at most 64 letters (accents included), digits, spaces, hyphens, underscores or apostrophes."
	msgGenerateFailed    = "Failed to generate excuse. Please try again."
)

func (a *API) setupRoutes() {
	if a.Val == nil {
		a.Val = validator.New()
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", a.health)
	mux.HandleFunc("POST /api/generateExcuse", a.generateExcuse)
	mux.HandleFunc("GET /api/excuses/top", a.listTopExcuses)
	mux.HandleFunc("GET /api/excuses/count", a.countExcuses)
	mux.HandleFunc("GET /api/excuses/{excuseID}", a.getExcuse)
	mux.HandleFunc("POST /api/excuses/{excuseID}/reactions", a.createReaction)

	a.mux = mux
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.once.Do(a.setupRoutes)
	a.Logger.Info("Request received", "method", r.Method, "path", r.URL.Path)
	a.mux.ServeHTTP(w, r)
}

func (a *API) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.Logger.Error("Could not encode JSON body", "error", err.Error())
	}
}

func (a *API) respondError(w http.ResponseWriter, status int, err error, msg string) {
	type response struct {
		Error   string `json:"error"`
		Details string `json:"details,omitempty"`
	}
	a.Logger.Error("Error", "error", err.Error())
	res := response{Error: msg}
	if a.Debug && status >= http.StatusInternalServerError {
		res.Details = err.Error()
	}
	a.respond(w, status, res)
}

// validateBody answers 400 with the message registered for the first invalid
// field and reports whether the body is valid.
func (a *API) validateBody(w http.ResponseWriter, s interface{}, messages map[string]string) bool {
	errs := a.Val.ValidateStruct(s)
	if len(errs) == 0 {
		return true
	}

	type response struct {
		Error string `json:"error"`
	}
	msg, ok := messages[errs[0].Field]
	if !ok {
		msg = "Invalid request body"
	}
	a.Logger.Info("Validation failed", "field", errs[0].Field, "tag", errs[0].Tag)
	a.respond(w, http.StatusBadRequest, response{Error: msg})
	return false
}

func (a *API) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.respondError(w, http.StatusRequestEntityTooLarge, err, "Request body too large")
			return false
		}
		a.respondError(w, http.StatusBadRequest, err, "Could not decode request body")
		return false
	}
	if err := r.Body.Close(); err != nil {
		a.respondError(w, http.StatusInternalServerError, err, "Could not close request body")
		return false
	}
	return true
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	a.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) generateExcuse(w http.ResponseWriter, r *http.Request) {
	type (
		request struct {
			Tone       string `json:"tone" validate:"required,oneof=funny believable dramatic"`
			ExcuseType string `json:"excuseType" validate:"omitempty,category"`
		}
		response struct {
			Error    string `json:"error,omitempty"`
			Excuse   string `json:"excuse"`
			Tips     string `json:"tips,omitempty"`
			ExcuseID string `json:"excuseId,omitempty"`
		}
	)

	var body request
	if !a.decodeBody(w, r, &body) {
		return
	}
	body.ExcuseType = strings.TrimSpace(body.ExcuseType)
	if valid := a.validateBody(w, &body, map[string]string{
		"Tone":       msgInvalidTone,
		"ExcuseType": msgInvalidExcuseType,
	}); !valid {
		return
	}
	tone, err := ParseTone(body.Tone)
	if err != nil {
		a.respondError(w, http.StatusBadRequest, err, msgInvalidTone)
		return
	}

	if a.Generator == nil {
		a.Logger.Warn("LLM provider not configured, answering with fallback excuse", "tone", tone)
		res := response{
			Error:  FallbackError,
			Excuse: FallbackExcuse,
		}
		if !a.SkipTips {
			res.Tips = FallbackTips
		}
		a.respond(w, http.StatusOK, res)
		return
	}

	text, err := a.Generator.Excuse(r.Context(), tone, body.ExcuseType)
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("empty excuse")
	}
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, err, msgGenerateFailed)
		return
	}

	var tips string
	if !a.SkipTips {
		tips, err = a.Generator.Tips(r.Context(), text, tone)
		if err == nil && strings.TrimSpace(tips) == "" {
			err = errors.New("empty tips")
		}
		if err != nil {
			a.respondError(w, http.StatusInternalServerError, err, msgGenerateFailed)
			return
		}
	}

	res := response{
		Excuse: text,
		Tips:   tips,
	}

	saved, err := a.DB.InsertExcuse(r.Context(), Excuse{
		Tone:      tone,
		Text:      text,
		Tips:      tips,
		CreatedAt: time.Now(),
	})
	if err != nil {
		a.Logger.Error("Could not save excuse", "error", err.Error())
	} else {
		res.ExcuseID = saved.ID
		a.invalidateLeaderboard(r.Context())
	}

	a.respond(w, http.StatusOK, res)
}

func (a *API) listTopExcuses(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Excuses []Excuse `json:"excuses"`
	}

	limit := defaultLeaderboardLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			a.respondError(w, http.StatusBadRequest, err, "Invalid limit")
			return
		}
		if errs := a.Val.Validate(n, "gte=1,lte="+strconv.Itoa(LeaderboardSize)); len(errs) > 0 {
			a.respondError(w, http.StatusBadRequest, errors.New("limit out of range"), "Invalid limit")
			return
		}
		limit = n
	}

	a.respond(w, http.StatusOK, response{
		Excuses: a.topExcuses(r.Context(), limit),
	})
}

// topExcuses reads the leaderboard from the cache, falling back to DB. Errors
// are logged and degrade to an empty leaderboard.
func (a *API) topExcuses(ctx context.Context, limit int) []Excuse {
	if a.Cache != nil {
		cached, ok, err := a.Cache.TopExcuses(ctx, limit)
		if err != nil {
			a.Logger.Error("Could not read leaderboard from cache", "error", err.Error())
		}
		if err == nil && ok {
			a.Logger.Debug("Got leaderboard from cache", "count", len(cached))
			return nonNil(cached)
		}
	}

	n := limit
	if a.Cache != nil {
		n = LeaderboardSize
	}
	excuses, err := a.DB.TopExcuses(ctx, n)
	if err != nil {
		a.Logger.Error("Could not list top excuses", "error", err.Error())
		return []Excuse{}
	}

	if a.Cache != nil {
		if err := a.Cache.StoreTopExcuses(ctx, excuses); err != nil {
			a.Logger.Error("Could not cache leaderboard", "error", err.Error())
		}
	}
	if len(excuses) > limit {
		excuses = excuses[:limit]
	}
	return nonNil(excuses)
}

// RefreshLeaderboard replaces the cached leaderboard snapshot with the current
// DB ranking.
func (a *API) RefreshLeaderboard(ctx context.Context) error {
	if a.Cache == nil {
		return nil
	}
	excuses, err := a.DB.TopExcuses(ctx, LeaderboardSize)
	if err != nil {
		return err
	}
	return a.Cache.StoreTopExcuses(ctx, excuses)
}

func (a *API) invalidateLeaderboard(ctx context.Context) {
	if a.Cache == nil {
		return
	}
	if err := a.Cache.Invalidate(ctx); err != nil {
		a.Logger.Error("Could not invalidate leaderboard cache", "error", err.Error())
	}
}

func (a *API) countExcuses(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Count int `json:"count"`
	}

	n, err := a.DB.CountExcuses(r.Context())
	if err != nil {
		a.Logger.Error("Could not count excuses", "error", err.Error())
		n = 0
	}
	a.respond(w, http.StatusOK, response{Count: n})
}

func (a *API) getExcuse(w http.ResponseWriter, r *http.Request) {
	excuseID := r.PathValue("excuseID")
	if errs := a.Val.Validate(excuseID, "uuid"); len(errs) > 0 {
		a.respondError(w, http.StatusBadRequest, errors.New("invalid excuse id"), "Invalid excuse id")
		return
	}

	e, err := a.DB.GetExcuse(r.Context(), excuseID)
	if errors.Is(err, ErrNotFound) {
		a.respondError(w, http.StatusNotFound, err, "Excuse not found")
		return
	}
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, err, "Could not get excuse")
		return
	}
	a.respond(w, http.StatusOK, e)
}

func (a *API) createReaction(w http.ResponseWriter, r *http.Request) {
	type (
		request struct {
			Type   string `json:"type" validate:"required,oneof=like unlike share copy"`
			UserID string `json:"user_id" validate:"omitempty,max=128"`
		}
		response struct {
			ExcuseID string `json:"excuse_id"`
			Type     string `json:"type"`
			Count    int    `json:"count"`
		}
	)

	excuseID := r.PathValue("excuseID")
	if errs := a.Val.Validate(excuseID, "uuid"); len(errs) > 0 {
		a.respondError(w, http.StatusBadRequest, errors.New("invalid excuse id"), "Invalid excuse id")
		return
	}

	var body request
	if !a.decodeBody(w, r, &body) {
		return
	}
	if valid := a.validateBody(w, &body, map[string]string{
		"Type":   "Invalid reaction type. Must be like, unlike, share, or copy.",
		"UserID": "Invalid user id",
	}); !valid {
		return
	}

	// An unlike is logged as another like interaction; only the counter
	// moves the other way.
	itype, delta := InteractionType(body.Type), 1
	if body.Type == "unlike" {
		itype, delta = InteractionLike, -1
	}

	count, err := a.DB.IncrementCounter(r.Context(), excuseID, itype.Counter(), delta)
	if errors.Is(err, ErrNotFound) {
		a.respondError(w, http.StatusNotFound, err, "Excuse not found")
		return
	}
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, err, "Could not record reaction")
		return
	}

	if _, err := a.DB.InsertInteraction(r.Context(), Interaction{
		ExcuseID:  excuseID,
		UserID:    body.UserID,
		Type:      itype,
		CreatedAt: time.Now(),
	}); err != nil {
		a.Logger.Error("Could not save interaction", "error", err.Error(), "excuse_id", excuseID)
	}

	a.invalidateLeaderboard(r.Context())

	a.respond(w, http.StatusCreated, response{
		ExcuseID: excuseID,
		Type:     body.Type,
		Count:    count,
	})
}

func nonNil(excuses []Excuse) []Excuse {
	if excuses == nil {
		return []Excuse{}
	}
	return excuses
}
