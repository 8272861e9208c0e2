// Package admin serves the runtime configuration API used by staff to
// inspect and change mutable settings without a restart.
//
//	GET  /            paginated list of options with current values
//	GET  /{name}      one option
//	PUT  /{name}      {"value": ...} sets a runtime value
//	POST /reset       writes every option's default back, 204
//
// Every route requires a staff principal.
package admin

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/go-playground/validator/v10"

	"mercator-hq/bastion/pkg/apierror"
	"mercator-hq/bastion/pkg/config/runtime"
	"mercator-hq/bastion/pkg/pagination"
	"mercator-hq/bastion/pkg/security/auth"
)

// Config configures the admin handler.
type Config struct {
	Accessor   *runtime.Accessor
	Errors     *apierror.Handler
	Pagination pagination.Config
	Logger     *slog.Logger

	// Throttle runs after the staff check. Optional.
	Throttle func(http.Handler) http.Handler
}

// Handler serves the runtime config routes.
type Handler struct {
	acc      *runtime.Accessor
	errors   *apierror.Handler
	paging   pagination.Config
	logger   *slog.Logger
	throttle func(http.Handler) http.Handler
	validate *validator.Validate
}

// New creates the admin handler.
func New(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		acc:      cfg.Accessor,
		errors:   cfg.Errors,
		paging:   cfg.Pagination,
		logger:   logger.With("component", "admin"),
		throttle: cfg.Throttle,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Routes returns the router to mount under the admin path.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.NotFound(h.errors.NotFound)
	r.MethodNotAllowed(h.errors.MethodNotAllowed)

	r.Use(auth.RequireStaff(h.errors))
	if h.throttle != nil {
		r.Use(h.throttle)
	}

	r.Method(http.MethodGet, "/", h.errors.Wrap(h.list))
	r.Method(http.MethodPost, "/reset", h.errors.Wrap(h.reset))
	r.Method(http.MethodGet, "/{name}", h.errors.Wrap(h.get))
	r.Method(http.MethodPut, "/{name}", h.errors.Wrap(h.update))
	return r
}

// updateRequest is the PUT body. Value is kept raw so that false and ""
// pass the required check.
type updateRequest struct {
	Value json.RawMessage `json:"value" validate:"required"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) error {
	page, err := pagination.FromRequest(r, h.paging)
	if err != nil {
		return err
	}
	entries, err := h.acc.Snapshot(r.Context())
	if err != nil {
		return err
	}
	res, err := pagination.Paginate(entries, page)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, res)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) error {
	entry, err := h.acc.Describe(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		return mapAccessorError(err)
	}
	return writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	name := chi.URLParam(r, "name")

	if _, ok := h.acc.Option(name); !ok {
		return apierror.NotFound("")
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return apierror.RequestBodyValidation(map[string][]string{
			"non_field_errors": {"Invalid JSON."},
		}).WithCause(err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationError(err)
	}

	var value any
	if err := json.Unmarshal(req.Value, &value); err != nil {
		return apierror.RequestBodyValidation(map[string][]string{"value": {"Invalid JSON."}}).WithCause(err)
	}

	if err := h.acc.Set(ctx, name, value); err != nil {
		return mapAccessorError(err)
	}

	p, _ := auth.PrincipalFrom(ctx)
	h.logger.InfoContext(ctx, "Runtime config changed", "name", name, "by", p.Subject)

	entry, err := h.acc.Describe(ctx, name)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	if err := h.acc.Reset(ctx); err != nil {
		return err
	}
	p, _ := auth.PrincipalFrom(ctx)
	h.logger.InfoContext(ctx, "Runtime config reset", "by", p.Subject)
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func mapAccessorError(err error) error {
	switch {
	case errors.Is(err, runtime.ErrNotDeclared):
		return apierror.NotFound("").WithCause(err)
	case errors.Is(err, runtime.ErrInvalidValue):
		return apierror.RequestBodyValidation(map[string][]string{"value": {err.Error()}}).WithCause(err)
	default:
		return err
	}
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		field := "value"
		if fe.Field() != "Value" {
			field = fe.Field()
		}
		msg := "This field is invalid."
		if fe.Tag() == "required" {
			msg = "This field is required."
		}
		fields[field] = append(fields[field], msg)
	}
	return apierror.RequestBodyValidation(fields)
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
	return nil
}
