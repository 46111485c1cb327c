package functions

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/heavens/lambdahttp/internal/constants"
	apperrors "github.com/heavens/lambdahttp/internal/errors"
	"github.com/heavens/lambdahttp/pkg/lambdahttp"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Item is a resource managed by the example router.
type Item struct {
	ID    string `json:"id"`
	Name  string `json:"name" form:"name" validate:"required,max=64"`
	Price int    `json:"price" form:"price" validate:"gte=0"`
}

// Whoami describes how an invocation reached the function.
type Whoami struct {
	Origin       string `json:"origin"`
	RequestID    string `json:"request_id,omitempty"`
	FunctionName string `json:"function_name,omitempty"`
	Stage        string `json:"stage,omitempty"`
	Resource     string `json:"resource,omitempty"`
	RouteKey     string `json:"route_key,omitempty"`
}

type itemStore struct {
	mu    sync.RWMutex
	items map[string]Item
}

// NewRouter returns a chi based handler served through lambdahttp.FromHTTPHandler.
// Items live in memory for the lifetime of the execution environment.
func NewRouter(log *slog.Logger) lambdahttp.Handler {
	return lambdahttp.FromHTTPHandler(NewMux(log))
}

// NewMux builds the chi router behind NewRouter.
func NewMux(log *slog.Logger) *chi.Mux {
	if log == nil {
		log = slog.Default()
	}
	store := &itemStore{items: make(map[string]Item)}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/hello", func(w http.ResponseWriter, req *http.Request) {
		name := req.URL.Query().Get("first_name")
		if name == "" {
			writeError(w, apperrors.ErrBadRequest("Empty first name", nil))
			return
		}
		writeJSON(w, log, http.StatusOK, map[string]string{"message": "Hello, " + name + "!"})
	})

	r.Get("/whoami", func(w http.ResponseWriter, req *http.Request) {
		inv, ok := lambdahttp.InvocationFromContext(req.Context())
		if !ok {
			writeError(w, apperrors.ErrInternalError("request did not come through lambdahttp", nil))
			return
		}
		writeJSON(w, log, http.StatusOK, Whoami{
			Origin:       inv.Origin.String(),
			RequestID:    inv.Lambda.RequestID,
			FunctionName: inv.Lambda.FunctionName,
			Stage:        inv.Reply.Stage,
			Resource:     inv.Reply.Resource,
			RouteKey:     inv.Reply.RouteKey,
		})
	})

	r.Route("/items", func(r chi.Router) {
		r.Post("/", store.create(log))
		r.Get("/{id}", store.get(log))
		r.Delete("/{id}", store.delete)
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, apperrors.ErrNotFound("no route for "+req.URL.Path, nil))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, apperrors.ErrMethodNotAllowed(req.Method+" is not allowed on "+req.URL.Path, nil))
	})

	return r
}

func (s *itemStore) create(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		lreq, err := lambdahttp.FromHTTPRequest(req)
		if err != nil {
			writeError(w, apperrors.ErrBadRequest("failed to read request body", err))
			return
		}

		var item Item
		ok, err := lreq.ValidPayload(&item)
		if err != nil {
			writeError(w, apperrors.ErrBadRequest("invalid item", err))
			return
		}
		if !ok {
			writeError(w, apperrors.ErrBadRequest("expected a JSON or form encoded item", nil))
			return
		}

		item.ID = uuid.NewString()
		s.mu.Lock()
		s.items[item.ID] = item
		s.mu.Unlock()

		w.Header().Set("Location", "/items/"+item.ID)
		writeJSON(w, log, http.StatusCreated, item)
	}
}

func (s *itemStore) get(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "id")

		s.mu.RLock()
		item, ok := s.items[id]
		s.mu.RUnlock()

		if !ok {
			writeError(w, apperrors.ErrNotFound("item not found", nil))
			return
		}
		writeJSON(w, log, http.StatusOK, item)
	}
}

func (s *itemStore) delete(w http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "id")

	s.mu.Lock()
	_, ok := s.items[id]
	delete(s.items, id)
	s.mu.Unlock()

	if !ok {
		writeError(w, apperrors.ErrNotFound("item not found", nil))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, log *slog.Logger, status int, v any) {
	w.Header().Set(constants.ContentTypeHeader, constants.ContentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	resp := apperrors.Response(err)
	for key, values := range resp.Header {
		w.Header()[key] = values
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}
