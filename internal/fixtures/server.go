// Package fixtures serves a fake product listing API with the same paging
// contract as the real one. It backs local development and tests.
package fixtures

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const ProductsPath = "/products"

type Option func(*Server)

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

func WithPageSize(n int) Option {
	return func(s *Server) {
		s.pageSize = n
	}
}

// WithShop registers the products served for a client id.
func WithShop(clientID string, products []map[string]any) Option {
	return func(s *Server) {
		s.shops[clientID] = products
	}
}

// WithPagesOverride makes the server report pages instead of the real page
// count for the given (1 based) response number of a client.
func WithPagesOverride(clientID string, overrides map[int]int) Option {
	return func(s *Server) {
		s.overrides[clientID] = overrides
	}
}

type Server struct {
	logger   *zap.Logger
	pageSize int

	mu        sync.Mutex
	shops     map[string][]map[string]any
	overrides map[string]map[int]int
	requests  []Request
}

// Request is a recorded listing call.
type Request struct {
	ClientID string
	Filter   string
	Page     int
}

type response struct {
	Data   []map[string]any `json:"data"`
	Paging paging           `json:"paging"`
}

type paging struct {
	Page  int `json:"page"`
	Pages int `json:"pages"`
	Total int `json:"total"`
}

func New(opts ...Option) *Server {
	s := &Server{
		logger:    zap.NewNop(),
		pageSize:  10,
		shops:     make(map[string][]map[string]any),
		overrides: make(map[string]map[int]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logMiddleware)

	r.Get(ProductsPath, s.listProducts)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return r
}

// Requests returns the listing calls received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	clientID := q.Get("client_id")

	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid page"})
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		ClientID: clientID,
		Filter:   q.Get("filter"),
		Page:     page,
	})
	call := 0
	for _, req := range s.requests {
		if req.ClientID == clientID {
			call++
		}
	}
	products, ok := s.shops[clientID]
	override, hasOverride := s.overrides[clientID][call]
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unknown client_id"})
		return
	}

	pages := (len(products) + s.pageSize - 1) / s.pageSize
	start := (page - 1) * s.pageSize
	end := start + s.pageSize
	if start > len(products) {
		start = len(products)
	}
	if end > len(products) {
		end = len(products)
	}

	if hasOverride {
		pages = override
	}

	writeJSON(w, http.StatusOK, response{
		Data: products[start:end],
		Paging: paging{
			Page:  page,
			Pages: pages,
			Total: len(products),
		},
	})
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			s.logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("page", r.URL.Query().Get("page")),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Products generates n deterministic products for a shop.
func Products(seed int64, n int) []map[string]any {
	rnd := rand.New(rand.NewSource(seed))
	products := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		products = append(products, map[string]any{
			"id":          fmt.Sprintf("%d-%d", seed, i+1),
			"name":        fmt.Sprintf("Product %d", i+1),
			"price":       float64(rnd.Intn(100000)) / 100,
			"currency":    "EUR",
			"stock":       rnd.Intn(500),
			"available":   rnd.Intn(2) == 1,
			"category_id": rnd.Intn(40) + 1,
		})
	}
	return products
}
