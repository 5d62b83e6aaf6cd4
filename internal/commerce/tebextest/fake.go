// Package tebextest serves an in-memory imitation of the Tebex plugin API
// endpoints used by couponsync.
package tebextest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

const Secret = "test-secret"

// Call is one request observed by the fake.
type Call struct {
	Method string
	Route  string
	At     time.Time
}

// Coupon is the stored form of a coupon, shaped like the API's JSON.
type Coupon struct {
	ID        int64  `json:"id"`
	Code      string `json:"code"`
	Effective struct {
		Type       string  `json:"type"`
		Packages   []int64 `json:"packages"`
		Categories []int64 `json:"categories"`
	} `json:"effective"`
	Discount struct {
		Type       string  `json:"type"`
		Percentage float64 `json:"percentage"`
		Value      float64 `json:"value"`
	} `json:"discount"`
	Expire struct {
		RedeemUnlimited string `json:"redeem_unlimited"`
		ExpireNever     string `json:"expire_never"`
		Limit           int64  `json:"limit"`
		Date            string `json:"date"`
	} `json:"expire"`
	BasketType string  `json:"basket_type"`
	StartDate  string  `json:"start_date"`
	UserLimit  int64   `json:"user_limit"`
	Minimum    float64 `json:"minimum"`
	Username   string  `json:"username"`
	Note       string  `json:"note"`
}

type Package struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	CustomPrice bool    `json:"custom_price"`
}

// Server is a fake storefront. Zero failures are injected unless Fail is used.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	nextID   int64
	coupons  map[int64]Coupon
	packages map[int64]Package
	calls    []Call
	failures map[string][]int
	delay    time.Duration
}

func NewServer() *Server {
	s := &Server{
		nextID:   1000,
		coupons:  make(map[int64]Coupon),
		packages: make(map[int64]Package),
		failures: make(map[string][]int),
	}

	r := chi.NewRouter()
	r.Use(s.record, s.auth)
	r.Post("/coupons", s.createCoupon)
	r.Get("/coupons/{id}", s.getCoupon)
	r.Delete("/coupons/{id}", s.deleteCoupon)
	r.Get("/packages", s.listPackages)
	r.Put("/package/{id}", s.updatePackage)

	s.Server = httptest.NewServer(r)

	return s
}

// Fail makes the next calls to route answer with the given statuses, in order.
// route is "METHOD /pattern", e.g. "DELETE /coupons/{id}".
func (s *Server) Fail(route string, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures[route] = append(s.failures[route], statuses...)
}

// Delay holds every response for d.
func (s *Server) Delay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.delay = d
}

func (s *Server) PutCoupon(c Coupon) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.coupons[c.ID] = c
}

func (s *Server) Coupon(id int64) (Coupon, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.coupons[id]

	return c, ok
}

func (s *Server) Coupons() []Coupon {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Coupon, 0, len(s.coupons))
	for _, c := range s.coupons {
		out = append(out, c)
	}

	return out
}

func (s *Server) PutPackage(p Package) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.packages[p.ID] = p
}

func (s *Server) Package(id int64) (Package, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.packages[id]

	return p, ok
}

func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Call(nil), s.calls...)
}

// CallsTo returns the calls matching "METHOD /pattern".
func (s *Server) CallsTo(route string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Method+" "+c.Route == route {
			out = append(out, c)
		}
	}

	return out
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		at := time.Now()
		rctx := chi.NewRouteContext()
		route := r.URL.Path
		if chi.RouteContext(r.Context()).Routes.Match(rctx, r.Method, r.URL.Path) {
			route = rctx.RoutePattern()
		}

		s.mu.Lock()
		s.calls = append(s.calls, Call{Method: r.Method, Route: route, At: at})
		key := r.Method + " " + route
		status := 0
		if q := s.failures[key]; len(q) > 0 {
			status = q[0]
			s.failures[key] = q[1:]
		}
		delay := s.delay
		s.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}

		if status != 0 {
			writeJSON(w, status, map[string]any{"error_code": status, "error_message": "injected failure"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Tebex-Secret") != Secret {
			writeJSON(w, http.StatusForbidden, map[string]any{"error_code": 403, "error_message": "bad secret"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

type createRequest struct {
	Code                      string  `json:"code"`
	EffectiveOn               string  `json:"effective_on"`
	Packages                  []int64 `json:"packages"`
	Categories                []int64 `json:"categories"`
	DiscountType              string  `json:"discount_type"`
	DiscountAmount            float64 `json:"discount_amount"`
	DiscountPercentage        float64 `json:"discount_percentage"`
	RedeemUnlimited           bool    `json:"redeem_unlimited"`
	ExpireNever               bool    `json:"expire_never"`
	ExpireLimit               int64   `json:"expire_limit"`
	ExpireDate                string  `json:"expire_date"`
	StartDate                 string  `json:"start_date"`
	BasketType                string  `json:"basket_type"`
	Minimum                   float64 `json:"minimum"`
	DiscountApplicationMethod int     `json:"discount_application_method"`
	UserLimit                 int64   `json:"user_limit"`
	Username                  string  `json:"username"`
	Note                      string  `json:"note"`
}

func (s *Server) createCoupon(w http.ResponseWriter, r *http.Request) {
	var req createRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil || req.Code == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error_code": 422, "error_message": "invalid coupon"})
		return
	}

	s.mu.Lock()
	for _, c := range s.coupons {
		if c.Code == req.Code {
			s.mu.Unlock()
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error_code": 422, "error_message": "code taken"})
			return
		}
	}

	s.nextID++
	c := Coupon{ID: s.nextID, Code: req.Code}
	c.Effective.Type = req.EffectiveOn
	c.Effective.Packages = req.Packages
	c.Effective.Categories = req.Categories
	c.Discount.Type = req.DiscountType
	c.Discount.Value = req.DiscountAmount
	c.Discount.Percentage = req.DiscountPercentage
	c.Expire.RedeemUnlimited = strconv.FormatBool(req.RedeemUnlimited)
	c.Expire.ExpireNever = strconv.FormatBool(req.ExpireNever)
	c.Expire.Limit = req.ExpireLimit
	c.Expire.Date = req.ExpireDate
	c.BasketType = req.BasketType
	c.StartDate = req.StartDate
	c.UserLimit = req.UserLimit
	c.Minimum = req.Minimum
	c.Username = req.Username
	c.Note = req.Note
	s.coupons[c.ID] = c
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"data": c})
}

func (s *Server) getCoupon(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	c, ok := s.Coupon(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error_code": 404, "error_message": "coupon not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": c})
}

func (s *Server) deleteCoupon(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	s.mu.Lock()
	_, ok := s.coupons[id]
	delete(s.coupons, id)
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error_code": 404, "error_message": "coupon not found"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listPackages(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]Package, 0, len(s.packages))
	for _, p := range s.packages {
		out = append(out, p)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) updatePackage(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	var req struct {
		Price float64 `json:"price"`
	}

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error_code": 422, "error_message": "invalid body"})
		return
	}

	s.mu.Lock()
	p, ok := s.packages[id]
	if ok {
		p.Price = req.Price
		s.packages[id] = p
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error_code": 404, "error_message": "package not found"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
