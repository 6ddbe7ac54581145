// Package stubapi is an in-memory double of the media platform used by the
// harness's own tests. It reproduces the platform's wire contract exactly:
// the {status, data} envelope, domain errors on transport 200, the null
// payload for a missing single entity, the empty list for a filter that
// matches nothing, and the coupon code rules on both create and update.
//
// Wrap it in httptest.NewServer and point an apiclient.Client at it.
package stubapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const codeAlreadyExists = "COUPON_CODE_ALREADY_EXISTS"

type entity map[string]interface{}

// Server is the fake platform. All state lives in memory.
type Server struct {
	token string

	mu         sync.Mutex
	categories map[string]entity
	media      map[string]entity
	groups     map[string]entity
	coupons    map[string]entity
	order      []string // coupon insertion order, for stable listings
}

// New creates a Server that requires the given API token.
func New(token string) *Server {
	return &Server{
		token:      token,
		categories: make(map[string]entity),
		media:      make(map[string]entity),
		groups:     make(map[string]entity),
		coupons:    make(map[string]entity),
	}
}

// Handler returns the HTTP surface of the fake platform.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.auth)

	r.Route("/category", func(r chi.Router) {
		r.Get("/", s.listCategories)
		r.Post("/", s.createCategory)
		r.Get("/{id}", s.getCategory)
		r.Post("/{id}", s.updateCategory)
		r.Delete("/{id}", s.deleteCategory)
	})

	r.Route("/media", func(r chi.Router) {
		r.Get("/", s.listMedia)
		r.Post("/", s.createMedia)
		r.Get("/{id}", s.getMedia)
		r.Post("/{id}", s.updateMedia)
		r.Delete("/{id}", s.deleteMedia)
	})

	r.Route("/coupon", func(r chi.Router) {
		r.Get("/", s.listCoupons)
		r.Post("/", s.createCoupon)
		r.Get("/group", s.listGroups)
		r.Post("/group", s.createGroup)
		r.Delete("/group/{id}", s.deleteGroup)
		r.Get("/{id}", s.getCoupon)
		r.Post("/{id}", s.updateCoupon)
		r.Delete("/{id}", s.deleteCoupon)
	})

	return r
}

// ─── Envelope helpers ─────────────────────────────────────────────────────────

func writeEnvelope(w http.ResponseWriter, code int, status string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"data":   data,
	})
}

func ok(w http.ResponseWriter, data interface{})   { writeEnvelope(w, 200, "OK", data) }
func notFound(w http.ResponseWriter)               { writeEnvelope(w, 200, "ERROR", nil) }
func badRequest(w http.ResponseWriter, msg string) { writeEnvelope(w, 400, "ERROR", msg) }
func unauthorized(w http.ResponseWriter)           { writeEnvelope(w, 401, "ERROR", "invalid token") }

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

// auth accepts the token either as the X-API-Token header or the "token"
// query parameter, like the real platform.
func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Token") != s.token && r.URL.Query().Get("token") != s.token {
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clone keeps handler responses detached from the stored maps.
func clone(e entity) entity {
	out := make(entity, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// ─── Categories ───────────────────────────────────────────────────────────────

func (s *Server) listCategories(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, clone(c))
	}
	ok(w, out)
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("name")
	if name == "" {
		badRequest(w, "name is required")
		return
	}
	c := entity{
		"_id":          newID(),
		"name":         name,
		"slug":         r.FormValue("slug"),
		"visible":      r.FormValue("visible") == "true",
		"date_created": now(),
	}
	s.mu.Lock()
	s.categories[c["_id"].(string)] = c
	s.mu.Unlock()
	ok(w, clone(c))
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, found := s.categories[chi.URLParam(r, "id")]
	if !found {
		notFound(w)
		return
	}
	ok(w, clone(c))
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, found := s.categories[chi.URLParam(r, "id")]
	if !found {
		notFound(w)
		return
	}
	for _, f := range []string{"name", "slug"} {
		if v := r.FormValue(f); v != "" {
			c[f] = v
		}
	}
	if v := r.FormValue("visible"); v != "" {
		c["visible"] = v == "true"
	}
	ok(w, clone(c))
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	if _, found := s.categories[id]; !found {
		notFound(w)
		return
	}
	delete(s.categories, id)
	ok(w, nil)
}

// ─── Media ────────────────────────────────────────────────────────────────────

func (s *Server) listMedia(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity, 0, len(s.media))
	for _, m := range s.media {
		out = append(out, clone(m))
	}
	ok(w, out)
}

func (s *Server) createMedia(w http.ResponseWriter, r *http.Request) {
	title := r.FormValue("title")
	if title == "" {
		badRequest(w, "title is required")
		return
	}
	id := newID()
	m := entity{
		"id":           id,
		"_id":          id,
		"title":        title,
		"type":         r.FormValue("type"),
		"status":       "active",
		"duration":     json.Number(orDefault(r.FormValue("duration"), "0")),
		"views":        json.Number("0"),
		"categories":   []interface{}{},
		"slug":         r.FormValue("slug"),
		"date_created": now(),
	}
	s.mu.Lock()
	s.media[id] = m
	s.mu.Unlock()
	ok(w, clone(m))
}

func (s *Server) getMedia(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, found := s.media[chi.URLParam(r, "id")]
	if !found {
		notFound(w)
		return
	}
	ok(w, clone(m))
}

func (s *Server) updateMedia(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, found := s.media[chi.URLParam(r, "id")]
	if !found {
		notFound(w)
		return
	}
	for _, f := range []string{"title", "type", "slug"} {
		if v := r.FormValue(f); v != "" {
			m[f] = v
		}
	}
	if v := r.FormValue("duration"); v != "" {
		m["duration"] = json.Number(v)
	}
	ok(w, clone(m))
}

func (s *Server) deleteMedia(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	if _, found := s.media[id]; !found {
		notFound(w)
		return
	}
	delete(s.media, id)
	ok(w, nil)
}

// ─── Coupon groups ────────────────────────────────────────────────────────────

func (s *Server) listGroups(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, clone(g))
	}
	ok(w, out)
}

func (s *Server) createGroup(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("name")
	if name == "" {
		badRequest(w, "name is required")
		return
	}
	g := entity{
		"_id":          newID(),
		"name":         name,
		"date_created": now(),
	}
	s.mu.Lock()
	s.groups[g["_id"].(string)] = g
	s.mu.Unlock()
	ok(w, clone(g))
}

func (s *Server) deleteGroup(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	if _, found := s.groups[id]; !found {
		notFound(w)
		return
	}
	delete(s.groups, id)
	ok(w, nil)
}

// ─── Coupons ──────────────────────────────────────────────────────────────────

// listCoupons returns every coupon, or only those in ?group= / ?subgroup=.
// A filter that matches nothing is OK + empty list, never an error.
func (s *Server) listCoupons(w http.ResponseWriter, r *http.Request) {
	groupFilter := r.URL.Query().Get("group")
	subgroupFilter := r.URL.Query().Get("subgroup")

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity, 0, len(s.order))
	for _, id := range s.order {
		c, found := s.coupons[id]
		if !found {
			continue
		}
		if groupFilter != "" && c["group"] != groupFilter {
			continue
		}
		if subgroupFilter != "" && c["subgroup"] != subgroupFilter {
			continue
		}
		out = append(out, listView(c))
	}
	ok(w, out)
}

// listView strips the detail-only fields, matching the platform's slimmer
// list representation.
func listView(c entity) entity {
	out := entity{
		"_id":          c["_id"],
		"group":        c["group"],
		"code":         c["code"],
		"date_created": c["date_created"],
	}
	if sub, found := c["subgroup"]; found {
		out["subgroup"] = sub
	}
	return out
}

func (s *Server) createCoupon(w http.ResponseWriter, r *http.Request) {
	groupID := r.FormValue("group")
	if groupID == "" {
		badRequest(w, "group is required")
		return
	}
	if v := r.FormValue("valid_from"); v != "" {
		if _, err := time.Parse(time.RFC3339, v); err != nil {
			if _, err := time.Parse("2006-01-02", v); err != nil {
				badRequest(w, "valid_from is not a date")
				return
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.groups[groupID]; !found {
		badRequest(w, "group does not exist")
		return
	}

	reusable := r.FormValue("is_reusable") == "true"
	code := r.FormValue("code")
	if code == "" {
		code = strings.ToUpper(newID()[:12])
	} else if s.codeTakenLocked(code, "") {
		if reusable {
			badRequest(w, codeAlreadyExists)
			return
		}
		// Non-reusable coupons resolve the collision with a system code.
		code = strings.ToUpper(newID()[:12])
	}

	c := entity{
		"_id":          newID(),
		"group":        groupID,
		"code":         code,
		"detail":       r.FormValue("detail"),
		"amount":       json.Number(orDefault(r.FormValue("amount"), "0")),
		"is_reusable":  reusable,
		"is_used":      false,
		"is_valid":     true,
		"date_created": now(),
	}
	if sub := r.FormValue("subgroup"); sub != "" {
		c["subgroup"] = sub
	}
	id := c["_id"].(string)
	s.coupons[id] = c
	s.order = append(s.order, id)
	ok(w, clone(c))
}

func (s *Server) getCoupon(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, found := s.coupons[chi.URLParam(r, "id")]
	if !found {
		notFound(w)
		return
	}
	ok(w, detailView(c, s.groups))
}

// detailView expands the group relation into an embedded object when the
// group still exists, matching the platform's detail representation.
func detailView(c entity, groups map[string]entity) entity {
	out := clone(c)
	if g, found := groups[c["group"].(string)]; found {
		out["group"] = entity{"_id": g["_id"], "name": g["name"]}
	}
	return out
}

// updateCoupon applies the submitted fields. A code that collides with
// another coupon is silently dropped: the call succeeds and the remaining
// fields are still applied.
func (s *Server) updateCoupon(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	c, found := s.coupons[id]
	if !found {
		notFound(w)
		return
	}

	if code := r.FormValue("code"); code != "" && !s.codeTakenLocked(code, id) {
		c["code"] = code
	}
	if v := r.FormValue("detail"); v != "" {
		c["detail"] = v
	}
	if v := r.FormValue("amount"); v != "" {
		c["amount"] = json.Number(v)
	}
	ok(w, clone(c))
}

func (s *Server) deleteCoupon(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	if _, found := s.coupons[id]; !found {
		notFound(w)
		return
	}
	delete(s.coupons, id)
	ok(w, nil)
}

// codeTakenLocked reports whether another coupon already carries code.
// Caller holds s.mu.
func (s *Server) codeTakenLocked(code, exceptID string) bool {
	for id, c := range s.coupons {
		if id != exceptID && c["code"] == code {
			return true
		}
	}
	return false
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
