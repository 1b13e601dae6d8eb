// Package chi exposes the catalog over HTTP: public search and book
// pages, the annotation API, and admin record management.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/winthrop-cdh/catalog/internal/domain"
	domsearch "github.com/winthrop-cdh/catalog/internal/domain/search"
	annotationuc "github.com/winthrop-cdh/catalog/internal/usecase/annotation"
	bookuc "github.com/winthrop-cdh/catalog/internal/usecase/book"
	footnoteuc "github.com/winthrop-cdh/catalog/internal/usecase/footnote"
	healthuc "github.com/winthrop-cdh/catalog/internal/usecase/health"
	indexuc "github.com/winthrop-cdh/catalog/internal/usecase/index"
	peopleuc "github.com/winthrop-cdh/catalog/internal/usecase/people"
	placesuc "github.com/winthrop-cdh/catalog/internal/usecase/places"
	searchuc "github.com/winthrop-cdh/catalog/internal/usecase/search"
)

// queryParseMessage is shown to users when their keyword query does
// not parse. The raw query is passed to the backend unescaped so that
// operators work, which means typos can produce syntax errors.
const queryParseMessage = "Unable to parse search query; please revise and try again."

const suggestLimit = 10

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server routes catalog HTTP requests to the usecase services.
type Server struct {
	search        *searchuc.Service
	books         *bookuc.Service
	people        *peopleuc.Service
	places        *placesuc.Service
	annotations   *annotationuc.Service
	footnotes     *footnoteuc.Service
	projector     *indexuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	books *bookuc.Service,
	people *peopleuc.Service,
	places *placesuc.Service,
	annotations *annotationuc.Service,
	footnotes *footnoteuc.Service,
	projector *indexuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:      search,
		books:       books,
		people:      people,
		places:      places,
		annotations: annotations,
		footnotes:   footnotes,
		projector:   projector,
		health:      health,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrQueryParse, http.StatusBadRequest, codeQueryParse),
		sentinelHandler(domain.ErrInvalidRange, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, codeAlreadyExists),
		sentinelHandler(domain.ErrAmbiguousMatch, http.StatusConflict, codeAmbiguousMatch),
	}
	return s
}

// Register mounts every route on the router.
func (s *Server) Register(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/books", s.SearchBooks)
		r.Get("/books/facets", s.BookFacets)
		r.Post("/books", s.CreateBook)
		r.Route("/books/{slug}", func(r chi.Router) {
			r.Get("/", s.GetBook)
			r.Put("/", s.UpdateBook)
			r.Delete("/", s.DeleteBook)
			r.Get("/pages", s.BookPages)
			r.Post("/creators", s.AddCreator)
			r.Delete("/creators", s.RemoveCreator)
			r.Post("/people", s.AddPersonBook)
		})

		r.Get("/suggest/{field}", s.Suggest)

		r.Post("/people", s.CreatePerson)
		r.Route("/people/{id}", func(r chi.Router) {
			r.Get("/", s.GetPerson)
			r.Put("/", s.UpdatePerson)
			r.Delete("/", s.DeletePerson)
			r.Post("/residences", s.AddResidence)
			r.Post("/relationships", s.AddRelationship)
		})

		r.Post("/places", s.CreatePlace)
		r.Get("/places/{id}", s.GetPlace)
		r.Put("/places/{id}", s.UpdatePlace)

		r.Get("/annotations", s.SearchAnnotations)
		r.Post("/annotations", s.CreateAnnotation)
		r.Route("/annotations/{id}", func(r chi.Router) {
			r.Get("/", s.GetAnnotation)
			r.Put("/", s.UpdateAnnotation)
			r.Delete("/", s.DeleteAnnotation)
		})

		r.Post("/bibliographies", s.CreateBibliography)
		r.Post("/footnotes", s.CreateFootnote)
		r.Get("/footnotes", s.ListFootnotes)

		r.Post("/reindex", s.Reindex)
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// formFromQuery builds a search form from URL query parameters.
func formFromQuery(r *http.Request) *domsearch.Form {
	q := r.URL.Query()
	f := &domsearch.Form{
		Query:     q.Get("q"),
		Sort:      domsearch.Sort(q.Get("sort")),
		YearStart: atoiParam(q.Get("year_start")),
		YearEnd:   atoiParam(q.Get("year_end")),
		Page:      atoiParam(q.Get("page")),
		PageSize:  atoiParam(q.Get("page_size")),
	}
	for _, field := range domsearch.FilterFields {
		if vals := q[field]; len(vals) > 0 {
			if f.Filters == nil {
				f.Filters = make(map[string][]string)
			}
			f.Filters[field] = vals
		}
	}
	return f
}

// SearchBooks handles GET /api/v1/books.
func (s *Server) SearchBooks(w http.ResponseWriter, r *http.Request) {
	page, err := s.search.Books(r.Context(), formFromQuery(r))
	if err != nil {
		if errors.Is(err, domain.ErrQueryParse) {
			s.logger.Info("query parse failure", zap.Error(err))
			writeError(w, http.StatusBadRequest, codeQueryParse, queryParseMessage)
			return
		}
		if errors.Is(err, domain.ErrSearchUnavailable) && page != nil {
			// Degraded page keeps the response shape for the client.
			s.logger.Error("search backend failure", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, page)
			return
		}
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// BookFacets handles GET /api/v1/books/facets.
func (s *Server) BookFacets(w http.ResponseWriter, r *http.Request) {
	facets, err := s.search.Facets(r.Context(), formFromQuery(r))
	if err != nil {
		if errors.Is(err, domain.ErrQueryParse) {
			writeError(w, http.StatusBadRequest, codeQueryParse, queryParseMessage)
			return
		}
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, facets)
}

// GetBook handles GET /api/v1/books/{slug}.
func (s *Server) GetBook(w http.ResponseWriter, r *http.Request) {
	d, err := s.books.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detailToJSON(d))
}

// BookPages handles GET /api/v1/books/{slug}/pages.
func (s *Server) BookPages(w http.ResponseWriter, r *http.Request) {
	pages, err := s.books.Pages(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pages)
}

// CreateBook handles POST /api/v1/books.
func (s *Server) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Book title is required")
		return
	}
	b := bookFromJSON(req.bookJSON)
	if err := s.books.Create(r.Context(), &b, req.FirstAuthor); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/books/"+b.Slug)
	writeJSON(w, http.StatusCreated, bookToJSON(&b))
}

// UpdateBook handles PUT /api/v1/books/{slug}.
func (s *Server) UpdateBook(w http.ResponseWriter, r *http.Request) {
	var req bookJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	b := bookFromJSON(req)
	b.Slug = chi.URLParam(r, "slug")
	if err := s.books.Update(r.Context(), &b); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookToJSON(&b))
}

// DeleteBook handles DELETE /api/v1/books/{slug}.
func (s *Server) DeleteBook(w http.ResponseWriter, r *http.Request) {
	if err := s.books.Delete(r.Context(), chi.URLParam(r, "slug")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddCreator handles POST /api/v1/books/{slug}/creators.
func (s *Server) AddCreator(w http.ResponseWriter, r *http.Request) {
	var req creatorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	c := domain.Creator{
		CreatorType: req.CreatorType,
		PersonID:    req.PersonID,
		BookSlug:    chi.URLParam(r, "slug"),
		Notes:       req.Notes,
	}
	if err := s.books.AddCreator(r.Context(), &c); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddPersonBook handles POST /api/v1/books/{slug}/people, recording a
// non-authorial person-book interaction such as ownership.
func (s *Server) AddPersonBook(w http.ResponseWriter, r *http.Request) {
	var req personBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	pb := domain.PersonBook{
		PersonID:  req.PersonID,
		BookSlug:  chi.URLParam(r, "slug"),
		StartYear: req.StartYear,
		EndYear:   req.EndYear,
		Notes:     req.Notes,
	}
	if err := s.books.AddPersonBook(r.Context(), &pb); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveCreator handles DELETE /api/v1/books/{slug}/creators.
func (s *Server) RemoveCreator(w http.ResponseWriter, r *http.Request) {
	var req creatorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	c := domain.Creator{
		CreatorType: req.CreatorType,
		PersonID:    req.PersonID,
		BookSlug:    chi.URLParam(r, "slug"),
	}
	if err := s.books.RemoveCreator(r.Context(), &c); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// suggestKinds maps autocomplete fields to vocabulary kinds served by
// the book repository. Person and place names come from their own repos.
var suggestKinds = map[string]domain.Kind{
	"publisher": domain.KindPublisher,
	"subject":   domain.KindSubject,
	"language":  domain.KindLanguage,
}

// Suggest handles GET /api/v1/suggest/{field}?q=.
func (s *Server) Suggest(w http.ResponseWriter, r *http.Request) {
	field := chi.URLParam(r, "field")
	term := r.URL.Query().Get("q")

	var (
		names []string
		err   error
	)
	switch field {
	case "person":
		names, err = s.people.ListNames(r.Context())
	case "place":
		names, err = s.places.ListNames(r.Context())
	default:
		kind, ok := suggestKinds[field]
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "unknown suggest field "+strconv.Quote(field))
			return
		}
		names, err = s.books.VocabNames(r.Context(), kind)
	}
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	matched := filterNames(names, term, suggestLimit)
	writeJSON(w, http.StatusOK, map[string][]string{"suggestions": matched})
}

// filterNames returns up to limit names containing term,
// case-insensitively, in sorted order.
func filterNames(names []string, term string, limit int) []string {
	term = strings.ToLower(term)
	matched := make([]string, 0, limit)
	sort.Strings(names)
	for _, n := range names {
		if term != "" && !strings.Contains(strings.ToLower(n), term) {
			continue
		}
		matched = append(matched, n)
		if len(matched) == limit {
			break
		}
	}
	return matched
}

// CreatePerson handles POST /api/v1/people.
func (s *Server) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var req personJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.AuthorizedName == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Authorized name is required")
		return
	}
	p := personFromJSON(req)
	p.ID = 0
	if err := s.people.Create(r.Context(), &p); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, personToJSON(&p))
}

// GetPerson handles GET /api/v1/people/{id}.
func (s *Server) GetPerson(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	p, err := s.people.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, personToJSON(p))
}

// UpdatePerson handles PUT /api/v1/people/{id}.
func (s *Server) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req personJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	p := personFromJSON(req)
	p.ID = id
	if err := s.people.Update(r.Context(), &p); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, personToJSON(&p))
}

// DeletePerson handles DELETE /api/v1/people/{id}.
func (s *Server) DeletePerson(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := s.people.Delete(r.Context(), id); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddResidence handles POST /api/v1/people/{id}/residences.
func (s *Server) AddResidence(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req residenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	res := domain.Residence{
		PersonID:  id,
		PlaceID:   req.PlaceID,
		StartYear: req.StartYear,
		EndYear:   req.EndYear,
		Notes:     req.Notes,
	}
	if err := s.people.AddResidence(r.Context(), &res); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddRelationship handles POST /api/v1/people/{id}/relationships. The
// path id is the relationship's origin.
func (s *Server) AddRelationship(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req relationshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	rel := domain.Relationship{
		FromPersonID: id,
		ToPersonID:   req.ToPersonID,
		TypeID:       req.TypeID,
		StartYear:    req.StartYear,
		EndYear:      req.EndYear,
		Notes:        req.Notes,
	}
	if err := s.people.AddRelationship(r.Context(), &rel); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreatePlace handles POST /api/v1/places.
func (s *Server) CreatePlace(w http.ResponseWriter, r *http.Request) {
	var req placeJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Place name is required")
		return
	}
	p := placeFromJSON(req)
	p.ID = 0
	if err := s.places.Create(r.Context(), &p); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, placeToJSON(&p))
}

// GetPlace handles GET /api/v1/places/{id}.
func (s *Server) GetPlace(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	p, err := s.places.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, placeToJSON(p))
}

// UpdatePlace handles PUT /api/v1/places/{id}.
func (s *Server) UpdatePlace(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req placeJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	p := placeFromJSON(req)
	p.ID = id
	if err := s.places.Update(r.Context(), &p); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, placeToJSON(&p))
}

// SearchAnnotations handles GET /api/v1/annotations?uri=&author_id=.
func (s *Server) SearchAnnotations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	authorID := int64(atoiParam(q.Get("author_id")))

	anns, err := s.annotations.Search(r.Context(), q.Get("uri"), authorID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	items := make([]annotationJSON, 0, len(anns))
	for _, a := range anns {
		items = append(items, annotationToJSON(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
}

// CreateAnnotation handles POST /api/v1/annotations.
func (s *Server) CreateAnnotation(w http.ResponseWriter, r *http.Request) {
	var req annotationJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.URI == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Annotation target uri is required")
		return
	}
	a := annotationFromJSON(req)
	a.ID = ""
	if err := s.annotations.Save(r.Context(), &a); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/annotations/"+a.ID)
	writeJSON(w, http.StatusCreated, annotationToJSON(&a))
}

// GetAnnotation handles GET /api/v1/annotations/{id}. The payload is
// denormalized for the annotator client.
func (s *Server) GetAnnotation(w http.ResponseWriter, r *http.Request) {
	info, err := s.annotations.Info(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// UpdateAnnotation handles PUT /api/v1/annotations/{id}.
func (s *Server) UpdateAnnotation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing, err := s.annotations.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	var req annotationJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	a := annotationFromJSON(req)
	a.ID = id
	a.Created = existing.Created
	if err := s.annotations.Save(r.Context(), &a); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, annotationToJSON(&a))
}

// DeleteAnnotation handles DELETE /api/v1/annotations/{id}.
func (s *Server) DeleteAnnotation(w http.ResponseWriter, r *http.Request) {
	if err := s.annotations.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateBibliography handles POST /api/v1/bibliographies.
func (s *Server) CreateBibliography(w http.ResponseWriter, r *http.Request) {
	var req bibliographyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	bib, err := s.footnotes.CreateBibliography(r.Context(), req.BibliographicNote, req.SourceType)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bibliographyToJSON(bib))
}

// CreateFootnote handles POST /api/v1/footnotes.
func (s *Server) CreateFootnote(w http.ResponseWriter, r *http.Request) {
	var req footnoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	f := domain.Footnote{
		BibliographyID: req.BibliographyID,
		Location:       req.Location,
		SnippetText:    req.SnippetText,
		ContentRef:     domain.ContentRef{Kind: domain.Kind(req.Kind), ID: req.RefID},
		IsAgree:        req.IsAgree,
		Notes:          req.Notes,
	}
	if err := s.footnotes.Attach(r.Context(), &f); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// ListFootnotes handles GET /api/v1/footnotes?kind=&id=.
func (s *Server) ListFootnotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ref := domain.ContentRef{Kind: domain.Kind(q.Get("kind")), ID: q.Get("id")}
	if ref.Kind == "" || ref.ID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "kind and id are required")
		return
	}
	citations, err := s.footnotes.For(r.Context(), ref)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	items := make([]citationJSON, 0, len(citations))
	for _, c := range citations {
		items = append(items, citationToJSON(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
}

// Reindex handles POST /api/v1/reindex. Rebuilds every projected
// document from the entity records.
func (s *Server) Reindex(w http.ResponseWriter, r *http.Request) {
	n, err := s.projector.ReindexAll(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"indexed": n})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func atoiParam(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrAlreadyExists,
		domain.ErrInvalidRange,
		domain.ErrInvalidInput,
		domain.ErrAmbiguousMatch,
		domain.ErrQueryParse,
		domain.ErrSearchUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
