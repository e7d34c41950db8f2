package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gartstein/companyemployees/internal/company/controller"
	e "github.com/gartstein/companyemployees/internal/company/errors"
	"github.com/gartstein/companyemployees/internal/company/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CompaniesTag tags every cached company response.
const CompaniesTag = "companies"

// Evictor drops cached responses by tag.
type Evictor interface {
	EvictByTag(ctx context.Context, tag string) error
}

// CompaniesHandler serves /api/companies.
type CompaniesHandler struct {
	errorWriter
	services *controller.ServiceManager
	cache    Evictor
	logger   *zap.Logger
}

func NewCompaniesHandler(services *controller.ServiceManager, cache Evictor, logger *zap.Logger) *CompaniesHandler {
	logger = logger.Named("companies_handler")
	return &CompaniesHandler{
		errorWriter: errorWriter{logger: logger},
		services:    services,
		cache:       cache,
		logger:      logger,
	}
}

func (h *CompaniesHandler) GetCompanies(w http.ResponseWriter, r *http.Request) {
	mediaType, ok := negotiate(r, true)
	if !ok {
		w.WriteHeader(http.StatusNotAcceptable)
		return
	}

	companies, err := h.services.CompanyService().GetAllCompanies(r.Context(), false)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeCompanies(w, mediaType, companies...)
}

// GetCompaniesV2 lists company names only.
func (h *CompaniesHandler) GetCompaniesV2(w http.ResponseWriter, r *http.Request) {
	companies, err := h.services.CompanyService().GetAllCompanies(r.Context(), false)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	names := make([]string, 0, len(companies))
	for _, c := range companies {
		names = append(names, c.Name+" V2")
	}
	writeJSON(w, http.StatusOK, names)
}

func (h *CompaniesHandler) GetCompany(w http.ResponseWriter, r *http.Request) {
	mediaType, ok := negotiate(r, true)
	if !ok {
		w.WriteHeader(http.StatusNotAcceptable)
		return
	}
	id, err := routeID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	company, err := h.services.CompanyService().GetCompany(r.Context(), id, false)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("ETag", fmt.Sprintf("%q", strings.ReplaceAll(uuid.NewString(), "-", "")))
	if mediaType == mediaTypeCSV {
		h.writeCompanies(w, mediaType, *company)
		return
	}
	writeJSON(w, http.StatusOK, company)
}

func (h *CompaniesHandler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	input, err := decodeBody[models.CompanyForCreation](r, "CompanyForCreationDto")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := validateStruct(input); err != nil {
		h.writeError(w, r, err)
		return
	}

	company, err := h.services.CompanyService().CreateCompany(r.Context(), *input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.evict(r.Context())

	w.Header().Set("Location", "/api/companies/"+company.ID.String())
	writeJSON(w, http.StatusCreated, company)
}

func (h *CompaniesHandler) GetCompanyCollection(w http.ResponseWriter, r *http.Request) {
	ids, err := parseIDs(chi.URLParam(r, "ids"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	companies, err := h.services.CompanyService().GetByIDs(r.Context(), ids, false)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, companies)
}

func (h *CompaniesHandler) CreateCompanyCollection(w http.ResponseWriter, r *http.Request) {
	var input []models.CompanyForCreation
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, r, e.BadRequest("The request body is not valid JSON: %v", err))
		return
	}
	for i := range input {
		if err := validateStruct(&input[i]); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	result, err := h.services.CompanyService().CreateCompanyCollection(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.evict(r.Context())

	w.Header().Set("Location", "/api/companies/collection/("+result.IDs+")")
	writeJSON(w, http.StatusCreated, result.Companies)
}

func (h *CompaniesHandler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	id, err := routeID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	input, err := decodeBody[models.CompanyForUpdate](r, "CompanyForUpdateDto")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := validateStruct(input); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.services.CompanyService().UpdateCompany(r.Context(), id, *input, true); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.evict(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *CompaniesHandler) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	id, err := routeID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.services.CompanyService().DeleteCompany(r.Context(), id, false); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.evict(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *CompaniesHandler) GetCompaniesOptions(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Allow", "GET, OPTIONS, POST, PUT, DELETE")
	w.WriteHeader(http.StatusOK)
}

func (h *CompaniesHandler) NonCachedOutput(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, fmt.Sprintf("Output was generated at %s", time.Now().Format(time.RFC3339Nano)))
}

func (h *CompaniesHandler) VaryByKey(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, fmt.Sprintf("%s %s - retrieved at %s", q.Get("firstKey"), q.Get("secondKey"), time.Now().Format(time.RFC3339Nano)))
}

func (h *CompaniesHandler) writeCompanies(w http.ResponseWriter, mediaType string, companies ...models.CompanyDto) {
	if mediaType != mediaTypeCSV {
		writeJSON(w, http.StatusOK, companies)
		return
	}
	w.Header().Set("Content-Type", mediaTypeCSV+"; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := writeCompaniesCSV(w, companies...); err != nil {
		h.logger.Error("Failed to write CSV response", zap.Error(err))
	}
}

// evict drops cached company responses after a write. Failures only cost freshness.
func (h *CompaniesHandler) evict(ctx context.Context) {
	if h.cache == nil {
		return
	}
	if err := h.cache.EvictByTag(ctx, CompaniesTag); err != nil {
		h.logger.Warn("Failed to evict cached companies", zap.Error(err))
	}
}
