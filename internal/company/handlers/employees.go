package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gartstein/companyemployees/internal/company/controller"
	"github.com/gartstein/companyemployees/internal/company/models"
	"go.uber.org/zap"
)

const paginationHeader = "X-Pagination"

// EmployeesHandler serves /api/companies/{companyId}/employees.
type EmployeesHandler struct {
	errorWriter
	services *controller.ServiceManager
	logger   *zap.Logger
}

func NewEmployeesHandler(services *controller.ServiceManager, logger *zap.Logger) *EmployeesHandler {
	logger = logger.Named("employees_handler")
	return &EmployeesHandler{
		errorWriter: errorWriter{logger: logger},
		services:    services,
		logger:      logger,
	}
}

// GetEmployeesForCompany returns one page of employees and describes the page in X-Pagination.
func (h *EmployeesHandler) GetEmployeesForCompany(w http.ResponseWriter, r *http.Request) {
	companyID, err := routeID(r, "companyId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	params, err := employeeParameters(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	employees, meta, err := h.services.EmployeeService().GetEmployees(r.Context(), companyID, params, false)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	raw, err := json.Marshal(meta)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("failed to encode paging metadata: %w", err))
		return
	}
	w.Header().Set(paginationHeader, string(raw))
	writeJSON(w, http.StatusOK, employees)
}

func (h *EmployeesHandler) GetEmployeeForCompany(w http.ResponseWriter, r *http.Request) {
	companyID, err := routeID(r, "companyId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	id, err := routeID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	employee, err := h.services.EmployeeService().GetEmployee(r.Context(), companyID, id, false)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, employee)
}

func (h *EmployeesHandler) CreateEmployeeForCompany(w http.ResponseWriter, r *http.Request) {
	companyID, err := routeID(r, "companyId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	input, err := decodeBody[models.EmployeeForCreation](r, "EmployeeForCreationDto")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := validateStruct(input); err != nil {
		h.writeError(w, r, err)
		return
	}

	employee, err := h.services.EmployeeService().CreateEmployeeForCompany(r.Context(), companyID, *input, false)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/companies/%s/employees/%s", companyID, employee.ID))
	writeJSON(w, http.StatusCreated, employee)
}

func (h *EmployeesHandler) UpdateEmployeeForCompany(w http.ResponseWriter, r *http.Request) {
	companyID, err := routeID(r, "companyId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	id, err := routeID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	input, err := decodeBody[models.EmployeeForUpdate](r, "EmployeeForUpdateDto")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := validateStruct(input); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.services.EmployeeService().UpdateEmployeeForCompany(r.Context(), companyID, id, *input, false, true); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *EmployeesHandler) DeleteEmployeeForCompany(w http.ResponseWriter, r *http.Request) {
	companyID, err := routeID(r, "companyId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	id, err := routeID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.services.EmployeeService().DeleteEmployeeForCompany(r.Context(), companyID, id, false); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
