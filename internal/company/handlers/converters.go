package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	e "github.com/gartstein/companyemployees/internal/company/errors"
	"github.com/gartstein/companyemployees/internal/company/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	mediaTypeJSON = "application/json"
	mediaTypeCSV  = "text/csv"
)

// parseIDs binds a comma-separated list of GUIDs. An empty list binds to nil.
func parseIDs(raw string) ([]uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uuid.UUID, 0, len(parts))
	for _, p := range parts {
		id, err := uuid.Parse(strings.TrimSpace(p))
		if err != nil {
			return nil, e.BadRequest("Value '%s' is not a valid GUID.", strings.TrimSpace(p))
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// routeID reads a GUID route parameter. Malformed values match no resource.
func routeID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, &e.Error{Kind: e.ErrNotFound, Message: fmt.Sprintf("No resource matches %s.", r.URL.Path)}
	}
	return id, nil
}

// employeeParameters binds paging, filtering, searching and ordering from the query string.
func employeeParameters(q url.Values) (models.EmployeeParameters, error) {
	p := models.NewEmployeeParameters()
	ints := []struct {
		name string
		dst  *int
	}{
		{"pageNumber", &p.PageNumber},
		{"pageSize", &p.PageSize},
		{"minAge", &p.MinAge},
		{"maxAge", &p.MaxAge},
	}
	for _, f := range ints {
		raw := q.Get(f.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return p, e.BadRequest("The value '%s' is not valid for %s.", raw, f.name)
		}
		*f.dst = v
	}
	if s := q.Get("searchTerm"); s != "" {
		p.SearchTerm = s
	}
	if o := q.Get("orderBy"); o != "" {
		p.OrderBy = o
	}
	p.Normalize()
	return p, nil
}

// negotiate picks the response media type from the Accept header. It reports
// false when none of the accepted types can be produced.
func negotiate(r *http.Request, csvCapable bool) (string, bool) {
	accept := r.Header.Get("Accept")
	if accept == "" {
		return mediaTypeJSON, true
	}
	for _, part := range strings.Split(accept, ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch mediaType {
		case mediaTypeCSV:
			if csvCapable {
				return mediaTypeCSV, true
			}
		case mediaTypeJSON, "application/*", "*/*", "text/json":
			return mediaTypeJSON, true
		}
	}
	return "", false
}

// writeCompaniesCSV renders companies one per line as id,name,fullAddress.
func writeCompaniesCSV(w io.Writer, companies ...models.CompanyDto) error {
	cw := csv.NewWriter(w)
	for _, c := range companies {
		if err := cw.Write([]string{c.ID.String(), c.Name, c.FullAddress}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
