package api

import (
	"net/http"

	"github.com/okian/medalboard/internal/domain/filter"
)

// selection reads the years and countries query parameters against the
// session domain. A missing parameter selects the whole domain.
func selection(r *http.Request, d filter.Domain) (filter.Selection, error) {
	sel, err := filter.Parse(r.URL.Query(), d)
	if err != nil {
		return filter.Selection{}, WrapKind("api.selection", ErrBadRequest, err)
	}
	return sel, nil
}
