package httpx

import (
	"errors"
	"net/http"
	"sync"

	"github.com/go-playground/validator/v10"
)

// statusEntry binds one sentinel error to its HTTP representation.
type statusEntry struct {
	target error
	status int
	title  string
}

var (
	statusMu    sync.RWMutex
	statusTable []statusEntry
)

// RegisterStatus associates a sentinel error with an HTTP status and
// problem title. Domain packages register their sentinels at init so
// this package stays free of domain imports. First match wins.
func RegisterStatus(target error, status int, title string) {
	if target == nil {
		return
	}
	statusMu.Lock()
	defer statusMu.Unlock()
	statusTable = append(statusTable, statusEntry{target: target, status: status, title: title})
}

// RespondError maps an error to an HTTP problem response using the
// registered sentinel table. Unregistered errors become a 500 with no
// detail leaked.
func RespondError(w http.ResponseWriter, err error) {
	var invalid validator.ValidationErrors
	if errors.As(err, &invalid) {
		Problem(w, http.StatusBadRequest, "Validation Failed", invalid.Error())
		return
	}
	statusMu.RLock()
	defer statusMu.RUnlock()
	for _, entry := range statusTable {
		if errors.Is(err, entry.target) {
			Problem(w, entry.status, entry.title, err.Error())
			return
		}
	}
	Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
