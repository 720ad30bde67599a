package handler

import (
	"net/http"
	"strings"

	"github.com/bcnelson/pricing-catalog/internal/domain"
)

// GenerateETag quotes a catalog content hash for use as an HTTP ETag.
func GenerateETag(hash string) string {
	return `"` + hash + `"`
}

// SetETagHeader sets the ETag header on the response.
func SetETagHeader(w http.ResponseWriter, hash string) {
	w.Header().Set("ETag", GenerateETag(hash))
}

// CheckIfMatch checks if the If-Match header matches the current ETag.
// Returns true if:
//   - No If-Match header is present (ETag checking is optional)
//   - The If-Match header is "*"
//   - Any listed ETag matches the current one
func CheckIfMatch(r *http.Request, hash string) bool {
	ifMatch := strings.TrimSpace(r.Header.Get("If-Match"))
	if ifMatch == "" || ifMatch == "*" {
		return true
	}

	current := GenerateETag(hash)
	for _, candidate := range strings.Split(ifMatch, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == current {
			return true
		}
	}
	return false
}

// CheckIfNoneMatch reports whether the client already holds the current tree.
func CheckIfNoneMatch(r *http.Request, hash string) bool {
	ifNoneMatch := strings.TrimSpace(r.Header.Get("If-None-Match"))
	return ifNoneMatch != "" && ifNoneMatch == GenerateETag(hash)
}

// RespondPreconditionFailed writes a 412 Precondition Failed response.
func RespondPreconditionFailed(w http.ResponseWriter, hash string) {
	respondStandardError(w, http.StatusPreconditionFailed, domain.ErrCodePreconditionFailed,
		"catalog has been modified", "", map[string]any{
			"currentETag": GenerateETag(hash),
		})
}
