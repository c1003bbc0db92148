package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/nsets/erp-backend/pkg/errors"
)

func queryValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

func invalidQuery(key, msg string, extra map[string]any) error {
	details := map[string]any{"field": key}
	for k, v := range extra {
		details[k] = v
	}
	return pkgerrors.New(pkgerrors.CodeValidation, key+" "+msg).WithDetails(details)
}

// ParseQueryInt returns defaultVal when the parameter is absent.
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := queryValue(r, key)
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidQuery(key, "must be numeric", nil)
	}
	if value < min || value > max {
		return 0, invalidQuery(key, "out of range", map[string]any{"min": min, "max": max})
	}
	return value, nil
}

// ParseQueryID parses an optional positive id filter; zero means absent.
func ParseQueryID(r *http.Request, key string) (int64, error) {
	raw := queryValue(r, key)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, invalidQuery(key, "must be a positive integer", nil)
	}
	return id, nil
}

func ParseQueryBool(r *http.Request, key string) (bool, error) {
	raw := queryValue(r, key)
	if raw == "" {
		return false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, invalidQuery(key, "must be a boolean", nil)
	}
	return value, nil
}
