package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"brokerage/pkg/config"
	apperrors "brokerage/pkg/errors"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"

	RoleCTV   = "CTV"
	RoleAdmin = "ADMIN"
)

// Caller is the identity forwarded by the gateway in front of the service.
type Caller struct {
	UserID string
	Role   string
}

func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// ExtractCaller reads the caller identity headers. Both are required.
func ExtractCaller(r *http.Request) (Caller, error) {
	userID := strings.TrimSpace(r.Header.Get(HeaderUserID))
	role := strings.ToUpper(strings.TrimSpace(r.Header.Get(HeaderUserRole)))

	if userID == "" {
		return Caller{}, apperrors.Unauthorized("missing " + HeaderUserID + " header")
	}
	switch role {
	case RoleCTV, RoleAdmin:
	default:
		return Caller{}, apperrors.Unauthorized("missing or unknown " + HeaderUserRole + " header")
	}

	return Caller{UserID: userID, Role: role}, nil
}

// DecodeJSON decodes an optional JSON body into dst. An empty body leaves dst untouched.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperrors.InvalidInput("Invalid request body: " + err.Error())
	}
	return nil
}

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64 = 0
	if s := query.Get("offset"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = v
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return limit, offset, nil
}
