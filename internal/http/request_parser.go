// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request
// data: listing query strings and JSON bodies.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"dompet/internal/core"
	"dompet/internal/services"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 64 << 10

// ParseListParams reads page, pageSize, search, category and period from a
// transactions query string. Malformed or out-of-range values give
// core.ErrInvalidQuery.
func ParseListParams(query url.Values) (services.ListParams, error) {
	page, err := intParam(query, "page", 1)
	if err != nil {
		return services.ListParams{}, err
	}
	pageSize, err := intParam(query, "pageSize", services.DefaultPageSize)
	if err != nil {
		return services.ListParams{}, err
	}
	period, err := services.ParsePeriod(query.Get("period"))
	if err != nil {
		return services.ListParams{}, err
	}

	return services.ListParams{
		Page:     page,
		PageSize: pageSize,
		TransactionQuery: services.TransactionQuery{
			Period:   period,
			Category: strings.TrimSpace(query.Get("category")),
			Search:   strings.TrimSpace(query.Get("search")),
		},
	}, nil
}

// ParseSummaryRequest reads the home query. userId overrides fallbackUser
// when present.
func ParseSummaryRequest(query url.Values, fallbackUser string) services.SummaryRequest {
	userID := strings.TrimSpace(query.Get("userId"))
	if userID == "" {
		userID = fallbackUser
	}
	return services.SummaryRequest{
		UserID: userID,
		Period: query.Get("period"),
		Start:  query.Get("start"),
		End:    query.Get("end"),
	}
}

// ParseNotificationLimit reads limit, defaulting to 50.
func ParseNotificationLimit(query url.Values) (int, error) {
	limit, err := intParam(query, "limit", services.DefaultNotificationLimit)
	if err != nil {
		return 0, err
	}
	if limit < 1 || limit > services.MaxNotificationLimit {
		return 0, core.ErrInvalidQuery
	}
	return limit, nil
}

func intParam(query url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, core.ErrInvalidQuery
	}
	return n, nil
}

// DecodeJSON reads a single JSON object from r into dst. Syntax and type
// errors become validation errors.
func DecodeJSON(r *http.Request, w http.ResponseWriter, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return core.Invalid("Invalid payload")
	}
	return nil
}

func decodeError(err error) error {
	var (
		typeErr *json.UnmarshalTypeError
		timeErr *time.ParseError
		tooBig  *http.MaxBytesError
	)
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return core.Invalid("%s has an invalid type", typeErr.Field)
	case errors.As(err, &tooBig):
		return core.Invalid("Payload too large")
	case errors.As(err, &timeErr):
		return core.Invalid("Invalid datetime")
	case strings.HasPrefix(err.Error(), "error decoding string"):
		// shopspring/decimal rejects the literal
		return core.Invalid("amount must be a number")
	default:
		return core.Invalid("Invalid payload")
	}
}

// markReadBody is the PATCH /api/notifications payload.
type markReadBody struct {
	ID string `json:"id"`
}

