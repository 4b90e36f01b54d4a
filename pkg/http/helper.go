package http

import (
	"net/http"
	"strconv"
	"strings"

	"staybook/pkg/config"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/model"
)

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

// QueryDate parses an optional YYYY-MM-DD query parameter. The boolean is
// false when the parameter is absent.
func QueryDate(r *http.Request, name string) (model.Date, bool, error) {
	s := strings.TrimSpace(r.URL.Query().Get(name))
	if s == "" {
		return model.Date{}, false, nil
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return model.Date{}, false, apperrors.InvalidInput("invalid " + name + " parameter: " + s)
	}
	return d, true, nil
}

// RequireQueryDate is QueryDate for mandatory parameters.
func RequireQueryDate(r *http.Request, name string) (model.Date, error) {
	d, ok, err := QueryDate(r, name)
	if err != nil {
		return model.Date{}, err
	}
	if !ok {
		return model.Date{}, apperrors.InvalidInput(name + " parameter is required")
	}
	return d, nil
}

func QueryInt(r *http.Request, name string) (int, bool, error) {
	s := strings.TrimSpace(r.URL.Query().Get(name))
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false, apperrors.InvalidInput("invalid " + name + " parameter: " + s)
	}
	return v, true, nil
}

func QueryMoney(r *http.Request, name string) (*model.Money, error) {
	s := strings.TrimSpace(r.URL.Query().Get(name))
	if s == "" {
		return nil, nil
	}
	m, err := model.ParseMoney(s)
	if err != nil {
		return nil, apperrors.InvalidInput("invalid " + name + " parameter: " + s)
	}
	return &m, nil
}
