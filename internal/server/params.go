package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/KaramelBytes/demograph-cli/internal/dataset"
	"github.com/KaramelBytes/demograph-cli/internal/views"
)

// apiError carries the HTTP status a handler should answer with.
type apiError struct {
	status int
	msg    string
}

func (e *apiError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &apiError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

func statusOf(err error) int {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.status
	}
	return http.StatusInternalServerError
}

// parseFilter builds a filter from query parameters. A saved view named by
// "view" is the starting point; explicit parameters override its fields.
//
// A "region" key with only empty values selects no region, while an absent
// key selects all of them.
func parseFilter(q url.Values, defaultCol dataset.ValueColumn, vs *views.Store) (dataset.Filter, error) {
	var f dataset.Filter
	if name := strings.TrimSpace(q.Get("view")); name != "" {
		if vs == nil {
			return f, &apiError{status: http.StatusNotFound, msg: "view not found: " + name}
		}
		v, err := vs.Get(name)
		if err != nil {
			if errors.Is(err, views.ErrNotFound) {
				return f, &apiError{status: http.StatusNotFound, msg: err.Error()}
			}
			return f, err
		}
		f = v.Filter
	}
	if vals, ok := q["region"]; ok {
		f.Regions = nonEmpty(vals)
	}
	if vals, ok := q["town"]; ok {
		f.Towns = nonEmpty(vals)
	}
	if size := strings.TrimSpace(q.Get("size")); size != "" {
		f.FamilySize = size
	}

	loS, hiS := strings.TrimSpace(q.Get("lo")), strings.TrimSpace(q.Get("hi"))
	if loS != "" || hiS != "" {
		col, err := parseColumn(q, defaultCol)
		if err != nil {
			return f, err
		}
		rng := dataset.ValueRange{Column: col, Lo: 0, Hi: 100}
		if loS != "" {
			if rng.Lo, err = strconv.ParseFloat(loS, 64); err != nil {
				return f, badRequest("invalid lo %q", loS)
			}
		}
		if hiS != "" {
			if rng.Hi, err = strconv.ParseFloat(hiS, 64); err != nil {
				return f, badRequest("invalid hi %q", hiS)
			}
		}
		f.Range = &rng
	}
	if err := f.Validate(); err != nil {
		return f, badRequest("%v", err)
	}
	return f, nil
}

func parseColumn(q url.Values, def dataset.ValueColumn) (dataset.ValueColumn, error) {
	s := strings.TrimSpace(q.Get("column"))
	if s == "" {
		return def, nil
	}
	c, err := dataset.ParseValueColumn(s)
	if err != nil {
		return 0, badRequest("%v", err)
	}
	return c, nil
}

func nonEmpty(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
