package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/chatdeploy/configurator/engine/core"
	"github.com/gin-gonic/gin"
)

// ParamID reads a UUID path parameter.
func ParamID(c *gin.Context, name string) (core.ID, error) {
	id, err := core.ParseID(c.Param(name))
	if err != nil {
		return "", NewRequestError(http.StatusBadRequest, fmt.Sprintf("invalid %s", name), err)
	}
	return id, nil
}

// ReadBody reads the whole request body. Oversized bodies surface as
// http.MaxBytesError, which Classify maps to 413.
func ReadBody(c *gin.Context) ([]byte, error) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, err
		}
		return nil, NewRequestError(http.StatusBadRequest, "failed to read request body", err)
	}
	return data, nil
}

// BindJSON decodes the request body into v, rejecting unknown fields only
// when strict is set.
func BindJSON(c *gin.Context, v any, strict bool) error {
	data, err := ReadBody(c)
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return NewRequestError(http.StatusBadRequest, "request body is empty", nil)
	}
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		return NewRequestError(http.StatusBadRequest, "invalid JSON body", err)
	}
	return nil
}

// ParseBoolQuery reads a boolean query parameter. Missing means def.
func ParseBoolQuery(c *gin.Context, name string, def bool) (bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, NewRequestError(http.StatusBadRequest, fmt.Sprintf("invalid %s", name), err)
	}
	return v, nil
}

// ParseLimitQuery reads a positive limit capped at maxLimit.
func ParseLimitQuery(c *gin.Context, def, maxLimit int) (int, error) {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, NewRequestError(http.StatusBadRequest, "limit must be a positive integer", err)
	}
	return min(v, maxLimit), nil
}

// ParseListQuery splits a comma-separated query parameter.
func ParseListQuery(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// ParseStrongETag returns the first entity tag of an If-Match or
// If-None-Match header. An absent header yields "". Weak and wildcard
// validators are rejected.
func ParseStrongETag(header string) (string, error) {
	raw := strings.TrimSpace(header)
	if raw == "" {
		return "", nil
	}
	if first, _, ok := strings.Cut(raw, ","); ok {
		raw = strings.TrimSpace(first)
	}
	switch {
	case raw == "*":
		return "", errors.New("wildcard entity tags are not supported")
	case strings.HasPrefix(raw, "W/"):
		return "", errors.New("weak entity tags are not supported")
	}
	tag, err := strconv.Unquote(raw)
	if err != nil {
		return "", fmt.Errorf("malformed entity tag: %w", err)
	}
	if tag == "" {
		return "", errors.New("entity tag is empty")
	}
	return tag, nil
}

// SetETag writes tag as a strong ETag header.
func SetETag(c *gin.Context, tag string) {
	c.Header("ETag", strconv.Quote(tag))
}
