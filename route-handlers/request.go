package routehandlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/coreybb/couponbook/webutil"
)

// decodeBody decodes a JSON request body into dst. An empty body is only an
// error when the body is required.
func decodeBody(r *http.Request, dst any, required bool) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && !required {
			return nil
		}
		return webutil.ErrBadRequestWrap("Invalid request payload", err)
	}
	return nil
}

// flexBool accepts true, "true" and "True" as true and anything else as false.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `true`, `"true"`, `"True"`:
		*b = true
	default:
		*b = false
	}
	return nil
}

// truthyBool follows loose truthiness: false, null, 0 and "" are false and
// every other value is true. Set reports whether the field was present.
type truthyBool struct {
	Set   bool
	Value bool
}

func (b *truthyBool) UnmarshalJSON(data []byte) error {
	b.Set = true
	switch raw := strings.TrimSpace(string(data)); {
	case raw == "false" || raw == "null" || raw == `""`:
		b.Value = false
	case raw == "true":
		b.Value = true
	case strings.HasPrefix(raw, `"`):
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		b.Value = str != ""
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			// objects and arrays
			b.Value = true
			return nil
		}
		b.Value = n != 0
	}
	return nil
}

// parseDate accepts RFC 3339 timestamps plus the looser forms browsers and
// scripts tend to send ("2026-07-04", "2026-07-04 15:30", "07/04/2026").
// Zone-less values are taken as UTC.
func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return &t, nil
	}
	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return nil, webutil.ErrBadRequestWrap("Invalid date: "+raw, err)
	}
	return &t, nil
}
