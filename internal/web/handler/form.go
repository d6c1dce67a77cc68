package handler

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// Form holds the submitted fields of a request body, keyed by name.
type Form map[string]string

// Fields reads a multipart, url encoded or json object body into a Form.
// Non string json values are kept in their json encoding.
func Fields(c fiber.Ctx) (Form, error) {
	out := Form{}
	ctype := strings.ToLower(c.Get(fiber.HeaderContentType))

	switch {
	case strings.HasPrefix(ctype, fiber.MIMEMultipartForm):
		form, err := c.MultipartForm()
		if err != nil {
			return nil, BadRequest("Invalid request body")
		}

		for k, v := range form.Value {
			if len(v) > 0 {
				out[k] = v[0]
			}
		}
	case strings.HasPrefix(ctype, fiber.MIMEApplicationForm):
		c.Request().PostArgs().VisitAll(func(k, v []byte) {
			out[string(k)] = string(v)
		})
	case strings.HasPrefix(ctype, fiber.MIMEApplicationJSON):
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(c.Body(), &raw); err != nil {
			return nil, BadRequest("Invalid request body")
		}

		for k, v := range raw {
			var s string
			switch {
			case string(v) == "null":
				continue
			case json.Unmarshal(v, &s) == nil:
				out[k] = s
			default:
				out[k] = string(v)
			}
		}
	}

	return out, nil
}

// Has reports whether key was submitted.
func (f Form) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// Str returns the trimmed value of key.
func (f Form) Str(key string) string {
	return strings.TrimSpace(f[key])
}

// Bool reports whether key holds "true" or "1".
func (f Form) Bool(key string) bool {
	v := strings.ToLower(f.Str(key))
	return v == "true" || v == "1"
}

// Int returns key as an int, def when missing or malformed.
func (f Form) Int(key string, def int) int {
	n, err := strconv.Atoi(f.Str(key))
	if err != nil {
		return def
	}

	return n
}

// List returns key as a string list, accepting a json array or comma separated values.
func (f Form) List(key string) []string {
	v := f.Str(key)
	if v == "" {
		return []string{}
	}

	var list []string
	if strings.HasPrefix(v, "[") && json.Unmarshal([]byte(v), &list) == nil {
		return compact(list)
	}

	return compact(strings.Split(v, ","))
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))

	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}

	return out
}

// Missing returns the message of the first required key that is empty.
// required pairs a key with the message answered when it is missing.
func (f Form) Missing(required ...[2]string) string {
	for _, r := range required {
		if f.Str(r[0]) == "" {
			return r[1]
		}
	}

	return ""
}
