package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// MaxBodyBytes ограничивает размер тела запроса.
const MaxBodyBytes = 100 << 10

var emptyObject = json.RawMessage(`{}`)

// ReadBody читает тело запроса и приводит его к JSON.
//
// application/json должен быть объектом или массивом, form-urlencoded
// превращается в объект строк (повторяющийся ключ даёт массив). Пустое тело и
// прочие типы, включая application/*+json, дают {}.
func ReadBody(w http.ResponseWriter, r *http.Request) (json.RawMessage, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, domain.ErrBodyTooLarge
		}
		return nil, fmt.Errorf("read body: %w", err)
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		return parseJSONBody(raw)
	case "application/x-www-form-urlencoded":
		return parseFormBody(raw)
	default:
		return emptyObject, nil
	}
}

func parseJSONBody(raw []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return emptyObject, nil
	}
	if trimmed[0] != '{' && trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: unexpected token %q", domain.ErrInvalidBody, trimmed[0])
	}
	if !json.Valid(trimmed) {
		return nil, fmt.Errorf("%w: malformed JSON", domain.ErrInvalidBody)
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidBody, err)
	}
	return compact.Bytes(), nil
}

func parseFormBody(raw []byte) (json.RawMessage, error) {
	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidBody, err)
	}

	flat := make(map[string]any, len(values))
	for key, vals := range values {
		switch len(vals) {
		case 0:
		case 1:
			flat[key] = vals[0]
		default:
			flat[key] = vals
		}
	}

	encoded, err := json.Marshal(flat)
	if err != nil {
		return nil, fmt.Errorf("encode form body: %w", err)
	}
	return encoded, nil
}
