package apiclient

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"bookshelf/pkg/domain"
)

// Result is either a decoded value or a typed failure.
type Result[T any] struct {
	value T
	err   *domain.Error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Fail wraps a failure.
func Fail[T any](err *domain.Error) Result[T] {
	return Result[T]{err: err}
}

func (r Result[T]) OK() bool           { return r.err == nil }
func (r Result[T]) Value() T           { return r.value }
func (r Result[T]) Err() *domain.Error { return r.err }

// Unwrap returns the value and a plain error (nil on success).
func (r Result[T]) Unwrap() (T, error) {
	if r.err != nil {
		var zero T
		return zero, r.err
	}
	return r.value, nil
}

// Decode classifies a response and unwraps the payload. Bodies of the form
// {"data": ...} yield data; any other body is decoded as the payload itself.
// An explicit "success": false is a failure even on a 2xx status.
func Decode[T any](resp *Response) Result[T] {
	if resp.Status >= http.StatusBadRequest {
		return Fail[T](failureFrom(resp))
	}
	body := bytes.TrimSpace(resp.Body)
	if len(body) == 0 {
		var zero T
		return Ok(zero)
	}
	payload := body
	if body[0] == '{' {
		var env struct {
			Success *bool           `json:"success"`
			Message string          `json:"message"`
			Code    FlexString      `json:"code"`
			Data    json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(body, &env); err == nil {
			if env.Success != nil && !*env.Success {
				msg := strings.TrimSpace(env.Message)
				if msg == "" {
					msg = "request was rejected"
				}
				return Fail[T](&domain.Error{Kind: domain.KindServer, Status: resp.Status, Code: env.Code.Value, Message: msg})
			}
			if data := bytes.TrimSpace(env.Data); len(data) > 0 && !bytes.Equal(data, []byte("null")) {
				payload = data
			}
		}
	}
	var out T
	if err := json.Unmarshal(payload, &out); err != nil {
		return Fail[T](&domain.Error{Kind: domain.KindServer, Status: resp.Status, Message: "unexpected response from server", Err: err})
	}
	return Ok(out)
}

func failureFrom(resp *Response) *domain.Error {
	var body struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
		Code    FlexString      `json:"code"`
	}
	_ = json.Unmarshal(resp.Body, &body)
	msg := strings.TrimSpace(body.Message)
	if msg == "" {
		msg = errorText(body.Error)
	}
	if msg == "" {
		msg = http.StatusText(resp.Status)
	}
	if msg == "" {
		msg = "request failed"
	}
	return &domain.Error{Kind: domain.KindServer, Status: resp.Status, Code: body.Code.Value, Message: msg}
}

// errorText accepts both "error": "text" and "error": {"message": "text"}.
func errorText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return strings.TrimSpace(obj.Message)
	}
	return ""
}
