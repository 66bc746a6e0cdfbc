package api

import (
	"bytes"
	"fmt"

	"github.com/aditya-makadiya/sociofeed/pkg/errors"
	"github.com/go-resty/resty/v2"
	json "github.com/json-iterator/go"
)

// Envelope is the wrapper the API puts around every JSON body
type Envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
}

// validatable payloads reject bodies that decoded but miss required fields
type validatable interface {
	validate() error
}

func errMissing(field string) error {
	return fmt.Errorf("missing field %q", field)
}

func errInvalid(field string) error {
	return fmt.Errorf("invalid value for %q", field)
}

// decodePayload unwraps the envelope and decodes its data into target.
// Bodies without a data field are decoded whole.
func decodePayload(body []byte, target interface{}) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return errors.ParseError(fmt.Sprintf("%T", target), fmt.Errorf("response is not a JSON object"))
	}

	var env Envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return errors.ParseError("envelope", err)
	}

	payload := trimmed
	if d := bytes.TrimSpace(env.Data); len(d) > 0 && !bytes.Equal(d, []byte("null")) {
		payload = d
	}

	if err := json.Unmarshal(payload, target); err != nil {
		return errors.ParseError(fmt.Sprintf("%T", target), err)
	}

	if v, ok := target.(validatable); ok {
		if err := v.validate(); err != nil {
			return errors.ParseError(fmt.Sprintf("%T", target), err)
		}
	}
	return nil
}

// ParseError converts a non-2xx response into a normalized error
func ParseError(resp *resty.Response) *errors.Error {
	var env Envelope
	_ = json.Unmarshal(resp.Body(), &env)

	var fields map[string]string
	var raw map[string]interface{}
	if len(env.Errors) > 0 && json.Unmarshal(env.Errors, &raw) == nil && len(raw) > 0 {
		fields = make(map[string]string, len(raw))
		for k, v := range raw {
			fields[k] = fieldMessage(v)
		}
	}

	return errors.FromStatus(resp.StatusCode(), env.Message, fields)
}

// fieldMessage flattens a field error value; validators send strings,
// arrays of strings, or objects with a msg field.
func fieldMessage(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case []interface{}:
		if len(val) > 0 {
			return fieldMessage(val[0])
		}
		return ""
	case map[string]interface{}:
		if msg, ok := val["msg"].(string); ok {
			return msg
		}
		if msg, ok := val["message"].(string); ok {
			return msg
		}
	}
	return fmt.Sprint(v)
}
