package marketplace

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"
)

// Item is a loosely typed JSON value as returned by the backend.
type Item = any

// getItems makes a GET request and returns the items of a JSON array response.
// Responses wrapped in {"items": [...]} or {"data": [...]} are unwrapped.
func (c *Client) getItems(ctx context.Context, path string, q url.Values) ([]Item, error) {
	var payload any
	if err := c.do(ctx, http.MethodGet, path, q, nil, &payload); err != nil {
		return nil, err
	}

	switch typed := payload.(type) {
	case nil:
		return nil, nil
	case []any:
		return typed, nil
	case map[string]any:
		for _, key := range []string{"items", "data"} {
			if items, ok := typed[key].([]any); ok {
				return items, nil
			}
		}
	}

	return nil, fmt.Errorf("unexpected response shape for %s: %T", path, payload)
}

// getObject makes a GET request and decodes a JSON object response into target.
func (c *Client) getObject(ctx context.Context, path string, target any) error {
	var payload map[string]any
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &payload); err != nil {
		return err
	}

	return decode(payload, target)
}

// sendJSON makes a POST/PUT request with a JSON body and decodes the response object into target.
func (c *Client) sendJSON(ctx context.Context, method, path string, body, target any) error {
	var payload map[string]any
	if err := c.do(ctx, method, path, nil, body, &payload); err != nil {
		return err
	}

	if target == nil || payload == nil {
		return nil
	}

	return decode(payload, target)
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.APIURL+path, reader)
	if err != nil {
		return err
	}

	req = c.setHeaders(req)
	req.Header.Set("Content-Type", contentType)
	if len(q) > 0 {
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.request(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := readBody(resp)
	if err != nil {
		return err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return newAPIError(resp, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}

	return nil
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("method", req.Method), zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("got response", zap.String("url", req.URL.String()), zap.Int("status", resp.StatusCode))
	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", contentType)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}

func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	return io.ReadAll(reader)
}

func newAPIError(resp *http.Response, data []byte) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode, Status: resp.Status}

	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		apiErr.Message = strings.TrimSpace(body.Message)
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(body.Error)
		}
	}

	return apiErr
}

// decode maps loosely typed backend JSON onto the typed models.
func decode(input, output any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           output,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       referenceHook,
	})
	if err != nil {
		return err
	}

	return decoder.Decode(input)
}

// referenceHook handles populated vs unpopulated references: a bare id string
// decoded into a model becomes {_id: id}, an object decoded into a string keeps its _id.
func referenceHook(from, to reflect.Type, data any) (any, error) {
	target := to
	if target.Kind() == reflect.Pointer {
		target = target.Elem()
	}

	switch {
	case from.Kind() == reflect.String && target.Kind() == reflect.Struct && hasIDField(target):
		id, _ := data.(string)
		if strings.TrimSpace(id) != "" {
			return map[string]any{"_id": id}, nil
		}
		if to.Kind() == reflect.Pointer {
			return nil, nil
		}
		return map[string]any{}, nil
	case from.Kind() == reflect.Map && target.Kind() == reflect.String:
		if m, ok := data.(map[string]any); ok {
			if id, ok := m["_id"]; ok {
				return fmt.Sprint(id), nil
			}
		}
	}

	return data, nil
}

func hasIDField(t reflect.Type) bool {
	for i := 0; i < t.NumField(); i++ {
		if strings.SplitN(t.Field(i).Tag.Get("json"), ",", 2)[0] == "_id" {
			return true
		}
	}
	return false
}

// buildParams turns a params struct into query values using the `query` tag.
// Zero values are skipped.
func buildParams(params any) url.Values {
	q := url.Values{}
	if params == nil {
		return q
	}

	value := reflect.ValueOf(params)
	if value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return q
		}
		value = value.Elem()
	}

	for _, field := range reflect.VisibleFields(value.Type()) {
		key := field.Tag.Get("query")
		if key == "" || key == "-" {
			continue
		}

		fieldValue := value.FieldByIndex(field.Index)
		switch fieldValue.Kind() {
		case reflect.Slice:
			for i := 0; i < fieldValue.Len(); i++ {
				if item := strings.TrimSpace(fmt.Sprint(fieldValue.Index(i).Interface())); item != "" {
					q.Add(key, item)
				}
			}
		case reflect.Float32, reflect.Float64:
			if f := fieldValue.Float(); f != 0 {
				q.Set(key, strconv.FormatFloat(f, 'f', -1, 64))
			}
		default:
			v := strings.TrimSpace(fmt.Sprintf("%v", fieldValue.Interface()))
			if v != "" && v != "0" && v != "false" {
				q.Set(key, v)
			}
		}
	}

	return q
}
