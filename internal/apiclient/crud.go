package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Ping checks backend reachability. It is unauthenticated.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Do(ctx, Request{Method: http.MethodGet, Path: "ping", Anonymous: true})
	return err
}

// GetList fetches entity filtered by the BuildFilter rules.
func GetList[T any](ctx context.Context, c *Client, entity string, filters Filters, page Page, sort string) ([]T, error) {
	return getFiltered[T](ctx, c, entity, BuildFilter(filters, page, sort))
}

// GetListWithExactFilters fetches entity with exact-match values plus
// BuildFilter-translated ones.
func GetListWithExactFilters[T any](ctx context.Context, c *Client, entity string, exact, other Filters, page Page, sort string) ([]T, error) {
	return getFiltered[T](ctx, c, entity, BuildExactFilter(exact, other, page, sort))
}

func getFiltered[T any](ctx context.Context, c *Client, entity string, f Filter) ([]T, error) {
	for _, key := range f.Dropped {
		c.logger.WarnContext(ctx, "malformed filter dropped", "entity", entity, "filter", key)
	}
	encoded, err := f.Encode()
	if err != nil {
		return nil, err
	}
	var out []T
	err = c.read(ctx, Request{Path: entity, Query: url.Values{"filter": {encoded}}}, &out)
	return out, err
}

// GetItem fetches entity/id.
func GetItem[T any](ctx context.Context, c *Client, entity, id string) (T, error) {
	var out T
	err := c.read(ctx, Request{Path: itemPath(entity, id)}, &out)
	return out, err
}

// CreateItem posts data to entity. In demo mode data is returned unchanged.
func CreateItem[T any](ctx context.Context, c *Client, entity string, data T) (T, error) {
	return mutate[T](ctx, c, Request{Method: http.MethodPost, Path: entity, Body: data}, data)
}

// UpdateItem replaces entity/id with data. In demo mode data is returned
// unchanged.
func UpdateItem[T any](ctx context.Context, c *Client, entity, id string, data T) (T, error) {
	return mutate[T](ctx, c, Request{Method: http.MethodPut, Path: itemPath(entity, id), Body: data}, data)
}

// DeleteItem deletes entity/id. In demo mode it returns nil without a call.
func DeleteItem(ctx context.Context, c *Client, entity, id string) error {
	_, err := c.Do(ctx, Request{Method: http.MethodDelete, Path: itemPath(entity, id)})
	return err
}

// GetCount returns the entity count.
func GetCount(ctx context.Context, c *Client, entity string) (int, error) {
	return GetCountWhere(ctx, c, entity, nil)
}

// GetCountWhere returns the count of entity rows matching where. An empty
// where sends no parameter.
func GetCountWhere(ctx context.Context, c *Client, entity string, where map[string]any) (int, error) {
	req := Request{Path: strings.TrimRight(entity, "/") + "/count"}
	if len(where) > 0 {
		data, err := json.Marshal(where)
		if err != nil {
			return 0, fmt.Errorf("encode where: %w", err)
		}
		req.Query = url.Values{"where": {string(data)}}
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return 0, err
	}
	var out struct {
		Count int `json:"count"`
	}
	if err = resp.Decode(&out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// GenericGet fetches an arbitrary path.
func GenericGet[T any](ctx context.Context, c *Client, path string) (T, error) {
	var out T
	err := c.read(ctx, Request{Path: path}, &out)
	return out, err
}

// GetByQuery fetches path with plain query parameters. Nil values are
// skipped, the rest are formatted and trimmed.
func GetByQuery[T any](ctx context.Context, c *Client, path string, params map[string]any) (T, error) {
	q := url.Values{}
	for k, v := range params {
		if v == nil {
			continue
		}
		q.Add(k, strings.TrimSpace(fmt.Sprint(v)))
	}
	var out T
	err := c.read(ctx, Request{Path: path, Query: q}, &out)
	return out, err
}

// GenericPost posts body to path. In demo mode no call is made and body is
// returned as the result: directly when it already has type T, otherwise
// re-decoded from its JSON form.
func GenericPost[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	return mutate[T](ctx, c, Request{Method: http.MethodPost, Path: path, Body: body}, body)
}

// GenericPatch patches path with body. Demo mode behaves as in GenericPost.
func GenericPatch[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	return mutate[T](ctx, c, Request{Method: http.MethodPatch, Path: path, Body: body}, body)
}

// GenericPut replaces path with body. Demo mode behaves as in GenericPost.
func GenericPut[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	return mutate[T](ctx, c, Request{Method: http.MethodPut, Path: path, Body: body}, body)
}

// GenericDelete deletes path. In demo mode it returns nil without a call.
func GenericDelete(ctx context.Context, c *Client, path string) error {
	_, err := c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
	return err
}

// TransferDirection selects a presigned URL kind.
type TransferDirection string

const (
	Upload   TransferDirection = "upload"
	Download TransferDirection = "download"
)

// PresignedURL is an object-storage transfer URL.
type PresignedURL struct {
	URL    string `json:"presignedUrl"`
	S3Path string `json:"s3Path,omitempty"`
}

// GetPresignedURL requests a transfer URL for entity/id.
func GetPresignedURL(ctx context.Context, c *Client, entity, id string, dir TransferDirection, data map[string]any) (PresignedURL, error) {
	if dir != Upload && dir != Download {
		return PresignedURL{}, fmt.Errorf("unknown transfer direction %q", dir)
	}
	if data == nil {
		data = map[string]any{}
	}
	return GenericPost[PresignedURL](ctx, c, itemPath(entity, id)+"/presigned-url-"+string(dir), data)
}

// read performs a GET and decodes into out, masking personal data first when
// demo mode is on.
func (c *Client) read(ctx context.Context, req Request, out any) error {
	req.Method = http.MethodGet
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if resp.Demo {
		resp.Body = c.anonymizer.Apply(req.Path, resp.Body)
	}
	return resp.Decode(out)
}

func mutate[T any](ctx context.Context, c *Client, req Request, input any) (T, error) {
	var out T
	resp, err := c.Do(ctx, req)
	if err != nil {
		return out, err
	}
	if resp.Intercepted {
		return standIn[T](input), nil
	}
	err = resp.Decode(&out)
	return out, err
}

// standIn converts the caller's payload into the result type.
func standIn[T any](input any) T {
	if v, ok := input.(T); ok {
		return v
	}
	var out T
	if data, err := json.Marshal(input); err == nil {
		_ = json.Unmarshal(data, &out)
	}
	return out
}

func itemPath(entity, id string) string {
	return strings.TrimRight(entity, "/") + "/" + url.PathEscape(id)
}
