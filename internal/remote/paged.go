package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"healthhub/internal/model"
	"healthhub/internal/paging"
)

// pageBody accepts the field spellings the remote uses for paged lists.
type pageBody struct {
	Items       json.RawMessage `json:"items"`
	Data        json.RawMessage `json:"data"`
	Results     json.RawMessage `json:"results"`
	PageNumber  *int            `json:"page_number"`
	PageNumber2 *int            `json:"pageNumber"`
	PageSize    *int            `json:"page_size"`
	PageSize2   *int            `json:"pageSize"`
	TotalCount  *int            `json:"total_count"`
	TotalCount2 *int            `json:"totalCount"`
	TotalPages  *int            `json:"total_pages"`
	TotalPages2 *int            `json:"totalPages"`
}

func getPage[T any](ctx context.Context, c *Client, op, path string, req paging.Request) (paging.Page[T], error) {
	params := map[string]string{
		"pageNumber": strconv.Itoa(req.PageNumber),
		"pageSize":   strconv.Itoa(req.PageSize),
	}
	for k, v := range req.Filters {
		if v != "" {
			params[k] = v
		}
	}

	res, err := do(op, c.request(ctx).SetQueryParams(params), http.MethodGet, path, http.StatusOK)
	if err != nil {
		return paging.Page[T]{}, err
	}
	return decodePage[T](res.Body(), req)
}

func decodePage[T any](body []byte, req paging.Request) (paging.Page[T], error) {
	var pb pageBody
	if err := Decode(body, &pb); err != nil {
		// A bare list is one page holding everything.
		var items []T
		if listErr := json.Unmarshal(unwrapEnvelope(body), &items); listErr != nil {
			return paging.Page[T]{}, err
		}
		return paging.Normalize(paging.Page[T]{Items: items, PageNumber: 1, PageSize: req.PageSize, TotalCount: len(items), TotalPages: 1}, req), nil
	}

	raw := firstRaw(pb.Items, pb.Results, pb.Data)
	var items []T
	if raw != nil {
		if err := json.Unmarshal(raw, &items); err != nil {
			return paging.Page[T]{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
	}
	page := paging.Page[T]{
		Items:      items,
		PageNumber: firstInt(pb.PageNumber, pb.PageNumber2),
		PageSize:   firstInt(pb.PageSize, pb.PageSize2),
		TotalCount: firstInt(pb.TotalCount, pb.TotalCount2),
		TotalPages: firstInt(pb.TotalPages, pb.TotalPages2),
	}
	return paging.Normalize(page, req), nil
}

func firstInt(values ...*int) int {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}

func (c *Client) ListGroups(ctx context.Context, req paging.Request) (paging.Page[model.Group], error) {
	return getPage[model.Group](ctx, c, "list groups", "/community/groups", req)
}

func (c *Client) ListGroupPosts(ctx context.Context, groupID int, req paging.Request) (paging.Page[model.GroupPost], error) {
	return getPage[model.GroupPost](ctx, c, "list group posts", fmt.Sprintf("/community/groups/%d/posts", groupID), req)
}

func (c *Client) ListComments(ctx context.Context, postID int, req paging.Request) (paging.Page[model.Comment], error) {
	return getPage[model.Comment](ctx, c, "list comments", fmt.Sprintf("/community/posts/%d/comments", postID), req)
}

func (c *Client) ListMeasurements(ctx context.Context, req paging.Request) (paging.Page[model.Measurement], error) {
	return getPage[model.Measurement](ctx, c, "list measurements", "/measurements", req)
}
