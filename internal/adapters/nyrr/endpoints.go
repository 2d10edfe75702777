package nyrr

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/okian/finishline/internal/domain/model"
)

// Endpoint paths below /api/v2/.
const (
	EndpointSearch    = "events/search"
	EndpointFinishers = "runners/finishers-filter"
)

type searchRequest struct {
	Year           int    `json:"year"`
	SortColumn     string `json:"sortColumn"`
	SortDescending int    `json:"sortDescending"`
	PageIndex      int    `json:"pageIndex"`
	PageSize       int    `json:"pageSize"`
}

type finishersRequest struct {
	EventCode        string `json:"eventCode"`
	OverallPlaceFrom int    `json:"overallPlaceFrom"`
	OverallPlaceTo   int    `json:"overallPlaceTo"`
	SortColumn       string `json:"sortColumn"`
	SortDescending   bool   `json:"sortDescending"`
	PageIndex        int    `json:"pageIndex"`
	PageSize         int    `json:"pageSize"`
}

type countRequest struct {
	EventCode string `json:"eventCode"`
	PageSize  int    `json:"pageSize"`
}

// listResponse is the envelope shared by both listing endpoints. Pointers
// tell a missing key apart from an empty value.
type listResponse struct {
	Items      *[]json.RawMessage `json:"items"`
	TotalItems *int               `json:"totalItems"`
}

// Page is one page of finishers. Records are the API's bytes, kept for the
// raw files; Finishers are the same records decoded, in the same order.
type Page struct {
	Records    []json.RawMessage
	Finishers  []model.FinisherResult
	TotalItems int
}

// SearchEvents lists one year's events. It returns the raw records and the
// API's totalItems.
func (c *Client) SearchEvents(ctx context.Context, year int) ([]json.RawMessage, int, error) {
	req := searchRequest{
		Year:           year,
		SortColumn:     "StartDateTime",
		SortDescending: 1,
		PageIndex:      1,
		PageSize:       c.pageSize,
	}

	var resp listResponse
	if err := c.post(ctx, EndpointSearch, req, &resp); err != nil {
		return nil, 0, err
	}
	if resp.Items == nil {
		return nil, 0, fmt.Errorf("%w: %s: missing items", ErrDecode, EndpointSearch)
	}

	total := len(*resp.Items)
	if resp.TotalItems != nil {
		total = *resp.TotalItems
	}
	return *resp.Items, total, nil
}

// FinishersPage fetches finishers placed afterPlace+1 through
// afterPlace+pageSize, sorted by overall time.
func (c *Client) FinishersPage(ctx context.Context, eventCode string, afterPlace int) (Page, error) {
	req := finishersRequest{
		EventCode:        eventCode,
		OverallPlaceFrom: afterPlace + 1,
		OverallPlaceTo:   afterPlace + c.pageSize,
		SortColumn:       "overallTime",
		SortDescending:   false,
		PageIndex:        1,
		PageSize:         c.pageSize,
	}

	var resp listResponse
	if err := c.post(ctx, EndpointFinishers, req, &resp); err != nil {
		return Page{}, err
	}
	if resp.Items == nil {
		return Page{}, fmt.Errorf("%w: %s: missing items for %s", ErrDecode, EndpointFinishers, eventCode)
	}

	page := Page{
		Records:   *resp.Items,
		Finishers: make([]model.FinisherResult, 0, len(*resp.Items)),
	}
	if resp.TotalItems != nil {
		page.TotalItems = *resp.TotalItems
	}
	for i, raw := range page.Records {
		f, err := model.DecodeFinisher(raw)
		if err != nil {
			return Page{}, fmt.Errorf("%w: %s: %s item %d: %w", ErrDecode, EndpointFinishers, eventCode, i, err)
		}
		page.Finishers = append(page.Finishers, f)
	}
	return page, nil
}

// FinisherCount returns the API's finisher total for an event. The value is
// for progress display only; it can disagree with what paging returns.
func (c *Client) FinisherCount(ctx context.Context, eventCode string) (int, error) {
	var resp listResponse
	if err := c.post(ctx, EndpointFinishers, countRequest{EventCode: eventCode, PageSize: 1}, &resp); err != nil {
		return 0, err
	}
	if resp.TotalItems == nil {
		return 0, fmt.Errorf("%w: %s: missing totalItems for %s", ErrDecode, EndpointFinishers, eventCode)
	}
	return *resp.TotalItems, nil
}
