package kiosk

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/javanbakhti/smartBuild-sub000/internal/access/dnd"
)

// DirectoryClient fetches the kiosk directory from the access server over
// its JSON API.  The server has already applied the DND filter; the kiosk
// just renders what it gets.
type DirectoryClient struct {
	http       *resty.Client
	buildingID string
}

func NewDirectoryClient(baseURL, buildingID string, timeout time.Duration) *DirectoryClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	return &DirectoryClient{http: client, buildingID: buildingID}
}

// wireItem mirrors the server's directory listing payload.
type wireItem struct {
	ID          string `json:"id"`
	UnitID      string `json:"unit_id"`
	Floor       string `json:"floor"`
	DisplayName string `json:"display_name"`
	CallAddress string `json:"call_address"`
	Blocked     bool   `json:"blocked"`
	ShowDNDIcon bool   `json:"show_dnd_icon"`
}

// Fetch retrieves the current listing.  It satisfies DirectorySource.
func (c *DirectoryClient) Fetch(ctx context.Context) ([]dnd.VisibleEntry, error) {
	var items []wireItem
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("building_id", c.buildingID).
		SetResult(&items).
		Get("/v1/directory")
	if err != nil {
		return nil, fmt.Errorf("fetch directory: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch directory: server returned %s", resp.Status())
	}

	out := make([]dnd.VisibleEntry, 0, len(items))
	for _, it := range items {
		out = append(out, dnd.VisibleEntry{
			DirectoryEntry: dnd.DirectoryEntry{
				ID:          it.ID,
				BuildingID:  c.buildingID,
				UnitID:      it.UnitID,
				Floor:       it.Floor,
				DisplayName: it.DisplayName,
				CallAddress: it.CallAddress,
				ShowDNDIcon: it.ShowDNDIcon,
			},
			Blocked: it.Blocked,
		})
	}
	return out, nil
}
