package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tessro/finch/internal/core"
)

// defaultFields are the optional item fields finch asks the server to include.
var defaultFields = []string{"Overview", "People", "MediaSources", "Trickplay", "ParentId", "ChildCount"}

// ItemQuery filters an item listing.
type ItemQuery struct {
	ParentID   string
	Types      []core.ItemType
	PersonIDs  []string
	SearchTerm string
	Recursive  bool
	SortBy     string
	SortOrder  string // Ascending or Descending
	Filters    []string
	StartIndex int
	Limit      int
}

func (q ItemQuery) params(userID string) map[string]string {
	params := map[string]string{
		"userId":     userID,
		"parentId":   q.ParentID,
		"searchTerm": q.SearchTerm,
		"sortBy":     q.SortBy,
		"sortOrder":  q.SortOrder,
		"fields":     strings.Join(defaultFields, ","),
	}
	if len(q.Types) > 0 {
		types := make([]string, len(q.Types))
		for i, t := range q.Types {
			types[i] = string(t)
		}
		params["includeItemTypes"] = strings.Join(types, ",")
	}
	if len(q.PersonIDs) > 0 {
		params["personIds"] = strings.Join(q.PersonIDs, ",")
	}
	if len(q.Filters) > 0 {
		params["filters"] = strings.Join(q.Filters, ",")
	}
	if q.Recursive {
		params["recursive"] = "true"
	}
	if q.StartIndex > 0 {
		params["startIndex"] = strconv.Itoa(q.StartIndex)
	}
	if q.Limit > 0 {
		params["limit"] = strconv.Itoa(q.Limit)
	}
	return params
}

// ItemPage is one page of an item listing.
type ItemPage struct {
	Items      []core.MediaItem `json:"items"`
	Total      int              `json:"total"`
	StartIndex int              `json:"start_index"`
}

// GetCurrentUser returns the signed-in user.
func (c *Client) GetCurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.Get(ctx, "/Users/Me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetViews returns the user's top-level libraries.
func (c *Client) GetViews(ctx context.Context) ([]core.MediaItem, error) {
	return cached(c, "views", nil, func() ([]core.MediaItem, error) {
		var resp ItemsResponse
		if err := c.Get(ctx, BuildURL("/UserViews", map[string]string{"userId": c.UserID()}), &resp); err != nil {
			return nil, err
		}
		return convertItems(resp.Items), nil
	})
}

// GetItems lists items matching the query.
func (c *Client) GetItems(ctx context.Context, q ItemQuery) (*ItemPage, error) {
	return cached(c, "items", q, func() (*ItemPage, error) {
		var resp ItemsResponse
		if err := c.Get(ctx, BuildURL("/Items", q.params(c.UserID())), &resp); err != nil {
			return nil, err
		}
		return &ItemPage{
			Items:      convertItems(resp.Items),
			Total:      resp.TotalRecordCount,
			StartIndex: resp.StartIndex,
		}, nil
	})
}

// GetItem returns a single item with full metadata.
func (c *Client) GetItem(ctx context.Context, id string) (*core.MediaItem, error) {
	if id == "" {
		return nil, fmt.Errorf("item id cannot be empty")
	}
	return cached(c, "item", id, func() (*core.MediaItem, error) {
		var item BaseItem
		path := BuildURL("/Items/"+url.PathEscape(id), map[string]string{
			"userId": c.UserID(),
			"fields": strings.Join(defaultFields, ","),
		})
		if err := c.Get(ctx, path, &item); err != nil {
			return nil, err
		}
		return convertItem(&item), nil
	})
}

// GetResumeItems returns partially watched items, most recent first.
func (c *Client) GetResumeItems(ctx context.Context, limit int) ([]core.MediaItem, error) {
	params := map[string]string{"userId": c.UserID(), "fields": strings.Join(defaultFields, ",")}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}
	var resp ItemsResponse
	if err := c.Get(ctx, BuildURL("/UserItems/Resume", params), &resp); err != nil {
		return nil, err
	}
	return convertItems(resp.Items), nil
}

// GetLatest returns recently added items, optionally within one library.
func (c *Client) GetLatest(ctx context.Context, parentID string, limit int) ([]core.MediaItem, error) {
	params := map[string]string{"userId": c.UserID(), "parentId": parentID}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}
	return cached(c, "latest", params, func() ([]core.MediaItem, error) {
		var items []BaseItem
		if err := c.Get(ctx, BuildURL("/Items/Latest", params), &items); err != nil {
			return nil, err
		}
		return convertItems(items), nil
	})
}

// Search finds items by name.
func (c *Client) Search(ctx context.Context, term string, types []core.ItemType, limit int) ([]core.MediaItem, error) {
	if strings.TrimSpace(term) == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	page, err := c.GetItems(ctx, ItemQuery{
		SearchTerm: term,
		Types:      types,
		Recursive:  true,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// GetPerson returns a person item by id.
func (c *Client) GetPerson(ctx context.Context, id string) (*core.MediaItem, error) {
	item, err := c.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.Type != core.ItemPerson {
		return nil, fmt.Errorf("item %s is a %s, not a person", id, item.Type)
	}
	return item, nil
}

// GetItemsByPerson returns the movies and series a person appears in.
func (c *Client) GetItemsByPerson(ctx context.Context, personID string, limit int) ([]core.MediaItem, error) {
	page, err := c.GetItems(ctx, ItemQuery{
		PersonIDs: []string{personID},
		Types:     []core.ItemType{core.ItemMovie, core.ItemSeries},
		Recursive: true,
		SortBy:    "ProductionYear,SortName",
		SortOrder: "Descending",
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// GetMediaSegments returns intro/outro markers for an item.
func (c *Client) GetMediaSegments(ctx context.Context, itemID string) ([]core.Segment, error) {
	return cached(c, "segments", itemID, func() ([]core.Segment, error) {
		var resp MediaSegmentsResponse
		if err := c.Get(ctx, "/MediaSegments/"+url.PathEscape(itemID), &resp); err != nil {
			if IsNotFound(err) {
				return nil, nil
			}
			return nil, err
		}
		segments := make([]core.Segment, 0, len(resp.Items))
		for _, s := range resp.Items {
			segments = append(segments, convertSegment(s))
		}
		return segments, nil
	})
}

// DownloadURL returns the original-file download URL for an item.
func (c *Client) DownloadURL(itemID string) string {
	return BuildURL(c.ServerURL()+"/Items/"+url.PathEscape(itemID)+"/Download", map[string]string{
		"api_key": c.Token(),
	})
}

// ImageURL returns the primary image URL for an item.
func (c *Client) ImageURL(itemID string, maxWidth int) string {
	params := map[string]string{}
	if maxWidth > 0 {
		params["maxWidth"] = strconv.Itoa(maxWidth)
	}
	return BuildURL(c.ServerURL()+"/Items/"+url.PathEscape(itemID)+"/Images/Primary", params)
}

// WebURL returns the server's web UI page for an item.
func (c *Client) WebURL(itemID string) string {
	return c.ServerURL() + "/web/#/details?id=" + url.QueryEscape(itemID)
}
