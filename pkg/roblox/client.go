package roblox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/ztnlabs/nexus/pkg/batch"
	"github.com/ztnlabs/nexus/pkg/fetch"
	"github.com/ztnlabs/nexus/pkg/pagination"
)

// ThumbnailBatchSize is the upstream cap on ids per thumbnail request.
const ThumbnailBatchSize = 100

// ClientConfig holds upstream hosts and fan-out tuning. Hosts are
// overridable so tests can point the client at a mock upstream.
type ClientConfig struct {
	GamesBaseURL      string
	CatalogBaseURL    string
	ThumbnailsBaseURL string
	UsersBaseURL      string
	APIsBaseURL       string

	// PassFanOutSize bounds how many universes are queried for passes at
	// once; PassFanOutPause separates consecutive fan-out waves.
	PassFanOutSize  int
	PassFanOutPause time.Duration
}

// DefaultClientConfig returns the production Roblox hosts.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		GamesBaseURL:      "https://games.roblox.com",
		CatalogBaseURL:    "https://catalog.roblox.com",
		ThumbnailsBaseURL: "https://thumbnails.roblox.com",
		UsersBaseURL:      "https://users.roblox.com",
		APIsBaseURL:       "https://apis.roblox.com",
		PassFanOutSize:    3,
		PassFanOutPause:   100 * time.Millisecond,
	}
}

// Client exposes the typed upstream Roblox endpoints through the resilient
// fetcher. Every method degrades to empty results on upstream failure.
type Client struct {
	fetcher *fetch.Fetcher
	config  ClientConfig
	logger  zerolog.Logger
}

// NewClient creates a Roblox upstream client.
func NewClient(fetcher *fetch.Fetcher, cfg ClientConfig, logger zerolog.Logger) *Client {
	if cfg.PassFanOutSize <= 0 {
		cfg.PassFanOutSize = 3
	}
	return &Client{
		fetcher: fetcher,
		config:  cfg,
		logger:  logger,
	}
}

// gameListing is the wire shape of one game in the creator games listing.
type gameListing struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Creator     struct {
		Type string `json:"type"`
		ID   int64  `json:"id"`
	} `json:"creator"`
	Created   string `json:"created"`
	Updated   string `json:"updated"`
	RootPlace *struct {
		ID int64 `json:"id"`
	} `json:"rootPlace"`
}

// UniversesByCreator fetches one page of a creator's public universes.
func (c *Client) UniversesByCreator(ctx context.Context, userID int64, cursor string) (pagination.Page[Universe], error) {
	u := fmt.Sprintf("%s/v2/users/%d/games", c.config.GamesBaseURL, userID)
	q := url.Values{}
	q.Set("accessFilter", "Public")
	q.Set("sortOrder", "Asc")
	q.Set("limit", "50")
	if cursor != "" {
		q.Set("cursor", cursor)
	}

	resp, err := fetch.GetJSON[pagination.Page[gameListing]](ctx, c.fetcher, u+"?"+q.Encode())
	if err != nil {
		return pagination.Page[Universe]{}, err
	}

	page := pagination.Page[Universe]{
		Data:               make([]Universe, 0, len(resp.Data)),
		NextPageCursor:     resp.NextPageCursor,
		PreviousPageCursor: resp.PreviousPageCursor,
	}
	for _, game := range resp.Data {
		universe := Universe{
			ID:              game.ID,
			Name:            game.Name,
			Description:     game.Description,
			CreatorType:     game.Creator.Type,
			CreatorTargetID: game.Creator.ID,
			Created:         game.Created,
			Updated:         game.Updated,
		}
		if universe.CreatorType == "" {
			universe.CreatorType = "User"
		}
		if universe.CreatorTargetID == 0 {
			universe.CreatorTargetID = userID
		}
		if game.RootPlace != nil {
			universe.RootPlaceID = game.RootPlace.ID
		}
		page.Data = append(page.Data, universe)
	}
	return page, nil
}

// AllUniverses collects every universe page for a creator.
func (c *Client) AllUniverses(ctx context.Context, userID int64) []Universe {
	return pagination.CollectAll(ctx, func(ctx context.Context, cursor string) (pagination.Page[Universe], error) {
		return c.UniversesByCreator(ctx, userID, cursor)
	})
}

// PlacesByUniverse fetches the root places of a universe.
func (c *Client) PlacesByUniverse(ctx context.Context, universeID int64) ([]Place, error) {
	u := fmt.Sprintf("%s/v1/games?universeIds=%d", c.config.GamesBaseURL, universeID)

	type gameDetail struct {
		ID          int64  `json:"id"`
		RootPlaceID int64  `json:"rootPlaceId"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	resp, err := fetch.GetJSON[struct {
		Data []gameDetail `json:"data"`
	}](ctx, c.fetcher, u)
	if err != nil {
		return nil, err
	}

	places := make([]Place, 0, len(resp.Data))
	for _, game := range resp.Data {
		places = append(places, Place{
			ID:          game.RootPlaceID,
			UniverseID:  game.ID,
			Name:        game.Name,
			Description: game.Description,
		})
	}
	return places, nil
}

// passListing is the wire shape shared by both game-pass hosts.
type passListing struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	DisplayName      string `json:"displayName"`
	Description      string `json:"description"`
	Price            *int64 `json:"price"`
	SellerName       string `json:"sellerName"`
	SellerID         int64  `json:"sellerId"`
	ProductID        int64  `json:"productId"`
	IconID           int64  `json:"iconId"`
	IconImageAssetID int64  `json:"iconImageAssetId"`
}

func (p passListing) toGamePass(universeID int64) GamePass {
	iconAsset := p.IconImageAssetID
	if iconAsset == 0 {
		iconAsset = p.IconID
	}
	return GamePass{
		ID:               p.ID,
		Name:             p.Name,
		DisplayName:      p.DisplayName,
		Description:      p.Description,
		Price:            p.Price,
		SellerName:       p.SellerName,
		SellerID:         p.SellerID,
		ProductID:        p.ProductID,
		IconImageAssetID: iconAsset,
		UniverseID:       universeID,
	}
}

// GamePassesByUniverse fetches all passes of one universe, following the
// cursor-paginated primary host and falling back to the secondary host when
// the primary yields nothing.
func (c *Client) GamePassesByUniverse(ctx context.Context, universeID int64) []GamePass {
	passes := pagination.CollectAll(ctx, func(ctx context.Context, cursor string) (pagination.Page[passListing], error) {
		u := fmt.Sprintf("%s/v1/games/%d/game-passes", c.config.GamesBaseURL, universeID)
		q := url.Values{}
		q.Set("sortOrder", "Asc")
		q.Set("limit", "100")
		if cursor != "" {
			q.Set("cursor", cursor)
		}
		resp, err := fetch.GetJSON[pagination.Page[passListing]](ctx, c.fetcher, u+"?"+q.Encode())
		if err != nil {
			return pagination.Page[passListing]{}, err
		}
		return *resp, nil
	})

	if len(passes) > 0 {
		out := make([]GamePass, 0, len(passes))
		for _, p := range passes {
			out = append(out, p.toGamePass(universeID))
		}
		return out
	}

	// Fallback host; single page, returns items under pageItems or data.
	u := fmt.Sprintf("%s/game-passes/v1/universes/%d/game-passes?sortOrder=Asc&limit=100", c.config.APIsBaseURL, universeID)
	resp, err := fetch.GetJSON[struct {
		PageItems []passListing `json:"pageItems"`
		Data      []passListing `json:"data"`
	}](ctx, c.fetcher, u)
	if err != nil {
		return nil
	}

	items := resp.PageItems
	if len(items) == 0 {
		items = resp.Data
	}
	out := make([]GamePass, 0, len(items))
	for _, p := range items {
		out = append(out, p.toGamePass(universeID))
	}
	return out
}

// AllGamePassesByUser discovers a creator's universes and fans out pass
// lookups in small waves to bound concurrent upstream pressure. Universes
// with no passes are omitted.
func (c *Client) AllGamePassesByUser(ctx context.Context, userID int64) []UniversePasses {
	page, err := c.UniversesByCreator(ctx, userID, "")
	if err != nil || len(page.Data) == 0 {
		return nil
	}

	var results []UniversePasses
	universes := page.Data

	for i := 0; i < len(universes); i += c.config.PassFanOutSize {
		end := i + c.config.PassFanOutSize
		if end > len(universes) {
			end = len(universes)
		}
		wave := universes[i:end]

		waveResults := make([]UniversePasses, len(wave))
		done := make(chan int, len(wave))
		for j, universe := range wave {
			go func(j int, universeID int64) {
				waveResults[j] = UniversePasses{
					UniverseID: universeID,
					GamePasses: c.GamePassesByUniverse(ctx, universeID),
				}
				done <- j
			}(j, universe.ID)
		}
		for range wave {
			<-done
		}

		for _, r := range waveResults {
			if len(r.GamePasses) > 0 {
				results = append(results, r)
			}
		}

		if end < len(universes) && c.config.PassFanOutPause > 0 {
			select {
			case <-ctx.Done():
				return results
			case <-time.After(c.config.PassFanOutPause):
			}
		}
	}

	return results
}

// catalogSearch runs one catalog search page for a creator.
func (c *Client) catalogSearch(ctx context.Context, userID int64, category, cursor string, includeNotForSale bool) (pagination.Page[CatalogItem], error) {
	q := url.Values{}
	q.Set("Category", category)
	q.Set("CreatorType", "User")
	q.Set("CreatorTargetId", strconv.FormatInt(userID, 10))
	q.Set("Limit", "30")
	if includeNotForSale {
		q.Set("SalesTypeFilter", "1")
	} else {
		q.Set("IncludeNotForSale", "false")
	}
	if cursor != "" {
		q.Set("Cursor", cursor)
	}

	u := c.config.CatalogBaseURL + "/v1/search/items/details?" + q.Encode()
	resp, err := fetch.GetJSON[pagination.Page[CatalogItem]](ctx, c.fetcher, u)
	if err != nil {
		return pagination.Page[CatalogItem]{}, err
	}
	return *resp, nil
}

// ClothingByCreator fetches one page of a creator's clothing catalog items.
func (c *Client) ClothingByCreator(ctx context.Context, userID int64, cursor string) (pagination.Page[CatalogItem], error) {
	return c.catalogSearch(ctx, userID, "3", cursor, true)
}

// UGCByCreator fetches one page of a creator's UGC catalog items.
func (c *Client) UGCByCreator(ctx context.Context, userID int64, cursor string) (pagination.Page[CatalogItem], error) {
	return c.catalogSearch(ctx, userID, "11", cursor, false)
}

// thumbnailResponse is the wire shape of the batch thumbnail endpoints.
type thumbnailResponse struct {
	Data []struct {
		TargetID int64  `json:"targetId"`
		ImageURL string `json:"imageUrl"`
	} `json:"data"`
}

// resolveThumbnails issues chunked concurrent calls against a batch
// thumbnail endpoint and merges the id to image-url pairs.
func (c *Client) resolveThumbnails(ctx context.Context, ids []int64, build func(joined string) string) map[int64]string {
	return batch.Resolve(ctx, ids, ThumbnailBatchSize, func(ctx context.Context, chunk []int64) (map[int64]string, error) {
		joined := joinIDs(chunk)
		resp, err := fetch.GetJSON[thumbnailResponse](ctx, c.fetcher, build(joined))
		if err != nil {
			return nil, err
		}
		out := make(map[int64]string, len(resp.Data))
		for _, item := range resp.Data {
			out[item.TargetID] = item.ImageURL
		}
		return out, nil
	})
}

// GamePassIcons resolves icon URLs for a set of pass ids. Ids absent from
// the result are unresolved; callers substitute an empty URL.
func (c *Client) GamePassIcons(ctx context.Context, ids []int64) map[int64]string {
	return c.resolveThumbnails(ctx, ids, func(joined string) string {
		return fmt.Sprintf("%s/v1/game-passes?gamePassIds=%s&size=150x150&format=Png&isCircular=false",
			c.config.ThumbnailsBaseURL, joined)
	})
}

// AssetThumbnails resolves thumbnail URLs for a set of asset ids.
func (c *Client) AssetThumbnails(ctx context.Context, ids []int64) map[int64]string {
	return c.resolveThumbnails(ctx, ids, func(joined string) string {
		return fmt.Sprintf("%s/v1/assets?assetIds=%s&size=420x420&format=Png&isCircular=false",
			c.config.ThumbnailsBaseURL, joined)
	})
}

// UserByUsername resolves a username to its user id. Returns nil when the
// user does not exist or the lookup fails.
func (c *Client) UserByUsername(ctx context.Context, username string) (*UserInfo, error) {
	u := c.config.UsersBaseURL + "/v1/usernames/users"
	body := map[string]any{
		"usernames":          []string{username},
		"excludeBannedUsers": true,
	}

	raw, err := c.fetcher.Post(ctx, u, body)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data []UserInfo `json:"data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	return &resp.Data[0], nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
