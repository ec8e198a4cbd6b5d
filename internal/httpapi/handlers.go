package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ztnlabs/nexus/pkg/roblox"
)

// responseMeta is the trailer attached to the collection-style responses.
type responseMeta struct {
	ResponseTimeMs int64  `json:"responseTimeMs"`
	Version        string `json:"version"`
}

func newMeta(start time.Time) responseMeta {
	return responseMeta{
		ResponseTimeMs: time.Since(start).Milliseconds(),
		Version:        "2.0.0",
	}
}

// universeIconURL builds the self-resolving game icon URL for a universe.
func universeIconURL(universeID int64) string {
	return fmt.Sprintf("https://thumbnails.roblox.com/v1/games/icons?universeIds=%d&size=512x512&format=Png&isCircular=false", universeID)
}

// placeIconURL builds the self-resolving game icon URL for a place.
func placeIconURL(placeID int64) string {
	return fmt.Sprintf("https://thumbnails.roblox.com/v1/places/gameicons?placeIds=%d&size=512x512&format=Png&isCircular=false", placeID)
}

// parseUserID reads the required userId query parameter.
func parseUserID(r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("userId")
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		writeError(w, http.StatusBadRequest, "Username is required")
		return
	}

	user, err := s.client.UserByUsername(r.Context(), username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch user data")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUniverses(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}
	cursor := r.URL.Query().Get("cursor")

	page, err := s.client.UniversesByCreator(r.Context(), userID, cursor)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch universes")
		return
	}

	assets := make([]roblox.Asset, 0, len(page.Data))
	for _, universe := range page.Data {
		assets = append(assets, roblox.Asset{
			ID:       universe.ID,
			Name:     universe.Name,
			ImageURL: universeIconURL(universe.ID),
			Type:     roblox.AssetUniverse,
			Source:   roblox.SourceUniverse,
		})

		// Place listings degrade silently like every other category.
		places, err := s.client.PlacesByUniverse(r.Context(), universe.ID)
		if err != nil {
			s.logger.Warn().Err(err).Int64("universe_id", universe.ID).Msg("place fetch degraded to empty")
			continue
		}
		for _, place := range places {
			assets = append(assets, roblox.Asset{
				ID:         place.ID,
				Name:       place.Name,
				ImageURL:   placeIconURL(place.ID),
				Type:       roblox.AssetPlace,
				Source:     roblox.SourceUniverse,
				UniverseID: place.UniverseID,
			})
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":               assets,
		"nextPageCursor":     page.NextPageCursor,
		"previousPageCursor": page.PreviousPageCursor,
	})
}

func (s *Server) handleGamePasses(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := parseUserID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	universePasses := s.client.AllGamePassesByUser(r.Context(), userID)

	var flat []roblox.GamePass
	for _, up := range universePasses {
		flat = append(flat, up.GamePasses...)
	}

	passIDs := make([]int64, 0, len(flat))
	for _, gp := range flat {
		passIDs = append(passIDs, gp.ID)
	}
	icons := s.client.GamePassIcons(r.Context(), passIDs)

	passes := make([]roblox.Asset, 0, len(flat))
	for _, gp := range flat {
		passes = append(passes, roblox.Asset{
			ID:               gp.ID,
			Name:             gp.Title(),
			Price:            gp.Price,
			ImageURL:         icons[gp.ID],
			Type:             roblox.AssetGamePass,
			Source:           roblox.SourceUniverse,
			UniverseID:       gp.UniverseID,
			IconImageAssetID: gp.IconImageAssetID,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"userId":     userID,
		"count":      len(passes),
		"gamepasses": passes,
		"_meta":      newMeta(start),
	})
}

// handleCatalog serves both the clothing and UGC routes; they differ only in
// the category fetch.
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request, assetType roblox.AssetType,
	fetchPage func(r *http.Request, userID int64, cursor string) (data []roblox.CatalogItem, nextCursor *string, err error)) {

	userID, ok := parseUserID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}
	cursor := r.URL.Query().Get("cursor")

	items, nextCursor, err := fetchPage(r, userID, cursor)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch catalog items")
		return
	}

	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	thumbs := s.client.AssetThumbnails(r.Context(), ids)

	assets := make([]roblox.Asset, 0, len(items))
	for _, item := range items {
		assets = append(assets, roblox.Asset{
			ID:       item.ID,
			Name:     item.Name,
			Price:    item.Price,
			ImageURL: thumbs[item.ID],
			Type:     assetType,
			Source:   roblox.SourceCatalog,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":           assets,
		"nextPageCursor": nextCursor,
	})
}

func (s *Server) handleClothing(w http.ResponseWriter, r *http.Request) {
	s.handleCatalog(w, r, roblox.AssetClothing,
		func(r *http.Request, userID int64, cursor string) ([]roblox.CatalogItem, *string, error) {
			page, err := s.client.ClothingByCreator(r.Context(), userID, cursor)
			if err != nil {
				return nil, nil, err
			}
			return page.Data, page.NextPageCursor, nil
		})
}

func (s *Server) handleUGC(w http.ResponseWriter, r *http.Request) {
	s.handleCatalog(w, r, roblox.AssetUGC,
		func(r *http.Request, userID int64, cursor string) ([]roblox.CatalogItem, *string, error) {
			page, err := s.client.UGCByCreator(r.Context(), userID, cursor)
			if err != nil {
				return nil, nil, err
			}
			return page.Data, page.NextPageCursor, nil
		})
}

func (s *Server) handleAllAssets(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := parseUserID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	collection := s.aggregator.AllAssets(r.Context(), userID)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"userId":      collection.UserID,
		"totalAssets": collection.TotalAssets,
		"assets":      collection.Assets,
		"universes":   collection.Universes,
		"gamepasses":  collection.GamePasses,
		"clothing":    collection.Clothing,
		"ugc":         collection.UGC,
		"breakdown":   collection.Breakdown,
		"_meta":       newMeta(start),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.usage.Stats(time.Now())
	healths := s.usage.EndpointHealths()

	writeJSON(w, http.StatusOK, map[string]any{
		"apiEnabled":        s.status.Enabled(),
		"totalRequests24h":  stats.TotalRequests24h,
		"requestsPerHour":   stats.RequestsPerHour,
		"requestsPerMinute": stats.RequestsPerMinute,
		"avgResponseTime":   stats.AvgResponseTimeMs,
		"successRate":       stats.SuccessRate,
		"platformCounts":    stats.PlatformCounts,
		"endpointHealth":    healths,
		"lastUpdated":       time.Now().UTC().Format(time.RFC3339),
	})
}
