package roblox

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	aggregationRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nexus_aggregation_runs_total",
		Help: "Total number of full-collection aggregation runs",
	})
	aggregationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "nexus_aggregation_duration_seconds",
		Help:    "Wall-clock duration of full-collection aggregation runs",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	})
	aggregationCategoryFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nexus_aggregation_category_failures_total",
		Help: "Category fetches that degraded to empty during aggregation",
	}, []string{"category"})
)

// Aggregator assembles a creator's full asset collection from the four
// category surfaces. Categories are fetched concurrently and a failing
// category degrades to empty instead of failing the whole run.
type Aggregator struct {
	client *Client
	logger zerolog.Logger
}

// NewAggregator creates an aggregation orchestrator on top of a client.
func NewAggregator(client *Client, logger zerolog.Logger) *Aggregator {
	return &Aggregator{client: client, logger: logger}
}

// AllAssets aggregates every asset category for one creator. The returned
// collection is always well formed; per-category failures are logged and
// leave that category empty.
func (a *Aggregator) AllAssets(ctx context.Context, userID int64) *Collection {
	start := time.Now()
	aggregationRuns.Inc()

	var (
		universes []Universe
		passes    []UniversePasses
		clothing  []CatalogItem
		ugc       []CatalogItem
	)

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		universes = a.client.AllUniverses(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		passes = a.client.AllGamePassesByUser(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		page, err := a.client.ClothingByCreator(ctx, userID, "")
		if err != nil {
			aggregationCategoryFailures.WithLabelValues("clothing").Inc()
			a.logger.Warn().Err(err).Int64("user_id", userID).Msg("clothing fetch degraded to empty")
			return
		}
		clothing = page.Data
	}()
	go func() {
		defer wg.Done()
		page, err := a.client.UGCByCreator(ctx, userID, "")
		if err != nil {
			aggregationCategoryFailures.WithLabelValues("ugc").Inc()
			a.logger.Warn().Err(err).Int64("user_id", userID).Msg("ugc fetch degraded to empty")
			return
		}
		ugc = page.Data
	}()
	wg.Wait()

	var flatPasses []GamePass
	for _, up := range passes {
		flatPasses = append(flatPasses, up.GamePasses...)
	}

	// Image resolution runs after all categories are known so each batch
	// surface is hit once per run.
	icons, thumbs := a.resolveImages(ctx, flatPasses, clothing, ugc)

	collection := &Collection{
		UserID:     userID,
		Universes:  make([]Asset, 0, len(universes)),
		GamePasses: make([]Asset, 0, len(flatPasses)),
		Clothing:   make([]Asset, 0, len(clothing)),
		UGC:        make([]Asset, 0, len(ugc)),
	}

	for _, u := range universes {
		collection.Universes = append(collection.Universes, Asset{
			ID:         u.ID,
			Name:       u.Name,
			Type:       AssetUniverse,
			Source:     SourceUniverse,
			UniverseID: u.ID,
		})
	}
	for _, gp := range flatPasses {
		collection.GamePasses = append(collection.GamePasses, Asset{
			ID:               gp.ID,
			Name:             gp.Title(),
			Price:            gp.Price,
			ImageURL:         icons[gp.ID],
			Type:             AssetGamePass,
			Source:           SourceUniverse,
			UniverseID:       gp.UniverseID,
			IconImageAssetID: gp.IconImageAssetID,
		})
	}
	for _, item := range clothing {
		collection.Clothing = append(collection.Clothing, Asset{
			ID:       item.ID,
			Name:     item.Name,
			Price:    item.Price,
			ImageURL: thumbs[item.ID],
			Type:     AssetClothing,
			Source:   SourceCatalog,
		})
	}
	for _, item := range ugc {
		collection.UGC = append(collection.UGC, Asset{
			ID:       item.ID,
			Name:     item.Name,
			Price:    item.Price,
			ImageURL: thumbs[item.ID],
			Type:     AssetUGC,
			Source:   SourceCatalog,
		})
	}

	collection.Breakdown = Breakdown{
		Universes:  len(collection.Universes),
		GamePasses: len(collection.GamePasses),
		Clothing:   len(collection.Clothing),
		UGC:        len(collection.UGC),
	}
	collection.Assets = make([]Asset, 0,
		len(collection.Universes)+len(collection.GamePasses)+len(collection.Clothing)+len(collection.UGC))
	collection.Assets = append(collection.Assets, collection.Universes...)
	collection.Assets = append(collection.Assets, collection.GamePasses...)
	collection.Assets = append(collection.Assets, collection.Clothing...)
	collection.Assets = append(collection.Assets, collection.UGC...)
	collection.TotalAssets = len(collection.Assets)

	elapsed := time.Since(start)
	aggregationDuration.Observe(elapsed.Seconds())
	a.logger.Info().
		Int64("user_id", userID).
		Int("total_assets", collection.TotalAssets).
		Int("universes", collection.Breakdown.Universes).
		Int("gamepasses", collection.Breakdown.GamePasses).
		Int("clothing", collection.Breakdown.Clothing).
		Int("ugc", collection.Breakdown.UGC).
		Dur("duration", elapsed).
		Msg("aggregation complete")

	return collection
}

// resolveImages fetches pass icons and catalog thumbnails concurrently.
// Unresolved ids are simply absent; callers render an empty image URL.
func (a *Aggregator) resolveImages(ctx context.Context, passes []GamePass, clothing, ugc []CatalogItem) (icons, thumbs map[int64]string) {
	passIDs := make([]int64, 0, len(passes))
	for _, gp := range passes {
		passIDs = append(passIDs, gp.ID)
	}
	assetIDs := make([]int64, 0, len(clothing)+len(ugc))
	for _, item := range clothing {
		assetIDs = append(assetIDs, item.ID)
	}
	for _, item := range ugc {
		assetIDs = append(assetIDs, item.ID)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		icons = a.client.GamePassIcons(ctx, passIDs)
	}()
	go func() {
		defer wg.Done()
		thumbs = a.client.AssetThumbnails(ctx, assetIDs)
	}()
	wg.Wait()
	return icons, thumbs
}
