package roblox

// AssetType identifies the kind of platform asset.
type AssetType string

const (
	AssetGamePass AssetType = "GamePass"
	AssetClothing AssetType = "Clothing"
	AssetUGC      AssetType = "UGC"
	AssetUniverse AssetType = "Universe"
	AssetPlace    AssetType = "Place"
)

// AssetSource identifies which upstream surface an asset came from.
type AssetSource string

const (
	SourceUniverse AssetSource = "Universe"
	SourceCatalog  AssetSource = "Catalog"
)

// Asset is one entry of an aggregated asset collection. ID and Type together
// uniquely identify an asset within one aggregation response.
type Asset struct {
	ID               int64       `json:"id"`
	Name             string      `json:"name"`
	Price            *int64      `json:"price"`
	ImageURL         string      `json:"imageUrl"`
	Type             AssetType   `json:"type"`
	Source           AssetSource `json:"source"`
	UniverseID       int64       `json:"universeId,omitempty"`
	IconImageAssetID int64       `json:"iconImageAssetId,omitempty"`
}

// Universe is one game universe owned by a creator.
type Universe struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	CreatorType     string `json:"creatorType"`
	CreatorTargetID int64  `json:"creatorTargetId"`
	Created         string `json:"created"`
	Updated         string `json:"updated"`
	RootPlaceID     int64  `json:"rootPlaceId,omitempty"`
}

// Place is a playable place inside a universe.
type Place struct {
	ID          int64  `json:"id"`
	UniverseID  int64  `json:"universeId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// GamePass is one purchasable pass attached to a universe.
type GamePass struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	DisplayName      string `json:"displayName,omitempty"`
	Description      string `json:"description,omitempty"`
	Price            *int64 `json:"price"`
	SellerName       string `json:"sellerName,omitempty"`
	SellerID         int64  `json:"sellerId,omitempty"`
	ProductID        int64  `json:"productId,omitempty"`
	IconImageAssetID int64  `json:"iconImageAssetId,omitempty"`
	UniverseID       int64  `json:"universeId,omitempty"`
}

// Title returns the pass display name, falling back to its internal name.
func (gp GamePass) Title() string {
	if gp.DisplayName != "" {
		return gp.DisplayName
	}
	return gp.Name
}

// CatalogItem is one clothing or UGC item from the catalog search surface.
type CatalogItem struct {
	ID              int64  `json:"id"`
	ItemType        string `json:"itemType"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	Price           *int64 `json:"price"`
	CreatorType     string `json:"creatorType"`
	CreatorTargetID int64  `json:"creatorTargetId"`
	CreatorName     string `json:"creatorName"`
	AssetType       string `json:"assetType,omitempty"`
}

// UserInfo is the result of a username lookup.
type UserInfo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// UniversePasses groups the passes discovered for one universe.
type UniversePasses struct {
	UniverseID int64      `json:"universeId"`
	GamePasses []GamePass `json:"gamePasses"`
}

// Breakdown counts aggregated assets per category.
type Breakdown struct {
	Universes  int `json:"universes"`
	GamePasses int `json:"gamePasses"`
	Clothing   int `json:"clothing"`
	UGC        int `json:"ugc"`
}

// Collection is the unified result of one aggregation run. Categories that
// failed upstream degrade to empty slices; the collection itself is always
// well formed.
type Collection struct {
	UserID      int64     `json:"userId"`
	TotalAssets int       `json:"totalAssets"`
	Assets      []Asset   `json:"assets"`
	Universes   []Asset   `json:"universes"`
	GamePasses  []Asset   `json:"gamepasses"`
	Clothing    []Asset   `json:"clothing"`
	UGC         []Asset   `json:"ugc"`
	Breakdown   Breakdown `json:"breakdown"`
}
