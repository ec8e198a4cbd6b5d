package roblox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/ztnlabs/nexus/internal/testutil"
	"github.com/ztnlabs/nexus/pkg/cache"
	"github.com/ztnlabs/nexus/pkg/fetch"
	"github.com/ztnlabs/nexus/pkg/pacing"
)

// newTestClient builds a client with every upstream host pointed at the
// mock server and fast retry timings.
func newTestClient(t *testing.T, mock *testutil.MockUpstream) *Client {
	t.Helper()

	fcfg := fetch.DefaultConfig()
	fcfg.RateLimitBackoff = time.Millisecond
	fcfg.RetryDelay = time.Millisecond

	gate := pacing.NewGate(time.Millisecond, zerolog.Nop())
	fetcher := fetch.New(cache.NewMemoryStore(cache.DefaultTTL), gate, fcfg, zerolog.Nop())

	cfg := DefaultClientConfig()
	cfg.GamesBaseURL = mock.URL()
	cfg.CatalogBaseURL = mock.URL()
	cfg.ThumbnailsBaseURL = mock.URL()
	cfg.UsersBaseURL = mock.URL()
	cfg.APIsBaseURL = mock.URL()
	cfg.PassFanOutPause = time.Millisecond

	return NewClient(fetcher, cfg, zerolog.Nop())
}

func TestUniversesByCreator(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()

	mock.SetCreatorGamesResponse(42, testutil.NewListingResponse(
		`[{"id": 101, "name": "Obby World", "creator": {"type": "User", "id": 42}, "rootPlace": {"id": 9001}},
		  {"id": 102, "name": "Tycoon City", "creator": {"type": "User", "id": 42}}]`))

	client := newTestClient(t, mock)
	page, err := client.UniversesByCreator(context.Background(), 42, "")
	if err != nil {
		t.Fatalf("UniversesByCreator() error = %v", err)
	}

	if len(page.Data) != 2 {
		t.Fatalf("got %d universes, want 2", len(page.Data))
	}
	if page.Data[0].ID != 101 || page.Data[0].Name != "Obby World" {
		t.Errorf("first universe = %+v", page.Data[0])
	}
	if page.Data[0].RootPlaceID != 9001 {
		t.Errorf("RootPlaceID = %d, want 9001", page.Data[0].RootPlaceID)
	}
	if page.Data[1].CreatorTargetID != 42 {
		t.Errorf("CreatorTargetID = %d, want 42", page.Data[1].CreatorTargetID)
	}
	if page.HasNext() {
		t.Error("expected no next page")
	}
}

func TestAllUniversesFollowsCursors(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()

	mock.SetHandler("/v2/users/42/games", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("cursor") == "" {
			fmt.Fprint(w, `{"data": [{"id": 1, "name": "Alpha"}], "nextPageCursor": "page2", "previousPageCursor": null}`)
			return
		}
		fmt.Fprint(w, `{"data": [{"id": 2, "name": "Beta"}], "nextPageCursor": null, "previousPageCursor": "page1"}`)
	})

	client := newTestClient(t, mock)
	universes := client.AllUniverses(context.Background(), 42)

	if len(universes) != 2 {
		t.Fatalf("got %d universes, want 2", len(universes))
	}
	if universes[0].ID != 1 || universes[1].ID != 2 {
		t.Errorf("universe order = [%d, %d], want [1, 2]", universes[0].ID, universes[1].ID)
	}
}

func TestAllUniversesUpstreamFailureReturnsEmpty(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()

	mock.SetCreatorGamesResponse(42, testutil.NewServerErrorResponse())

	client := newTestClient(t, mock)
	universes := client.AllUniverses(context.Background(), 42)

	if len(universes) != 0 {
		t.Errorf("got %d universes, want 0 after upstream failure", len(universes))
	}
}

func TestGamePassesByUniverse(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()

	mock.SetGamePassesResponse(101, testutil.NewListingResponse(
		`[{"id": 555, "name": "vip", "displayName": "VIP Access", "price": 99, "iconImageAssetId": 777}]`))

	client := newTestClient(t, mock)
	passes := client.GamePassesByUniverse(context.Background(), 101)

	if len(passes) != 1 {
		t.Fatalf("got %d passes, want 1", len(passes))
	}
	gp := passes[0]
	if gp.ID != 555 || gp.Title() != "VIP Access" {
		t.Errorf("pass = %+v", gp)
	}
	if gp.Price == nil || *gp.Price != 99 {
		t.Errorf("Price = %v, want 99", gp.Price)
	}
	if gp.UniverseID != 101 {
		t.Errorf("UniverseID = %d, want 101", gp.UniverseID)
	}
	if gp.IconImageAssetID != 777 {
		t.Errorf("IconImageAssetID = %d, want 777", gp.IconImageAssetID)
	}
}

func TestGamePassesByUniverseFallsBackToSecondaryHost(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()

	// Primary host yields an empty listing; fallback host has the passes.
	mock.SetGamePassesResponse(101, testutil.NewListingResponse(`[]`))
	mock.SetResponse("/game-passes/v1/universes/101/game-passes", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"pageItems": [{"id": 556, "name": "Speed Boost", "price": 25}]}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	})

	client := newTestClient(t, mock)
	passes := client.GamePassesByUniverse(context.Background(), 101)

	if len(passes) != 1 {
		t.Fatalf("got %d passes, want 1 from fallback host", len(passes))
	}
	if passes[0].ID != 556 {
		t.Errorf("pass ID = %d, want 556", passes[0].ID)
	}
}

func TestAllGamePassesByUserOmitsEmptyUniverses(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()

	mock.SetCreatorGamesResponse(42, testutil.NewListingResponse(
		`[{"id": 101, "name": "Alpha"}, {"id": 102, "name": "Beta"}, {"id": 103, "name": "Gamma"}, {"id": 104, "name": "Delta"}]`))
	mock.SetGamePassesResponse(101, testutil.NewListingResponse(`[{"id": 1, "name": "One"}]`))
	mock.SetGamePassesResponse(103, testutil.NewListingResponse(`[{"id": 3, "name": "Three"}]`))
	// 102 and 104 fall through to the empty default on both hosts.

	client := newTestClient(t, mock)
	results := client.AllGamePassesByUser(context.Background(), 42)

	if len(results) != 2 {
		t.Fatalf("got %d universes with passes, want 2", len(results))
	}
	if results[0].UniverseID != 101 || results[1].UniverseID != 103 {
		t.Errorf("universe order = [%d, %d], want [101, 103]", results[0].UniverseID, results[1].UniverseID)
	}
}

func TestClothingByCreatorQuery(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()

	var query map[string][]string
	mock.SetHandler("/v1/search/items/details", func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data": [{"id": 900, "name": "Cool Shirt", "price": 5, "itemType": "Asset"}], "nextPageCursor": null}`)
	})

	client := newTestClient(t, mock)
	page, err := client.ClothingByCreator(context.Background(), 42, "")
	if err != nil {
		t.Fatalf("ClothingByCreator() error = %v", err)
	}

	if len(page.Data) != 1 || page.Data[0].Name != "Cool Shirt" {
		t.Fatalf("page.Data = %+v", page.Data)
	}
	if got := query["Category"]; len(got) != 1 || got[0] != "3" {
		t.Errorf("Category = %v, want [3]", got)
	}
	if got := query["CreatorTargetId"]; len(got) != 1 || got[0] != "42" {
		t.Errorf("CreatorTargetId = %v, want [42]", got)
	}
	if got := query["SalesTypeFilter"]; len(got) != 1 || got[0] != "1" {
		t.Errorf("SalesTypeFilter = %v, want [1]", got)
	}
}

func TestUGCByCreatorQuery(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()

	var query map[string][]string
	mock.SetHandler("/v1/search/items/details", func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data": [], "nextPageCursor": null}`)
	})

	client := newTestClient(t, mock)
	if _, err := client.UGCByCreator(context.Background(), 42, ""); err != nil {
		t.Fatalf("UGCByCreator() error = %v", err)
	}

	if got := query["Category"]; len(got) != 1 || got[0] != "11" {
		t.Errorf("Category = %v, want [11]", got)
	}
	if got := query["IncludeNotForSale"]; len(got) != 1 || got[0] != "false" {
		t.Errorf("IncludeNotForSale = %v, want [false]", got)
	}
}

func TestGamePassIcons(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()

	mock.SetHandler("/v1/game-passes", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("gamePassIds"); got != "1,2" {
			t.Errorf("gamePassIds = %q, want %q", got, "1,2")
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data": [{"targetId": 1, "imageUrl": "https://cdn.example/1.png"}, {"targetId": 2, "imageUrl": "https://cdn.example/2.png"}]}`)
	})

	client := newTestClient(t, mock)
	icons := client.GamePassIcons(context.Background(), []int64{1, 2})

	if len(icons) != 2 {
		t.Fatalf("got %d icons, want 2", len(icons))
	}
	if icons[1] != "https://cdn.example/1.png" {
		t.Errorf("icons[1] = %q", icons[1])
	}
}

func TestAssetThumbnailsChunksLargeSets(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()

	var calls int64
	mock.SetHandler("/v1/assets", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data": []}`)
	})

	ids := make([]int64, 150)
	for i := range ids {
		ids[i] = int64(i + 1)
	}

	client := newTestClient(t, mock)
	client.AssetThumbnails(context.Background(), ids)

	if n := atomic.LoadInt64(&calls); n != 2 {
		t.Errorf("upstream calls = %d, want 2 for 150 ids", n)
	}
}

func TestUserByUsername(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()

	mock.SetHandler("/v1/usernames/users", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var body struct {
			Usernames          []string `json:"usernames"`
			ExcludeBannedUsers bool     `json:"excludeBannedUsers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		if len(body.Usernames) != 1 || body.Usernames[0] != "builderman" {
			t.Errorf("usernames = %v", body.Usernames)
		}
		if !body.ExcludeBannedUsers {
			t.Error("ExcludeBannedUsers = false, want true")
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data": [{"id": 156, "name": "builderman"}]}`)
	})

	client := newTestClient(t, mock)
	info, err := client.UserByUsername(context.Background(), "builderman")
	if err != nil {
		t.Fatalf("UserByUsername() error = %v", err)
	}
	if info == nil || info.ID != 156 || info.Name != "builderman" {
		t.Errorf("info = %+v", info)
	}
}

func TestUserByUsernameNotFound(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()

	mock.SetResponse("/v1/usernames/users", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"data": []}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	})

	client := newTestClient(t, mock)
	info, err := client.UserByUsername(context.Background(), "nosuchuser")
	if err != nil {
		t.Fatalf("UserByUsername() error = %v", err)
	}
	if info != nil {
		t.Errorf("info = %+v, want nil for unknown user", info)
	}
}
