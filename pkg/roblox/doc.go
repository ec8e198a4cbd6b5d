// Package roblox implements the typed upstream client for the Roblox
// platform APIs and the aggregation orchestrator that assembles a creator's
// full asset collection.
//
// The client covers five upstream hosts (games, catalog, thumbnails, users
// and the apis fallback) behind one resilient fetcher, so every call shares
// the response cache, the pacing gate and the retry policy. Aggregation
// degrades per category: a failing surface yields an empty slice in the
// collection instead of failing the run.
package roblox
