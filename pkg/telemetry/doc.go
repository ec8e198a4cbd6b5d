// Package telemetry implements the usage log of the proxy. Every completed
// inbound request, including policy short-circuits, is recorded once into a
// capacity-bounded in-memory log. All reporting figures (rolling windows,
// success ratio, endpoint health) are derived from the log on read, never
// stored separately.
package telemetry
