// Package activity derives a normalized market-activity time series for a
// location from per-image, per-area pixel statistics exported by the imagery
// provider.
//
// The derivation runs as a fixed sequence over one location: property
// normalization, calendar/coordinate enrichment, market-day classification,
// outlier filtering, market-area selection, and baseline normalization with
// temporal smoothing. Locations are independent; a Processor holds no state
// across runs and callers may process locations concurrently.
package activity
