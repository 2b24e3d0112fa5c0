// Package files loads the provider exports an activity run consumes.
//
// A Store is rooted at the export directory and resolves the provider's
// naming conventions for the three per-location exports:
//
// LoadImageProperties reads the image property export (cloud and clear
// fractions, acquisition timestamp), accepting either the CSV or the XLSX
// variant of the file.
//
// LoadAreaObservations reads the per-area measures export and de-mangles the
// image identifiers embedded in its rows.
//
// LoadAreaShapes reads the detection-ring shapes export, parsing the GeoJSON
// geometry column into polygon rings. A missing shapes file is not an error;
// shapes are optional.
//
// DiscoverLocations scans the export directory for measures files and returns
// the (group, location) pairs present, so a run can process everything the
// provider delivered without an explicit location list.
package files
