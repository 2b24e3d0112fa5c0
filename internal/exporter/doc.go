// Package exporter writes the derived activity tables and market area shape
// summaries as CSV files.
//
// CSVWriter is the core: header/record writing, streaming, and a UTF-8 BOM
// for Excel compatibility. The activity-specific writers layer the output
// naming convention on top:
//
//	writer := exporter.NewCSVWriter("/path/to/out")
//	err := writer.WriteActivityTable(loc, result.Records)
//	err = writer.WriteShapesSummary(loc, result.MarketShapes)
package exporter
