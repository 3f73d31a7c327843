// Package exporter writes survey results as CSV or as an .xlsx workbook.
//
// The record exports use the canonical column names, so an exported
// workbook can be uploaded again and ingests to the same records.
package exporter
