// Package workbook reads cell values from spreadsheet files.
//
// A [Grid] is an immutable snapshot of one worksheet and implements
// [cell.Accessor]. Grids are loaded from .xlsx workbooks with [LoadXLSX] or
// from YAML documents with [LoadYAML]; [Diff] lists the cells that changed
// between two snapshots so callers can mark them dirty.
package workbook
