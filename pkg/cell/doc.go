// Package cell defines the grid vocabulary shared by the rule engine:
// zero-based [Address]es, inclusive rectangular [Range]s, the closed [Value]
// variant returned by value accessors, and the [Accessor] contract itself.
//
// Addresses and ranges can be written in A1 notation:
//
//	a, _ := cell.ParseAddress("B3")    // {Row: 2, Col: 1}
//	r, _ := cell.ParseRange("A1:E1")   // row 0, columns 0-4
//	r, _ = cell.ParseRange("C7")       // single cell range
package cell
