// Package rule defines conditional formatting rules.
//
// A [Rule] binds a [Condition] to an ordered list of ranges. Conditions are a
// closed set of variants, one per [Kind], each carrying only the parameters
// relevant to that kind. Rules are plain values: registering a rule with an
// engine returns a finalized copy and never mutates the caller's value.
package rule
