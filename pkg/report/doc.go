// Package report projects engine results into serializable views and
// renders them as tables, JSON, or YAML.
package report
