// Package analysis runs the contrast evaluator and the suggestion engine over
// a batch of color pairs and aggregates the outcome into a Report.
//
// Output order always matches input order, with or without a worker pool.
// Malformed pairs never abort a batch; they are reported in Report.Skipped.
package analysis
