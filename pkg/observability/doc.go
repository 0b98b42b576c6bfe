/*
Package observability provides Prometheus metrics for the quote bot.

A nil *Metrics is valid and records nothing, so components take metrics as an
optional dependency.
*/
package observability
