// Package pipeline runs the detection steps for each target.
//
// A Pipeline is an ordered list of Steps. The default pipeline is:
//  1. sensitive_probe: request the sensitive path catalogue on the origin
//  2. crawl: walk the site and scan every page for leak patterns
//  3. external_scan: run the external vulnerability scanner once
//
// Every step appends to one run-wide model.Session and records counters in a
// per-target model.TargetReport. Detection failures never surface as step
// errors, so one unreachable target cannot stop the run.
//
// A Runner drives the pipeline over all targets, sequentially by default or
// with bounded concurrency using errgroup.
package pipeline
