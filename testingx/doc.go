// Package testingx provides testing helpers and fakes for bindx packages.
//
// # Overview
//
// testingx contains small utilities to speed up unit tests: a mock logger
// with capture and assertions, a source builder, error-code assertions and
// metric collection helpers.
//
// # Features
//
//   - MockLogger with in-memory capture and assertions
//   - NewSource for literal key/value sources
//   - RequireCode for core/errors codes
//   - Dump and AssertBound for readable struct diffs
//   - NewMeterProvider and CounterValue for metric assertions
//
// # Usage
//
//	logger := testingx.NewMockLogger(t)
//	src := testingx.NewSource(t, "server.port", "8080")
//	err := bindx.New(src, bindx.WithLogger(logger)).Configure(&cfg)
//	testingx.AssertNoError(t, err)
//
// # Layer
//
// testingx is an auxiliary package for tests only and depends on core packages.
package testingx
