// Package main provides the entry point for the leakscan CLI.
//
// leakscan is a reconnaissance tool for finding leaked secrets and exposed
// sensitive files on web sites you are authorized to test.
//
// Usage:
//
//	leakscan scan <targets-file>
//
// See --help for all available options.
package main

func main() {
	Execute()
}
