//go:build mage

// Package main provides build targets for the parktrack project using Mage.
//
// Usage:
//
//	mage build          Compile the parktrack binary to bin/
//	mage test:all       Run every test with the race detector
//	mage test:unit      Run short tests only (no CLI runs against disk)
//	mage test:cover     Write bin/coverage.out
//	mage lint           Run go vet and golangci-lint
//	mage clean          Remove build artifacts
//	mage install        Install parktrack to GOPATH/bin
//	mage stats          Print Go LOC per package and the migration count
//
// Set PARKTRACK_VERSION to stamp the version into the binary.
package main
