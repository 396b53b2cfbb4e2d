//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Test groups test targets (all, unit).
type Test mg.Namespace

// All runs every test with the race detector, including the CLI tests
// that create files.
func (Test) All() error {
	return sh.RunV(binGo, "test", "-race", "-count=1", "./...")
}

// Unit runs the tests that need no filesystem, skipping CLI runs.
func (Test) Unit() error {
	return sh.RunV(binGo, "test", "-short", "./...")
}

// Cover writes a coverage profile to bin/coverage.out.
func (Test) Cover() error {
	mg.Deps(ensureBinDir)
	return sh.RunV(binGo, "test", "-short", "-coverprofile="+binaryDir+"/coverage.out", "./...")
}

func ensureBinDir() error {
	return os.MkdirAll(binaryDir, 0o755)
}
