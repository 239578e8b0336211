//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binary = "bin/parcel"

type Build mg.Namespace

// Vets the module and builds the parcel binary into bin/.
func (Build) Engine() error {
	if err := sh.RunV("go", "vet", "./..."); err != nil {
		return err
	}
	return sh.RunV("go", "build", "-o", binary, ".")
}

// Tidies the module files.
func (Build) Tidy() error {
	return sh.Run("go", "mod", "tidy")
}

type Test mg.Namespace

// Runs every package test with the race detector.
func (Test) All() error {
	return sh.RunV("go", "test", "-race", "-count=1", "./...")
}

// Runs the tests that need no Vulkan loader.
func (Test) Headless() error {
	return sh.RunV("go", "test", "-count=1",
		"./engine", "./engine/renderer", "./engine/renderer/metadata", "./engine/core/...", "./engine/containers/...", "./engine/math/...",
		"./engine/config/...", "./engine/systems/...", "./engine/renderer/headless/...",
		"./engine/assets/...", "./engine/resources/...", "./testbed/...")
}
