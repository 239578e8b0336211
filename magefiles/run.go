//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const testbedConfig = "testbed/parcel.toml"

type Run mg.Namespace

// Builds and runs the testbed until it is interrupted.
func (Run) Engine() error {
	mg.Deps(Build.Engine)
	fmt.Println("Run engine...")
	return sh.RunV(binary, "--config", testbedConfig)
}

// Runs the testbed for a fixed number of frames.
func (Run) Frames(frames string) error {
	mg.Deps(Build.Engine)
	return sh.RunV(binary, "--config", testbedConfig, "--frames", frames)
}
