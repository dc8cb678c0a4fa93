// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

var (
	// Version holds the gridwatch version, set at build time using -ldflags.
	Version = "0.0.0-dev"
)
