// Package main hosts the humanparts CLI entrypoint and command graph.
//
// The Cobra command tree maps terminal invocations onto the internal
// packages: fetching archives, downloading the published dataset layouts,
// converting source annotations to the expanded COCO and YOLO forms, and
// fusing left/right part categories. Configuration resolution, the run id, and
// logger construction live in the shared command context so subcommands only
// translate flags into calls.
package main
