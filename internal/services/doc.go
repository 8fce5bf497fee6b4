// Package services defines shared plumbing consumed by the preparation stages
// and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and dataset splits for
//     logging.
//   - Structured error markers plus the Wrap helper so every failure names the
//     offending file or URL and can be classified (retrieval, extraction,
//     schema mismatch, missing path).
//
// Use these helpers when wiring new stage logic so error reporting stays
// uniform across commands.
package services
