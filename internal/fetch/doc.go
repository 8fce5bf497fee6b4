// Package fetch retrieves dataset files over HTTP into a destination
// directory, optionally extracting zip archives and removing them afterwards.
//
// A batch either completes fully or fails on the first retrieval or
// extraction error; parallel batches cancel their remaining downloads when one
// fails. Downloads stream into a ".part" file that is renamed only after the
// body was fully received, and the destination directory is locked for the
// duration of a batch so two processes do not write the same archive.
package fetch
