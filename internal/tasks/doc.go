// Package tasks runs long catalog operations with progress reporting.
//
// # Season Export
//
// [SeasonExporter.Export] writes every season of a show to disk:
//
//  1. Fetches the show and its season list
//  2. Queues one job per season on a bounded worker pool
//  3. Each worker fetches the season's episodes and writes one file in the requested format
//  4. Writes export_manifest.json summarizing per-season results
//
// A failed season is recorded in the result and does not stop the others.
//
// # Progress Reporting
//
// Updates are sent on an optional channel with select/default, so a slow or absent reader
// never blocks the export. The [ProgressUpdate] carries phase, step counters and a display message.
package tasks
