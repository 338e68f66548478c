// Package services holds the import and assignment logic.
//
// Services defined in this package:
// - IngestService: Imports one spreadsheet sheet into the catalog
// - TeacherResolver: Maps free-text teacher references onto teacher rows
// - GuidanceReconciler: Replaces each teacher's guidance list
// - MergeUpdater: Applies fill-empty or overwrite merges to single rows
// - Deduplicator: Collapses student rows sharing a code
// - CountService: Recomputes cached counters and readiness flags
// - AssignmentService: Fills open teacher and company slots
package services
