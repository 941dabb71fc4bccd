// This file re-exports the internal Reporter interface and associated types
// to allow callers to receive all events directly.

package imgtidy

import "github.com/five82/imgtidy/internal/reporter"

// Reporter defines the interface for progress reporting during an operation.
type Reporter = reporter.Reporter

// NullReporter is a no-op reporter that discards all updates.
type NullReporter = reporter.NullReporter

// BatchStartInfo contains batch start metadata.
type BatchStartInfo = reporter.BatchStartInfo

// FileOutcome contains the per-file result delivered to a Reporter.
type FileOutcome = reporter.FileOutcome

// BatchSummary contains batch completion information.
type BatchSummary = reporter.BatchSummary

// ReporterError contains error information.
type ReporterError = reporter.ReporterError
