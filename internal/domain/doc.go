// Package domain holds the incident report model shared by the submission
// pipeline, the query engine and the storage layer.
//
// # Reports
//
// A [Report] is written once and never updated. The columns filled by
// enrichment (state, country, category, the weather columns) are nullable:
// an enrichment call that fails leaves its columns nil instead of failing the
// submission. Queries only consider a [Record], which is a report whose every
// column is present. See [Report.Complete].
//
// # Weather columns
//
//	date  "2006-01-02"  local date of the weather sample
//	time  "15:04:05"    local time of the weather sample
//
// Query ordering sorts on the pair (date, time).
//
// # Attachments
//
// Uploads are stored as "<YYYYMMDD-HHMMSS>_<sanitized name>" and referenced
// from the report as "files/<stored name>". See [AttachmentName].
//
// # Distance
//
// Radius filters use the haversine formula over a spherical Earth of mean
// radius [EarthRadiusKm].
package domain
