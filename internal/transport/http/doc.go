// Package http implements the HTTP handlers of the retention dashboard.
// Handlers stay thin: they parse and validate the request, call a service
// and render the result.
//
// # Routes
//
//	GET    /                       dashboard page
//	GET    /api/dashboard          dashboard view for ?from=&to= (YYYY-MM-DD)
//	POST   /api/reload             drop the cached dataset and load again
//	POST   /api/upload             multipart "file" field with an .xlsx survey
//	GET    /api/export/buckets.csv cumulative acceptance per cutoff date
//	GET    /api/export/records.csv merged records
//	GET    /api/export/duplicates.csv
//	GET    /api/export/report.xlsx workbook with records, buckets, summary and duplicates
//	POST   /api/chat               {"question": "..."} for the caller's session
//	GET    /api/chat/history
//	DELETE /api/chat/history
//	POST   /api/client-log         browser-side errors
//	GET    /api/health, /api/health/ready, /api/health/live, /api/version
//	GET    /api/cache              dataset cache statistics
//	GET    /metrics                Prometheus exposition
//
// # Errors
//
// Failures are rendered as RFC 7807 problem details by errors.ErrorHandler.
// An empty survey source is not an error for /api/dashboard, which answers
// 200 with "status":"empty"; exports answer 404 instead. A failed question
// is not an error either: the answer is a placeholder and the "error" field
// carries a short code.
package http
