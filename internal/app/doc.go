// Package app wires the survey dashboard together and manages its lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration from defaults, an optional YAML file and RETENTION_* env vars
//	2. Initialize the process logger and OpenTelemetry
//	3. Build the survey source (local directory or S3 bucket)
//	4. Create the ingestor, loader and the five minute dataset cache
//	5. Create the dashboard, chat and health services
//	6. Build the chi router with its middleware stack
//	7. Serve HTTP until SIGINT or SIGTERM
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// Stop drains in-flight requests within the configured shutdown timeout,
// drops the cached datasets and flushes the telemetry providers.
//
// # Error Handling
//
// Initialization errors are returned to the caller. The package never
// calls os.Exit.
package app
