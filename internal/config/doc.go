// Package config loads the service configuration.
//
// # Configuration Sources
//
// Configuration is layered, later sources win:
//
//	1. Default() values
//	2. YAML file named by RETENTION_CONFIG_FILE, or ./config.yaml, or ./configs/config.yaml
//	3. Environment variables
//
// # Environment Variables
//
// Every field is read as RETENTION_<SECTION>_<NAME>. When that is unset the
// bare name is tried, so the variables of existing deployments keep working:
//
//	RETENTION_SOURCE_KIND=s3
//	RETENTION_SOURCE_S3_BUCKET=encuestas-retencion   (or S3_BUCKET)
//	S3_PREFIX=exports/
//	AWS_REGION=us-east-1
//	AZURE_OPENAI_ENDPOINT=https://example.openai.azure.com/
//	AZURE_OPENAI_API_KEY=...
//	DEPLOYMENT_NAME=gpt-4o-mini
//	RETENTION_CACHE_TTL=5m
//
// The core pipeline never reads configuration itself; callers resolve a
// Config and pass concrete values down.
package config
