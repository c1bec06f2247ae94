// Package services implements the driving ports: ingestion, extraction,
// index building, retrieval, document access and maintenance.
//
// Services depend only on domain types and driven ports. Adapters are
// injected by the composition root in the CLI package.
package services
