// Package storage provides the object storage client used for sitemap
// snapshot archiving.
//
// The Client interface wraps the Minio SDK so the snapshot archiver can be
// tested against testify mocks (see the mocks subpackage). Archiving is
// optional: when storage is disabled in configuration no client is created
// and the engine skips the archiving step.
package storage
