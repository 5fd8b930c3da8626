// Package migrations embeds the SQL schema so the migrate command and
// integration tests run the same files the deployment does.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
