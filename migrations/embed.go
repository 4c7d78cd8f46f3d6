// Package migrations содержит SQL-миграции схемы для поддерживаемых драйверов.
package migrations

import "embed"

// FS — встроенные файлы миграций, по каталогу на драйвер.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
