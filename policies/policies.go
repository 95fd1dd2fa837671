// Package policies embeds the default policy scripts run by "apiscan check".
package policies

import "embed"

// FS holds the default policies at its root.
//
//go:embed *.risor
var FS embed.FS
