// Package providers registers all generation backends.
// Import this package to make them available via provider.New():
//
//	import _ "github.com/randalmurphal/dialogkit/providers"
package providers

import (
	_ "github.com/randalmurphal/dialogkit/local"
	_ "github.com/randalmurphal/dialogkit/remote"
)
