// File: utils/constants.go
package utils

import "time"

// SessionTokenTTL is the lifetime of a dialog session token.
const SessionTokenTTL = 2 * time.Hour
