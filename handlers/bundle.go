// File: aerovoice/handlers/bundle.go
package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Dialog endpoints
	StartSessionHandler    gin.HandlerFunc
	ProcessTurnHandler     gin.HandlerFunc
	VoiceTurnHandler       gin.HandlerFunc
	RecordUtteranceHandler gin.HandlerFunc
	GetSessionHandler      gin.HandlerFunc
	ResetSessionHandler    gin.HandlerFunc
}
