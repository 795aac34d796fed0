// middleware/logger.go
package middleware

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RequestLogger logs one line per request with its game session, if any.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		game := c.Query("game")
		if game == "" {
			game = "-"
		}
		log.Printf("🌐 [HTTP] %s %s %d game=%s (%s)", c.Method(), c.Path(), status, game, time.Since(start).Round(time.Microsecond))
		return err
	}
}
