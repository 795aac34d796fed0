// handlers/game.go
package handlers

import (
	"errors"
	"log"
	"strconv"
	"strings"

	"aviation-fuel-game/config"
	"aviation-fuel-game/services"

	"github.com/gofiber/fiber/v2"
)

// SetupGameRoutes mounts the browser game API. All routes are GET with query
// parameters, matching what the front end sends. guard runs before each route.
func SetupGameRoutes(router fiber.Router, guard fiber.Handler, gameService *services.GameService, rules config.Rules) {
	router.Get("/newgame", guard, func(c *fiber.Ctx) error {
		status, err := gameService.NewGame(c.UserContext(), c.Query("player"), c.Query("loc"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(status)
	})

	router.Get("/travel", guard, func(c *fiber.Ctx) error {
		gameID, dest := c.Query("game"), c.Query("dest")
		if gameID == "" || dest == "" {
			return badRequest(c, "Missing parameters")
		}
		status, err := gameService.Travel(c.UserContext(), gameID, dest)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(status)
	})

	router.Get("/buyfuel", guard, func(c *fiber.Ctx) error {
		gameID := c.Query("game")
		if gameID == "" {
			return badRequest(c, "Missing game ID")
		}
		amount, err := parseAmount(c.Query("amount"))
		if err != nil {
			return badRequest(c, "Invalid amount format")
		}
		status, err := gameService.BuyFuel(c.UserContext(), gameID, amount)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(status)
	})

	router.Get("/gamestate", guard, func(c *fiber.Ctx) error {
		gameID := c.Query("game")
		if gameID == "" {
			return badRequest(c, "Missing game ID")
		}
		status, err := gameService.GetStatus(c.UserContext(), gameID)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(status)
	})

	router.Get("/frontend/init", guard, func(c *fiber.Ctx) error {
		return c.JSON(rules)
	})

	router.Get("/airports", guard, func(c *fiber.Ctx) error {
		gameID := c.Query("game")
		if gameID == "" {
			return badRequest(c, "Missing game ID")
		}
		airports, err := gameService.EventAirports(c.UserContext(), gameID)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"airports": airports})
	})
}

// SetupHealthRoutes reports whether the store answers and how many airports it holds.
func SetupHealthRoutes(app *fiber.App, airportService *services.AirportService) {
	app.Get("/health", func(c *fiber.Ctx) error {
		count, err := airportService.Store.CountAirports(c.UserContext())
		if err != nil {
			log.Printf("❌ [HTTP] Health check failed: %v", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unavailable",
				"error":  "data store unavailable",
			})
		}
		return c.JSON(fiber.Map{
			"status":   "ok",
			"airports": count,
		})
	})
}

// parseAmount accepts whole numbers, also written as "10.0".
func parseAmount(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, services.ErrInvalidAmount
	}
	return int64(f), nil
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// writeError maps a service error onto its HTTP status.
func writeError(c *fiber.Ctx, err error) error {
	var rangeErr *services.InsufficientRangeError
	switch {
	case errors.As(err, &rangeErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":     rangeErr.Error(),
			"required":  rangeErr.Required,
			"available": rangeErr.Available,
		})
	case errors.Is(err, services.ErrGameNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Game not found"})
	case errors.Is(err, services.ErrAirportNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInsufficientFunds),
		errors.Is(err, services.ErrInvalidDestination):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrOutOfFuel),
		errors.Is(err, services.ErrConcurrentUpdate):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrStoreUnavailable):
		log.Printf("❌ [HTTP] %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "data store unavailable"})
	}
	log.Printf("❌ [HTTP] %s %s: unexpected error: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}
