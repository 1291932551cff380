package app

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"
)

// runWebServer starts the applications web server and listens for web requests.
//  It's designed to run in a separate go function to not block the main go function.
//  e.g.: go runWebServer()
//  See app.Run()
func (app *App) runWebServer() {
	err := app.web.Listen(app.urlParsed.Host)
	debug.ErrorLog.Print(err)
}

// HandleStatus is the get engine status web handler.
func (app *App) HandleStatus() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		debug.InfoLog.Print("web request status")

		return ctx.JSON(app.engine.Snapshot())
	}
}

// HandleConfig applies a command flag received over the web API. It
// feeds the same Apply path as the serial control port, so both
// configuration surfaces behave identically.
func (app *App) HandleConfig() fiber.Handler {
	type request struct {
		Flag *int `json:"flag"`
	}

	return func(ctx *fiber.Ctx) error {
		debug.InfoLog.Print("web request config")

		var req request
		if err := ctx.BodyParser(&req); err != nil || req.Flag == nil {
			ctx.Status(http.StatusBadRequest)
			return ctx.JSON(fiber.Map{"error": "flag required"})
		}
		if *req.Flag < 0 || *req.Flag > 0x3f {
			ctx.Status(http.StatusBadRequest)
			return ctx.JSON(fiber.Map{"error": "flag out of range (0..63)"})
		}

		return ctx.JSON(app.engine.Apply(byte(*req.Flag)))
	}
}
