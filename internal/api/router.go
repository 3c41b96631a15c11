package api

import (
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/datallboy/comexdown/internal/api/controllers"
	"github.com/datallboy/comexdown/internal/app"
)

func RegisterRoutes(e *echo.Echo, app *app.Context) {

	// Middleware: Request Logger
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c *echo.Context, v middleware.RequestLoggerValues) error {
			app.Logger.Info("%s %s | %d | %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	statusCtrl := &controllers.StatusController{App: app}

	e.GET("/health", statusCtrl.Health)
	e.GET("/tables", statusCtrl.ListTables)

	e.GET("/index", statusCtrl.GetIndex)
	e.POST("/index", statusCtrl.RebuildIndex)

	e.GET("/history", statusCtrl.ListHistory)
}

// NewServer returns an Echo instance with every route registered.
func NewServer(app *app.Context) *echo.Echo {
	e := echo.New()
	RegisterRoutes(e, app)
	return e
}
