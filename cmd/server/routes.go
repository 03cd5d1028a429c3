package main

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Nixie-Tech-LLC/kidcurate/internal/app"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/http/api"
	childapi "github.com/Nixie-Tech-LLC/kidcurate/internal/http/api/child/endpoints"
	guardianapi "github.com/Nixie-Tech-LLC/kidcurate/internal/http/api/guardian/endpoints"
	opsapi "github.com/Nixie-Tech-LLC/kidcurate/internal/http/api/ops/endpoints"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/http/middleware"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, a *app.App) {
	r.Use(middleware.RequestID(), middleware.RequestLogger())

	// CORS
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
			middleware.RequestIDHeader,
		},
		ExposeHeaders: []string{
			"Content-Length",
			middleware.RequestIDHeader,
		},
		AllowCredentials: false,
	}))

	secret := a.Config.JWTSecret

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/guardian",
	},
		guardianapi.AuthPublicModule(secret, a.Store),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/guardian",
		Auth:      true,
		SecretKey: secret,
		Store:     a.Store,
	},
		guardianapi.AuthSessionModule(secret, a.Store),
		guardianapi.ScheduleModule(a.Store, a.Schedule),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/child",
	},
		childapi.ChildScheduleModule(a.Query, a.Watch, time.Now),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:     "/api/ops",
		Middleware: []gin.HandlerFunc{middleware.OpsTokenMiddleware(a.Config.OpsToken)},
	},
		opsapi.CarryoverModule(a.Processor, a.BatchRunner("http")),
	)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		if err := a.DB.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
