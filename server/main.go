package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/unrolled/render"
	"github.com/unrolled/secure"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/playothello/othello-api"
	"github.com/playothello/othello-api/server/docs"
)

var (
	// Renderer is a renderer for all occasions. These are our preferred default options.
	// See:
	//  - https://github.com/unrolled/render/blob/v1/README.md
	//  - https://godoc.org/gopkg.in/unrolled/render.v1
	Renderer = render.New(render.Options{
		Charset:    "UTF-8",
		IndentJSON: false,
	})

	log       = zap.Must(zap.NewProduction()).Sugar()
	ugcPolicy = bluemonday.StrictPolicy()
	validate  = validator.New()

	cfg *Config
	db  *gorm.DB
)

// @title Othello API
// @version 1.0
// @description A board game platform API for players, games, moves and rankings
// @termsOfService http://swagger.io/terms/
// @contact.name API Support
// @contact.url http://github.com/playothello/othello-api
// @license.name MIT
// @license.url https://github.com/playothello/othello-api/blob/main/LICENSE
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	var err error
	cfg, err = loadConfig()
	if err != nil {
		log.Fatalw("invalid configuration", zap.Error(err))
		return
	}

	log.Infow("Starting up", "host", fmt.Sprintf("http://localhost:%s", cfg.Port))

	db, err = openDB(cfg, log.Desugar())
	if err != nil {
		log.Fatalw("could not open db", zap.Error(err))
		return
	}

	if err := seedAdmin(db, cfg); err != nil {
		log.Fatalw("could not seed admin account", zap.Error(err))
		return
	}

	if err := initMetrics(); err != nil {
		log.Fatalw("could not init metrics", zap.Error(err))
		return
	}

	limiter := NewRateLimiter(cfg.RateLimit)
	defer limiter.Close()

	isDev := os.Getenv("APP_ENV") != "production"

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(telemetryMiddleware)
	r.Use(rateLimitMiddleware(limiter))

	r.Use(cors.New(cors.Options{
		AllowCredentials:   true,
		OptionsPassthrough: true,
		AllowedOrigins:     cfg.CORSOrigins,
		AllowedMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:     []string{"Link"},
		MaxAge:             300, // Maximum value not ignored by any of major browsers
	}).Handler)

	r.NotFound(notFoundHandler)

	// Stuff that does not ssl redirect
	r.Group(func(r chi.Router) {
		r.Use(secure.New(secure.Options{
			BrowserXssFilter:   true,
			ContentTypeNosniff: true,
			FrameDeny:          true,
			HostsProxyHeaders:  []string{"X-Forwarded-Host"},
			IsDevelopment:      isDev,
			SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		}).Handler)

		r.Get("/healthz", healthCheckHandler)
		r.Method(http.MethodGet, "/metrics", metricsHandler())
	})

	// Everything that does SSL only
	r.Group(func(r chi.Router) {
		r.Use(secure.New(secure.Options{
			BrowserXssFilter:     true,
			ContentTypeNosniff:   true,
			FrameDeny:            true,
			HostsProxyHeaders:    []string{"X-Forwarded-Host"},
			IsDevelopment:        isDev,
			SSLProxyHeaders:      map[string]string{"X-Forwarded-Proto": "https"},
			SSLRedirect:          !isDev,
			STSIncludeSubdomains: true,
			STSPreload:           true,
			STSSeconds:           315360000,
		}).Handler)

		r.Get("/", rootHandler)
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("http://localhost:"+cfg.Port+"/swagger/doc.json"),
		))

		r.Route("/api", func(r chi.Router) {
			r.Route("/user", func(r chi.Router) {
				r.Post("/register", registerHandler)
				r.Post("/login", loginHandler)

				r.Group(func(r chi.Router) {
					r.Use(authMiddleware)
					r.Put("/{id}", updateUserHandler)

					r.Group(func(r chi.Router) {
						r.Use(requireAdmin)
						r.Get("/", listUsersHandler)
						r.Post("/assign-role", assignRoleHandler)
						r.Delete("/{id}", deleteUserHandler)
					})
				})
			})

			r.Route("/game", func(r chi.Router) {
				r.Post("/start", startGameHandler)
				r.Get("/{id}", getGameHandler)

				r.Group(func(r chi.Router) {
					r.Use(authMiddleware)
					r.Post("/challenge", challengeHandler)
					r.Put("/{id}", updateGameHandler)

					r.Group(func(r chi.Router) {
						r.Use(requireAdmin)
						r.Get("/", listGamesHandler)
						r.Delete("/{id}", deleteGameHandler)
					})
				})
			})

			r.Route("/move", func(r chi.Router) {
				r.Get("/{gameID}/moves", listMovesHandler)

				r.Group(func(r chi.Router) {
					r.Use(authMiddleware)
					r.Post("/{gameID}/move", makeMoveHandler)
				})
			})

			r.Route("/leaderboard", func(r chi.Router) {
				r.Get("/", leaderboardHandler)
				r.Get("/{userID}", userRankingHandler)
			})

			r.Route("/usergame", func(r chi.Router) {
				r.Use(authMiddleware)
				r.Post("/", createUserGameHandler)
				r.Get("/{id}", getUserGameHandler)

				r.Group(func(r chi.Router) {
					r.Use(requireAdmin)
					r.Get("/", listUserGamesHandler)
					r.Delete("/{id}", deleteUserGameHandler)
				})
			})

			r.Route("/email", func(r chi.Router) {
				r.Use(authMiddleware)
				r.Use(requireAdmin)
				r.Post("/send-test-email", sendTestEmailHandler)
			})
		})
	})

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        otelhttp.NewHandler(r, othello.Service),
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
	}
	log.Fatal(server.ListenAndServe())
}

// @Summary Get API information
// @Description Returns basic API information and available endpoints
// @Tags info
// @Accept json
// @Produce html
// @Success 200 {string} string "HTML page with API information"
// @Router / [get]
func rootHandler(w http.ResponseWriter, r *http.Request) {
	spec, err := docs.GetSwaggerSpec()
	if err != nil {
		log.Errorw("failed to parse swagger.json", zap.Error(err))
		writeStaticHomePage(w)
		return
	}

	html := `
<html>
  <head>
    <title>Othello API</title>
    <style>
      body { font-family: Arial, sans-serif; max-width: 800px; margin: 40px auto; padding: 20px; }
      h1 { color: #333; }
      .endpoint { margin: 20px 0; padding: 15px; border-left: 4px solid #007acc; background: #f8f9fa; }
      .method { font-weight: bold; color: #007acc; text-transform: uppercase; }
      .path { font-family: monospace; color: #333; margin: 5px 0; }
      .description { color: #666; margin: 5px 0; }
      .tag { background: #e1ecf4; color: #39739d; padding: 2px 6px; border-radius: 3px; font-size: 0.8em; margin-right: 5px; }
      a { color: #007acc; text-decoration: none; }
      a:hover { text-decoration: underline; }
    </style>
  </head>
  <body>
    <h1>Othello API</h1>
    <p>A board game platform API for players, games, moves and rankings.</p>
    <p><a href="/swagger/">View Swagger Documentation</a></p>

    <h2>Available Endpoints</h2>`

	for path, methods := range spec.Paths {
		for method, info := range methods {
			html += fmt.Sprintf(`
    <div class="endpoint">
      <div class="method">%s</div>
      <div class="path">%s</div>
      <div class="description">%s</div>
      <div>`, method, path, info.Description)

			for _, tag := range info.Tags {
				html += fmt.Sprintf(`<span class="tag">%s</span>`, tag)
			}

			html += `</div>
    </div>`
		}
	}

	html += `
  </body>
</html>`

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(html)); err != nil {
		log.Errorw("failed to write home page", zap.Error(err))
	}
}

func writeStaticHomePage(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(`
<html>
  <head>
    <title>Othello API</title>
  </head>
  <body>
    <h1>Othello API</h1>
    <ul>
      <li>Post "/api/user/register"</li>
      <li>Post "/api/user/login"</li>
      <li>Post "/api/game/start"</li>
      <li>Get "/api/game/{id}"</li>
      <li>Post "/api/move/{gameID}/move"</li>
      <li>Get "/api/move/{gameID}/moves"</li>
      <li>Get "/api/leaderboard"</li>
    </ul>
  </body>
</html>
  `))
}

// @Summary Health check
// @Description Returns service health status
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /healthz [get]
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Healthy:  "true",
		Revision: os.Getenv("GIT_REVISION"),
		Tag:      os.Getenv("GIT_TAG"),
		Branch:   os.Getenv("GIT_BRANCH"),
	})
}
