// Package dashboard serves the page shell of the admin dashboard. Every
// request passes the route access gate before a page handler runs; the
// pages themselves are placeholders for the front-end bundle.
package dashboard

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/inventra-labs/gatekeeper/internal/console/gate"
	"github.com/inventra-labs/gatekeeper/internal/console/sessionvalidator"
	"github.com/inventra-labs/gatekeeper/internal/infrastructure/config"
	"github.com/inventra-labs/gatekeeper/internal/interfaces/http/middleware"
	"github.com/inventra-labs/gatekeeper/internal/shared/constants"
	"github.com/inventra-labs/gatekeeper/internal/shared/logger"
	"github.com/inventra-labs/gatekeeper/internal/shared/utils"
)

type Server struct {
	engine *gin.Engine
	gate   *gate.Gate
	log    logger.Interface
}

// PageResponse is what every placeholder page renders.
type PageResponse struct {
	Page   string `json:"page"`
	Path   string `json:"path"`
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
}

// NewServer builds the page server from configuration, validating sessions
// against cfg.Dashboard.APIBaseURL.
func NewServer(cfg *config.Config, log logger.Interface) (*Server, error) {
	validator := sessionvalidator.New(
		cfg.Dashboard.APIBaseURL,
		utils.AccessCookieName(cfg.Auth.Cookie),
		sessionvalidator.WithTimeout(cfg.Dashboard.ValidateTimeout()),
		sessionvalidator.WithLogger(log.Named("sessionvalidator")),
	)
	return NewServerWithValidator(cfg, validator, log)
}

// NewServerWithValidator is NewServer with an injected validator.
func NewServerWithValidator(cfg *config.Config, validator gate.SessionValidator, log logger.Interface) (*Server, error) {
	rules, err := gate.RulesFromConfig(cfg.Dashboard.Routes)
	if err != nil {
		return nil, fmt.Errorf("invalid dashboard routes: %w", err)
	}
	table, err := gate.NewTable(rules)
	if err != nil {
		return nil, fmt.Errorf("invalid dashboard routes: %w", err)
	}

	s := &Server{
		engine: gin.New(),
		gate:   gate.New(table, validator, utils.AccessCookieName(cfg.Auth.Cookie), log.Named("gate")),
		log:    log,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) setupRoutes() {
	s.engine.Use(middleware.CustomLogger(s.log))
	s.engine.Use(middleware.Recovery(s.log))
	s.engine.Use(middleware.SecurityHeaders())

	// health is answered before the gate
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// every other path is a page and goes through the gate
	s.engine.NoRoute(s.gate.Handler(), dispatch)
}

var pages = map[string]string{
	"/":                     "root",
	"/auth/login":           "login",
	"/auth/register":        "register",
	"/auth/forgot-password": "forgot-password",
	"/profile":              "profile",
	"/unauthorized":         "unauthorized",
	"/dashboard":            "home",
}

func dispatch(c *gin.Context) {
	path := c.Request.URL.Path
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}

	if name, ok := pages[path]; ok {
		render(c, name)
		return
	}
	if section, ok := strings.CutPrefix(path, "/dashboard/"); ok {
		render(c, section)
		return
	}
	utils.ErrorResponse(c, http.StatusNotFound, "page not found")
}

func render(c *gin.Context, name string) {
	utils.SuccessResponse(c, http.StatusOK, "", PageResponse{
		Page:   name,
		Path:   c.Request.URL.Path,
		UserID: c.GetString(constants.ContextKeyUserID),
		Email:  c.GetString(constants.ContextKeyUserEmail),
		Role:   c.GetString(constants.ContextKeyUserRole),
	})
}
