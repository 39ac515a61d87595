package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"brand-profiler/backend/internal/brand"
	"brand-profiler/backend/internal/config"
	"brand-profiler/backend/internal/pipeline"
	"brand-profiler/backend/internal/store"
	"brand-profiler/backend/internal/urlnorm"
)

// User-facing error messages.
var (
	errURLRequired   = errors.New("URL is required")
	errInvalidURL    = errors.New("Please enter a valid website URL (e.g., example.com or https://example.com)")
	errScrapeFailed  = errors.New("Failed to scrape brand data")
	errTooMany       = errors.New("Too many requests")
	errStoreDisabled = errors.New("profile store is disabled")
)

// Scraper runs one brand scrape.
type Scraper interface {
	Run(ctx context.Context, rawURL string, report pipeline.Reporter) (*brand.Profile, error)
}

// ProfileStore records and serves produced profiles.
type ProfileStore interface {
	SaveProfile(p *brand.Profile, sourceURL string) (uint, error)
	GetProfile(id uint) (*brand.Profile, error)
	ListProfiles(offset, limit int) ([]store.ProfileSummary, int64, error)
}

// Config defines server dependencies.
type Config struct {
	Scraper        Scraper
	Store          ProfileStore
	AllowedOrigins []string
	RateLimit      config.RateLimitConfig
	// ScrapeTimeout bounds a whole pipeline run. Zero leaves the request context alone.
	ScrapeTimeout time.Duration
	Flags         RuntimeFlags
}

// Server wires HTTP handlers with the scrape pipeline and profile history.
type Server struct {
	scraper        Scraper
	store          ProfileStore
	allowedOrigins []string
	rateLimit      config.RateLimitConfig
	scrapeTimeout  time.Duration
	flags          RuntimeFlags
}

// NewServer validates cfg and builds a server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Scraper == nil {
		return nil, errors.New("scraper required")
	}
	if cfg.Store == nil {
		logrus.Info("profile history disabled")
	}
	flags := cfg.Flags
	flags.StoreEnabled = cfg.Store != nil
	flags.RateLimited = cfg.RateLimit.Enabled()
	return &Server{
		scraper:        cfg.Scraper,
		store:          cfg.Store,
		allowedOrigins: cfg.AllowedOrigins,
		rateLimit:      cfg.RateLimit,
		scrapeTimeout:  cfg.ScrapeTimeout,
		flags:          flags,
	}, nil
}

// Router configures gin routes.
func (s *Server) Router() (*gin.Engine, error) {
	r := gin.Default()
	r.Use(requestID())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowCredentials = true
	if len(s.allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = s.allowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", requestIDHeader}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsCfg.ExposeHeaders = []string{requestIDHeader, profileIDHeader}
	r.Use(cors.New(corsCfg))

	r.GET("/api/healthz", s.handleHealth)
	r.GET("/api/config", s.handleConfig)

	api := r.Group("/api/brand")
	{
		scrape := api.Group("/scrape")
		if s.rateLimit.Enabled() {
			limiter := newClientLimiter(s.rateLimit.Requests, s.rateLimit.Burst, s.rateLimit.Window.Duration)
			scrape.Use(limiter.middleware())
			logrus.WithFields(logrus.Fields{
				"requests": s.rateLimit.Requests,
				"window":   s.rateLimit.Window.Duration,
			}).Info("scrape rate limit enabled")
		}
		scrape.POST("", s.handleScrape)
		scrape.GET("/stream", s.handleScrapeStream)

		api.GET("/profiles", s.handleListProfiles)
		api.GET("/profiles/:id", s.handleGetProfile)
	}

	return r, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleConfig(c *gin.Context) {
	c.JSON(http.StatusOK, s.flags)
}

func (s *Server) handleScrape(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		s.renderError(c, http.StatusBadRequest, errURLRequired)
		return
	}
	rawURL, ok := body["url"].(string)
	if !ok || rawURL == "" {
		s.renderError(c, http.StatusBadRequest, errURLRequired)
		return
	}

	ctx, cancel := s.scrapeContext(c.Request.Context())
	defer cancel()

	log := logrus.WithFields(logrus.Fields{"request_id": c.GetString(requestIDKey), "input": rawURL})
	profile, err := s.scraper.Run(ctx, rawURL, nil)
	if err != nil {
		status, public := scrapeFailure(err)
		log.WithError(err).WithField("status", status).Warn("brand scrape failed")
		s.renderError(c, status, public)
		return
	}

	if id, ok := s.record(profile, urlnorm.Normalize(rawURL)); ok {
		c.Header(profileIDHeader, strconv.FormatUint(uint64(id), 10))
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) handleListProfiles(c *gin.Context) {
	if s.store == nil {
		s.renderError(c, http.StatusServiceUnavailable, errStoreDisabled)
		return
	}
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 0 {
		page = 0
	}
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))
	if pageSize <= 0 {
		pageSize = 25
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := page * pageSize

	items, total, err := s.store.ListProfiles(offset, pageSize)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, ProfilesResponse{Items: items, Total: total, Page: page, PageSize: pageSize})
}

func (s *Server) handleGetProfile(c *gin.Context) {
	if s.store == nil {
		s.renderError(c, http.StatusServiceUnavailable, errStoreDisabled)
		return
	}
	id, err := parseUintParam(c.Param("id"))
	if err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	profile, err := s.store.GetProfile(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.renderError(c, http.StatusNotFound, fmt.Errorf("profile %d not found", id))
		} else {
			s.renderError(c, http.StatusInternalServerError, err)
		}
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) scrapeContext(parent context.Context) (context.Context, context.CancelFunc) {
	if s.scrapeTimeout > 0 {
		return context.WithTimeout(parent, s.scrapeTimeout)
	}
	return context.WithCancel(parent)
}

// record stores the profile when history is enabled. Failures are logged only.
func (s *Server) record(profile *brand.Profile, sourceURL string) (uint, bool) {
	if s.store == nil || profile == nil {
		return 0, false
	}
	id, err := s.store.SaveProfile(profile, sourceURL)
	if err != nil {
		logrus.WithError(err).WithField("url", sourceURL).Warn("record brand profile")
		return 0, false
	}
	return id, true
}

// scrapeFailure maps a pipeline error to a status code and public message.
func scrapeFailure(err error) (int, error) {
	if pipeline.KindOf(err) == pipeline.KindInvalidURL {
		return http.StatusBadRequest, errInvalidURL
	}
	return http.StatusInternalServerError, errScrapeFailed
}

func (s *Server) renderError(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func parseUintParam(value string) (uint, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, errors.New("identifier is required")
	}
	parsed, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid identifier: %w", err)
	}
	if parsed == 0 {
		return 0, errors.New("identifier must be greater than zero")
	}
	return uint(parsed), nil
}
