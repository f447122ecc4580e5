package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"
)

// ModerationReader is the read side of the moderation engine
type ModerationReader interface {
	PeekWarnings(ctx context.Context, guildID, userID string) (active, expired moderation.WarningList, err error)
	Punishments(ctx context.Context, guildID string) (*moderation.RuleSet, error)
	Reasons(ctx context.Context, guildID string) ([]models.WarnReason, error)
}

// AuditReader returns the latest moderation log entries of a guild
type AuditReader interface {
	Recent(ctx context.Context, guildID string, limit int) ([]moderation.Entry, error)
}

// BotInfo describes the connected bot account
type BotInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Guilds   int    `json:"guilds"`
	IsReady  bool   `json:"isReady"`
}

// Deps are the sources the routes read from. Nil sources disable their routes.
type Deps struct {
	Moderation ModerationReader
	AuditLog   AuditReader
	// DatabaseStatus returns a display label and whether the store is online
	DatabaseStatus func(ctx context.Context) (string, bool)
	// Bot returns nil while the bot is offline
	Bot func() *BotInfo
}

const (
	defaultModlogLimit = 25
	maxModlogLimit     = 100
)

// SetupRoutes registers every route of the server
func SetupRoutes(s *Server, deps Deps) {
	h := &handlers{deps: deps}

	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.Group("/api")
	{
		api.GET("/status", h.status)
		api.GET("/health", h.health)
		api.GET("/bot", h.botInfo)
	}

	if deps.Moderation == nil {
		return
	}
	if s.opts.APIToken == "" {
		logger.Warn("API_TOKEN vacío: las rutas de moderación no se registran", "WebServer")
		return
	}

	guilds := api.Group("/guilds/:guildId", s.tokenAuth())
	{
		guilds.GET("/members/:userId/warnings", h.warnings)
		guilds.GET("/members/:userId/points", h.points)
		guilds.GET("/punishments", h.punishments)
		guilds.GET("/reasons", h.reasons)
		if deps.AuditLog != nil {
			guilds.GET("/modlog", h.modlog)
		}
	}
}

type handlers struct {
	deps Deps
}

// status returns the bot and database status
func (h *handlers) status(c *gin.Context) {
	dbStatus, dbOnline := "🔴 | Desconectado", false
	if h.deps.DatabaseStatus != nil {
		dbStatus, dbOnline = h.deps.DatabaseStatus(c.Request.Context())
	}

	botOnline := false
	if h.deps.Bot != nil {
		botOnline = h.deps.Bot() != nil
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"database": gin.H{
			"status":   dbStatus,
			"isOnline": dbOnline,
		},
		"bot": gin.H{
			"isOnline": botOnline,
		},
	})
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "PancyMod Go is running",
	})
}

func (h *handlers) botInfo(c *gin.Context) {
	var info *BotInfo
	if h.deps.Bot != nil {
		info = h.deps.Bot()
	}
	if info == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Bot Offline",
			"message": "El bot no está disponible en este momento.",
		})
		return
	}
	c.JSON(http.StatusOK, info)
}

type warnView struct {
	ID        string     `json:"id"`
	Reason    string     `json:"reason"`
	Points    int        `json:"points"`
	Permanent bool       `json:"permanent"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Moderator string     `json:"moderator"`
	Timestamp time.Time  `json:"timestamp"`
}

func viewWarnings(list moderation.WarningList) []warnView {
	out := make([]warnView, 0, len(list))
	for _, w := range list {
		v := warnView{
			ID:        w.ID,
			Reason:    w.Reason,
			Points:    w.Points,
			Permanent: w.Permanent,
			Moderator: w.Moderator,
			Timestamp: w.CreatedAt().UTC(),
		}
		if at := w.Expiry(); !at.IsZero() {
			at = at.UTC()
			v.ExpiresAt = &at
		}
		out = append(out, v)
	}
	return out
}

func (h *handlers) warnings(c *gin.Context) {
	ctx := c.Request.Context()
	guildID, userID := c.Param("guildId"), c.Param("userId")

	active, expired, err := h.deps.Moderation.PeekWarnings(ctx, guildID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	points := activePoints(active)

	c.JSON(http.StatusOK, gin.H{
		"guildId": guildID,
		"userId":  userID,
		"points":  points,
		"active":  viewWarnings(active),
		"expired": viewWarnings(expired),
	})
}

func (h *handlers) points(c *gin.Context) {
	guildID, userID := c.Param("guildId"), c.Param("userId")
	active, _, err := h.deps.Moderation.PeekWarnings(c.Request.Context(), guildID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"guildId": guildID, "userId": userID, "points": activePoints(active)})
}

// activePoints sums a list already filtered to active warnings
func activePoints(active moderation.WarningList) int {
	return lo.SumBy(active, func(w models.Warn) int { return w.Points })
}

func (h *handlers) punishments(c *gin.Context) {
	rules, err := h.deps.Moderation.Punishments(c.Request.Context(), c.Param("guildId"))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]gin.H, 0, rules.Len())
	for rule := range rules.All() {
		item := gin.H{"threshold": rule.Threshold, "action": rule.Action}
		if rule.Duration > 0 {
			item["duration"] = moderation.FormatSeconds(rule.Duration)
			item["durationSeconds"] = rule.Duration
		}
		out = append(out, item)
	}
	c.JSON(http.StatusOK, gin.H{"guildId": c.Param("guildId"), "punishments": out})
}

func (h *handlers) reasons(c *gin.Context) {
	reasons, err := h.deps.Moderation.Reasons(c.Request.Context(), c.Param("guildId"))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]gin.H, 0, len(reasons))
	for _, r := range reasons {
		item := gin.H{"name": r.Name, "points": r.Points, "permanent": r.Permanent}
		if !r.Permanent && r.Duration > 0 {
			item["duration"] = moderation.FormatSeconds(r.Duration)
		}
		out = append(out, item)
	}
	c.JSON(http.StatusOK, gin.H{"guildId": c.Param("guildId"), "reasons": out})
}

func (h *handlers) modlog(c *gin.Context) {
	limit := defaultModlogLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(c, &moderation.ValidationError{Field: "limit", Message: "debe ser un número positivo"})
			return
		}
		limit = min(n, maxModlogLimit)
	}

	entries, err := h.deps.AuditLog.Recent(c.Request.Context(), c.Param("guildId"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if entries == nil {
		entries = []moderation.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"guildId": c.Param("guildId"), "entries": entries})
}

// respondError maps moderation errors onto HTTP statuses
func respondError(c *gin.Context, err error) {
	var verr *moderation.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bad Request", "field": verr.Field, "message": verr.Message})
	case errors.Is(err, moderation.ErrExpiredOrNotFound), errors.Is(err, moderation.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found", "message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error", "message": "Ocurrió un error inesperado."})
	}
}
