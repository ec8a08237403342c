package bot

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"guildbot/application"
	"guildbot/config"
	"guildbot/domain/entities"
	"guildbot/domain/interfaces"
	"guildbot/domain/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const maxListLimit = 100

// GuildInfo represents basic guild information
type GuildInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GiveawayReader is the giveaway surface served by the status API
type GiveawayReader interface {
	ListActive(ctx context.Context, guildID int64) ([]*entities.Giveaway, error)
	ListRecent(ctx context.Context, guildID int64, limit int) ([]*entities.Giveaway, error)
	GetGiveaway(ctx context.Context, guildID, giveawayID int64) (*entities.Giveaway, error)
	GetGiveawayByMessage(ctx context.Context, guildID, messageID int64) (*entities.Giveaway, error)
	EndGiveaway(ctx context.Context, guildID, giveawayID int64, trigger string) (*interfaces.EndGiveawayResult, error)
}

// LeaderboardReader returns ranked balances of a guild
type LeaderboardReader interface {
	Leaderboard(ctx context.Context, guildID int64, limit int) ([]*entities.LeaderboardEntry, error)
}

// GiveawayResponse is the JSON form of a giveaway. Snowflakes are strings.
type GiveawayResponse struct {
	ID            int64      `json:"id"`
	GuildID       string     `json:"guild_id"`
	ChannelID     string     `json:"channel_id"`
	MessageID     string     `json:"message_id,omitempty"`
	CreatorID     string     `json:"creator_id"`
	Prize         string     `json:"prize"`
	Description   string     `json:"description,omitempty"`
	WinnersCount  int        `json:"winners_count"`
	State         string     `json:"state"`
	Winners       []string   `json:"winners"`
	EndsAt        time.Time  `json:"ends_at"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
	TimeRemaining string     `json:"time_remaining"`
}

// LeaderboardEntryResponse is the JSON form of a leaderboard row
type LeaderboardEntryResponse struct {
	Rank      int    `json:"rank"`
	DiscordID string `json:"discord_id"`
	Balance   int64  `json:"balance"`
	Streak    int    `json:"streak"`
}

// StatusAPI serves read-only guild state plus a force-end endpoint
type StatusAPI struct {
	giveaways      GiveawayReader
	leaderboard    LeaderboardReader
	guilds         func() []GuildInfo
	defaultEntries int
	now            func() time.Time
}

// NewStatusAPI creates the status API handlers
func NewStatusAPI(giveaways GiveawayReader, leaderboard LeaderboardReader, guilds func() []GuildInfo, defaultEntries int) *StatusAPI {
	if defaultEntries <= 0 {
		defaultEntries = 10
	}
	return &StatusAPI{
		giveaways:      giveaways,
		leaderboard:    leaderboard,
		guilds:         guilds,
		defaultEntries: defaultEntries,
		now:            time.Now,
	}
}

// Router builds the gin engine
func (a *StatusAPI) Router() *gin.Engine {
	router := gin.New()
	router.Use(requestID())
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "guildbot",
		})
	})

	router.GET("/guilds", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"guilds": a.guilds()})
	})

	guild := router.Group("/guilds/:guild_id")
	guild.GET("/giveaways", a.listGiveaways)
	guild.GET("/giveaways/:id", a.getGiveaway)
	guild.POST("/giveaways/:id/end", a.endGiveaway)
	guild.GET("/messages/:message_id/giveaway", a.getGiveawayByMessage)
	guild.GET("/leaderboard", a.getLeaderboard)

	return router
}

func (a *StatusAPI) listGiveaways(c *gin.Context) {
	guildID, ok := pathID(c, "guild_id")
	if !ok {
		return
	}

	// ?recent=n lists the last n giveaways in any state instead of the open ones
	var giveaways []*entities.Giveaway
	var err error
	if raw := c.Query("recent"); raw != "" {
		limit, ok := queryLimit(c, raw, "recent")
		if !ok {
			return
		}
		giveaways, err = a.giveaways.ListRecent(c.Request.Context(), guildID, limit)
	} else {
		giveaways, err = a.giveaways.ListActive(c.Request.Context(), guildID)
	}
	if err != nil {
		a.respondError(c, err)
		return
	}

	now := a.now()
	out := make([]GiveawayResponse, 0, len(giveaways))
	for _, g := range giveaways {
		out = append(out, toGiveawayResponse(g, now))
	}
	c.JSON(http.StatusOK, gin.H{"giveaways": out})
}

func (a *StatusAPI) getGiveaway(c *gin.Context) {
	guildID, ok := pathID(c, "guild_id")
	if !ok {
		return
	}
	giveawayID, ok := pathID(c, "id")
	if !ok {
		return
	}

	g, err := a.giveaways.GetGiveaway(c.Request.Context(), guildID, giveawayID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toGiveawayResponse(g, a.now()))
}

func (a *StatusAPI) getGiveawayByMessage(c *gin.Context) {
	guildID, ok := pathID(c, "guild_id")
	if !ok {
		return
	}
	messageID, ok := pathID(c, "message_id")
	if !ok {
		return
	}

	g, err := a.giveaways.GetGiveawayByMessage(c.Request.Context(), guildID, messageID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toGiveawayResponse(g, a.now()))
}

func (a *StatusAPI) endGiveaway(c *gin.Context) {
	guildID, ok := pathID(c, "guild_id")
	if !ok {
		return
	}
	giveawayID, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := a.giveaways.EndGiveaway(c.Request.Context(), guildID, giveawayID, application.EndTriggerAPI)
	if err != nil {
		a.respondError(c, err)
		return
	}

	log.WithFields(log.Fields{
		"guild_id":      guildID,
		"giveaway_id":   giveawayID,
		"already_ended": result.AlreadyEnded,
		"request_id":    c.GetString("request_id"),
	}).Info("Giveaway end requested through status API")

	status := http.StatusOK
	if result.AlreadyEnded {
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{
		"already_ended":     result.AlreadyEnded,
		"winners":           formatIDs(result.Winners),
		"participant_count": result.ParticipantCount,
	})
}

func (a *StatusAPI) getLeaderboard(c *gin.Context) {
	guildID, ok := pathID(c, "guild_id")
	if !ok {
		return
	}

	limit := a.defaultEntries
	if raw := c.Query("limit"); raw != "" {
		if limit, ok = queryLimit(c, raw, "limit"); !ok {
			return
		}
	}

	entries, err := a.leaderboard.Leaderboard(c.Request.Context(), guildID, limit)
	if err != nil {
		a.respondError(c, err)
		return
	}
	out := make([]LeaderboardEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, LeaderboardEntryResponse{
			Rank:      e.Rank,
			DiscordID: strconv.FormatInt(e.DiscordID, 10),
			Balance:   e.Balance,
			Streak:    e.Streak,
		})
	}
	c.JSON(http.StatusOK, gin.H{"entries": out})
}

func (a *StatusAPI) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrGiveawayNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "giveaway not found"})
	case application.IsGiveawayBusy(err):
		c.JSON(http.StatusConflict, gin.H{"error": "giveaway is being processed"})
	default:
		log.WithFields(log.Fields{
			"path":       c.Request.URL.Path,
			"request_id": c.GetString("request_id"),
			"error":      err,
		}).Error("Status API request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// statusAPIAddr is the listen address for the status API
func statusAPIAddr(cfg *config.Config) (string, error) {
	if cfg.StatusAPIPort <= 0 || cfg.StatusAPIPort > 65535 {
		return "", fmt.Errorf("invalid port %d", cfg.StatusAPIPort)
	}
	return net.JoinHostPort(cfg.StatusAPIHost, strconv.Itoa(cfg.StatusAPIPort)), nil
}

// StartStatusAPI starts the status HTTP server in the background
func (b *Bot) StartStatusAPI() error {
	addr, err := statusAPIAddr(b.config)
	if err != nil {
		return err
	}
	if b.config.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	api := NewStatusAPI(b.coordinator, b.economy, b.GetGuilds, b.config.Economy.LeaderboardSize)
	b.statusServer = &http.Server{
		Addr:         addr,
		Handler:      api.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("Status API listening on %s", addr)
		if err := b.statusServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Status API server stopped")
		}
	}()
	return nil
}

// requestID tags every request with an X-Request-ID
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// queryLimit parses a positive count, clamped to maxListLimit
func queryLimit(c *gin.Context, raw, name string) (int, bool) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s must be a positive integer", name)})
		return 0, false
	}
	return min(n, maxListLimit), true
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid %s", name)})
		return 0, false
	}
	return id, true
}

func toGiveawayResponse(g *entities.Giveaway, now time.Time) GiveawayResponse {
	resp := GiveawayResponse{
		ID:            g.ID,
		GuildID:       strconv.FormatInt(g.GuildID, 10),
		ChannelID:     strconv.FormatInt(g.ChannelID, 10),
		CreatorID:     strconv.FormatInt(g.CreatorID, 10),
		Prize:         g.Prize,
		Description:   g.Description,
		WinnersCount:  g.WinnersCount,
		State:         string(g.State),
		Winners:       formatIDs(g.Winners),
		EndsAt:        g.EndsAt,
		EndedAt:       g.EndedAt,
		TimeRemaining: g.TimeRemaining(now),
	}
	if g.MessageID != nil {
		resp.MessageID = strconv.FormatInt(*g.MessageID, 10)
	}
	return resp
}

func formatIDs(ids []int64) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = strconv.FormatInt(id, 10)
	}
	return out
}
