package http

import (
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/canalvip/vipbot/internal/db"
)

// healthz checks database connectivity and returns status.
func (s *Server) healthz(c *gin.Context) {
	sqlDB, errDB := s.db.DB()
	if errDB != nil {
		c.JSON(nethttp.StatusServiceUnavailable, gin.H{"ok": false})
		return
	}
	if errPing := sqlDB.PingContext(c.Request.Context()); errPing != nil {
		c.JSON(nethttp.StatusServiceUnavailable, gin.H{"ok": false})
		return
	}
	c.JSON(nethttp.StatusOK, gin.H{"ok": true, "dialect": db.DialectName(s.db)})
}

// stats reports ledger counts plus the pending free-request backlog.
func (s *Server) stats(c *gin.Context) {
	ctx := c.Request.Context()

	stats, errStats := s.ledger.CollectStats(ctx)
	if errStats != nil {
		log.WithError(errStats).Error("status api: collect stats failed")
		c.JSON(nethttp.StatusInternalServerError, gin.H{"error": "failed to collect stats"})
		return
	}
	pending, errPending := s.queue.CountPending(ctx)
	if errPending != nil {
		log.WithError(errPending).Error("status api: count pending failed")
		c.JSON(nethttp.StatusInternalServerError, gin.H{"error": "failed to count pending requests"})
		return
	}

	c.JSON(nethttp.StatusOK, gin.H{
		"active_members":   stats.ActiveMembers,
		"expired_members":  stats.ExpiredMembers,
		"unused_tokens":    stats.UnusedTokens,
		"channels":         stats.Channels,
		"rates":            stats.Rates,
		"pending_requests": pending,
	})
}

type memberView struct {
	UserID          int64     `json:"user_id"`
	Username        string    `json:"username"`
	SubscriptionEnd time.Time `json:"subscription_end"`
	Status          string    `json:"status"`
}

// members lists VIP members, soonest-expiring first.
func (s *Server) members(c *gin.Context) {
	users, errList := s.ledger.ListUsers(c.Request.Context())
	if errList != nil {
		log.WithError(errList).Error("status api: list members failed")
		c.JSON(nethttp.StatusInternalServerError, gin.H{"error": "failed to list members"})
		return
	}

	views := make([]memberView, 0, len(users))
	for _, user := range users {
		views = append(views, memberView{
			UserID:          user.UserID,
			Username:        user.Username,
			SubscriptionEnd: user.SubscriptionEnd,
			Status:          user.Status,
		})
	}
	c.JSON(nethttp.StatusOK, gin.H{"members": views})
}
