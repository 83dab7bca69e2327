package bot

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/namiferry/ferrybot/internal/domain"
	"github.com/namiferry/ferrybot/internal/service"
)

// APIResponse is the envelope of every /api response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type SessionResponse struct {
	User    domain.User   `json:"user"`
	Views   []domain.View `json:"views"`
	Landing domain.View   `json:"landing,omitempty"`
}

type DashboardResponse struct {
	Stats     service.Stats         `json:"stats"`
	Operating []domain.OperationLog `json:"operating"`
}

type DraftResponse struct {
	Draft     domain.LogDraft `json:"draft"`
	CanSubmit bool            `json:"canSubmit"`
}

type ReportResponse struct {
	Date string                `json:"date"`
	Logs []domain.OperationLog `json:"logs"`
	Text string                `json:"text"`
}

// RoleOption is one entry of the member form's role picker
type RoleOption struct {
	Code  domain.Role `json:"code"`
	Label string      `json:"label"`
	Emoji string      `json:"emoji"`
}

type TelegramResponse struct {
	BotToken   string        `json:"botToken"` // masked
	HasToken   bool          `json:"hasToken"`
	Selected   []string      `json:"selectedRecipientIds"`
	Recipients []domain.User `json:"recipients"`
}

const userKey = "user"

// Router builds the HTTP handler: health check, Telegram webhook and the REST console.
func (b *Bot) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), b.requestLogger())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	if b.api != nil {
		r.POST("/bot", b.webhook)
	}

	api := r.Group("/api")
	if b.cfg.APIEnabled() {
		api.Use(gin.BasicAuthForRealm(gin.Accounts{b.cfg.APIUsername: b.cfg.APIPassword}, "FerryBot API"))
	}

	// Session
	api.GET("/session", b.apiSession)
	api.POST("/session/switch", b.apiSessionSwitch)
	api.POST("/session/switch/:id", b.apiSessionSwitchTo)

	// Dashboard
	api.GET("/dashboard", b.guard(domain.ViewDashboard), b.apiDashboard)

	// Log entry
	api.GET("/draft", b.guard(domain.ViewLogEntry), b.apiDraft)
	api.PUT("/draft", b.guard(domain.ViewLogEntry), b.apiDraftUpdate)
	api.DELETE("/draft", b.guard(domain.ViewLogEntry), b.apiDraftReset)
	api.POST("/draft/now/:field", b.guard(domain.ViewLogEntry), b.apiDraftNow)
	api.POST("/logs", b.guard(domain.ViewLogEntry), b.apiLogSubmit)

	// Log management
	api.GET("/logs", b.guard(domain.ViewLogManagement), b.apiLogs)
	api.GET("/logs/operating", b.guard(domain.ViewLogManagement), b.apiLogsOperating)
	api.GET("/logs/report", b.guard(domain.ViewLogManagement), b.apiLogsReport)
	api.GET("/logs.ics", b.guard(domain.ViewLogManagement), b.apiLogsICS)

	// Members
	members := api.Group("/members", b.guard(domain.ViewMembers))
	members.GET("", b.apiMembers)
	members.GET("/roles", b.apiMemberRoles)
	members.POST("", b.apiMemberSave)
	members.PUT("/:id", b.apiMemberSave)
	members.DELETE("/:id", b.apiMemberDelete)

	// Ships
	ships := api.Group("/ships", b.guard(domain.ViewShips))
	ships.GET("", b.apiShips)
	ships.POST("", b.apiShipSave)
	ships.PUT("/:id", b.apiShipSave)
	ships.DELETE("/:id", b.apiShipDelete)

	// Telegram
	tg := api.Group("/telegram", b.guard(domain.ViewTelegram))
	tg.GET("", b.apiTelegram)
	tg.PUT("", b.apiTelegramToken)
	tg.POST("/recipients/:id", b.apiTelegramToggle)
	tg.POST("/test", b.apiTelegramTest)
	tg.POST("/broadcast", b.apiTelegramBroadcast)
	tg.GET("/templates", b.apiTelegramTemplates)

	r.NoRoute(func(c *gin.Context) {
		b.jsonError(c, "route not found", http.StatusNotFound)
	})

	return r
}

func (b *Bot) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		b.log.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)))
	}
}

// guard rejects the request unless the session user may open view
func (b *Bot) guard(view domain.View) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := b.svc.Session.Authorize(c.Request.Context(), view)
		if err != nil {
			b.fail(c, err)
			c.Abort()
			return
		}
		c.Set(userKey, u)
		c.Next()
	}
}

func currentUser(c *gin.Context) domain.User {
	return c.MustGet(userKey).(domain.User)
}

func (b *Bot) jsonResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

func (b *Bot) jsonError(c *gin.Context, err string, status int) {
	c.JSON(status, APIResponse{Success: false, Error: err})
}

// fail maps service errors to HTTP status codes
func (b *Bot) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	default:
		b.log.Error("API error", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	b.jsonError(c, err.Error(), status)
}

// Session

func (b *Bot) sessionResponse(u domain.User) SessionResponse {
	views := domain.ViewsFor(u.Role)
	if views == nil {
		views = []domain.View{}
	}
	landing, _ := domain.LandingView(u.Role)
	return SessionResponse{User: u, Views: views, Landing: landing}
}

func (b *Bot) apiSession(c *gin.Context) {
	u, err := b.svc.Session.Current(c.Request.Context())
	if err != nil {
		b.fail(c, err)
		return
	}
	b.jsonResponse(c, b.sessionResponse(u))
}

func (b *Bot) apiSessionSwitch(c *gin.Context) {
	u, _, _, err := b.svc.Session.Switch(c.Request.Context())
	if err != nil {
		b.fail(c, err)
		return
	}
	b.jsonResponse(c, b.sessionResponse(u))
}

func (b *Bot) apiSessionSwitchTo(c *gin.Context) {
	u, err := b.svc.Session.SwitchTo(c.Request.Context(), c.Param("id"))
	if err != nil {
		b.fail(c, err)
		return
	}
	b.jsonResponse(c, b.sessionResponse(u))
}

// Dashboard

func (b *Bot) apiDashboard(c *gin.Context) {
	ctx := c.Request.Context()
	op := b.svc.Dashboard.OperatingLogs(ctx)
	if op == nil {
		op = []domain.OperationLog{}
	}
	b.jsonResponse(c, DashboardResponse{Stats: b.svc.Dashboard.Stats(ctx), Operating: op})
}

// Log entry

func (b *Bot) apiDraft(c *gin.Context) {
	d := b.svc.Logs.Draft(c.Request.Context(), currentUser(c))
	b.jsonResponse(c, DraftResponse{Draft: d, CanSubmit: d.CanSubmit()})
}

func (b *Bot) apiDraftUpdate(c *gin.Context) {
	var patch service.DraftPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		b.jsonError(c, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	d, err := b.svc.Logs.UpdateDraft(c.Request.Context(), currentUser(c), patch)
	if err != nil {
		b.fail(c, err)
		return
	}
	b.jsonResponse(c, DraftResponse{Draft: d, CanSubmit: d.CanSubmit()})
}

func (b *Bot) apiDraftReset(c *gin.Context) {
	if err := b.svc.Logs.ResetDraft(c.Request.Context(), currentUser(c)); err != nil {
		b.fail(c, err)
		return
	}
	b.jsonResponse(c, nil)
}

func (b *Bot) apiDraftNow(c *gin.Context) {
	d, err := b.svc.Logs.SetNow(c.Request.Context(), currentUser(c), c.Param("field"))
	if err != nil {
		b.fail(c, err)
		return
	}
	b.jsonResponse(c, DraftResponse{Draft: d, CanSubmit: d.CanSubmit()})
}

func (b *Bot) apiLogSubmit(c *gin.Context) {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		b.jsonError(c, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	status, ok := domain.ParseLogStatus(req.Status)
	if !ok {
		b.jsonError(c, "status must be draft or complete", http.StatusBadRequest)
		return
	}

	l, err := b.svc.Logs.Submit(c.Request.Context(), currentUser(c), status)
	if err != nil {
		b.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: l})
}

// Log management

func orEmpty(logs []domain.OperationLog) []domain.OperationLog {
	if logs == nil {
		return []domain.OperationLog{}
	}
	return logs
}

func (b *Bot) apiLogs(c *gin.Context) {
	logs := b.svc.Logs.Visible(c.Request.Context(), currentUser(c))
	logs = b.svc.Logs.Filter(logs, service.LogFilter{
		Search: c.Query("search"),
		Ship:   c.Query("ship"),
		Date:   c.Query("date"),
	})
	b.jsonResponse(c, orEmpty(logs))
}

func (b *Bot) apiLogsOperating(c *gin.Context) {
	var result []domain.OperationLog
	for _, l := range b.svc.Logs.Visible(c.Request.Context(), currentUser(c)) {
		if l.InProgress() {
			result = append(result, l)
		}
	}
	b.jsonResponse(c, orEmpty(result))
}

func (b *Bot) apiLogsReport(c *gin.Context) {
	ctx := c.Request.Context()
	tz := b.svc.Logs.Location()

	day := b.svc.Logs.Now()
	if d := c.Query("date"); d != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, d, tz)
		if err != nil {
			b.jsonError(c, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		day = parsed
	}

	logs, err := b.svc.Logs.ForDate(ctx, day)
	if err != nil {
		b.fail(c, err)
		return
	}

	u := currentUser(c)
	if !u.Role.SeesAllLogs() {
		var own []domain.OperationLog
		for _, l := range logs {
			if l.CaptainID == u.ID {
				own = append(own, l)
			}
		}
		if len(own) == 0 {
			b.jsonError(c, "no logs for "+day.Format(time.DateOnly), http.StatusNotFound)
			return
		}
		logs = own
	}

	b.jsonResponse(c, ReportResponse{
		Date: day.Format(time.DateOnly),
		Logs: logs,
		Text: b.svc.Logs.FormatLogList(logs),
	})
}

func (b *Bot) apiLogsICS(c *gin.Context) {
	data, err := b.svc.Calendar.Feed(b.svc.Logs.Visible(c.Request.Context(), currentUser(c)))
	if err != nil {
		b.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="voyages.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", data)
}

// Members

func (b *Bot) apiMembers(c *gin.Context) {
	ctx := c.Request.Context()

	var users []domain.User
	switch {
	case c.Query("search") != "":
		users = b.svc.Members.Search(ctx, c.Query("search"))
	case c.Query("role") != "":
		role, ok := domain.ParseRole(c.Query("role"))
		if !ok {
			b.jsonError(c, "unknown role", http.StatusBadRequest)
			return
		}
		users = b.svc.Members.ListByRole(ctx, role)
	case c.Query("sort") == "name":
		users = b.svc.Members.SortedByName(ctx)
	default:
		users = b.svc.Members.List(ctx)
	}
	if users == nil {
		users = []domain.User{}
	}
	b.jsonResponse(c, users)
}

func (b *Bot) apiMemberRoles(c *gin.Context) {
	roles := make([]RoleOption, 0, len(domain.Roles))
	for _, r := range domain.Roles {
		roles = append(roles, RoleOption{Code: r, Label: r.Label(), Emoji: r.Emoji()})
	}
	b.jsonResponse(c, roles)
}

func (b *Bot) apiMemberSave(c *gin.Context) {
	var u domain.User
	if err := c.ShouldBindJSON(&u); err != nil {
		b.jsonError(c, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	u.ID = c.Param("id")

	saved, err := b.svc.Members.Save(c.Request.Context(), u)
	if err != nil {
		b.fail(c, err)
		return
	}
	status := http.StatusOK
	if c.Request.Method == http.MethodPost {
		status = http.StatusCreated
	}
	c.JSON(status, APIResponse{Success: true, Data: saved})
}

func (b *Bot) apiMemberDelete(c *gin.Context) {
	if err := b.svc.Members.Delete(c.Request.Context(), c.Param("id")); err != nil {
		b.fail(c, err)
		return
	}
	b.jsonResponse(c, nil)
}

// Ships

func (b *Bot) apiShips(c *gin.Context) {
	ships := b.svc.Ships.List(c.Request.Context())
	if ships == nil {
		ships = []domain.Ship{}
	}
	b.jsonResponse(c, ships)
}

func (b *Bot) apiShipSave(c *gin.Context) {
	var sh domain.Ship
	if err := c.ShouldBindJSON(&sh); err != nil {
		b.jsonError(c, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	sh.ID = c.Param("id")

	saved, err := b.svc.Ships.Save(c.Request.Context(), sh)
	if err != nil {
		b.fail(c, err)
		return
	}
	status := http.StatusOK
	if c.Request.Method == http.MethodPost {
		status = http.StatusCreated
	}
	c.JSON(status, APIResponse{Success: true, Data: saved})
}

func (b *Bot) apiShipDelete(c *gin.Context) {
	if err := b.svc.Ships.Delete(c.Request.Context(), c.Param("id")); err != nil {
		b.fail(c, err)
		return
	}
	b.jsonResponse(c, nil)
}

// Telegram

func (b *Bot) telegramResponse(c *gin.Context, cfg domain.TelegramConfig) TelegramResponse {
	recipients := b.svc.Telegram.Recipients(c.Request.Context())
	if recipients == nil {
		recipients = []domain.User{}
	}
	return TelegramResponse{
		BotToken:   cfg.MaskedToken(),
		HasToken:   cfg.HasToken(),
		Selected:   cfg.SelectedRecipientIDs,
		Recipients: recipients,
	}
}

func (b *Bot) apiTelegram(c *gin.Context) {
	b.jsonResponse(c, b.telegramResponse(c, b.svc.Telegram.Config(c.Request.Context())))
}

func (b *Bot) apiTelegramToken(c *gin.Context) {
	var req struct {
		BotToken string `json:"botToken"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		b.jsonError(c, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	cfg, err := b.svc.Telegram.SetToken(c.Request.Context(), req.BotToken)
	if err != nil {
		b.fail(c, err)
		return
	}
	b.jsonResponse(c, b.telegramResponse(c, cfg))
}

func (b *Bot) apiTelegramToggle(c *gin.Context) {
	selected, err := b.svc.Telegram.ToggleRecipient(c.Request.Context(), c.Param("id"))
	if err != nil {
		b.fail(c, err)
		return
	}
	b.jsonResponse(c, gin.H{"id": c.Param("id"), "selected": selected})
}

func (b *Bot) apiTelegramTest(c *gin.Context) {
	name, err := b.svc.Telegram.TestConnection(c.Request.Context())
	if err != nil {
		b.fail(c, err)
		return
	}
	b.jsonResponse(c, gin.H{"bot": name})
}

func (b *Bot) apiTelegramBroadcast(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		b.jsonError(c, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	res, err := b.svc.Telegram.Broadcast(c.Request.Context(), strings.TrimSpace(req.Text))
	if err != nil {
		b.fail(c, err)
		return
	}
	b.jsonResponse(c, res)
}

func (b *Bot) apiTelegramTemplates(c *gin.Context) {
	b.jsonResponse(c, service.Templates)
}
