package api

import (
	"strings"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/vietanh2810/encore-api/docs"
	v1 "github.com/vietanh2810/encore-api/internal/api/handler/v1"
	"github.com/vietanh2810/encore-api/internal/api/middleware"
	"github.com/vietanh2810/encore-api/internal/config"
	"github.com/vietanh2810/encore-api/internal/domain"
	"github.com/vietanh2810/encore-api/internal/realtime"
	"github.com/vietanh2810/encore-api/internal/repository"
	"github.com/vietanh2810/encore-api/internal/service"
)

const basePath = "/api/v1"

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
	Hub    *realtime.Hub

	roster *repository.GuestRosterStore
	events *repository.EventRepository

	sessionSvc   *service.SessionService
	checkInSvc   *service.CheckInService
	rosterSvc    *service.RosterService
	eventSvc     *service.EventService
	profileSvc   *service.ProfileService
	guestbookSvc *service.GuestbookService
	chatSvc      *service.ChatService
	gameSvc      *service.GameService
}

type Handlers struct {
	Session   *v1.SessionHandler
	CheckIn   *v1.CheckInHandler
	Roster    *v1.RosterHandler
	Event     *v1.EventHandler
	Profile   *v1.ProfileHandler
	Guestbook *v1.GuestbookHandler
	Chat      *v1.ChatHandler
	Game      *v1.GameHandler
}

// NewServer wires every layer on top of docs, the two-tier document
// repository. Sessions are kept in mirror only.
func NewServer(conf *config.AppConfig, docs repository.DocumentRepository, mirror repository.SessionStore) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
		Hub:    realtime.NewHub(),
		roster: repository.NewGuestRosterStore(docs, conf.Event.StrictEntryNumbers),
		events: repository.NewEventRepository(docs, conf.Event.AdminCode),
	}
	s.initServices(docs, mirror)

	s.MountMiddlewares()
	s.MountHandlers(s.initHandlers())

	return s
}

func (s *Server) initServices(docs repository.DocumentRepository, mirror repository.SessionStore) {
	profiles := repository.NewProfileRepository(docs)

	s.sessionSvc = service.NewSessionService(repository.NewSessionRepository(mirror), s.roster, s.events, profiles)
	s.checkInSvc = service.NewCheckInService(s.roster, s.events, s.Hub)
	s.rosterSvc = service.NewRosterService(s.roster, s.Hub)
	s.eventSvc = service.NewEventService(s.events, s.Hub)
	s.profileSvc = service.NewProfileService(profiles, s.sessionSvc)
	s.guestbookSvc = service.NewGuestbookService(repository.NewGuestbookRepository(docs), s.Hub)
	s.chatSvc = service.NewChatService(repository.NewChatRepository(docs, repository.DefaultChatHistory), s.Hub)
	s.gameSvc = service.NewGameService(repository.NewGameRepository(docs), s.roster, s.Hub)
}

func (s *Server) initHandlers() Handlers {
	return Handlers{
		Session:   v1.NewSessionHandler(s.Config.API, s.sessionSvc),
		CheckIn:   v1.NewCheckInHandler(s.checkInSvc, s.sessionSvc, checkInURL(s.Config.API.BaseURL, s.Config.Event.CheckInPath)),
		Roster:    v1.NewRosterHandler(s.rosterSvc),
		Event:     v1.NewEventHandler(s.eventSvc),
		Profile:   v1.NewProfileHandler(s.profileSvc),
		Guestbook: v1.NewGuestbookHandler(s.guestbookSvc),
		Chat:      v1.NewChatHandler(s.chatSvc, s.sessionSvc, s.Hub, s.Config.API.AllowedCORSDomains),
		Game:      v1.NewGameHandler(s.gameSvc),
	}
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(h Handlers) {
	auth := middleware.NewAuthenticator(s.Config.API.JWTSigningKey, s.sessionSvc)

	public := s.Router.Group(basePath)
	{
		public.GET("/event", h.Event.HandleGetEvent)
		public.GET("/setlist", h.Event.HandleGetSetlist)
		public.GET("/performers", h.Event.HandleGetPerformers)
		public.GET("/guestbook", h.Guestbook.HandleGetMemos)
		public.GET("/games", h.Game.HandleGetGames)
		public.GET("/checkin/qr.png", h.CheckIn.HandleCheckInQRCode)
	}

	login := s.Router.Group(basePath, auth.OptionalJWT())
	{
		login.POST("/session/attendee", h.Session.HandleAttendeeLogin)
		login.POST("/session/admin", h.Session.HandleAdminLogin)
	}

	session := s.Router.Group(basePath, auth.VerifyJWT())
	{
		session.GET("/session", h.Session.HandleGetSession)
		session.POST("/session/refresh", h.Session.HandleRefreshSession)
		session.DELETE("/session", h.Session.HandleLogout)
	}

	attendee := s.Router.Group(basePath, auth.VerifyJWT(), middleware.RequireAttendee())
	{
		attendee.POST("/checkin/code", h.CheckIn.HandleCheckInWithCode)
		attendee.GET(s.Config.Event.CheckInPath, h.CheckIn.HandleCheckInByURL)
		attendee.PUT("/profile/nickname", h.Profile.HandleSaveNickname)
		attendee.POST("/guestbook", h.Guestbook.HandleCreateMemo)
		attendee.DELETE("/guestbook/:memoID", h.Guestbook.HandleDeleteMemo)
		attendee.GET("/chat/messages", h.Chat.HandleGetChatMessages)
		attendee.GET("/ws", h.Chat.HandleWebSocket)
	}

	admin := s.Router.Group(basePath+"/admin", auth.VerifyJWT(), middleware.RequireAdmin())
	{
		admin.GET("/roster", h.Roster.HandleGetRoster)
		admin.GET("/roster/stats", h.Roster.HandleGetRosterStats)
		admin.POST("/roster/import", h.Roster.HandleImportRoster)
		admin.GET("/roster/export", h.Roster.HandleExportRoster)
		admin.DELETE("/roster", h.Roster.HandleResetRoster)
		admin.POST("/roster/walkin", h.Roster.HandleRegisterWalkIn)
		admin.PUT("/roster/:index/payment", h.Roster.HandleSetPayment)
		admin.POST("/checkin", h.CheckIn.HandleAdminCheckIn)
		admin.GET("/checkin/last", h.CheckIn.HandleLastCheckIn)
		admin.POST("/setlist/import", h.Event.HandleImportSetlist)
		admin.PUT("/event", h.Event.HandleUpdateEvent)
		admin.PUT("/settings/code", h.Event.HandleSetAdminCode)
		admin.POST("/games/roulette", h.Game.HandleSpinRoulette)
		admin.POST("/games/draw", h.Game.HandleDrawNumber)
		admin.DELETE("/games/draw", h.Game.HandleResetDraw)
		admin.PUT("/games/marquee", h.Game.HandleSetMarquee)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = swaggerHost(s.Config.API.BaseURL)
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "encore-api"
	docs.SwaggerInfo.Description = "Backend for the concert companion: check-in, sessions, guestbook, chat and party games."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}

// OnDocumentChanged is called by the change feed for every document written
// by any instance. An empty key means changes may have been missed.
func (s *Server) OnDocumentChanged(key string) {
	switch {
	case key == "":
		s.roster.Invalidate()
		for _, topic := range []string{service.TopicRoster, service.TopicEvent, service.TopicGames, service.TopicGuestbook, service.TopicChat} {
			s.Hub.Broadcast(topic, "resync", nil)
		}
	case key == domain.DocRoster:
		s.roster.Invalidate()
		s.Hub.Broadcast(service.TopicRoster, "roster.changed", nil)
	default:
		if topic := service.TopicForDocument(key); topic != "" {
			s.Hub.Broadcast(topic, "document.changed", key)
		}
	}
}

// ApplyConfig takes the values that may change while running.
func (s *Server) ApplyConfig(conf *config.AppConfig) {
	if code := conf.Event.AdminCode; code != "" && code != s.events.DefaultAdminCode() {
		s.events.SetDefaultAdminCode(code)
		zap.L().Info("default admin code reloaded from config")
	}
}

func checkInURL(baseURL, path string) string {
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	return strings.TrimRight(baseURL, "/") + path
}

func swaggerHost(baseURL string) string {
	host := strings.TrimPrefix(strings.TrimPrefix(baseURL, "https://"), "http://")

	return strings.TrimRight(host, "/")
}
