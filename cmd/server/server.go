package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"github.com/mzhurov/commune/internal/cache"
	"github.com/mzhurov/commune/internal/chat"
	"github.com/mzhurov/commune/internal/database"
	"github.com/mzhurov/commune/internal/handlers"
	"github.com/mzhurov/commune/internal/presence"
	"github.com/mzhurov/commune/internal/realtime"
	ws "github.com/mzhurov/commune/internal/websocket"
	"github.com/mzhurov/commune/pkg/auth"
)

type Server struct {
	Router *gin.Engine
	DB     *database.Database
	Redis  *redis.Client
	Hub    *ws.Hub
}

func NewServer() *Server {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Println(".env not found, using environment variables")
		}
	}

	dbConn := &database.Database{}
	if err := dbConn.Connect(); err != nil {
		log.Fatalf("Postgres connect failed: %v", err)
	}

	redisOpts, err := redis.ParseURL(os.Getenv("REDIS_URL"))
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Redis connect failed: %v", err)
	}

	jwtMgr := auth.NewJWTManager(
		os.Getenv("JWT_SECRET"),
		24*time.Hour,
	)

	caches := cache.NewRegistry()
	pres := presence.New(rdb)

	router := realtime.NewRouter(caches, dbConn)
	hub := ws.NewHub(router, pres)
	go hub.Run()

	gate := chat.NewAccessGate(dbConn, caches, nil)
	guard := chat.NewBlockGuard(dbConn, caches)
	pipeline := chat.NewPipeline(dbConn, caches, gate, guard, hub)
	rooms := chat.NewRoomService(dbConn, caches)
	conversations := chat.NewConversationService(dbConn, gate, guard)

	authH := handlers.NewAuthHandler(dbConn, jwtMgr, rdb)
	userH := handlers.NewUserHandler(dbConn, caches, guard, pres)
	convH := handlers.NewConversationHandler(dbConn, caches, conversations, pipeline, gate, guard)
	msgH := handlers.NewMessageHandler(pipeline)
	roomH := handlers.NewRoomHandler(dbConn, caches, rooms, pipeline)
	wsH := handlers.NewWebSocketHandler(hub)

	engine := gin.Default()
	APIEndpoints(engine, jwtMgr, rdb, authH, userH, convH, msgH, roomH, wsH)

	return &Server{
		Router: engine,
		DB:     dbConn,
		Redis:  rdb,
		Hub:    hub,
	}
}

func (s *Server) Run() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server starting on port %s", port)
	if err := s.Router.Run(":" + port); err != nil {
		log.Fatalf("Server run error: %v", err)
	}
}
