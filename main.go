package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"puttPracticeAPI/handlers"
	"puttPracticeAPI/internal/notification"
	"puttPracticeAPI/middleware"
	"puttPracticeAPI/services"

	_ "net/http/pprof"
)

var (
	dbPool              *pgxpool.Pool
	notificationService *services.NotificationService
	achievementService  *services.AchievementService
	challengeService    *services.ChallengeService
	userService         *services.UserService
	practiceService     *services.PracticeService
	routineService      *services.RoutineService
	gameService         *services.GameService
	fcmService          *notification.FCMService
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	clerkSecretKey := os.Getenv("CLERK_SECRET_KEY")
	if clerkSecretKey == "" {
		log.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(clerkSecretKey)
	log.Println("Clerk initialized successfully")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		log.Fatal("Failed to parse database URL:", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("Failed to create connection pool:", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Successfully connected to database")

	notificationService = services.NewNotificationService(dbPool)
	achievementService = services.NewAchievementService(dbPool, notificationService)
	challengeService = services.NewChallengeService(dbPool, achievementService, notificationService)
	userService = services.NewUserService(dbPool, notificationService)
	practiceService = services.NewPracticeService(dbPool, achievementService, challengeService, notificationService)
	routineService = services.NewRoutineService(dbPool, achievementService, notificationService)
	gameService = services.NewGameService(dbPool, achievementService, notificationService)

	fcmService, err = notification.NewFCMService("./serviceAccountKey.json")
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		notificationService.SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	middleware.InitPrometheus()
	services.InitMetrics()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	userHandler := handlers.NewUserHandler(userService, achievementService)
	sessionHandler := handlers.NewSessionHandler(practiceService)
	routineHandler := handlers.NewRoutineHandler(routineService)
	gameHandler := handlers.NewGameHandler(gameService)
	challengeHandler := handlers.NewChallengeHandler(challengeService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	webhookHandler := handlers.NewWebhookHandler(userService)

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "puttPractice-api"}`))
	}).Methods("GET")

	r.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/delete-account-webpage", userHandler.AccountDeletionInstructions).Methods("GET")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/user", userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/user/update-profile", userHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/user/delete-account", userHandler.DeleteAccount).Methods("DELETE")
	protected.HandleFunc("/user/stats", userHandler.GetUserStats).Methods("GET")
	protected.HandleFunc("/user/achievements", userHandler.GetAchievements).Methods("GET")
	protected.HandleFunc("/user/search", userHandler.SearchUsers).Methods("GET")
	protected.HandleFunc("/user/friends", userHandler.GetFriends).Methods("GET")
	protected.HandleFunc("/user/friends", userHandler.AddFriend).Methods("POST")
	protected.HandleFunc("/user/friends/{clerkId}", userHandler.RemoveFriend).Methods("DELETE")
	protected.HandleFunc("/user/profile/{id}", userHandler.GetUserProfile).Methods("GET")
	protected.HandleFunc("/leaderboard/global", userHandler.GetGlobalLeaderboard).Methods("GET")
	protected.HandleFunc("/leaderboard/friends", userHandler.GetFriendsLeaderboard).Methods("GET")

	protected.HandleFunc("/sessions", sessionHandler.AddSession).Methods("POST")
	protected.HandleFunc("/sessions", sessionHandler.GetSessions).Methods("GET")
	protected.HandleFunc("/sessions/{id}", sessionHandler.EditSession).Methods("PUT")
	protected.HandleFunc("/sessions/{id}", sessionHandler.DeleteSession).Methods("DELETE")
	protected.HandleFunc("/sessions/cross-log", sessionHandler.CrossLog).Methods("POST")
	protected.HandleFunc("/sessions/bulk-log", sessionHandler.BulkLog).Methods("POST")
	protected.HandleFunc("/sessions/{id}/accept", sessionHandler.AcceptPendingSession).Methods("POST")
	protected.HandleFunc("/sessions/{id}/reject", sessionHandler.RejectPendingSession).Methods("POST")

	protected.HandleFunc("/routines", routineHandler.GetRoutines).Methods("GET")
	protected.HandleFunc("/routines/completions", routineHandler.CompleteRoutine).Methods("POST")
	protected.HandleFunc("/routines/completions", routineHandler.GetCompletions).Methods("GET")
	protected.HandleFunc("/routines/completions/{id}", routineHandler.EditCompletion).Methods("PUT")
	protected.HandleFunc("/routines/completions/{id}", routineHandler.DeleteCompletion).Methods("DELETE")
	protected.HandleFunc("/routines/cross-log", routineHandler.CrossLog).Methods("POST")
	protected.HandleFunc("/routines/completions/{id}/accept", routineHandler.AcceptPendingCompletion).Methods("POST")
	protected.HandleFunc("/routines/completions/{id}/reject", routineHandler.RejectPendingCompletion).Methods("POST")

	protected.HandleFunc("/games", gameHandler.GetGames).Methods("GET")
	protected.HandleFunc("/games/completions", gameHandler.CompleteGame).Methods("POST")
	protected.HandleFunc("/games/completions", gameHandler.GetCompletions).Methods("GET")
	protected.HandleFunc("/games/completions/{id}", gameHandler.EditCompletion).Methods("PUT")
	protected.HandleFunc("/games/completions/{id}", gameHandler.DeleteCompletion).Methods("DELETE")
	protected.HandleFunc("/games/cross-log", gameHandler.CrossLog).Methods("POST")
	protected.HandleFunc("/games/completions/{id}/accept", gameHandler.AcceptPendingCompletion).Methods("POST")
	protected.HandleFunc("/games/completions/{id}/reject", gameHandler.RejectPendingCompletion).Methods("POST")

	protected.HandleFunc("/challenge/weekly", challengeHandler.GetWeeklyChallenge).Methods("GET")

	protected.HandleFunc("/notifications", notificationHandler.GetNotifications).Methods("GET")
	protected.HandleFunc("/notifications/unread-count", notificationHandler.GetUnreadCount).Methods("GET")
	protected.HandleFunc("/notifications/{id}/read", notificationHandler.MarkAsRead).Methods("PUT")
	protected.HandleFunc("/notifications/read-all", notificationHandler.MarkAllAsRead).Methods("PUT")
	protected.HandleFunc("/notifications/{id}", notificationHandler.DeleteNotification).Methods("DELETE")
	protected.HandleFunc("/notifications/register-device", notificationHandler.RegisterDevice).Methods("POST")

	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
