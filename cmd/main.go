package main

import (
	"net/http"
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/vehicle-maintenance/internal/auth"
	"github.com/ukydev/vehicle-maintenance/internal/db"
	"github.com/ukydev/vehicle-maintenance/internal/handlers"
	"github.com/ukydev/vehicle-maintenance/internal/ingest"
	"github.com/ukydev/vehicle-maintenance/internal/middleware"
	"github.com/ukydev/vehicle-maintenance/internal/stats"
)

func main() {
	// .env is optional; real deployments configure through the environment.
	if err := godotenv.Load(); err == nil {
		log.Info("Loaded configuration from .env")
	}

	client, err := db.ConnectMongo()
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	log.Info("Connected to MongoDB")

	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "vehicle_maintenance"
	}
	database := client.Database(dbName)

	userCollection := &db.MongoUserCollection{Collection: database.Collection("users")}
	vehicleCollection := &db.MongoVehicleCollection{Collection: database.Collection("vehicles")}
	maintenanceCollection := &db.MongoMaintenanceCollection{Collection: database.Collection("maintenance_records")}
	reminderCollection := &db.MongoReminderCollection{Collection: database.Collection("maintenance_reminders")}

	authService, err := auth.NewService()
	if err != nil {
		log.WithError(err).Fatal("Failed to create auth service")
	}

	statsService := stats.NewService(vehicleCollection, maintenanceCollection, reminderCollection)

	authHandler := handlers.NewAuthHandler(authService, userCollection)
	vehicleHandler := handlers.NewVehicleHandler(vehicleCollection)
	maintenanceHandler := handlers.NewMaintenanceHandler(maintenanceCollection, vehicleCollection)
	reminderHandler := handlers.NewReminderHandler(reminderCollection, vehicleCollection)
	statisticsHandler := handlers.NewStatisticsHandler(statsService)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("POST /api/users/register", authHandler.Register)
	mux.HandleFunc("POST /api/users/login", authHandler.Login)
	mux.HandleFunc("GET /api/users/me", authHandler.Me)
	mux.HandleFunc("PATCH /api/users/me", authHandler.Update)
	mux.HandleFunc("DELETE /api/users/me", authHandler.Delete)

	mux.HandleFunc("POST /api/vehicles", vehicleHandler.Create)
	mux.HandleFunc("GET /api/vehicles", vehicleHandler.List)
	mux.HandleFunc("GET /api/vehicles/filter", vehicleHandler.Filter)
	mux.HandleFunc("PATCH /api/vehicles/{id}", vehicleHandler.Update)
	mux.HandleFunc("DELETE /api/vehicles/{id}", vehicleHandler.Delete)

	mux.HandleFunc("POST /api/maintenance", maintenanceHandler.Create)
	mux.HandleFunc("GET /api/maintenance", maintenanceHandler.List)
	mux.HandleFunc("GET /api/maintenance/filter", maintenanceHandler.Filter)
	mux.HandleFunc("PATCH /api/maintenance/{id}", maintenanceHandler.Update)
	mux.HandleFunc("DELETE /api/maintenance/{id}", maintenanceHandler.Delete)

	mux.HandleFunc("POST /api/reminders", reminderHandler.Create)
	mux.HandleFunc("GET /api/reminders", reminderHandler.List)
	mux.HandleFunc("GET /api/reminders/filter", reminderHandler.Filter)
	mux.HandleFunc("PATCH /api/reminders/{id}", reminderHandler.Update)
	mux.HandleFunc("DELETE /api/reminders/{id}", reminderHandler.Delete)

	mux.HandleFunc("GET /api/statistics", statisticsHandler.Get)

	authMiddleware := middleware.NewAuthMiddleware(authService)
	rateLimiter := middleware.NewRateLimitMiddleware()
	handler := rateLimiter.RateLimit(300, 60)(authMiddleware.Authenticate(mux))

	// Odometer ingest runs only when a broker is configured.
	var odometerIngest *ingest.OdometerIngest
	if broker := os.Getenv("MQTT_BROKER"); broker != "" {
		odometerIngest, err = ingest.NewOdometerIngest(broker, "vehicle-maintenance-api", vehicleCollection)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to MQTT broker")
		}
		if err := odometerIngest.Start(); err != nil {
			log.WithError(err).Fatal("Failed to subscribe to odometer topic")
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.WithField("port", port).Info("HTTP server listening")
	serveErr := http.ListenAndServe(":"+port, handler)
	if odometerIngest != nil {
		odometerIngest.Stop()
	}
	log.WithError(serveErr).Fatal("HTTP server stopped")
}
