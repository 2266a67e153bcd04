package main

import (
	"context"
	"net/http"
	_ "time/tzdata"

	"github.com/gorilla/mux"
	cron "github.com/robfig/cron/v3"
	"github.com/rs/cors"
	"github.com/sendgrid/sendgrid-go"
	twilio "github.com/twilio/twilio-go"

	"github.com/propflow/maintenance-service/internal/app"
	"github.com/propflow/maintenance-service/internal/config"
	"github.com/propflow/maintenance-service/internal/controllers"
	"github.com/propflow/maintenance-service/internal/middleware"
	"github.com/propflow/maintenance-service/internal/repositories"
	"github.com/propflow/maintenance-service/internal/routes"
	"github.com/propflow/maintenance-service/internal/services"
	"github.com/propflow/maintenance-service/internal/utils"
)

func main() {
	utils.InitLogger("maintenance-service")
	cfg := config.LoadConfig()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize maintenance-service:", err)
	}
	defer application.Close()

	userRepo := repositories.NewUserRepository(application.DB)
	propRepo := repositories.NewPropertyRepository(application.DB)
	unitRepo := repositories.NewUnitRepository(application.DB)
	tenancyRepo := repositories.NewTenancyRepository(application.DB)
	vendorRepo := repositories.NewVendorRepository(application.DB)
	reqRepo := repositories.NewRequestRepository(application.DB)
	commentRepo := repositories.NewCommentRepository(application.DB)

	if cfg.LDFlag_SeedDbWithTestData {
		if err := app.SeedTestData(
			context.Background(),
			userRepo,
			propRepo,
			unitRepo,
			tenancyRepo,
			vendorRepo,
		); err != nil {
			utils.Logger.WithError(err).Fatal("Failed to seed test data")
		}
	}

	identityService := services.NewIdentityService(userRepo, propRepo, tenancyRepo)
	requestService := services.NewRequestService(reqRepo, propRepo, unitRepo, userRepo, vendorRepo, nil)
	linkService := services.NewPublicLinkService(reqRepo, nil)
	commentService := services.NewCommentService(commentRepo, reqRepo, linkService)
	directoryService := services.NewDirectoryService(vendorRepo, unitRepo, propRepo)

	var notificationService *services.NotificationService
	if cfg.LDFlag_NotificationsEnabled {
		twClient := twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.TwilioAccountSID,
			Password: cfg.TwilioAuthToken,
		})
		sgClient := sendgrid.NewSendClient(cfg.SendGridAPIKey)
		notificationService = services.NewNotificationService(
			userRepo,
			vendorRepo,
			twClient,
			sgClient,
			cfg.LDFlag_TwilioFromPhone,
			cfg.LDFlag_SendgridFromEmail,
			cfg.OrganizationName,
			cfg.LDFlag_SendgridSandboxMode,
		)
	}

	requestsController := controllers.NewRequestsController(
		identityService, requestService, commentService, notificationService,
	)
	linkController := controllers.NewPublicLinkController(identityService, linkService, commentService)
	directoryController := controllers.NewDirectoryController(identityService, directoryService)
	healthController := controllers.NewHealthController()

	router := mux.NewRouter()

	// Public
	router.HandleFunc(routes.Health, healthController.Check).Methods(http.MethodGet)
	router.HandleFunc(routes.PublicRequest, linkController.ViewPublic).Methods(http.MethodGet)
	router.HandleFunc(routes.PublicRequestComments, linkController.AddPublicComment).Methods(http.MethodPost)

	secured := router.NewRoute().Subrouter()
	secured.Use(middleware.AuthMiddleware(cfg.RSAPublicKey))

	secured.HandleFunc(routes.RequestsBase, requestsController.Create).Methods(http.MethodPost)
	secured.HandleFunc(routes.RequestsBase, requestsController.List).Methods(http.MethodGet)
	secured.HandleFunc(routes.RequestByID, requestsController.Get).Methods(http.MethodGet)
	secured.HandleFunc(routes.RequestByID, requestsController.Edit).Methods(http.MethodPatch)
	secured.HandleFunc(routes.RequestStatus, requestsController.Transition).Methods(http.MethodPost)
	secured.HandleFunc(routes.RequestAssign, requestsController.Assign).Methods(http.MethodPost)
	secured.HandleFunc(routes.RequestComments, requestsController.AddComment).Methods(http.MethodPost)
	secured.HandleFunc(routes.RequestComments, requestsController.ListComments).Methods(http.MethodGet)
	secured.HandleFunc(routes.RequestPublicLink, linkController.Enable).Methods(http.MethodPost)
	secured.HandleFunc(routes.RequestPublicLink, linkController.Disable).Methods(http.MethodDelete)
	secured.HandleFunc(routes.Vendors, directoryController.ListVendors).Methods(http.MethodGet)
	secured.HandleFunc(routes.PropertyUnits, directoryController.ListUnits).Methods(http.MethodGet)

	c := cron.New()
	_, sweepErr := c.AddFunc("15 0 * * *", func() {
		cleared, e := linkService.SweepExpiredLinks(context.Background())
		if e != nil {
			utils.Logger.WithError(e).Error("Nightly expired-link sweep failed")
			return
		}
		if cleared > 0 {
			utils.Logger.Infof("Nightly sweep cleared %d expired public links", cleared)
		}
	})
	if sweepErr != nil {
		utils.Logger.WithError(sweepErr).Fatal("Failed to schedule expired-link sweep cron")
	}
	c.Start()

	allowedOrigins := []string{cfg.AppUrl}
	if !cfg.LDFlag_CORSHighSecurity {
		allowedOrigins = append(allowedOrigins, utils.CORSLowSecurityAllowedOriginLocalhost)
	}

	co := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("maintenance-service failed to start:", err)
	}
}
