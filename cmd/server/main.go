package main

import (
	"context"
	"time"

	bookingshandler "roombook/internal/bookings/handler"
	bookingsrepo "roombook/internal/bookings/repository"
	bookingssvc "roombook/internal/bookings/service"
	bookingsvalidator "roombook/internal/bookings/validator"
	membershandler "roombook/internal/members/handler"
	membersrepo "roombook/internal/members/repository"
	memberssvc "roombook/internal/members/service"
	notificationssvc "roombook/internal/notifications/service"
	roomshandler "roombook/internal/rooms/handler"
	roomsrepo "roombook/internal/rooms/repository"
	roomssvc "roombook/internal/rooms/service"
	roomsvalidator "roombook/internal/rooms/validator"
	"roombook/pkg/app"
	"roombook/pkg/config"
	"roombook/pkg/kafka"
	kafkamiddleware "roombook/pkg/kafka/middleware"
	"roombook/pkg/middleware"
	"roombook/pkg/sealer"
	"roombook/pkg/token"
)

const ServiceName = "roombook"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting room booking service")

	tokens, err := token.NewManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize token manager", "error", err)
	}
	box, err := sealer.New(cfg.SealerKey)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize refresh token sealer", "error", err)
	}

	producer, err := kafka.NewProducer(
		kafka.LoadConfig(),
		cfg.Log,
		kafkamiddleware.PublishLogging(cfg.Log),
	)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize Kafka producer", "error", err)
	}
	defer producer.Close()

	memberRepo := membersrepo.NewMongoMemberRepository(cfg)
	roomRepo := roomsrepo.NewMongoRoomRepository(cfg)
	bookingRepo := bookingsrepo.NewMongoBookingRepository(cfg)
	lockRepo := bookingsrepo.NewBookingLockRepository(cfg)
	ensureIndexes(cfg, memberRepo, roomRepo, bookingRepo, lockRepo)

	publisher := notificationssvc.NewPublisher(producer, cfg)
	memberService := memberssvc.NewMemberService(memberRepo, tokens, box, cfg)
	roomService := roomssvc.NewRoomService(roomRepo, bookingRepo, roomsvalidator.NewRoomValidator(), cfg)
	bookingService := bookingssvc.NewBookingService(
		bookingRepo,
		lockRepo,
		roomService,
		publisher,
		bookingsvalidator.NewBookingValidator(),
		cfg,
	)

	auth := middleware.NewAuthenticator(tokens, memberService, cfg.Log)
	loginLimiter := middleware.NewClientRateLimiter(
		cfg.LoginRateLimitRequests,
		cfg.LoginRateLimitWindow,
		middleware.RemoteIPExtractor,
		cfg.Log,
	)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		membershandler.NewMemberHandler(memberService, loginLimiter, cfg.Log),
		roomshandler.NewRoomHandler(roomService, auth, cfg.Log),
		bookingshandler.NewBookingHandler(bookingService, auth, cfg.Log),
	)
	serverApp.OnShutdown(loginLimiter.Stop)
	serverApp.Run()
}

type indexed interface {
	EnsureIndexes(ctx context.Context) error
}

func ensureIndexes(cfg *config.Config, repos ...indexed) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	for _, repo := range repos {
		if err := repo.EnsureIndexes(ctx); err != nil {
			cfg.Log.Fatal("Failed to create indexes", "error", err)
		}
	}
	cfg.Log.Info("Database indexes ensured", "database", cfg.MongoDatabaseName)
}
