package main

import (
	"roomly/internal/reservations/handler"
	"roomly/internal/reservations/repository"
	"roomly/internal/reservations/service"
	"roomly/internal/reservations/validator"
	"roomly/pkg/app"
	"roomly/pkg/config"
	"roomly/pkg/events"
)

const ServiceName = "reservations"

func main() {
	cfg := config.Load(ServiceName)

	cfg.Log.Info("Starting Reservations service")
	reservationService, stopServices := initServices(cfg)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewReservationHandler(reservationService, cfg.Log))
	serverApp.Run()

	// Run returns after graceful shutdown; flush buffered events before exit.
	stopServices()
}

func initServices(cfg *config.Config) (service.ReservationService, func()) {
	store := repository.NewMemoryBookingStore()
	locks := repository.NewRoomLockManager()
	reservationValidator := validator.NewReservationValidator(cfg.Log)

	var publisher events.Publisher
	stopServices := func() {}
	if cfg.EventsEnabled() {
		kafkaPublisher, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.EventsTopic, ServiceName)
		if err != nil {
			cfg.Log.Fatal("Failed to configure event publisher", "error", err)
		}
		publisher = kafkaPublisher
		stopServices = func() {
			if err := kafkaPublisher.Close(); err != nil {
				cfg.Log.Error("Failed to close event publisher", "error", err)
			}
		}
		cfg.Log.Info("Event publishing enabled", "topic", cfg.EventsTopic)
	}

	reservationService := service.NewReservationService(
		store,
		locks,
		reservationValidator,
		publisher,
		cfg,
	)

	cfg.Log.Info("Reservation service initialized")
	return reservationService, stopServices
}
