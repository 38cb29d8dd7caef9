// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fieldops/internal/calendar"
	"fieldops/internal/config"
	"fieldops/internal/geocode"
	httptransport "fieldops/internal/http"
	"fieldops/internal/infra"
	"fieldops/internal/modules/appointment"
	"fieldops/internal/modules/dispatch"
	"fieldops/internal/modules/routecache"
	"fieldops/internal/modules/technician"
	"fieldops/internal/notify"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()

	techStore := technician.NewStore(dbPool)
	apptStore := appointment.NewStore(dbPool)
	routeCache := routecache.NewStore(redisClient)

	var calendarSync appointment.CalendarSync
	if cfg.Calendar.CredentialsFile != "" && cfg.Calendar.CalendarID != "" {
		cal, err := calendar.NewService(ctx, cfg.Calendar.CredentialsFile, cfg.Calendar.CalendarID)
		if err != nil {
			log.Fatalf("calendar init: %v", err)
		}
		calendarSync = cal
	}

	mailer := notify.NewMailer(cfg.SMTP)
	bookingSvc := appointment.NewService(apptStore, techStore, routeCache, mailer, calendarSync)

	estimator := dispatch.NewEstimator(techStore, apptStore)
	dispatchSvc := dispatch.NewService(techStore, estimator, cfg.Dispatch)

	var geocoder *geocode.Service
	if cfg.Maps.APIKey != "" {
		geocoder, err = geocode.NewService(cfg.Maps.APIKey)
		if err != nil {
			log.Fatalf("geocoder init: %v", err)
		}
	}

	handler := httptransport.NewRouter(dispatchSvc, bookingSvc, geocoder)

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Printf("listening addr=%s", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
