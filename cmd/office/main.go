package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/example/virtual-office/internal/config"
	"github.com/example/virtual-office/internal/httpapi"
	"github.com/example/virtual-office/internal/office"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	if err := run(logger); err != nil {
		logger.Error("office server exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	listenAddr := pflag.String("listen", "", "listen address (overrides OFFICE_LISTEN_ADDR)")
	officeFile := pflag.String("office-file", "", "office definition file (overrides OFFICE_DEFINITION_FILE)")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if *officeFile != "" {
		cfg.OfficeFile = *officeFile
	}

	def, err := config.LoadOfficeDefinition(cfg.OfficeFile)
	if err != nil {
		return fmt.Errorf("load office definition: %w", err)
	}
	policy, err := def.Policy()
	if err != nil {
		return fmt.Errorf("office policy: %w", err)
	}

	directory, err := buildDirectory(def.Employees)
	if err != nil {
		return fmt.Errorf("build directory: %w", err)
	}

	idGenerator := func() string { return uuid.NewString() }
	tokenGenerator := func() string { return uuid.NewString() }
	now := time.Now

	rooms := office.NewRoomStore()
	for _, room := range def.Rooms {
		err := rooms.Add(office.Room{
			ID:        idGenerator(),
			Name:      room.Name,
			Kind:      office.RoomKind(room.Kind),
			Capacity:  room.Capacity,
			CreatedAt: now(),
		})
		if err != nil {
			return fmt.Errorf("seed room %q: %w", room.Name, err)
		}
	}

	events := httpapi.NewEventStream(logger)

	var responder *office.OfferResponder
	if cfg.AutoRespondDelay > 0 {
		responder = &office.OfferResponder{
			Decide: func(office.Offer) bool { return true },
			Delay:  cfg.AutoRespondDelay,
		}
	}

	coordinator := office.NewCoordinator(office.CoordinatorConfig{
		Directory:      directory,
		Invites:        office.NewInviteRegistry(idGenerator, office.RandomInviteCode, now, logger),
		Presence:       office.NewPresenceStore(),
		Rooms:          rooms,
		Calls:          office.NewCallManager(idGenerator, now),
		Policy:         policy,
		Notifier:       events,
		VerifyPassword: office.VerifyPassword,
		IDGenerator:    idGenerator,
		TokenGenerator: tokenGenerator,
		Now:            now,
		OfferTTL:       cfg.OfferTTL,
		Responder:      responder,
		Logger:         logger,
	})

	sweeper := office.NewGateSweeper(coordinator, cfg.WorkingHoursSweepInterval, cfg.InviteSweepInterval, logger)

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Auth:      httpapi.NewAuthHandler(coordinator, logger),
		Presence:  httpapi.NewPresenceHandler(coordinator, logger),
		Rooms:     httpapi.NewRoomHandler(coordinator, logger),
		Calls:     httpapi.NewCallHandler(coordinator, logger),
		Admin:     httpapi.NewAdminHandler(coordinator, logger),
		Events:    events,
		Validator: coordinator,
		Logger:    logger,
	})

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// WriteTimeout stays unset so /events can stream indefinitely.
		IdleTimeout: 60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return sweeper.Run(ctx)
	})
	group.Go(func() error {
		logger.Info("office API listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("office server stopped")
	return nil
}

// buildDirectory turns the YAML employee definitions into directory
// accounts, hashing plaintext passwords and minting ids where absent.
func buildDirectory(defs []config.EmployeeDefinition) (*office.EmployeeDirectory, error) {
	accounts := make([]office.EmployeeAccount, 0, len(defs))
	for i, def := range defs {
		hash := def.PasswordHash
		if hash == "" {
			var err error
			hash, err = office.CreatePasswordHash(def.Password, office.DefaultArgon2idParams)
			if err != nil {
				return nil, fmt.Errorf("employees[%d]: hash password: %w", i, err)
			}
		}
		id := def.ID
		if id == "" {
			id = uuid.NewString()
		}
		accounts = append(accounts, office.EmployeeAccount{
			ID:           id,
			Email:        def.Email,
			DisplayName:  def.DisplayName,
			Role:         office.Role(def.Role),
			PasswordHash: hash,
		})
	}
	return office.NewEmployeeDirectory(accounts)
}
