package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mimapa/backend/internal/auth"
	"github.com/mimapa/backend/internal/config"
	"github.com/mimapa/backend/internal/geocode"
	"github.com/mimapa/backend/internal/images"
	"github.com/mimapa/backend/internal/logging"
	"github.com/mimapa/backend/internal/markers"
	"github.com/mimapa/backend/internal/server"
	"github.com/mimapa/backend/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "mimapa-api",
		Short: "Collaborative map-marker backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("google-client-id", defaults.GetString("google.client_id"), "Google OAuth client ID")
	cmd.PersistentFlags().String("google-redirect-uri", defaults.GetString("google.redirect_uri"), "Google OAuth redirect URI")
	cmd.PersistentFlags().String("mongo-uri", defaults.GetString("mongo.uri"), "MongoDB connection URI")
	cmd.PersistentFlags().String("mongo-database", defaults.GetString("mongo.database"), "MongoDB database name")
	cmd.PersistentFlags().String("frontend-redirect-url", defaults.GetString("frontend.redirect_url"), "Frontend URL to redirect to after login")
	cmd.PersistentFlags().Int("token-ttl-minutes", defaults.GetInt("token.ttl_minutes"), "Session token TTL in minutes")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "google.client_id", "google-client-id")
	bindFlag(cmd, "google.redirect_uri", "google-redirect-uri")
	bindFlag(cmd, "mongo.uri", "mongo-uri")
	bindFlag(cmd, "mongo.database", "mongo-database")
	bindFlag(cmd, "frontend.redirect_url", "frontend-redirect-url")
	bindFlag(cmd, "token.ttl_minutes", "token-ttl-minutes")
	bindFlag(cmd, "log.level", "log-level")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	mongoClient, err := storage.Connect(ctx, appConfig.MongoURI, logger)
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	db := mongoClient.Database(appConfig.MongoDatabase)
	if err := storage.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	googleProvider, err := auth.NewGoogleProvider(auth.GoogleProviderConfig{
		ClientID:     appConfig.GoogleClientID,
		ClientSecret: appConfig.GoogleClientSecret,
		RedirectURI:  appConfig.GoogleRedirectURI,
	})
	if err != nil {
		return err
	}

	googleVerifier, err := auth.NewGoogleVerifier(auth.GoogleVerifierConfig{
		Audience: appConfig.GoogleClientID,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	tokenIssuer, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(appConfig.SessionSigningSecret),
		TokenTTL:      appConfig.TokenTTL,
	})
	if err != nil {
		return err
	}

	geocoder, err := geocode.NewClient(geocode.ClientConfig{
		APIKey: appConfig.GeocodingAPIKey,
	})
	if err != nil {
		return err
	}

	uploader, err := images.NewClient(images.ClientConfig{
		CloudName: appConfig.CloudinaryCloudName,
		APIKey:    appConfig.CloudinaryAPIKey,
		APISecret: appConfig.CloudinaryAPISecret,
	})
	if err != nil {
		return err
	}

	markerService, err := markers.NewService(markers.ServiceConfig{
		Markers:    storage.NewMarkerStore(db),
		Visits:     storage.NewVisitStore(db),
		LoginLog:   storage.NewLoginLogStore(db),
		Geocoder:   geocoder,
		Uploader:   uploader,
		IDProvider: markers.NewUUIDProvider(),
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		GoogleProvider: googleProvider,
		Verifier:       googleVerifier,
		Tokens:         tokenIssuer,
		MarkerService:  markerService,
		FrontendURL:    appConfig.FrontendRedirectURL,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
