// Package di provides dependency injection container for managing service lifecycle and dependencies.
package di

import (
	"context"
	"database/sql"
	"sync"

	"tutoria/internal/config"
	"tutoria/internal/database"
	"tutoria/internal/observability"
	"tutoria/internal/services"
	contextutils "tutoria/internal/utils"
)

// ServiceContainerInterface defines the interface for service containers
type ServiceContainerInterface interface {
	GetService(name string) (interface{}, error)
	GetUserService() (services.UserServiceInterface, error)
	GetGenerationService() (services.GenerationServiceInterface, error)
	GetQuizService() (services.QuizServiceInterface, error)
	GetCardService() (services.CardServiceInterface, error)
	GetGamesService() (services.GamesServiceInterface, error)
	GetConversationService() (services.ConversationServiceInterface, error)
	GetClassService() (services.ClassServiceInterface, error)
	GetDocumentService() (services.DocumentServiceInterface, error)
	GetActivityService() (services.ActivityServiceInterface, error)
	GetDatabase() *sql.DB
	GetConfig() *config.Config
	GetLogger() *observability.Logger
	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// ServiceContainer manages all service dependencies and lifecycle
type ServiceContainer struct {
	cfg           *config.Config
	logger        *observability.Logger
	dbManager     *database.Manager
	db            *sql.DB
	services      map[string]interface{}
	mu            sync.RWMutex
	shutdownFuncs []func(context.Context) error
}

// NewServiceContainer creates a new dependency injection container
func NewServiceContainer(cfg *config.Config, logger *observability.Logger) *ServiceContainer {
	return &ServiceContainer{
		cfg:      cfg,
		logger:   logger,
		services: make(map[string]interface{}),
	}
}

// Initialize sets up all services and their dependencies
func (sc *ServiceContainer) Initialize(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.dbManager = database.NewManager(sc.logger)
	db, err := sc.dbManager.InitDBWithConfig(sc.cfg.Database)
	if err != nil {
		return contextutils.WrapErrorf(err, "failed to initialize database")
	}
	sc.db = db
	sc.shutdownFuncs = append(sc.shutdownFuncs, func(_ context.Context) error {
		return db.Close()
	})

	if err := sc.initializeServices(ctx); err != nil {
		_ = sc.cleanup(ctx)
		return contextutils.WrapErrorf(err, "failed to initialize services")
	}

	return nil
}

// GetService retrieves a service by name with type assertion
func (sc *ServiceContainer) GetService(name string) (interface{}, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	service, exists := sc.services[name]
	if !exists {
		return nil, contextutils.ErrorWithContextf("service %s not found", name)
	}
	return service, nil
}

// GetServiceAs performs type-safe service retrieval
func GetServiceAs[T any](sc *ServiceContainer, name string) (T, error) {
	var zero T
	service, err := sc.GetService(name)
	if err != nil {
		return zero, err
	}

	typed, ok := service.(T)
	if !ok {
		return zero, contextutils.ErrorWithContextf("service %s is not of expected type %T", name, zero)
	}
	return typed, nil
}

// GetUserService returns the user service
func (sc *ServiceContainer) GetUserService() (services.UserServiceInterface, error) {
	return GetServiceAs[services.UserServiceInterface](sc, "user")
}

// GetGenerationService returns the content generation service
func (sc *ServiceContainer) GetGenerationService() (services.GenerationServiceInterface, error) {
	return GetServiceAs[services.GenerationServiceInterface](sc, "generation")
}

// GetQuizService returns the quiz service
func (sc *ServiceContainer) GetQuizService() (services.QuizServiceInterface, error) {
	return GetServiceAs[services.QuizServiceInterface](sc, "quiz")
}

// GetCardService returns the study card service
func (sc *ServiceContainer) GetCardService() (services.CardServiceInterface, error) {
	return GetServiceAs[services.CardServiceInterface](sc, "card")
}

// GetGamesService returns the games service
func (sc *ServiceContainer) GetGamesService() (services.GamesServiceInterface, error) {
	return GetServiceAs[services.GamesServiceInterface](sc, "games")
}

// GetConversationService returns the tutor conversation service
func (sc *ServiceContainer) GetConversationService() (services.ConversationServiceInterface, error) {
	return GetServiceAs[services.ConversationServiceInterface](sc, "conversation")
}

// GetClassService returns the class service
func (sc *ServiceContainer) GetClassService() (services.ClassServiceInterface, error) {
	return GetServiceAs[services.ClassServiceInterface](sc, "class")
}

// GetDocumentService returns the document service
func (sc *ServiceContainer) GetDocumentService() (services.DocumentServiceInterface, error) {
	return GetServiceAs[services.DocumentServiceInterface](sc, "document")
}

// GetActivityService returns the activity service
func (sc *ServiceContainer) GetActivityService() (services.ActivityServiceInterface, error) {
	return GetServiceAs[services.ActivityServiceInterface](sc, "activity")
}

// GetDatabase returns the database instance
func (sc *ServiceContainer) GetDatabase() *sql.DB {
	return sc.db
}

// GetConfig returns the configuration
func (sc *ServiceContainer) GetConfig() *config.Config {
	return sc.cfg
}

// GetLogger returns the logger
func (sc *ServiceContainer) GetLogger() *observability.Logger {
	return sc.logger
}

// Shutdown gracefully shuts down all services
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	return sc.cleanup(ctx)
}

// cleanup handles shutdown of all services
func (sc *ServiceContainer) cleanup(ctx context.Context) error {
	var errors []error

	for name := range sc.services {
		if lifecycleService, ok := sc.services[name].(interface{ Shutdown(context.Context) error }); ok {
			sc.logger.Info(ctx, "Shutting down service", map[string]interface{}{"service": name})
			if err := lifecycleService.Shutdown(ctx); err != nil {
				sc.logger.Error(ctx, "Failed to shutdown service", err, map[string]interface{}{"service": name})
				errors = append(errors, contextutils.WrapErrorf(err, "service %s shutdown failed", name))
			}
		}
	}

	// Shutdown in reverse order of initialization
	for i := len(sc.shutdownFuncs) - 1; i >= 0; i-- {
		if err := sc.shutdownFuncs[i](ctx); err != nil {
			errors = append(errors, err)
		}
	}

	if len(errors) > 0 {
		return contextutils.ErrorWithContextf("shutdown errors: %v", errors)
	}
	return nil
}

// initializeServices sets up all service dependencies
func (sc *ServiceContainer) initializeServices(_ context.Context) error {
	// Core services that don't depend on other services
	userService := services.NewUserService(sc.db, sc.logger)
	sc.services["user"] = userService

	documentService := services.NewDocumentService(sc.db, sc.logger)
	sc.services["document"] = documentService

	classService := services.NewClassService(sc.db, sc.logger)
	sc.services["class"] = classService

	sc.services["activity"] = services.NewActivityService(sc.db, sc.logger)

	// Generation pipeline: HTTP completion client feeding the parser/validator
	completionClient := services.NewOpenAIClient(&sc.cfg.AI, sc.logger)
	generationService, err := services.NewGenerationService(completionClient, sc.logger)
	if err != nil {
		return contextutils.WrapErrorf(err, "failed to build generation service")
	}
	sc.services["generation"] = generationService

	// Content services all share the generation pipeline
	sc.services["quiz"] = services.NewQuizService(sc.db, generationService, sc.logger)
	sc.services["card"] = services.NewCardService(sc.db, generationService, sc.logger)
	sc.services["games"] = services.NewGamesService(sc.db, generationService, sc.logger)
	sc.services["conversation"] = services.NewConversationService(sc.db, generationService, userService, sc.logger)

	return nil
}
