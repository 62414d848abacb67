package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/frankkinuthian/lms-v3/application/catalog"
	"github.com/frankkinuthian/lms-v3/domain/model"
	"github.com/frankkinuthian/lms-v3/interfaces/http/rest/handlers"
	"github.com/frankkinuthian/lms-v3/interfaces/http/rest/middleware"
	"github.com/frankkinuthian/lms-v3/pkg/auth"
	"github.com/frankkinuthian/lms-v3/pkg/observability"
)

// Router creates and configures the HTTP router
type Router struct {
	service   *catalog.Service
	validator *auth.JWTValidator
	tracer    *observability.Tracer
	logger    *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(service *catalog.Service, validator *auth.JWTValidator, tracer *observability.Tracer, logger *zap.Logger) *Router {
	return &Router{
		service:   service,
		validator: validator,
		tracer:    tracer,
		logger:    logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	router.Use(middleware.Tracing(rt.tracer))

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "https://*.lms-platform.dev"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	userHandler := handlers.NewUserHandler(rt.service, rt.logger)
	courseHandler := handlers.NewCourseHandler(rt.service, rt.logger)
	enrollmentHandler := handlers.NewEnrollmentHandler(rt.service, rt.logger)
	categoryHandler := handlers.NewCategoryHandler(rt.service, rt.logger)

	instructorOnly := middleware.RequireRole(string(model.RoleInstructor), string(model.RoleAdmin))
	adminOnly := middleware.RequireRole(string(model.RoleAdmin))

	router.Route("/api/v1", func(r chi.Router) {
		// Registration is the only unauthenticated write
		r.Post("/users", userHandler.RegisterUser)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(rt.validator, rt.logger))

			r.Route("/users", func(r chi.Router) {
				r.Get("/me", userHandler.GetCurrentUser)
				r.Get("/{userID}", userHandler.GetUser)
				r.With(adminOnly).Delete("/{userID}", userHandler.DeactivateUser)
				r.Get("/{userID}/enrollments", userHandler.ListEnrollments)
				r.Get("/{userID}/transactions", userHandler.ListTransactions)
			})

			r.Route("/courses", func(r chi.Router) {
				r.With(instructorOnly).Post("/", courseHandler.CreateCourse)
				r.Get("/{courseID}", courseHandler.GetCourse)
				r.With(instructorOnly).Post("/{courseID}/publish", courseHandler.PublishCourse)
				r.With(instructorOnly).Delete("/{courseID}", courseHandler.DeleteCourse)
				r.With(instructorOnly).Post("/{courseID}/lessons", courseHandler.AddLesson)
				r.Get("/{courseID}/lessons", courseHandler.ListLessons)
				r.Post("/{courseID}/enroll", enrollmentHandler.Enroll)
			})

			r.Route("/lessons", func(r chi.Router) {
				r.Get("/{lessonID}", courseHandler.GetLesson)
				r.Post("/{lessonID}/progress", enrollmentHandler.RecordProgress)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Post("/", enrollmentHandler.BeginCheckout)
				r.Post("/{transactionID}/complete", enrollmentHandler.CompleteCheckout)
				r.Post("/{transactionID}/fail", enrollmentHandler.FailCheckout)
			})

			r.Route("/categories", func(r chi.Router) {
				r.With(adminOnly).Post("/", categoryHandler.CreateCategory)
				r.Get("/{categoryID}", categoryHandler.GetCategory)
				r.With(adminOnly).Put("/{categoryID}/parent", categoryHandler.ReparentCategory)
				r.Get("/{categoryID}/subcategories", categoryHandler.ListSubcategories)
				r.Get("/{categoryID}/courses", categoryHandler.ListCourses)
				r.With(adminOnly).Delete("/{categoryID}", categoryHandler.DeleteCategory)
			})
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
