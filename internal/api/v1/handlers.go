package apiv1

import (
	"github.com/gofiber/fiber/v2"

	// Delegate to existing controllers to keep behavior consistent
	"github.com/wizerunkowo/wizerunkowo/app/controllers"
	"github.com/wizerunkowo/wizerunkowo/internal/pkg/middleware"
)

// Pong is the health check response body.
type Pong struct {
	Ping string `json:"ping"`
}

// APIServer holds the public v1 handlers
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// RegisterHandlers attaches all v1 routes to the given router group.
func RegisterHandlers(router fiber.Router, s *APIServer) {
	router.Get("/ping", s.GetPing)

	// Account lifecycle (no API key yet)
	router.Post("/auth/register", s.PostRegister)
	router.Post("/auth/login", s.PostLogin)

	// Billing surface; the webhook authenticates via its signature
	router.Get("/pricing", s.GetPricing)
	router.Post("/billing/webhook", s.PostBillingWebhook)

	// Everything below requires an API key
	protected := router.Group("", middleware.APIKeyAuthMiddleware())
	protected.Post("/generations", s.PostGeneration)
	protected.Post("/generations/async", s.PostGenerationAsync)
	protected.Get("/generations", s.GetGenerations)
	protected.Get("/generations/:uuid", s.GetGeneration)
	protected.Get("/account/limits", s.GetAccountLimits)
	protected.Get("/account/usage", s.GetAccountUsage)
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// PostRegister creates an account and returns its API key.
func (s *APIServer) PostRegister(c *fiber.Ctx) error {
	return controllers.HandleRegister(c)
}

// PostLogin verifies credentials and rotates the API key.
func (s *APIServer) PostLogin(c *fiber.Ctx) error {
	return controllers.HandleLogin(c)
}

// PostGeneration runs a generation synchronously and returns the outcome.
func (s *APIServer) PostGeneration(c *fiber.Ctx) error {
	return controllers.HandleCreateGeneration(c)
}

// PostGenerationAsync queues a generation and returns its UUID for polling.
func (s *APIServer) PostGenerationAsync(c *fiber.Ctx) error {
	return controllers.HandleCreateGenerationAsync(c)
}

// GetGenerations lists the caller's generations.
func (s *APIServer) GetGenerations(c *fiber.Ctx) error {
	return controllers.HandleListGenerations(c)
}

// GetGeneration returns the state of one generation by UUID.
func (s *APIServer) GetGeneration(c *fiber.Ctx) error {
	return controllers.HandleGetGeneration(c)
}

// GetAccountLimits returns credit balance and daily allowance.
func (s *APIServer) GetAccountLimits(c *fiber.Ctx) error {
	return controllers.HandleGetAccountLimits(c)
}

// GetAccountUsage returns the caller's usage log.
func (s *APIServer) GetAccountUsage(c *fiber.Ctx) error {
	return controllers.HandleGetUsage(c)
}

// GetPricing returns the purchasable plan catalog.
func (s *APIServer) GetPricing(c *fiber.Ctx) error {
	return controllers.HandleGetPricing(c)
}

// PostBillingWebhook ingests billing provider events.
func (s *APIServer) PostBillingWebhook(c *fiber.Ctx) error {
	return controllers.HandleBillingWebhook(c)
}
