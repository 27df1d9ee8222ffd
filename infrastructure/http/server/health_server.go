package server

import "github.com/gofiber/fiber/v2"

type HealthServer struct {
	reporter HealthReporter
}

func NewHealthServer(reporter HealthReporter) *HealthServer {
	return &HealthServer{reporter: reporter}
}

func (s *HealthServer) Health(c *fiber.Ctx) error {
	report := s.reporter.Report(c.UserContext())
	if !report.Healthy() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(report)
	}
	return c.JSON(report)
}
