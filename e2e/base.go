// Package e2e drives a running timeline server through its public API.
package e2e

import (
	"context"
	"fmt"
	"time"
	"timeline/client"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
)

type BaseSuite struct {
	suite.Suite
	Config Config
	Client *client.Client
}

// SetupSuite skips the whole suite unless a server address is configured.
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.BaseURL == "" {
		s.T().Skip("TIMELINE_BASE_URL is not set")
	}
	s.Client = client.New(s.Config.BaseURL)
}

// Step runs fn under a labelled header with its own timeout.
func (s *BaseSuite) Step(name string, fn func(ctx context.Context)) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	start := time.Now()
	fn(ctx)
	s.T().Logf("%s done in %v", name, time.Since(start))
}
