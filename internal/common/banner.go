package common

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the service startup banner and logs the equivalent
// structured event through arbor.
func PrintBanner(config *Config, logger arbor.ILogger) {
	version := GetVersion()
	serviceURL := fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)

	b := banner.New().
		SetStyle(banner.StyleDouble).
		SetBorderColor(banner.ColorGreen).
		SetTextColor(banner.ColorWhite).
		SetBold(true).
		SetWidth(80)

	fmt.Printf("\n")
	b.PrintTopLine()
	b.PrintCenteredText("BIOSTUDIES INDEX")
	b.PrintCenteredText("Submission Indexing & Search Core")
	b.PrintSeparatorLine()
	b.PrintKeyValue("Version", version, 15)
	b.PrintKeyValue("Environment", config.Environment, 15)
	b.PrintKeyValue("Service URL", serviceURL, 15)
	b.PrintKeyValue("Index dir", config.Index.BaseDir, 15)
	b.PrintKeyValue("Registry", config.Collection.Registry.Location, 15)
	b.PrintBottomLine()
	fmt.Printf("\n")

	logger.Info().
		Str("version", version).
		Str("environment", config.Environment).
		Str("service_url", serviceURL).
		Str("index_base_dir", config.Index.BaseDir).
		Int("indexer_threads", config.Indexer.ThreadCount).
		Bool("stomp_enabled", config.Messaging.Stomp.Enabled).
		Msg("service started")
}

// PrintShutdownBanner displays the shutdown banner.
func PrintShutdownBanner(logger arbor.ILogger) {
	b := banner.New().
		SetStyle(banner.StyleDouble).
		SetBorderColor(banner.ColorGreen).
		SetTextColor(banner.ColorWhite).
		SetBold(true).
		SetWidth(42)

	b.PrintTopLine()
	b.PrintCenteredText("SHUTTING DOWN")
	b.PrintBottomLine()
	fmt.Println()

	logger.Info().Msg("service shutting down")
}
