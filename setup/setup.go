package setup

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

// RunSetup interactively collects the Youdao credentials and default
// language pair and saves them to the config file.
func RunSetup() {
	log.Info("Starting Babel setup...")

	appKey := viper.GetString("app_key")
	appSecret := viper.GetString("app_secret")
	from := viper.GetString("from")
	to := viper.GetString("to")

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Enter your Youdao App Key").
				Value(&appKey),
			huh.NewInput().
				Title("Enter your Youdao App Secret").
				Value(&appSecret),
			huh.NewInput().
				Title("Default source language (e.g. zh-CHS)").
				Value(&from),
			huh.NewInput().
				Title("Default target language (e.g. en-US)").
				Value(&to),
		),
	)

	if err := form.Run(); err != nil {
		log.Fatal("Error during setup", "error", err)
	}

	viper.Set("app_key", appKey)
	viper.Set("app_secret", appSecret)
	viper.Set("from", from)
	viper.Set("to", to)

	if err := viper.WriteConfig(); err != nil {
		// No config file yet on a first run.
		if err := viper.SafeWriteConfig(); err != nil {
			log.Fatal("Error saving configuration", "error", err)
		}
	}

	log.Info("Setup completed successfully!")
}
