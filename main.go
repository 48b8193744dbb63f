package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"babel.town/relay"
	"babel.town/setup"
	"babel.town/www"
	"babel.town/youdao"
)

var logger *log.Logger

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(setupCmd)

	rootCmd.PersistentFlags().String("app-key", "", "Youdao app key")
	rootCmd.PersistentFlags().String("app-secret", "", "Youdao app secret")
	serveCmd.Flags().IntP("port", "p", 8000, "Port to run the HTTP server on")
	serveCmd.Flags().
		String("from", relay.DefaultFrom, "Default source language")
	serveCmd.Flags().
		String("to", relay.DefaultTo, "Default target language")

	viper.BindPFlag(
		"app_key",
		rootCmd.PersistentFlags().Lookup("app-key"),
	)
	viper.BindPFlag(
		"app_secret",
		rootCmd.PersistentFlags().Lookup("app-secret"),
	)
	viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("from", serveCmd.Flags().Lookup("from"))
	viper.BindPFlag("to", serveCmd.Flags().Lookup("to"))
}

func initConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("youdao")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Debug("no config file", "error", err)
	}

	logger = log.New(os.Stdout)
}

var rootCmd = &cobra.Command{
	Use:   "babel",
	Short: "Babel relays live audio to the Youdao speech-translation service",
	Long:  `Babel is a web service that bridges browser microphone audio to the Youdao streaming speech-translation API and pushes translated results back in real time.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the relay server",
	Run:   runServe,
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactively configure credentials",
	Run: func(cmd *cobra.Command, args []string) {
		setup.RunSetup()
	},
}

func runServe(cmd *cobra.Command, args []string) {
	mainLogger, httpLogger, relayLogger := createLoggers()

	appKey := viper.GetString("app_key")
	appSecret := viper.GetString("app_secret")
	if appKey == "" {
		mainLogger.Fatal("missing YOUDAO_APP_KEY or --app-key=")
	}
	if appSecret == "" {
		mainLogger.Fatal("missing YOUDAO_APP_SECRET or --app-secret=")
	}

	cfg := relay.Config{
		Credentials: youdao.Credentials{
			AppKey:    appKey,
			AppSecret: appSecret,
		},
		DefaultFrom: viper.GetString("from"),
		DefaultTo:   viper.GetString("to"),
	}
	handler := relay.NewHandler(cfg, relayLogger)

	port := viper.GetInt("port")
	if err := www.Serve(port, handler, httpLogger); err != nil {
		mainLogger.Fatal("start HTTP server", "error", err.Error())
	}
}

func createLoggers() (mainLogger, httpLogger, relayLogger *log.Logger) {
	logger.SetLevel(log.DebugLevel)

	styles := log.DefaultStyles()
	styles.Prefix = styles.Prefix.Bold(false).
		Transform(func(s string) string {
			return strings.TrimSuffix(s, ":")
		})
	styles.Levels[log.InfoLevel] = styles.Levels[log.InfoLevel].
		MaxWidth(6).
		MarginRight(1).
		Bold(false)
	styles.Levels[log.ErrorLevel] = styles.Levels[log.ErrorLevel].
		MaxWidth(6).
		MarginRight(1).
		Bold(false)
	styles.Message = styles.Message.Bold(true)
	styles.Key = styles.Key.MarginLeft(1).
		Bold(false).
		Foreground(lipgloss.Color("#ff8800"))

	logger.SetStyles(styles)

	mainLogger = logger.With().WithPrefix("main")
	httpLogger = logger.With().WithPrefix("http")
	relayLogger = logger.With().WithPrefix("talk")

	return
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
