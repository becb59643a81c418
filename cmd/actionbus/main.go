package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mohitkumar/actionbus/agent"
	"github.com/mohitkumar/actionbus/analytics"
	"github.com/mohitkumar/actionbus/config"
	"github.com/mohitkumar/actionbus/logger"
	"github.com/mohitkumar/actionbus/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type cli struct {
	cfg config.Config
}

func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().String("config-file", "", "Path to config file.")
	cmd.Flags().String("bus-impl", "memory", "implementation of the message bus (memory, redis)")
	cmd.Flags().String("storage-impl", "memory", "implementation of action definition storage (memory, redis)")
	cmd.Flags().String("redis-addr", "localhost:6379", "comma separated list of redis host:port")
	cmd.Flags().String("namespace", "actionbus", "namespace used for redis keys and channels")
	cmd.Flags().Int("http-port", 8080, "http port for rest endpoints")
	cmd.Flags().Int("grpc-port", 8099, "grpc port for the bridge service")
	cmd.Flags().String("encoder-decoder", "JSON", "encoder decoder used on the bus (JSON, CBOR, PROTO)")
	cmd.Flags().Duration("poll-interval", config.DEFAULT_POLL_INTERVAL, "tick interval of action servers")
	cmd.Flags().String("feedback-style", string(model.FEEDBACK_CONTINUOUS), "default feedback style (SINGLE, CONTINUOUS)")
	cmd.Flags().String("dispatch-topic", config.TOPIC_DISPATCH, "topic carrying dispatch requests")
	cmd.Flags().String("feedback-topic", config.TOPIC_FEEDBACK, "topic carrying feedback")
	cmd.Flags().String("log-level", "info", "log level")
	cmd.Flags().String("log-format", "console", "log format (console, json)")
	cmd.Flags().String("analytics-file", "", "file receiving request analytics, disabled when empty")
	return viper.BindPFlags(cmd.Flags())
}

func (c *cli) setupConfig(cmd *cobra.Command, args []string) error {
	configFile, err := cmd.Flags().GetString("config-file")
	if err != nil {
		return err
	}
	c.cfg = config.Default()
	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err = viper.ReadInConfig(); err != nil {
			// it's ok if config file doesn't exist
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return err
			}
		}
		if err := viper.Unmarshal(&c.cfg); err != nil {
			return err
		}
	}

	// flags override the file only when given on the command line
	flags := cmd.Flags()
	if flags.Changed("bus-impl") {
		c.cfg.BusType = config.BusType(viper.GetString("bus-impl"))
	}
	if flags.Changed("storage-impl") {
		c.cfg.StorageType = config.StorageType(viper.GetString("storage-impl"))
	}
	if flags.Changed("redis-addr") {
		c.cfg.RedisConfig.Addrs = strings.Split(viper.GetString("redis-addr"), ",")
	}
	if flags.Changed("namespace") {
		c.cfg.RedisConfig.Namespace = viper.GetString("namespace")
	}
	if flags.Changed("http-port") {
		c.cfg.HttpPort = viper.GetInt("http-port")
	}
	if flags.Changed("grpc-port") {
		c.cfg.GrpcPort = viper.GetInt("grpc-port")
	}
	if flags.Changed("encoder-decoder") {
		c.cfg.EncoderDecoderType = config.EncoderDecoderType(viper.GetString("encoder-decoder"))
	}
	if flags.Changed("poll-interval") {
		c.cfg.PollInterval = viper.GetDuration("poll-interval")
	}
	if flags.Changed("feedback-style") {
		c.cfg.FeedbackStyle = model.FeedbackStyle(viper.GetString("feedback-style"))
	}
	if flags.Changed("dispatch-topic") {
		c.cfg.Topics.Dispatch = viper.GetString("dispatch-topic")
	}
	if flags.Changed("feedback-topic") {
		c.cfg.Topics.Feedback = viper.GetString("feedback-topic")
	}
	if flags.Changed("log-level") {
		c.cfg.Log.Level = viper.GetString("log-level")
	}
	if flags.Changed("log-format") {
		c.cfg.Log.Format = viper.GetString("log-format")
	}
	if file := viper.GetString("analytics-file"); flags.Changed("analytics-file") && file != "" {
		c.cfg.AnalyticsConfig.FileName = file
		c.cfg.AnalyticsConfig.CollectorType = analytics.LOG_FILE_DATA_COLLECTOR
	}
	return logger.Init(c.cfg.Log)
}

func (c *cli) run(cmd *cobra.Command, args []string) error {
	defer logger.Sync()
	a, err := agent.New(c.cfg)
	if err != nil {
		logger.Error("error creating agent", zap.Error(err))
		return err
	}
	if err = a.Start(); err != nil {
		_ = a.Shutdown()
		return err
	}
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
	case <-a.Done():
	}
	return a.Shutdown()
}

func newCommand(cli *cli) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:     "actionbus",
		Short:   "hosts action servers on a shared dispatch/feedback bus",
		PreRunE: cli.setupConfig,
		RunE:    cli.run,
	}
	if err := setupFlags(cmd); err != nil {
		return nil, err
	}
	return cmd, nil
}

func main() {
	cmd, err := newCommand(&cli{})
	if err != nil {
		log.Fatal(err)
	}

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
