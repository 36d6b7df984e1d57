package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/appforge/canvasflow/agent"
	"github.com/appforge/canvasflow/config"
	"github.com/appforge/canvasflow/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type cfg struct {
	config.Config
}
type cli struct {
	cfg cfg
}

func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().String("config-file", "", "Path to config file.")
	cmd.Flags().Int("http-port", 8080, "http port for the event surface")
	cmd.Flags().String("app-id", "", "application id of the canvas document")
	cmd.Flags().String("backend-url", "http://localhost:9000", "workflow backend base url")
	cmd.Flags().String("executor-url", "http://localhost:9100", "step executor base url")
	cmd.Flags().String("media-url", "http://localhost:9200", "media upload base url")
	cmd.Flags().String("storage-impl", "memory", "workflow store implementation (redis|memory)")
	cmd.Flags().String("redis-addr", "localhost:6379", "comma separated list of redis host:port")
	cmd.Flags().String("namespace", "canvasflow", "namespace used in redis storage")
	cmd.Flags().Int("worker-count", 8, "execution worker count")
	cmd.Flags().Int("executor-capacity", 512, "execution queue capacity")
	cmd.Flags().Int("session-ttl-min", 60, "idle session expiry in minutes")
	cmd.Flags().String("start-page", "page-1", "page id every session starts on")
	cmd.Flags().String("pages", "", "comma separated list of known page ids")
	cmd.Flags().Bool("debug", false, "enable debug logging")
	return viper.BindPFlags(cmd.Flags())
}

func (c *cli) setupConfig(cmd *cobra.Command, args []string) error {
	configFile, err := cmd.Flags().GetString("config-file")
	if err != nil {
		return err
	}
	viper.SetConfigFile(configFile)

	if err = viper.ReadInConfig(); err != nil {
		// it's ok if config file doesn't exist
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	c.cfg.HttpPort = viper.GetInt("http-port")
	c.cfg.AppId = viper.GetString("app-id")
	c.cfg.BackendUrl = viper.GetString("backend-url")
	c.cfg.ExecutorUrl = viper.GetString("executor-url")
	c.cfg.MediaUrl = viper.GetString("media-url")
	c.cfg.StorageType = config.StorageType(viper.GetString("storage-impl"))
	c.cfg.RedisConfig.Addrs = strings.Split(viper.GetString("redis-addr"), ",")
	c.cfg.RedisConfig.Namespace = viper.GetString("namespace")
	c.cfg.WorkerCount = viper.GetInt("worker-count")
	c.cfg.ExecutorCapacity = viper.GetInt("executor-capacity")
	c.cfg.SessionTTLMin = viper.GetInt("session-ttl-min")
	c.cfg.StartPage = viper.GetString("start-page")
	if pages := viper.GetString("pages"); pages != "" {
		c.cfg.Pages = strings.Split(pages, ",")
	}
	c.cfg.Debug = viper.GetBool("debug")
	return nil
}

func (c *cli) run(cmd *cobra.Command, args []string) error {
	logger.Configure(c.cfg.Debug)
	agent, err := agent.New(c.cfg.Config)
	if err != nil {
		panic(err)
	}
	err = agent.Start()
	if err != nil {
		panic(err)
	}
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	return agent.Shutdown()
}

func main() {
	cli := &cli{}

	cmd := &cobra.Command{
		Use:     "canvasflow",
		PreRunE: cli.setupConfig,
		RunE:    cli.run,
	}

	if err := setupFlags(cmd); err != nil {
		log.Fatal(err)
	}

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
