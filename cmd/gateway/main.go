package main

import (
	"context"
	"flag"
	"os"

	"github.com/aws-samples/aws-lambda-web-gateway/internal/auth"
	"github.com/aws-samples/aws-lambda-web-gateway/internal/config"
	"github.com/aws-samples/aws-lambda-web-gateway/internal/gateway"
	"github.com/aws-samples/aws-lambda-web-gateway/internal/httpserver"
	"github.com/aws-samples/aws-lambda-web-gateway/internal/lambdaclient"
	"github.com/aws-samples/aws-lambda-web-gateway/internal/logger"
)

func main() {
	pid := os.Getpid()
	logger.Info("aws-lambda-web-gateway, PID: %d", pid)

	configPath := flag.String("config", "", "path to the gateway's YAML config file (defaults to $GATEWAY_CONFIG_FILE or gateway.yaml)")
	flag.Parse()

	configFile := *configPath
	if configFile == "" {
		configFile = config.EnvOrDefault(config.EnvConfigFile, config.DefaultConfigFile)
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		logger.Fatal("failed to load configuration: %v", err)
	}
	logger.Info("loaded config: function=%s invokeMode=%s authMode=%s addr=%s",
		cfg.LambdaFunctionName, cfg.LambdaInvokeMode, cfg.AuthMode, cfg.Addr)

	client, err := lambdaclient.New(context.Background())
	if err != nil {
		logger.Fatal("failed to initialize Lambda client: %v", err)
	}

	gate := auth.NewGate(cfg)
	handler := gateway.New(cfg, gate, client)
	router := gateway.NewRouter(handler)

	httpserver.New(cfg.Addr, router).Run()
}
