package main

//go:generate swag init -d ../.. -g cmd/api/main.go -o ../../docs --parseInternal

// @title           Shop Credits API
// @version         1.0
// @description     Shopify subscription reconciliation, credit balances and discount codes.

// @host      localhost:8888
// @BasePath  /

// @securityDefinitions.apikey  SessionToken
// @in                          header
// @name                        Authorization
// @description                 "Bearer <App Bridge session token>"

// @securityDefinitions.apikey  AdminToken
// @in                          header
// @name                        X-Admin-Token

import (
	"context"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/shopcredits/internal/app"
)

func main() {
	// SIGINT/SIGTERM are handled by fx
	exitCode := 0
	defer func() { os.Exit(exitCode) }()

	a := fx.New(app.Module)
	startCtx, cancel := context.WithTimeout(context.Background(), app.DefaultStartTimeout)
	defer cancel()
	if err := a.Start(startCtx); err != nil {
		// logger may not be built yet
		zap.NewExample().Sugar().Errorf("failed to start app: %v", err)
		exitCode = 1
		return
	}

	<-a.Done()

	stopCtx, cancel2 := context.WithTimeout(context.Background(), app.DefaultStopTimeout)
	defer cancel2()
	if err := a.Stop(stopCtx); err != nil {
		zap.NewExample().Sugar().Errorf("failed to stop app: %v", err)
		exitCode = 1
		return
	}
}
