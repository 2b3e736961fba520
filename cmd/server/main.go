package main

import (
	"fmt"
	"os"

	"github.com/agritrace/agritrace-backend/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	a.Log.Info("Server listening", "addr", a.Cfg.HTTPAddr)
	if err := a.Run(""); err != nil {
		a.Log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
