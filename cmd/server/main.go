package main

import (
	"context"
	"fmt"
	"os"

	"github.com/yungbote/motionlib-backend/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Run(context.Background()); err != nil {
		a.Log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
