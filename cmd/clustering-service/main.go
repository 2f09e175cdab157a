package main

import (
	"clustering-service/cmd/cmd"
	"clustering-service/internal/logger"
)

func main() {
	logger.Init() // Initialize the logger
	cmd.Execute()
}
