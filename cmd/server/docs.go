package main

//go:generate swag init -g cmd/server/main.go -o docs

// @title           Kalshi News API
// @version         0.1.0
// @description     Prediction market ingestion, heat ranking, and news relevance matching.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
