package main

//go:generate swag init -g cmd/server/main.go -o docs

// @title           Shopify Notion Sync API
// @version         0.1.0
// @description     Incremental Shopify order sync into a Notion database.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
