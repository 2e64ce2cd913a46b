package server

//go:generate swag init -g internal/server/server.go -o internal/docs

// @title TriMetric API
// @version 1.0
// @description Trust-score evaluation of prop-trading firms: fetch a firm's score document, update one factor at a time, and read derived totals.
// @contact.name TriMetric Maintainers
// @contact.url https://github.com/raysh454/trimetric
// @BasePath /
