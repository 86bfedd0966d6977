package main

import (
	_ "github.com/joho/godotenv/autoload" // Autoload .env file.

	"github.com/vietanh2810/encore-api/cmd/app"
)

// @title        encore-api
// @version      1.0
// @description  Backend for the concert companion: check-in, sessions, guestbook, chat and party games.
// @BasePath     /api/v1
//
// @contact.name  encore-api maintainers
// @contact.url   https://github.com/vietanh2810/encore-api
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer session token issued by POST /session/attendee or /session/admin
func main() {
	if err := app.Start(); err != nil {
		panic(err)
	}
}
