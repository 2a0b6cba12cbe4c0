package handlers

// @title Tasks Edge API
// @version 1.0
// @description Edge functions for a to-do client: task CRUD on a hosted store, sign-in and sign-up, push notification relay and image upload relay

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8081
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @tag.name tasks
// @tag.description Task operations scoped to the caller's token

// @tag.name auth
// @tag.description Sign-in and sign-up through the hosted auth provider

// @tag.name push
// @tag.description Push notification relay

// @tag.name upload
// @tag.description Image relay to the chat file host
