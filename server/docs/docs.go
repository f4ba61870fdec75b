// Package docs registers the swagger specification so the /swagger
// endpoints can serve it.
package docs

import "github.com/swaggo/swag"

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Othello API",
	Description:      "A board game platform API for players, games, moves and rankings",
	InfoInstanceName: "swagger",
}

func init() {
	SwaggerInfo.SwaggerTemplate = string(swaggerJSON)
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
