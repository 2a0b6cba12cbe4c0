// Command push serves the push function: relays a message to the messaging gateway.
package main

import (
	"tasks-edge-api/internal/handlers"
	"tasks-edge-api/pkg/lambda"

	awslambda "github.com/aws/aws-lambda-go/lambda"
)

func main() {
	cm := lambda.GetConnectionManager()
	fn := handlers.Lazy(cm.Services, (*handlers.Handlers).PushFunction)
	awslambda.Start(lambda.Start(fn))
}
