// Command tasks serves the tasks function: task CRUD for the caller named by the bearer token.
package main

import (
	"tasks-edge-api/internal/handlers"
	"tasks-edge-api/pkg/lambda"

	awslambda "github.com/aws/aws-lambda-go/lambda"
)

func main() {
	cm := lambda.GetConnectionManager()
	fn := handlers.Lazy(cm.Services, (*handlers.Handlers).TasksFunction)
	awslambda.Start(lambda.Start(fn))
}
