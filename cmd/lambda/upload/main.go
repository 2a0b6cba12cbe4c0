// Command upload serves the upload function: relays an image to the chat file host.
package main

import (
	"tasks-edge-api/internal/handlers"
	"tasks-edge-api/pkg/lambda"

	awslambda "github.com/aws/aws-lambda-go/lambda"
)

func main() {
	cm := lambda.GetConnectionManager()
	fn := handlers.Lazy(cm.Services, (*handlers.Handlers).UploadFunction)
	awslambda.Start(lambda.Start(fn))
}
