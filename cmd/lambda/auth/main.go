// Command auth serves the auth function: sign-in and sign-up through the hosted auth provider.
package main

import (
	"tasks-edge-api/internal/handlers"
	"tasks-edge-api/pkg/lambda"

	awslambda "github.com/aws/aws-lambda-go/lambda"
)

func main() {
	cm := lambda.GetConnectionManager()
	fn := handlers.Lazy(cm.Services, (*handlers.Handlers).AuthFunction)
	awslambda.Start(lambda.Start(fn))
}
