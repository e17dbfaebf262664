//go:build !lambda

// Command lambda serves the optimizer as an AWS Lambda function URL.
// Build with -tags lambda.
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "The function build requires the lambda build tag.")
	fmt.Fprintln(os.Stderr, "Build with `GOOS=linux go build -tags lambda -o bootstrap ./cmd/lambda`.")
	os.Exit(2)
}
