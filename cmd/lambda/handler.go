package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/tidwall/gjson"

	"mana-ca/internal/bees"
	"mana-ca/internal/config"
	"mana-ca/internal/report"
	"mana-ca/internal/sims/dandelifeon"
)

// maxTimeBudget keeps a search inside the function timeout.
const maxTimeBudget = 60 * time.Second

var jsonHeader = map[string]string{
	"Content-Type": "application/json",
}

// The request body is a settings document with two optional extra keys:
// "warm", a list of boards, and "reference", which adds the reference layout.
func handler(ctx context.Context, event events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	body := event.Body
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return errResp(400, "invalid base64 body")
		}
		body = string(decoded)
	}
	if body == "" {
		body = "{}"
	}

	settings, err := config.Parse([]byte(body))
	if err != nil {
		return errResp(400, err.Error())
	}
	if b := settings.Optimizer.TimeBudget; b <= 0 || b > maxTimeBudget {
		settings.Optimizer.TimeBudget = maxTimeBudget
	}

	var warm []*dandelifeon.Board
	if gjson.Get(body, "reference").Bool() {
		warm = append(warm, dandelifeon.ReferenceLayout())
	}
	for _, raw := range gjson.Get(body, "warm").Array() {
		b, err := config.ParseBoard(raw, settings.Engine.Options()...)
		if err != nil {
			return errResp(400, "warm board: "+err.Error())
		}
		warm = append(warm, b)
	}

	opt, policy, err := settings.NewOptimizer(bees.WithWarmStart(warm...))
	if err != nil {
		return errResp(400, err.Error())
	}
	res, err := opt.Run(ctx)
	if err != nil && !bees.IsStop(err) {
		return errResp(500, err.Error())
	}

	var buf bytes.Buffer
	if err := report.New(res, policy.Name(), false).Write(&buf); err != nil {
		return errResp(500, err.Error())
	}
	return events.LambdaFunctionURLResponse{StatusCode: 200, Headers: jsonHeader, Body: buf.String()}, nil
}

func errResp(code int, msg string) (events.LambdaFunctionURLResponse, error) {
	body, _ := json.Marshal(map[string]string{"error": msg})
	return events.LambdaFunctionURLResponse{StatusCode: code, Headers: jsonHeader, Body: string(body)}, nil
}
