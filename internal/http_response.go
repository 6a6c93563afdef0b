package internal

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/xeipuuv/gojsonschema"
)

func Respond(statusCode int, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: body,
	}
}

// JSON marshals v as the response body.
func JSON(statusCode int, v interface{}) events.APIGatewayProxyResponse {
	body, err := json.Marshal(v)
	if err != nil {
		return Error(http.StatusInternalServerError, err)
	}
	return Respond(statusCode, string(body))
}

func Error(statusCode int, err error) events.APIGatewayProxyResponse {
	return Errors(statusCode, []string{err.Error()})
}

func Errors(statusCode int, errs []string) events.APIGatewayProxyResponse {
	responseBytes, _ := json.Marshal(map[string]interface{}{
		"errors": errs,
	})

	return Respond(statusCode, string(responseBytes))
}

func SchemaErrors(statusCode int, schemaErrors []gojsonschema.ResultError) events.APIGatewayProxyResponse {
	errs := make([]string, len(schemaErrors))
	for i, e := range schemaErrors {
		errs[i] = fmt.Sprintf("%v", e)
	}
	return Errors(statusCode, errs)
}
