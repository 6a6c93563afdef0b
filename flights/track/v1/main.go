package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/nategamble/flight_price_checker/flights/internal/model"
	"github.com/nategamble/flight_price_checker/flights/internal/repository"
	"github.com/nategamble/flight_price_checker/internal"
	"github.com/sirupsen/logrus"
)

type Handler func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

type FlightsRepository interface {
	Track(ctx context.Context, f model.FlightRecord) (model.FlightRecord, error)
}

type Request struct {
	FlightID    string   `json:"flight_id"`
	Origin      string   `json:"origin"`
	Destination string   `json:"destination"`
	UserEmail   string   `json:"user_email"`
	LatestPrice *float64 `json:"latest_price"`
}

const requestSchema = `{
	"type": "object",
	"required": ["flight_id", "origin", "destination", "user_email"],
	"properties": {
		"flight_id": {"type": "string", "minLength": 1, "pattern": "\\S"},
		"origin": {"type": "string", "minLength": 1, "pattern": "\\S"},
		"destination": {"type": "string", "minLength": 1, "pattern": "\\S"},
		"user_email": {"type": "string", "format": "email"},
		"latest_price": {"type": ["number", "null"], "minimum": 0, "maximum": 1000000000}
	}
}`

func Adapter(flightsRepo FlightsRepository, log logrus.FieldLogger) Handler {
	validator := internal.MustSchemaValidator(requestSchema)

	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		request := Request{}
		err := json.Unmarshal([]byte(req.Body), &request)
		if err != nil {
			return internal.Error(http.StatusBadRequest, err), nil
		}

		schemaErrors, err := validator.Validate(req.Body)
		if err != nil {
			return internal.Error(http.StatusBadRequest, err), nil
		}
		if len(schemaErrors) > 0 {
			return internal.SchemaErrors(http.StatusBadRequest, schemaErrors), nil
		}

		flightLog := log.WithField("flight_id", request.FlightID)

		flight, err := flightsRepo.Track(ctx, model.FlightRecord{
			FlightID:    request.FlightID,
			Origin:      request.Origin,
			Destination: request.Destination,
			LatestPrice: request.LatestPrice,
			UserEmail:   request.UserEmail,
		})
		if errors.Is(err, repository.ErrFlightAlreadyTracked) {
			return internal.Error(http.StatusConflict, err), nil
		}
		if err != nil {
			flightLog.WithError(err).Error("unable to track flight")
			return internal.Error(http.StatusInternalServerError, err), nil
		}

		flightLog.Info("flight tracked")
		return internal.JSON(http.StatusCreated, flight), nil
	}
}

func main() {
	log := internal.NewLogger(internal.EnvOr("LOG_LEVEL", "info"))
	flightsTable := internal.EnvOr("DYNAMODB_FLIGHT_TRACKING", repository.TableName)
	sess := session.Must(session.NewSession())
	dynamodbClient := internal.NewDynamodbClient(sess, os.Getenv("DYNAMODB_ENDPOINT"))
	flightsRepo := repository.NewFlightsRepository(dynamodbClient, flightsTable)
	lambda.Start(Adapter(flightsRepo, log))
}
