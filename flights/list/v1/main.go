package main

import (
	"context"
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

type Response []ResponseFlight

type ResponseFlight struct {
	FlightID    string   `json:"flight_id"`
	Origin      string   `json:"origin"`
	Destination string   `json:"destination"`
	LatestPrice *float64 `json:"latest_price"`
}

type FlightsRepository interface {
	ListByUserEmail(ctx context.Context, email string) ([]model.FlightRecord, error)
}

var errMissingUserEmail = errors.New("missing_user_email")

func Adapter(flightsRepo FlightsRepository, log logrus.FieldLogger) Handler {
	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		// Get request parameters
		userEmail := req.QueryStringParameters["user_email"]
		if internal.IsBlank(userEmail) {
			return internal.Error(http.StatusBadRequest, errMissingUserEmail), nil
		}

		// Look for flights
		flights, err := flightsRepo.ListByUserEmail(ctx, userEmail)
		if errors.Is(err, repository.ErrNoFlightsFound) {
			return internal.Error(http.StatusNotFound, err), nil
		}
		if err != nil {
			log.WithError(err).Error("unable to list tracked flights")
			return internal.Error(http.StatusInternalServerError, err), nil
		}

		// Prepare response
		response := make(Response, len(flights))
		for i, f := range flights {
			response[i] = ResponseFlight{
				FlightID:    f.FlightID,
				Origin:      f.Origin,
				Destination: f.Destination,
				LatestPrice: f.LatestPrice,
			}
		}

		return internal.JSON(http.StatusOK, response), nil
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
