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

type FlightsRepository interface {
	Find(ctx context.Context, flightID string) (model.FlightRecord, error)
}

func Adapter(flightsRepo FlightsRepository, log logrus.FieldLogger) Handler {
	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		flightID := req.PathParameters["flight_id"]
		if internal.IsBlank(flightID) {
			return internal.Error(http.StatusBadRequest, repository.ErrMissingFlightID), nil
		}

		flight, err := flightsRepo.Find(ctx, flightID)
		if errors.Is(err, repository.ErrFlightNotFound) {
			return internal.Error(http.StatusNotFound, err), nil
		}
		if err != nil {
			log.WithField("flight_id", flightID).WithError(err).Error("unable to find flight")
			return internal.Error(http.StatusInternalServerError, err), nil
		}

		return internal.JSON(http.StatusOK, flight), nil
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
