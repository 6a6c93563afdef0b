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
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/nategamble/flight_price_checker/flights/internal/repository"
	"github.com/nategamble/flight_price_checker/internal"
	"github.com/sirupsen/logrus"
)

// Handler stores a price observed by the price checker. Prices that differ from
// the last announced one are published on the price updates queue; a failed
// publish answers 500 and is published again when the price is sent again.
type Handler func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

type FlightsRepository interface {
	UpdateLatestPrice(ctx context.Context, flightID string, price float64) (repository.PriceUpdate, error)
	MarkPublished(ctx context.Context, flightID string, price float64) error
}

type Enqueuer interface {
	SendMsg(ctx context.Context, msg interface{}, queue string) error
}

type Request struct {
	Price float64 `json:"price"`
}

const requestSchema = `{
	"type": "object",
	"required": ["price"],
	"properties": {
		"price": {"type": "number", "minimum": 0, "maximum": 1000000000}
	}
}`

func Adapter(flightsRepo FlightsRepository, enqueuer Enqueuer, priceUpdatesQueue string, log logrus.FieldLogger) Handler {
	validator := internal.MustSchemaValidator(requestSchema)

	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		flightID := req.PathParameters["flight_id"]
		if internal.IsBlank(flightID) {
			return internal.Error(http.StatusBadRequest, repository.ErrMissingFlightID), nil
		}

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

		flightLog := log.WithFields(logrus.Fields{
			"flight_id": flightID,
			"price":     request.Price,
		})

		update, err := flightsRepo.UpdateLatestPrice(ctx, flightID, request.Price)
		if errors.Is(err, repository.ErrFlightNotFound) {
			return internal.Error(http.StatusNotFound, err), nil
		}
		if err != nil {
			flightLog.WithError(err).Error("unable to record price")
			return internal.Error(http.StatusInternalServerError, err), nil
		}

		if !update.NeedsPublish() {
			flightLog.Debug("price already published")
			return internal.JSON(http.StatusOK, update.Updated), nil
		}

		err = enqueuer.SendMsg(ctx, update.Message(), priceUpdatesQueue)
		if err != nil {
			flightLog.WithError(err).Error("unable to publish price update")
			return internal.Error(http.StatusInternalServerError, err), nil
		}

		// Left unmarked, the next write of this price publishes it again.
		err = flightsRepo.MarkPublished(ctx, flightID, request.Price)
		if err != nil {
			flightLog.WithError(err).Warn("unable to mark price as published")
		}

		flightLog.Info("price update published")
		return internal.JSON(http.StatusOK, update.Updated), nil
	}
}

func main() {
	log := internal.NewLogger(internal.EnvOr("LOG_LEVEL", "info"))
	flightsTable := internal.EnvOr("DYNAMODB_FLIGHT_TRACKING", repository.TableName)
	priceUpdatesQueue := internal.MustEnv("PRICE_UPDATES_QUEUE")
	sess := session.Must(session.NewSession())
	dynamodbClient := internal.NewDynamodbClient(sess, os.Getenv("DYNAMODB_ENDPOINT"))
	flightsRepo := repository.NewFlightsRepository(dynamodbClient, flightsTable)
	enqueuer := internal.NewEnqueuer(sqs.New(sess), 0)
	lambda.Start(Adapter(flightsRepo, enqueuer, priceUpdatesQueue, log))
}
