package repository

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/nategamble/flight_price_checker/flights/internal/model"
	pkgerrors "github.com/pkg/errors"
)

var (
	ErrFlightNotFound       = errors.New("flight_not_found")
	ErrNoFlightsFound       = errors.New("no_flights_found")
	ErrFlightAlreadyTracked = errors.New("flight_already_tracked")
	ErrMissingFlightID      = errors.New("missing_flight_id")
)

const (
	keyExists  = "attribute_exists(#id)"
	keyMissing = "attribute_not_exists(#id)"
)

type FlightsRepository struct {
	client dynamodbiface.DynamoDBAPI
	table  string
}

// Track stores a newly tracked flight. It fails with ErrFlightAlreadyTracked
// when a record with the same id exists.
func (r *FlightsRepository) Track(ctx context.Context, f model.FlightRecord) (model.FlightRecord, error) {
	if f.FlightID == "" {
		return model.FlightRecord{}, ErrMissingFlightID
	}

	// A price given at registration is known to the user already.
	item := MarshalFlight(f)
	if f.LatestPrice != nil {
		item[PublishedPriceAttribute] = priceValue(*f.LatestPrice)
	}

	_, err := r.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.table),
		Item:                     item,
		ConditionExpression:      aws.String(keyMissing),
		ExpressionAttributeNames: keyNames(),
	})
	if isConditionFailed(err) {
		return model.FlightRecord{}, ErrFlightAlreadyTracked
	}
	if err != nil {
		return model.FlightRecord{}, pkgerrors.Wrapf(err, "tracking flight %q", f.FlightID)
	}

	return f, nil
}

// Save writes the record whether or not it already exists.
func (r *FlightsRepository) Save(ctx context.Context, f model.FlightRecord) (model.FlightRecord, error) {
	if f.FlightID == "" {
		return model.FlightRecord{}, ErrMissingFlightID
	}

	_, err := r.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      MarshalFlight(f),
	})
	if err != nil {
		return model.FlightRecord{}, pkgerrors.Wrapf(err, "saving flight %q", f.FlightID)
	}

	return f, nil
}

func (r *FlightsRepository) Find(ctx context.Context, flightID string) (model.FlightRecord, error) {
	if flightID == "" {
		return model.FlightRecord{}, ErrMissingFlightID
	}

	out, err := r.client.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            FlightKey(flightID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return model.FlightRecord{}, pkgerrors.Wrapf(err, "finding flight %q", flightID)
	}

	if len(out.Item) == 0 {
		return model.FlightRecord{}, ErrFlightNotFound
	}

	return UnmarshalFlight(out.Item)
}

// Delete removes the record and returns what was stored.
func (r *FlightsRepository) Delete(ctx context.Context, flightID string) (model.FlightRecord, error) {
	if flightID == "" {
		return model.FlightRecord{}, ErrMissingFlightID
	}

	out, err := r.client.DeleteItemWithContext(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(r.table),
		Key:                      FlightKey(flightID),
		ConditionExpression:      aws.String(keyExists),
		ExpressionAttributeNames: keyNames(),
		ReturnValues:             aws.String(dynamodb.ReturnValueAllOld),
	})
	if isConditionFailed(err) {
		return model.FlightRecord{}, ErrFlightNotFound
	}
	if err != nil {
		return model.FlightRecord{}, pkgerrors.Wrapf(err, "deleting flight %q", flightID)
	}

	return UnmarshalFlight(out.Attributes)
}

// UpdateLatestPrice sets the latest observed price of an existing flight. The
// result carries the record before and after the write and the last announced price.
func (r *FlightsRepository) UpdateLatestPrice(ctx context.Context, flightID string, price float64) (PriceUpdate, error) {
	if flightID == "" {
		return PriceUpdate{}, ErrMissingFlightID
	}

	out, err := r.client.UpdateItemWithContext(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.table),
		Key:                 FlightKey(flightID),
		ConditionExpression: aws.String(keyExists),
		UpdateExpression:    aws.String("set #price = :price"),
		ExpressionAttributeNames: map[string]*string{
			"#id":    aws.String(KeyAttribute),
			"#price": aws.String(LatestPriceAttribute),
		},
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":price": priceValue(price),
		},
		ReturnValues: aws.String(dynamodb.ReturnValueAllOld),
	})
	if isConditionFailed(err) {
		return PriceUpdate{}, ErrFlightNotFound
	}
	if err != nil {
		return PriceUpdate{}, pkgerrors.Wrapf(err, "updating price of flight %q", flightID)
	}

	previous, err := UnmarshalFlight(out.Attributes)
	if err != nil {
		return PriceUpdate{}, err
	}
	announced, err := numberAttr(out.Attributes, PublishedPriceAttribute)
	if err != nil {
		return PriceUpdate{}, pkgerrors.Wrapf(err, "flight %q", flightID)
	}

	return PriceUpdate{
		Previous:  previous,
		Updated:   previous.WithPrice(price),
		Announced: announced,
	}, nil
}

// MarkPublished records price as announced. It does nothing when the flight
// is gone or a newer price was stored meanwhile; that write announces itself.
func (r *FlightsRepository) MarkPublished(ctx context.Context, flightID string, price float64) error {
	if flightID == "" {
		return ErrMissingFlightID
	}

	_, err := r.client.UpdateItemWithContext(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.table),
		Key:                 FlightKey(flightID),
		ConditionExpression: aws.String("#price = :price"),
		UpdateExpression:    aws.String("set #published = :price"),
		ExpressionAttributeNames: map[string]*string{
			"#price":     aws.String(LatestPriceAttribute),
			"#published": aws.String(PublishedPriceAttribute),
		},
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":price": priceValue(price),
		},
	})
	if isConditionFailed(err) {
		return nil
	}
	if err != nil {
		return pkgerrors.Wrapf(err, "marking price of flight %q as published", flightID)
	}

	return nil
}

// ListByUserEmail returns every flight tracked by email, following all result pages.
func (r *FlightsRepository) ListByUserEmail(ctx context.Context, email string) ([]model.FlightRecord, error) {
	items := []map[string]*dynamodb.AttributeValue{}
	err := r.client.QueryPagesWithContext(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.table),
		IndexName:              aws.String(UserEmailIndex),
		KeyConditionExpression: aws.String("#email = :email"),
		ExpressionAttributeNames: map[string]*string{
			"#email": aws.String(UserEmailAttribute),
		},
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":email": {
				S: aws.String(email),
			},
		},
	}, func(page *dynamodb.QueryOutput, lastPage bool) bool {
		items = append(items, page.Items...)
		return true
	})
	if err != nil {
		return []model.FlightRecord{}, pkgerrors.Wrapf(err, "listing flights of %q", email)
	}

	if len(items) == 0 {
		return []model.FlightRecord{}, ErrNoFlightsFound
	}

	return hydrate(items)
}

func keyNames() map[string]*string {
	return map[string]*string{
		"#id": aws.String(KeyAttribute),
	}
}

func isConditionFailed(err error) bool {
	aerr, ok := err.(awserr.Error)
	return ok && aerr.Code() == dynamodb.ErrCodeConditionalCheckFailedException
}

func NewFlightsRepository(client dynamodbiface.DynamoDBAPI, table string) *FlightsRepository {
	return &FlightsRepository{
		client: client,
		table:  table,
	}
}
