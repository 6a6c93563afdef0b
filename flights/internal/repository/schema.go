package repository

import (
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/nategamble/flight_price_checker/flights/internal/model"
	"github.com/pkg/errors"
)

const (
	TableName = "FlightTracking"

	KeyAttribute         = "flightId"
	OriginAttribute      = "origin"
	DestinationAttribute = "destination"
	LatestPriceAttribute = "latestPrice"
	UserEmailAttribute   = "userEmail"

	// PublishedPriceAttribute holds the last price announced on the price
	// updates queue. It is bookkeeping and not part of FlightRecord.
	PublishedPriceAttribute = "publishedPrice"

	UserEmailIndex = "by_user_email"
)

// FlightKey is the primary key of the record stored under flightID.
func FlightKey(flightID string) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		KeyAttribute: {
			S: aws.String(flightID),
		},
	}
}

// MarshalFlight converts a record into its stored item. Empty strings and a nil
// price are left out since DynamoDB rejects empty string attributes.
func MarshalFlight(f model.FlightRecord) map[string]*dynamodb.AttributeValue {
	item := FlightKey(f.FlightID)
	putString(item, OriginAttribute, f.Origin)
	putString(item, DestinationAttribute, f.Destination)
	putString(item, UserEmailAttribute, f.UserEmail)
	if f.LatestPrice != nil {
		item[LatestPriceAttribute] = priceValue(*f.LatestPrice)
	}
	return item
}

// UnmarshalFlight is the inverse of MarshalFlight. Missing attributes stay at
// their zero value; a missing or NULL price stays nil.
func UnmarshalFlight(item map[string]*dynamodb.AttributeValue) (model.FlightRecord, error) {
	f := model.FlightRecord{
		FlightID:    stringAttr(item, KeyAttribute),
		Origin:      stringAttr(item, OriginAttribute),
		Destination: stringAttr(item, DestinationAttribute),
		UserEmail:   stringAttr(item, UserEmailAttribute),
	}

	latest, err := numberAttr(item, LatestPriceAttribute)
	if err != nil {
		return model.FlightRecord{}, errors.Wrapf(err, "flight %q", f.FlightID)
	}
	f.LatestPrice = latest

	return f, nil
}

func hydrate(items []map[string]*dynamodb.AttributeValue) ([]model.FlightRecord, error) {
	flights := make([]model.FlightRecord, len(items))
	for i, item := range items {
		f, err := UnmarshalFlight(item)
		if err != nil {
			return []model.FlightRecord{}, err
		}
		flights[i] = f
	}
	return flights, nil
}

// TableDefinition describes the flight tracking table and its by-user index.
func TableDefinition(table string) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName: aws.String(table),
		AttributeDefinitions: []*dynamodb.AttributeDefinition{
			{
				AttributeName: aws.String(KeyAttribute),
				AttributeType: aws.String(dynamodb.ScalarAttributeTypeS),
			},
			{
				AttributeName: aws.String(UserEmailAttribute),
				AttributeType: aws.String(dynamodb.ScalarAttributeTypeS),
			},
		},
		KeySchema: []*dynamodb.KeySchemaElement{
			{
				AttributeName: aws.String(KeyAttribute),
				KeyType:       aws.String(dynamodb.KeyTypeHash),
			},
		},
		ProvisionedThroughput: &dynamodb.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(5),
			WriteCapacityUnits: aws.Int64(5),
		},
		GlobalSecondaryIndexes: []*dynamodb.GlobalSecondaryIndex{
			{
				IndexName: aws.String(UserEmailIndex),
				KeySchema: []*dynamodb.KeySchemaElement{
					{
						AttributeName: aws.String(UserEmailAttribute),
						KeyType:       aws.String(dynamodb.KeyTypeHash),
					},
				},
				Projection: &dynamodb.Projection{
					ProjectionType: aws.String(dynamodb.ProjectionTypeAll),
				},
				ProvisionedThroughput: &dynamodb.ProvisionedThroughput{
					ReadCapacityUnits:  aws.Int64(5),
					WriteCapacityUnits: aws.Int64(5),
				},
			},
		},
	}
}

func putString(item map[string]*dynamodb.AttributeValue, name string, value string) {
	if value == "" {
		return
	}
	item[name] = &dynamodb.AttributeValue{
		S: aws.String(value),
	}
}

func stringAttr(item map[string]*dynamodb.AttributeValue, name string) string {
	if v, ok := item[name]; ok && v != nil && v.S != nil {
		return *v.S
	}
	return ""
}

// numberAttr reads an optional N attribute; absent or NULL is nil.
func numberAttr(item map[string]*dynamodb.AttributeValue, name string) (*float64, error) {
	v, ok := item[name]
	if !ok || v == nil || v.N == nil {
		return nil, nil
	}
	n, err := strconv.ParseFloat(*v.N, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", name)
	}
	return &n, nil
}

func priceValue(p float64) *dynamodb.AttributeValue {
	return &dynamodb.AttributeValue{
		N: aws.String(strconv.FormatFloat(p, 'f', -1, 64)),
	}
}
