package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/google/go-cmp/cmp"
	"github.com/nategamble/flight_price_checker/flights/internal/model"
	"github.com/nategamble/flight_price_checker/internal"
	"github.com/stretchr/testify/require"
)

func createFlightsTable(client *dynamodb.DynamoDB, table string, t *testing.T) {
	_, err := client.CreateTable(TableDefinition(table))
	if err != nil {
		t.Fatalf("Error while creating flights table: %v\n", err)
	}
}

func startRepository(t *testing.T) (func(), *FlightsRepository) {
	closer, client := internal.DynamodbStart(t)
	createFlightsTable(client, TableName, t)
	return closer, NewFlightsRepository(client, TableName)
}

func TestFlightsRepository_SaveAndFind(t *testing.T) {
	closer, flightsRepo := startRepository(t)
	defer closer()
	ctx := context.Background()

	flightsToSave := []model.FlightRecord{
		{
			FlightID:    "FL123",
			Origin:      "JFK",
			Destination: "LAX",
			LatestPrice: price(325.50),
			UserEmail:   "user@example.com",
		},
		{
			FlightID:    "FL124",
			Origin:      "JFK",
			Destination: "LAX",
			UserEmail:   "user@example.com",
		},
	}

	for _, f := range flightsToSave {
		_, err := flightsRepo.Save(ctx, f)
		require.NoError(t, err)
	}

	for _, f := range flightsToSave {
		foundFlight, err := flightsRepo.Find(ctx, f.FlightID)
		require.NoError(t, err)
		if diff := cmp.Diff(f, foundFlight); diff != "" {
			t.Errorf("Error while finding flight: (-want,+got)\n%s", diff)
		}
	}

	// Same key overwrites the stored entity
	overwrite := flightsToSave[0]
	overwrite.Destination = "SFO"
	_, err := flightsRepo.Save(ctx, overwrite)
	require.NoError(t, err)
	foundFlight, err := flightsRepo.Find(ctx, "FL123")
	require.NoError(t, err)
	require.Equal(t, "SFO", foundFlight.Destination)

	_, err = flightsRepo.Find(ctx, "FL999")
	require.Equal(t, ErrFlightNotFound, err)
}

func TestFlightsRepository_UpdateLatestPrice(t *testing.T) {
	closer, flightsRepo := startRepository(t)
	defer closer()
	ctx := context.Background()

	_, err := flightsRepo.Track(ctx, model.FlightRecord{
		FlightID:    "FL123",
		Origin:      "JFK",
		Destination: "LAX",
		UserEmail:   "user@example.com",
	})
	require.NoError(t, err)

	update, err := flightsRepo.UpdateLatestPrice(ctx, "FL123", 325.50)
	require.NoError(t, err)
	require.False(t, update.Previous.HasPrice())
	require.Equal(t, price(325.50), update.Updated.LatestPrice)
	require.True(t, update.NeedsPublish())
	require.NoError(t, flightsRepo.MarkPublished(ctx, "FL123", 325.50))

	update, err = flightsRepo.UpdateLatestPrice(ctx, "FL123", 280)
	require.NoError(t, err)
	require.Equal(t, price(325.50), update.Previous.LatestPrice)
	require.Equal(t, price(325.50), update.Announced)
	require.True(t, update.NeedsPublish())

	found, err := flightsRepo.Find(ctx, "FL123")
	require.NoError(t, err)
	require.Equal(t, model.FlightRecord{
		FlightID:    "FL123",
		Origin:      "JFK",
		Destination: "LAX",
		LatestPrice: price(280),
		UserEmail:   "user@example.com",
	}, found)

	_, err = flightsRepo.UpdateLatestPrice(ctx, "FL999", 10)
	require.Equal(t, ErrFlightNotFound, err)
	_, err = flightsRepo.Find(ctx, "FL999")
	require.Equal(t, ErrFlightNotFound, err, "a price update must not create a record")
}

func TestFlightsRepository_UnpublishedPriceIsPublishedAgain(t *testing.T) {
	closer, flightsRepo := startRepository(t)
	defer closer()
	ctx := context.Background()

	_, err := flightsRepo.Track(ctx, model.FlightRecord{FlightID: "FL123", LatestPrice: price(325.50)})
	require.NoError(t, err)

	// Publishing 299.99 fails, so it is never marked
	update, err := flightsRepo.UpdateLatestPrice(ctx, "FL123", 299.99)
	require.NoError(t, err)
	require.True(t, update.NeedsPublish())

	// The same price written again still has to be published, from the announced price
	update, err = flightsRepo.UpdateLatestPrice(ctx, "FL123", 299.99)
	require.NoError(t, err)
	require.Equal(t, price(299.99), update.Previous.LatestPrice)
	require.True(t, update.NeedsPublish())
	require.Equal(t, price(325.50), update.Message().PreviousPrice)

	require.NoError(t, flightsRepo.MarkPublished(ctx, "FL123", 299.99))
	update, err = flightsRepo.UpdateLatestPrice(ctx, "FL123", 299.99)
	require.NoError(t, err)
	require.False(t, update.NeedsPublish())

	// A mark for a price that was replaced meanwhile changes nothing
	_, err = flightsRepo.UpdateLatestPrice(ctx, "FL123", 250)
	require.NoError(t, err)
	require.NoError(t, flightsRepo.MarkPublished(ctx, "FL123", 299.99))
	update, err = flightsRepo.UpdateLatestPrice(ctx, "FL123", 250)
	require.NoError(t, err)
	require.Equal(t, price(299.99), update.Announced)
	require.True(t, update.NeedsPublish())
}

func TestFlightsRepository_Delete(t *testing.T) {
	closer, flightsRepo := startRepository(t)
	defer closer()
	ctx := context.Background()

	tracked := model.FlightRecord{FlightID: "FL123", Origin: "JFK", UserEmail: "user@example.com"}
	_, err := flightsRepo.Track(ctx, tracked)
	require.NoError(t, err)

	deleted, err := flightsRepo.Delete(ctx, "FL123")
	require.NoError(t, err)
	require.Equal(t, tracked, deleted)

	_, err = flightsRepo.Find(ctx, "FL123")
	require.Equal(t, ErrFlightNotFound, err)

	_, err = flightsRepo.Delete(ctx, "FL123")
	require.Equal(t, ErrFlightNotFound, err)
}

func TestFlightsRepository_ListByUserEmail(t *testing.T) {
	closer, flightsRepo := startRepository(t)
	defer closer()
	ctx := context.Background()

	flightsToSave := []model.FlightRecord{
		{FlightID: "FL1", Origin: "JFK", Destination: "LAX", UserEmail: "a@example.com"},
		{FlightID: "FL2", Origin: "SFO", Destination: "SEA", UserEmail: "b@example.com"},
		{FlightID: "FL3", Origin: "LAX", Destination: "JFK", UserEmail: "a@example.com", LatestPrice: price(120)},
	}
	for _, f := range flightsToSave {
		_, err := flightsRepo.Save(ctx, f)
		require.NoError(t, err)
	}

	foundFlights, err := flightsRepo.ListByUserEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.Len(t, foundFlights, 2)
	require.Contains(t, foundFlights, flightsToSave[0])
	require.Contains(t, foundFlights, flightsToSave[2])

	_, err = flightsRepo.ListByUserEmail(ctx, "nobody@example.com")
	require.Equal(t, ErrNoFlightsFound, err)
}

func TestFlightsRepository_Track(t *testing.T) {
	// Arrange
	closer, flightsRepo := startRepository(t)
	defer closer()
	ctx := context.Background()

	// Act, concurrently try to track the same flight
	limit := 50
	wg := sync.WaitGroup{}
	wg.Add(limit)
	mux := sync.Mutex{}
	success := 0
	conflicts := 0
	winner := ""
	launchTime := time.Now().Add(100 * time.Millisecond)
	for i := 0; i < limit; i++ {
		go func(ii int) {
			defer wg.Done()
			time.Sleep(time.Until(launchTime))
			email := fmt.Sprintf("user%v@example.com", ii)
			_, err := flightsRepo.Track(ctx, model.FlightRecord{
				FlightID:  "FL123",
				Origin:    "JFK",
				UserEmail: email,
			})
			mux.Lock()
			defer mux.Unlock()
			switch err {
			case nil:
				winner = email
				success++
			case ErrFlightAlreadyTracked:
				conflicts++
			default:
				t.Errorf("[%v] unexpected error: %v", ii, err)
			}
		}(i)
	}
	wg.Wait()

	// Assert
	require.Equal(t, 1, success, "A flight was tracked more than once")
	require.Equal(t, limit-1, conflicts)
	found, err := flightsRepo.Find(ctx, "FL123")
	require.NoError(t, err)
	require.Equal(t, winner, found.UserEmail)
}
