package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/aufildessentiers/backend/internal/database/testutil"
	"github.com/aufildessentiers/backend/internal/models"
)

func seedUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()
	user := &models.User{
		Email:    email,
		Password: "irrelevant-hash",
		Name:     "Test User",
		Role:     role,
		Status:   models.StatusActive,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func newEventFixture(t *testing.T) (*EventService, *gorm.DB, *models.User) {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewEventService(db)
	require.NoError(t, err)
	creator := seedUser(t, db, "creator@example.com", models.RoleUser)
	return svc, db, creator
}

func TestCreateAndGetEvent(t *testing.T) {
	svc, _, creator := newEventFixture(t)
	ctx := context.Background()

	event, err := svc.Create(ctx, creator.ID, CreateEventInput{
		Title:           "Tour du lac Pavin",
		Description:     "Boucle facile autour du lac.",
		Date:            time.Now().AddDate(0, 1, 0),
		Location:        "Besse-et-Saint-Anastaise",
		Latitude:        45.4959,
		Longitude:       2.8875,
		MaxParticipants: 10,
	})
	require.NoError(t, err)
	require.Equal(t, models.EventStatusOpen, event.Status)
	require.Equal(t, creator.ID, event.CreatedBy)
	require.True(t, event.IsActive)

	loaded, err := svc.Get(ctx, event.ID)
	require.NoError(t, err)
	require.Equal(t, "Tour du lac Pavin", loaded.Title)
	require.NotNil(t, loaded.Creator)

	_, err = svc.Get(ctx, 9999)
	require.ErrorIs(t, err, ErrEventNotFound)
}

func TestCreateEventValidation(t *testing.T) {
	svc, _, creator := newEventFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, creator.ID, CreateEventInput{Location: "Somewhere", Date: time.Now()})
	require.Error(t, err)

	_, err = svc.Create(ctx, creator.ID, CreateEventInput{Title: "No location", Date: time.Now()})
	require.Error(t, err)
}

func TestListEventsPagination(t *testing.T) {
	svc, _, creator := newEventFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, creator.ID, CreateEventInput{
			Title:    "Sortie",
			Date:     time.Now().AddDate(0, 0, i+1),
			Location: "Ici",
		})
		require.NoError(t, err)
	}

	events, total, err := svc.List(ctx, ListEventsOptions{Limit: 2, Offset: 0})
	require.NoError(t, err)
	require.EqualValues(t, 5, total)
	require.Len(t, events, 2)

	events, _, err = svc.List(ctx, ListEventsOptions{Limit: 2, Offset: 4})
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestNearbySearch(t *testing.T) {
	svc, _, creator := newEventFixture(t)
	ctx := context.Background()

	mk := func(title string, lat, lng float64) {
		_, err := svc.Create(ctx, creator.ID, CreateEventInput{
			Title: title, Date: time.Now().AddDate(0, 1, 0), Location: title,
			Latitude: lat, Longitude: lng,
		})
		require.NoError(t, err)
	}

	// Clermont-Ferrand as the search centre.
	mk("proche", 45.78, 3.08)    // a few km away
	mk("moyen", 45.90, 3.20)     // ~17 km
	mk("lointain", 44.90, 4.90)  // far outside
	mk("antipode", -45.78, -176) // nowhere near

	events, err := svc.Nearby(ctx, NearbyOptions{Latitude: 45.7772, Longitude: 3.0870, RadiusKm: 30})
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "proche", events[0].Title)
	require.Equal(t, "moyen", events[1].Title)

	events, err = svc.Nearby(ctx, NearbyOptions{Latitude: 45.7772, Longitude: 3.0870, RadiusKm: 5})
	require.NoError(t, err)
	require.Len(t, events, 1)

	_, err = svc.Nearby(ctx, NearbyOptions{Latitude: 45.7772, Longitude: 3.0870, RadiusKm: 0})
	require.Error(t, err)
	_, err = svc.Nearby(ctx, NearbyOptions{Latitude: 95, Longitude: 3, RadiusKm: 10})
	require.Error(t, err)
}

func TestUpdateEventOwnership(t *testing.T) {
	svc, db, creator := newEventFixture(t)
	ctx := context.Background()

	event, err := svc.Create(ctx, creator.ID, CreateEventInput{
		Title: "Original", Date: time.Now().AddDate(0, 1, 0), Location: "Ici",
	})
	require.NoError(t, err)

	stranger := seedUser(t, db, "stranger@example.com", models.RoleUser)
	admin := seedUser(t, db, "admin@example.com", models.RoleAdmin)

	newTitle := "Modifié"
	_, err = svc.Update(ctx, stranger, event.ID, UpdateEventInput{Title: &newTitle})
	require.ErrorIs(t, err, ErrNotEventOwner)

	updated, err := svc.Update(ctx, creator, event.ID, UpdateEventInput{Title: &newTitle})
	require.NoError(t, err)
	require.Equal(t, "Modifié", updated.Title)

	cancelled := models.EventStatusCancelled
	updated, err = svc.Update(ctx, admin, event.ID, UpdateEventInput{Status: &cancelled})
	require.NoError(t, err)
	require.Equal(t, models.EventStatusCancelled, updated.Status)

	bogus := "archived"
	_, err = svc.Update(ctx, admin, event.ID, UpdateEventInput{Status: &bogus})
	require.Error(t, err)
}

func TestDeleteEventHidesIt(t *testing.T) {
	svc, db, creator := newEventFixture(t)
	ctx := context.Background()

	event, err := svc.Create(ctx, creator.ID, CreateEventInput{
		Title: "Ephémère", Date: time.Now().AddDate(0, 1, 0), Location: "Ici",
	})
	require.NoError(t, err)

	stranger := seedUser(t, db, "stranger@example.com", models.RoleUser)
	require.ErrorIs(t, svc.Delete(ctx, stranger, event.ID), ErrNotEventOwner)

	require.NoError(t, svc.Delete(ctx, creator, event.ID))

	_, err = svc.Get(ctx, event.ID)
	require.ErrorIs(t, err, ErrEventNotFound)

	_, total, err := svc.List(ctx, ListEventsOptions{})
	require.NoError(t, err)
	require.Zero(t, total)
}
